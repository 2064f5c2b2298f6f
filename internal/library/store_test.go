package library

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nngarden/internal/document"
	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/function"
	"github.com/vk/nngarden/internal/node"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func squash() function.Template {
	doc := document.Document{
		Nodes: []document.Node{
			{Index: 0, Operation: node.Tanh, Inputs: []*document.Input{{Node: 1}, nil, nil, nil}, Name: "t"},
			{Index: 1, Operation: node.Constant, Value: 0.5, Inputs: make([]*document.Input, node.MaxInputs), Parent: nil},
		},
		Offsets:          [][2]float64{{1, 2}, {3, 4}},
		UnmatchedInputs:  []document.UnmatchedInput{},
		UnmatchedOutputs: []document.UnmatchedOutput{{Start: 0}},
	}
	return function.NewTemplate("squash", doc)
}

func TestPutGet(t *testing.T) {
	// --- Arrange ---
	s := openStore(t)
	tmpl := squash()

	// --- Act ---
	require.NoError(t, s.Put(tmpl))
	got, err := s.Get(tmpl.Key)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, tmpl.Key, got.Key)
	assert.Equal(t, "squash", got.Name)
	assert.Equal(t, 0, got.NumInputs)
	assert.Equal(t, 1, got.NumOutputs)
	require.Len(t, got.Document.Nodes, 2)
	assert.Equal(t, node.Tanh, got.Document.Nodes[0].Operation)
	assert.Equal(t, &document.Input{Node: 1}, got.Document.Nodes[0].Inputs[0])
	assert.Nil(t, got.Document.Nodes[0].Inputs[1])
	assert.Equal(t, 0.5, got.Document.Nodes[1].Value)
	assert.Equal(t, tmpl.Document.Offsets, got.Document.Offsets)
	assert.NoError(t, document.Validate(&got.Document))
}

func TestGet_Missing(t *testing.T) {
	s := openStore(t)
	_, err := s.Get(uuid.New())
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

func TestPut_RequiresKey(t *testing.T) {
	s := openStore(t)
	assert.Error(t, s.Put(function.Template{Name: "nameless"}))
}

func TestListAndDelete(t *testing.T) {
	s := openStore(t)
	a := squash()
	b := squash()
	b.Name = "activation"
	require.NoError(t, s.Put(a))
	require.NoError(t, s.Put(b))

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "activation", entries[0].Name)
	assert.Equal(t, "squash", entries[1].Name)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), entries[1].SavedAt)

	require.NoError(t, s.Delete(a.Key))
	require.NoError(t, s.Delete(a.Key))
	entries, err = s.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveAllLoadInto(t *testing.T) {
	// --- Arrange ---
	s := openStore(t)
	src := function.NewRegistry()
	first := src.Register(squash())
	second := squash()
	second.Name = "other"
	src.Register(second)
	require.NoError(t, s.SaveAll(src))

	dst := function.NewRegistry()
	dst.Register(first)

	// --- Act ---
	added, err := s.LoadInto(dst)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, added, 1, "known keys are skipped")
	assert.Equal(t, "other", added[0].Name)
	assert.Equal(t, 1, added[0].ID)
	assert.Equal(t, 2, dst.Len())
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")
	s, err := Open(path)
	require.NoError(t, err)
	tmpl := squash()
	require.NoError(t, s.Put(tmpl))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(tmpl.Key)
	require.NoError(t, err)
	assert.Equal(t, "squash", got.Name)
}
