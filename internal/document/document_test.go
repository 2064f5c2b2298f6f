package document

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/node"
	"github.com/vk/nngarden/internal/nodeid"
)

// fakeSource is a map-backed Source.
type fakeSource struct {
	nodes     []node.Value
	functions map[nodeid.Index]node.Boundary
}

func (f *fakeSource) add(v node.Value) nodeid.Index {
	v.Index = nodeid.New(uint32(len(f.nodes)), 1)
	f.nodes = append(f.nodes, v)
	return v.Index
}

func (f *fakeSource) get(idx nodeid.Index) *node.Value {
	return &f.nodes[idx.Slot]
}

func (f *fakeSource) Node(idx nodeid.Index) (node.Value, error) {
	if int(idx.Slot) >= len(f.nodes) || f.nodes[idx.Slot].Index != idx {
		return node.Value{}, errdefs.ErrInvalidIndex
	}
	return f.nodes[idx.Slot], nil
}

func (f *fakeSource) Nodes() []node.Value { return f.nodes }

func (f *fakeSource) FunctionData(idx nodeid.Index) (node.Boundary, bool) {
	b, ok := f.functions[idx]
	return b, ok
}

func intPtr(i int) *int { return &i }

// chain builds x -> tanh -> result plus a second consumer of x.
func chain(t *testing.T) (*fakeSource, []nodeid.Index) {
	t.Helper()
	src := &fakeSource{}
	x := src.add(node.NewParameter("x", 0.5))
	th := src.add(node.New(node.Tanh))
	res := src.add(node.New(node.Result))
	other := src.add(node.New(node.Sin))

	src.get(x).Position = node.Vec2{X: 10, Y: 10}
	src.get(th).Position = node.Vec2{X: 20, Y: 30}
	src.get(th).Inputs[0] = node.Socket{Node: x}
	src.get(res).Inputs[0] = node.Socket{Node: th}
	src.get(other).Inputs[0] = node.Socket{Node: x}
	return src, []nodeid.Index{x, th, res, other}
}

func TestExport_Subset(t *testing.T) {
	// --- Arrange ---
	src, ids := chain(t)
	x, th := ids[0], ids[1]
	// A second consumer slot of the same producer socket.
	add := src.add(node.New(node.Add))
	src.get(add).Inputs[0] = node.Socket{Node: x}
	src.get(add).Inputs[1] = node.Socket{Node: x}

	// --- Act ---
	doc, err := Export(src, []nodeid.Index{th, add}, node.Vec2{X: 5, Y: 5})

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, [2]float64{15, 25}, doc.Offsets[0])

	// One placeholder per distinct producer socket, one entry per consumer.
	assert.Equal(t, &Input{Node: 2, Slot: 0}, doc.Nodes[0].Inputs[0])
	assert.Equal(t, &Input{Node: 2, Slot: 0}, doc.Nodes[1].Inputs[0])
	assert.Equal(t, &Input{Node: 2, Slot: 0}, doc.Nodes[1].Inputs[1])
	require.Len(t, doc.UnmatchedInputs, 3)
	for _, u := range doc.UnmatchedInputs {
		assert.Equal(t, x, u.OriginalStart)
		assert.Equal(t, 2, u.Placeholder)
	}

	require.Len(t, doc.UnmatchedOutputs, 1)
	assert.Equal(t, UnmatchedOutput{Start: 0, StartSlot: 0, OriginalEnd: ids[2], OriginalEndSlot: 0}, doc.UnmatchedOutputs[0])
	assert.NoError(t, Validate(doc))
}

func TestExport_DeadIndex(t *testing.T) {
	src, _ := chain(t)
	_, err := Export(src, []nodeid.Index{nodeid.New(0, 7)}, node.Vec2{})
	assert.ErrorIs(t, err, errdefs.ErrInvalidIndex)
}

func TestExport_FunctionNode(t *testing.T) {
	// --- Arrange ---
	src, ids := chain(t)
	x, th, res := ids[0], ids[1], ids[2]
	fn := src.add(node.New(node.Function))
	src.get(th).Parent = fn
	src.functions = map[nodeid.Index]node.Boundary{
		fn: {
			FunctionID: 3,
			Inputs:     []node.Connection{node.NewConnection(x, 0, th, 0)},
			Outputs:    []node.Connection{node.NewConnection(th, 0, res, 0)},
		},
	}

	// --- Act ---
	doc, err := Export(src, []nodeid.Index{fn, th, res}, node.Vec2{})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, intPtr(0), doc.Nodes[1].Parent)
	assert.Equal(t, [2]float64{0, 0}, doc.Offsets[1], "grouped members carry no offset")
	require.Len(t, doc.FunctionNodes, 1)
	assert.Equal(t, FunctionNode{
		Node:       0,
		FunctionID: 3,
		Inputs:     []BoundaryEdge{{Member: 1, MemberSlot: 0, Peer: nil, PeerSlot: 0}},
		Outputs:    []BoundaryEdge{{Member: 1, MemberSlot: 0, Peer: intPtr(2), PeerSlot: 0}},
	}, doc.FunctionNodes[0])
	assert.NoError(t, Validate(doc))
}

func TestValidate(t *testing.T) {
	valid := func() *Document {
		return &Document{
			Nodes: []Node{
				{Index: 0, Operation: node.Constant, Inputs: make([]*Input, node.MaxInputs)},
				{Index: 1, Operation: node.Tanh, Inputs: []*Input{{Node: 0}, nil, nil, nil}},
			},
			Offsets: [][2]float64{{0, 0}, {1, 1}},
		}
	}
	require.NoError(t, Validate(valid()))

	testCases := []struct {
		name   string
		mutate func(d *Document)
		want   string
	}{
		{"sparse index", func(d *Document) { d.Nodes[1].Index = 5 }, "not dense"},
		{"unknown input", func(d *Document) { d.Nodes[1].Inputs[0].Node = 9 }, "neither a member nor a placeholder"},
		{"self input", func(d *Document) { d.Nodes[1].Inputs[0].Node = 1 }, "feeds itself"},
		{"bad slot", func(d *Document) { d.Nodes[1].Inputs[0].Slot = node.MaxOutputs }, "output slot"},
		{"missing offsets", func(d *Document) { d.Offsets = nil }, "offsets"},
		{"parent is not a function", func(d *Document) { d.Nodes[1].Parent = intPtr(0) }, "not a function"},
		{"dangling placeholder", func(d *Document) {
			d.UnmatchedInputs = []UnmatchedInput{{Placeholder: 2, End: 1, EndSlot: 0}}
		}, "does not reference placeholder"},
		{"unmatched output range", func(d *Document) {
			d.UnmatchedOutputs = []UnmatchedOutput{{Start: 4}}
		}, "start 4 out of range"},
		{"function node on plain node", func(d *Document) {
			d.FunctionNodes = []FunctionNode{{Node: 0}}
		}, "not a function node"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := valid()
			tc.mutate(d)
			err := Validate(d)
			require.ErrorIs(t, err, errdefs.ErrMalformedDocument)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	src, ids := chain(t)
	doc, err := Export(src, ids[1:3], node.Vec2{X: 1, Y: 2})
	require.NoError(t, err)
	doc.Functions = []Function{{
		ID:         0,
		Key:        uuid.MustParse("6f1c1a3e-2b7d-4c1e-9a53-0d1e2f3a4b5c"),
		Name:       "squash",
		NumInputs:  1,
		NumOutputs: 0,
		Document:   *doc,
	}}

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Marshal(doc, format)
			require.NoError(t, err)

			got, err := Unmarshal(data, format)
			require.NoError(t, err)
			if diff := cmp.Diff(doc, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodec_JSONShape(t *testing.T) {
	src, ids := chain(t)
	doc, err := Export(src, ids[1:2], node.Vec2{})
	require.NoError(t, err)

	data, err := Marshal(doc, FormatJSON)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "\n    \"nodes\": [")
	assert.Contains(t, text, `"operation": "tanh"`)
	assert.Contains(t, text, `"original_start": "0#1"`)
	assert.Contains(t, text, "null")
}

func TestCodec_NonFiniteValues(t *testing.T) {
	// --- Arrange ---
	src, ids := chain(t)
	src.get(ids[0]).Value = math.NaN()
	src.get(ids[1]).Value = math.Inf(1)
	src.get(ids[1]).Gradient = math.Inf(-1)
	doc, err := Export(src, ids[:2], node.Vec2{})
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			// --- Act ---
			data, err := Marshal(doc, format)
			require.NoError(t, err)
			got, err := Unmarshal(data, format)
			require.NoError(t, err)

			// --- Assert ---
			if diff := cmp.Diff(doc, got, cmpopts.EquateNaNs()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			assert.True(t, math.IsNaN(got.Nodes[0].Value))
			assert.True(t, math.IsInf(got.Nodes[1].Value, 1))
			assert.True(t, math.IsInf(got.Nodes[1].Gradient, -1))
		})
	}
}

func TestCodec_NonFiniteJSONShape(t *testing.T) {
	src, ids := chain(t)
	src.get(ids[0]).Value = math.NaN()
	src.get(ids[0]).Gradient = math.Inf(1)
	src.get(ids[1]).Value = math.Inf(-1)
	src.get(ids[1]).Gradient = 0.25
	doc, err := Export(src, ids[:2], node.Vec2{})
	require.NoError(t, err)

	data, err := Marshal(doc, FormatJSON)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `"value": "NaN"`)
	assert.Contains(t, text, `"gradient": "+Inf"`)
	assert.Contains(t, text, `"value": "-Inf"`)
	assert.Contains(t, text, `"gradient": 0.25`)
	assert.Contains(t, text, `"operation": "parameter"`)
}

func TestUnmarshal_NumberStrings(t *testing.T) {
	const tmpl = `{"nodes": [{"index": 0, "operation": "constant", "value": %s, "gradient": 0,
		"inputs": [], "parent": null, "name": "", "variable_connections": 0}],
		"offsets": [[0, 0]], "unmatched_inputs": [], "unmatched_outputs": []}`

	doc, err := Unmarshal([]byte(fmt.Sprintf(tmpl, `"Inf"`)), FormatJSON)
	require.NoError(t, err)
	assert.True(t, math.IsInf(doc.Nodes[0].Value, 1))

	doc, err = Unmarshal([]byte(fmt.Sprintf(tmpl, `-2.5`)), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, -2.5, doc.Nodes[0].Value)

	_, err = Unmarshal([]byte(fmt.Sprintf(tmpl, `"1.5"`)), FormatJSON)
	assert.ErrorIs(t, err, errdefs.ErrMalformedDocument)
	assert.ErrorContains(t, err, `invalid number "1.5"`)
}

func TestUnmarshal_Malformed(t *testing.T) {
	_, err := Unmarshal([]byte(`{"nodes": [{"index": 0, "operation": "teleport"}]}`), FormatJSON)
	assert.ErrorIs(t, err, errdefs.ErrMalformedDocument)

	_, err = Unmarshal([]byte("nodes: [oops"), FormatYAML)
	assert.ErrorIs(t, err, errdefs.ErrMalformedDocument)

	_, err = Unmarshal([]byte(`{}`), "toml")
	assert.ErrorContains(t, err, "unknown document format")
}

func TestWriteFile_ReadFile(t *testing.T) {
	// --- Arrange ---
	src, ids := chain(t)
	doc, err := Export(src, ids, node.Vec2{})
	require.NoError(t, err)
	dir := t.TempDir()

	for _, name := range []string{"graph.json", "graph.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", name)

			// --- Act ---
			require.NoError(t, WriteFile(path, doc))
			got, err := ReadFile(path)

			// --- Assert ---
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(doc, got))
			_, err = os.Stat(path + ".tmp")
			assert.True(t, os.IsNotExist(err), "temp file must be renamed away")
		})
	}

	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "read document")
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("a/b.YAML"))
	assert.Equal(t, FormatYAML, FormatForPath("b.yml"))
	assert.Equal(t, FormatJSON, FormatForPath("b.json"))
	assert.Equal(t, FormatJSON, FormatForPath("b"))
}
