package library

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vk/nngarden/internal/document"
	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/function"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

const bucketTemplates = "templates"

var initDB = map[string]func(*bolt.Tx) error{
	"initialize template table": func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketTemplates))
		return err
	},
}

// Entry summarizes a stored template.
type Entry struct {
	Key        uuid.UUID
	Name       string
	NumInputs  int
	NumOutputs int
	SavedAt    time.Time
}

type record struct {
	Name       string            `json:"name"`
	NumInputs  int               `json:"num_inputs"`
	NumOutputs int               `json:"num_outputs"`
	SavedAt    time.Time         `json:"saved_at"`
	Document   document.Document `json:"document"`
}

// Store is a template library backed by a bbolt file.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens or creates the library at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open library %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				return fmt.Errorf("failed to %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores t under its key, replacing any previous version.
func (s *Store) Put(t function.Template) error {
	if t.Key == uuid.Nil {
		return errors.New("template has no key")
	}
	data, err := encode(record{
		Name:       t.Name,
		NumInputs:  t.NumInputs,
		NumOutputs: t.NumOutputs,
		SavedAt:    s.now().UTC(),
		Document:   t.Document,
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTemplates)).Put(t.Key[:], data)
	})
}

// Get loads the template stored under key. Its ID is left zero; it gets one
// when registered.
func (s *Store) Get(key uuid.UUID) (function.Template, error) {
	var rec record
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketTemplates)).Get(key[:])
		if v == nil {
			return fmt.Errorf("%w: template %s", errdefs.ErrNotFound, key)
		}
		return decode(v, &rec)
	})
	if err != nil {
		return function.Template{}, err
	}
	return function.Template{
		Key:        key,
		Name:       rec.Name,
		Document:   rec.Document,
		NumInputs:  rec.NumInputs,
		NumOutputs: rec.NumOutputs,
	}, nil
}

// Delete removes the template stored under key. Deleting a missing key is
// not an error.
func (s *Store) Delete(key uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTemplates)).Delete(key[:])
	})
}

// List summarizes every stored template, ordered by name and then key.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTemplates)).ForEach(func(k, v []byte) error {
			key, err := uuid.FromBytes(k)
			if err != nil {
				return fmt.Errorf("corrupt template key: %w", err)
			}
			var rec record
			if err := decode(v, &rec); err != nil {
				return fmt.Errorf("template %s: %w", key, err)
			}
			entries = append(entries, Entry{
				Key:        key,
				Name:       rec.Name,
				NumInputs:  rec.NumInputs,
				NumOutputs: rec.NumOutputs,
				SavedAt:    rec.SavedAt.UTC(),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return bytes.Compare(entries[i].Key[:], entries[j].Key[:]) < 0
	})
	return entries, nil
}

// SaveAll stores every template of reg.
func (s *Store) SaveAll(reg *function.Registry) error {
	for _, t := range reg.All() {
		if err := s.Put(t); err != nil {
			return fmt.Errorf("save template %q: %w", t.Name, err)
		}
	}
	return nil
}

// LoadInto registers every stored template whose key reg does not know yet
// and returns the newly registered templates.
func (s *Store) LoadInto(reg *function.Registry) ([]function.Template, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	var added []function.Template
	for _, e := range entries {
		if _, ok := reg.Lookup(e.Key); ok {
			continue
		}
		t, err := s.Get(e.Key)
		if err != nil {
			return added, err
		}
		added = append(added, reg.Register(t))
	}
	return added, nil
}

func encode(rec record) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte, rec *record) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(rec); err != nil {
		return fmt.Errorf("decode template: %w", err)
	}
	return nil
}
