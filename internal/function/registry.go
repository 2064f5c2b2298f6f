package function

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/nngarden/internal/document"
	"github.com/vk/nngarden/internal/errdefs"
)

// Template is a reusable subgraph. Its ID is its position in the registry;
// Key identifies it across sessions and in the library.
type Template struct {
	ID         int
	Key        uuid.UUID
	Name       string
	Document   document.Document
	NumInputs  int
	NumOutputs int
}

// NewTemplate builds a template whose arity is the unmatched wire count of
// doc.
func NewTemplate(name string, doc document.Document) Template {
	return Template{
		Key:        uuid.New(),
		Name:       name,
		Document:   doc,
		NumInputs:  len(doc.UnmatchedInputs),
		NumOutputs: len(doc.UnmatchedOutputs),
	}
}

// Registry is the ordered list of templates known to an engine.
type Registry struct {
	templates []Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends t, assigning its ID and a key if it has none.
func (r *Registry) Register(t Template) Template {
	t.ID = len(r.templates)
	if t.Key == uuid.Nil {
		t.Key = uuid.New()
	}
	r.templates = append(r.templates, t)
	return t
}

// Get returns the template with the given id.
func (r *Registry) Get(id int) (Template, error) {
	if id < 0 || id >= len(r.templates) {
		return Template{}, fmt.Errorf("%w: function template %d", errdefs.ErrNotFound, id)
	}
	return r.templates[id], nil
}

// Lookup finds a template by key.
func (r *Registry) Lookup(key uuid.UUID) (Template, bool) {
	for _, t := range r.templates {
		if t.Key == key {
			return t, true
		}
	}
	return Template{}, false
}

// All returns the templates in id order.
func (r *Registry) All() []Template {
	return append([]Template(nil), r.templates...)
}

// Len returns the number of templates.
func (r *Registry) Len() int {
	return len(r.templates)
}

// Reset forgets every template.
func (r *Registry) Reset() {
	r.templates = nil
}

// Export lists the templates in their document form.
func (r *Registry) Export() []document.Function {
	out := make([]document.Function, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, document.Function{
			ID:         t.ID,
			Key:        t.Key,
			Name:       t.Name,
			NumInputs:  t.NumInputs,
			NumOutputs: t.NumOutputs,
			Document:   t.Document,
		})
	}
	return out
}

// Import replaces the registry contents with fns. Ids must be dense and in
// order.
func (r *Registry) Import(fns []document.Function) error {
	templates := make([]Template, 0, len(fns))
	for i, f := range fns {
		if f.ID != i {
			return fmt.Errorf("%w: function %q has id %d at position %d", errdefs.ErrMalformedDocument, f.Name, f.ID, i)
		}
		key := f.Key
		if key == uuid.Nil {
			key = uuid.New()
		}
		templates = append(templates, Template{
			ID:         f.ID,
			Key:        key,
			Name:       f.Name,
			Document:   f.Document,
			NumInputs:  f.NumInputs,
			NumOutputs: f.NumOutputs,
		})
	}
	r.templates = templates
	return nil
}
