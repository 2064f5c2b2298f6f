package graph

import (
	"fmt"

	"github.com/vk/nngarden/internal/document"
	"github.com/vk/nngarden/internal/history"
	"github.com/vk/nngarden/internal/node"
)

// Export describes the whole graph, including the function templates.
// Positions are absolute.
func (e *Engine) Export() (*document.Document, error) {
	doc, err := document.Export(e.st, e.st.arena.Indices(), node.Vec2{})
	if err != nil {
		return nil, err
	}
	doc.Functions = e.st.registry.Export()
	return doc, nil
}

// Save writes the whole graph to path. YAML is used for .yaml and .yml
// paths, indented JSON otherwise. The file is replaced atomically.
func (e *Engine) Save(path string) error {
	doc, err := e.Export()
	if err != nil {
		return err
	}
	if err := document.WriteFile(path, doc); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	e.logger.Debug("Graph saved.", "path", path, "nodes", len(doc.Nodes), "functions", len(doc.Functions))
	return nil
}

// Load replaces the graph with the one saved at path. The graph is rebuilt
// off to the side and swapped in only if every step succeeds; on error the
// current graph is untouched. History starts empty after a load.
func (e *Engine) Load(path string) error {
	doc, err := document.ReadFile(path)
	if err != nil {
		return err
	}
	if err := e.LoadDocument(doc); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.logger.Debug("Graph loaded.", "path", path, "nodes", len(doc.Nodes), "functions", len(doc.Functions))
	return nil
}

// LoadDocument replaces the graph with doc. See Load.
func (e *Engine) LoadDocument(doc *document.Document) error {
	fresh := newState(e.capacity, nil)
	if err := fresh.registry.Import(doc.Functions); err != nil {
		return err
	}
	if _, err := fresh.importDocument(doc, node.Vec2{}, true); err != nil {
		return err
	}
	fresh.history.Clear()
	e.st = fresh
	return nil
}

// Journal encodes the edit history so it can be replayed later.
func (e *Engine) Journal() ([]byte, error) {
	return e.st.history.Marshal()
}

// Replay rebuilds the graph by applying the journaled operations up to its
// cursor to an empty graph. Nodes get the exact indices they had when the
// journal was written. Function templates are taken from the current
// registry. On error the current graph is untouched.
func (e *Engine) Replay(journal []byte) error {
	ops, cursor, err := history.Unmarshal(journal)
	if err != nil {
		return err
	}

	fresh := newState(e.capacity, e.st.registry)
	for i, op := range ops[:cursor] {
		if err := fresh.history.Apply(fresh, op); err != nil {
			return fmt.Errorf("replay operation %d (%s): %w", i, op, err)
		}
	}
	e.st = fresh
	e.logger.Debug("Journal replayed.", "operations", cursor)
	return nil
}
