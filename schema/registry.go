package schema

import (
	"fmt"
	"sort"
	"sync"
)

// ConflictError reports two structurally different schemas competing for
// the same component name within one document.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schema name %q is already registered with a different structure", e.Name)
}

type registryEntry struct {
	node        *Node
	hash        uint64
	placeholder bool
}

// Registry holds the named schemas of one document build. It is safe for
// concurrent use so path builds can share it.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// placeholder reserves a name before its node is built, so recursive
// references to a schema under construction resolve to a Ref instead of
// looping. Reserving an already registered name is a no-op.
func (r *Registry) placeholder(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		r.entries[name] = &registryEntry{placeholder: true}
	}
}

// finalize records a fully built node under name. A finalized entry with
// the same structural hash is reused; a different hash is a conflict.
func (r *Registry) finalize(name string, node *Node) (Ref, error) {
	h := StructuralHash(node)
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[name]
	if ok && !existing.placeholder {
		if existing.hash != h {
			return Ref{}, &ConflictError{Name: name}
		}
		return RefTo(name), nil
	}
	r.entries[name] = &registryEntry{node: node, hash: h}
	return RefTo(name), nil
}

// Add registers a hand-built named schema, subject to the same dedup and
// conflict rules as builder-produced schemas.
func (r *Registry) Add(name string, node *Node) (Ref, error) {
	return r.finalize(name, node)
}

// Schemas returns the finalized named schemas. Placeholders that never
// finalized (a failed build) are skipped.
func (r *Registry) Schemas() map[string]*Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*Node, len(r.entries))
	for name, e := range r.entries {
		if !e.placeholder {
			out[name] = e.node
		}
	}
	return out
}

// Names returns the finalized schema names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name, e := range r.entries {
		if !e.placeholder {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Len reports the number of finalized schemas.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if !e.placeholder {
			n++
		}
	}
	return n
}
