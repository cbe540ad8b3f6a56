// internal/scoring/field/registry.go
package field

import (
	"fmt"
	"sort"
	"sync"
)

// Registry owns the field definitions for one engine instance. Every caller
// that needs an isolated configuration gets its own Registry; there is no
// shared package-level field list. Mutation must not overlap with in-flight
// calculations against the same instance (load once, compute many).
type Registry struct {
	mu     sync.RWMutex
	fields map[string]Definition
	order  []string // registration order, for deterministic listing
}

func NewRegistry() *Registry {
	return &Registry{
		fields: make(map[string]Definition),
	}
}

// NewRegistryWith builds a registry from a definition list, failing on the
// first invalid or cyclic entry. Derived fields may be listed before their
// dependencies, so cycle checking runs once over the whole set.
func NewRegistryWith(defs []Definition) (*Registry, error) {
	r := NewRegistry()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, def := range defs {
		if err := validateDefinition(def); err != nil {
			return nil, err
		}
		if _, exists := r.fields[def.ID]; exists {
			return nil, fmt.Errorf("field %q: duplicate identifier", def.ID)
		}
		r.fields[def.ID] = def
		r.order = append(r.order, def.ID)
	}
	if cycle := r.findCycleLocked(); cycle != "" {
		return nil, fmt.Errorf("field %q: dependency cycle", cycle)
	}
	return r, nil
}

// Register adds a new field definition. Derived fields are rejected when
// they would introduce a dependency cycle with already-registered fields.
func (r *Registry) Register(def Definition) error {
	if err := validateDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fields[def.ID]; exists {
		return fmt.Errorf("field %q: already registered", def.ID)
	}

	r.fields[def.ID] = def
	if cycle := r.findCycleLocked(); cycle != "" {
		delete(r.fields, def.ID)
		return fmt.Errorf("field %q: dependency cycle through %q", def.ID, cycle)
	}
	r.order = append(r.order, def.ID)
	return nil
}

// Update replaces an existing definition, with the same cycle guarantee.
func (r *Registry) Update(def Definition) error {
	if err := validateDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.fields[def.ID]
	if !exists {
		return fmt.Errorf("field %q: not registered", def.ID)
	}

	r.fields[def.ID] = def
	if cycle := r.findCycleLocked(); cycle != "" {
		r.fields[def.ID] = prev
		return fmt.Errorf("field %q: dependency cycle through %q", def.ID, cycle)
	}
	return nil
}

// Remove deletes a field definition.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fields[id]; !exists {
		return fmt.Errorf("field %q: not registered", id)
	}
	delete(r.fields, id)
	for i, fid := range r.order {
		if fid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the definition for the given ID.
func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.fields[id]
	return def, ok
}

// List returns all definitions in registration order.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.fields[id])
	}
	return out
}

// EvaluationOrder returns the derived field IDs in a topological order, so
// chained derivations (a derived field depending on another derived field)
// resolve in a single pass. Ties break lexicographically for determinism.
func (r *Registry) EvaluationOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// In-degree over derived-to-derived edges only; base dependencies are
	// already present in the snapshot and impose no ordering.
	indegree := make(map[string]int)
	dependents := make(map[string][]string)
	for id, def := range r.fields {
		if !def.IsDerived() {
			continue
		}
		indegree[id] = 0
	}
	for id, def := range r.fields {
		if !def.IsDerived() {
			continue
		}
		for _, dep := range def.Dependencies {
			if depDef, ok := r.fields[dep]; ok && depDef.IsDerived() {
				indegree[id]++
				dependents[dep] = append(dependents[dep], id)
			}
		}
	}

	ready := make([]string, 0, len(indegree))
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(indegree))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		next := dependents[id]
		sort.Strings(next)
		for _, dep := range next {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
		sort.Strings(ready)
	}

	// Cycles cannot occur here; Register/Update reject them. Anything left
	// with a positive in-degree would simply be skipped.
	return order
}

// findCycleLocked runs a DFS over derived dependency edges and returns the
// ID of a field on a cycle, or "".
func (r *Registry) findCycleLocked() string {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(r.fields))

	var visit func(id string) string
	visit = func(id string) string {
		switch state[id] {
		case visiting:
			return id
		case done:
			return ""
		}
		state[id] = visiting
		if def, ok := r.fields[id]; ok && def.IsDerived() {
			for _, dep := range def.Dependencies {
				if found := visit(dep); found != "" {
					return found
				}
			}
		}
		state[id] = done
		return ""
	}

	for id := range r.fields {
		if found := visit(id); found != "" {
			return found
		}
	}
	return ""
}

func validateDefinition(def Definition) error {
	if def.ID == "" {
		return fmt.Errorf("field definition requires an identifier")
	}
	if def.Weight < 0 {
		return fmt.Errorf("field %q: weight must be non-negative", def.ID)
	}
	if def.IsDerived() {
		if def.Formula == "" {
			return fmt.Errorf("field %q: derived field requires a formula", def.ID)
		}
		for _, dep := range def.Dependencies {
			if dep == def.ID {
				return fmt.Errorf("field %q: depends on itself", def.ID)
			}
		}
	}
	return nil
}
