package engine

import (
	"context"
	"fmt"
	"sort"
)

// verbSetter is satisfied by *Service and *ServiceGroup.
type verbSetter interface {
	SetVerb(string)
}

// resetter is satisfied by *Service and *ServiceGroup.
type resetter interface {
	reset()
}

// Registry is the top-level entry point: it owns every registered
// Service and ServiceGroup, resolves names to entities, and drives
// call_services invocations across the graph, per spec §4.6.
type Registry struct {
	manager *ActionManager

	entities map[string]Entity
	order    []string
}

// NewRegistry constructs an empty registry bound to the given
// dispatcher.
func NewRegistry(manager *ActionManager) *Registry {
	return &Registry{
		manager:  manager,
		entities: make(map[string]Entity),
	}
}

// Register adds a top-level Service or ServiceGroup, binding every
// action it (recursively, for a group) owns to this registry's
// dispatcher.
func (r *Registry) Register(e Entity) error {
	if _, exists := r.entities[e.Name()]; exists {
		return fmt.Errorf("service %q already registered", e.Name())
	}
	r.bind(e)
	r.entities[e.Name()] = e
	r.order = append(r.order, e.Name())
	return nil
}

func (r *Registry) bind(e Entity) {
	switch v := e.(type) {
	case *ServiceGroup:
		for _, m := range v.Members() {
			r.bind(m)
		}
	case *Service:
		for _, a := range v.Actions() {
			r.manager.Bind(a)
		}
	}
}

// Get resolves a registered name to its entity.
func (r *Registry) Get(name string) (Entity, error) {
	e, ok := r.entities[name]
	if !ok {
		return nil, &ServiceNotFoundError{Name: name}
	}
	return e, nil
}

// AddDependency wires a cross-service dependency edge between two
// registered top-level entities.
func (r *Registry) AddDependency(from, to string, kind Kind, internal bool) error {
	fe, err := r.Get(from)
	if err != nil {
		return err
	}
	te, err := r.Get(to)
	if err != nil {
		return err
	}
	type dependable interface {
		AddDependency(Entity, Kind, bool) error
	}
	d, ok := fe.(dependable)
	if !ok {
		return fmt.Errorf("entity %q cannot declare dependencies", from)
	}
	return d.AddDependency(te, kind, internal)
}

// Names returns every registered top-level name, in registration
// order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// reachable returns the closure of roots under DependencyTargets,
// including the roots themselves, in deterministic depth-first
// discovery order from the roots (each entity before its dependency
// targets and group members).
func (r *Registry) reachable(roots []Entity) []Entity {
	seen := make(map[string]bool)
	var out []Entity
	var walk func(e Entity)
	walk = func(e Entity) {
		if seen[e.Name()] {
			return
		}
		seen[e.Name()] = true
		out = append(out, e)
		for _, dep := range e.base().DependencyTargets() {
			walk(dep)
		}
		if g, ok := e.(*ServiceGroup); ok {
			for _, m := range g.Members() {
				walk(m)
			}
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return out
}

// checkCycles runs a DFS with a recursion stack over the reachable set,
// returning a CycleError naming the offending path on the first cycle
// found.
func checkCycles(roots []Entity) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var path []string

	var visit func(e Entity) error
	visit = func(e Entity) error {
		switch state[e.Name()] {
		case done:
			return nil
		case visiting:
			cyclePath := append(append([]string{}, path...), e.Name())
			return &CycleError{Path: cyclePath}
		}
		state[e.Name()] = visiting
		path = append(path, e.Name())
		for _, dep := range e.base().DependencyTargets() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[e.Name()] = done
		return nil
	}

	for _, root := range roots {
		if err := visit(root); err != nil {
			return err
		}
	}
	return nil
}

// CallServices is the single run-the-graph entry point: it resolves
// names to entities, validates the transitive dependency closure is
// acyclic, resets every entity in that closure (so re-running the same
// verb, or a different one, always starts clean), then walks the graph
// to completion by preparing each requested root and draining the
// dispatcher's event loop.
func (r *Registry) CallServices(ctx context.Context, names []string, verb string) (map[string]Status, error) {
	roots := make([]Entity, 0, len(names))
	for _, name := range names {
		e, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		roots = append(roots, e)
	}

	closure := r.reachable(roots)
	if err := checkCycles(closure); err != nil {
		return nil, err
	}

	for _, e := range closure {
		if rs, ok := e.(resetter); ok {
			rs.reset()
		}
	}
	for _, e := range closure {
		if vs, ok := e.(verbSetter); ok {
			vs.SetVerb(verb)
		}
	}

	for _, root := range roots {
		root.Prepare()
	}

	if err := r.manager.Resume(ctx); err != nil {
		return nil, err
	}

	results := make(map[string]Status, len(names))
	for _, root := range roots {
		results[root.Name()] = root.Status()
	}
	return results, nil
}

// ForceSimulate overrides every registered action's simulate flag,
// used by the CLI's --dry-run flag to run a whole graph in simulation
// regardless of each action's own config-declared simulate attribute.
func (r *Registry) ForceSimulate(v bool) {
	var apply func(e Entity)
	apply = func(e Entity) {
		switch x := e.(type) {
		case *ServiceGroup:
			for _, m := range x.Members() {
				apply(m)
			}
		case *Service:
			for _, a := range x.Actions() {
				a.SetSimulate(v)
			}
		}
	}
	for _, name := range r.order {
		apply(r.entities[name])
	}
}

// SortedNames is a small convenience used by CLI listing commands.
func (r *Registry) SortedNames() []string {
	out := r.Names()
	sort.Strings(out)
	return out
}
