package engine

import (
	"sync"
	"time"
)

// Entity is implemented by both Action and Service (and, through Service,
// ServiceGroup). It is the generic vertex type the graph-walking logic in
// BaseEntity operates on: eval_deps_status, status propagation, and the
// reverse-dependent notification walk all work against this interface so
// the same code drives both the action graph and the service graph.
type Entity interface {
	Name() string
	Status() Status
	// Prepare recursively walks unresolved dependencies leaves-first and
	// dispatches this entity once they are all terminal. It is always
	// safe to call on an already-terminal entity (no-op).
	Prepare()

	setStatus(Status)
	base() *BaseEntity
}

// BaseEntity holds the attributes and dependency bookkeeping shared by
// Action and Service, per spec §4.2.
type BaseEntity struct {
	mu sync.RWMutex

	name        string
	description string
	target      string // node-set expression, e.g. "node[1-4]"
	timeout     time.Duration
	delay       time.Duration
	errors      int // max tolerated per-node nonzero retcodes
	simulate    bool
	scope       *VariableScope

	status Status

	// parentOrder preserves insertion order for parents so traversal is
	// deterministic (see spec §9's open question on search_deps order).
	parentOrder []string
	parents     map[string]*depEdge

	// children are back-references to dependents: not owned, used only to
	// drive the reverse-notification walk in updateStatus.
	childOrder []string
	children   map[string]Entity
}

// NewBaseEntity constructs a BaseEntity with the given identity attributes.
func NewBaseEntity(name, description, target string, timeout, delay time.Duration, errorsTolerance int, simulate bool, scope *VariableScope) BaseEntity {
	return BaseEntity{
		name:        name,
		description: description,
		target:      target,
		timeout:     timeout,
		delay:       delay,
		errors:      errorsTolerance,
		simulate:    simulate,
		scope:       scope,
		status:      NoStatus,
		parents:     make(map[string]*depEdge),
		children:    make(map[string]Entity),
	}
}

func (b *BaseEntity) Name() string        { return b.name }
func (b *BaseEntity) Description() string { return b.description }
func (b *BaseEntity) Target() string      { return b.target }
func (b *BaseEntity) Timeout() time.Duration { return b.timeout }
func (b *BaseEntity) Delay() time.Duration   { return b.delay }
func (b *BaseEntity) ErrorsTolerance() int   { return b.errors }
func (b *BaseEntity) Simulate() bool         { return b.simulate }
func (b *BaseEntity) SetSimulate(v bool)     { b.simulate = v }
func (b *BaseEntity) Scope() *VariableScope  { return b.scope }

// Status returns the entity's current status.
func (b *BaseEntity) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

func (b *BaseEntity) setStatus(s Status) {
	b.mu.Lock()
	b.status = s
	b.mu.Unlock()
}

// base returns a pointer to the embedded BaseEntity so generic helpers can
// reach fields without type-switching on the concrete Entity.
func (b *BaseEntity) base() *BaseEntity { return b }

// ResolveProperty expands %{...} interpolation in value against this
// entity's variable scope. Lookups are deterministic: calling it twice
// with the same value against an unchanged scope always returns the same
// result.
func (b *BaseEntity) ResolveProperty(value string) (string, error) {
	if b.scope == nil {
		return value, nil
	}
	return b.scope.Resolve(value)
}

// AddDependency wires a new outgoing edge to target, rejecting a duplicate
// reference to the same target name. It also registers the reverse
// back-pointer on the target so status propagation can walk dependents.
func (b *BaseEntity) AddDependency(target Entity, kind Kind, internal bool) error {
	b.mu.Lock()
	if _, exists := b.parents[target.Name()]; exists {
		b.mu.Unlock()
		return &DependencyAlreadyReferencedError{Entity: b.name, Target: target.Name()}
	}
	b.parentOrder = append(b.parentOrder, target.Name())
	b.parents[target.Name()] = &depEdge{
		dep:    Dependency{Target: target.Name(), Kind: kind, Internal: internal},
		target: target,
	}
	b.mu.Unlock()

	tb := target.base()
	tb.mu.Lock()
	tb.childOrder = append(tb.childOrder, b.name)
	tb.children[b.name] = nil // placeholder; set by caller via registerChild
	tb.mu.Unlock()
	return nil
}

// registerChild finishes wiring the reverse back-pointer; AddDependency
// cannot store `self` directly because it only has a *BaseEntity, not the
// owning Entity value, so the concrete Action/Service calls this right
// after embedding AddDependency.
func (b *BaseEntity) registerChild(self Entity) {
	b.mu.Lock()
	b.children[self.Name()] = self
	b.mu.Unlock()
}

// Dependents returns the entities with an outgoing edge onto this one, in
// registration order.
func (b *BaseEntity) Dependents() []Entity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entity, 0, len(b.childOrder))
	for _, name := range b.childOrder {
		if e := b.children[name]; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// DependencyTargets returns the resolved Entity pointers of this
// entity's outgoing edges, in registration order, for graph walks
// (reachability, cycle detection) that need the targets themselves
// rather than just their declared names.
func (b *BaseEntity) DependencyTargets() []Entity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entity, 0, len(b.parentOrder))
	for _, name := range b.parentOrder {
		out = append(out, b.parents[name].target)
	}
	return out
}

// Dependencies returns this entity's outgoing edges in registration order.
func (b *BaseEntity) Dependencies() []Dependency {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Dependency, 0, len(b.parentOrder))
	for _, name := range b.parentOrder {
		out = append(out, b.parents[name].dep)
	}
	return out
}

// evalDepsStatus walks outgoing deps in stable (insertion) order and
// returns the aggregate depStatus per spec §4.2's five-rule priority:
// a strong failure beats a wait, which beats an unready dep, which beats
// a weak failure, which beats a clean done.
func (b *BaseEntity) evalDepsStatus() depStatus {
	b.mu.RLock()
	order := b.parentOrder
	parents := b.parents
	b.mu.RUnlock()

	strongFailed := false
	waiting := false
	noStatus := false
	weakFailed := false

	for _, name := range order {
		edge := parents[name]
		s := edge.target.Status()
		if edge.dep.Kind.IsStrong() && s.IsFailure() {
			strongFailed = true
		}
		if s == WaitingStatus {
			waiting = true
		}
		if s == NoStatus {
			noStatus = true
		}
		if edge.dep.Kind == RequireWeak && s.IsFailure() {
			weakFailed = true
		}
	}

	switch {
	case strongFailed:
		return depError
	case waiting:
		return depWaiting
	case noStatus:
		return depNoStatus
	case weakFailed:
		return depWarning
	default:
		return depDone
	}
}

// unresolvedParents returns dependency targets still at NoStatus, in
// registration order — used by Prepare to recurse leaves-first.
func (b *BaseEntity) unresolvedParents() []Entity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Entity
	for _, name := range b.parentOrder {
		edge := b.parents[name]
		if edge.target.Status() == NoStatus {
			out = append(out, edge.target)
		}
	}
	return out
}

// reset returns the entity to NoStatus. Concrete types extend this to
// clear their own timing/worker/retry state.
func (b *BaseEntity) reset() {
	b.setStatus(NoStatus)
}
