package engine

import "sort"

// diagnosticVerbs tolerate a missing action: requesting "status" or
// "nodes" against a service that defines no such action trivially
// succeeds rather than raising ActionNotFoundError, matching the
// original implementation's read-only introspection verbs.
var diagnosticVerbs = map[string]bool{
	"status": true,
	"nodes":  true,
}

// ServiceConfig carries the attributes used to construct a Service.
type ServiceConfig struct {
	Name        string
	Description string
	Target      string
	Timeout     int64 // unused directly; actions carry their own timeout
	Scope       *VariableScope
}

// Service owns a set of named actions (one per verb it supports) and
// participates in the service-level dependency graph declared in
// config, per spec §4.4. Its own Status mirrors whichever action ran
// for the verb the current call_services invocation requested.
type Service struct {
	BaseEntity

	actions     map[string]*Action
	actionOrder []string

	verb  string
	group *ServiceGroup

	// sawWeakFailure is latched when this service's own cross-service
	// dependency evaluation found a failed weak dependency but proceeded
	// anyway, escalating an otherwise-clean run to Warning.
	sawWeakFailure bool
}

// NewService constructs an empty Service ready to receive actions.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		BaseEntity: NewBaseEntity(cfg.Name, cfg.Description, cfg.Target, 0, 0, 0, false, cfg.Scope),
		actions:    make(map[string]*Action),
	}
}

// AddAction registers an action under this service, keyed by verb name
// (e.g. "start", "stop", "check"). Adding two actions under the same
// verb is rejected.
func (s *Service) AddAction(verb string, a *Action) error {
	if _, exists := s.actions[verb]; exists {
		return &DependencyAlreadyReferencedError{Entity: s.name, Target: verb}
	}
	a.SetService(s)
	s.actionOrder = append(s.actionOrder, verb)
	s.actions[verb] = a
	return nil
}

// Action returns the action registered for a verb, or an
// ActionNotFoundError if the service defines none.
func (s *Service) Action(verb string) (*Action, error) {
	if a, ok := s.actions[verb]; ok {
		return a, nil
	}
	return nil, &ActionNotFoundError{Service: s.name, Action: verb}
}

// Actions returns every action this service defines, in registration
// order.
func (s *Service) Actions() []*Action {
	out := make([]*Action, 0, len(s.actionOrder))
	for _, verb := range s.actionOrder {
		out = append(out, s.actions[verb])
	}
	return out
}

// Verbs returns the sorted set of verbs this service defines actions
// for.
func (s *Service) Verbs() []string {
	out := make([]string, 0, len(s.actionOrder))
	out = append(out, s.actionOrder...)
	sort.Strings(out)
	return out
}

// SetVerb records which verb the current call_services invocation is
// resolving. A single run always uses exactly one verb across the
// whole graph, per spec §4.
func (s *Service) SetVerb(verb string) { s.verb = verb }

func (s *Service) setGroup(g *ServiceGroup) { s.group = g }

// AddDependency wires a service-level edge, used both for cross-service
// dependencies declared in config and for intra-group member ordering
// (Dependency.Internal distinguishes the two).
func (s *Service) AddDependency(target Entity, kind Kind, internal bool) error {
	if err := s.BaseEntity.AddDependency(target, kind, internal); err != nil {
		return err
	}
	target.base().registerChild(s)
	return nil
}

// PrepareVerb sets the active verb and enters the graph walk.
func (s *Service) PrepareVerb(verb string) {
	s.SetVerb(verb)
	s.Prepare()
}

// Prepare implements Entity for a plain Service: it walks this
// service's own cross-service dependency graph exactly as an Action
// walks its dependency graph (leaves first, same five-rule priority),
// and only once every dependency has resolved favorably does it look up
// and prepare the action for the active verb. The service holds
// WaitingStatus while that action runs, and its Status becomes final only
// once the action terminates, via notifyActionStatus. A service with no
// active verb set is left untouched.
func (s *Service) Prepare() {
	if s.Status() != NoStatus {
		return
	}
	if s.verb == "" {
		return
	}
	deps := s.evalDepsStatus()

	switch deps {
	case depWaiting:
		return
	case depNoStatus:
		for _, dep := range s.unresolvedParents() {
			dep.Prepare()
		}
	case depError:
		s.notifyActionStatus(Error)
	case depDone, depWarning:
		if deps == depWarning {
			s.sawWeakFailure = true
		}
		s.setStatus(WaitingStatus)
		s.runVerb()
	}
}

func (s *Service) runVerb() {
	action, err := s.Action(s.verb)
	if err != nil {
		if diagnosticVerbs[s.verb] {
			s.notifyActionStatus(Done)
			return
		}
		s.notifyActionStatus(Error)
		return
	}
	action.Prepare()
}

// notifyActionStatus is the callback an owned Action fires once its
// terminal status is known (or called directly for a diagnostic verb
// with no action of its own); it becomes this service's own status,
// escalated to Warning if this service's own dependency evaluation saw
// a failed weak dependency, then propagates to dependent services and,
// if this service is itself a group member, to the owning ServiceGroup.
func (s *Service) notifyActionStatus(st Status) {
	if s.sawWeakFailure && st == Done {
		st = Warning
	}
	s.setStatus(st)
	if !st.IsTerminal() {
		return
	}
	for _, dep := range s.Dependents() {
		if dep.Status() == NoStatus {
			dep.Prepare()
		}
	}
	if s.group != nil {
		s.group.memberTerminated(s.Name(), st)
	}
}

// reset returns the service and every action it owns to NoStatus.
func (s *Service) reset() {
	s.BaseEntity.reset()
	s.sawWeakFailure = false
	for _, verb := range s.actionOrder {
		s.actions[verb].reset()
	}
}
