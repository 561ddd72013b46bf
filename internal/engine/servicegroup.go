package engine

// ServiceGroup is a Service whose verb dispatch fans out to nested
// members rather than to an action of its own, per spec §4.5. Members
// may be plain Services or nested ServiceGroups; ordering among members
// is expressed as ordinary internal dependency edges on the members
// themselves (Dependency.Internal), not on the group.
type ServiceGroup struct {
	Service

	memberOrder []string
	members     map[string]Entity

	pending int
	worst   Status
}

// NewServiceGroup constructs an empty group.
func NewServiceGroup(cfg ServiceConfig) *ServiceGroup {
	return &ServiceGroup{
		Service: *NewService(cfg),
		members: make(map[string]Entity),
	}
}

// AddMember registers e as belonging to this group, wiring the reverse
// group pointer used by memberTerminated. Ordering between members, if
// any, must be added separately via the member's own AddDependency with
// internal=true.
func (g *ServiceGroup) AddMember(e Entity) {
	switch m := e.(type) {
	case *Service:
		m.setGroup(g)
	case *ServiceGroup:
		m.setGroup(g)
	}
	g.memberOrder = append(g.memberOrder, e.Name())
	g.members[e.Name()] = e
	g.pending++
}

// AddDependency wires a service-level edge onto the group itself. This
// must not be left to the promoted Service.AddDependency: that method's
// receiver is the embedded Service, so the registered back-pointer would
// reference the embedded struct instead of the group, and a dependent's
// terminal Prepare() would silently skip fanning out to members.
func (g *ServiceGroup) AddDependency(target Entity, kind Kind, internal bool) error {
	if err := g.BaseEntity.AddDependency(target, kind, internal); err != nil {
		return err
	}
	target.base().registerChild(g)
	return nil
}

// Members returns the group's direct members in registration order.
func (g *ServiceGroup) Members() []Entity {
	out := make([]Entity, 0, len(g.memberOrder))
	for _, name := range g.memberOrder {
		out = append(out, g.members[name])
	}
	return out
}

// SetVerb propagates the active verb to every member, recursively
// through nested groups.
func (g *ServiceGroup) SetVerb(verb string) {
	g.Service.SetVerb(verb)
	for _, name := range g.memberOrder {
		switch m := g.members[name].(type) {
		case *Service:
			m.SetVerb(verb)
		case *ServiceGroup:
			m.SetVerb(verb)
		}
	}
}

// PrepareVerb sets the active verb recursively and enters the walk.
func (g *ServiceGroup) PrepareVerb(verb string) {
	g.SetVerb(verb)
	g.Prepare()
}

// Prepare implements Entity for a group: it first resolves the group's
// own cross-service dependencies (exactly like a plain Service would),
// then, once clear to proceed, hands off to every member — members with
// still-unresolved internal predecessors simply recurse into them via
// their own Prepare, so call order here does not need to respect
// intra-group ordering itself. The group holds WaitingStatus until its
// last member reports, and a group with no active verb set is left
// untouched.
func (g *ServiceGroup) Prepare() {
	if g.Status() != NoStatus {
		return
	}
	if g.verb == "" {
		return
	}
	deps := g.evalDepsStatus()

	switch deps {
	case depWaiting:
		return
	case depNoStatus:
		for _, dep := range g.unresolvedParents() {
			dep.Prepare()
		}
	case depError:
		g.finish(Error)
	case depDone, depWarning:
		if len(g.members) == 0 {
			g.finish(Done)
			return
		}
		g.setStatus(WaitingStatus)
		for _, name := range g.memberOrder {
			g.members[name].Prepare()
		}
	}
}

// memberTerminated is called by a member once its own terminal status
// is known. Once every member has reported, the group's aggregate
// status is the worst of its members (Error-class beats Warning beats
// Done), per spec §4.5.
func (g *ServiceGroup) memberTerminated(name string, st Status) {
	g.worst = escalate(g.worst, st)
	g.pending--
	if g.pending <= 0 {
		g.finish(g.worst)
	}
}

// finish sets the group's terminal status and propagates it onward,
// exactly like Service.notifyActionStatus.
func (g *ServiceGroup) finish(st Status) {
	g.setStatus(st)
	if !st.IsTerminal() {
		return
	}
	for _, dep := range g.Dependents() {
		if dep.Status() == NoStatus {
			dep.Prepare()
		}
	}
	if g.group != nil {
		g.group.memberTerminated(g.Name(), st)
	}
}

// reset returns the group, and every member recursively, to NoStatus.
func (g *ServiceGroup) reset() {
	g.BaseEntity.reset()
	g.worst = NoStatus
	g.pending = len(g.memberOrder)
	for _, name := range g.memberOrder {
		switch m := g.members[name].(type) {
		case *Service:
			m.reset()
		case *ServiceGroup:
			m.reset()
		}
	}
}

// escalate returns whichever of current/incoming ranks worse, using
// spec §4's terminal-status priority: any failure class beats Warning,
// which beats Done, which beats an unset NoStatus.
func escalate(current, incoming Status) Status {
	rank := func(s Status) int {
		switch {
		case s.IsFailure():
			return 3
		case s == Warning:
			return 2
		case s == Done:
			return 1
		default:
			return 0
		}
	}
	if rank(incoming) > rank(current) {
		return incoming
	}
	return current
}
