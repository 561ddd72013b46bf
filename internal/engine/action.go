package engine

import (
	"fmt"
	"time"
)

// ActionConfig carries the attributes used to construct an Action, mirrors
// the action stanza of a service's YAML definition (command/target/
// timeout/delay/retry/errors/fanout).
type ActionConfig struct {
	Name        string
	Description string
	Command     string
	Target      string
	Timeout     time.Duration
	Delay       time.Duration
	Retry       int
	Errors      int
	Fanout      int
	Simulate    bool
	Scope       *VariableScope
}

// Action is a leaf executable unit: a shell command targeted at a node
// set, owned by exactly one service, per spec §4.3.
type Action struct {
	BaseEntity

	command     string
	fanout      int
	retry       int
	retryBackup int

	worker    Worker
	startTime time.Time
	stopTime  time.Time

	// sawWeakFailure is latched when Prepare dispatches this action despite
	// a weak (REQUIRE_WEAK) dependency having failed, so a clean run still
	// resolves to Warning rather than Done, per spec §4's Warning rule.
	sawWeakFailure bool

	service *Service
	manager *ActionManager
}

// NewAction validates and constructs an Action. Per spec §8's boundary
// behaviors, delay=0 with retry>0 is rejected at construction time.
func NewAction(cfg ActionConfig) (*Action, error) {
	if cfg.Delay <= 0 && cfg.Retry > 0 {
		return nil, fmt.Errorf("action %s: retry=%d requires delay>0", cfg.Name, cfg.Retry)
	}
	if cfg.Fanout <= 0 {
		cfg.Fanout = 1 << 30 // effectively unbounded unless explicitly capped
	}
	a := &Action{
		BaseEntity:  NewBaseEntity(cfg.Name, cfg.Description, cfg.Target, cfg.Timeout, cfg.Delay, cfg.Errors, cfg.Simulate, cfg.Scope),
		command:     cfg.Command,
		fanout:      cfg.Fanout,
		retry:       cfg.Retry,
		retryBackup: -1,
	}
	if cfg.Retry > 0 {
		a.retryBackup = cfg.Retry
	}
	return a, nil
}

// AddDependency wires an Action-level edge onto another Action.
func (a *Action) AddDependency(target *Action, kind Kind, internal bool) error {
	if err := a.BaseEntity.AddDependency(target, kind, internal); err != nil {
		return err
	}
	target.BaseEntity.registerChild(a)
	return nil
}

// Command returns the shell command this action runs, after %{...}
// expansion against the entity's variable scope.
func (a *Action) Command() (string, error) {
	return a.ResolveProperty(a.command)
}

// Retry returns the action's remaining retry count.
func (a *Action) Retry() int { return a.retry }

// Fanout returns this action's own concurrency cap (not the dispatcher's
// global cap, which is the max over all running actions).
func (a *Action) Fanout() int { return a.fanout }

// Duration reports how long the action's most recent attempt took. The
// second return value is false until both start and stop have been
// recorded.
func (a *Action) Duration() (time.Duration, bool) {
	if a.startTime.IsZero() || a.stopTime.IsZero() {
		return 0, false
	}
	return a.stopTime.Sub(a.startTime), true
}

// SetService assigns the owning parent service. Called once at service
// construction time.
func (a *Action) SetService(s *Service) { a.service = s }

// view returns the manager's observer, or a no-op if this action has
// not yet been bound to a manager (e.g. in isolated unit tests).
func (a *Action) view() UserView {
	if a.manager == nil {
		return NoopUserView{}
	}
	return a.manager.view
}

// reset returns the action to NoStatus, clears timing and worker state,
// and restores retry from its backup, per spec §3's lifecycle rule.
func (a *Action) reset() {
	a.BaseEntity.reset()
	a.startTime = time.Time{}
	a.stopTime = time.Time{}
	a.worker = nil
	a.sawWeakFailure = false
	if a.retryBackup >= 0 {
		a.retry = a.retryBackup
	}
}

// Prepare implements Entity. It is the recursive leaves-first walk of
// spec §4.3: an action with no status yet either schedules (when its
// dependencies are ready or it has none), short-circuits to Done for a
// commandless action riding on already-successful dependencies, or
// recurses into whichever dependency targets are still unresolved.
func (a *Action) Prepare() {
	if a.Status() != NoStatus {
		return
	}
	deps := a.evalDepsStatus()

	switch deps {
	case depWaiting:
		return
	case depError:
		// A strong dependency already failed: never dispatch the command,
		// just propagate the failure.
		a.updateStatus(Error)
	case depNoStatus:
		if len(a.parentOrder) == 0 {
			a.setStatus(WaitingStatus)
			a.Schedule(true)
			return
		}
		for _, dep := range a.unresolvedParents() {
			a.view().OnTriggerDep(a.Name(), dep.Name())
			dep.Prepare()
		}
	case depDone, depWarning:
		if deps == depWarning {
			a.sawWeakFailure = true
		}
		if a.command == "" {
			// Pure-dependency chain: nothing of its own to run, and every
			// predecessor already terminated cleanly (or with only warnings).
			if a.sawWeakFailure {
				a.updateStatus(Warning)
			} else {
				a.updateStatus(Done)
			}
			return
		}
		a.setStatus(WaitingStatus)
		a.Schedule(true)
	}
}

// Schedule hands the action to the dispatcher, honoring its delay unless
// allowDelay is false. A retry calls Schedule(true), so its delay applies
// again, and re-enters WaitingStatus directly without ever passing back
// through NoStatus; when a delay timer fires, the dispatcher dispatches
// the action itself without coming back through Schedule.
func (a *Action) Schedule(allowDelay bool) {
	if a.startTime.IsZero() {
		a.startTime = time.Now()
	}
	if a.Simulate() {
		a.onSimulatedClose()
		return
	}
	if a.delay() > 0 && allowDelay {
		a.manager.performDelayedAction(a)
		return
	}
	a.manager.performAction(a)
}

func (a *Action) delay() time.Duration { return a.BaseEntity.delay }

// onSimulatedClose resolves a simulated action's status purely from its
// dependency evaluation, without ever touching the task runtime, per
// spec §4.2's simulate attribute and the ghost-action behavior carried
// over from the original implementation (see SPEC_FULL.md §4).
func (a *Action) onSimulatedClose() {
	if a.sawWeakFailure {
		a.updateStatus(Warning)
		return
	}
	a.updateStatus(Done)
}

// onWorkerClose is the task runtime's close callback for a dispatched
// action, implementing spec §4.3's retry/timeout/too-many-errors
// resolution.
func (a *Action) onWorkerClose(w Worker) {
	a.stopTime = time.Now()
	a.worker = w

	errCount := 0
	for _, rc := range w.IterRetcodes() {
		if rc.Code != 0 {
			errCount += len(rc.Nodes)
		}
	}
	tooManyErrors := errCount > a.ErrorsTolerance()
	timedOut := w.DidTimeout()

	if (tooManyErrors || timedOut) && a.retry > 0 {
		a.retry--
		a.Schedule(true)
		return
	}

	switch {
	case tooManyErrors:
		a.updateStatus(TooManyErrors)
	case timedOut:
		a.updateStatus(TimedOut)
	case a.sawWeakFailure:
		a.updateStatus(Warning)
	default:
		a.updateStatus(Done)
	}
}

// updateStatus implements spec §4.3: assign the status, and if terminal,
// either drive ready reverse-dependents or — if this action has no action
// children of its own — notify the owning service.
func (a *Action) updateStatus(s Status) {
	a.setStatus(s)
	a.view().OnStatusChanged(a.Name(), s)
	if !s.IsTerminal() {
		return
	}
	a.view().OnComplete(a.Name(), s)
	dependents := a.Dependents()
	if len(dependents) == 0 {
		if a.service != nil {
			a.service.notifyActionStatus(s)
		}
		return
	}
	for _, dep := range dependents {
		if dep.Status() == NoStatus {
			dep.Prepare()
		}
	}
}
