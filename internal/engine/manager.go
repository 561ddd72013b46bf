package engine

import (
	"context"
	"sync"
)

// ActionManager is the dispatcher: it owns the TaskRuntime collaborator,
// tracks which actions are currently running or delayed, and keeps the
// runtime's global fanout cap set to the maximum of every in-flight
// action's own fanout, per spec §5's fan-out-limited dispatch rule.
type ActionManager struct {
	mu sync.Mutex

	runtime TaskRuntime
	view    UserView

	running map[string]*Action
	delayed map[string]Timer
}

// NewActionManager constructs a manager bound to a TaskRuntime. Every
// Service and Action that will run under this manager must be wired to
// it (see ActionManager.Bind, which Registry.Register applies to every
// action it registers) before the first call_services invocation.
func NewActionManager(runtime TaskRuntime) *ActionManager {
	return &ActionManager{
		runtime: runtime,
		view:    NoopUserView{},
		running: make(map[string]*Action),
		delayed: make(map[string]Timer),
	}
}

// Bind attaches this manager to an action so its Schedule calls route
// here.
func (m *ActionManager) Bind(a *Action) { a.manager = m }

// SetView attaches the observer notified of run-time events. Passing
// nil restores the no-op view.
func (m *ActionManager) SetView(v UserView) {
	if v == nil {
		v = NoopUserView{}
	}
	m.view = v
}

// RunningTasks returns the actions currently dispatched (not delayed),
// for introspection (e.g. a "milkcheck status" mid-run listing).
func (m *ActionManager) RunningTasks() []*Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Action, 0, len(m.running))
	for _, a := range m.running {
		out = append(out, a)
	}
	return out
}

func (m *ActionManager) addTask(a *Action) {
	m.mu.Lock()
	m.running[a.Name()] = a
	m.syncFanoutLocked()
	m.mu.Unlock()
}

func (m *ActionManager) removeTask(a *Action) {
	m.mu.Lock()
	delete(m.running, a.Name())
	m.syncFanoutLocked()
	m.mu.Unlock()
}

// syncFanoutLocked recomputes the runtime's global concurrency cap as
// the maximum fanout among all currently-running actions. Must be
// called with m.mu held.
func (m *ActionManager) syncFanoutLocked() {
	max := 1
	for _, a := range m.running {
		if a.Fanout() > max {
			max = a.Fanout()
		}
	}
	m.runtime.SetFanout(max)
}

// performDelayedAction arms a one-shot timer for the action's delay,
// per spec §4.3's scheduling protocol.
func (m *ActionManager) performDelayedAction(a *Action) {
	m.view.OnDelayed(a.Name(), a.Delay())
	t := m.runtime.Timer(a.Delay(), func() {
		m.mu.Lock()
		delete(m.delayed, a.Name())
		m.mu.Unlock()
		m.performAction(a)
	})
	m.mu.Lock()
	m.delayed[a.Name()] = t
	m.mu.Unlock()
}

// performAction dispatches the action immediately through the runtime.
// A dispatch-time error (e.g. an unresolved %{...} in the command or
// the target) resolves the action straight to Error without ever
// reaching the runtime.
func (m *ActionManager) performAction(a *Action) {
	cmd, err := a.Command()
	if err != nil {
		a.updateStatus(Error)
		return
	}
	target, err := a.ResolveProperty(a.Target())
	if err != nil {
		a.updateStatus(Error)
		return
	}

	m.addTask(a)
	m.view.OnStarted(a.Name())
	worker, err := m.runtime.Dispatch(context.Background(), cmd, target, a.Timeout(), a.Fanout(), func(w Worker) {
		m.removeTask(a)
		a.onWorkerClose(w)
	})
	if err != nil {
		m.removeTask(a)
		a.updateStatus(Error)
		return
	}
	_ = worker // retained on the Worker side via the close handler's argument
}

// Resume drains the bound runtime's event loop: it blocks until every
// dispatched action and armed timer this manager created has resolved.
func (m *ActionManager) Resume(ctx context.Context) error {
	return m.runtime.Resume(ctx)
}
