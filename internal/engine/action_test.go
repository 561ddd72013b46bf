package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() (*ActionManager, *fakeRuntime) {
	rt := newFakeRuntime()
	return NewActionManager(rt), rt
}

func TestActionPrepareNoDepsRunsImmediately(t *testing.T) {
	mgr, _ := newTestManager()
	a, err := NewAction(ActionConfig{Name: "a1", Command: "true"})
	require.NoError(t, err)
	mgr.Bind(a)

	a.Prepare()
	assert.Equal(t, Done, a.Status())
}

func TestActionStrongDependencyFailurePropagatesErrorWithoutRunning(t *testing.T) {
	mgr, rt := newTestManager()
	rt.script = func(command string, attempt int) fakeWorker {
		if command == "fail" {
			return fakeWorker{retcodes: []Retcode{{Code: 1, Nodes: []string{"n1"}}}}
		}
		return fakeWorker{retcodes: []Retcode{{Code: 0, Nodes: []string{"n1"}}}}
	}

	dep, err := NewAction(ActionConfig{Name: "dep", Command: "fail", Errors: 0})
	require.NoError(t, err)
	mgr.Bind(dep)

	a, err := NewAction(ActionConfig{Name: "a", Command: "true"})
	require.NoError(t, err)
	mgr.Bind(a)
	require.NoError(t, a.AddDependency(dep, Require, false))

	a.Prepare()
	assert.Equal(t, TooManyErrors, dep.Status())
	assert.Equal(t, Error, a.Status())
	assert.NotContains(t, rt.dispatched, "true")
}

func TestActionWeakDependencyFailureEscalatesToWarning(t *testing.T) {
	mgr, rt := newTestManager()
	rt.script = func(command string, attempt int) fakeWorker {
		if command == "fail" {
			return fakeWorker{retcodes: []Retcode{{Code: 1, Nodes: []string{"n1"}}}}
		}
		return fakeWorker{retcodes: []Retcode{{Code: 0, Nodes: []string{"n1"}}}}
	}

	dep, err := NewAction(ActionConfig{Name: "dep", Command: "fail"})
	require.NoError(t, err)
	mgr.Bind(dep)

	a, err := NewAction(ActionConfig{Name: "a", Command: "true"})
	require.NoError(t, err)
	mgr.Bind(a)
	require.NoError(t, a.AddDependency(dep, RequireWeak, false))

	a.Prepare()
	assert.Equal(t, TooManyErrors, dep.Status())
	assert.Equal(t, Warning, a.Status())
}

func TestActionRetriesOnTooManyErrors(t *testing.T) {
	mgr, rt := newTestManager()
	rt.script = func(command string, attempt int) fakeWorker {
		if attempt < 3 {
			return fakeWorker{retcodes: []Retcode{{Code: 1, Nodes: []string{"n1"}}}}
		}
		return fakeWorker{retcodes: []Retcode{{Code: 0, Nodes: []string{"n1"}}}}
	}

	a, err := NewAction(ActionConfig{Name: "a", Command: "flaky", Delay: time.Second, Retry: 2})
	require.NoError(t, err)
	mgr.Bind(a)

	a.Prepare()
	assert.Equal(t, Done, a.Status())
	assert.Equal(t, 3, rt.attempts["flaky"])
}

func TestActionExhaustsRetriesAsTooManyErrors(t *testing.T) {
	mgr, rt := newTestManager()
	rt.script = func(command string, attempt int) fakeWorker {
		return fakeWorker{retcodes: []Retcode{{Code: 1, Nodes: []string{"n1"}}}}
	}

	a, err := NewAction(ActionConfig{Name: "a", Command: "always-fails", Delay: time.Second, Retry: 1})
	require.NoError(t, err)
	mgr.Bind(a)

	a.Prepare()
	assert.Equal(t, TooManyErrors, a.Status())
	assert.Equal(t, 2, rt.attempts["always-fails"])
}

func TestActionConstructionRejectsRetryWithoutDelay(t *testing.T) {
	_, err := NewAction(ActionConfig{Name: "a", Command: "true", Retry: 1})
	assert.Error(t, err)
}

func TestActionDuplicateDependencyRejected(t *testing.T) {
	mgr, _ := newTestManager()
	dep, err := NewAction(ActionConfig{Name: "dep", Command: "true"})
	require.NoError(t, err)
	mgr.Bind(dep)

	a, err := NewAction(ActionConfig{Name: "a", Command: "true"})
	require.NoError(t, err)
	mgr.Bind(a)
	require.NoError(t, a.AddDependency(dep, Require, false))

	err = a.AddDependency(dep, Require, false)
	var dupErr *DependencyAlreadyReferencedError
	assert.ErrorAs(t, err, &dupErr)
}

func TestActionResetRestoresRetryBudget(t *testing.T) {
	mgr, rt := newTestManager()
	rt.script = func(command string, attempt int) fakeWorker {
		return fakeWorker{retcodes: []Retcode{{Code: 1, Nodes: []string{"n1"}}}}
	}

	a, err := NewAction(ActionConfig{Name: "a", Command: "c", Delay: time.Millisecond, Retry: 2})
	require.NoError(t, err)
	mgr.Bind(a)

	a.Prepare()
	assert.Equal(t, 0, a.Retry())

	a.reset()
	assert.Equal(t, NoStatus, a.Status())
	assert.Equal(t, 2, a.Retry())
}
