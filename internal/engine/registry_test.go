package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCallServicesRunsRequestedVerb(t *testing.T) {
	mgr, _ := newTestManager()
	reg := NewRegistry(mgr)

	s := newTestService(t, mgr, "web", "start")
	require.NoError(t, reg.Register(s))

	results, err := reg.CallServices(context.Background(), []string{"web"}, "start")
	require.NoError(t, err)
	assert.Equal(t, Done, results["web"])
}

func TestRegistryCallServicesShortCircuitsOnDependencyFailure(t *testing.T) {
	mgr, rt := newTestManager()
	rt.script = func(command string, attempt int) fakeWorker {
		if command == "fail" {
			return fakeWorker{retcodes: []Retcode{{Code: 1, Nodes: []string{"n1"}}}}
		}
		return fakeWorker{retcodes: []Retcode{{Code: 0, Nodes: []string{"n1"}}}}
	}
	reg := NewRegistry(mgr)

	dep := NewService(ServiceConfig{Name: "dep"})
	depAction, err := NewAction(ActionConfig{Name: "dep-start", Command: "fail"})
	require.NoError(t, err)
	mgr.Bind(depAction)
	require.NoError(t, dep.AddAction("start", depAction))
	require.NoError(t, reg.Register(dep))

	web := newTestService(t, mgr, "web", "start")
	require.NoError(t, reg.Register(web))
	require.NoError(t, reg.AddDependency("web", "dep", Require, false))

	results, err := reg.CallServices(context.Background(), []string{"web", "dep"}, "start")
	require.NoError(t, err)
	assert.Equal(t, TooManyErrors, results["dep"])
	assert.Equal(t, Error, results["web"])
}

func TestRegistryCallServicesRerunsCleanlyAfterReset(t *testing.T) {
	mgr, rt := newTestManager()
	attempt := 0
	rt.script = func(command string, a int) fakeWorker {
		attempt++
		return fakeWorker{retcodes: []Retcode{{Code: 0, Nodes: []string{"n1"}}}}
	}
	reg := NewRegistry(mgr)
	s := newTestService(t, mgr, "web", "start")
	require.NoError(t, reg.Register(s))

	_, err := reg.CallServices(context.Background(), []string{"web"}, "start")
	require.NoError(t, err)
	assert.Equal(t, Done, s.Status())

	results, err := reg.CallServices(context.Background(), []string{"web"}, "start")
	require.NoError(t, err)
	assert.Equal(t, Done, results["web"])
	assert.Equal(t, 2, attempt)
}

func TestRegistryCallServicesDetectsCycle(t *testing.T) {
	mgr, _ := newTestManager()
	reg := NewRegistry(mgr)

	a := newTestService(t, mgr, "a", "start")
	b := newTestService(t, mgr, "b", "start")
	require.NoError(t, reg.Register(a))
	require.NoError(t, reg.Register(b))
	require.NoError(t, reg.AddDependency("a", "b", Require, false))
	require.NoError(t, reg.AddDependency("b", "a", Require, false))

	_, err := reg.CallServices(context.Background(), []string{"a"}, "start")
	require.Error(t, err)
	var cycleErr *CycleError
	assert.ErrorAs(t, err, &cycleErr)
}

func TestRegistryCallServicesDiagnosticVerbAcrossGroup(t *testing.T) {
	mgr, _ := newTestManager()
	reg := NewRegistry(mgr)

	g := NewServiceGroup(ServiceConfig{Name: "cluster"})
	a := newTestService(t, mgr, "node-a", "start")
	b := newTestService(t, mgr, "node-b", "start")
	g.AddMember(a)
	g.AddMember(b)
	require.NoError(t, reg.Register(g))

	results, err := reg.CallServices(context.Background(), []string{"cluster"}, "status")
	require.NoError(t, err)
	assert.Equal(t, Done, results["cluster"])
}

func TestRegistryGetUnknownServiceErrors(t *testing.T) {
	mgr, _ := newTestManager()
	reg := NewRegistry(mgr)
	_, err := reg.Get("missing")
	var notFound *ServiceNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRegistryForceSimulateShortCircuitsDispatch(t *testing.T) {
	mgr, rt := newTestManager()
	reg := NewRegistry(mgr)
	s := newTestService(t, mgr, "web", "start")
	require.NoError(t, reg.Register(s))

	reg.ForceSimulate(true)
	_, err := reg.CallServices(context.Background(), []string{"web"}, "start")
	require.NoError(t, err)
	assert.Empty(t, rt.dispatched)
	assert.Equal(t, Done, s.Status())
}
