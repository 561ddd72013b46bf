package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceGroupAggregatesMemberStatusAllDone(t *testing.T) {
	mgr, _ := newTestManager()
	g := NewServiceGroup(ServiceConfig{Name: "cluster"})
	a := newTestService(t, mgr, "node-a", "start")
	b := newTestService(t, mgr, "node-b", "start")
	g.AddMember(a)
	g.AddMember(b)

	g.PrepareVerb("start")

	assert.Equal(t, Done, g.Status())
	assert.Equal(t, Done, a.Status())
	assert.Equal(t, Done, b.Status())
}

func TestServiceGroupWorstMemberStatusWins(t *testing.T) {
	mgr, rt := newTestManager()
	rt.script = func(command string, attempt int) fakeWorker {
		if command == "fail" {
			return fakeWorker{retcodes: []Retcode{{Code: 1, Nodes: []string{"n1"}}}}
		}
		return fakeWorker{retcodes: []Retcode{{Code: 0, Nodes: []string{"n1"}}}}
	}

	g := NewServiceGroup(ServiceConfig{Name: "cluster"})
	good := newTestService(t, mgr, "node-a", "start")

	bad := NewService(ServiceConfig{Name: "node-b"})
	badAction, err := NewAction(ActionConfig{Name: "node-b-start", Command: "fail"})
	require.NoError(t, err)
	mgr.Bind(badAction)
	require.NoError(t, bad.AddAction("start", badAction))

	g.AddMember(good)
	g.AddMember(bad)

	g.PrepareVerb("start")

	assert.Equal(t, TooManyErrors, bad.Status())
	assert.Equal(t, Done, good.Status())
	assert.Equal(t, TooManyErrors, g.Status())
}

func TestServiceGroupCrossDependencyFailureShortCircuitsMembers(t *testing.T) {
	mgr, rt := newTestManager()
	rt.script = func(command string, attempt int) fakeWorker {
		if command == "fail" {
			return fakeWorker{retcodes: []Retcode{{Code: 1, Nodes: []string{"n1"}}}}
		}
		return fakeWorker{retcodes: []Retcode{{Code: 0, Nodes: []string{"n1"}}}}
	}

	dep := NewService(ServiceConfig{Name: "dep"})
	depAction, err := NewAction(ActionConfig{Name: "dep-start", Command: "fail"})
	require.NoError(t, err)
	mgr.Bind(depAction)
	require.NoError(t, dep.AddAction("start", depAction))

	g := NewServiceGroup(ServiceConfig{Name: "cluster"})
	member := newTestService(t, mgr, "node-a", "start")
	g.AddMember(member)
	require.NoError(t, g.AddDependency(dep, Require, false))

	dep.PrepareVerb("start")
	g.PrepareVerb("start")

	assert.Equal(t, TooManyErrors, dep.Status())
	assert.Equal(t, Error, g.Status())
	assert.Equal(t, NoStatus, member.Status())
}

func TestServiceGroupResetRestoresPendingCount(t *testing.T) {
	mgr, _ := newTestManager()
	g := NewServiceGroup(ServiceConfig{Name: "cluster"})
	a := newTestService(t, mgr, "node-a", "start")
	b := newTestService(t, mgr, "node-b", "start")
	g.AddMember(a)
	g.AddMember(b)

	g.PrepareVerb("start")
	require.Equal(t, Done, g.Status())

	g.reset()
	assert.Equal(t, NoStatus, g.Status())
	assert.Equal(t, NoStatus, a.Status())
	assert.Equal(t, NoStatus, b.Status())

	g.PrepareVerb("start")
	assert.Equal(t, Done, g.Status())
}
