package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cea-hpc/milkcheck/internal/engine"
)

func TestBuildWiresServicesActionsAndDependencies(t *testing.T) {
	f := &File{
		Variables: map[string]string{"cluster": "prod"},
		Services: map[string]Service{
			"db": {
				Description: "database",
				Actions: map[string]Action{
					"start": {Command: "start-db %{cluster}"},
				},
			},
			"web": {
				Description: "frontend",
				Actions: map[string]Action{
					"start": {Command: "start-web"},
				},
				Dependencies: []Dependency{
					{Target: "db", Kind: "REQUIRE"},
				},
			},
		},
	}

	mgr := engine.NewActionManager(newNoopTaskRuntime())
	reg, err := Build(f, mgr)
	require.NoError(t, err)

	names := reg.Names()
	assert.Contains(t, names, "db")
	assert.Contains(t, names, "web")

	web, err := reg.Get("web")
	require.NoError(t, err)
	svc, ok := web.(*engine.Service)
	require.True(t, ok)
	assert.Equal(t, []string{"start"}, svc.Verbs())
	assert.Equal(t, []engine.Dependency{{Target: "db", Kind: engine.Require}}, svc.Dependencies())
}

func TestBuildRejectsUnknownGroupMember(t *testing.T) {
	f := &File{
		Services: map[string]Service{
			"cluster": {
				Group: []GroupMember{{Name: "missing"}},
			},
		},
	}

	mgr := engine.NewActionManager(newNoopTaskRuntime())
	_, err := Build(f, mgr)
	var unknownErr *UnknownGroupMemberError
	assert.ErrorAs(t, err, &unknownErr)
}

func TestBuildWiresGroupMembersAndInternalOrdering(t *testing.T) {
	f := &File{
		Services: map[string]Service{
			"node-a": {
				Actions: map[string]Action{"start": {Command: "true"}},
			},
			"node-b": {
				Actions: map[string]Action{"start": {Command: "true"}},
			},
			"cluster": {
				Group: []GroupMember{
					{Name: "node-a"},
					{Name: "node-b", Dependencies: []Dependency{{Target: "node-a", Kind: "REQUIRE", Internal: true}}},
				},
			},
		},
	}

	mgr := engine.NewActionManager(newNoopTaskRuntime())
	reg, err := Build(f, mgr)
	require.NoError(t, err)

	cluster, err := reg.Get("cluster")
	require.NoError(t, err)
	group, ok := cluster.(*engine.ServiceGroup)
	require.True(t, ok)
	assert.Len(t, group.Members(), 2)

	nodeB, err := reg.Get("node-b")
	require.NoError(t, err)
	memberB, ok := nodeB.(*engine.Service)
	require.True(t, ok)
	assert.Equal(t, []engine.Dependency{{Target: "node-a", Kind: engine.Require, Internal: true}}, memberB.Dependencies())
}
