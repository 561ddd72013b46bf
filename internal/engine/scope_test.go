package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableScopeResolve(t *testing.T) {
	root := NewVariableScope(nil)
	require.NoError(t, root.Bind("cluster", "prod"))
	require.NoError(t, root.Bind("target", "node[1-3]"))

	child := NewVariableScope(root)
	require.NoError(t, child.Bind("full_target", "%{cluster}-%{target}"))

	got, err := child.Resolve("env=%{full_target}")
	require.NoError(t, err)
	assert.Equal(t, "env=prod-node[1-3]", got)
}

func TestVariableScopeUndefined(t *testing.T) {
	s := NewVariableScope(nil)
	_, err := s.Resolve("%{missing}")
	var undef *UndefinedVariableError
	assert.ErrorAs(t, err, &undef)
}

func TestVariableScopeRebindRejected(t *testing.T) {
	s := NewVariableScope(nil)
	require.NoError(t, s.Bind("x", "1"))
	err := s.Bind("x", "2")
	var dup *VariableAlreadyReferencedError
	assert.ErrorAs(t, err, &dup)
}

func TestVariableScopeCycleDetected(t *testing.T) {
	s := NewVariableScope(nil)
	require.NoError(t, s.Bind("a", "%{b}"))
	require.NoError(t, s.Bind("b", "%{a}"))
	_, err := s.Resolve("%{a}")
	var invalid *InvalidVariableError
	assert.ErrorAs(t, err, &invalid)
}

func TestVariableScopeShadowsParent(t *testing.T) {
	root := NewVariableScope(nil)
	require.NoError(t, root.Bind("name", "outer"))
	child := NewVariableScope(root)
	require.NoError(t, child.Bind("name", "inner"))

	got, err := child.Resolve("%{name}")
	require.NoError(t, err)
	assert.Equal(t, "inner", got)
}
