package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandNodeSetEmptyExpression(t *testing.T) {
	nodes, err := ExpandNodeSet("")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestExpandNodeSetLiteralOnly(t *testing.T) {
	nodes, err := ExpandNodeSet("localhost")
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost"}, nodes)
}

func TestExpandNodeSetSingleRange(t *testing.T) {
	nodes, err := ExpandNodeSet("node[1-4]")
	require.NoError(t, err)
	assert.Equal(t, []string{"node1", "node2", "node3", "node4"}, nodes)
}

func TestExpandNodeSetCommaListAndRangeMixed(t *testing.T) {
	nodes, err := ExpandNodeSet("node[1-3,8]")
	require.NoError(t, err)
	assert.Equal(t, []string{"node1", "node2", "node3", "node8"}, nodes)
}

func TestExpandNodeSetZeroPaddedRangePreservesWidth(t *testing.T) {
	nodes, err := ExpandNodeSet("rack[01-03]")
	require.NoError(t, err)
	assert.Equal(t, []string{"rack01", "rack02", "rack03"}, nodes)
}

func TestExpandNodeSetMultiGroupCartesianProduct(t *testing.T) {
	nodes, err := ExpandNodeSet("rack[1-2]-node[1,2]")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"rack1-node1", "rack1-node2",
		"rack2-node1", "rack2-node2",
	}, nodes)
}

func TestExpandNodeSetUnterminatedBracketErrors(t *testing.T) {
	_, err := ExpandNodeSet("node[1-4")
	assert.Error(t, err)
}

func TestExpandNodeSetDescendingRangeErrors(t *testing.T) {
	_, err := ExpandNodeSet("node[4-1]")
	assert.Error(t, err)
}

func TestExpandNodeSetNonNumericRangeErrors(t *testing.T) {
	_, err := ExpandNodeSet("node[a-z]")
	assert.Error(t, err)
}
