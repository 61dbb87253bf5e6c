package dag

import (
	"testing"

	"github.com/specialistvlad/pipedef/internal/configerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
	assert.Equal(t, 0, g.Len())
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("Build")
	assert.Len(t, g.nodes, 1)
	n, ok := g.nodes["Build"]
	require.True(t, ok)
	assert.Equal(t, "Build", n.id)
	assert.NotNil(t, n.deps)
	assert.NotNil(t, n.dependents)

	g.AddNode("Build") // idempotent
	assert.Len(t, g.nodes, 1)

	g.AddNode("PullRequests")
	assert.Equal(t, 2, g.Len())
	assert.True(t, g.HasNode("PullRequests"))
	assert.False(t, g.HasNode("Publish"))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		require.NoError(t, g.AddEdge("a", "b")) // b depends on a

		assert.Contains(t, g.nodes["b"].deps, "a")

		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		assert.ErrorContains(t, g.AddEdge("dne", "a"), "source node not found")
		assert.ErrorContains(t, g.AddEdge("a", "dne"), "destination node not found")

		var cycle *configerr.DependencyCycleError
		require.ErrorAs(t, g.AddEdge("a", "a"), &cycle)
		assert.Equal(t, []string{"a", "a"}, cycle.Path)

		_, err := g.Dependents("dne")
		assert.Error(t, err)
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := New()
		for _, id := range []string{"a", "b", "c", "d"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("a", "c")) // transitive edge
		require.NoError(t, g.AddEdge("c", "d"))
		assert.NoError(t, g.DetectCycles())
	})

	testCases := []struct {
		name     string
		nodes    []string
		edges    [][2]string
		expected []string
	}{
		{
			name:     "direct cycle",
			nodes:    []string{"a", "b"},
			edges:    [][2]string{{"a", "b"}, {"b", "a"}},
			expected: []string{"a", "b", "a"},
		},
		{
			name:     "longer cycle",
			nodes:    []string{"a", "b", "c", "d"},
			edges:    [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "a"}},
			expected: []string{"a", "d", "c", "b", "a"},
		},
		{
			name:     "cycle in a disjoint component",
			nodes:    []string{"a", "b", "x", "y", "z"},
			edges:    [][2]string{{"a", "b"}, {"x", "y"}, {"y", "z"}, {"z", "y"}},
			expected: []string{"y", "z", "y"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := New()
			for _, id := range tc.nodes {
				g.AddNode(id)
			}
			for _, e := range tc.edges {
				require.NoError(t, g.AddEdge(e[0], e[1]))
			}

			var cycle *configerr.DependencyCycleError
			require.ErrorAs(t, g.DetectCycles(), &cycle)
			assert.Equal(t, tc.expected, cycle.Path)
		})
	}
}

func TestTopologicalOrder(t *testing.T) {
	g := New()
	for _, id := range []string{"Publish", "Build", "PullRequests", "Docs"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("Build", "Publish"))
	require.NoError(t, g.AddEdge("Docs", "Publish"))

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"Build", "Docs", "Publish", "PullRequests"}, order)

	require.NoError(t, g.AddEdge("Publish", "Build"))
	_, err = g.TopologicalOrder()
	var cycle *configerr.DependencyCycleError
	assert.ErrorAs(t, err, &cycle)
}
