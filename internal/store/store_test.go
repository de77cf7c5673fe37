package store_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-objshell/internal/store"
)

func pidHash(pid int32) int32 {
	return pid
}

func TestStoreWithGraph(t *testing.T) {
	t.Parallel()

	st := store.New[int32, int32]()
	g := graph.NewWithStore(pidHash, st, graph.Directed(), graph.PreventCycles())

	for _, pid := range []int32{1, 2, 3, 4} {
		require.NoError(t, g.AddVertex(pid))
	}

	require.NoError(t, g.AddEdge(1, 2))
	require.NoError(t, g.AddEdge(2, 3))
	require.ErrorIs(t, g.AddEdge(3, 1), graph.ErrEdgeCreatesCycle)

	assert.ElementsMatch(t, []int32{2}, st.Successors(1))
	assert.Empty(t, st.Successors(4))

	visited := []int32{}
	require.NoError(t, graph.DFS(g, 1, func(pid int32) bool {
		visited = append(visited, pid)

		return false
	}))
	assert.Equal(t, []int32{1, 2, 3}, visited)

	require.ErrorIs(t, st.RemoveVertex(2), graph.ErrVertexHasEdges)
	require.NoError(t, st.RemoveVertex(4))

	count, err := st.VertexCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestUpdateVertex(t *testing.T) {
	t.Parallel()

	st := store.New[string, string]()
	require.NoError(t, st.AddVertex("a", "a", graph.VertexProperties{Attributes: map[string]string{}}))

	require.NoError(t, st.UpdateVertex("a", graph.VertexAttribute("color", "red")))

	_, props, err := st.Vertex("a")
	require.NoError(t, err)
	assert.Equal(t, "red", props.Attributes["color"])

	require.ErrorIs(t, st.UpdateVertex("b"), graph.ErrVertexNotFound)
}
