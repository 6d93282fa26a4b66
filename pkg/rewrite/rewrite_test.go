package rewrite

import (
	"testing"

	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
	"github.com/dd0wney/cluso-rewrite/pkg/storage"
	"github.com/stretchr/testify/require"
)

// shared helpers for the rewrite tests

func newTestEngine(t *testing.T) (*Engine, *storage.Store) {
	t.Helper()
	st := storage.NewStore()
	require.NoError(t, st.AddGraph("g"))
	return NewDefaultEngine(st), st
}

func mustNode(t *testing.T, st *storage.Store, graph, identity string, d attrs.Dict) *storage.Node {
	t.Helper()
	node, err := st.CreateNode(graph, identity, d)
	require.NoError(t, err)
	return node
}

func mustEdge(t *testing.T, st *storage.Store, from, to *storage.Node, d attrs.Dict) *storage.Edge {
	t.Helper()
	edge, err := st.CreateEdge(from.ID, to.ID, storage.KindEdge, d)
	require.NoError(t, err)
	return edge
}

func mustTyping(t *testing.T, st *storage.Store, from, to *storage.Node) {
	t.Helper()
	_, err := st.CreateEdge(from.ID, to.ID, storage.KindTyping, nil)
	require.NoError(t, err)
}

func nodeByIdentity(t *testing.T, st *storage.Store, graph, identity string) *storage.Node {
	t.Helper()
	node, err := st.GetNodeByIdentity(graph, identity)
	require.NoError(t, err)
	return node
}

func edgesBetween(st *storage.Store, from, to *storage.Node) []*storage.Edge {
	return st.EdgesBetween(from.ID, to.ID, storage.KindEdge)
}

func finiteValues(t *testing.T, s attrs.Set) []attrs.Value {
	t.Helper()
	fs, ok := s.(*attrs.FiniteSet)
	require.True(t, ok, "expected a finite set")
	return fs.Values()
}

func assertFiniteInts(t *testing.T, s attrs.Set, want ...int64) {
	t.Helper()
	values := finiteValues(t, s)
	require.Len(t, values, len(want))
	for i, w := range want {
		got, err := values[i].AsInt()
		require.NoError(t, err)
		require.Equal(t, w, got)
	}
}
