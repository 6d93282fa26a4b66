package rewrite

import (
	"testing"

	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
	"github.com/dd0wney/cluso-rewrite/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_AttributeUnion(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "x", attrs.Dict{"a": attrs.Ints(1, 2)})
	mustNode(t, st, "g", "y", attrs.Dict{"a": attrs.Ints(2, 3)})

	res, err := e.Merge(MergeRequest{Graph: "g", Nodes: []string{"x", "y"}, Name: "m"})
	require.NoError(t, err)
	require.Equal(t, "m", res.Identity)

	survivor := nodeByIdentity(t, st, "g", "m")
	assertFiniteInts(t, survivor.Attrs["a"], 1, 2, 3)

	_, err = st.GetNodeByIdentity("g", "x")
	assert.ErrorIs(t, err, storage.ErrNodeNotFound)
	_, err = st.GetNodeByIdentity("g", "y")
	assert.ErrorIs(t, err, storage.ErrNodeNotFound)
}

func TestMerge_SelfLoopFolding(t *testing.T) {
	e, st := newTestEngine(t)
	x := mustNode(t, st, "g", "x", nil)
	y := mustNode(t, st, "g", "y", nil)
	mustEdge(t, st, x, y, attrs.Dict{"w": attrs.Ints(5)})

	res, err := e.Merge(MergeRequest{Graph: "g", Nodes: []string{"x", "y"}, Name: "m"})
	require.NoError(t, err)

	survivor := nodeByIdentity(t, st, "g", res.Identity)
	loops := edgesBetween(st, survivor, survivor)
	require.Len(t, loops, 1)
	assertFiniteInts(t, loops[0].Attrs["w"], 5)
	assert.Equal(t, 1, st.EdgeCount())
}

func TestMerge_ParallelEdgeCollapse(t *testing.T) {
	e, st := newTestEngine(t)
	x := mustNode(t, st, "g", "x", nil)
	y := mustNode(t, st, "g", "y", nil)
	n := mustNode(t, st, "g", "n", nil)
	mustEdge(t, st, x, n, attrs.Dict{"w": attrs.Ints(1)})
	mustEdge(t, st, y, n, attrs.Dict{"w": attrs.Ints(2)})

	res, err := e.Merge(MergeRequest{Graph: "g", Nodes: []string{"x", "y"}, Name: "m"})
	require.NoError(t, err)

	survivor := nodeByIdentity(t, st, "g", res.Identity)
	edges := edgesBetween(st, survivor, n)
	require.Len(t, edges, 1)
	assertFiniteInts(t, edges[0].Attrs["w"], 1, 2)
}

func TestMerge_IncomingEdgesRedirect(t *testing.T) {
	e, st := newTestEngine(t)
	x := mustNode(t, st, "g", "x", nil)
	y := mustNode(t, st, "g", "y", nil)
	n := mustNode(t, st, "g", "n", nil)
	mustEdge(t, st, n, x, attrs.Dict{"w": attrs.Ints(1)})
	mustEdge(t, st, n, y, attrs.Dict{"w": attrs.Ints(2)})

	res, err := e.Merge(MergeRequest{Graph: "g", Nodes: []string{"x", "y"}, Name: "m"})
	require.NoError(t, err)

	survivor := nodeByIdentity(t, st, "g", res.Identity)
	edges := edgesBetween(st, n, survivor)
	require.Len(t, edges, 1)
	assertFiniteInts(t, edges[0].Attrs["w"], 1, 2)
}

func TestMerge_DefaultNameJoinsSources(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "x", nil)
	mustNode(t, st, "g", "y", nil)

	res, err := e.Merge(MergeRequest{Graph: "g", Nodes: []string{"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, "x_y", res.Identity)
	nodeByIdentity(t, st, "g", "x_y")
}

func TestMerge_KeepingASourceIdentity(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "a", attrs.Dict{"v": attrs.Ints(1)})
	mustNode(t, st, "g", "b", attrs.Dict{"v": attrs.Ints(2)})

	// merging into the identity of a consumed source must not suffix
	res, err := e.Merge(MergeRequest{Graph: "g", Nodes: []string{"a", "b"}, Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, "a", res.Identity)

	survivor := nodeByIdentity(t, st, "g", "a")
	assertFiniteInts(t, survivor.Attrs["v"], 1, 2)
	assert.Equal(t, 1, st.NodeCount())
}

func TestMerge_CollidingNameGetsSuffixed(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "x", nil)
	mustNode(t, st, "g", "y", nil)
	mustNode(t, st, "g", "taken", nil)

	res, err := e.Merge(MergeRequest{Graph: "g", Nodes: []string{"x", "y"}, Name: "taken"})
	require.NoError(t, err)
	assert.Equal(t, "taken1", res.Identity)
}

func TestMerge_SingleElementIsRename(t *testing.T) {
	e, st := newTestEngine(t)
	x := mustNode(t, st, "g", "x", attrs.Dict{"a": attrs.Ints(1)})
	mustEdge(t, st, x, x, attrs.Dict{"w": attrs.Ints(9)})

	res, err := e.Merge(MergeRequest{Graph: "g", Nodes: []string{"x"}, Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", res.Identity)

	survivor := nodeByIdentity(t, st, "g", "renamed")
	assertFiniteInts(t, survivor.Attrs["a"], 1)

	// exactly one self-loop, never doubled
	loops := edgesBetween(st, survivor, survivor)
	require.Len(t, loops, 1)
	assertFiniteInts(t, loops[0].Attrs["w"], 9)
}

func TestMerge_TypingEdgesUnioned(t *testing.T) {
	e, st := newTestEngine(t)
	require.NoError(t, st.AddGraph("meta"))
	x := mustNode(t, st, "g", "x", nil)
	y := mustNode(t, st, "g", "y", nil)
	t1 := mustNode(t, st, "meta", "T1", nil)
	t2 := mustNode(t, st, "meta", "T2", nil)
	mustTyping(t, st, x, t1)
	mustTyping(t, st, y, t1)
	mustTyping(t, st, y, t2)

	res, err := e.Merge(MergeRequest{Graph: "g", Nodes: []string{"x", "y"}, Name: "m", MergeTyping: true})
	require.NoError(t, err)

	survivor := nodeByIdentity(t, st, "g", res.Identity)
	typings, err := st.OutEdges(survivor.ID, storage.KindTyping)
	require.NoError(t, err)
	assert.Len(t, typings, 2)
	assert.True(t, st.HasEdge(survivor.ID, t1.ID, storage.KindTyping))
	assert.True(t, st.HasEdge(survivor.ID, t2.ID, storage.KindTyping))
}

func TestMerge_IgnoreNaming(t *testing.T) {
	e, st := newTestEngine(t)
	x := mustNode(t, st, "g", "x", nil)
	mustNode(t, st, "g", "y", nil)

	res, err := e.Merge(MergeRequest{Graph: "g", Nodes: []string{"x", "y"}, IgnoreNaming: true})
	require.NoError(t, err)
	assert.Equal(t, rowIdentity(x.ID), res.Identity)
}

func TestMerge_Errors(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "x", nil)

	_, err := e.Merge(MergeRequest{Graph: "g", Nodes: nil})
	assert.ErrorIs(t, err, ErrEmptyMergeList)

	_, err = e.Merge(MergeRequest{Graph: "g", Nodes: []string{"x", "x"}})
	assert.ErrorIs(t, err, ErrDuplicateMergeNode)

	_, err = e.Merge(MergeRequest{Graph: "g", Nodes: []string{"x", "missing"}})
	assert.ErrorIs(t, err, storage.ErrNodeNotFound)

	// a failed merge leaves the store untouched
	assert.Equal(t, 1, st.NodeCount())
	nodeByIdentity(t, st, "g", "x")
}

func TestBatchMerge_CrossGroupEdgesRedirect(t *testing.T) {
	e, st := newTestEngine(t)
	a1 := mustNode(t, st, "g", "a1", nil)
	mustNode(t, st, "g", "a2", nil)
	mustNode(t, st, "g", "b1", nil)
	b2 := mustNode(t, st, "g", "b2", nil)
	mustEdge(t, st, a1, b2, attrs.Dict{"w": attrs.Ints(1)})

	res, err := e.BatchMerge(BatchMergeRequest{
		Graph: "g",
		Groups: []MergeGroup{
			{Nodes: []string{"a1", "a2"}, Name: "a"},
			{Nodes: []string{"b1", "b2"}, Name: "b"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"a1": "a", "a2": "a", "b1": "b", "b2": "b",
	}, res.Merged)

	survA := nodeByIdentity(t, st, "g", "a")
	survB := nodeByIdentity(t, st, "g", "b")
	edges := edgesBetween(st, survA, survB)
	require.Len(t, edges, 1)
	assertFiniteInts(t, edges[0].Attrs["w"], 1)
	assert.Equal(t, 2, st.NodeCount())
	assert.Equal(t, 1, st.EdgeCount())
}

func TestBatchMerge_ParallelCrossGroupEdgesCollapse(t *testing.T) {
	e, st := newTestEngine(t)
	a1 := mustNode(t, st, "g", "a1", nil)
	a2 := mustNode(t, st, "g", "a2", nil)
	b1 := mustNode(t, st, "g", "b1", nil)
	b2 := mustNode(t, st, "g", "b2", nil)
	mustEdge(t, st, a1, b1, attrs.Dict{"w": attrs.Ints(1)})
	mustEdge(t, st, a2, b2, attrs.Dict{"w": attrs.Ints(2)})
	mustEdge(t, st, b1, a2, attrs.Dict{"w": attrs.Ints(3)})

	_, err := e.BatchMerge(BatchMergeRequest{
		Graph: "g",
		Groups: []MergeGroup{
			{Nodes: []string{"a1", "a2"}, Name: "a"},
			{Nodes: []string{"b1", "b2"}, Name: "b"},
		},
	})
	require.NoError(t, err)

	survA := nodeByIdentity(t, st, "g", "a")
	survB := nodeByIdentity(t, st, "g", "b")

	out := edgesBetween(st, survA, survB)
	require.Len(t, out, 1)
	assertFiniteInts(t, out[0].Attrs["w"], 1, 2)

	in := edgesBetween(st, survB, survA)
	require.Len(t, in, 1)
	assertFiniteInts(t, in[0].Attrs["w"], 3)
}

func TestBatchMerge_IntraGroupEdgeBecomesSelfLoop(t *testing.T) {
	e, st := newTestEngine(t)
	a1 := mustNode(t, st, "g", "a1", nil)
	a2 := mustNode(t, st, "g", "a2", nil)
	mustNode(t, st, "g", "b1", nil)
	mustNode(t, st, "g", "b2", nil)
	mustEdge(t, st, a1, a2, attrs.Dict{"w": attrs.Ints(4)})

	_, err := e.BatchMerge(BatchMergeRequest{
		Graph: "g",
		Groups: []MergeGroup{
			{Nodes: []string{"a1", "a2"}, Name: "a"},
			{Nodes: []string{"b1", "b2"}, Name: "b"},
		},
	})
	require.NoError(t, err)

	survA := nodeByIdentity(t, st, "g", "a")
	loops := edgesBetween(st, survA, survA)
	require.Len(t, loops, 1)
	assertFiniteInts(t, loops[0].Attrs["w"], 4)
}

func TestBatchMerge_OverlappingGroupsRejected(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "x", nil)
	mustNode(t, st, "g", "y", nil)
	mustNode(t, st, "g", "z", nil)

	_, err := e.BatchMerge(BatchMergeRequest{
		Graph: "g",
		Groups: []MergeGroup{
			{Nodes: []string{"x", "y"}},
			{Nodes: []string{"y", "z"}},
		},
	})
	assert.ErrorIs(t, err, ErrOverlappingMergeGroups)

	// nothing applied
	assert.Equal(t, 3, st.NodeCount())
}
