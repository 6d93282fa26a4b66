package rewrite

import (
	"testing"

	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
	"github.com/dd0wney/cluso-rewrite/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClone_DuplicatesAttributesAndEdges(t *testing.T) {
	e, st := newTestEngine(t)
	x := mustNode(t, st, "g", "x", attrs.Dict{"color": attrs.Strings("red")})
	y := mustNode(t, st, "g", "y", nil)
	z := mustNode(t, st, "g", "z", nil)
	mustEdge(t, st, x, y, attrs.Dict{"w": attrs.Ints(5)})
	mustEdge(t, st, z, x, nil)

	res, err := e.Clone(CloneRequest{Graph: "g", Node: "x", Count: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"x1"}, res.Clones)

	clone := nodeByIdentity(t, st, "g", "x1")
	out := edgesBetween(st, clone, y)
	require.Len(t, out, 1)
	assertFiniteInts(t, out[0].Attrs["w"], 5)
	assert.Len(t, edgesBetween(st, z, clone), 1)

	// source untouched
	source := nodeByIdentity(t, st, "g", "x")
	assert.Len(t, edgesBetween(st, source, y), 1)
	require.Contains(t, source.Attrs, "color")
}

func TestClone_AttributeCopyIsDeep(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "x", attrs.Dict{"a": attrs.Ints(1)})

	_, err := e.Clone(CloneRequest{Graph: "g", Node: "x", Count: 1})
	require.NoError(t, err)

	clone := nodeByIdentity(t, st, "g", "x1")
	require.NoError(t, st.AddNodeAttrs(clone.ID, attrs.Dict{"a": attrs.Ints(2)}))

	source := nodeByIdentity(t, st, "g", "x")
	assertFiniteInts(t, source.Attrs["a"], 1)
}

func TestClone_SelfLoopFoldsOntoClone(t *testing.T) {
	e, st := newTestEngine(t)
	x := mustNode(t, st, "g", "x", nil)
	mustEdge(t, st, x, x, attrs.Dict{"w": attrs.Ints(7)})

	res, err := e.Clone(CloneRequest{Graph: "g", Node: "x", Count: 1})
	require.NoError(t, err)

	clone := nodeByIdentity(t, st, "g", res.Clones[0])
	loops := edgesBetween(st, clone, clone)
	require.Len(t, loops, 1)
	assertFiniteInts(t, loops[0].Attrs["w"], 7)

	// never an edge back to the source
	source := nodeByIdentity(t, st, "g", "x")
	assert.Empty(t, edgesBetween(st, clone, source))
	assert.Empty(t, edgesBetween(st, source, clone))
}

func TestClone_MultiplicityResolvesEachIdentity(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "x", nil)

	res, err := e.Clone(CloneRequest{Graph: "g", Node: "x", Count: 3})
	require.NoError(t, err)
	require.Equal(t, []string{"x1", "x2", "x3"}, res.Clones)

	for _, identity := range res.Clones {
		nodeByIdentity(t, st, "g", identity)
	}
}

func TestClone_CountZeroIsNoOp(t *testing.T) {
	e, st := newTestEngine(t)
	x := mustNode(t, st, "g", "x", nil)

	res, err := e.Clone(CloneRequest{Graph: "g", Node: "x", Count: 0})
	require.NoError(t, err)
	assert.Empty(t, res.Clones)
	assert.Equal(t, 1, st.NodeCount())
	assert.Zero(t, st.IdentitySeq(x.ID))

	// a later clone still starts at the first suffix
	res, err = e.Clone(CloneRequest{Graph: "g", Node: "x", Count: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"x1"}, res.Clones)
}

func TestClone_RequestedName(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "x", nil)

	res, err := e.Clone(CloneRequest{Graph: "g", Node: "x", Name: "copy", Count: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"copy"}, res.Clones)
	nodeByIdentity(t, st, "g", "copy")
}

func TestClone_ManualSuffixNeverReissued(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "x", nil)
	mustNode(t, st, "g", "x1", nil)

	res, err := e.Clone(CloneRequest{Graph: "g", Node: "x", Count: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"x2"}, res.Clones)
}

func TestClone_IgnoreLists(t *testing.T) {
	e, st := newTestEngine(t)
	x := mustNode(t, st, "g", "x", nil)
	y := mustNode(t, st, "g", "y", nil)
	z := mustNode(t, st, "g", "z", nil)
	mustEdge(t, st, x, y, nil)
	mustEdge(t, st, x, z, nil)
	mustEdge(t, st, y, x, nil)

	res, err := e.Clone(CloneRequest{
		Graph:              "g",
		Node:               "x",
		Count:              1,
		IgnoreSuccessors:   []string{"y"},
		IgnorePredecessors: []string{"y"},
	})
	require.NoError(t, err)

	clone := nodeByIdentity(t, st, "g", res.Clones[0])
	assert.Empty(t, edgesBetween(st, clone, y))
	assert.Empty(t, edgesBetween(st, y, clone))
	assert.Len(t, edgesBetween(st, clone, z), 1)
}

func TestClone_PreserveTyping(t *testing.T) {
	e, st := newTestEngine(t)
	require.NoError(t, st.AddGraph("meta"))
	x := mustNode(t, st, "g", "x", nil)
	typ := mustNode(t, st, "meta", "T", nil)
	mustTyping(t, st, x, typ)

	res, err := e.Clone(CloneRequest{Graph: "g", Node: "x", Count: 1, PreserveTyping: true})
	require.NoError(t, err)

	clone := nodeByIdentity(t, st, "g", res.Clones[0])
	assert.True(t, st.HasEdge(clone.ID, typ.ID, storage.KindTyping))
}

func TestClone_WithoutPreserveTypingSkipsTyping(t *testing.T) {
	e, st := newTestEngine(t)
	require.NoError(t, st.AddGraph("meta"))
	x := mustNode(t, st, "g", "x", nil)
	typ := mustNode(t, st, "meta", "T", nil)
	mustTyping(t, st, x, typ)

	res, err := e.Clone(CloneRequest{Graph: "g", Node: "x", Count: 1})
	require.NoError(t, err)

	clone := nodeByIdentity(t, st, "g", res.Clones[0])
	assert.False(t, st.HasEdge(clone.ID, typ.ID, storage.KindTyping))
}

func TestClone_IgnoreNaming(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "x", nil)

	res, err := e.Clone(CloneRequest{Graph: "g", Node: "x", Count: 1, IgnoreNaming: true})
	require.NoError(t, err)
	require.Len(t, res.Clones, 1)

	clone := nodeByIdentity(t, st, "g", res.Clones[0])
	assert.Equal(t, rowIdentity(clone.ID), clone.Identity)
}

func TestClone_Errors(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "x", nil)

	_, err := e.Clone(CloneRequest{Graph: "g", Node: "missing", Count: 1})
	assert.ErrorIs(t, err, storage.ErrNodeNotFound)

	_, err = e.Clone(CloneRequest{Graph: "nope", Node: "x", Count: 1})
	assert.ErrorIs(t, err, storage.ErrGraphNotFound)

	_, err = e.Clone(CloneRequest{Graph: "g", Node: "x", Count: e.cfg.MaxCloneCount + 1})
	assert.ErrorIs(t, err, ErrCloneLimitExceeded)

	_, err = e.Clone(CloneRequest{Graph: "g", Node: "bad identity", Count: 1})
	assert.Error(t, err)
}

func TestBatchClone_CrossProduct(t *testing.T) {
	e, st := newTestEngine(t)
	x := mustNode(t, st, "g", "x", nil)
	y := mustNode(t, st, "g", "y", nil)
	u := mustNode(t, st, "g", "u", nil)
	mustEdge(t, st, x, y, attrs.Dict{"w": attrs.Ints(1)})
	mustEdge(t, st, u, u, nil)

	res, err := e.BatchClone(BatchCloneRequest{
		Graph: "g",
		Items: []CloneItem{
			{Node: "x", Count: 2},
			{Node: "y", Count: 2},
			{Node: "u", Count: 1},
		},
	})
	require.NoError(t, err)

	xs := append([]*storage.Node{x}, lookupAll(t, st, res.Clones["x"])...)
	ys := append([]*storage.Node{y}, lookupAll(t, st, res.Clones["y"])...)
	for _, from := range xs {
		for _, to := range ys {
			edges := edgesBetween(st, from, to)
			require.Len(t, edges, 1, "expected one edge %s -> %s", from.Identity, to.Identity)
			assertFiniteInts(t, edges[0].Attrs["w"], 1)
		}
	}

	// no edge crosses to the unrelated clone
	uClone := nodeByIdentity(t, st, "g", res.Clones["u"][0])
	for _, from := range xs {
		assert.Empty(t, edgesBetween(st, from, uClone))
		assert.Empty(t, edgesBetween(st, uClone, from))
	}
	// self-loop folds per clone, never to the source
	require.Len(t, edgesBetween(st, uClone, uClone), 1)
	assert.Empty(t, edgesBetween(st, uClone, u))
}

func TestBatchClone_Errors(t *testing.T) {
	e, st := newTestEngine(t)
	mustNode(t, st, "g", "x", nil)

	_, err := e.BatchClone(BatchCloneRequest{Graph: "g", Items: []CloneItem{
		{Node: "x", Count: 1},
		{Node: "x", Count: 1},
	}})
	assert.ErrorIs(t, err, ErrDuplicateCloneNode)

	_, err = e.BatchClone(BatchCloneRequest{Graph: "g"})
	assert.Error(t, err)
}

func lookupAll(t *testing.T, st *storage.Store, identities []string) []*storage.Node {
	t.Helper()
	out := make([]*storage.Node, len(identities))
	for i, identity := range identities {
		out[i] = nodeByIdentity(t, st, "g", identity)
	}
	return out
}
