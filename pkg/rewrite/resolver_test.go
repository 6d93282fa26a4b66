package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIdentity_FreeNameUnchanged(t *testing.T) {
	_, st := newTestEngine(t)
	tx := st.Begin()
	defer tx.Rollback()

	assert.Equal(t, "fresh", resolveIdentity(tx, "g", "fresh"))
}

func TestResolveIdentity_CollisionChain(t *testing.T) {
	_, st := newTestEngine(t)
	base := mustNode(t, st, "g", "a", nil)

	tx := st.Begin()
	defer tx.Rollback()

	first := resolveIdentity(tx, "g", "a")
	assert.Equal(t, "a1", first)
	_, err := tx.NewNode("g", first, nil)
	require.NoError(t, err)

	// the following resolution in the same transaction sees the claim
	second := resolveIdentity(tx, "g", "a")
	assert.Equal(t, "a2", second)
	_, err = tx.NewNode("g", second, nil)
	require.NoError(t, err)

	require.NoError(t, tx.Commit())
	assert.Equal(t, uint64(2), st.IdentitySeq(base.ID))
}

func TestResolveIdentity_SkipsManuallyTakenSuffix(t *testing.T) {
	_, st := newTestEngine(t)
	mustNode(t, st, "g", "a", nil)
	mustNode(t, st, "g", "a1", nil)
	mustNode(t, st, "g", "a2", nil)

	tx := st.Begin()
	defer tx.Rollback()

	assert.Equal(t, "a3", resolveIdentity(tx, "g", "a"))
}

func TestResolveIdentity_ExcludedHolderIsInvisible(t *testing.T) {
	_, st := newTestEngine(t)
	holder := mustNode(t, st, "g", "a", nil)

	tx := st.Begin()
	defer tx.Rollback()

	assert.Equal(t, "a", resolveIdentity(tx, "g", "a", holder.ID))
	assert.Zero(t, st.IdentitySeq(holder.ID))
}

func TestResolveIdentity_CounterOnlyCommitsWithTx(t *testing.T) {
	_, st := newTestEngine(t)
	base := mustNode(t, st, "g", "a", nil)

	tx := st.Begin()
	assert.Equal(t, "a1", resolveIdentity(tx, "g", "a"))
	tx.Rollback()

	assert.Zero(t, st.IdentitySeq(base.ID))

	// a later transaction starts over
	tx = st.Begin()
	defer tx.Rollback()
	assert.Equal(t, "a1", resolveIdentity(tx, "g", "a"))
}

func TestRowIdentity(t *testing.T) {
	assert.Equal(t, "42", rowIdentity(42))
}

func TestResolveIdentity_DistinctPrefixesIndependent(t *testing.T) {
	_, st := newTestEngine(t)
	a := mustNode(t, st, "g", "a", nil)
	b := mustNode(t, st, "g", "b", nil)

	tx := st.Begin()
	defer tx.Rollback()

	_, err := tx.NewNode("g", resolveIdentity(tx, "g", "a"), nil)
	require.NoError(t, err)
	assert.Equal(t, "b1", resolveIdentity(tx, "g", "b"))

	_, err = tx.NewNode("g", "b1", nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, uint64(1), st.IdentitySeq(a.ID))
	assert.Equal(t, uint64(1), st.IdentitySeq(b.ID))
}
