package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internmatch-engine/internal/domain"
)

func TestInsertVisibleOncePerTierAndUnified(t *testing.T) {
	ctx := context.Background()
	_, ps, q := newTestStores(t)

	for i, tier := range []domain.Tier{domain.Tier1, domain.Tier2, domain.Tier3} {
		id := []string{"I001", "I002", "I003"}[i]
		require.NoError(t, ps.Insert(ctx, testPosting(id, tier, "MH")))

		byTier, err := q.ByTier(ctx, tier)
		require.NoError(t, err)
		assert.Equal(t, []string{id}, ids(byTier), "tier %s mirror holds exactly its posting", tier)
	}

	unified, err := q.Unified(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"I001", "I002", "I003"}, ids(unified))
}

func TestByStateIncludesMirroredPosting(t *testing.T) {
	ctx := context.Background()
	_, ps, q := newTestStores(t)

	require.NoError(t, ps.Insert(ctx, testPosting("I100", domain.Tier2, "GJ")))

	byState, err := q.ByState(ctx, "GJ")
	require.NoError(t, err)
	assert.Contains(t, ids(byState), "I100")

	byTier, err := q.ByTier(ctx, domain.Tier2)
	require.NoError(t, err)
	assert.Contains(t, ids(byTier), "I100")
}

func TestUpdateMovesRowBetweenMirrors(t *testing.T) {
	ctx := context.Background()
	_, ps, q := newTestStores(t)

	p := testPosting("I200", domain.Tier1, "DL")
	require.NoError(t, ps.Insert(ctx, p))

	p.Tier = domain.Tier3
	p.Stipend = 6000
	require.NoError(t, ps.Update(ctx, p))

	tier1, err := q.ByTier(ctx, domain.Tier1)
	require.NoError(t, err)
	assert.NotContains(t, ids(tier1), "I200", "old mirror must not keep an orphaned copy")

	tier3, err := q.ByTier(ctx, domain.Tier3)
	require.NoError(t, err)
	require.Equal(t, []string{"I200"}, ids(tier3))
	assert.Equal(t, 6000, tier3[0].Stipend)

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, st.CanonicalCount, st.MirrorTotal())
}

func TestUpdateMissingPosting(t *testing.T) {
	ctx := context.Background()
	_, ps, _ := newTestStores(t)

	err := ps.Update(ctx, testPosting("I999", domain.Tier1, "DL"))
	assert.ErrorIs(t, err, ErrPostingNotFound)
}

func TestUnrecognizedTierStaysCanonicalOnly(t *testing.T) {
	ctx := context.Background()
	_, ps, q := newTestStores(t)

	require.NoError(t, ps.Insert(ctx, testPosting("I300", domain.Tier("Tier9"), "GJ")))

	unified, err := q.Unified(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids(unified), "I300")

	// scoped read falls back to canonical, no error
	byTier, err := q.ByTier(ctx, domain.Tier("Tier9"))
	require.NoError(t, err)
	assert.Equal(t, []string{"I300"}, ids(byTier))

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.CanonicalCount)
	assert.Equal(t, int64(0), st.MirrorTotal())
	assert.GreaterOrEqual(t, st.CanonicalCount, st.MirrorTotal())
}

func TestGetPosting(t *testing.T) {
	ctx := context.Background()
	_, ps, _ := newTestStores(t)

	want := testPosting("I400", domain.Tier2, "TN")
	require.NoError(t, ps.Insert(ctx, want))

	got, err := ps.Get(ctx, "I400")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ps.Get(ctx, "I401")
	assert.ErrorIs(t, err, ErrPostingNotFound)
}
