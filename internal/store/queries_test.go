package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internmatch-engine/internal/domain"
)

func TestByStateUnmappedFallsBackToCanonical(t *testing.T) {
	ctx := context.Background()
	_, ps, q := newTestStores(t)

	// "ZZ" has no shard mapping, so the row is only findable through
	// the canonical fallback path.
	require.NoError(t, ps.Insert(ctx, testPosting("I500", domain.Tier1, "ZZ")))

	byState, err := q.ByState(ctx, "ZZ")
	require.NoError(t, err)
	assert.Equal(t, []string{"I500"}, ids(byState))
}

func TestRecomputeDemandCounts(t *testing.T) {
	ctx := context.Background()
	db, ps, q := newTestStores(t)

	require.NoError(t, ps.Insert(ctx, testPosting("I001", domain.Tier1, "MH")))
	require.NoError(t, ps.Insert(ctx, testPosting("I002", domain.Tier2, "GJ")))
	require.NoError(t, ps.Insert(ctx, testPosting("I003", domain.Tier3, "BR")))

	require.NoError(t, UpsertStudent(ctx, db, domain.Student{
		ID: "S00001", Prefs: []string{"I001", "I002"},
	}))
	require.NoError(t, UpsertStudent(ctx, db, domain.Student{
		ID: "S00002", Prefs: []string{"I001"},
	}))
	require.NoError(t, UpsertStudent(ctx, db, domain.Student{
		ID: "S00003", Prefs: []string{"I001", "I002", "I404"}, // dangling ref is fine
	}))

	require.NoError(t, q.RecomputeDemandCounts(ctx))

	demand := func() map[string]int {
		unified, err := q.Unified(ctx)
		require.NoError(t, err)
		out := map[string]int{}
		for _, p := range unified {
			out[p.ID] = p.DemandCount
		}
		return out
	}

	first := demand()
	assert.Equal(t, map[string]int{"I001": 3, "I002": 2, "I003": 0}, first)

	// mirrors carry the recomputed value too
	tier2, err := q.ByTier(ctx, domain.Tier2)
	require.NoError(t, err)
	require.Len(t, tier2, 1)
	assert.Equal(t, 2, tier2[0].DemandCount)

	// idempotent with no intervening preference changes
	require.NoError(t, q.RecomputeDemandCounts(ctx))
	assert.Equal(t, first, demand())
}

func TestStatsCountsPerMirror(t *testing.T) {
	ctx := context.Background()
	_, ps, q := newTestStores(t)

	require.NoError(t, ps.Insert(ctx, testPosting("I001", domain.Tier1, "MH")))
	require.NoError(t, ps.Insert(ctx, testPosting("I002", domain.Tier1, "DL")))
	require.NoError(t, ps.Insert(ctx, testPosting("I003", domain.Tier2, "GJ")))

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, ShardStats{
		CanonicalCount: 3,
		Mirror1Count:   2,
		Mirror2Count:   1,
		Mirror3Count:   0,
	}, st)
	assert.Equal(t, st.CanonicalCount, st.MirrorTotal())
}

func TestShardAudit(t *testing.T) {
	ctx := context.Background()
	_, ps, q := newTestStores(t)

	require.NoError(t, ps.Insert(ctx, testPosting("I600", domain.Tier1, "MH")))

	audit, err := q.ShardAudit(ctx, domain.Tier1)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "I600", audit[0].ID)
	assert.False(t, audit[0].SyncedAt.IsZero(), "mirror rows carry their sync timestamp")

	_, err = q.ShardAudit(ctx, domain.Tier("Tier9"))
	assert.ErrorIs(t, err, ErrUnknownShard)
}

func TestListPostingsSortAllowList(t *testing.T) {
	ctx := context.Background()
	db, ps, _ := newTestStores(t)

	a := testPosting("I001", domain.Tier1, "MH")
	a.Stipend = 4500
	b := testPosting("I002", domain.Tier2, "GJ")
	b.Stipend = 5500
	require.NoError(t, ps.Insert(ctx, a))
	require.NoError(t, ps.Insert(ctx, b))

	got, err := ListPostings(ctx, db, ListPostingsOpts{Sort: "stipend"})
	require.NoError(t, err)
	assert.Equal(t, []string{"I002", "I001"}, ids(got))

	// junk sort values collapse to the default ordering
	got, err = ListPostings(ctx, db, ListPostingsOpts{Sort: "stipend; DROP TABLE postings"})
	require.NoError(t, err)
	assert.Equal(t, []string{"I001", "I002"}, ids(got))

	got, err = ListPostings(ctx, db, ListPostingsOpts{Sector: "Finance"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
