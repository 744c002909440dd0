package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internmatch-engine/internal/domain"
)

func TestShardTableAllowList(t *testing.T) {
	for _, sh := range AllShards() {
		table, err := sh.Table()
		require.NoError(t, err)
		assert.Equal(t, string(sh), table)
	}

	// anything outside the closed set must never reach query text
	_, err := Shard("postings_tier1; DROP TABLE postings").Table()
	assert.ErrorIs(t, err, ErrUnknownShard)
	_, err = Shard("").Table()
	assert.ErrorIs(t, err, ErrUnknownShard)
}

func TestShardForTier(t *testing.T) {
	cases := map[domain.Tier]Shard{
		domain.Tier1: ShardTier1,
		domain.Tier2: ShardTier2,
		domain.Tier3: ShardTier3,
	}
	for tier, want := range cases {
		got, ok := shardForTier(tier)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := shardForTier(domain.Tier("Tier9"))
	assert.False(t, ok)
}

func TestShardForState(t *testing.T) {
	got, ok := shardForState("GJ")
	require.True(t, ok)
	assert.Equal(t, ShardTier2, got)

	_, ok = shardForState("ZZ")
	assert.False(t, ok)
}
