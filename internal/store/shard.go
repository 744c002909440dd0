package store

import (
	"internmatch-engine/internal/domain"
)

// Shard names one tier mirror table. The set is closed: every value
// that ends up spliced into query text must pass the allow-list in
// Table(). Never build a Shard from user input directly.
type Shard string

const (
	ShardTier1 Shard = "postings_tier1"
	ShardTier2 Shard = "postings_tier2"
	ShardTier3 Shard = "postings_tier3"
)

var knownShards = map[Shard]bool{
	ShardTier1: true,
	ShardTier2: true,
	ShardTier3: true,
}

// Table returns the shard's table name after checking the allow-list.
func (s Shard) Table() (string, error) {
	if !knownShards[s] {
		return "", ErrUnknownShard
	}
	return string(s), nil
}

// AllShards in tier order. Callers iterate this for per-mirror work
// (stats, demand propagation, migrations).
func AllShards() []Shard {
	return []Shard{ShardTier1, ShardTier2, ShardTier3}
}

var tierShards = map[domain.Tier]Shard{
	domain.Tier1: ShardTier1,
	domain.Tier2: ShardTier2,
	domain.Tier3: ShardTier3,
}

func shardForTier(t domain.Tier) (Shard, bool) {
	s, ok := tierShards[t]
	return s, ok
}

// stateShards is the static state→mirror lookup used by ByState.
// States absent here are served from the canonical table.
var stateShards = map[string]Shard{
	"MH": ShardTier1,
	"DL": ShardTier1,
	"KA": ShardTier1,
	"TG": ShardTier1,
	"GJ": ShardTier2,
	"RJ": ShardTier2,
	"TN": ShardTier2,
	"UP": ShardTier2,
	"BR": ShardTier3,
	"OR": ShardTier3,
	"MP": ShardTier3,
	"JH": ShardTier3,
}

func shardForState(state string) (Shard, bool) {
	s, ok := stateShards[state]
	return s, ok
}
