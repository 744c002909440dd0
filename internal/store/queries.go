package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"internmatch-engine/internal/domain"
)

// ShardStats is what Stats reports. With tier-change cleanup in place
// the canonical count equals the sum of the mirror counts; any gap is
// drift worth investigating.
type ShardStats struct {
	CanonicalCount int64 `json:"canonicalCount"`
	Mirror1Count   int64 `json:"mirror1Count"`
	Mirror2Count   int64 `json:"mirror2Count"`
	Mirror3Count   int64 `json:"mirror3Count"`
}

func (s ShardStats) MirrorTotal() int64 {
	return s.Mirror1Count + s.Mirror2Count + s.Mirror3Count
}

// ShardQueries serves tier- and state-scoped reads from the mirrors
// and full-dataset reads from canonical. Scoped reads bypass region
// routing on purpose: the mirrors live beside the canonical table.
type ShardQueries struct {
	db  *sql.DB // always the primary
	log *zap.Logger

	// drift warnings are log-only and rate-limited; Stats never
	// auto-corrects anything.
	drift *rate.Limiter
}

func NewShardQueries(primary *sql.DB, log *zap.Logger) *ShardQueries {
	return &ShardQueries{
		db:    primary,
		log:   log,
		drift: rate.NewLimiter(rate.Every(time.Minute), 1),
	}
}

const postingCols = `id, company_id, sector, tier, state, capacity, req_skills, stipend, location_type, demand_count`

// ByState serves postings for one state from its mapped mirror. A
// state outside the static lookup falls back to the canonical table;
// the fallback is logged so the two paths are distinguishable.
func (q *ShardQueries) ByState(ctx context.Context, state string) ([]domain.Posting, error) {
	table := "postings"
	if sh, ok := shardForState(state); ok {
		t, err := sh.Table()
		if err != nil {
			return nil, err
		}
		table = t
	} else {
		q.log.Warn("state not mapped to a shard, serving from canonical",
			zap.String("state", state))
	}

	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(`
SELECT %s FROM %s WHERE state = ? ORDER BY id;`, postingCols, table), state)
	if err != nil {
		return nil, fmt.Errorf("postings by state %s: %w", state, err)
	}
	return collectPostings(rows)
}

// ByTier returns one tier's entire mirror, used for bulk per-tier
// export and audit. An unrecognized tier falls back to canonical
// filtered by tier, like ByState.
func (q *ShardQueries) ByTier(ctx context.Context, tier domain.Tier) ([]domain.Posting, error) {
	sh, ok := shardForTier(tier)
	if !ok {
		q.log.Warn("tier not mapped to a shard, serving from canonical",
			zap.String("tier", string(tier)))
		rows, err := q.db.QueryContext(ctx, fmt.Sprintf(`
SELECT %s FROM postings WHERE tier = ? ORDER BY id;`, postingCols), string(tier))
		if err != nil {
			return nil, fmt.Errorf("postings by tier %s: %w", tier, err)
		}
		return collectPostings(rows)
	}

	table, err := sh.Table()
	if err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(`
SELECT %s FROM %s ORDER BY id;`, postingCols, table))
	if err != nil {
		return nil, fmt.Errorf("postings by tier %s: %w", tier, err)
	}
	return collectPostings(rows)
}

// Unified reads the canonical table, never a mirror. It is the only
// call guaranteed to return the complete dataset; the external ranking
// consumer depends on that.
func (q *ShardQueries) Unified(ctx context.Context) ([]domain.Posting, error) {
	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(`
SELECT %s FROM postings ORDER BY id;`, postingCols))
	if err != nil {
		return nil, fmt.Errorf("unified postings: %w", err)
	}
	return collectPostings(rows)
}

// ShardAudit returns one mirror's rows including their sync
// timestamps, for drift investigation. Unlike ByTier there is no
// canonical fallback: auditing a tier that has no mirror is an error.
func (q *ShardQueries) ShardAudit(ctx context.Context, tier domain.Tier) ([]domain.MirrorPosting, error) {
	sh, ok := shardForTier(tier)
	if !ok {
		return nil, fmt.Errorf("audit tier %s: %w", tier, ErrUnknownShard)
	}
	table, err := sh.Table()
	if err != nil {
		return nil, err
	}

	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(`
SELECT %s, synced_at FROM %s ORDER BY id;`, postingCols, table))
	if err != nil {
		return nil, fmt.Errorf("audit %s: %w", table, err)
	}
	defer rows.Close()

	var out []domain.MirrorPosting
	for rows.Next() {
		var m domain.MirrorPosting
		var tierCol, skillsJSON, syncedAt string
		if err := rows.Scan(
			&m.ID, &m.CompanyID, &m.Sector, &tierCol, &m.State, &m.Capacity,
			&skillsJSON, &m.Stipend, &m.LocationType, &m.DemandCount, &syncedAt,
		); err != nil {
			return nil, err
		}
		m.Tier = domain.Tier(tierCol)
		_ = json.Unmarshal([]byte(skillsJSON), &m.ReqSkills)
		m.SyncedAt, _ = time.Parse(time.RFC3339, syncedAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats counts canonical and mirror rows. A canonical/mirror mismatch
// is logged (rate-limited) and returned as-is.
func (q *ShardQueries) Stats(ctx context.Context) (ShardStats, error) {
	var st ShardStats
	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM postings;`).Scan(&st.CanonicalCount); err != nil {
		return st, fmt.Errorf("stats canonical: %w", err)
	}

	counts := []*int64{&st.Mirror1Count, &st.Mirror2Count, &st.Mirror3Count}
	for i, sh := range AllShards() {
		table, err := sh.Table()
		if err != nil {
			return st, err
		}
		if err := q.db.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT COUNT(*) FROM %s;`, table)).Scan(counts[i]); err != nil {
			return st, fmt.Errorf("stats %s: %w", table, err)
		}
	}

	if st.CanonicalCount != st.MirrorTotal() && q.drift.Allow() {
		q.log.Warn("canonical and mirror counts differ",
			zap.Int64("canonical", st.CanonicalCount),
			zap.Int64("mirrors", st.MirrorTotal()))
	}
	return st, nil
}

// RecomputeDemandCounts rebuilds every posting's demand count from the
// students' six preference columns, then pushes the new values into
// every mirror. One transaction, explicit trigger only: call it after
// bulk preference ingestion. Idempotent for unchanged preferences.
func (q *ShardQueries) RecomputeDemandCounts(ctx context.Context) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("recompute demand: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Union the six preference columns, count per posting id, and
	// left-join onto canonical: a posting nobody listed gets zero.
	if _, err := tx.ExecContext(ctx, `
WITH prefs(post_id) AS (
  SELECT pref_1 FROM students WHERE pref_1 <> ''
  UNION ALL SELECT pref_2 FROM students WHERE pref_2 <> ''
  UNION ALL SELECT pref_3 FROM students WHERE pref_3 <> ''
  UNION ALL SELECT pref_4 FROM students WHERE pref_4 <> ''
  UNION ALL SELECT pref_5 FROM students WHERE pref_5 <> ''
  UNION ALL SELECT pref_6 FROM students WHERE pref_6 <> ''
),
demand(post_id, n) AS (
  SELECT post_id, COUNT(*) FROM prefs GROUP BY post_id
)
UPDATE postings
SET demand_count = COALESCE((SELECT n FROM demand WHERE demand.post_id = postings.id), 0);
`); err != nil {
		return fmt.Errorf("recompute demand canonical: %w", err)
	}

	for _, sh := range AllShards() {
		table, err := sh.Table()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
UPDATE %s
SET demand_count = (SELECT demand_count FROM postings WHERE postings.id = %s.id)
WHERE EXISTS (SELECT 1 FROM postings WHERE postings.id = %s.id);
`, table, table, table)); err != nil {
			return fmt.Errorf("recompute demand %s: %w", table, err)
		}
	}

	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPosting(row scanner) (domain.Posting, error) {
	var p domain.Posting
	var tier, skillsJSON string
	if err := row.Scan(
		&p.ID, &p.CompanyID, &p.Sector, &tier, &p.State, &p.Capacity,
		&skillsJSON, &p.Stipend, &p.LocationType, &p.DemandCount,
	); err != nil {
		return p, err
	}
	p.Tier = domain.Tier(tier)
	_ = json.Unmarshal([]byte(skillsJSON), &p.ReqSkills)
	return p, nil
}

func collectPostings(rows *sql.Rows) ([]domain.Posting, error) {
	defer rows.Close()
	var out []domain.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
