package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"internmatch-engine/internal/domain"
)

// mirrorUpsert writes the full canonical row into its tier's mirror,
// stamped with the sync time. Runs inside the caller's transaction so
// canonical and mirror commit or roll back together. An unrecognized
// tier is a pass-through: the row stays canonical-only.
func mirrorUpsert(ctx context.Context, tx *sql.Tx, p domain.Posting, now time.Time) error {
	sh, ok := shardForTier(p.Tier)
	if !ok {
		return nil
	}
	table, err := sh.Table()
	if err != nil {
		return err
	}

	skills, _ := json.Marshal(p.ReqSkills)
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (id, company_id, sector, tier, state, capacity, req_skills, stipend, location_type, demand_count, synced_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  company_id = excluded.company_id,
  sector = excluded.sector,
  tier = excluded.tier,
  state = excluded.state,
  capacity = excluded.capacity,
  req_skills = excluded.req_skills,
  stipend = excluded.stipend,
  location_type = excluded.location_type,
  demand_count = excluded.demand_count,
  synced_at = excluded.synced_at;`, table),
		p.ID, p.CompanyID, p.Sector, string(p.Tier), p.State, p.Capacity,
		string(skills), p.Stipend, p.LocationType, p.DemandCount,
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("mirror %s upsert %s: %w", table, p.ID, err)
	}
	return nil
}

// mirrorDelete removes a posting's copy from the mirror of a tier it
// no longer belongs to. A tier with no mirror has nothing to clean.
func mirrorDelete(ctx context.Context, tx *sql.Tx, tier domain.Tier, id string) error {
	sh, ok := shardForTier(tier)
	if !ok {
		return nil
	}
	table, err := sh.Table()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?;`, table), id,
	); err != nil {
		return fmt.Errorf("mirror %s delete %s: %w", table, id, err)
	}
	return nil
}
