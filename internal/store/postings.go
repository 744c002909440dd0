package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"internmatch-engine/internal/domain"
)

// PostingStore owns canonical posting writes. Every insert/update also
// mirrors the row into its tier shard within the same transaction, so
// canonical and mirror are consistent at commit time for that row.
type PostingStore struct {
	db  *sql.DB // always the primary
	log *zap.Logger
}

func NewPostingStore(primary *sql.DB, log *zap.Logger) *PostingStore {
	return &PostingStore{db: primary, log: log}
}

func (s *PostingStore) Insert(ctx context.Context, p domain.Posting) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert posting %s: %w", p.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	skills, _ := json.Marshal(p.ReqSkills)
	if _, err := tx.ExecContext(ctx, `
INSERT INTO postings (id, company_id, sector, tier, state, capacity, req_skills, stipend, location_type, demand_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		p.ID, p.CompanyID, p.Sector, string(p.Tier), p.State, p.Capacity,
		string(skills), p.Stipend, p.LocationType, p.DemandCount,
	); err != nil {
		return fmt.Errorf("insert posting %s: %w", p.ID, err)
	}

	if err := mirrorUpsert(ctx, tx, p, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit()
}

// Update rewrites the canonical row and its mirror copy. If the tier
// changed, the old tier's mirror row is deleted in the same
// transaction, so the mirrors never keep a stale copy of a re-tiered
// posting.
func (s *PostingStore) Update(ctx context.Context, p domain.Posting) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update posting %s: %w", p.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	var prevTier string
	err = tx.QueryRowContext(ctx,
		`SELECT tier FROM postings WHERE id = ?;`, p.ID,
	).Scan(&prevTier)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPostingNotFound
	}
	if err != nil {
		return fmt.Errorf("update posting %s: %w", p.ID, err)
	}

	skills, _ := json.Marshal(p.ReqSkills)
	if _, err := tx.ExecContext(ctx, `
UPDATE postings
SET company_id = ?, sector = ?, tier = ?, state = ?, capacity = ?,
    req_skills = ?, stipend = ?, location_type = ?, demand_count = ?
WHERE id = ?;`,
		p.CompanyID, p.Sector, string(p.Tier), p.State, p.Capacity,
		string(skills), p.Stipend, p.LocationType, p.DemandCount, p.ID,
	); err != nil {
		return fmt.Errorf("update posting %s: %w", p.ID, err)
	}

	if err := mirrorUpsert(ctx, tx, p, time.Now().UTC()); err != nil {
		return err
	}

	if prevTier != string(p.Tier) {
		if err := mirrorDelete(ctx, tx, domain.Tier(prevTier), p.ID); err != nil {
			return err
		}
		s.log.Info("posting moved shards",
			zap.String("id", p.ID),
			zap.String("from", prevTier),
			zap.String("to", string(p.Tier)))
	}

	return tx.Commit()
}

func (s *PostingStore) Get(ctx context.Context, id string) (domain.Posting, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, company_id, sector, tier, state, capacity, req_skills, stipend, location_type, demand_count
FROM postings WHERE id = ?;`, id)

	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Posting{}, ErrPostingNotFound
	}
	if err != nil {
		return domain.Posting{}, fmt.Errorf("get posting %s: %w", id, err)
	}
	return p, nil
}
