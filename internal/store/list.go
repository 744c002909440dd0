package store

import (
	"context"
	"database/sql"
	"fmt"

	"internmatch-engine/internal/domain"
)

type ListPostingsOpts struct {
	Sector string // optional filter
	Sort   string // stipend | capacity | demand | id
	Limit  int
}

// ListPostings is the generic read path: the caller obtains a handle
// from the Router (so the read may land on a region replica) and we
// run against whatever handle it gives us. Scoped reads belong to
// ShardQueries instead.
func ListPostings(ctx context.Context, db *sql.DB, opts ListPostingsOpts) ([]domain.Posting, error) {
	// whitelist sort columns (prevents SQL injection)
	sortCol := map[string]string{
		"stipend":  "stipend DESC",
		"capacity": "capacity DESC",
		"demand":   "demand_count DESC",
		"id":       "id ASC",
	}[opts.Sort]
	if sortCol == "" {
		sortCol = "id ASC"
	}
	if opts.Limit <= 0 || opts.Limit > 10000 {
		opts.Limit = 1000
	}

	where := ""
	args := []any{}
	if opts.Sector != "" {
		where = "WHERE sector = ?"
		args = append(args, opts.Sector)
	}
	args = append(args, opts.Limit)

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
SELECT %s FROM postings %s ORDER BY %s LIMIT ?;`, postingCols, where, sortCol), args...)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	return collectPostings(rows)
}
