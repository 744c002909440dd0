package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"internmatch-engine/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openPool(filepath.Join(t.TempDir(), "test.db"), PoolOpts{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func testPosting(id string, tier domain.Tier, state string) domain.Posting {
	return domain.Posting{
		ID:           id,
		CompanyID:    "C001",
		Sector:       "IT",
		Tier:         tier,
		State:        state,
		Capacity:     10,
		ReqSkills:    []string{"python", "sql"},
		Stipend:      5000,
		LocationType: "Office",
	}
}

func ids(ps []domain.Posting) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func newTestStores(t *testing.T) (*sql.DB, *PostingStore, *ShardQueries) {
	t.Helper()
	db := newTestDB(t)
	log := zaptest.NewLogger(t)
	return db, NewPostingStore(db, log), NewShardQueries(db, log)
}
