package store

import (
	"database/sql"
	"fmt"
)

// Migrate brings a database up to the current schema. Guarded by
// PRAGMA user_version so it is cheap to call on every start. Run it
// against the primary; replicas receive schema through replication.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1: canonical postings ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS postings (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL DEFAULT '',
  sector TEXT NOT NULL DEFAULT '',
  tier TEXT NOT NULL,
  state TEXT NOT NULL DEFAULT '',
  capacity INTEGER NOT NULL DEFAULT 0,
  req_skills TEXT NOT NULL DEFAULT '[]',
  stipend INTEGER NOT NULL DEFAULT 0,
  location_type TEXT NOT NULL DEFAULT 'Office',
  demand_count INTEGER NOT NULL DEFAULT 0
);
`); err != nil {
		return err
	}

	// ---- Schema v1: tier mirrors (propagator-owned) ----

	for _, sh := range AllShards() {
		table, err := sh.Table()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL DEFAULT '',
  sector TEXT NOT NULL DEFAULT '',
  tier TEXT NOT NULL,
  state TEXT NOT NULL DEFAULT '',
  capacity INTEGER NOT NULL DEFAULT 0,
  req_skills TEXT NOT NULL DEFAULT '[]',
  stipend INTEGER NOT NULL DEFAULT 0,
  location_type TEXT NOT NULL DEFAULT 'Office',
  demand_count INTEGER NOT NULL DEFAULT 0,
  synced_at TEXT NOT NULL
);
`, table)); err != nil {
			return err
		}
		if _, err := tx.Exec(fmt.Sprintf(`
CREATE INDEX IF NOT EXISTS idx_%s_state ON %s(state);
`, table, table)); err != nil {
			return err
		}
	}

	// ---- Schema v1: students (preference source for demand counts) ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS students (
  id TEXT PRIMARY KEY,
  gpa REAL NOT NULL DEFAULT 0,
  skills TEXT NOT NULL DEFAULT '[]',
  reservation TEXT NOT NULL DEFAULT 'GEN',
  rural INTEGER NOT NULL DEFAULT 0,
  gender TEXT NOT NULL DEFAULT '',
  pref_1 TEXT NOT NULL DEFAULT '',
  pref_2 TEXT NOT NULL DEFAULT '',
  pref_3 TEXT NOT NULL DEFAULT '',
  pref_4 TEXT NOT NULL DEFAULT '',
  pref_5 TEXT NOT NULL DEFAULT '',
  pref_6 TEXT NOT NULL DEFAULT ''
);
`); err != nil {
		return err
	}

	// ---- Schema v1: allocation runs (audit, never deleted) ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS allocation_runs (
  id TEXT PRIMARY KEY,
  run_no INTEGER NOT NULL,
  status TEXT NOT NULL,
  started_by TEXT NOT NULL DEFAULT '',
  started_at TEXT NOT NULL,
  completed_at TEXT,
  processed INTEGER NOT NULL DEFAULT 0,
  created INTEGER NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT ''
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_postings_state ON postings(state);
`); err != nil {
		return err
	}
	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_postings_tier ON postings(tier);
`); err != nil {
		return err
	}
	// run_no uniqueness is what makes Start's claim loop safe
	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_allocation_runs_run_no ON allocation_runs(run_no);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}
