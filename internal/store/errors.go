package store

import (
	"errors"

	sqlite3 "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

var (
	// ErrUnknownShard means an identifier outside the closed shard set
	// almost reached query text.
	ErrUnknownShard = errors.New("unknown shard identifier")

	// ErrPostingNotFound is returned by Update when the canonical row
	// does not exist.
	ErrPostingNotFound = errors.New("posting not found")

	// ErrRunNotFound is returned by Complete/Fail for an unknown run id.
	ErrRunNotFound = errors.New("allocation run not found")

	// ErrRunContention means a run number could not be claimed after
	// repeated conflicts. Callers may simply try again.
	ErrRunContention = errors.New("run number contention, retries exhausted")
)

func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlitelib.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
