package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// PoolOpts bounds one pooled connection handle. The zero value is
// usable; openPool fills in defaults.
type PoolOpts struct {
	MaxOpen      int
	MaxIdle      int
	ConnLifetime time.Duration
}

func openPool(target string, opts PoolOpts) (*sql.DB, error) {
	// modernc sqlite DSN: file:foo.db?_pragma=busy_timeout(5000).
	// Bare paths get the busy-timeout pragma so concurrent writers
	// wait instead of failing immediately.
	dsn := target
	if !strings.HasPrefix(dsn, "file:") {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dsn)
	}

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool %s: %w", target, err)
	}

	if opts.MaxOpen <= 0 {
		opts.MaxOpen = 8
	}
	if opts.MaxIdle <= 0 {
		opts.MaxIdle = 4
	}
	if opts.ConnLifetime <= 0 {
		opts.ConnLifetime = 5 * time.Minute
	}
	pool.SetMaxOpenConns(opts.MaxOpen)
	pool.SetMaxIdleConns(opts.MaxIdle)
	pool.SetConnMaxLifetime(opts.ConnLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s: %w", target, err)
	}

	return pool, nil
}
