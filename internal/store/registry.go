package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Region selects which replica serves a read. Anything else falls
// back to the primary.
type Region string

const (
	RegionNorth Region = "north"
	RegionSouth Region = "south"
)

// ParseRegion normalizes a caller-supplied region code.
func ParseRegion(s string) (Region, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return RegionNorth, true
	case "south", "s":
		return RegionSouth, true
	}
	return "", false
}

// Health reports per-pool liveness. Pools that were never
// instantiated report false without a connection attempt.
type Health struct {
	Primary      bool `json:"primary"`
	ReplicaNorth bool `json:"replicaNorth"`
	ReplicaSouth bool `json:"replicaSouth"`
}

// PoolRegistry owns the primary pool and the two region replica
// pools. It is built once in main and passed down; pools open lazily
// on first use and stay open until CloseAll.
type PoolRegistry struct {
	log  *zap.Logger
	opts PoolOpts

	primaryDSN string
	replicaDSN map[Region]string

	mu     sync.Mutex
	pools  map[string]*sql.DB // keyed by DSN, so a shared fallback is one pool
	closed bool

	fallbackLogged map[Region]bool // replica→primary fallback logged once per region
}

func NewPoolRegistry(log *zap.Logger, primary, replicaNorth, replicaSouth string, opts PoolOpts) *PoolRegistry {
	return &PoolRegistry{
		log:        log,
		opts:       opts,
		primaryDSN: primary,
		replicaDSN: map[Region]string{
			RegionNorth: replicaNorth,
			RegionSouth: replicaSouth,
		},
		pools:          make(map[string]*sql.DB),
		fallbackLogged: make(map[Region]bool),
	}
}

func (r *PoolRegistry) pool(dsn string) (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, fmt.Errorf("pool registry is closed")
	}
	if p, ok := r.pools[dsn]; ok {
		return p, nil
	}
	p, err := openPool(dsn, r.opts)
	if err != nil {
		return nil, err
	}
	r.pools[dsn] = p
	return p, nil
}

// Primary returns the write pool, opening it on first use. It doubles
// as the read fallback when a replica is not configured.
func (r *PoolRegistry) Primary() (*sql.DB, error) {
	return r.pool(r.primaryDSN)
}

// Replica returns the pool for a region's replica. An unconfigured or
// unknown region transparently gets the primary; that fallback is
// logged once per region, then stays silent.
func (r *PoolRegistry) Replica(region Region) (*sql.DB, error) {
	dsn := r.replicaDSN[region]
	if dsn == "" {
		r.noteFallback(region)
		return r.Primary()
	}
	return r.pool(dsn)
}

func (r *PoolRegistry) noteFallback(region Region) {
	r.mu.Lock()
	logged := r.fallbackLogged[region]
	r.fallbackLogged[region] = true
	r.mu.Unlock()
	if !logged {
		r.log.Info("no replica configured, reads fall back to primary",
			zap.String("region", string(region)))
	}
}

// instantiated returns the already-open pool for a DSN, or nil. Health
// checks use this so they never cold-start an unused replica.
func (r *PoolRegistry) instantiated(dsn string) *sql.DB {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pools[dsn]
}

// CheckHealth pings every instantiated pool in parallel. A pool that
// was never opened reports unhealthy without any connection attempt.
func (r *PoolRegistry) CheckHealth(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	probe := func(dsn string, out *bool) func() error {
		return func() error {
			p := r.instantiated(dsn)
			if p == nil {
				return nil // stays false
			}
			*out = p.PingContext(ctx) == nil
			return nil
		}
	}

	var h Health
	var g errgroup.Group
	g.Go(probe(r.primaryDSN, &h.Primary))
	if dsn := r.replicaDSN[RegionNorth]; dsn != "" {
		g.Go(probe(dsn, &h.ReplicaNorth))
	}
	if dsn := r.replicaDSN[RegionSouth]; dsn != "" {
		g.Go(probe(dsn, &h.ReplicaSouth))
	}
	_ = g.Wait() // probes never return errors, they record booleans

	return h
}

// CloseAll closes every instantiated pool in parallel. Safe to call
// more than once; later calls are no-ops.
func (r *PoolRegistry) CloseAll() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	pools := make([]*sql.DB, 0, len(r.pools))
	for _, p := range r.pools {
		pools = append(pools, p)
	}
	r.pools = make(map[string]*sql.DB)
	r.mu.Unlock()

	var g errgroup.Group
	for _, p := range pools {
		g.Go(p.Close)
	}
	return g.Wait()
}
