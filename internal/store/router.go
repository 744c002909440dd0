package store

import "database/sql"

// QueryKind classifies a query for routing. The router trusts the
// caller's classification: nothing stops a write issued through a
// Read handle from reaching a replica, so classify carefully.
type QueryKind int

const (
	Read QueryKind = iota
	Write
)

// Router picks the pool for a query. Writes always go to the primary;
// reads go to the caller's region replica, or the primary when no
// replica is configured.
type Router struct {
	pools *PoolRegistry
}

func NewRouter(pools *PoolRegistry) *Router {
	return &Router{pools: pools}
}

// Handle returns a query-capable handle for the given kind and region.
// Replica reads may lag the primary by an unbounded amount; a caller
// that must observe its own write should ask for a Write handle
// explicitly; there is no read-after-write pinning.
func (r *Router) Handle(kind QueryKind, region Region) (*sql.DB, error) {
	if kind == Write {
		return r.pools.Primary()
	}
	return r.pools.Replica(region)
}
