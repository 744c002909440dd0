package httpapi

import (
	"net/http"

	"internmatch-engine/internal/store"
)

type HealthHandler struct {
	Pools   *store.PoolRegistry
	Queries *store.ShardQueries
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Pools.CheckHealth(r.Context()))
}

func (h HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Queries.Stats(r.Context())
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	writeJSON(w, st)
}
