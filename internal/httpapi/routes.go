package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"internmatch-engine/internal/events"
	"internmatch-engine/internal/store"
)

type Deps struct {
	Pools    *store.PoolRegistry
	Router   *store.Router
	Postings *store.PostingStore
	Queries  *store.ShardQueries
	Runs     *store.Sequencer
	Hub      *events.Hub
	Log      *zap.Logger

	// QueryTimeout bounds every non-streaming request context.
	QueryTimeout time.Duration
}

func Routes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recover(d.Log))
	r.Use(AccessLog(d.Log))
	r.Use(Timeout(d.QueryTimeout))

	health := HealthHandler{Pools: d.Pools, Queries: d.Queries}
	postings := PostingsHandler{Postings: d.Postings, Queries: d.Queries, Router: d.Router, Hub: d.Hub}
	runs := RunsHandler{Runs: d.Runs, Hub: d.Hub}
	evts := EventsHandler{Hub: d.Hub}

	r.Get("/health", health.Health)
	r.Get("/stats", health.Stats)

	r.Get("/postings", postings.Unified)
	r.Get("/postings/list", postings.List)
	r.Get("/postings/state/{state}", postings.ByState)
	r.Get("/postings/tier/{tier}", postings.ByTier)
	r.Get("/postings/tier/{tier}/audit", postings.ShardAudit)
	r.Post("/postings", postings.Create)
	r.Get("/postings/{id}", postings.Get)
	r.Put("/postings/{id}", postings.Update)

	r.Post("/students", postings.UpsertStudent)
	r.Post("/maintenance/recompute-demand", postings.RecomputeDemand)

	r.Post("/runs", runs.Start)
	r.Get("/runs/summary", runs.Summary)
	r.Get("/runs/{id}", runs.Get)
	r.Post("/runs/{id}/complete", runs.Complete)
	r.Post("/runs/{id}/fail", runs.Fail)

	r.Get("/events", evts.Stream)

	return r
}
