package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"internmatch-engine/internal/domain"
	"internmatch-engine/internal/events"
	"internmatch-engine/internal/store"
)

type PostingsHandler struct {
	Postings *store.PostingStore
	Queries  *store.ShardQueries
	Router   *store.Router
	Hub      *events.Hub
}

// Unified is the full-dataset read the external ranking service
// consumes. Always canonical, never a mirror.
func (h PostingsHandler) Unified(w http.ResponseWriter, r *http.Request) {
	out, err := h.Queries.Unified(r.Context())
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	writeJSON(w, out)
}

func (h PostingsHandler) ByState(w http.ResponseWriter, r *http.Request) {
	state := strings.ToUpper(chi.URLParam(r, "state"))
	out, err := h.Queries.ByState(r.Context(), state)
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	writeJSON(w, out)
}

func (h PostingsHandler) ByTier(w http.ResponseWriter, r *http.Request) {
	tier := domain.Tier(chi.URLParam(r, "tier"))
	out, err := h.Queries.ByTier(r.Context(), tier)
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	writeJSON(w, out)
}

// ShardAudit exposes one mirror's rows with sync timestamps. A 400
// for a tier that has no mirror, unlike ByTier's canonical fallback.
func (h PostingsHandler) ShardAudit(w http.ResponseWriter, r *http.Request) {
	tier := domain.Tier(chi.URLParam(r, "tier"))
	out, err := h.Queries.ShardAudit(r.Context(), tier)
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	writeJSON(w, out)
}

// List is the generic region-routed read: the region query parameter
// picks a replica, absent or unknown regions read from the primary.
func (h PostingsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	region, _ := store.ParseRegion(q.Get("region"))

	db, err := h.Router.Handle(store.Read, region)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	out, err := store.ListPostings(r.Context(), db, store.ListPostingsOpts{
		Sector: q.Get("sector"),
		Sort:   q.Get("sort"),
	})
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	writeJSON(w, out)
}

func (h PostingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p domain.Posting
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(p.ID) == "" {
		writeError(w, http.StatusBadRequest, "posting id is required")
		return
	}

	if err := h.Postings.Insert(r.Context(), p); err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}

	h.Hub.Publish(RequestIDFrom(r.Context()), events.PostingCreated,
		map[string]any{"id": p.ID, "tier": p.Tier})
	writeJSON(w, p)
}

func (h PostingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p domain.Posting
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	p.ID = id

	if err := h.Postings.Update(r.Context(), p); err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}

	h.Hub.Publish(RequestIDFrom(r.Context()), events.PostingUpdated,
		map[string]any{"id": p.ID, "tier": p.Tier})
	writeJSON(w, p)
}

func (h PostingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Postings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	writeJSON(w, p)
}

func (h PostingsHandler) UpsertStudent(w http.ResponseWriter, r *http.Request) {
	var st domain.Student
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(st.ID) == "" {
		writeError(w, http.StatusBadRequest, "student id is required")
		return
	}
	if len(st.Prefs) > 6 {
		writeError(w, http.StatusBadRequest, "at most six preferences")
		return
	}

	db, err := h.Router.Handle(store.Write, "")
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err := store.UpsertStudent(r.Context(), db, st); err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	writeJSON(w, st)
}

// RecomputeDemand triggers the batch demand-count rebuild. Explicit
// only, typically right after bulk preference ingestion.
func (h PostingsHandler) RecomputeDemand(w http.ResponseWriter, r *http.Request) {
	if err := h.Queries.RecomputeDemandCounts(r.Context()); err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
