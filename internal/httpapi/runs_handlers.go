package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"internmatch-engine/internal/domain"
	"internmatch-engine/internal/events"
	"internmatch-engine/internal/store"
)

type RunsHandler struct {
	Runs *store.Sequencer
	Hub  *events.Hub
}

func (h RunsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var body struct {
		By string `json:"by"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body) // empty body is fine
	}

	run, err := h.Runs.Start(r.Context(), body.By)
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}

	h.Hub.Publish(RequestIDFrom(r.Context()), events.RunStarted,
		map[string]any{"id": run.ID, "runNo": run.RunNo})
	writeJSON(w, run)
}

func (h RunsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var stats domain.RunStats
	if err := json.NewDecoder(r.Body).Decode(&stats); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := h.Runs.Complete(r.Context(), id, stats); err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}

	h.Hub.Publish(RequestIDFrom(r.Context()), events.RunCompleted,
		map[string]any{"id": id, "processed": stats.Processed, "created": stats.Created})
	w.WriteHeader(http.StatusNoContent)
}

func (h RunsHandler) Fail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := h.Runs.Fail(r.Context(), id, body.Message); err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}

	h.Hub.Publish(RequestIDFrom(r.Context()), events.RunFailed,
		map[string]any{"id": id, "message": body.Message})
	w.WriteHeader(http.StatusNoContent)
}

func (h RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, err := h.Runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	writeJSON(w, run)
}

func (h RunsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Runs.Summary(r.Context())
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	sum.TotalEvents = h.Hub.Published()
	writeJSON(w, sum)
}
