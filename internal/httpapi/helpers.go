package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"internmatch-engine/internal/store"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// storeStatus maps store errors onto HTTP statuses. Everything the
// storage layer propagates unchanged surfaces here.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrPostingNotFound),
		errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnknownShard):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrRunContention):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
