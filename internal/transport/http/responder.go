package http

import (
	"encoding/json"
	"errors"
	"net/http"

	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func mapHTTPStatus(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, derr.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, derr.ErrSnapshotNotFound), errors.Is(err, derr.ErrResultNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// mapErrorMessage hides internal detail from clients. Input problems are
// echoed so callers can fix their snapshot.
func mapErrorMessage(err error) string {
	switch mapHTTPStatus(err) {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusRequestEntityTooLarge:
		return "request body too large"
	case http.StatusNotFound:
		if errors.Is(err, derr.ErrSnapshotNotFound) {
			return derr.ErrSnapshotNotFound.Error()
		}
		return derr.ErrResultNotFound.Error()
	default:
		if errors.Is(err, derr.ErrInternalInconsistency) {
			return derr.ErrInternalInconsistency.Error()
		}
		return "internal error"
	}
}
