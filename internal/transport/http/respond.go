package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"clubgate/pkg/platform/sentinel"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates sentinel errors into HTTP statuses with a stable
// JSON envelope. Internal detail never reaches the wire.
func writeError(w http.ResponseWriter, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sentinel.ErrAuthRejected):
		status = http.StatusUnauthorized
	case errors.Is(err, sentinel.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sentinel.ErrUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, sentinel.ErrInvalidState):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": message})
}
