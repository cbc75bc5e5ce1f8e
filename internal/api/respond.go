package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Priya8975/football-predictions/internal/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondAppError maps an engine error onto its HTTP status. Server-side
// failures are logged with the request's route.
func respondAppError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := apperr.StatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
	}
	respondError(w, status, apperr.PublicMessage(err))
}
