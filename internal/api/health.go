package api

import (
	"context"
	"net/http"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports "healthy", or "degraded" with a 503 when the
// database does not answer.
func HealthHandler(version string, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "healthy", Version: version}
		status := http.StatusOK

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		respondJSON(w, status, resp)
	}
}
