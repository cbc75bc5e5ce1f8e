package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Priya8975/football-predictions/internal/auth"
	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/Priya8975/football-predictions/internal/engine"
)

// PredictionIngester stores an admin's prediction batch.
type PredictionIngester interface {
	Ingest(ctx context.Context, actor *domain.User, records []engine.RawPrediction) (engine.IngestResult, error)
}

type PredictionHandler struct {
	ingestor PredictionIngester
	logger   *slog.Logger
}

func NewPredictionHandler(ingestor PredictionIngester, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{ingestor: ingestor, logger: logger}
}

type insertPredictionsRequest struct {
	Predictions []engine.RawPrediction `json:"predictions"`
}

// Insert normalizes and stores a batch, then notifies the affected plans.
func (h *PredictionHandler) Insert(w http.ResponseWriter, r *http.Request) {
	var req insertPredictionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.ingestor.Ingest(r.Context(), auth.UserFrom(r.Context()), req.Predictions)
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
