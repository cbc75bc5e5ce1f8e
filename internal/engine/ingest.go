package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Priya8975/football-predictions/internal/apperr"
	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/Priya8975/football-predictions/internal/metrics"
	"github.com/Priya8975/football-predictions/internal/notify"
)

// PredictionStore persists a batch of predictions.
type PredictionStore interface {
	InsertPredictions(ctx context.Context, predictions []domain.Prediction) ([]domain.Prediction, error)
}

// PlanNotifier fans out to the plan behind a prediction plan type.
type PlanNotifier interface {
	NotifyPlanType(ctx context.Context, planType string) (FanOutResult, error)
}

type IngestResult struct {
	Message string `json:"message"`
	Synced  int    `json:"synced"`
}

// Ingestor normalizes and stores admin prediction batches, then notifies
// the subscribers of every affected plan.
type Ingestor struct {
	store  PredictionStore
	fanout PlanNotifier
	logger *slog.Logger

	// OnFanOutFailure controls whether fan-out errors fail the ingest response.
	OnFanOutFailure notify.Policy
}

func NewIngestor(store PredictionStore, fanout PlanNotifier, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:           store,
		fanout:          fanout,
		logger:          logger,
		OnFanOutFailure: notify.LogOnly,
	}
}

// Ingest checks the actor, normalizes the batch and inserts it in one call.
// All checks run before anything is written.
func (i *Ingestor) Ingest(ctx context.Context, actor *domain.User, records []RawPrediction) (IngestResult, error) {
	if actor == nil {
		return IngestResult{}, apperr.Unauthorized("unauthorized")
	}
	if !actor.IsAdmin {
		return IngestResult{}, apperr.Forbidden("admin access required")
	}
	if len(records) == 0 {
		return IngestResult{}, apperr.Validation("predictions array required")
	}

	normalized := make([]domain.Prediction, len(records))
	for idx, raw := range records {
		normalized[idx] = Normalize(raw)
	}

	inserted, err := i.store.InsertPredictions(ctx, normalized)
	if err != nil {
		i.logger.Error("prediction batch insert failed", "error", err, "count", len(normalized))
		return IngestResult{}, apperr.Upstream("inserting predictions", err)
	}

	result := IngestResult{
		Message: fmt.Sprintf("Successfully synced %d predictions", len(inserted)),
		Synced:  len(inserted),
	}

	i.logger.Info("predictions ingested", "count", len(inserted), "admin_id", actor.ID)

	if err := i.notifyPlans(ctx, inserted); err != nil && i.OnFanOutFailure == notify.Propagate {
		return result, err
	}

	return result, nil
}

// notifyPlans fans out once per distinct plan type in the inserted batch.
func (i *Ingestor) notifyPlans(ctx context.Context, inserted []domain.Prediction) error {
	counts := make(map[string]int)
	var planTypes []string
	for _, p := range inserted {
		if counts[p.PlanType] == 0 {
			planTypes = append(planTypes, p.PlanType)
		}
		counts[p.PlanType]++
	}

	var errs []error
	for _, planType := range planTypes {
		metrics.PredictionsIngested(planMetricLabel(planType), counts[planType])

		res, err := i.fanout.NotifyPlanType(ctx, planType)
		if err != nil {
			i.logger.Error("fan-out after ingest failed", "error", err, "plan_type", planType)
			errs = append(errs, fmt.Errorf("plan type %s: %w", planType, err))
			continue
		}
		i.logger.Info("subscribers notified", "plan_type", planType, "notified", res.Notified)
	}

	return errors.Join(errs...)
}
