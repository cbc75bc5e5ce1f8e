package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Priya8975/football-predictions/internal/apperr"
	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/Priya8975/football-predictions/internal/metrics"
	"github.com/Priya8975/football-predictions/internal/notify"
)

// SubscriberStore finds the recipients of a plan fan-out.
type SubscriberStore interface {
	ListActiveSubscribers(ctx context.Context, planID string) ([]domain.Subscriber, error)
	GetPlanBySlug(ctx context.Context, slug string) (*domain.Plan, error)
}

// NotificationCreator writes one notification for one recipient.
type NotificationCreator interface {
	Create(ctx context.Context, req notify.CreateRequest) (*domain.Notification, error)
}

// FanOutResult counts the recipients of one fan-out.
type FanOutResult struct {
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
}

// FanOutEngine notifies every active subscriber of a plan.
type FanOutEngine struct {
	store    SubscriberStore
	notifier NotificationCreator
	logger   *slog.Logger

	OnUnmappedPlanType UnmappedPlanTypePolicy
}

func NewFanOutEngine(store SubscriberStore, notifier NotificationCreator, logger *slog.Logger) *FanOutEngine {
	return &FanOutEngine{
		store:              store,
		notifier:           notifier,
		logger:             logger,
		OnUnmappedPlanType: SkipUnmapped,
	}
}

// NotifyPredictionDropped writes a prediction_dropped notification for each
// active subscriber of the plan, one at a time. A failed recipient does not
// stop the loop and only successful writes are counted.
func (f *FanOutEngine) NotifyPredictionDropped(ctx context.Context, planID, planName string) (FanOutResult, error) {
	subscribers, err := f.store.ListActiveSubscribers(ctx, planID)
	if err != nil {
		return FanOutResult{}, apperr.Upstream("finding active subscribers", err)
	}

	var result FanOutResult
	if len(subscribers) == 0 {
		f.logger.Info("no active subscribers", "plan_id", planID)
		return result, nil
	}

	title, message := notify.DefaultContent(domain.NotifyPredictionDropped, planName)

	for _, sub := range subscribers {
		n, err := f.notifier.Create(ctx, notify.CreateRequest{
			UserID:    sub.UserID,
			Type:      domain.NotifyPredictionDropped,
			Title:     title,
			Message:   message,
			SendEmail: true,
			PlanName:  planName,
			UserEmail: sub.Email,
			UserName:  sub.FullName,
		})
		if n == nil {
			result.Failed++
			f.logger.Warn("fan-out recipient failed",
				"error", err,
				"plan_id", planID,
				"user_id", sub.UserID,
			)
			continue
		}
		result.Notified++
	}

	metrics.FanOutRecipients(result.Notified, result.Failed)
	f.logger.Info("fan-out complete",
		"plan_id", planID,
		"plan_name", planName,
		"notified", result.Notified,
		"failed", result.Failed,
	)

	return result, nil
}

// NotifyPlanType resolves a prediction plan type to its plan and fans out.
// Unmapped plan types are handled by OnUnmappedPlanType.
func (f *FanOutEngine) NotifyPlanType(ctx context.Context, planType string) (FanOutResult, error) {
	planType = strings.TrimSpace(planType)
	if planType == "" {
		return FanOutResult{}, apperr.Validation("plan type required")
	}

	slug, ok := PlanSlug(planType)
	if !ok {
		if f.OnUnmappedPlanType == RejectUnmapped {
			return FanOutResult{}, apperr.Validation(fmt.Sprintf("unknown plan type %q", planType))
		}
		f.logger.Debug("skipping unmapped plan type", "plan_type", planType)
		return FanOutResult{}, nil
	}

	plan, err := f.store.GetPlanBySlug(ctx, slug)
	if err != nil {
		return FanOutResult{}, apperr.Upstream("looking up plan", err)
	}
	if plan == nil {
		return FanOutResult{}, apperr.NotFound(fmt.Sprintf("plan %q not found", slug))
	}

	return f.NotifyPredictionDropped(ctx, plan.ID, plan.Name)
}
