package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/Priya8975/football-predictions/internal/apperr"
	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/Priya8975/football-predictions/internal/metrics"
	"github.com/Priya8975/football-predictions/internal/notify"
)

// SubscriptionStore reads a user's subscriptions and expires lapsed ones.
type SubscriptionStore interface {
	ListUserSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error)
	ExpireSubscription(ctx context.Context, id string) (bool, error)
}

// Runner executes work outside the calling request. Submit must not block;
// it reports false when the task was dropped.
type Runner interface {
	Submit(task func(ctx context.Context)) bool
}

// Reconciler expires lapsed subscriptions whenever a user's list is loaded.
type Reconciler struct {
	store    SubscriptionStore
	notifier NotificationCreator
	runner   Runner
	logger   *slog.Logger
	now      func() time.Time
}

func NewReconciler(store SubscriptionStore, notifier NotificationCreator, runner Runner, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		notifier: notifier,
		runner:   runner,
		logger:   logger,
		now:      time.Now,
	}
}

// LoadSubscriptions returns the user's subscriptions after moving every
// active, past-expiry one to expired. Only the initial read can fail the
// call: a failing sweep is logged and abandoned, and expiry notifications
// run in the background.
func (r *Reconciler) LoadSubscriptions(ctx context.Context, user *domain.User) ([]domain.Subscription, error) {
	if user == nil {
		return nil, apperr.Unauthorized("unauthorized")
	}

	subs, err := r.store.ListUserSubscriptions(ctx, user.ID)
	if err != nil {
		return nil, apperr.Upstream("loading subscriptions", err)
	}

	if !r.sweep(ctx, user, subs) {
		return subs, nil
	}

	fresh, err := r.store.ListUserSubscriptions(ctx, user.ID)
	if err != nil {
		r.logger.Warn("re-reading subscriptions failed, serving patched list",
			"error", err,
			"user_id", user.ID,
		)
		return subs, nil
	}
	return fresh, nil
}

// sweep patches subs in place and reports whether any row changed.
func (r *Reconciler) sweep(ctx context.Context, user *domain.User, subs []domain.Subscription) bool {
	now := r.now()
	changed := false

	for idx := range subs {
		sub := subs[idx]
		if !sub.IsLapsed(now) {
			continue
		}

		transitioned, err := r.store.ExpireSubscription(ctx, sub.ID)
		if err != nil {
			r.logger.Error("subscription sweep aborted",
				"error", err,
				"user_id", user.ID,
				"subscription_id", sub.ID,
			)
			return changed
		}

		changed = true
		subs[idx].PlanStatus = domain.StatusExpired

		// Another load already expired it and sent the notification.
		if !transitioned {
			continue
		}

		metrics.SubscriptionExpired()
		r.logger.Info("subscription expired",
			"user_id", user.ID,
			"subscription_id", sub.ID,
			"plan_id", sub.PlanID,
		)

		recipient := *user
		planName := sub.PlanName
		accepted := r.runner.Submit(func(ctx context.Context) {
			if _, err := r.NotifyLifecycle(ctx, &recipient, planName, domain.LifecycleExpired); err != nil {
				r.logger.Warn("expiry notification failed",
					"error", err,
					"user_id", recipient.ID,
					"plan_name", planName,
				)
			}
		})
		if !accepted {
			r.logger.Warn("expiry notification dropped",
				"user_id", user.ID,
				"subscription_id", sub.ID,
			)
		}
	}

	return changed
}

// NotifyLifecycle writes (and emails) the fixed notification for a
// subscription lifecycle event.
func (r *Reconciler) NotifyLifecycle(ctx context.Context, user *domain.User, planName string, event domain.LifecycleEvent) (*domain.Notification, error) {
	if user == nil {
		return nil, apperr.NotFound("recipient not found")
	}
	typ, ok := event.NotificationType()
	if !ok {
		return nil, apperr.Validation("invalid lifecycle event")
	}

	_, message := notify.DefaultContent(typ, planName)
	return r.notifier.Create(ctx, notify.CreateRequest{
		UserID:    user.ID,
		Type:      typ,
		Title:     event.Title(),
		Message:   message,
		SendEmail: true,
		PlanName:  planName,
		UserEmail: user.Email,
		UserName:  user.DisplayName(),
	})
}
