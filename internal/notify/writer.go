package notify

import (
	"context"
	"log/slog"

	"github.com/Priya8975/football-predictions/internal/apperr"
	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/Priya8975/football-predictions/internal/metrics"
)

// NotificationStore persists notification rows.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
}

// EmailSender is the part of the Dispatcher the writer depends on.
type EmailSender interface {
	Send(ctx context.Context, req EmailRequest) (SendResult, error)
}

// UnreadPublisher announces that a user's unread count changed.
type UnreadPublisher interface {
	PublishUnread(ctx context.Context, userID string) error
}

// CreateRequest describes one notification for one recipient.
type CreateRequest struct {
	UserID    string
	Type      domain.NotificationType
	Title     string
	Message   string
	SendEmail bool
	PlanName  string
	UserEmail string
	UserName  string
	Reason    string
}

// Writer creates in-app notifications and, optionally, the matching email.
type Writer struct {
	store  NotificationStore
	email  EmailSender
	feed   UnreadPublisher
	logger *slog.Logger

	// OnEmailFailure controls whether a failed email is returned to the caller.
	OnEmailFailure Policy
}

func NewWriter(store NotificationStore, email EmailSender, feed UnreadPublisher, logger *slog.Logger) *Writer {
	return &Writer{
		store:          store,
		email:          email,
		feed:           feed,
		logger:         logger,
		OnEmailFailure: LogOnly,
	}
}

// Create writes the notification row. The row is the authoritative result:
// under Propagate an email failure is returned together with the created
// notification, under LogOnly it is only logged.
func (w *Writer) Create(ctx context.Context, req CreateRequest) (*domain.Notification, error) {
	if req.UserID == "" {
		return nil, apperr.Validation("user id required")
	}
	if !req.Type.IsValid() {
		return nil, apperr.Validation("invalid notification type")
	}

	n := &domain.Notification{
		UserID:  req.UserID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
	}
	if err := w.store.CreateNotification(ctx, n); err != nil {
		w.logger.Error("failed to create notification",
			"error", err,
			"user_id", req.UserID,
			"type", req.Type,
		)
		return nil, apperr.Upstream("creating notification", err)
	}
	metrics.NotificationCreated(string(req.Type))

	if w.feed != nil {
		if err := w.feed.PublishUnread(ctx, req.UserID); err != nil {
			w.logger.Warn("failed to publish unread change", "error", err, "user_id", req.UserID)
		}
	}

	if !req.SendEmail || w.email == nil {
		return n, nil
	}

	_, err := w.email.Send(ctx, EmailRequest{
		Type:      req.Type,
		UserID:    req.UserID,
		PlanName:  req.PlanName,
		UserEmail: req.UserEmail,
		UserName:  req.UserName,
		Reason:    req.Reason,
	})
	if err != nil {
		w.logger.Warn("notification email failed",
			"error", err,
			"user_id", req.UserID,
			"type", req.Type,
			"notification_id", n.ID,
		)
		if w.OnEmailFailure == Propagate {
			return n, err
		}
	}

	return n, nil
}
