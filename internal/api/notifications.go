package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Priya8975/football-predictions/internal/auth"
	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/Priya8975/football-predictions/internal/engine"
	"github.com/Priya8975/football-predictions/internal/notify"
)

// NotificationStore is the recipient-facing side of the notifications table.
type NotificationStore interface {
	ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, id, userID string) (bool, error)
}

// UserLookup returns nil, nil for an unknown user.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

type NotificationCreator interface {
	Create(ctx context.Context, req notify.CreateRequest) (*domain.Notification, error)
}

type LifecycleNotifier interface {
	NotifyLifecycle(ctx context.Context, user *domain.User, planName string, event domain.LifecycleEvent) (*domain.Notification, error)
}

type PlanTypeNotifier interface {
	NotifyPlanType(ctx context.Context, planType string) (engine.FanOutResult, error)
}

type NotificationHandler struct {
	store     NotificationStore
	users     UserLookup
	writer    NotificationCreator
	lifecycle LifecycleNotifier
	fanout    PlanTypeNotifier
	email     notify.EmailSender
	feed      notify.UnreadPublisher
	validator *requestValidator
	logger    *slog.Logger
}

func NewNotificationHandler(
	store NotificationStore,
	users UserLookup,
	writer NotificationCreator,
	lifecycle LifecycleNotifier,
	fanout PlanTypeNotifier,
	email notify.EmailSender,
	feed notify.UnreadPublisher,
	logger *slog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		store:     store,
		users:     users,
		writer:    writer,
		lifecycle: lifecycle,
		fanout:    fanout,
		email:     email,
		feed:      feed,
		validator: newRequestValidator(),
		logger:    logger,
	}
}

type createNotificationRequest struct {
	Type      string `json:"type" validate:"required_without=Event"`
	UserID    string `json:"userId"`
	PlanName  string `json:"planName" validate:"required"`
	UserEmail string `json:"userEmail" validate:"omitempty,email"`
	UserName  string `json:"userName"`
	Event     string `json:"event" validate:"omitempty,oneof=confirmed expired removed"`
	Reason    string `json:"reason"`
	Title     string `json:"title"`
	Message   string `json:"message"`
}

type createNotificationResponse struct {
	Success      bool                 `json:"success"`
	Notification *domain.Notification `json:"notification"`
	EmailError   string               `json:"emailError,omitempty"`
}

// Create writes one notification for the caller or, for admins, any user.
// With an event it sends the fixed subscription lifecycle notification.
// Only admins may redirect the email with userEmail and userName; for
// everyone else the recipient's own address is used.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFrom(r.Context())

	var req createNotificationRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	targetID := req.UserID
	if targetID == "" {
		targetID = caller.ID
	}
	if targetID != caller.ID && !caller.IsAdmin {
		respondError(w, http.StatusForbidden, "cannot notify other users")
		return
	}

	recipient, ok := h.recipient(w, r, caller, targetID)
	if !ok {
		return
	}
	if caller.IsAdmin {
		recipient = withContact(recipient, req.UserEmail, req.UserName)
	}

	var (
		n   *domain.Notification
		err error
	)
	if req.Event != "" {
		n, err = h.lifecycle.NotifyLifecycle(r.Context(), recipient, req.PlanName, domain.LifecycleEvent(req.Event))
	} else {
		n, err = h.createTyped(r.Context(), recipient, req)
	}
	if n == nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	resp := createNotificationResponse{Success: true, Notification: n}
	if err != nil {
		resp.EmailError = err.Error()
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *NotificationHandler) recipient(w http.ResponseWriter, r *http.Request, caller *domain.User, targetID string) (*domain.User, bool) {
	if targetID == caller.ID {
		return caller, true
	}
	user, err := h.users.GetUser(r.Context(), targetID)
	if err != nil {
		h.logger.Error("failed to look up recipient", "error", err, "user_id", targetID)
		respondError(w, http.StatusInternalServerError, "failed to look up recipient")
		return nil, false
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "recipient not found")
		return nil, false
	}
	return user, true
}

// withContact returns a copy of user with the given address and name
// applied where they are set.
func withContact(user *domain.User, email, name string) *domain.User {
	contact := *user
	if email != "" {
		contact.Email = email
	}
	if name != "" {
		contact.FullName = name
	}
	return &contact
}

func (h *NotificationHandler) createTyped(ctx context.Context, recipient *domain.User, req createNotificationRequest) (*domain.Notification, error) {
	typ := domain.NotificationType(req.Type)
	title, message := notify.DefaultContent(typ, req.PlanName)
	if req.Title != "" {
		title = req.Title
	}
	if req.Message != "" {
		message = req.Message
	} else if typ == domain.NotifyPaymentRejected && req.Reason != "" {
		message += " Reason: " + req.Reason
	}

	return h.writer.Create(ctx, notify.CreateRequest{
		UserID:    recipient.ID,
		Type:      typ,
		Title:     title,
		Message:   message,
		SendEmail: true,
		PlanName:  req.PlanName,
		UserEmail: recipient.Email,
		UserName:  recipient.DisplayName(),
		Reason:    req.Reason,
	})
}

type notifyPredictionUpdateRequest struct {
	PlanType string `json:"planType" validate:"required"`
}

// NotifyPredictionUpdate fans a prediction_dropped notification out to the
// active subscribers of a plan type.
func (h *NotificationHandler) NotifyPredictionUpdate(w http.ResponseWriter, r *http.Request) {
	var req notifyPredictionUpdateRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	result, err := h.fanout.NotifyPlanType(r.Context(), req.PlanType)
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"notified": result.Notified,
		"failed":   result.Failed,
	})
}

type sendEmailRequest struct {
	Type      string `json:"type" validate:"required"`
	UserID    string `json:"userId"`
	PlanName  string `json:"planName"`
	UserEmail string `json:"userEmail" validate:"omitempty,email"`
	UserName  string `json:"userName"`
	Reason    string `json:"reason"`
}

// SendEmail sends one templated email without writing a notification row.
func (h *NotificationHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	result, err := h.email.Send(r.Context(), notify.EmailRequest{
		Type:      domain.NotificationType(req.Type),
		UserID:    req.UserID,
		PlanName:  req.PlanName,
		UserEmail: req.UserEmail,
		UserName:  req.UserName,
		Reason:    req.Reason,
	})
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"messageId": result.MessageID,
	})
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	notifications, err := h.store.ListNotifications(r.Context(), user.ID, limit)
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	count, err := h.store.CountUnread(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to count unread notifications", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to count notifications")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	id := chi.URLParam(r, "id")

	ok, err := h.store.MarkRead(r.Context(), id, user.ID)
	if err != nil {
		h.logger.Error("failed to mark notification read", "error", err, "notification_id", id)
		respondError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "notification not found")
		return
	}

	h.publish(r.Context(), user.ID)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	updated, err := h.store.MarkAllRead(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to mark notifications read", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to update notifications")
		return
	}

	if updated > 0 {
		h.publish(r.Context(), user.ID)
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "updated": updated})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	id := chi.URLParam(r, "id")

	ok, err := h.store.DeleteNotification(r.Context(), id, user.ID)
	if err != nil {
		h.logger.Error("failed to delete notification", "error", err, "notification_id", id)
		respondError(w, http.StatusInternalServerError, "failed to delete notification")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "notification not found")
		return
	}

	h.publish(r.Context(), user.ID)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *NotificationHandler) publish(ctx context.Context, userID string) {
	if h.feed == nil {
		return
	}
	if err := h.feed.PublishUnread(ctx, userID); err != nil {
		h.logger.Warn("failed to publish unread change", "error", err, "user_id", userID)
	}
}
