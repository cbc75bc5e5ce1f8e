package notify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Priya8975/football-predictions/internal/apperr"
	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/Priya8975/football-predictions/internal/mailer"
	"github.com/Priya8975/football-predictions/internal/metrics"
)

// UserLookup resolves a recipient by user id. It returns nil, nil when the
// user does not exist.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Limiter admits or rejects a send for a key within a window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

// EmailRequest describes one templated email.
type EmailRequest struct {
	Type      domain.NotificationType
	UserID    string
	PlanName  string
	UserEmail string
	UserName  string
	Reason    string
}

type SendResult struct {
	MessageID string `json:"messageId"`
}

// RateLimit caps sends per recipient address.
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// Dispatcher renders notification emails and hands them to the transport.
type Dispatcher struct {
	transport mailer.Transport
	users     UserLookup
	limiter   Limiter
	rateLimit RateLimit
	siteURL   string
	logger    *slog.Logger
}

func NewDispatcher(transport mailer.Transport, users UserLookup, limiter Limiter, rateLimit RateLimit, siteURL string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		users:     users,
		limiter:   limiter,
		rateLimit: rateLimit,
		siteURL:   strings.TrimRight(siteURL, "/"),
		logger:    logger,
	}
}

// Send validates the request, resolves the recipient and sends one email.
func (d *Dispatcher) Send(ctx context.Context, req EmailRequest) (SendResult, error) {
	if _, ok := templates[req.Type]; !ok {
		return SendResult{}, apperr.Validation("invalid notification type")
	}
	if strings.TrimSpace(req.PlanName) == "" {
		return SendResult{}, apperr.Validation("plan name required")
	}

	to, name, err := d.resolveRecipient(ctx, req)
	if err != nil {
		return SendResult{}, err
	}

	if d.limiter != nil && !d.limiter.Allow(ctx, strings.ToLower(to), d.rateLimit.Limit, d.rateLimit.Window) {
		metrics.EmailSent(string(req.Type), "rate_limited")
		return SendResult{}, apperr.Upstream("email rate limit exceeded", nil)
	}

	subject, html, err := render(req.Type, emailData{
		UserName: name,
		PlanName: req.PlanName,
		Reason:   req.Reason,
		SiteURL:  d.siteURL,
	})
	if err != nil {
		return SendResult{}, apperr.Upstream("rendering email", err)
	}

	res, err := d.transport.Send(ctx, mailer.Message{To: to, Subject: subject, HTML: html})
	if err != nil {
		metrics.EmailSent(string(req.Type), "failed")
		return SendResult{}, apperr.Upstream("sending email", err)
	}

	metrics.EmailSent(string(req.Type), "sent")
	d.logger.Info("email sent",
		"type", req.Type,
		"user_id", req.UserID,
		"message_id", res.MessageID,
		"transport", d.transport.Name(),
	)

	return SendResult{MessageID: res.MessageID}, nil
}

func (d *Dispatcher) resolveRecipient(ctx context.Context, req EmailRequest) (string, string, error) {
	if req.UserEmail != "" {
		name := req.UserName
		if name == "" {
			name = req.UserEmail
		}
		return req.UserEmail, name, nil
	}

	if req.UserID == "" {
		return "", "", apperr.NotFound("recipient not found")
	}

	user, err := d.users.GetUser(ctx, req.UserID)
	if err != nil {
		return "", "", apperr.Upstream("looking up recipient", err)
	}
	if user == nil || user.Email == "" {
		return "", "", apperr.NotFound("recipient not found")
	}

	name := req.UserName
	if name == "" {
		name = user.DisplayName()
	}
	return user.Email, name, nil
}
