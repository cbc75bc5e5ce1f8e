// Package mailer sends transactional email through a pluggable transport.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Priya8975/football-predictions/internal/config"
)

// Message is a single outbound HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Result identifies an accepted message at the provider.
type Result struct {
	MessageID string
}

// Transport delivers one message. Implementations return an error carrying
// the provider's own message when the send is rejected.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) (Result, error)
}

// New builds the transport selected by MAIL_TRANSPORT.
func New(ctx context.Context, cfg config.MailConfig, logger *slog.Logger) (Transport, error) {
	switch cfg.Transport {
	case "log":
		return NewLogTransport(logger), nil
	case "http":
		return NewHTTPTransport(cfg.APIURL, cfg.APIKey, cfg.From, cfg.SendTimeout, logger), nil
	case "ses":
		return NewSESTransport(ctx, cfg.AWSRegion, cfg.From, logger)
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}
