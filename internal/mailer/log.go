package mailer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogTransport writes messages to the logger instead of sending them.
// Used in development when no provider is configured.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Name() string { return "log" }

func (t *LogTransport) Send(_ context.Context, msg Message) (Result, error) {
	id := uuid.NewString()
	t.logger.Info("email logged",
		"message_id", id,
		"to", msg.To,
		"subject", msg.Subject,
	)
	return Result{MessageID: id}, nil
}
