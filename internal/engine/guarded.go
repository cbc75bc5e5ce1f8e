package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Priya8975/football-predictions/internal/mailer"
)

// ErrCircuitOpen is returned while the mail transport's circuit is open.
var ErrCircuitOpen = errors.New("mail transport unavailable: circuit open")

// GuardedTransport wraps a mail transport with a shared circuit breaker.
type GuardedTransport struct {
	next    mailer.Transport
	breaker *CircuitBreaker
	logger  *slog.Logger
}

func NewGuardedTransport(next mailer.Transport, breaker *CircuitBreaker, logger *slog.Logger) *GuardedTransport {
	return &GuardedTransport{next: next, breaker: breaker, logger: logger}
}

func (g *GuardedTransport) Name() string { return g.next.Name() }

func (g *GuardedTransport) Send(ctx context.Context, msg mailer.Message) (mailer.Result, error) {
	name := g.next.Name()

	if _, allowed := g.breaker.Allow(ctx, name); !allowed {
		g.logger.Warn("email skipped, circuit open", "transport", name)
		return mailer.Result{}, ErrCircuitOpen
	}

	res, err := g.next.Send(ctx, msg)
	if err != nil {
		g.breaker.RecordFailure(ctx, name)
		return mailer.Result{}, err
	}

	g.breaker.RecordSuccess(ctx, name)
	return res, nil
}
