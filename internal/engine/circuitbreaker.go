package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Circuit breaker states
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half-open"
)

// CircuitBreaker tracks the health of an outbound dependency (one per mail
// transport) in Redis so every instance shares the same view.
//
// - Closed: sends go through and failures are counted.
// - Open: sends fail fast until the cooldown elapses.
// - Half-Open: sends are let through; the next outcome closes or re-opens.
type CircuitBreaker struct {
	redisClient      *redis.Client
	logger           *slog.Logger
	failureThreshold int
	cooldownPeriod   time.Duration
	now              func() time.Time
}

// BreakerState is a snapshot of one circuit.
type BreakerState struct {
	State        string `json:"state"`
	Failures     int    `json:"failures"`
	LastFailedAt string `json:"last_failed_at,omitempty"`
}

func NewCircuitBreaker(redisClient *redis.Client, failureThreshold int, cooldown time.Duration, logger *slog.Logger) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		redisClient:      redisClient,
		logger:           logger,
		failureThreshold: failureThreshold,
		cooldownPeriod:   cooldown,
		now:              time.Now,
	}
}

func cbKey(name string) string {
	return fmt.Sprintf("cb:mail:%s", name)
}

func (cb *CircuitBreaker) cooledDown(lastFailedAt int64) bool {
	return cb.now().Unix()-lastFailedAt >= int64(cb.cooldownPeriod.Seconds())
}

// Allow reports whether a call through the named circuit may proceed.
// Redis errors fail open.
func (cb *CircuitBreaker) Allow(ctx context.Context, name string) (string, bool) {
	key := cbKey(name)

	data, err := cb.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		cb.logger.Error("circuit breaker read failed", "error", err, "circuit", name)
		return StateClosed, true
	}

	switch data["state"] {
	case StateOpen:
		lastFailedAt, _ := strconv.ParseInt(data["last_failed_at"], 10, 64)
		if !cb.cooledDown(lastFailedAt) {
			return StateOpen, false
		}
		cb.redisClient.HSet(ctx, key, "state", StateHalfOpen)
		cb.logger.Info("circuit breaker half-open", "circuit", name)
		return StateHalfOpen, true
	case StateHalfOpen:
		return StateHalfOpen, true
	default:
		return StateClosed, true
	}
}

// RecordSuccess closes the circuit and clears its failure count.
func (cb *CircuitBreaker) RecordSuccess(ctx context.Context, name string) {
	key := cbKey(name)

	prev, _ := cb.redisClient.HGet(ctx, key, "state").Result()
	if prev == "" || (prev == StateClosed && cb.failures(ctx, key) == 0) {
		return
	}

	cb.redisClient.HSet(ctx, key, "state", StateClosed, "failures", 0)
	if prev == StateHalfOpen {
		cb.logger.Info("circuit breaker closed (recovered)", "circuit", name)
	}
}

// RecordFailure counts a failure and opens the circuit once the threshold
// is reached, or immediately when a half-open probe fails.
func (cb *CircuitBreaker) RecordFailure(ctx context.Context, name string) {
	key := cbKey(name)

	var incr *redis.IntCmd
	var state *redis.StringCmd
	_, err := cb.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, "failures", 1)
		pipe.HSet(ctx, key, "last_failed_at", cb.now().Unix())
		state = pipe.HGet(ctx, key, "state")
		return nil
	})
	if err != nil && err != redis.Nil {
		cb.logger.Error("failed to record circuit breaker failure", "error", err, "circuit", name)
		return
	}

	failures := incr.Val()
	switch {
	case state.Val() == StateHalfOpen:
		cb.redisClient.HSet(ctx, key, "state", StateOpen)
		cb.logger.Warn("circuit breaker re-opened (half-open probe failed)", "circuit", name)
	case failures >= int64(cb.failureThreshold) && state.Val() != StateOpen:
		cb.redisClient.HSet(ctx, key, "state", StateOpen)
		cb.logger.Warn("circuit breaker opened",
			"circuit", name,
			"failures", failures,
			"threshold", cb.failureThreshold,
		)
	case state.Val() == "":
		cb.redisClient.HSet(ctx, key, "state", StateClosed)
	}
}

// State returns the current state of the named circuit.
func (cb *CircuitBreaker) State(ctx context.Context, name string) BreakerState {
	data, err := cb.redisClient.HGetAll(ctx, cbKey(name)).Result()
	if err != nil || len(data) == 0 {
		return BreakerState{State: StateClosed}
	}

	failures, _ := strconv.Atoi(data["failures"])
	lastFailedAt, _ := strconv.ParseInt(data["last_failed_at"], 10, 64)

	state := data["state"]
	if state == "" {
		state = StateClosed
	}
	if state == StateOpen && cb.cooledDown(lastFailedAt) {
		state = StateHalfOpen
	}

	result := BreakerState{State: state, Failures: failures}
	if lastFailedAt > 0 {
		result.LastFailedAt = time.Unix(lastFailedAt, 0).UTC().Format(time.RFC3339)
	}
	return result
}

func (cb *CircuitBreaker) failures(ctx context.Context, key string) int {
	n, _ := cb.redisClient.HGet(ctx, key, "failures").Int()
	return n
}
