package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/Priya8975/football-predictions/internal/mailer"
)

// Logger returns an error-level JSON logger for tests.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// FakeTransport records messages instead of sending them.
type FakeTransport struct {
	mu    sync.Mutex
	sent  []mailer.Message
	calls int

	// Err, when set, is returned from every Send.
	Err error
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

func (f *FakeTransport) Name() string { return "fake" }

func (f *FakeTransport) Send(_ context.Context, msg mailer.Message) (mailer.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return mailer.Result{}, f.Err
	}
	f.sent = append(f.sent, msg)
	return mailer.Result{MessageID: fmt.Sprintf("fake-%d", len(f.sent))}, nil
}

func (f *FakeTransport) Sent() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.sent...)
}

func (f *FakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeFeed records unread-change announcements.
type FakeFeed struct {
	mu        sync.Mutex
	published []string

	Err error
}

func (f *FakeFeed) PublishUnread(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.published = append(f.published, userID)
	return nil
}

func (f *FakeFeed) Published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}

// SyncRunner runs submitted tasks inline so tests observe their effects
// before the call returns.
type SyncRunner struct {
	mu    sync.Mutex
	tasks int

	// Full makes Submit drop every task, like a saturated pool.
	Full bool
}

func (r *SyncRunner) Submit(task func(ctx context.Context)) bool {
	r.mu.Lock()
	if r.Full {
		r.mu.Unlock()
		return false
	}
	r.tasks++
	r.mu.Unlock()
	task(context.Background())
	return true
}

func (r *SyncRunner) Tasks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks
}
