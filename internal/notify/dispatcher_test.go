package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priya8975/football-predictions/internal/apperr"
	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/Priya8975/football-predictions/internal/testutil"
)

type limiterFunc func(key string) bool

func (f limiterFunc) Allow(_ context.Context, key string, _ int, _ time.Duration) bool {
	return f(key)
}

func newTestDispatcher(store *testutil.MemStore, tr *testutil.FakeTransport) *Dispatcher {
	return NewDispatcher(tr, store, nil, RateLimit{}, "https://tips.example.com/", testutil.Logger())
}

func TestDispatcher_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  EmailRequest
		msg  string
	}{
		{"unknown type", EmailRequest{Type: "weekly_digest", PlanName: "VIP", UserEmail: "a@example.com"}, "invalid notification type"},
		{"missing plan name", EmailRequest{Type: domain.NotifyPredictionDropped, UserEmail: "a@example.com"}, "plan name required"},
		{"blank plan name", EmailRequest{Type: domain.NotifyPaymentApproved, PlanName: "  ", UserEmail: "a@example.com"}, "plan name required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := testutil.NewFakeTransport()
			d := newTestDispatcher(testutil.NewMemStore(), tr)

			_, err := d.Send(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Equal(t, tt.msg, apperr.PublicMessage(err))
			assert.Zero(t, tr.Calls())
		})
	}
}

func TestDispatcher_RecipientNotFound(t *testing.T) {
	tr := testutil.NewFakeTransport()
	d := newTestDispatcher(testutil.NewMemStore(), tr)

	_, err := d.Send(context.Background(), EmailRequest{
		Type:     domain.NotifySubscriptionExpired,
		UserID:   "missing-user",
		PlanName: "VIP",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "recipient not found", apperr.PublicMessage(err))
	assert.Zero(t, tr.Calls())
}

func TestDispatcher_ResolvesRecipientByUserID(t *testing.T) {
	store := testutil.NewMemStore()
	user := store.AddUser(domain.User{Email: "ola@example.com", FullName: "Ola"})
	tr := testutil.NewFakeTransport()
	d := newTestDispatcher(store, tr)

	res, err := d.Send(context.Background(), EmailRequest{
		Type:     domain.NotifyPredictionDropped,
		UserID:   user.ID,
		PlanName: "VIP",
	})
	require.NoError(t, err)
	assert.Equal(t, "fake-1", res.MessageID)

	sent := tr.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ola@example.com", sent[0].To)
	assert.Equal(t, "New VIP prediction is live", sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "Hi Ola")
	assert.Contains(t, sent[0].HTML, "https://tips.example.com/dashboard")
}

func TestDispatcher_ExplicitAddressSkipsLookup(t *testing.T) {
	store := testutil.NewMemStore()
	store.GetUserErr = errors.New("db down")
	tr := testutil.NewFakeTransport()
	d := newTestDispatcher(store, tr)

	_, err := d.Send(context.Background(), EmailRequest{
		Type:      domain.NotifySubscriptionConfirmed,
		UserID:    "u-1",
		UserEmail: "direct@example.com",
		PlanName:  "Correct Score",
	})
	require.NoError(t, err)
	assert.Equal(t, "direct@example.com", tr.Sent()[0].To)
}

func TestDispatcher_PaymentRejectedIncludesReason(t *testing.T) {
	tr := testutil.NewFakeTransport()
	d := newTestDispatcher(testutil.NewMemStore(), tr)

	_, err := d.Send(context.Background(), EmailRequest{
		Type:      domain.NotifyPaymentRejected,
		UserEmail: "a@example.com",
		PlanName:  "VIP",
		Reason:    "receipt unreadable",
	})
	require.NoError(t, err)
	assert.Contains(t, tr.Sent()[0].HTML, "Reason: receipt unreadable")
}

func TestDispatcher_TemplatesEscapeInput(t *testing.T) {
	tr := testutil.NewFakeTransport()
	d := newTestDispatcher(testutil.NewMemStore(), tr)

	_, err := d.Send(context.Background(), EmailRequest{
		Type:      domain.NotifyPredictionDropped,
		UserEmail: "a@example.com",
		UserName:  "<script>x</script>",
		PlanName:  "VIP",
	})
	require.NoError(t, err)
	assert.NotContains(t, tr.Sent()[0].HTML, "<script>")
}

func TestDispatcher_EveryTypeHasATemplate(t *testing.T) {
	for _, typ := range domain.NotificationTypes() {
		subject, html, err := render(typ, emailData{UserName: "A", PlanName: "VIP"})
		require.NoError(t, err, typ)
		assert.Contains(t, subject, "VIP", typ)
		assert.Contains(t, html, "VIP", typ)
	}
}

func TestDispatcher_TransportFailureCarriesMessage(t *testing.T) {
	tr := testutil.NewFakeTransport()
	tr.Err = errors.New("mailbox unavailable")
	d := newTestDispatcher(testutil.NewMemStore(), tr)

	_, err := d.Send(context.Background(), EmailRequest{
		Type:      domain.NotifyPaymentApproved,
		UserEmail: "a@example.com",
		PlanName:  "VIP",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Contains(t, apperr.PublicMessage(err), "mailbox unavailable")
}

func TestDispatcher_RateLimitedPerRecipient(t *testing.T) {
	tr := testutil.NewFakeTransport()
	var keys []string
	limiter := limiterFunc(func(key string) bool {
		keys = append(keys, key)
		return key != "blocked@example.com"
	})
	d := NewDispatcher(tr, testutil.NewMemStore(), limiter, RateLimit{Limit: 1, Window: time.Minute}, "", testutil.Logger())

	_, err := d.Send(context.Background(), EmailRequest{
		Type:      domain.NotifyPredictionDropped,
		UserEmail: "Blocked@Example.com",
		PlanName:  "VIP",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, []string{"blocked@example.com"}, keys)
	assert.Zero(t, tr.Calls())
}
