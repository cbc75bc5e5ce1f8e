package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priya8975/football-predictions/internal/apperr"
	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/Priya8975/football-predictions/internal/testutil"
)

type stubSender struct {
	err  error
	reqs []EmailRequest
}

func (s *stubSender) Send(_ context.Context, req EmailRequest) (SendResult, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return SendResult{}, s.err
	}
	return SendResult{MessageID: "m-1"}, nil
}

func TestWriter_CreatesUnreadNotification(t *testing.T) {
	store := testutil.NewMemStore()
	feed := &testutil.FakeFeed{}
	sender := &stubSender{}
	w := NewWriter(store, sender, feed, testutil.Logger())

	n, err := w.Create(context.Background(), CreateRequest{
		UserID:    "u-1",
		Type:      domain.NotifyPredictionDropped,
		Title:     "New Prediction Available",
		Message:   "A new VIP prediction is available.",
		SendEmail: true,
		PlanName:  "VIP",
		UserEmail: "a@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.Read)

	rows := store.NotificationsFor("u-1")
	require.Len(t, rows, 1)
	assert.Equal(t, domain.NotifyPredictionDropped, rows[0].Type)

	require.Len(t, sender.reqs, 1)
	assert.Equal(t, "VIP", sender.reqs[0].PlanName)
	assert.Equal(t, "a@example.com", sender.reqs[0].UserEmail)
	assert.Equal(t, []string{"u-1"}, feed.Published())
}

func TestWriter_SkipsEmailWhenNotRequested(t *testing.T) {
	sender := &stubSender{}
	w := NewWriter(testutil.NewMemStore(), sender, nil, testutil.Logger())

	_, err := w.Create(context.Background(), CreateRequest{
		UserID: "u-1",
		Type:   domain.NotifySubscriptionConfirmed,
		Title:  "Subscription Confirmed",
	})
	require.NoError(t, err)
	assert.Empty(t, sender.reqs)
}

func TestWriter_StoreFailureReturnsNoNotification(t *testing.T) {
	store := testutil.NewMemStore()
	store.FailNotificationsFor["u-1"] = true
	sender := &stubSender{}
	w := NewWriter(store, sender, nil, testutil.Logger())

	n, err := w.Create(context.Background(), CreateRequest{
		UserID:    "u-1",
		Type:      domain.NotifyPredictionDropped,
		SendEmail: true,
		PlanName:  "VIP",
	})
	require.Error(t, err)
	assert.Nil(t, n)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.Empty(t, sender.reqs, "no email without a notification row")
}

func TestWriter_EmailFailurePolicy(t *testing.T) {
	req := CreateRequest{
		UserID:    "u-1",
		Type:      domain.NotifyPaymentApproved,
		SendEmail: true,
		PlanName:  "VIP",
	}

	t.Run("log only", func(t *testing.T) {
		store := testutil.NewMemStore()
		w := NewWriter(store, &stubSender{err: errors.New("smtp down")}, nil, testutil.Logger())
		assert.Equal(t, LogOnly, w.OnEmailFailure)

		n, err := w.Create(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, n)
		assert.Len(t, store.NotificationsFor("u-1"), 1)
	})

	t.Run("propagate", func(t *testing.T) {
		store := testutil.NewMemStore()
		w := NewWriter(store, &stubSender{err: errors.New("smtp down")}, nil, testutil.Logger())
		w.OnEmailFailure = Propagate

		n, err := w.Create(context.Background(), req)
		require.Error(t, err)
		require.NotNil(t, n, "the notification is still returned")
		assert.Len(t, store.NotificationsFor("u-1"), 1)
	})
}

func TestWriter_RejectsInvalidInput(t *testing.T) {
	store := testutil.NewMemStore()
	w := NewWriter(store, nil, nil, testutil.Logger())

	_, err := w.Create(context.Background(), CreateRequest{Type: domain.NotifyPredictionDropped})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = w.Create(context.Background(), CreateRequest{UserID: "u-1", Type: "digest"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.Zero(t, store.Writes())
}

func TestWriter_FeedFailureIsIgnored(t *testing.T) {
	w := NewWriter(testutil.NewMemStore(), nil, &testutil.FakeFeed{Err: errors.New("redis down")}, testutil.Logger())

	n, err := w.Create(context.Background(), CreateRequest{UserID: "u-1", Type: domain.NotifySubscriptionRemoved})
	require.NoError(t, err)
	assert.NotNil(t, n)
}
