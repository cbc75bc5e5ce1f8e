package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priya8975/football-predictions/internal/auth"
	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/Priya8975/football-predictions/internal/engine"
	"github.com/Priya8975/football-predictions/internal/notify"
	"github.com/Priya8975/football-predictions/internal/store"
	"github.com/Priya8975/football-predictions/internal/testutil"
)

const testSecret = "api-test-secret"

type fakeStats struct {
	metrics *store.SiteMetrics
	err     error
}

func (f *fakeStats) GetSiteMetrics(context.Context) (*store.SiteMetrics, error) {
	return f.metrics, f.err
}

type fakeClients struct{ n int }

func (f fakeClients) ServeUser(w http.ResponseWriter, _ *http.Request, _ string) {
	w.WriteHeader(http.StatusNoContent)
}

func (f fakeClients) ClientCount() int { return f.n }

type apiHarness struct {
	store     *testutil.MemStore
	transport *testutil.FakeTransport
	feed      *testutil.FakeFeed
	runner    *testutil.SyncRunner
	stats     *fakeStats
	handler   http.Handler

	admin *domain.User
	fan   *domain.User
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	s := testutil.NewMemStore()
	logger := testutil.Logger()
	transport := testutil.NewFakeTransport()
	feed := &testutil.FakeFeed{}
	runner := &testutil.SyncRunner{}
	stats := &fakeStats{metrics: &store.SiteMetrics{TotalUsers: 2, ActiveSubscriptions: 1}}

	dispatcher := notify.NewDispatcher(transport, s, nil, notify.RateLimit{}, "https://tips.example.com", logger)
	writer := notify.NewWriter(s, dispatcher, feed, logger)
	fanout := engine.NewFanOutEngine(s, writer, logger)

	h := &apiHarness{
		store:     s,
		transport: transport,
		feed:      feed,
		runner:    runner,
		stats:     stats,
		admin:     s.AddUser(domain.User{ID: "admin-1", Email: "admin@example.com", FullName: "Admin", IsAdmin: true}),
		fan:       s.AddUser(domain.User{ID: "fan-1", Email: "fan@example.com", FullName: "Ada"}),
	}
	h.handler = NewRouter(Services{
		Auth:          auth.NewAuthenticator(testSecret, s),
		Ingestor:      engine.NewIngestor(s, fanout, logger),
		FanOut:        fanout,
		Reconciler:    engine.NewReconciler(s, writer, runner, logger),
		Writer:        writer,
		Email:         dispatcher,
		Avatars:       engine.NewAvatarAssigner(s, logger),
		Users:         s,
		Notifications: s,
		Stats:         stats,
		Feed:          feed,
		MailTransport: transport.Name(),
		Hub:           fakeClients{n: 3},
		Version:       "test",
		Logger:        logger,
	})
	return h
}

func (h *apiHarness) do(t *testing.T, user *domain.User, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := auth.MintToken(user.ID, user.Email, testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, nil, http.MethodGet, "/api/v1/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestAuth_InvalidTokenRejected(t *testing.T) {
	h := newAPIHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_UnknownSubjectRejected(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, &domain.User{ID: "ghost"}, http.MethodGet, "/api/notifications", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInsertPredictions_RequiresAdmin(t *testing.T) {
	h := newAPIHarness(t)
	body := map[string]any{"predictions": []map[string]any{{"plan_type": "standard", "home_team": "A", "away_team": "B"}}}

	rec := h.do(t, nil, http.MethodPost, "/api/football/insert-predictions", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, h.fan, http.MethodPost, "/api/football/insert-predictions", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin access required", decodeBody(t, rec)["error"])

	assert.Zero(t, h.store.Writes())
	assert.Empty(t, h.store.Predictions)
	assert.Zero(t, h.transport.Calls())
}

func TestInsertPredictions_SyncsAndNotifiesSubscribers(t *testing.T) {
	h := newAPIHarness(t)
	plan := h.store.AddPlan(domain.Plan{Name: "Standard", Slug: "standard"})
	h.store.AddSubscription(domain.Subscription{UserID: h.fan.ID, PlanID: plan.ID, PlanStatus: domain.StatusActive})

	rec := h.do(t, h.admin, http.MethodPost, "/api/football/insert-predictions", map[string]any{
		"predictions": []map[string]any{
			{"plan_type": "standard", "home_team": "Arsenal", "away_team": "Chelsea", "odds": "1.85"},
			{"plan_type": "standard", "home_team": "Inter", "away_team": "Milan", "odds": 2.1},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Successfully synced 2 predictions", body["message"])
	assert.EqualValues(t, 2, body["synced"])

	notes := h.store.NotificationsFor(h.fan.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotifyPredictionDropped, notes[0].Type)
	assert.Equal(t, 1, h.transport.Calls())
}

func TestInsertPredictions_EmptyBatch(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, h.admin, http.MethodPost, "/api/football/insert-predictions", map[string]any{"predictions": []any{}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "predictions array required", decodeBody(t, rec)["error"])
}

func TestInsertPredictions_StoreFailure(t *testing.T) {
	h := newAPIHarness(t)
	h.store.InsertPredictionsErr = testutil.ErrInjected

	rec := h.do(t, h.admin, http.MethodPost, "/api/football/insert-predictions", map[string]any{
		"predictions": []map[string]any{{"plan_type": "free"}},
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], testutil.ErrInjected.Error())
}

func TestCreateNotification_ForSelf(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, h.fan, http.MethodPost, "/api/notifications/create", map[string]any{
		"type":     "payment_approved",
		"planName": "VIP",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	notification := body["notification"].(map[string]any)
	assert.Equal(t, "Payment Approved", notification["title"])
	assert.Equal(t, false, notification["read"])

	require.Len(t, h.transport.Sent(), 1)
	assert.Equal(t, "fan@example.com", h.transport.Sent()[0].To)
	assert.Equal(t, []string{h.fan.ID}, h.feed.Published())
}

func TestCreateNotification_UserCannotRedirectEmail(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, h.fan, http.MethodPost, "/api/notifications/create", map[string]any{
		"type":      "payment_approved",
		"planName":  "VIP",
		"userEmail": "victim@elsewhere.test",
		"userName":  "Someone Else",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sent := h.transport.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "fan@example.com", sent[0].To)
	assert.NotContains(t, sent[0].HTML, "Someone Else")
}

func TestCreateNotification_AdminContactOverrideAppliesToBothPaths(t *testing.T) {
	h := newAPIHarness(t)

	for _, body := range []map[string]any{
		{"userId": h.fan.ID, "type": "payment_approved", "planName": "VIP", "userEmail": "billing@example.com", "userName": "Billing Desk"},
		{"userId": h.fan.ID, "event": "confirmed", "planName": "VIP", "userEmail": "billing@example.com", "userName": "Billing Desk"},
	} {
		rec := h.do(t, h.admin, http.MethodPost, "/api/notifications/create", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	sent := h.transport.Sent()
	require.Len(t, sent, 2)
	for _, msg := range sent {
		assert.Equal(t, "billing@example.com", msg.To)
		assert.Contains(t, msg.HTML, "Billing Desk")
	}
	assert.Len(t, h.store.NotificationsFor(h.fan.ID), 2)
}

func TestCreateNotification_OtherUserNeedsAdmin(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, h.fan, http.MethodPost, "/api/notifications/create", map[string]any{
		"type":     "payment_approved",
		"planName": "VIP",
		"userId":   h.admin.ID,
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, h.store.Writes())
	assert.Zero(t, h.transport.Calls())
}

func TestCreateNotification_AdminLifecycleEvent(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, h.admin, http.MethodPost, "/api/notifications/create", map[string]any{
		"userId":   h.fan.ID,
		"planName": "Correct Score",
		"event":    "confirmed",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	notes := h.store.NotificationsFor(h.fan.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotifySubscriptionConfirmed, notes[0].Type)
	assert.Equal(t, "Subscription Confirmed", notes[0].Title)
	assert.Contains(t, notes[0].Message, "Correct Score")
}

func TestCreateNotification_RejectedPaymentCarriesReason(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, h.admin, http.MethodPost, "/api/notifications/create", map[string]any{
		"userId":   h.fan.ID,
		"type":     "payment_rejected",
		"planName": "VIP",
		"reason":   "receipt unreadable",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	notes := h.store.NotificationsFor(h.fan.ID)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "receipt unreadable")
	assert.Contains(t, h.transport.Sent()[0].HTML, "receipt unreadable")
}

func TestCreateNotification_Validation(t *testing.T) {
	h := newAPIHarness(t)

	cases := []struct {
		name string
		body map[string]any
		want string
	}{
		{"unknown type", map[string]any{"type": "bogus", "planName": "VIP"}, "invalid notification type"},
		{"missing plan", map[string]any{"type": "payment_approved"}, "planName is required"},
		{"missing type and event", map[string]any{"planName": "VIP"}, "type is required"},
		{"bad event", map[string]any{"planName": "VIP", "event": "paused"}, "event must be one of [confirmed expired removed]"},
		{"bad email", map[string]any{"type": "payment_approved", "planName": "VIP", "userEmail": "nope"}, "userEmail must be a valid email address"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(t, h.fan, http.MethodPost, "/api/notifications/create", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.want, decodeBody(t, rec)["error"])
		})
	}
	assert.Zero(t, h.store.Writes())
}

func TestCreateNotification_UnknownRecipient(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, h.admin, http.MethodPost, "/api/notifications/create", map[string]any{
		"userId":   "nobody",
		"type":     "payment_approved",
		"planName": "VIP",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotifyPredictionUpdate(t *testing.T) {
	h := newAPIHarness(t)
	plan := h.store.AddPlan(domain.Plan{Name: "Daily 2 Odds", Slug: "daily-2-odds"})
	for _, id := range []string{"u1", "u2", "u3"} {
		u := h.store.AddUser(domain.User{ID: id, Email: id + "@example.com"})
		h.store.AddSubscription(domain.Subscription{UserID: u.ID, PlanID: plan.ID, PlanStatus: domain.StatusActive})
	}
	h.store.FailNotificationsFor["u2"] = true

	rec := h.do(t, h.admin, http.MethodPost, "/api/notifications/notify-prediction-update", map[string]any{"planType": "daily_2_odds"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["notified"])
	assert.EqualValues(t, 1, body["failed"])
}

func TestAdminNotificationRoutes_RejectNonAdmin(t *testing.T) {
	h := newAPIHarness(t)
	plan := h.store.AddPlan(domain.Plan{Name: "Standard", Slug: "standard"})
	h.store.AddSubscription(domain.Subscription{UserID: h.fan.ID, PlanID: plan.ID, PlanStatus: domain.StatusActive})

	cases := map[string]map[string]any{
		"/api/notifications/notify-prediction-update": {"planType": "standard"},
		"/api/notifications/send-email":               {"type": "payment_approved", "userId": h.fan.ID, "planName": "VIP"},
	}
	for path, body := range cases {
		rec := h.do(t, h.fan, http.MethodPost, path, body)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)

		rec = h.do(t, nil, http.MethodPost, path, body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	assert.Zero(t, h.store.Writes())
	assert.Zero(t, h.transport.Calls())
}

func TestNotifyPredictionUpdate_MissingPlanType(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, h.admin, http.MethodPost, "/api/notifications/notify-prediction-update", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "planType is required", decodeBody(t, rec)["error"])
}

func TestSendEmail(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, h.admin, http.MethodPost, "/api/notifications/send-email", map[string]any{
		"type":     "subscription_expired",
		"userId":   h.fan.ID,
		"planName": "VIP",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "fake-1", body["messageId"])
	assert.Empty(t, h.store.NotificationsFor(h.fan.ID))
}

func TestSendEmail_Errors(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, h.admin, http.MethodPost, "/api/notifications/send-email", map[string]any{
		"type": "payment_approved", "userId": h.fan.ID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "plan name required", decodeBody(t, rec)["error"])

	rec = h.do(t, h.admin, http.MethodPost, "/api/notifications/send-email", map[string]any{
		"type": "payment_approved", "userId": "nobody", "planName": "VIP",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "recipient not found", decodeBody(t, rec)["error"])

	h.transport.Err = assert.AnError
	rec = h.do(t, h.admin, http.MethodPost, "/api/notifications/send-email", map[string]any{
		"type": "payment_approved", "userId": h.fan.ID, "planName": "VIP",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], assert.AnError.Error())
}

func TestRecipientNotificationManagement(t *testing.T) {
	h := newAPIHarness(t)
	ctx := context.Background()
	first := &domain.Notification{UserID: h.fan.ID, Type: domain.NotifyPaymentApproved, Title: "one"}
	second := &domain.Notification{UserID: h.fan.ID, Type: domain.NotifyPredictionDropped, Title: "two"}
	foreign := &domain.Notification{UserID: h.admin.ID, Type: domain.NotifyPredictionDropped, Title: "admin"}
	for _, n := range []*domain.Notification{first, second, foreign} {
		require.NoError(t, h.store.CreateNotification(ctx, n))
	}

	rec := h.do(t, h.fan, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Notifications []domain.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Notifications, 2)
	assert.Equal(t, "two", list.Notifications[0].Title)

	rec = h.do(t, h.fan, http.MethodGet, "/api/notifications/unread-count", nil)
	assert.EqualValues(t, 2, decodeBody(t, rec)["count"])

	rec = h.do(t, h.fan, http.MethodPatch, "/api/notifications/"+first.ID+"/read", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, h.fan, http.MethodPatch, "/api/notifications/"+foreign.ID+"/read", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, h.fan, http.MethodPost, "/api/notifications/read-all", nil)
	assert.EqualValues(t, 1, decodeBody(t, rec)["updated"])

	rec = h.do(t, h.fan, http.MethodGet, "/api/notifications/unread-count", nil)
	assert.EqualValues(t, 0, decodeBody(t, rec)["count"])

	rec = h.do(t, h.fan, http.MethodDelete, "/api/notifications/"+foreign.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, h.fan, http.MethodDelete, "/api/notifications/"+second.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, h.store.NotificationsFor(h.fan.ID), 1)
	assert.Len(t, h.store.NotificationsFor(h.admin.ID), 1)

	assert.Equal(t, []string{h.fan.ID, h.fan.ID, h.fan.ID}, h.feed.Published())
}

func TestNotifications_RequireUser(t *testing.T) {
	h := newAPIHarness(t)

	for _, path := range []string{"/api/notifications", "/api/notifications/unread-count"} {
		rec := h.do(t, nil, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := h.do(t, nil, http.MethodPost, "/api/notifications/create", map[string]any{"type": "payment_approved", "planName": "VIP"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, h.store.Writes())
}

func TestDashboardSubscriptions_ExpiresLapsed(t *testing.T) {
	h := newAPIHarness(t)
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)
	lapsed := h.store.AddSubscription(domain.Subscription{UserID: h.fan.ID, PlanID: "p1", PlanName: "VIP", PlanStatus: domain.StatusActive, ExpiryDate: &past})
	current := h.store.AddSubscription(domain.Subscription{UserID: h.fan.ID, PlanID: "p2", PlanName: "Standard", PlanStatus: domain.StatusActive, ExpiryDate: &future})

	rec := h.do(t, h.fan, http.MethodGet, "/api/dashboard/subscriptions", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Subscriptions []domain.Subscription `json:"subscriptions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	statuses := map[string]string{}
	for _, s := range body.Subscriptions {
		statuses[s.ID] = s.PlanStatus
	}
	assert.Equal(t, domain.StatusExpired, statuses[lapsed.ID])
	assert.Equal(t, domain.StatusActive, statuses[current.ID])

	notes := h.store.NotificationsFor(h.fan.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "Subscription Expired", notes[0].Title)
	assert.Equal(t, 1, h.runner.Tasks())
}

func TestAssignAvatar(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, h.fan, http.MethodPost, "/api/assign-avatar", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.True(t, strings.HasPrefix(body["avatar_url"].(string), "https://api.dicebear.com/7.x/"))
	assert.Equal(t, engine.GenerateAvatarURL(h.fan.ID), body["avatar_url"])
}

func TestAdminStats(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, h.fan, http.MethodGet, "/api/admin/stats", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, h.admin, http.MethodGet, "/api/admin/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["total_users"])
	assert.EqualValues(t, 3, body["websocket_clients"])
	assert.Equal(t, "fake", body["mail_transport"])
	assert.NotContains(t, body, "mail_circuit")

	h.stats.err = testutil.ErrInjected
	rec = h.do(t, h.admin, http.MethodGet, "/api/admin/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebSocketRoute_RequiresUser(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, nil, http.MethodGet, "/ws", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, h.fan, http.MethodGet, "/ws", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, nil, http.MethodOptions, "/api/notifications", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
