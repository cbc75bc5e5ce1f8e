package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Priya8975/football-predictions/internal/auth"
	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/Priya8975/football-predictions/internal/engine"
	"github.com/Priya8975/football-predictions/internal/store"
)

type SubscriptionLoader interface {
	LoadSubscriptions(ctx context.Context, user *domain.User) ([]domain.Subscription, error)
}

type StatsStore interface {
	GetSiteMetrics(ctx context.Context) (*store.SiteMetrics, error)
}

// ClientCounter reports connected realtime clients.
type ClientCounter interface {
	ClientCount() int
}

// BreakerInspector reads the shared state of a mail circuit.
type BreakerInspector interface {
	State(ctx context.Context, name string) engine.BreakerState
}

type DashboardHandler struct {
	subscriptions SubscriptionLoader
	stats         StatsStore
	clients       ClientCounter
	breaker       BreakerInspector
	mailTransport string
	logger        *slog.Logger
}

func NewDashboardHandler(subs SubscriptionLoader, stats StatsStore, clients ClientCounter, breaker BreakerInspector, mailTransport string, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		subscriptions: subs,
		stats:         stats,
		clients:       clients,
		breaker:       breaker,
		mailTransport: mailTransport,
		logger:        logger,
	}
}

// Subscriptions returns the caller's subscriptions, expiring lapsed ones first.
func (h *DashboardHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscriptions.LoadSubscriptions(r.Context(), auth.UserFrom(r.Context()))
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

type statsResponse struct {
	store.SiteMetrics
	WebSocketClients int                  `json:"websocket_clients"`
	MailTransport    string               `json:"mail_transport"`
	MailCircuit      *engine.BreakerState `json:"mail_circuit,omitempty"`
}

// Stats returns site counters for the admin dashboard.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	m, err := h.stats.GetSiteMetrics(r.Context())
	if err != nil {
		h.logger.Error("failed to get site metrics", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to get metrics")
		return
	}

	resp := statsResponse{
		SiteMetrics:   *m,
		MailTransport: h.mailTransport,
	}
	if h.clients != nil {
		resp.WebSocketClients = h.clients.ClientCount()
	}
	if h.breaker != nil {
		state := h.breaker.State(r.Context(), h.mailTransport)
		resp.MailCircuit = &state
	}

	respondJSON(w, http.StatusOK, resp)
}
