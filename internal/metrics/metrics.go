// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "predictions"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	notificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "created_total",
			Help:      "Notification rows written, by type",
		},
		[]string{"type"},
	)

	emailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "sent_total",
			Help:      "Email send attempts, by notification type and outcome",
		},
		[]string{"type", "outcome"},
	)

	fanOutNotified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "recipients_total",
			Help:      "Fan-out recipients, by outcome",
		},
		[]string{"outcome"},
	)

	subscriptionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscriptions",
			Name:      "expired_total",
			Help:      "Subscriptions moved from active to expired",
		},
	)

	predictionsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "predictions",
			Name:      "ingested_total",
			Help:      "Predictions inserted, by plan slug (\"unmapped\" for unknown plan types)",
		},
		[]string{"plan"},
	)

	websocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "clients",
			Help:      "Connected WebSocket clients",
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware records request counts and latency by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func NotificationCreated(notificationType string) {
	notificationsCreated.WithLabelValues(notificationType).Inc()
}

// EmailSent records a send attempt; outcome is "sent", "failed" or "rate_limited".
func EmailSent(notificationType, outcome string) {
	emailsSent.WithLabelValues(notificationType, outcome).Inc()
}

func FanOutRecipients(notified, failed int) {
	fanOutNotified.WithLabelValues("notified").Add(float64(notified))
	fanOutNotified.WithLabelValues("failed").Add(float64(failed))
}

func SubscriptionExpired() {
	subscriptionsExpired.Inc()
}

func PredictionsIngested(plan string, n int) {
	predictionsIngested.WithLabelValues(plan).Add(float64(n))
}

func SetWebSocketClients(n int) {
	websocketClients.Set(float64(n))
}
