package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Priya8975/football-predictions/internal/auth"
	"github.com/Priya8975/football-predictions/internal/metrics"
	"github.com/Priya8975/football-predictions/internal/notify"
)

// UserSocketServer upgrades an authenticated request to a realtime connection.
type UserSocketServer interface {
	ServeUser(w http.ResponseWriter, r *http.Request, userID string)
	ClientCount() int
}

// Services are the collaborators the HTTP layer routes to.
type Services struct {
	Auth       *auth.Authenticator
	Ingestor   PredictionIngester
	FanOut     PlanTypeNotifier
	Reconciler interface {
		SubscriptionLoader
		LifecycleNotifier
	}
	Writer        NotificationCreator
	Email         notify.EmailSender
	Avatars       AvatarAssigner
	Users         UserLookup
	Notifications NotificationStore
	Stats         StatsStore
	Feed          notify.UnreadPublisher
	Breaker       BreakerInspector
	MailTransport string
	Hub           UserSocketServer
	DB            Pinger
	Version       string
	Logger        *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(svc Services) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)

	predictionHandler := NewPredictionHandler(svc.Ingestor, svc.Logger)
	notificationHandler := NewNotificationHandler(
		svc.Notifications,
		svc.Users,
		svc.Writer,
		svc.Reconciler,
		svc.FanOut,
		svc.Email,
		svc.Feed,
		svc.Logger,
	)
	avatarHandler := NewAvatarHandler(svc.Avatars, svc.Logger)
	dashHandler := NewDashboardHandler(svc.Reconciler, svc.Stats, svc.Hub, svc.Breaker, svc.MailTransport, svc.Logger)

	r.Get("/api/v1/health", HealthHandler(svc.Version, svc.DB))
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authenticate(svc.Auth, svc.Logger))

		// WebSocket endpoint; browsers pass the token as a query parameter.
		r.With(requireUser).Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			svc.Hub.ServeUser(w, r, auth.UserFrom(r.Context()).ID)
		})

		r.Route("/api", func(r chi.Router) {
			r.With(requireAdmin).Post("/football/insert-predictions", predictionHandler.Insert)
			r.With(requireUser).Post("/assign-avatar", avatarHandler.Assign)
			r.With(requireUser).Get("/dashboard/subscriptions", dashHandler.Subscriptions)
			r.With(requireAdmin).Get("/admin/stats", dashHandler.Stats)

			r.Route("/notifications", func(r chi.Router) {
				r.With(requireAdmin).Post("/notify-prediction-update", notificationHandler.NotifyPredictionUpdate)
				r.With(requireAdmin).Post("/send-email", notificationHandler.SendEmail)

				r.Group(func(r chi.Router) {
					r.Use(requireUser)
					r.Post("/create", notificationHandler.Create)
					r.Get("/", notificationHandler.List)
					r.Get("/unread-count", notificationHandler.UnreadCount)
					r.Post("/read-all", notificationHandler.MarkAllRead)
					r.Patch("/{id}/read", notificationHandler.MarkRead)
					r.Delete("/{id}", notificationHandler.Delete)
				})
			})
		})
	})

	return r
}

// corsMiddleware adds CORS headers for the web frontend.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
