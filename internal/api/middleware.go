package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Priya8975/football-predictions/internal/auth"
)

// authenticate resolves the caller once per request and stores it on the
// context. Requests without a token continue anonymously.
func authenticate(a *auth.Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.Resolve(r)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					respondError(w, http.StatusUnauthorized, err.Error())
					return
				}
				logger.Error("failed to resolve user", "error", err)
				respondError(w, http.StatusInternalServerError, "failed to resolve user")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserFrom(r.Context()) == nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.UserFrom(r.Context())
		if user == nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !user.IsAdmin {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
