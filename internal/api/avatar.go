package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Priya8975/football-predictions/internal/auth"
	"github.com/Priya8975/football-predictions/internal/domain"
)

type AvatarAssigner interface {
	Assign(ctx context.Context, user *domain.User) (string, error)
}

type AvatarHandler struct {
	avatars AvatarAssigner
	logger  *slog.Logger
}

func NewAvatarHandler(avatars AvatarAssigner, logger *slog.Logger) *AvatarHandler {
	return &AvatarHandler{avatars: avatars, logger: logger}
}

// Assign gives the caller a generated avatar unless they already have one.
func (h *AvatarHandler) Assign(w http.ResponseWriter, r *http.Request) {
	avatarURL, err := h.avatars.Assign(r.Context(), auth.UserFrom(r.Context()))
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"avatar_url": avatarURL,
	})
}
