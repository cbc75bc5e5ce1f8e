package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/url"

	"github.com/Priya8975/football-predictions/internal/apperr"
	"github.com/Priya8975/football-predictions/internal/domain"
)

// AvatarStore persists a user's avatar URL.
type AvatarStore interface {
	UpdateAvatar(ctx context.Context, userID, avatarURL string) error
}

var avatarStyles = []string{
	"adventurer",
	"avataaars",
	"big-smile",
	"bottts",
	"fun-emoji",
	"lorelei",
	"micah",
	"thumbs",
}

const avatarBaseURL = "https://api.dicebear.com/7.x"

// AvatarAssigner gives users without an avatar a generated one.
type AvatarAssigner struct {
	store  AvatarStore
	logger *slog.Logger
}

func NewAvatarAssigner(store AvatarStore, logger *slog.Logger) *AvatarAssigner {
	return &AvatarAssigner{store: store, logger: logger}
}

// Assign returns the user's avatar, generating and saving one if unset.
// The generated URL depends only on the user id.
func (a *AvatarAssigner) Assign(ctx context.Context, user *domain.User) (string, error) {
	if user == nil {
		return "", apperr.Unauthorized("unauthorized")
	}
	if user.AvatarURL != "" {
		return user.AvatarURL, nil
	}

	avatarURL := GenerateAvatarURL(user.ID)
	if err := a.store.UpdateAvatar(ctx, user.ID, avatarURL); err != nil {
		return "", apperr.Upstream("saving avatar", err)
	}

	a.logger.Info("avatar assigned", "user_id", user.ID)
	return avatarURL, nil
}

// GenerateAvatarURL picks a style from the user id and seeds it with the id.
func GenerateAvatarURL(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	style := avatarStyles[h.Sum32()%uint32(len(avatarStyles))]
	return fmt.Sprintf("%s/%s/svg?seed=%s", avatarBaseURL, style, url.QueryEscape(userID))
}
