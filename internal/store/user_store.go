package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/jackc/pgx/v5"
)

// GetUser returns the user with the given id, or nil if none exists.
func (s *PostgresStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if !isUUID(id) {
		return nil, nil
	}

	var u domain.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, COALESCE(full_name, ''), is_admin, COALESCE(avatar_url, ''), created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.FullName, &u.IsAdmin, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// UpdateAvatar sets the user's avatar URL.
func (s *PostgresStore) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE id = $1
	`, userID, avatarURL)
	if err != nil {
		return fmt.Errorf("updating avatar: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("updating avatar: user %s not found", userID)
	}
	return nil
}
