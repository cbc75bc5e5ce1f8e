package store

import (
	"context"
	"fmt"

	"github.com/Priya8975/football-predictions/internal/domain"
)

// CreateNotification inserts the notification unread and fills in its id and timestamp.
func (s *PostgresStore) CreateNotification(ctx context.Context, n *domain.Notification) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, message, read)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id, read, created_at
	`, n.UserID, string(n.Type), n.Title, n.Message).Scan(&n.ID, &n.Read, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// ListNotifications returns the user's notifications, newest first.
func (s *PostgresStore) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, type, title, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Type = domain.NotificationType(typ)
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}

	if notifications == nil {
		notifications = []domain.Notification{}
	}

	return notifications, nil
}

func (s *PostgresStore) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications read. It reports false if
// the notification does not exist or belongs to someone else.
func (s *PostgresStore) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	if !isUUID(id) || !isUUID(userID) {
		return false, nil
	}

	result, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("marking notification read: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (s *PostgresStore) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = true WHERE user_id = $1 AND read = false
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteNotification removes one of the user's notifications.
func (s *PostgresStore) DeleteNotification(ctx context.Context, id, userID string) (bool, error) {
	if !isUUID(id) || !isUUID(userID) {
		return false, nil
	}

	result, err := s.pool.Exec(ctx, `
		DELETE FROM notifications WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting notification: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
