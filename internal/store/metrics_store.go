package store

import (
	"context"
	"fmt"
)

// SiteMetrics holds the aggregate counts shown on the admin back-office.
type SiteMetrics struct {
	TotalUsers          int `json:"total_users"`
	ActiveSubscriptions int `json:"active_subscriptions"`
	PendingApprovals    int `json:"pending_approvals"`
	PredictionsToday    int `json:"predictions_today"`
	UnreadNotifications int `json:"unread_notifications"`
}

// GetSiteMetrics returns aggregate counts from the database.
func (s *PostgresStore) GetSiteMetrics(ctx context.Context) (*SiteMetrics, error) {
	var m SiteMetrics

	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&m.TotalUsers)
	if err != nil {
		return nil, fmt.Errorf("querying user count: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE plan_status = 'active'),
			COUNT(*) FILTER (WHERE plan_status IN ('pending', 'pending_activation'))
		FROM user_subscriptions
	`).Scan(&m.ActiveSubscriptions, &m.PendingApprovals)
	if err != nil {
		return nil, fmt.Errorf("querying subscription counts: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM predictions WHERE created_at >= date_trunc('day', NOW())
	`).Scan(&m.PredictionsToday)
	if err != nil {
		return nil, fmt.Errorf("querying prediction count: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE read = false
	`).Scan(&m.UnreadNotifications)
	if err != nil {
		return nil, fmt.Errorf("querying unread notifications: %w", err)
	}

	return &m, nil
}
