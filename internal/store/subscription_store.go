package store

import (
	"context"
	"fmt"

	"github.com/Priya8975/football-predictions/internal/domain"
)

// ListActiveSubscribers returns every active subscription to the plan,
// joined to the owning user's contact details.
func (s *PostgresStore) ListActiveSubscribers(ctx context.Context, planID string) ([]domain.Subscriber, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT us.id, u.id, u.email, COALESCE(u.full_name, '')
		FROM user_subscriptions us
		JOIN users u ON u.id = us.user_id
		WHERE us.plan_id = $1
		  AND us.plan_status = 'active'
		ORDER BY us.created_at
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("querying active subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []domain.Subscriber
	for rows.Next() {
		var sub domain.Subscriber
		if err := rows.Scan(&sub.SubscriptionID, &sub.UserID, &sub.Email, &sub.FullName); err != nil {
			return nil, fmt.Errorf("scanning subscriber: %w", err)
		}
		subscribers = append(subscribers, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscribers: %w", err)
	}

	if subscribers == nil {
		subscribers = []domain.Subscriber{}
	}

	return subscribers, nil
}

// ListUserSubscriptions returns the user's subscriptions with plan details, newest first.
func (s *PostgresStore) ListUserSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT us.id, us.user_id, us.plan_id, p.name, p.slug, us.plan_status, us.expiry_date, us.created_at
		FROM user_subscriptions us
		JOIN plans p ON p.id = us.plan_id
		WHERE us.user_id = $1
		ORDER BY us.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		err := rows.Scan(
			&sub.ID, &sub.UserID, &sub.PlanID, &sub.PlanName, &sub.PlanSlug,
			&sub.PlanStatus, &sub.ExpiryDate, &sub.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscriptions: %w", err)
	}

	if subs == nil {
		subs = []domain.Subscription{}
	}

	return subs, nil
}

// ExpireSubscription moves an active subscription to expired. It reports
// false when the row was no longer active, so concurrent sweeps transition
// (and notify) at most once.
func (s *PostgresStore) ExpireSubscription(ctx context.Context, id string) (bool, error) {
	result, err := s.pool.Exec(ctx, `
		UPDATE user_subscriptions
		SET plan_status = 'expired', updated_at = NOW()
		WHERE id = $1 AND plan_status = 'active'
	`, id)
	if err != nil {
		return false, fmt.Errorf("expiring subscription %s: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}
