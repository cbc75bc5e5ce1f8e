package domain

import "time"

// Subscription statuses. Only the active -> expired edge is driven by this service.
const (
	StatusPending           = "pending"
	StatusPendingActivation = "pending_activation"
	StatusActive            = "active"
	StatusExpired           = "expired"
	StatusRemoved           = "removed"
)

type Subscription struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	PlanID     string     `json:"plan_id"`
	PlanName   string     `json:"plan_name,omitempty"`
	PlanSlug   string     `json:"plan_slug,omitempty"`
	PlanStatus string     `json:"plan_status"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsLapsed reports whether an active subscription has passed its expiry date.
func (s Subscription) IsLapsed(now time.Time) bool {
	return s.PlanStatus == StatusActive && s.ExpiryDate != nil && s.ExpiryDate.Before(now)
}

// Subscriber is an active subscription joined to its owner's contact details.
type Subscriber struct {
	SubscriptionID string `json:"subscription_id"`
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
}
