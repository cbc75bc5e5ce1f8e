package domain

import "time"

// NotificationType is the closed set of events a user can be notified about.
type NotificationType string

const (
	NotifyPredictionDropped     NotificationType = "prediction_dropped"
	NotifySubscriptionConfirmed NotificationType = "subscription_confirmed"
	NotifySubscriptionExpired   NotificationType = "subscription_expired"
	NotifySubscriptionRemoved   NotificationType = "subscription_removed"
	NotifyPaymentRejected       NotificationType = "payment_rejected"
	NotifyPaymentApproved       NotificationType = "payment_approved"
)

// NotificationTypes lists every valid notification type.
func NotificationTypes() []NotificationType {
	return []NotificationType{
		NotifyPredictionDropped,
		NotifySubscriptionConfirmed,
		NotifySubscriptionExpired,
		NotifySubscriptionRemoved,
		NotifyPaymentRejected,
		NotifyPaymentApproved,
	}
}

func (t NotificationType) IsValid() bool {
	for _, known := range NotificationTypes() {
		if t == known {
			return true
		}
	}
	return false
}

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// LifecycleEvent is a subscription lifecycle transition that users are told about.
type LifecycleEvent string

const (
	LifecycleConfirmed LifecycleEvent = "confirmed"
	LifecycleExpired   LifecycleEvent = "expired"
	LifecycleRemoved   LifecycleEvent = "removed"
)

// NotificationType maps the event to its notification type.
func (e LifecycleEvent) NotificationType() (NotificationType, bool) {
	switch e {
	case LifecycleConfirmed:
		return NotifySubscriptionConfirmed, true
	case LifecycleExpired:
		return NotifySubscriptionExpired, true
	case LifecycleRemoved:
		return NotifySubscriptionRemoved, true
	}
	return "", false
}

// Title is the fixed notification title for the event.
func (e LifecycleEvent) Title() string {
	switch e {
	case LifecycleConfirmed:
		return "Subscription Confirmed"
	case LifecycleExpired:
		return "Subscription Expired"
	case LifecycleRemoved:
		return "Subscription Removed"
	}
	return ""
}
