package notify

import (
	"fmt"

	"github.com/Priya8975/football-predictions/internal/domain"
)

// DefaultContent returns the in-app title and message used for a
// notification type when the caller supplies none.
func DefaultContent(t domain.NotificationType, planName string) (title, message string) {
	switch t {
	case domain.NotifyPredictionDropped:
		return "New Prediction Available",
			fmt.Sprintf("A new %s prediction is now available. Check your dashboard to view it.", planName)
	case domain.NotifySubscriptionConfirmed:
		return "Subscription Confirmed",
			fmt.Sprintf("Your %s subscription is now active. Enjoy your predictions!", planName)
	case domain.NotifySubscriptionExpired:
		return "Subscription Expired",
			fmt.Sprintf("Your %s subscription has expired. Renew to keep receiving predictions.", planName)
	case domain.NotifySubscriptionRemoved:
		return "Subscription Removed",
			fmt.Sprintf("Your %s subscription has been removed. Contact support if you think this is a mistake.", planName)
	case domain.NotifyPaymentApproved:
		return "Payment Approved",
			fmt.Sprintf("Your payment for %s was approved. Your subscription will be activated shortly.", planName)
	case domain.NotifyPaymentRejected:
		return "Payment Rejected",
			fmt.Sprintf("Your payment for %s could not be approved.", planName)
	}
	return "", ""
}
