package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Priya8975/football-predictions/internal/domain"
)

type emailData struct {
	UserName string
	PlanName string
	Reason   string
	SiteURL  string
}

type emailTemplate struct {
	subject func(d emailData) string
	body    *template.Template
}

const layout = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937">
<p>Hi {{.UserName}},</p>
{{template "content" .}}
<p><a href="{{.SiteURL}}/dashboard">Open your dashboard</a></p>
<p style="color:#6b7280;font-size:12px">You are receiving this because you have an account with us.</p>
</body></html>`

func mustTemplate(name, content string) *template.Template {
	t := template.Must(template.New(name).Parse(layout))
	template.Must(t.New("content").Parse(content))
	return t
}

var templates = map[domain.NotificationType]emailTemplate{
	domain.NotifyPredictionDropped: {
		subject: func(d emailData) string { return fmt.Sprintf("New %s prediction is live", d.PlanName) },
		body: mustTemplate("prediction_dropped",
			`<p>A new prediction for your <strong>{{.PlanName}}</strong> plan has just been published.</p>`),
	},
	domain.NotifySubscriptionConfirmed: {
		subject: func(d emailData) string { return fmt.Sprintf("Your %s subscription is active", d.PlanName) },
		body: mustTemplate("subscription_confirmed",
			`<p>Your <strong>{{.PlanName}}</strong> subscription has been confirmed. Predictions are now available on your dashboard.</p>`),
	},
	domain.NotifySubscriptionExpired: {
		subject: func(d emailData) string { return fmt.Sprintf("Your %s subscription has expired", d.PlanName) },
		body: mustTemplate("subscription_expired",
			`<p>Your <strong>{{.PlanName}}</strong> subscription has expired. Renew to keep receiving predictions.</p>`),
	},
	domain.NotifySubscriptionRemoved: {
		subject: func(d emailData) string { return fmt.Sprintf("Your %s subscription was removed", d.PlanName) },
		body: mustTemplate("subscription_removed",
			`<p>Your <strong>{{.PlanName}}</strong> subscription has been removed. Contact support if this is unexpected.</p>`),
	},
	domain.NotifyPaymentRejected: {
		subject: func(d emailData) string { return fmt.Sprintf("Payment for %s was not approved", d.PlanName) },
		body: mustTemplate("payment_rejected",
			`<p>We could not approve your payment for <strong>{{.PlanName}}</strong>.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`),
	},
	domain.NotifyPaymentApproved: {
		subject: func(d emailData) string { return fmt.Sprintf("Payment for %s approved", d.PlanName) },
		body: mustTemplate("payment_approved",
			`<p>Your payment for <strong>{{.PlanName}}</strong> has been approved. Your subscription will be activated shortly.</p>`),
	},
}

// render returns the subject and HTML body for the notification type.
func render(t domain.NotificationType, d emailData) (string, string, error) {
	tmpl, ok := templates[t]
	if !ok {
		return "", "", fmt.Errorf("no template for %q", t)
	}

	var buf bytes.Buffer
	if err := tmpl.body.Execute(&buf, d); err != nil {
		return "", "", fmt.Errorf("rendering %s email: %w", t, err)
	}
	return tmpl.subject(d), buf.String(), nil
}
