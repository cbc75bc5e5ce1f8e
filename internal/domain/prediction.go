package domain

import "time"

// Plan types as submitted by the admin prediction form.
const (
	PlanTypeFree         = "free"
	PlanTypeCorrectScore = "correct_score"
)

type Prediction struct {
	ID             string     `json:"id"`
	PlanType       string     `json:"plan_type"`
	PredictionType string     `json:"prediction_type"`
	HomeTeam       string     `json:"home_team"`
	AwayTeam       string     `json:"away_team"`
	League         string     `json:"league,omitempty"`
	MarketType     string     `json:"market_type,omitempty"`
	Odds           *float64   `json:"odds,omitempty"`
	Confidence     *int       `json:"confidence,omitempty"`
	KickoffTime    *time.Time `json:"kickoff_time,omitempty"`
	Status         string     `json:"status"`
	Result         string     `json:"result,omitempty"`
	AdminNotes     string     `json:"admin_notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
