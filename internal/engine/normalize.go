package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Priya8975/football-predictions/internal/domain"
)

const (
	correctScoreLabel       = "Correct Score:"
	defaultCorrectScore     = "0-0"
	defaultPredictionStatus = "pending"
)

// RawPrediction is one admin-submitted record. Only the fields declared
// here are kept; any other JSON key is dropped on decode.
type RawPrediction struct {
	PlanType        string    `json:"plan_type"`
	PredictionType  string    `json:"prediction_type"`
	ScorePrediction string    `json:"score_prediction"`
	HomeTeam        string    `json:"home_team"`
	AwayTeam        string    `json:"away_team"`
	League          string    `json:"league"`
	MarketType      string    `json:"market_type"`
	Odds            FlexFloat `json:"odds"`
	Confidence      FlexInt   `json:"confidence"`
	KickoffTime     FlexTime  `json:"kickoff_time"`
	Status          string    `json:"status"`
	Result          string    `json:"result"`
	AdminNotes      string    `json:"admin_notes"`
}

// IsCorrectScore reports whether the plan type names the correct-score plan.
func IsCorrectScore(planType string) bool {
	switch strings.ToLower(strings.TrimSpace(planType)) {
	case "correct_score", "correct-score":
		return true
	}
	return false
}

// ExtractScore returns the bare score token for a correct-score prediction.
// score_prediction wins over prediction_type; a "Correct Score:" label is
// stripped; an empty result falls back to "0-0".
func ExtractScore(scorePrediction, predictionType string) string {
	candidate := scorePrediction
	if strings.TrimSpace(candidate) == "" {
		candidate = predictionType
	}

	if idx := strings.LastIndex(candidate, correctScoreLabel); idx >= 0 {
		candidate = strings.TrimSpace(candidate[idx+len(correctScoreLabel):])
	}

	if strings.TrimSpace(candidate) == "" {
		return defaultCorrectScore
	}
	return candidate
}

// Normalize converts a raw record into the stored prediction shape.
func Normalize(raw RawPrediction) domain.Prediction {
	p := domain.Prediction{
		HomeTeam:   raw.HomeTeam,
		AwayTeam:   raw.AwayTeam,
		League:     raw.League,
		MarketType: raw.MarketType,
		Status:     raw.Status,
		Result:     raw.Result,
		AdminNotes: raw.AdminNotes,
	}

	if IsCorrectScore(raw.PlanType) {
		p.PlanType = domain.PlanTypeCorrectScore
		p.PredictionType = ExtractScore(raw.ScorePrediction, raw.PredictionType)
	} else {
		p.PlanType = raw.PlanType
		if p.PlanType == "" {
			p.PlanType = domain.PlanTypeFree
		}
		p.PredictionType = raw.PredictionType
	}

	if raw.Odds.Set {
		v := raw.Odds.Value
		p.Odds = &v
	}
	if raw.Confidence.Set {
		v := raw.Confidence.Value
		p.Confidence = &v
	}
	if raw.KickoffTime.Set {
		v := raw.KickoffTime.Value
		p.KickoffTime = &v
	}
	if p.Status == "" {
		p.Status = defaultPredictionStatus
	}

	return p
}

// FlexFloat accepts a JSON number or a numeric string. Set is false for
// null, missing or empty values.
type FlexFloat struct {
	Value float64
	Set   bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s, err := unquoteNumber(data)
	if err != nil || s == "" {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*f = FlexFloat{Value: v, Set: true}
	return nil
}

// FlexInt accepts a JSON integer or a numeric string.
type FlexInt struct {
	Value int
	Set   bool
}

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	s, err := unquoteNumber(data)
	if err != nil || s == "" {
		return err
	}
	if n, err := strconv.ParseInt(s, 10, 0); err == nil {
		*i = FlexInt{Value: int(n), Set: true}
		return nil
	}

	// Integral floats such as 80.0 or 8e1 are accepted.
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > maxExactFloatInt {
		return fmt.Errorf("invalid integer %q", s)
	}
	*i = FlexInt{Value: int(v), Set: true}
	return nil
}

// maxExactFloatInt is the largest magnitude a float64 holds without losing
// integer precision.
const maxExactFloatInt = 1 << 53

func unquoteNumber(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	return string(data), nil
}

// FlexTime accepts RFC 3339 timestamps and the zone-less forms produced by
// HTML datetime-local inputs, which are read as UTC.
type FlexTime struct {
	Value time.Time
	Set   bool
}

var kickoffLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("kickoff_time must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range kickoffLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			*t = FlexTime{Value: v, Set: true}
			return nil
		}
	}
	return fmt.Errorf("invalid kickoff_time %q", s)
}
