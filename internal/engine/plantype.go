package engine

// UnmappedPlanTypePolicy decides what happens to a plan type that has no
// entry in the plan slug table.
type UnmappedPlanTypePolicy int

const (
	// SkipUnmapped ignores the plan type: no fan-out and no error.
	SkipUnmapped UnmappedPlanTypePolicy = iota
	// RejectUnmapped reports the plan type as a validation error.
	RejectUnmapped
)

// planSlugs maps prediction plan types to plan slugs. The table is closed.
var planSlugs = map[string]string{
	"profit_multiplier": "profit-multiplier",
	"daily_2_odds":      "daily-2-odds",
	"standard":          "standard",
	"free":              "free",
	"correct_score":     "correct-score",
}

// PlanSlug returns the plan slug for a prediction plan type.
func PlanSlug(planType string) (string, bool) {
	slug, ok := planSlugs[planType]
	return slug, ok
}

// planMetricLabel bounds metric cardinality to the known plans.
func planMetricLabel(planType string) string {
	if slug, ok := PlanSlug(planType); ok {
		return slug
	}
	return "unmapped"
}
