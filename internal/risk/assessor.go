// Package risk turns classifier output into a burnout risk assessment:
// a categorical level, the contributing workplace factors, and an ordered
// list of recommendations.
package risk

import (
	"burnout-radar/internal/features"
	"burnout-radar/internal/storage"
)

// Risk levels ordered by severity.
const (
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

// Factor impact grades.
const (
	ImpactHigh   = "high"
	ImpactMedium = "medium"
)

// Thresholds are the upper bounds of the low, medium and high score
// bands. Scores at or above HighMax are critical. Each bound is
// exclusive: a score exactly at LowMax is already medium.
type Thresholds struct {
	LowMax    float64
	MediumMax float64
	HighMax   float64
}

// DefaultThresholds returns the standard 0.3/0.6/0.8 banding.
func DefaultThresholds() Thresholds {
	return Thresholds{LowMax: 0.3, MediumMax: 0.6, HighMax: 0.8}
}

// Level maps a positive-class probability to a risk level.
func (t Thresholds) Level(score float64) string {
	switch {
	case score < t.LowMax:
		return LevelLow
	case score < t.MediumMax:
		return LevelMedium
	case score < t.HighMax:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// factorRule describes one raw-input condition that, when met, attributes
// a named factor to the assessment. Rules are evaluated in declaration
// order, which also fixes the order of factor-specific recommendations.
type factorRule struct {
	name        string
	field       string
	impact      string
	description string
	extra       string
	triggered   func(v float64) bool
}

var factorRules = []factorRule{
	{
		name:        "excessive_hours",
		field:       "work_hours_per_week",
		impact:      ImpactHigh,
		description: "Working more than 50 hours per week",
		extra:       "Set strict work hour boundaries",
		triggered:   func(v float64) bool { return v > 50 },
	},
	{
		name:        "high_stress",
		field:       "stress_level",
		impact:      ImpactHigh,
		description: "High stress level reported",
		extra:       "Implement daily stress reduction activities",
		triggered:   func(v float64) bool { return v > 7 },
	},
	{
		name:        "heavy_workload",
		field:       "workload_score",
		impact:      ImpactMedium,
		description: "Heavy workload reported",
		triggered:   func(v float64) bool { return v > 8 },
	},
	{
		name:        "poor_work_life_balance",
		field:       "work_life_balance",
		impact:      ImpactHigh,
		description: "Poor work-life balance",
		extra:       "Create clear boundaries between work and personal time",
		triggered:   func(v float64) bool { return v < 3 },
	},
}

var levelRecommendations = map[string][]string{
	LevelLow: {
		"Continue maintaining healthy work habits",
		"Regularly monitor your stress levels",
	},
	LevelMedium: {
		"Consider reducing work hours if possible",
		"Take regular breaks throughout the day",
		"Practice stress management techniques",
	},
	LevelHigh: {
		"Urgent: Reduce workload and work hours",
		"Schedule regular time off",
		"Consider speaking with your manager about workload",
		"Seek professional help if needed",
	},
	LevelCritical: {
		"Immediate action required: Take time off",
		"Contact HR or management immediately",
		"Consider professional counseling",
		"Review and adjust work responsibilities",
	},
}

// Factors inspects the raw, pre-scaling input and returns every
// attributed factor. A field that is absent or non-numeric triggers
// nothing; only reported signals are attributed.
func Factors(raw map[string]any) map[string]storage.Factor {
	out := make(map[string]storage.Factor)
	for _, rule := range factorRules {
		v, ok := features.ToFloat(raw[rule.field])
		if !ok || !rule.triggered(v) {
			continue
		}
		out[rule.name] = storage.Factor{
			Value:       v,
			Impact:      rule.impact,
			Description: rule.description,
		}
	}
	return out
}

// Recommendations builds the ordered advice list for a risk level: the
// fixed per-level items first, then one extra item per attributed factor
// that carries one, in rule order.
func Recommendations(level string, factors map[string]storage.Factor) []string {
	base := levelRecommendations[level]
	out := make([]string, 0, len(base)+len(factors))
	out = append(out, base...)
	for _, rule := range factorRules {
		if rule.extra == "" {
			continue
		}
		if _, ok := factors[rule.name]; ok {
			out = append(out, rule.extra)
		}
	}
	return out
}
