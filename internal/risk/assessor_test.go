package risk

import (
	"reflect"
	"testing"
)

func TestLevelBoundaries(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		score float64
		want  string
	}{
		{0.0, LevelLow},
		{0.29, LevelLow},
		{0.3, LevelMedium},
		{0.45, LevelMedium},
		{0.59, LevelMedium},
		{0.6, LevelHigh},
		{0.79, LevelHigh},
		{0.8, LevelCritical},
		{0.95, LevelCritical},
		{1.0, LevelCritical},
	}
	for _, tt := range tests {
		if got := thresholds.Level(tt.score); got != tt.want {
			t.Errorf("Level(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestLevelCustomThresholds(t *testing.T) {
	thresholds := Thresholds{LowMax: 0.2, MediumMax: 0.5, HighMax: 0.9}

	if got := thresholds.Level(0.25); got != LevelMedium {
		t.Errorf("Level(0.25) = %s, want medium", got)
	}
	if got := thresholds.Level(0.85); got != LevelHigh {
		t.Errorf("Level(0.85) = %s, want high", got)
	}
	if got := thresholds.Level(0.9); got != LevelCritical {
		t.Errorf("Level(0.9) = %s, want critical", got)
	}
}

func TestFactorsAllTriggered(t *testing.T) {
	raw := map[string]any{
		"work_hours_per_week": 60.0,
		"stress_level":        8.0,
		"workload_score":      9.0,
		"work_life_balance":   2.0,
	}

	factors := Factors(raw)
	if len(factors) != 4 {
		t.Fatalf("expected 4 factors, got %d: %v", len(factors), factors)
	}

	hours, ok := factors["excessive_hours"]
	if !ok {
		t.Fatal("expected excessive_hours factor")
	}
	if hours.Value != 60.0 || hours.Impact != ImpactHigh {
		t.Errorf("unexpected excessive_hours factor: %+v", hours)
	}
	if hours.Description != "Working more than 50 hours per week" {
		t.Errorf("unexpected description: %s", hours.Description)
	}

	if f := factors["high_stress"]; f.Impact != ImpactHigh || f.Description != "High stress level reported" {
		t.Errorf("unexpected high_stress factor: %+v", f)
	}
	if f := factors["heavy_workload"]; f.Impact != ImpactMedium || f.Description != "Heavy workload reported" {
		t.Errorf("unexpected heavy_workload factor: %+v", f)
	}
	if f := factors["poor_work_life_balance"]; f.Impact != ImpactHigh || f.Description != "Poor work-life balance" {
		t.Errorf("unexpected poor_work_life_balance factor: %+v", f)
	}
}

func TestFactorsBoundaryValuesDoNotTrigger(t *testing.T) {
	raw := map[string]any{
		"work_hours_per_week": 50.0,
		"stress_level":        7.0,
		"workload_score":      8.0,
		"work_life_balance":   3.0,
	}

	if factors := Factors(raw); len(factors) != 0 {
		t.Errorf("expected no factors at boundary values, got %v", factors)
	}
}

func TestFactorsMissingFieldsTriggerNothing(t *testing.T) {
	if factors := Factors(map[string]any{}); len(factors) != 0 {
		t.Errorf("expected no factors for empty input, got %v", factors)
	}

	raw := map[string]any{"work_life_balance": "unreported"}
	if factors := Factors(raw); len(factors) != 0 {
		t.Errorf("expected non-numeric field to trigger nothing, got %v", factors)
	}
}

func TestFactorsNumericStrings(t *testing.T) {
	factors := Factors(map[string]any{"work_hours_per_week": "62"})
	if _, ok := factors["excessive_hours"]; !ok {
		t.Errorf("expected numeric string to trigger excessive_hours, got %v", factors)
	}
}

func TestRecommendationsPerLevel(t *testing.T) {
	tests := []struct {
		level     string
		wantLen   int
		wantFirst string
	}{
		{LevelLow, 2, "Continue maintaining healthy work habits"},
		{LevelMedium, 3, "Consider reducing work hours if possible"},
		{LevelHigh, 4, "Urgent: Reduce workload and work hours"},
		{LevelCritical, 4, "Immediate action required: Take time off"},
	}
	for _, tt := range tests {
		got := Recommendations(tt.level, nil)
		if len(got) != tt.wantLen {
			t.Errorf("%s: expected %d recommendations, got %d", tt.level, tt.wantLen, len(got))
			continue
		}
		if got[0] != tt.wantFirst {
			t.Errorf("%s: expected first item %q, got %q", tt.level, tt.wantFirst, got[0])
		}
	}
}

func TestRecommendationsAppendFactorExtras(t *testing.T) {
	factors := Factors(map[string]any{"work_hours_per_week": 60.0})

	got := Recommendations(LevelHigh, factors)
	want := []string{
		"Urgent: Reduce workload and work hours",
		"Schedule regular time off",
		"Consider speaking with your manager about workload",
		"Seek professional help if needed",
		"Set strict work hour boundaries",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected recommendations:\n got %v\nwant %v", got, want)
	}
}

func TestRecommendationsExtrasFollowRuleOrder(t *testing.T) {
	factors := Factors(map[string]any{
		"work_hours_per_week": 60.0,
		"stress_level":        9.0,
		"workload_score":      9.0,
		"work_life_balance":   1.0,
	})

	got := Recommendations(LevelCritical, factors)
	if len(got) != 7 {
		t.Fatalf("expected 4 level items plus 3 extras, got %d: %v", len(got), got)
	}

	extras := got[4:]
	want := []string{
		"Set strict work hour boundaries",
		"Implement daily stress reduction activities",
		"Create clear boundaries between work and personal time",
	}
	if !reflect.DeepEqual(extras, want) {
		t.Errorf("unexpected extras order:\n got %v\nwant %v", extras, want)
	}
}

func TestRecommendationsHeavyWorkloadHasNoExtra(t *testing.T) {
	factors := Factors(map[string]any{"workload_score": 9.0})

	got := Recommendations(LevelMedium, factors)
	if len(got) != 3 {
		t.Errorf("expected only the 3 medium items, got %d: %v", len(got), got)
	}
}
