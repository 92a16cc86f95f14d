package evaluation

import "fmt"

// Summary is the qualitative assessment attached to every evaluation.
type Summary struct {
	TargetRecallMet  bool     `json:"target_recall_met"`
	RecallGap        float64  `json:"recall_gap"`
	PerformanceGrade string   `json:"performance_grade"`
	Recommendation   string   `json:"recommendation"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
}

// Summarize grades a metrics bundle against the target recall. The grade
// boundaries and phrasing are stable; downstream tooling matches on them.
func Summarize(m Metrics, targetRecall float64) Summary {
	s := Summary{
		Strengths:  []string{},
		Weaknesses: []string{},
	}

	s.TargetRecallMet = m.Recall >= targetRecall
	if !s.TargetRecallMet {
		s.RecallGap = targetRecall - m.Recall
	}

	switch {
	case m.Accuracy >= 0.9 && m.Recall >= targetRecall:
		s.PerformanceGrade = "A"
		s.Recommendation = "Model ready for production"
	case m.Accuracy >= 0.8 && m.Recall >= targetRecall*0.9:
		s.PerformanceGrade = "B"
		s.Recommendation = "Model acceptable with monitoring"
	case m.Accuracy >= 0.7:
		s.PerformanceGrade = "C"
		s.Recommendation = "Model needs improvement"
	default:
		s.PerformanceGrade = "D"
		s.Recommendation = "Model not suitable for production"
	}

	if s.TargetRecallMet {
		s.Strengths = append(s.Strengths, "Meets recall target")
	} else {
		s.Weaknesses = append(s.Weaknesses, fmt.Sprintf("Below recall target (%.3f < %g)", m.Recall, targetRecall))
	}

	if m.Accuracy >= 0.85 {
		s.Strengths = append(s.Strengths, "High accuracy")
	} else if m.Accuracy < 0.7 {
		s.Weaknesses = append(s.Weaknesses, "Low accuracy")
	}

	if m.F1Score >= 0.8 {
		s.Strengths = append(s.Strengths, "Good F1 score")
	} else if m.F1Score < 0.6 {
		s.Weaknesses = append(s.Weaknesses, "Poor F1 score")
	}

	return s
}
