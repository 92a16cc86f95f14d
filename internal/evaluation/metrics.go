// Package evaluation grades trained classifiers: standard classification
// metrics, cost-weighted business metrics, and a qualitative summary with
// a letter grade. Results are persisted and retrievable by id.
package evaluation

import "sort"

// ConfusionMatrix holds the four binary outcome counts.
type ConfusionMatrix struct {
	TrueNegative  int `json:"true_negative"`
	FalsePositive int `json:"false_positive"`
	FalseNegative int `json:"false_negative"`
	TruePositive  int `json:"true_positive"`
}

// ClassValues is a per-class metric pair.
type ClassValues struct {
	Class0 float64 `json:"class_0"`
	Class1 float64 `json:"class_1"`
}

// ClassCounts is a per-class sample count pair.
type ClassCounts struct {
	Class0 int `json:"class_0"`
	Class1 int `json:"class_1"`
}

// Metrics is the standard classification metrics bundle. Precision, Recall
// and F1Score are support-weighted averages over both classes.
type Metrics struct {
	Accuracy          float64         `json:"accuracy"`
	Precision         float64         `json:"precision"`
	Recall            float64         `json:"recall"`
	F1Score           float64         `json:"f1_score"`
	PrecisionPerClass ClassValues     `json:"precision_per_class"`
	RecallPerClass    ClassValues     `json:"recall_per_class"`
	F1PerClass        ClassValues     `json:"f1_per_class"`
	ConfusionMatrix   ConfusionMatrix `json:"confusion_matrix"`
	ROCAUC            float64         `json:"roc_auc"`
	Support           ClassCounts     `json:"support"`
	PerformanceLevel  string          `json:"performance_level"`
}

// Compute derives the full metrics bundle from ground truth, predictions
// and class probabilities. proba may be nil, which zeroes ROC-AUC.
func Compute(yTrue, yPred []int, proba [][2]float64) Metrics {
	var m Metrics

	n := len(yTrue)
	if n == 0 || len(yPred) != n {
		m.PerformanceLevel = "poor"
		return m
	}

	cm := confusion(yTrue, yPred)
	m.ConfusionMatrix = cm
	m.Support = ClassCounts{
		Class0: cm.TrueNegative + cm.FalsePositive,
		Class1: cm.FalseNegative + cm.TruePositive,
	}

	m.Accuracy = float64(cm.TrueNegative+cm.TruePositive) / float64(n)

	p0 := safeRatio(cm.TrueNegative, cm.TrueNegative+cm.FalseNegative)
	p1 := safeRatio(cm.TruePositive, cm.TruePositive+cm.FalsePositive)
	r0 := safeRatio(cm.TrueNegative, cm.TrueNegative+cm.FalsePositive)
	r1 := safeRatio(cm.TruePositive, cm.TruePositive+cm.FalseNegative)
	m.PrecisionPerClass = ClassValues{Class0: p0, Class1: p1}
	m.RecallPerClass = ClassValues{Class0: r0, Class1: r1}
	m.F1PerClass = ClassValues{Class0: f1(p0, r0), Class1: f1(p1, r1)}

	w0 := float64(m.Support.Class0) / float64(n)
	w1 := float64(m.Support.Class1) / float64(n)
	m.Precision = w0*p0 + w1*p1
	m.Recall = w0*r0 + w1*r1
	m.F1Score = w0*m.F1PerClass.Class0 + w1*m.F1PerClass.Class1

	if proba != nil && m.Support.Class0 > 0 && m.Support.Class1 > 0 {
		m.ROCAUC = rocAUC(yTrue, proba)
	}

	switch {
	case m.Accuracy >= 0.9:
		m.PerformanceLevel = "excellent"
	case m.Accuracy >= 0.8:
		m.PerformanceLevel = "good"
	case m.Accuracy >= 0.7:
		m.PerformanceLevel = "fair"
	default:
		m.PerformanceLevel = "poor"
	}

	return m
}

func confusion(yTrue, yPred []int) ConfusionMatrix {
	var cm ConfusionMatrix
	for i, truth := range yTrue {
		switch {
		case truth == 0 && yPred[i] == 0:
			cm.TrueNegative++
		case truth == 0 && yPred[i] == 1:
			cm.FalsePositive++
		case truth == 1 && yPred[i] == 0:
			cm.FalseNegative++
		default:
			cm.TruePositive++
		}
	}
	return cm
}

func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// rocAUC computes the area under the ROC curve from positive-class
// probabilities using the rank-sum formulation, with tied scores sharing
// their average rank. Callers guarantee both classes are present.
func rocAUC(yTrue []int, proba [][2]float64) float64 {
	n := len(yTrue)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return proba[idx[a]][1] < proba[idx[b]][1]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && proba[idx[j]][1] == proba[idx[i]][1] {
			j++
		}
		avg := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	var nPos, nNeg int
	var rankSum float64
	for i, truth := range yTrue {
		if truth == 1 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}
	return (rankSum - float64(nPos)*float64(nPos+1)/2) / (float64(nPos) * float64(nNeg))
}
