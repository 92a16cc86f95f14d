package evaluation

import "gonum.org/v1/gonum/stat"

// CostModel weights misclassification outcomes and sets the probability
// boundaries used for risk stratification. Missing a true burnout case is
// an order of magnitude costlier than a false alarm.
type CostModel struct {
	FalseNegativeCost   float64
	FalsePositiveCost   float64
	HighRiskThreshold   float64
	MediumRiskThreshold float64
}

// DefaultCostModel returns the standard cost weighting.
func DefaultCostModel() CostModel {
	return CostModel{
		FalseNegativeCost:   100,
		FalsePositiveCost:   10,
		HighRiskThreshold:   0.7,
		MediumRiskThreshold: 0.4,
	}
}

// RiskDistribution counts samples per stratification band.
type RiskDistribution struct {
	HighRisk   int `json:"high_risk"`
	MediumRisk int `json:"medium_risk"`
	LowRisk    int `json:"low_risk"`
}

// BusinessMetrics layers cost and stratification analysis on top of the
// confusion matrix.
type BusinessMetrics struct {
	TruePositiveRate      float64          `json:"true_positive_rate"`
	FalsePositiveRate     float64          `json:"false_positive_rate"`
	Precision             float64          `json:"precision"`
	TotalCost             float64          `json:"total_cost"`
	CostPerPrediction     float64          `json:"cost_per_prediction"`
	RiskDistribution      RiskDistribution `json:"risk_distribution"`
	HighRiskPercentage    float64          `json:"high_risk_percentage"`
	AvgConfidencePositive float64          `json:"avg_confidence_positive"`
	AvgConfidenceNegative float64          `json:"avg_confidence_negative"`
}

// ComputeBusiness derives business metrics from predictions and class
// probabilities under the given cost model. proba may be nil, which leaves
// the stratification and confidence fields zeroed.
func ComputeBusiness(yTrue, yPred []int, proba [][2]float64, costs CostModel) BusinessMetrics {
	var b BusinessMetrics

	n := len(yTrue)
	if n == 0 || len(yPred) != n {
		return b
	}

	cm := confusion(yTrue, yPred)
	b.TruePositiveRate = safeRatio(cm.TruePositive, cm.TruePositive+cm.FalseNegative)
	b.FalsePositiveRate = safeRatio(cm.FalsePositive, cm.FalsePositive+cm.TrueNegative)
	b.Precision = safeRatio(cm.TruePositive, cm.TruePositive+cm.FalsePositive)

	b.TotalCost = float64(cm.FalseNegative)*costs.FalseNegativeCost + float64(cm.FalsePositive)*costs.FalsePositiveCost
	b.CostPerPrediction = b.TotalCost / float64(n)

	if proba == nil {
		return b
	}

	var posConf, negConf []float64
	for i, p := range proba {
		switch {
		case p[1] >= costs.HighRiskThreshold:
			b.RiskDistribution.HighRisk++
		case p[1] >= costs.MediumRiskThreshold:
			b.RiskDistribution.MediumRisk++
		default:
			b.RiskDistribution.LowRisk++
		}

		if yPred[i] == 1 {
			posConf = append(posConf, p[1])
		} else {
			negConf = append(negConf, p[0])
		}
	}
	b.HighRiskPercentage = float64(b.RiskDistribution.HighRisk) / float64(n) * 100

	if len(posConf) > 0 {
		b.AvgConfidencePositive = stat.Mean(posConf, nil)
	}
	if len(negConf) > 0 {
		b.AvgConfidenceNegative = stat.Mean(negConf, nil)
	}

	return b
}
