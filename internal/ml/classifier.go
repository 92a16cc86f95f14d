// Package ml provides the binary burnout classifier capability used by the
// training harness and the risk-assessment engine. It includes a pure-Go
// random-forest realization with feature standardization, a random stub for
// degraded-availability fallback, gob persistence with JSON metadata
// sidecars, and a version registry for loaded models.
//
// Any type satisfying Classifier is substitutable behind the harness and
// the prediction engine without touching either.
package ml

import "errors"

// Sentinel errors surfaced by classifier and registry operations.
var (
	// ErrNotTrained is returned when Predict or PredictProba is called
	// before a successful Fit.
	ErrNotTrained = errors.New("model is not trained")

	// ErrModelNotFound is returned by the registry for unknown versions.
	ErrModelNotFound = errors.New("model version not found")

	// ErrUnknownModelType is returned for model types outside the
	// supported set.
	ErrUnknownModelType = errors.New("unknown model type")
)

// Classifier is the polymorphic binary-classification capability.
// PredictProba rows are (p0, p1) pairs summing to 1.
type Classifier interface {
	// Fit trains the classifier on feature rows X and binary labels y.
	Fit(X [][]float64, y []int) error

	// Predict returns the predicted class (0 or 1) per row.
	Predict(X [][]float64) ([]int, error)

	// PredictProba returns per-row class probabilities (p0, p1).
	PredictProba(X [][]float64) ([][2]float64, error)
}

// PredictOne is a convenience for single-vector callers.
func PredictOne(c Classifier, vec []float64) (int, [2]float64, error) {
	proba, err := c.PredictProba([][]float64{vec})
	if err != nil {
		return 0, [2]float64{}, err
	}
	label := 0
	if proba[0][1] >= 0.5 {
		label = 1
	}
	return label, proba[0], nil
}
