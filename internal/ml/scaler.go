package ml

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes each column to zero mean and unit variance.
// Statistics are learned from the training split only; zero-variance
// columns pass through unscaled.
type StandardScaler struct {
	means  []float64
	stds   []float64
	fitted bool
}

// NewStandardScaler returns an unfitted scaler.
func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

// Fit learns per-column mean and population standard deviation.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return fmt.Errorf("empty matrix")
	}
	cols := len(X[0])
	s.means = make([]float64, cols)
	s.stds = make([]float64, cols)

	column := make([]float64, len(X))
	for c := 0; c < cols; c++ {
		for r, row := range X {
			if len(row) != cols {
				return fmt.Errorf("row %d has %d columns, expected %d", r, len(row), cols)
			}
			column[r] = row[c]
		}
		s.means[c] = stat.Mean(column, nil)
		s.stds[c] = stat.PopStdDev(column, nil)
	}
	s.fitted = true
	return nil
}

// Transform returns standardized copies of the rows.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if !s.fitted {
		return nil, ErrNotTrained
	}
	out := make([][]float64, len(X))
	for r, row := range X {
		if len(row) != len(s.means) {
			return nil, fmt.Errorf("row %d has %d columns, scaler expects %d", r, len(row), len(s.means))
		}
		scaled := make([]float64, len(row))
		for c, v := range row {
			if s.stds[c] > 0 {
				scaled[c] = (v - s.means[c]) / s.stds[c]
			} else {
				scaled[c] = v - s.means[c]
			}
		}
		out[r] = scaled
	}
	return out, nil
}

// FitTransform fits on X and returns its standardized rows.
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// Means returns the learned column means.
func (s *StandardScaler) Means() []float64 { return s.means }

// Stds returns the learned column standard deviations.
func (s *StandardScaler) Stds() []float64 { return s.stds }
