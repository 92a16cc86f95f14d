package ml

import (
	"errors"
	"math"
	"testing"
)

func TestScalerNotFitted(t *testing.T) {
	s := NewStandardScaler()
	if _, err := s.Transform([][]float64{{1, 2}}); !errors.Is(err, ErrNotTrained) {
		t.Errorf("Transform before Fit: got %v, want ErrNotTrained", err)
	}
}

func TestScalerStandardizes(t *testing.T) {
	X := [][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
		{4, 40},
	}

	s := NewStandardScaler()
	out, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	for c := 0; c < 2; c++ {
		var sum, sumSq float64
		for r := range out {
			sum += out[r][c]
			sumSq += out[r][c] * out[r][c]
		}
		mean := sum / float64(len(out))
		variance := sumSq/float64(len(out)) - mean*mean
		if math.Abs(mean) > 1e-9 {
			t.Errorf("column %d mean = %v, want 0", c, mean)
		}
		if math.Abs(variance-1.0) > 1e-9 {
			t.Errorf("column %d variance = %v, want 1", c, variance)
		}
	}
}

func TestScalerZeroVarianceColumn(t *testing.T) {
	X := [][]float64{
		{5, 1},
		{5, 2},
		{5, 3},
	}

	s := NewStandardScaler()
	out, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// Constant columns are centered but not divided by the zero deviation.
	for r := range out {
		if out[r][0] != 0 {
			t.Errorf("row %d constant column = %v, want 0", r, out[r][0])
		}
	}
}

func TestScalerRejectsWidthMismatch(t *testing.T) {
	s := NewStandardScaler()
	if err := s.Fit([][]float64{{1, 2}, {3, 4}}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := s.Transform([][]float64{{1, 2, 3}}); err == nil {
		t.Error("expected error for width mismatch, got nil")
	}
}

func TestScalerEmptyMatrix(t *testing.T) {
	s := NewStandardScaler()
	if err := s.Fit(nil); err == nil {
		t.Error("expected error for empty matrix, got nil")
	}
}
