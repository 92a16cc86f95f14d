// Package dataset resolves training and evaluation data. It loads CSV and
// JSON files by extension, fetches remote datasets over HTTP, generates
// deterministic synthetic data when a source is missing and that fallback
// is enabled, and provides stratified splitting and preprocessing.
package dataset

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"burnout-radar/internal/features"
)

// LabelColumn is the binary target column in labeled datasets.
const LabelColumn = "burnout_risk"

var (
	// ErrUnsupportedFormat is returned for dataset files whose extension
	// has no parser (for example .xlsx).
	ErrUnsupportedFormat = errors.New("unsupported dataset format")

	// ErrDataLoad is returned when a dataset file exists but cannot be
	// parsed. It is distinct from fs.ErrNotExist so callers can tell a
	// missing file from a corrupt one.
	ErrDataLoad = errors.New("dataset parse failed")

	// ErrNoLabels is returned when a dataset lacks the label column and
	// label derivation is not allowed.
	ErrNoLabels = errors.New("dataset has no burnout_risk column")
)

// LoadLabeled loads a dataset and its labels. When the label column is
// absent everywhere, labels are derived with DeriveLabels if derive is
// true; otherwise the load fails with ErrNoLabels.
func LoadLabeled(path string, derive bool) ([][]float64, []int, error) {
	records, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %s has no rows", ErrDataLoad, path)
	}

	X := make([][]float64, len(records))
	y := make([]int, len(records))
	labeled := false
	for i, rec := range records {
		X[i] = features.Vectorize(rec)
		if raw, ok := rec[LabelColumn]; ok {
			if v, numeric := features.ToFloat(raw); numeric {
				if v > 0.5 {
					y[i] = 1
				}
				labeled = true
			}
		}
	}
	if !labeled {
		if !derive {
			return nil, nil, fmt.Errorf("%w: %s", ErrNoLabels, path)
		}
		y = DeriveLabels(X)
		log.Info().Str("file", path).Msg("Label column missing, derived labels from risk rule")
	}

	log.Info().
		Str("file", path).
		Int("rows", len(X)).
		Bool("labeled", labeled).
		Msg("Dataset loaded")
	return X, y, nil
}

// DeriveLabels labels rows with the deterministic risk rule: work hours,
// stress level and workload score (columns 0, 3 and 4) weighted
// 0.3/0.4/0.3, positive above 0.5.
func DeriveLabels(X [][]float64) []int {
	y := make([]int, len(X))
	for i, row := range X {
		if len(row) < 5 {
			continue
		}
		score := row[0]*0.3 + row[3]*0.4 + row[4]*0.3
		if score > 0.5 {
			y[i] = 1
		}
	}
	return y
}
