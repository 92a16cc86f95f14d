package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Importance holds permutation-importance results for one evaluation run.
type Importance struct {
	Scores      map[string]float64 `json:"feature_importances"`
	TopFeatures []string           `json:"top_features"`
	Baseline    float64            `json:"baseline_accuracy"`
}

// PermutationImportance measures each feature's importance as the drop in
// accuracy after shuffling that feature's column across rows. Seeded for
// reproducible shuffles. Negative drops clamp to zero.
func PermutationImportance(c Classifier, X [][]float64, y []int, names []string, seed int64) (*Importance, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("empty evaluation set")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("feature rows (%d) and labels (%d) differ in length", len(X), len(y))
	}
	cols := len(X[0])
	if len(names) < cols {
		return nil, fmt.Errorf("have %d feature names for %d columns", len(names), cols)
	}

	baseline, err := accuracyOf(c, X, y)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	work := make([][]float64, len(X))
	for i, row := range X {
		work[i] = make([]float64, cols)
		copy(work[i], row)
	}

	scores := make(map[string]float64, cols)
	column := make([]float64, len(X))
	for f := 0; f < cols; f++ {
		for i := range work {
			column[i] = work[i][f]
		}
		rng.Shuffle(len(column), func(a, b int) { column[a], column[b] = column[b], column[a] })
		for i := range work {
			work[i][f] = column[i]
		}

		permuted, err := accuracyOf(c, work, y)
		if err != nil {
			return nil, err
		}
		scores[names[f]] = math.Max(0, baseline-permuted)

		// Restore the column before permuting the next one.
		for i, row := range X {
			work[i][f] = row[f]
		}
	}

	ranked := make([]string, 0, cols)
	for f := 0; f < cols; f++ {
		ranked = append(ranked, names[f])
	}
	sort.SliceStable(ranked, func(a, b int) bool { return scores[ranked[a]] > scores[ranked[b]] })

	return &Importance{Scores: scores, TopFeatures: ranked, Baseline: baseline}, nil
}

func accuracyOf(c Classifier, X [][]float64, y []int) (float64, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := range pred {
		if pred[i] == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(pred)), nil
}
