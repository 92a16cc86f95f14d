package ml

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// ForestConfig holds random-forest hyperparameters.
type ForestConfig struct {
	NumTrees        int   `json:"num_trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	MaxFeatures     int   `json:"max_features"`
	Seed            int64 `json:"seed"`
}

// BaselineConfig mirrors the reference baseline hyperparameters.
func BaselineConfig() ForestConfig {
	return ForestConfig{
		NumTrees:        100,
		MaxDepth:        10,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
	}
}

// AdvancedConfig mirrors the reference advanced hyperparameters, also used
// for the default "comprehensive" model type.
func AdvancedConfig() ForestConfig {
	return ForestConfig{
		NumTrees:        200,
		MaxDepth:        15,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

// DefaultConfig mirrors the reference single-model realization: 100 trees,
// depth 10, min split 5, min leaf 2, fixed seed.
func DefaultConfig() ForestConfig {
	return ForestConfig{
		NumTrees:        100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

// Forest is a bagged ensemble of CART trees. Deterministic for a fixed
// config seed. Immutable once fitted; safe for concurrent prediction.
type Forest struct {
	cfg          ForestConfig
	trees        []*treeNode
	featureCount int
	trained      bool
}

// NewForest creates an untrained forest with the given hyperparameters.
func NewForest(cfg ForestConfig) *Forest {
	if cfg.NumTrees <= 0 {
		cfg.NumTrees = 100
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 10
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}
	return &Forest{cfg: cfg}
}

// Config returns the hyperparameters the forest was built with.
func (f *Forest) Config() ForestConfig { return f.cfg }

// Fit grows the ensemble from bootstrap samples of X. Tree seeds are drawn
// from the config seed up front so building is deterministic regardless of
// worker scheduling.
func (f *Forest) Fit(X [][]float64, y []int) error {
	if err := validateTrainingSet(X, y); err != nil {
		return err
	}

	n := len(X)
	f.featureCount = len(X[0])

	maxFeatures := f.cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(f.featureCount)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}
	params := treeParams{
		maxDepth:        f.cfg.MaxDepth,
		minSamplesSplit: f.cfg.MinSamplesSplit,
		minSamplesLeaf:  f.cfg.MinSamplesLeaf,
		maxFeatures:     maxFeatures,
	}

	master := rand.New(rand.NewSource(f.cfg.Seed))
	seeds := make([]int64, f.cfg.NumTrees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	f.trees = make([]*treeNode, f.cfg.NumTrees)

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	for t := 0; t < f.cfg.NumTrees; t++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(t int) {
			defer wg.Done()
			defer func() { <-sem }()
			rng := rand.New(rand.NewSource(seeds[t]))
			boot := make([]int, n)
			for i := range boot {
				boot[i] = rng.Intn(n)
			}
			f.trees[t] = buildTree(X, y, boot, params, rng)
		}(t)
	}
	wg.Wait()

	f.trained = true
	return nil
}

// Predict returns the majority-vote class per row.
func (f *Forest) Predict(X [][]float64) ([]int, error) {
	proba, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(proba))
	for i, p := range proba {
		if p[1] >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

// PredictProba averages per-tree leaf class fractions.
func (f *Forest) PredictProba(X [][]float64) ([][2]float64, error) {
	if !f.trained {
		return nil, ErrNotTrained
	}
	out := make([][2]float64, len(X))
	for i, row := range X {
		if len(row) != f.featureCount {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), f.featureCount)
		}
		var sum float64
		for _, tree := range f.trees {
			sum += tree.classify(row)
		}
		p1 := sum / float64(len(f.trees))
		out[i] = [2]float64{1 - p1, p1}
	}
	return out, nil
}

func validateTrainingSet(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	if len(X) != len(y) {
		return fmt.Errorf("feature rows (%d) and labels (%d) differ in length", len(X), len(y))
	}
	width := len(X[0])
	if width == 0 {
		return fmt.Errorf("feature rows are empty")
	}
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return fmt.Errorf("label %d at row %d is not binary", label, i)
		}
	}
	return nil
}
