package ml

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// separableSet builds a trivially learnable set: label is 1 when the
// first feature clears 0.6 with a margin around the boundary left empty.
func separableSet(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 4)
		for j := range row {
			row[j] = rng.Float64()
		}
		if i%2 == 0 {
			row[0] = 0.7 + 0.3*rng.Float64()
			y[i] = 1
		} else {
			row[0] = 0.5 * rng.Float64()
			y[i] = 0
		}
		X[i] = row
	}
	return X, y
}

func TestForestNotTrained(t *testing.T) {
	f := NewForest(DefaultConfig())

	if _, err := f.Predict([][]float64{{1, 2, 3, 4}}); !errors.Is(err, ErrNotTrained) {
		t.Errorf("Predict before Fit: got %v, want ErrNotTrained", err)
	}
	if _, err := f.PredictProba([][]float64{{1, 2, 3, 4}}); !errors.Is(err, ErrNotTrained) {
		t.Errorf("PredictProba before Fit: got %v, want ErrNotTrained", err)
	}
}

func TestForestFitValidation(t *testing.T) {
	testCases := []struct {
		name string
		X    [][]float64
		y    []int
	}{
		{"empty set", [][]float64{}, []int{}},
		{"length mismatch", [][]float64{{1, 2}}, []int{0, 1}},
		{"ragged rows", [][]float64{{1, 2}, {1}}, []int{0, 1}},
		{"non-binary label", [][]float64{{1, 2}, {3, 4}}, []int{0, 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewForest(ForestConfig{NumTrees: 3, MaxDepth: 3})
			if err := f.Fit(tc.X, tc.y); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestForestLearnsSeparableData(t *testing.T) {
	X, y := separableSet(200, 7)

	f := NewForest(ForestConfig{NumTrees: 25, MaxDepth: 5, MinSamplesSplit: 2, MinSamplesLeaf: 1, Seed: 42})
	if err := f.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	holdout, wantLabels := separableSet(100, 99)
	pred, err := f.Predict(holdout)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	correct := 0
	for i := range pred {
		if pred[i] == wantLabels[i] {
			correct++
		}
	}
	acc := float64(correct) / float64(len(pred))
	if acc < 0.9 {
		t.Errorf("holdout accuracy %.3f, expected at least 0.9 on separable data", acc)
	}
}

func TestForestProbaRowsSumToOne(t *testing.T) {
	X, y := separableSet(120, 3)
	f := NewForest(ForestConfig{NumTrees: 15, MaxDepth: 4, Seed: 1})
	if err := f.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	proba, err := f.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	for i, p := range proba {
		sum := p[0] + p[1]
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("row %d probabilities sum to %v, want 1.0", i, sum)
		}
		if p[1] < 0 || p[1] > 1 {
			t.Errorf("row %d positive probability %v outside [0,1]", i, p[1])
		}
	}
}

func TestForestDeterministicForSeed(t *testing.T) {
	X, y := separableSet(150, 11)

	cfg := ForestConfig{NumTrees: 20, MaxDepth: 5, Seed: 42}
	a := NewForest(cfg)
	b := NewForest(cfg)
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit a failed: %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit b failed: %v", err)
	}

	pa, err := a.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba a failed: %v", err)
	}
	pb, err := b.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba b failed: %v", err)
	}

	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("row %d diverged between identically seeded forests: %v vs %v", i, pa[i], pb[i])
		}
	}
}

func TestForestRejectsWrongWidth(t *testing.T) {
	X, y := separableSet(80, 5)
	f := NewForest(ForestConfig{NumTrees: 5, MaxDepth: 3, Seed: 2})
	if err := f.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if _, err := f.PredictProba([][]float64{{1, 2}}); err == nil {
		t.Error("expected error for wrong feature width, got nil")
	}
}

func TestForestConcurrentPredict(t *testing.T) {
	X, y := separableSet(100, 13)
	f := NewForest(ForestConfig{NumTrees: 10, MaxDepth: 4, Seed: 8})
	if err := f.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	done := make(chan bool, 8)
	for g := 0; g < 8; g++ {
		go func() {
			for i := 0; i < 20; i++ {
				if _, err := f.PredictProba(X[:10]); err != nil {
					t.Errorf("concurrent PredictProba failed: %v", err)
				}
			}
			done <- true
		}()
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}

func TestConfigForModelType(t *testing.T) {
	testCases := []struct {
		name      string
		modelType string
		overrides map[string]any
		wantTrees int
		wantDepth int
		wantErr   bool
	}{
		{"baseline", "baseline", nil, 100, 10, false},
		{"advanced", "advanced", nil, 200, 15, false},
		{"comprehensive maps to advanced family", "comprehensive", nil, 200, 15, false},
		{"override trees", "baseline", map[string]any{"num_trees": 50}, 50, 10, false},
		{"sklearn alias", "baseline", map[string]any{"n_estimators": float64(75)}, 75, 10, false},
		{"unknown type", "quantum", nil, 0, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ConfigForModelType(tc.modelType, tc.overrides)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownModelType) {
					t.Errorf("got %v, want ErrUnknownModelType", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.NumTrees != tc.wantTrees {
				t.Errorf("NumTrees = %d, want %d", cfg.NumTrees, tc.wantTrees)
			}
			if cfg.MaxDepth != tc.wantDepth {
				t.Errorf("MaxDepth = %d, want %d", cfg.MaxDepth, tc.wantDepth)
			}
		})
	}
}

func BenchmarkForestPredictProba(b *testing.B) {
	X, y := separableSet(500, 21)
	f := NewForest(ForestConfig{NumTrees: 50, MaxDepth: 8, Seed: 42})
	if err := f.Fit(X, y); err != nil {
		b.Fatalf("Fit failed: %v", err)
	}
	row := [][]float64{X[0]}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.PredictProba(row); err != nil {
			b.Fatal(err)
		}
	}
}
