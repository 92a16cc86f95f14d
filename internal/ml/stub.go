package ml

import (
	"math/rand"
	"sync"
)

// StubVersion is the version string reported when predictions come from
// the stub rather than a trained model.
const StubVersion = "stub"

// Stub satisfies Classifier with uniform-random probabilities. It exists
// so environments with no trained model yet stay available in a clearly
// degraded mode; it is never a substitute for a trained model in
// evaluation.
type Stub struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStub returns a stub classifier with a deterministic seed.
func NewStub(seed int64) *Stub {
	return &Stub{rng: rand.New(rand.NewSource(seed))}
}

// Fit is a no-op; the stub has nothing to learn.
func (s *Stub) Fit(X [][]float64, y []int) error { return nil }

// Predict returns random classes.
func (s *Stub) Predict(X [][]float64) ([]int, error) {
	proba, err := s.PredictProba(X)
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

// PredictProba returns normalized random probability pairs.
func (s *Stub) PredictProba(X [][]float64) ([][2]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][2]float64, len(X))
	for i := range X {
		a, b := s.rng.Float64(), s.rng.Float64()
		total := a + b
		if total == 0 {
			total = 1
			a = 0.5
		}
		out[i] = [2]float64{a / total, b / total}
	}
	return out, nil
}
