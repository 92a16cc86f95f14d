package dataset

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"burnout-radar/internal/features"
)

// Synthesize generates n labeled rows from the reference distributions.
// The same seed always yields the same dataset. Feature order matches
// features.Names.
func Synthesize(n int, seed int64) ([][]float64, []int) {
	src := rand.NewSource(uint64(seed))
	hours := distuv.Normal{Mu: 45, Sigma: 10, Src: src}
	meetings := distuv.Normal{Mu: 15, Sigma: 5, Src: src}
	emails := distuv.Normal{Mu: 25, Sigma: 10, Src: src}
	stress := distuv.Normal{Mu: 6, Sigma: 2, Src: src}
	workload := distuv.Normal{Mu: 6.5, Sigma: 2, Src: src}
	balance := distuv.Normal{Mu: 5, Sigma: 2, Src: src}
	team := distuv.Poisson{Lambda: 8, Src: src}
	remote := distuv.Uniform{Min: 0, Max: 100, Src: src}
	overtime := distuv.Exponential{Rate: 1.0 / 5, Src: src}
	deadline := distuv.Normal{Mu: 6, Sigma: 2, Src: src}
	noise := distuv.Normal{Mu: 0, Sigma: 0.1, Src: src}

	X := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		wh := clip(hours.Rand(), 20, 80)
		mh := clip(meetings.Rand(), 0, 40)
		em := clip(emails.Rand(), 0, 100)
		st := clip(stress.Rand(), 1, 10)
		wl := clip(workload.Rand(), 1, 10)
		wb := clip(balance.Rand(), 1, 10)
		ts := clip(team.Rand(), 1, 20)
		rp := remote.Rand()
		ot := clip(overtime.Rand(), 0, 40)
		dp := clip(deadline.Rand(), 1, 10)

		X[i] = []float64{wh, mh, em, st, wl, wb, ts, rp, ot, dp}

		score := (wh-40)/40*0.2 +
			(st-5)/5*0.25 +
			(wl-5)/5*0.2 +
			(5-wb)/5*0.15 +
			ot/20*0.1 +
			(dp-5)/5*0.1 +
			noise.Rand()
		if score > 0.5 {
			y[i] = 1
		}
	}
	return X, y
}

// SyntheticEval builds the evaluation fallback set: uniform features in
// [0,1) with labels from the derivation rule.
func SyntheticEval(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(uint64(seed)))
	X := make([][]float64, n)
	for i := range X {
		row := make([]float64, features.Count)
		for j := range row {
			row[j] = rng.Float64()
		}
		X[i] = row
	}
	return X, DeriveLabels(X)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
