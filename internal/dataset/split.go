package dataset

import (
	"fmt"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions rows into train and test sets while keeping
// the class ratio of y in both. The shuffle is seeded so the same inputs
// always split the same way.
func StratifiedSplit(X [][]float64, y []int, testFrac float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int, err error) {
	if len(X) != len(y) {
		return nil, nil, nil, nil, fmt.Errorf("feature rows (%d) and labels (%d) differ in length", len(X), len(y))
	}
	if len(X) < 2 {
		return nil, nil, nil, nil, fmt.Errorf("need at least 2 rows to split, have %d", len(X))
	}
	if testFrac <= 0 || testFrac >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("test fraction %g outside (0, 1)", testFrac)
	}

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for _, label := range sortedClasses(byClass) {
		idx := byClass[label]
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

		nTest := int(float64(len(idx))*testFrac + 0.5)
		if nTest == 0 && len(idx) > 1 {
			nTest = 1
		}
		if nTest == len(idx) {
			nTest--
		}
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}

	// Interleave classes so neither set is block-ordered by label.
	rng.Shuffle(len(trainIdx), func(a, b int) { trainIdx[a], trainIdx[b] = trainIdx[b], trainIdx[a] })
	rng.Shuffle(len(testIdx), func(a, b int) { testIdx[a], testIdx[b] = testIdx[b], testIdx[a] })

	trainX, trainY = gather(X, y, trainIdx)
	testX, testY = gather(X, y, testIdx)
	return trainX, trainY, testX, testY, nil
}

func sortedClasses(byClass map[int][]int) []int {
	classes := make([]int, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	sort.Ints(classes)
	return classes
}

func gather(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	outX := make([][]float64, len(idx))
	outY := make([]int, len(idx))
	for i, j := range idx {
		outX[i] = X[j]
		outY[i] = y[j]
	}
	return outX, outY
}
