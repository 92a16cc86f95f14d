package ml

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a CART tree. Fields are exported for gob.
type treeNode struct {
	Feature   int
	Threshold float64
	Left      *treeNode
	Right     *treeNode
	Leaf      bool
	PosFrac   float64
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
}

// buildTree grows a single CART tree over the rows named by idx using
// Gini impurity. Feature candidates at each split are subsampled through
// rng when maxFeatures is below the full feature count.
func buildTree(X [][]float64, y []int, idx []int, p treeParams, rng *rand.Rand) *treeNode {
	return growNode(X, y, idx, 0, p, rng)
}

func growNode(X [][]float64, y []int, idx []int, depth int, p treeParams, rng *rand.Rand) *treeNode {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	n := len(idx)
	frac := float64(pos) / float64(n)

	if depth >= p.maxDepth || n < p.minSamplesSplit || pos == 0 || pos == n {
		return &treeNode{Leaf: true, PosFrac: frac}
	}

	feature, threshold, ok := bestSplit(X, y, idx, p, rng)
	if !ok {
		return &treeNode{Leaf: true, PosFrac: frac}
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < p.minSamplesLeaf || len(right) < p.minSamplesLeaf {
		return &treeNode{Leaf: true, PosFrac: frac}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growNode(X, y, left, depth+1, p, rng),
		Right:     growNode(X, y, right, depth+1, p, rng),
	}
}

// bestSplit scans candidate features for the threshold minimizing weighted
// Gini impurity. Thresholds are midpoints between consecutive distinct
// values after sorting, so the split is invariant to value spacing.
func bestSplit(X [][]float64, y []int, idx []int, p treeParams, rng *rand.Rand) (int, float64, bool) {
	numFeatures := len(X[idx[0]])
	candidates := featureCandidates(numFeatures, p.maxFeatures, rng)

	n := len(idx)
	totalPos := 0
	for _, i := range idx {
		totalPos += y[i]
	}

	bestGini := gini(totalPos, n)
	bestFeature, bestThreshold := -1, 0.0
	found := false

	sorted := make([]int, n)
	for _, f := range candidates {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		leftPos := 0
		for i := 1; i < n; i++ {
			leftPos += y[sorted[i-1]]
			prev, cur := X[sorted[i-1]][f], X[sorted[i]][f]
			if prev == cur {
				continue
			}
			if i < p.minSamplesLeaf || n-i < p.minSamplesLeaf {
				continue
			}
			score := weightedGini(leftPos, i, totalPos-leftPos, n-i)
			if score < bestGini {
				bestGini = score
				bestFeature = f
				bestThreshold = (prev + cur) / 2
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

func featureCandidates(numFeatures, maxFeatures int, rng *rand.Rand) []int {
	if maxFeatures <= 0 || maxFeatures >= numFeatures {
		all := make([]int, numFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := rng.Perm(numFeatures)
	return perm[:maxFeatures]
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

func weightedGini(leftPos, leftN, rightPos, rightN int) float64 {
	total := float64(leftN + rightN)
	return float64(leftN)/total*gini(leftPos, leftN) + float64(rightN)/total*gini(rightPos, rightN)
}

// classify walks the tree and returns the positive-class fraction at the
// reached leaf.
func (t *treeNode) classify(vec []float64) float64 {
	node := t
	for !node.Leaf {
		if vec[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.PosFrac
}
