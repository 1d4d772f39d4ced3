package ml

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// regressionTree is a CART-style tree minimizing within-node squared error.
// It is the shared building block of the forest and boosting families.
type regressionTree struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int // 0 means use all features
	root        *treeNode
}

type treeNode struct {
	featureIdx int
	threshold  float64
	left       *treeNode
	right      *treeNode
	value      float64
	isLeaf     bool
}

func newRegressionTree(maxDepth, minLeaf, maxFeatures int) *regressionTree {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	if minLeaf <= 0 {
		minLeaf = 1
	}
	return &regressionTree{maxDepth: maxDepth, minLeaf: minLeaf, maxFeatures: maxFeatures}
}

func (t *regressionTree) fit(X [][]float64, y []float64, rng *rand.Rand) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("invalid training data")
	}
	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}
	t.root = t.build(X, y, indices, 0, rng)
	return nil
}

func (t *regressionTree) build(X [][]float64, y []float64, indices []int, depth int, rng *rand.Rand) *treeNode {
	leaf := &treeNode{value: meanAt(y, indices), isLeaf: true}
	if depth >= t.maxDepth || len(indices) < 2*t.minLeaf {
		return leaf
	}

	feature, threshold, ok := t.bestSplit(X, y, indices, rng)
	if !ok {
		return leaf
	}

	var left, right []int
	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < t.minLeaf || len(right) < t.minLeaf {
		return leaf
	}

	return &treeNode{
		featureIdx: feature,
		threshold:  threshold,
		left:       t.build(X, y, left, depth+1, rng),
		right:      t.build(X, y, right, depth+1, rng),
	}
}

// bestSplit scans sorted feature values with prefix sums so each candidate
// feature costs O(n log n).
func (t *regressionTree) bestSplit(X [][]float64, y []float64, indices []int, rng *rand.Rand) (int, float64, bool) {
	p := len(X[indices[0]])
	features := make([]int, p)
	for i := range features {
		features[i] = i
	}
	if t.maxFeatures > 0 && t.maxFeatures < p && rng != nil {
		rng.Shuffle(p, func(i, j int) { features[i], features[j] = features[j], features[i] })
		features = features[:t.maxFeatures]
	}

	bestFeature := -1
	bestThreshold := 0.0
	bestScore := math.Inf(1)

	n := len(indices)
	sorted := make([]int, n)
	for _, feature := range features {
		copy(sorted, indices)
		sort.Slice(sorted, func(i, j int) bool {
			return X[sorted[i]][feature] < X[sorted[j]][feature]
		})

		totalSum := 0.0
		totalSq := 0.0
		for _, idx := range sorted {
			totalSum += y[idx]
			totalSq += y[idx] * y[idx]
		}

		leftSum := 0.0
		leftSq := 0.0
		for i := 0; i < n-1; i++ {
			idx := sorted[i]
			leftSum += y[idx]
			leftSq += y[idx] * y[idx]

			v := X[idx][feature]
			next := X[sorted[i+1]][feature]
			if v == next {
				continue
			}
			leftN := float64(i + 1)
			rightN := float64(n - i - 1)
			if int(leftN) < t.minLeaf || int(rightN) < t.minLeaf {
				continue
			}
			// within-node SSE on both sides
			score := (leftSq - leftSum*leftSum/leftN) +
				((totalSq - leftSq) - (totalSum-leftSum)*(totalSum-leftSum)/rightN)
			if score < bestScore {
				bestScore = score
				bestFeature = feature
				bestThreshold = (v + next) / 2
			}
		}
	}

	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func (t *regressionTree) predict(x []float64) (float64, error) {
	node := t.root
	if node == nil {
		return 0, ErrNotFitted
	}
	for !node.isLeaf {
		if node.featureIdx >= len(x) {
			return 0, errors.New("feature index out of range")
		}
		if x[node.featureIdx] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value, nil
}

func meanAt(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, idx := range indices {
		sum += y[idx]
	}
	return sum / float64(len(indices))
}
