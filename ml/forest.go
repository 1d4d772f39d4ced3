package ml

import (
	"errors"
	"math/rand"
)

// RandomForest averages bootstrap-trained regression trees with per-split
// feature subsampling.
type RandomForest struct {
	nEstimators int
	maxDepth    int
	seed        int64
	trees       []*regressionTree
}

// NewRandomForest creates an unfitted forest.
func NewRandomForest(nEstimators, maxDepth int, seed int64) *RandomForest {
	if nEstimators <= 0 {
		nEstimators = 100
	}
	return &RandomForest{nEstimators: nEstimators, maxDepth: maxDepth, seed: seed}
}

func (rf *RandomForest) Name() string { return "random_forest" }

func (rf *RandomForest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("invalid training data")
	}
	rng := rand.New(rand.NewSource(rf.seed))
	n := len(X)
	p := len(X[0])
	maxFeatures := p / 3
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	rf.trees = make([]*regressionTree, 0, rf.nEstimators)
	sampleX := make([][]float64, n)
	sampleY := make([]float64, n)
	for t := 0; t < rf.nEstimators; t++ {
		for i := 0; i < n; i++ {
			idx := rng.Intn(n)
			sampleX[i] = X[idx]
			sampleY[i] = y[idx]
		}
		tree := newRegressionTree(rf.maxDepth, 1, maxFeatures)
		if err := tree.fit(sampleX, sampleY, rng); err != nil {
			return err
		}
		rf.trees = append(rf.trees, tree)
	}
	return nil
}

func (rf *RandomForest) Predict(x []float64) (float64, error) {
	if len(rf.trees) == 0 {
		return 0, ErrNotFitted
	}
	sum := 0.0
	for _, tree := range rf.trees {
		v, err := tree.predict(x)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(len(rf.trees)), nil
}
