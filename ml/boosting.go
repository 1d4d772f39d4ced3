package ml

import "errors"

// GradientBoosting fits shallow regression trees to the running residuals
// and sums them with a learning rate, starting from the target mean.
type GradientBoosting struct {
	nEstimators  int
	maxDepth     int
	learningRate float64
	init         float64
	trees        []*regressionTree
}

// NewGradientBoosting creates an unfitted boosting model.
func NewGradientBoosting(nEstimators, maxDepth int, learningRate float64) *GradientBoosting {
	if nEstimators <= 0 {
		nEstimators = 100
	}
	if learningRate <= 0 {
		learningRate = 0.1
	}
	return &GradientBoosting{nEstimators: nEstimators, maxDepth: maxDepth, learningRate: learningRate}
}

func (gb *GradientBoosting) Name() string { return "gradient_boosting" }

func (gb *GradientBoosting) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("invalid training data")
	}

	sum := 0.0
	for _, v := range y {
		sum += v
	}
	gb.init = sum / float64(len(y))

	residual := make([]float64, len(y))
	for i := range y {
		residual[i] = y[i] - gb.init
	}

	gb.trees = make([]*regressionTree, 0, gb.nEstimators)
	for t := 0; t < gb.nEstimators; t++ {
		tree := newRegressionTree(gb.maxDepth, 1, 0)
		if err := tree.fit(X, residual, nil); err != nil {
			return err
		}
		gb.trees = append(gb.trees, tree)
		for i := range residual {
			v, err := tree.predict(X[i])
			if err != nil {
				return err
			}
			residual[i] -= gb.learningRate * v
		}
	}
	return nil
}

func (gb *GradientBoosting) Predict(x []float64) (float64, error) {
	if len(gb.trees) == 0 {
		return 0, ErrNotFitted
	}
	out := gb.init
	for _, tree := range gb.trees {
		v, err := tree.predict(x)
		if err != nil {
			return 0, err
		}
		out += gb.learningRate * v
	}
	return out, nil
}
