package ml

import "errors"

// ErrNotFitted is returned by Predict before a successful Fit.
var ErrNotFitted = errors.New("model not fitted")

// Regressor is one trainable model family.
type Regressor interface {
	Name() string
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) (float64, error)
}

// modelSpec pairs a family name with a constructor so cross-validation and
// retries always start from a fresh model.
type modelSpec struct {
	name  string
	build func() Regressor
}

// defaultRegistry lists the model families in the order they are trained and
// reported. Best-model ties resolve to the earliest entry, so this order is
// the deterministic tie-break.
func defaultRegistry() []modelSpec {
	return []modelSpec{
		{"random_forest", func() Regressor { return NewRandomForest(100, 10, randomSeed) }},
		{"gradient_boosting", func() Regressor { return NewGradientBoosting(100, 3, 0.1) }},
		{"linear_regression", func() Regressor { return NewLinearRegression() }},
		{"svr", func() Regressor { return NewKernelRidge(1.0) }},
		{"mlp", func() Regressor { return NewMLPRegressor([]int{100, 50}, 500, randomSeed) }},
	}
}

// randomSeed fixes every stochastic step (splits, bootstraps, weight init)
// for reproducible training runs.
const randomSeed int64 = 42
