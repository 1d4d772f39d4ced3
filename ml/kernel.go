package ml

import (
	"errors"
	"math"
)

// KernelRidge is ridge regression in an RBF kernel space. It fills the svr
// slot of the ensemble: same RBF geometry, but with a closed-form, fully
// deterministic solve instead of an epsilon-insensitive optimizer.
type KernelRidge struct {
	alpha float64
	gamma float64
	train [][]float64
	coefs []float64
	yMean float64
}

// NewKernelRidge creates an unfitted kernel model with regularization alpha.
func NewKernelRidge(alpha float64) *KernelRidge {
	if alpha <= 0 {
		alpha = 1.0
	}
	return &KernelRidge{alpha: alpha}
}

func (kr *KernelRidge) Name() string { return "svr" }

func (kr *KernelRidge) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("invalid training data")
	}
	n := len(X)
	p := len(X[0])

	// gamma follows the sklearn "scale" convention: 1 / (p * var(X))
	variance := matrixVariance(X)
	if variance == 0 {
		variance = 1
	}
	kr.gamma = 1 / (float64(p) * variance)

	kr.yMean = 0
	for _, v := range y {
		kr.yMean += v
	}
	kr.yMean /= float64(n)

	k := make([][]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		k[i] = make([]float64, n)
		b[i] = y[i] - kr.yMean
		for j := 0; j < n; j++ {
			k[i][j] = rbf(X[i], X[j], kr.gamma)
		}
		k[i][i] += kr.alpha
	}

	coefs, err := solveLinear(k, b)
	if err != nil {
		return err
	}

	kr.train = make([][]float64, n)
	for i := range X {
		row := make([]float64, p)
		copy(row, X[i])
		kr.train[i] = row
	}
	kr.coefs = coefs
	return nil
}

func (kr *KernelRidge) Predict(x []float64) (float64, error) {
	if kr.coefs == nil {
		return 0, ErrNotFitted
	}
	out := kr.yMean
	for i, xi := range kr.train {
		out += kr.coefs[i] * rbf(x, xi, kr.gamma)
	}
	return out, nil
}

func rbf(a, b []float64, gamma float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Exp(-gamma * sum)
}

// matrixVariance is the population variance over every matrix element.
func matrixVariance(X [][]float64) float64 {
	count := 0
	sum := 0.0
	for i := range X {
		for _, v := range X[i] {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	mean := sum / float64(count)
	variance := 0.0
	for i := range X {
		for _, v := range X[i] {
			variance += (v - mean) * (v - mean)
		}
	}
	return variance / float64(count)
}
