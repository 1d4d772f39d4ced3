package ml

import (
	"errors"
	"math"
)

// LinearRegression is ordinary least squares solved through the normal
// equations, with a tiny ridge term on the diagonal for numerical stability
// when features are collinear.
type LinearRegression struct {
	coef      []float64
	intercept float64
}

// NewLinearRegression creates an unfitted linear model.
func NewLinearRegression() *LinearRegression { return &LinearRegression{} }

func (lr *LinearRegression) Name() string { return "linear_regression" }

func (lr *LinearRegression) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("invalid training data")
	}
	p := len(X[0])

	// augment with an intercept column
	dim := p + 1
	a := make([][]float64, dim)
	b := make([]float64, dim)
	for i := range a {
		a[i] = make([]float64, dim)
	}

	row := make([]float64, dim)
	for i := range X {
		copy(row, X[i])
		row[p] = 1
		for j := 0; j < dim; j++ {
			b[j] += row[j] * y[i]
			for k := 0; k < dim; k++ {
				a[j][k] += row[j] * row[k]
			}
		}
	}
	for j := 0; j < dim; j++ {
		a[j][j] += 1e-8
	}

	beta, err := solveLinear(a, b)
	if err != nil {
		return err
	}
	lr.coef = beta[:p]
	lr.intercept = beta[p]
	return nil
}

func (lr *LinearRegression) Predict(x []float64) (float64, error) {
	if lr.coef == nil {
		return 0, ErrNotFitted
	}
	if len(x) != len(lr.coef) {
		return 0, errors.New("feature width mismatch")
	}
	out := lr.intercept
	for j := range x {
		out += lr.coef[j] * x[j]
	}
	return out, nil
}

// solveLinear solves a*x = b by Gaussian elimination with partial pivoting.
// a and b are modified in place.
func solveLinear(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errors.New("singular matrix")
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			if factor == 0 {
				continue
			}
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}
