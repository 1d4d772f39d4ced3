package ml

import (
	"errors"
	"math"
)

// ErrScalerNotFitted is returned when Transform runs before Fit.
var ErrScalerNotFitted = errors.New("scaler not fitted")

// StandardScaler standardizes features to zero mean and unit variance.
// It is fitted on the training split only and reused for the test split and
// for inference, so no information leaks across the evaluation boundary.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// Fit computes per-column mean and population standard deviation.
func (sc *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return errors.New("cannot fit scaler on empty matrix")
	}
	p := len(X[0])
	sc.Mean = make([]float64, p)
	sc.Std = make([]float64, p)

	for j := 0; j < p; j++ {
		sum := 0.0
		for i := range X {
			sum += X[i][j]
		}
		sc.Mean[j] = sum / float64(len(X))
	}
	for j := 0; j < p; j++ {
		variance := 0.0
		for i := range X {
			d := X[i][j] - sc.Mean[j]
			variance += d * d
		}
		sc.Std[j] = math.Sqrt(variance / float64(len(X)))
		if sc.Std[j] == 0 {
			sc.Std[j] = 1 // constant column, leave centered at zero
		}
	}
	return nil
}

// Transform standardizes a matrix with the fitted statistics.
func (sc *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if sc.Mean == nil {
		return nil, ErrScalerNotFitted
	}
	out := make([][]float64, len(X))
	for i := range X {
		row, err := sc.TransformRow(X[i])
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// TransformRow standardizes a single feature row.
func (sc *StandardScaler) TransformRow(x []float64) ([]float64, error) {
	if sc.Mean == nil {
		return nil, ErrScalerNotFitted
	}
	if len(x) != len(sc.Mean) {
		return nil, errors.New("feature width mismatch")
	}
	out := make([]float64, len(x))
	for j := range x {
		out[j] = (x[j] - sc.Mean[j]) / sc.Std[j]
	}
	return out, nil
}
