package ml

import (
	"errors"
	"math"
	"math/rand"
)

// MLPRegressor is a small feed-forward network with ReLU hidden layers and a
// linear output, trained by full-batch gradient descent with momentum. The
// target is standardized internally so the learning rate is independent of
// the price scale.
type MLPRegressor struct {
	hidden  []int
	maxIter int
	lr      float64
	seed    int64

	weights [][][]float64 // [layer][out][in]
	biases  [][]float64
	yMean   float64
	yStd    float64
	fitted  bool
}

// NewMLPRegressor creates an unfitted network with the given hidden sizes.
func NewMLPRegressor(hidden []int, maxIter int, seed int64) *MLPRegressor {
	if len(hidden) == 0 {
		hidden = []int{100, 50}
	}
	if maxIter <= 0 {
		maxIter = 500
	}
	return &MLPRegressor{hidden: hidden, maxIter: maxIter, lr: 0.001, seed: seed}
}

func (m *MLPRegressor) Name() string { return "mlp" }

func (m *MLPRegressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("invalid training data")
	}
	p := len(X[0])
	rng := rand.New(rand.NewSource(m.seed))

	sizes := append([]int{p}, m.hidden...)
	sizes = append(sizes, 1)
	layers := len(sizes) - 1

	m.weights = make([][][]float64, layers)
	m.biases = make([][]float64, layers)
	velocityW := make([][][]float64, layers)
	velocityB := make([][]float64, layers)
	for l := 0; l < layers; l++ {
		fanIn, fanOut := sizes[l], sizes[l+1]
		bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
		m.weights[l] = make([][]float64, fanOut)
		velocityW[l] = make([][]float64, fanOut)
		m.biases[l] = make([]float64, fanOut)
		velocityB[l] = make([]float64, fanOut)
		for o := 0; o < fanOut; o++ {
			m.weights[l][o] = make([]float64, fanIn)
			velocityW[l][o] = make([]float64, fanIn)
			for i := 0; i < fanIn; i++ {
				m.weights[l][o][i] = (rng.Float64()*2 - 1) * bound
			}
		}
	}

	// standardize target
	m.yMean, m.yStd = meanStd(y)
	if m.yStd == 0 {
		m.yStd = 1
	}
	target := make([]float64, len(y))
	for i := range y {
		target[i] = (y[i] - m.yMean) / m.yStd
	}

	n := float64(len(X))
	const momentum = 0.9
	for iter := 0; iter < m.maxIter; iter++ {
		gradW := zerosLike(m.weights)
		gradB := zerosLikeVec(m.biases)

		for i := range X {
			activations, preacts := m.forward(X[i])
			// output delta for squared loss
			delta := []float64{activations[layers][0] - target[i]}

			for l := layers - 1; l >= 0; l-- {
				for o := range m.weights[l] {
					gradB[l][o] += delta[o]
					for in := range m.weights[l][o] {
						gradW[l][o][in] += delta[o] * activations[l][in]
					}
				}
				if l == 0 {
					break
				}
				prev := make([]float64, len(activations[l]))
				for in := range prev {
					sum := 0.0
					for o := range delta {
						sum += delta[o] * m.weights[l][o][in]
					}
					if preacts[l-1][in] <= 0 {
						sum = 0 // ReLU gradient
					}
					prev[in] = sum
				}
				delta = prev
			}
		}

		for l := range m.weights {
			for o := range m.weights[l] {
				velocityB[l][o] = momentum*velocityB[l][o] - m.lr*gradB[l][o]/n
				m.biases[l][o] += velocityB[l][o]
				for in := range m.weights[l][o] {
					velocityW[l][o][in] = momentum*velocityW[l][o][in] - m.lr*gradW[l][o][in]/n
					m.weights[l][o][in] += velocityW[l][o][in]
				}
			}
		}
	}

	m.fitted = true
	return nil
}

func (m *MLPRegressor) Predict(x []float64) (float64, error) {
	if !m.fitted {
		return 0, ErrNotFitted
	}
	activations, _ := m.forward(x)
	out := activations[len(activations)-1][0]
	return out*m.yStd + m.yMean, nil
}

// forward returns per-layer activations (input included) and hidden-layer
// pre-activations for backprop.
func (m *MLPRegressor) forward(x []float64) ([][]float64, [][]float64) {
	layers := len(m.weights)
	activations := make([][]float64, layers+1)
	preacts := make([][]float64, layers)
	activations[0] = x

	for l := 0; l < layers; l++ {
		out := make([]float64, len(m.weights[l]))
		for o := range m.weights[l] {
			sum := m.biases[l][o]
			for in, w := range m.weights[l][o] {
				sum += w * activations[l][in]
			}
			out[o] = sum
		}
		preacts[l] = out
		if l < layers-1 {
			act := make([]float64, len(out))
			for i, v := range out {
				if v > 0 {
					act[i] = v
				}
			}
			activations[l+1] = act
		} else {
			activations[l+1] = out
		}
	}
	return activations, preacts
}

func meanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))
	variance := 0.0
	for _, v := range data {
		variance += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(variance / float64(len(data)))
}

func zerosLike(w [][][]float64) [][][]float64 {
	out := make([][][]float64, len(w))
	for l := range w {
		out[l] = make([][]float64, len(w[l]))
		for o := range w[l] {
			out[l][o] = make([]float64, len(w[l][o]))
		}
	}
	return out
}

func zerosLikeVec(b [][]float64) [][]float64 {
	out := make([][]float64, len(b))
	for l := range b {
		out[l] = make([]float64, len(b[l]))
	}
	return out
}
