package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// ModelResult is the evaluation record for one model family. A family that
// failed during fit or evaluation carries only Err.
type ModelResult struct {
	MSE    float64 `json:"mse"`
	RMSE   float64 `json:"rmse"`
	R2     float64 `json:"r2"`
	CVMean float64 `json:"cv_mean"`
	CVStd  float64 `json:"cv_std"`
	Err    string  `json:"error,omitempty"`
}

type trainedModel struct {
	name  string
	model Regressor
}

// Trainer fits every model family in the registry, evaluates each on a
// seeded holdout split, and retains the fitted models and scaler for
// prediction. One Trainer serves one instrument; it is not safe for
// concurrent Train calls.
type Trainer struct {
	registry []modelSpec
	scaler   *StandardScaler
	trained  []trainedModel
	results  map[string]ModelResult
	bestName string
}

// NewTrainer creates a Trainer over the default model registry.
func NewTrainer() *Trainer {
	return &Trainer{registry: defaultRegistry()}
}

// Train fits all model families on X/y. Per-family failures are recorded in
// the result map and excluded from selection; they never abort the siblings.
// Empty input returns an empty map without touching any model.
func (t *Trainer) Train(X [][]float64, y []float64) map[string]ModelResult {
	t.trained = nil
	t.bestName = ""
	t.results = make(map[string]ModelResult)
	if len(X) == 0 || len(y) == 0 {
		return t.results
	}

	trainX, trainY, testX, testY := splitTrainTest(X, y, 0.2, randomSeed)

	t.scaler = &StandardScaler{}
	if err := t.scaler.Fit(trainX); err != nil {
		return t.results
	}
	trainScaled, _ := t.scaler.Transform(trainX)
	testScaled, _ := t.scaler.Transform(testX)

	bestCV := math.Inf(-1)
	for _, spec := range t.registry {
		result, model := t.evaluate(spec, trainScaled, trainY, testScaled, testY)
		t.results[spec.name] = result
		if result.Err != "" {
			continue
		}
		t.trained = append(t.trained, trainedModel{name: spec.name, model: model})
		if result.CVMean > bestCV {
			bestCV = result.CVMean
			t.bestName = spec.name
		}
	}
	return t.results
}

// evaluate trains and scores one family, converting panics into an error
// record so a misbehaving model cannot take down the run.
func (t *Trainer) evaluate(spec modelSpec, trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) (result ModelResult, model Regressor) {
	defer func() {
		if r := recover(); r != nil {
			result = ModelResult{Err: fmt.Sprintf("panic: %v", r)}
			model = nil
		}
	}()

	model = spec.build()
	if err := model.Fit(trainX, trainY); err != nil {
		return ModelResult{Err: err.Error()}, nil
	}

	preds := make([]float64, len(testX))
	for i := range testX {
		v, err := model.Predict(testX[i])
		if err != nil {
			return ModelResult{Err: err.Error()}, nil
		}
		preds[i] = v
	}

	mse := MeanSquaredError(testY, preds)
	cvMean, cvStd, err := crossValidate(spec, trainX, trainY, 5)
	if err != nil {
		return ModelResult{Err: err.Error()}, nil
	}

	return ModelResult{
		MSE:    mse,
		RMSE:   math.Sqrt(mse),
		R2:     R2Score(testY, preds),
		CVMean: cvMean,
		CVStd:  cvStd,
	}, model
}

// BestModel returns the family with the highest cross-validated R2 mean.
// Ties keep the earliest registry entry.
func (t *Trainer) BestModel() (string, Regressor, bool) {
	if t.bestName == "" {
		return "", nil, false
	}
	for _, tm := range t.trained {
		if tm.name == t.bestName {
			return tm.name, tm.model, true
		}
	}
	return "", nil, false
}

// Results returns the evaluation records of the last Train call.
func (t *Trainer) Results() map[string]ModelResult { return t.results }

// splitTrainTest shuffles deterministically and holds out testRatio of the
// rows for evaluation.
func splitTrainTest(X [][]float64, y []float64, testRatio float64, seed int64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	n := len(X)
	indices := rand.New(rand.NewSource(seed)).Perm(n)

	testN := int(float64(n) * testRatio)
	if testN < 1 && n > 1 {
		testN = 1
	}
	trainN := n - testN

	for i, idx := range indices {
		if i < trainN {
			trainX = append(trainX, X[idx])
			trainY = append(trainY, y[idx])
		} else {
			testX = append(testX, X[idx])
			testY = append(testY, y[idx])
		}
	}
	return trainX, trainY, testX, testY
}

// crossValidate runs k-fold validation with contiguous folds (no shuffling;
// the training split is already shuffled) and returns the mean and
// population std of the per-fold R2 scores.
func crossValidate(spec modelSpec, X [][]float64, y []float64, folds int) (float64, float64, error) {
	n := len(X)
	if n < folds {
		return 0, 0, fmt.Errorf("cannot run %d-fold cv on %d samples", folds, n)
	}

	scores := make([]float64, 0, folds)
	foldSize := n / folds
	extra := n % folds
	start := 0
	for f := 0; f < folds; f++ {
		size := foldSize
		if f < extra {
			size++
		}
		end := start + size

		var trainX [][]float64
		var trainY []float64
		for i := 0; i < n; i++ {
			if i >= start && i < end {
				continue
			}
			trainX = append(trainX, X[i])
			trainY = append(trainY, y[i])
		}

		model := spec.build()
		if err := model.Fit(trainX, trainY); err != nil {
			return 0, 0, err
		}

		preds := make([]float64, 0, size)
		for i := start; i < end; i++ {
			v, err := model.Predict(X[i])
			if err != nil {
				return 0, 0, err
			}
			preds = append(preds, v)
		}
		scores = append(scores, R2Score(y[start:end], preds))
		start = end
	}

	mean, std := meanStd(scores)
	return mean, std, nil
}
