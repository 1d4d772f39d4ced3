package ml

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrNotTrained is returned when Predict runs before a successful Train.
	ErrNotTrained = errors.New("no trained models, call Train first")
	// ErrNoUsablePrediction is returned when every model fails at inference.
	ErrNoUsablePrediction = errors.New("all model predictions failed")
)

// PredictionReport is the ensemble forecast for one instrument. All fields
// are plain JSON-serializable values.
type PredictionReport struct {
	Symbol             string             `json:"symbol,omitempty"`
	ModelPredictions   map[string]float64 `json:"model_predictions"`
	EnsemblePrediction float64            `json:"ensemble_prediction"`
	PredictionStd      float64            `json:"prediction_std"`
	ConfidenceInterval float64            `json:"confidence_interval"`
	ConfidenceUpper    float64            `json:"confidence_upper"`
	ConfidenceLower    float64            `json:"confidence_lower"`
	BestModel          string             `json:"best_model,omitempty"`
	PredictionDays     int                `json:"prediction_days"`
	ForecastDates      []string           `json:"forecast_dates"`
}

// Predict runs every trained model on the latest feature row and aggregates
// the surviving point predictions. Models that fail at inference are dropped
// from the ensemble; the call fails only when none survive.
func (t *Trainer) Predict(features []float64, lastDate time.Time, predictionDays int) (*PredictionReport, error) {
	if len(t.trained) == 0 {
		return nil, ErrNotTrained
	}
	if predictionDays <= 0 {
		predictionDays = 5
	}

	scaled, err := t.scaler.TransformRow(features)
	if err != nil {
		return nil, err
	}

	predictions := make(map[string]float64)
	values := make([]float64, 0, len(t.trained))
	for _, tm := range t.trained {
		v, err := safePredict(tm.model, scaled)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		predictions[tm.name] = v
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, ErrNoUsablePrediction
	}

	mean, std := meanStd(values)
	ci := 1.96 * std

	// calendar days, intentionally not trading-day aware
	dates := make([]string, predictionDays)
	for i := 0; i < predictionDays; i++ {
		dates[i] = lastDate.AddDate(0, 0, i+1).Format("2006-01-02")
	}

	return &PredictionReport{
		ModelPredictions:   predictions,
		EnsemblePrediction: mean,
		PredictionStd:      std,
		ConfidenceInterval: ci,
		ConfidenceUpper:    mean + ci,
		ConfidenceLower:    mean - ci,
		BestModel:          t.bestName,
		PredictionDays:     predictionDays,
		ForecastDates:      dates,
	}, nil
}

func safePredict(model Regressor, x []float64) (v float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("prediction panic")
		}
	}()
	return model.Predict(x)
}
