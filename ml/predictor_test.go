package ml

import (
	"math"
	"testing"
	"time"
)

func stubTrainer(values map[string]float64) *Trainer {
	trainer := &Trainer{
		scaler: &StandardScaler{Mean: []float64{0}, Std: []float64{1}},
	}
	for _, name := range []string{"a", "b", "c"} {
		if v, ok := values[name]; ok {
			trainer.trained = append(trainer.trained, trainedModel{
				name:  name,
				model: &stubModel{name: name, value: v},
			})
		}
	}
	return trainer
}

func TestPredictEnsembleStats(t *testing.T) {
	trainer := stubTrainer(map[string]float64{"a": 100, "b": 110})
	trainer.bestName = "a"

	lastDate := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	report, err := trainer.Predict([]float64{1}, lastDate, 3)
	if err != nil {
		t.Fatal(err)
	}

	if report.EnsemblePrediction != 105 {
		t.Errorf("expected ensemble mean 105, got %f", report.EnsemblePrediction)
	}
	if report.PredictionStd != 5 {
		t.Errorf("expected population std 5, got %f", report.PredictionStd)
	}
	if math.Abs(report.ConfidenceInterval-9.8) > 1e-9 {
		t.Errorf("expected CI 9.8, got %f", report.ConfidenceInterval)
	}
	if report.ConfidenceUpper != 105+report.ConfidenceInterval ||
		report.ConfidenceLower != 105-report.ConfidenceInterval {
		t.Errorf("confidence bounds inconsistent: %f %f", report.ConfidenceLower, report.ConfidenceUpper)
	}
	if report.BestModel != "a" {
		t.Errorf("expected best model a, got %s", report.BestModel)
	}
	if len(report.ModelPredictions) != 2 {
		t.Errorf("expected 2 model predictions, got %d", len(report.ModelPredictions))
	}
}

func TestPredictForecastDates(t *testing.T) {
	trainer := stubTrainer(map[string]float64{"a": 50})
	lastDate := time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)

	report, err := trainer.Predict([]float64{0}, lastDate, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2025-12-31", "2026-01-01", "2026-01-02", "2026-01-03"}
	if len(report.ForecastDates) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(report.ForecastDates))
	}
	for i := range want {
		if report.ForecastDates[i] != want[i] {
			t.Errorf("date[%d]: expected %s, got %s", i, want[i], report.ForecastDates[i])
		}
	}
	if report.PredictionDays != 4 {
		t.Errorf("expected prediction days 4, got %d", report.PredictionDays)
	}
}

func TestPredictNotTrained(t *testing.T) {
	trainer := NewTrainer()
	if _, err := trainer.Predict([]float64{1}, time.Now(), 5); err != ErrNotTrained {
		t.Errorf("expected ErrNotTrained, got %v", err)
	}
}

type nanModel struct{}

func (nanModel) Name() string                       { return "nan" }
func (nanModel) Fit([][]float64, []float64) error   { return nil }
func (nanModel) Predict([]float64) (float64, error) { return math.NaN(), nil }

func TestPredictDropsUnusableModels(t *testing.T) {
	trainer := &Trainer{
		scaler:  &StandardScaler{Mean: []float64{0}, Std: []float64{1}},
		trained: []trainedModel{{name: "nan", model: nanModel{}}},
	}
	if _, err := trainer.Predict([]float64{0}, time.Now(), 5); err != ErrNoUsablePrediction {
		t.Errorf("expected ErrNoUsablePrediction, got %v", err)
	}

	trainer.trained = append(trainer.trained, trainedModel{
		name: "ok", model: &stubModel{name: "ok", value: 10},
	})
	report, err := trainer.Predict([]float64{0}, time.Now(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := report.ModelPredictions["nan"]; ok {
		t.Error("NaN model should be dropped from the ensemble")
	}
	if report.EnsemblePrediction != 10 {
		t.Errorf("surviving model should carry the ensemble, got %f", report.EnsemblePrediction)
	}
}
