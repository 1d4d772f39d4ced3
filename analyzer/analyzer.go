// Package analyzer sequences the analysis pipeline: history fetch,
// indicator computation, signal generation and, on request, ensemble
// training and prediction. Instruments are processed one at a time;
// per-instrument failures become error records, never batch aborts.
package analyzer

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"stocklens/indicator"
	"stocklens/market"
	"stocklens/ml"
)

// Publisher receives batch progress events. monitoring.Hub satisfies it.
type Publisher interface {
	Publish(event string, payload interface{})
}

// Analyzer runs analyses against a history provider.
type Analyzer struct {
	provider market.HistoryProvider
	quotes   market.QuoteProvider
	log      *zap.SugaredLogger
	events   Publisher
}

// New creates an Analyzer. log may be nil.
func New(provider market.HistoryProvider, log *zap.SugaredLogger) *Analyzer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Analyzer{provider: provider, log: log}
}

// SetPublisher attaches a progress event sink for batch runs.
func (a *Analyzer) SetPublisher(p Publisher) { a.events = p }

// SetQuoteProvider attaches a realtime quote source for sentiment analysis.
func (a *Analyzer) SetQuoteProvider(q market.QuoteProvider) { a.quotes = q }

// AnalyzeStock analyzes one instrument. days bounds the history lookback;
// when withPrediction is set the ensemble is trained and a forecast for
// predictionDays is attached. A prediction failure downgrades to a report
// without forecast rather than failing the analysis.
func (a *Analyzer) AnalyzeStock(code string, days, predictionDays int, withPrediction bool) (*Report, error) {
	a.log.Infow("analyzing stock", "symbol", code, "days", days)

	bars, err := a.provider.History(code, days)
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", code, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch history for %s: %w", code, market.ErrNoData)
	}

	series, err := indicator.Compute(bars)
	if err != nil {
		return nil, fmt.Errorf("compute indicators for %s: %w", code, err)
	}

	latest := series.Latest()
	signals := indicator.GenerateSignals(latest)
	levels := indicator.SupportResistance(series, 20)
	trend := indicator.AnalyzeTrend(series)

	report := &Report{
		StockCode:    code,
		AnalysisDate: time.Now().Format("2006-01-02 15:04:05"),
		DataPeriod: fmt.Sprintf("%s to %s",
			series.Dates[0].Format("2006-01-02"),
			series.Dates[series.Len()-1].Format("2006-01-02")),
		CurrentPrice: latest.Close,
		PriceChange:  num(latest.PriceChange),
		Volume:       latest.Volume,
		TechnicalIndicators: TechnicalSnapshot{
			RSI:        num(latest.RSI),
			MACD:       num(latest.MACD),
			BBPosition: bbPosition(latest),
			MATrend:    maTrend(latest),
			KDJK:       num(latest.KDJK),
			KDJD:       num(latest.KDJD),
			KDJJ:       num(latest.KDJJ),
		},
		TradingSignals: TradingSignals{
			CurrentSignal:  signals.Overall,
			SignalStrength: signals.Strength,
			Signals:        signals.Signals,
		},
		SupportResistance: levels,
		Volatility: VolatilityInfo{
			CurrentVolatility: num(latest.Volatility),
			Trend:             trend,
		},
		Recommendation: Recommendation(signals),
		RiskAssessment: AssessRisk(latest),
	}

	if withPrediction {
		results, pred, err := a.predict(series, predictionDays)
		if err != nil {
			a.log.Warnw("prediction skipped", "symbol", code, "error", err)
		} else {
			pred.Symbol = code
			report.ModelResults = results
			report.Prediction = pred
		}
	}

	a.log.Infow("analysis complete", "symbol", code, "trend", trend,
		"signal", signals.Overall, "recommendation", report.Recommendation)
	return report, nil
}

// PredictStock trains the ensemble on an instrument's history and returns
// the forecast alone.
func (a *Analyzer) PredictStock(code string, days, predictionDays int) (*ml.PredictionReport, error) {
	bars, err := a.provider.History(code, days)
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", code, err)
	}
	series, err := indicator.Compute(bars)
	if err != nil {
		return nil, err
	}
	_, pred, err := a.predict(series, predictionDays)
	if err != nil {
		return nil, err
	}
	pred.Symbol = code
	return pred, nil
}

func (a *Analyzer) predict(series *indicator.Series, predictionDays int) (map[string]ml.ModelResult, *ml.PredictionReport, error) {
	if predictionDays <= 0 {
		predictionDays = 5
	}
	X, y, err := ml.BuildFeatures(series, predictionDays)
	if err != nil {
		return nil, nil, err
	}

	trainer := ml.NewTrainer()
	results := trainer.Train(X, y)
	for name, result := range results {
		if result.Err != "" {
			a.log.Warnw("model training failed", "model", name, "error", result.Err)
		}
	}

	latest, err := ml.LatestFeatures(series)
	if err != nil {
		return nil, nil, err
	}
	lastDate := series.Dates[series.Len()-1]
	pred, err := trainer.Predict(latest, lastDate, predictionDays)
	if err != nil {
		return nil, nil, err
	}
	return results, pred, nil
}

// BatchProgress is the payload published after each batch item.
type BatchProgress struct {
	Symbol    string `json:"symbol"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// BatchAnalyze runs the single-instrument path over codes sequentially.
// Every failure is converted into an error record so the batch always
// returns one entry per requested code.
func (a *Analyzer) BatchAnalyze(codes []string, days, predictionDays int, withPrediction bool) []*Report {
	reports := make([]*Report, 0, len(codes))
	for i, code := range codes {
		report, err := a.AnalyzeStock(code, days, predictionDays, withPrediction)
		if err != nil {
			a.log.Warnw("batch item failed", "symbol", code, "error", err)
			report = &Report{StockCode: code, Error: err.Error()}
		}
		reports = append(reports, report)

		if a.events != nil {
			a.events.Publish("batch_progress", BatchProgress{
				Symbol:    code,
				Index:     i + 1,
				Total:     len(codes),
				Succeeded: report.Error == "",
				Error:     report.Error,
			})
		}
	}
	return reports
}

// Recommendation maps the overall signal and its strength to advice text.
// Strength above 0.5 escalates buy/sell to the strong variant.
func Recommendation(signals indicator.SignalSet) string {
	switch {
	case signals.Overall == indicator.SignalBuy && signals.Strength > 0.5:
		return "strong buy: technical indicators show a strong buy signal"
	case signals.Overall == indicator.SignalBuy:
		return "buy: technical indicators show a buy signal"
	case signals.Overall == indicator.SignalSell && signals.Strength > 0.5:
		return "strong sell: technical indicators show a strong sell signal"
	case signals.Overall == indicator.SignalSell:
		return "sell: technical indicators show a sell signal"
	default:
		return "hold: technical indicators are neutral, stay on the sidelines"
	}
}

func bbPosition(row indicator.Row) float64 {
	if indicator.IsNA(row.BBUpper) || indicator.IsNA(row.BBLower) || row.BBUpper == row.BBLower {
		return 0
	}
	return (row.Close - row.BBLower) / (row.BBUpper - row.BBLower)
}

func maTrend(row indicator.Row) string {
	if indicator.IsNA(row.MA20) {
		return "unknown"
	}
	if row.Close > row.MA20 {
		return "bullish"
	}
	return "bearish"
}
