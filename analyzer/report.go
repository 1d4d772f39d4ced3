package analyzer

import (
	"stocklens/indicator"
	"stocklens/ml"
)

// TechnicalSnapshot carries the latest indicator values surfaced in a
// report. Values whose lookback window is not filled yet appear as 0, the
// report stays JSON-serializable either way.
type TechnicalSnapshot struct {
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	BBPosition float64 `json:"bb_position"`
	MATrend    string  `json:"ma_trend"`
	KDJK       float64 `json:"kdj_k"`
	KDJD       float64 `json:"kdj_d"`
	KDJJ       float64 `json:"kdj_j"`
}

// TradingSignals is the signal block of a report.
type TradingSignals struct {
	CurrentSignal  int            `json:"current_signal"`
	SignalStrength float64        `json:"signal_strength"`
	Signals        map[string]int `json:"signals"`
}

// VolatilityInfo pairs the current annualized volatility with the trend label.
type VolatilityInfo struct {
	CurrentVolatility float64 `json:"current_volatility"`
	Trend             string  `json:"trend"`
}

// RiskAssessment grades volatility, RSI and overall risk as low/medium/high.
type RiskAssessment struct {
	OverallRisk    string `json:"overall_risk"`
	VolatilityRisk string `json:"volatility_risk"`
	RSIRisk        string `json:"rsi_risk"`
}

// Report is the full analysis record for one instrument. Batch items that
// failed carry only StockCode and Error.
type Report struct {
	StockCode           string                    `json:"stock_code"`
	Error               string                    `json:"error,omitempty"`
	AnalysisDate        string                    `json:"analysis_date,omitempty"`
	DataPeriod          string                    `json:"data_period,omitempty"`
	CurrentPrice        float64                   `json:"current_price"`
	PriceChange         float64                   `json:"price_change"`
	Volume              float64                   `json:"volume"`
	TechnicalIndicators TechnicalSnapshot         `json:"technical_indicators"`
	TradingSignals      TradingSignals            `json:"trading_signals"`
	SupportResistance   indicator.Levels          `json:"support_resistance"`
	Volatility          VolatilityInfo            `json:"volatility"`
	Recommendation      string                    `json:"recommendation,omitempty"`
	RiskAssessment      RiskAssessment            `json:"risk_assessment"`
	ModelResults        map[string]ml.ModelResult `json:"model_results,omitempty"`
	Prediction          *ml.PredictionReport      `json:"prediction,omitempty"`
}

// num converts an NA indicator value into 0 for report output.
func num(v float64) float64 {
	if indicator.IsNA(v) {
		return 0
	}
	return v
}
