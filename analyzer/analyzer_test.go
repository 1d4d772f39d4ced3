package analyzer

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"stocklens/indicator"
	"stocklens/market"
)

// stubProvider serves canned history per symbol.
type stubProvider struct {
	bars map[string][]market.KLine
	errs map[string]error
}

func (p *stubProvider) History(symbol string, days int) ([]market.KLine, error) {
	if err, ok := p.errs[symbol]; ok {
		return nil, err
	}
	return p.bars[symbol], nil
}

func barsFor(symbol string, closes []float64) []market.KLine {
	bars := make([]market.KLine, len(closes))
	start := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = market.KLine{
			Symbol:    symbol,
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    5000 + int64(i),
			Timestamp: start.AddDate(0, 0, i),
		}
	}
	return bars
}

func trendingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 3*math.Sin(float64(i)/6) + float64(i)*0.05
	}
	return closes
}

func TestAnalyzeStock(t *testing.T) {
	provider := &stubProvider{bars: map[string][]market.KLine{
		"sh600036": barsFor("sh600036", trendingCloses(90)),
	}}
	a := New(provider, nil)

	report, err := a.AnalyzeStock("sh600036", 365, 5, false)
	if err != nil {
		t.Fatal(err)
	}
	if report.StockCode != "sh600036" {
		t.Errorf("unexpected stock code %s", report.StockCode)
	}
	if report.Error != "" {
		t.Errorf("successful analysis should carry no error, got %q", report.Error)
	}
	if report.CurrentPrice <= 0 {
		t.Errorf("current price missing: %f", report.CurrentPrice)
	}
	if report.DataPeriod == "" || !strings.Contains(report.DataPeriod, " to ") {
		t.Errorf("unexpected data period %q", report.DataPeriod)
	}
	if report.Volatility.Trend == "" {
		t.Error("trend label missing")
	}
	if report.Recommendation == "" {
		t.Error("recommendation missing")
	}
	if report.Prediction != nil {
		t.Error("prediction should be absent when not requested")
	}
	// report must serialize: NA values are sanitized to zero
	if math.IsNaN(report.TechnicalIndicators.RSI) || math.IsNaN(report.PriceChange) {
		t.Error("report should never carry NaN")
	}
}

func TestAnalyzeStockWithPrediction(t *testing.T) {
	if testing.Short() {
		t.Skip("trains the full ensemble")
	}
	provider := &stubProvider{bars: map[string][]market.KLine{
		"sh600036": barsFor("sh600036", trendingCloses(80)),
	}}
	a := New(provider, nil)

	report, err := a.AnalyzeStock("sh600036", 365, 5, true)
	if err != nil {
		t.Fatal(err)
	}
	if report.Prediction == nil {
		t.Fatal("expected a prediction block")
	}
	if report.Prediction.Symbol != "sh600036" {
		t.Errorf("prediction symbol mismatch: %s", report.Prediction.Symbol)
	}
	if len(report.Prediction.ForecastDates) != 5 {
		t.Errorf("expected 5 forecast dates, got %d", len(report.Prediction.ForecastDates))
	}
	if len(report.ModelResults) == 0 {
		t.Error("expected model evaluation records")
	}
}

func TestAnalyzeStockNoData(t *testing.T) {
	provider := &stubProvider{bars: map[string][]market.KLine{}}
	a := New(provider, nil)
	if _, err := a.AnalyzeStock("sz999999", 365, 5, false); !errors.Is(err, market.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestAnalyzeStockFetchError(t *testing.T) {
	provider := &stubProvider{errs: map[string]error{"sh600000": errors.New("upstream down")}}
	a := New(provider, nil)
	if _, err := a.AnalyzeStock("sh600000", 365, 5, false); err == nil {
		t.Error("fetch failure should propagate")
	}
}

func TestAnalyzeStockPredictionFailureDowngrades(t *testing.T) {
	// 8 bars are enough to analyze but far too few to train on a 5 day
	// horizon; the report must still come back, just without a forecast
	provider := &stubProvider{bars: map[string][]market.KLine{
		"sh600036": barsFor("sh600036", []float64{10, 11, 12, 11, 10, 11, 12, 13}),
	}}
	a := New(provider, nil)

	report, err := a.AnalyzeStock("sh600036", 365, 5, true)
	if err != nil {
		t.Fatal(err)
	}
	if report.Prediction != nil {
		t.Error("untrainable history should not produce a prediction")
	}
	if report.Recommendation == "" {
		t.Error("the rest of the report should survive")
	}
}

type recordingPublisher struct {
	events []BatchProgress
}

func (p *recordingPublisher) Publish(event string, payload interface{}) {
	if progress, ok := payload.(BatchProgress); ok {
		p.events = append(p.events, progress)
	}
}

func TestBatchAnalyze(t *testing.T) {
	provider := &stubProvider{
		bars: map[string][]market.KLine{
			"sh600036": barsFor("sh600036", trendingCloses(70)),
		},
		errs: map[string]error{"sz000002": errors.New("not found")},
	}
	a := New(provider, nil)
	sink := &recordingPublisher{}
	a.SetPublisher(sink)

	reports := a.BatchAnalyze([]string{"sh600036", "sz000002"}, 365, 5, false)
	if len(reports) != 2 {
		t.Fatalf("batch must return one entry per code, got %d", len(reports))
	}
	if reports[0].Error != "" {
		t.Errorf("first item should succeed, got %q", reports[0].Error)
	}
	if reports[1].Error == "" {
		t.Error("second item should carry an error record")
	}
	if reports[1].StockCode != "sz000002" {
		t.Errorf("error record keeps the code, got %s", reports[1].StockCode)
	}

	if len(sink.events) != 2 {
		t.Fatalf("expected 2 progress events, got %d", len(sink.events))
	}
	if sink.events[0].Index != 1 || sink.events[0].Total != 2 || !sink.events[0].Succeeded {
		t.Errorf("unexpected first progress event: %+v", sink.events[0])
	}
	if sink.events[1].Succeeded {
		t.Error("second progress event should report failure")
	}
}

func TestRecommendationMapping(t *testing.T) {
	cases := []struct {
		overall  int
		strength float64
		want     string
	}{
		{indicator.SignalBuy, 0.9, "strong buy"},
		{indicator.SignalBuy, 0.4, "buy"},
		{indicator.SignalSell, 0.9, "strong sell"},
		{indicator.SignalSell, 0.4, "sell"},
		{indicator.SignalHold, 0, "hold"},
	}
	for _, c := range cases {
		got := Recommendation(indicator.SignalSet{Overall: c.overall, Strength: c.strength})
		if !strings.HasPrefix(got, c.want+":") {
			t.Errorf("overall=%d strength=%f: expected prefix %q, got %q", c.overall, c.strength, c.want, got)
		}
	}
}

func TestAssessRisk(t *testing.T) {
	na := indicator.NA()

	high := AssessRisk(indicator.Row{Volatility: 45, RSI: 85})
	if high.OverallRisk != RiskHigh || high.VolatilityRisk != RiskHigh || high.RSIRisk != RiskHigh {
		t.Errorf("expected all high, got %+v", high)
	}

	low := AssessRisk(indicator.Row{Volatility: 10, RSI: 50})
	if low.OverallRisk != RiskLow || low.VolatilityRisk != RiskLow || low.RSIRisk != RiskLow {
		t.Errorf("expected all low, got %+v", low)
	}

	// one high sub-risk is not enough to raise the overall grade
	mixed := AssessRisk(indicator.Row{Volatility: 45, RSI: 50})
	if mixed.OverallRisk != RiskMedium {
		t.Errorf("expected medium overall, got %s", mixed.OverallRisk)
	}

	// missing inputs default to medium
	unknown := AssessRisk(indicator.Row{Volatility: na, RSI: na})
	if unknown.VolatilityRisk != RiskMedium || unknown.RSIRisk != RiskMedium || unknown.OverallRisk != RiskMedium {
		t.Errorf("expected medium defaults, got %+v", unknown)
	}

	borderline := AssessRisk(indicator.Row{Volatility: 20, RSI: 75})
	if borderline.RSIRisk != RiskMedium || borderline.VolatilityRisk != RiskMedium {
		t.Errorf("expected medium grades, got %+v", borderline)
	}
}

func TestSummarize(t *testing.T) {
	reports := []*Report{
		{StockCode: "sh600036", Recommendation: "buy: technical indicators show a buy signal"},
		{StockCode: "sz000002", Error: "not found"},
		{StockCode: "sh601318", Recommendation: "hold: technical indicators are neutral, stay on the sidelines"},
	}
	summary := Summarize(reports)

	if summary.Total != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("unexpected counts: %+v", summary)
	}
	if summary.Failures["sz000002"] != "not found" {
		t.Errorf("missing failure record: %v", summary.Failures)
	}
	if _, ok := summary.Recommendations["sh600036"]; !ok {
		t.Errorf("missing recommendation: %v", summary.Recommendations)
	}

	text := summary.Format([]string{"sh600036", "sz000002", "sh601318"})
	if !strings.Contains(text, "total: 3  succeeded: 2  failed: 1") {
		t.Errorf("summary text missing counts:\n%s", text)
	}
	if !strings.Contains(text, "sz000002: not found") {
		t.Errorf("summary text missing failure:\n%s", text)
	}
}

type stubQuoteProvider struct {
	ticks map[string]*market.Tick
}

func (p *stubQuoteProvider) Quote(symbol string) (*market.Tick, error) {
	if tick, ok := p.ticks[symbol]; ok {
		return tick, nil
	}
	return nil, errors.New("quote unavailable")
}

func TestMarketSentiment(t *testing.T) {
	a := New(&stubProvider{}, nil)
	if _, err := a.MarketSentiment([]string{"sh600036"}); err != ErrNoQuoteProvider {
		t.Errorf("expected ErrNoQuoteProvider, got %v", err)
	}

	a.SetQuoteProvider(&stubQuoteProvider{ticks: map[string]*market.Tick{
		"sh600036": {Symbol: "sh600036", ChangePct: 2},
		"sz000001": {Symbol: "sz000001", ChangePct: -1},
	}})

	// the unknown symbol is skipped, not fatal
	sentiment, err := a.MarketSentiment([]string{"sh600036", "sz000001", "sz999999"})
	if err != nil {
		t.Fatal(err)
	}
	if sentiment.TotalStocks != 2 {
		t.Errorf("failed quotes should be skipped, got %d stocks", sentiment.TotalStocks)
	}

	// every quote failing leaves nothing to grade
	if _, err := a.MarketSentiment([]string{"sz999999"}); err == nil {
		t.Error("all quotes failing should surface an error")
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	ticks := []market.Tick{
		{Symbol: "a", ChangePct: 2.0, Volume: 100},
		{Symbol: "b", ChangePct: 1.0, Volume: 200},
		{Symbol: "c", ChangePct: 0.5, Volume: 300},
		{Symbol: "d", ChangePct: -1.0, Volume: 400},
		{Symbol: "e", ChangePct: 0, Volume: 500},
	}
	sentiment, err := AnalyzeSentiment(ticks)
	if err != nil {
		t.Fatal(err)
	}
	if sentiment.UpStocks != 3 || sentiment.DownStocks != 1 || sentiment.FlatStocks != 1 {
		t.Errorf("unexpected breadth: %+v", sentiment)
	}
	// 3 advancers vs 1 decliner clears the 1.5x bar
	if sentiment.Sentiment != "bullish" {
		t.Errorf("expected bullish, got %s", sentiment.Sentiment)
	}
	if math.Abs(sentiment.AvgChange-0.5) > 1e-9 {
		t.Errorf("expected avg change 0.5, got %f", sentiment.AvgChange)
	}

	if _, err := AnalyzeSentiment(nil); err == nil {
		t.Error("empty snapshot should fail")
	}
}
