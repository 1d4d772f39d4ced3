package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"stocklens/analyzer"
	"stocklens/market"
)

type stubProvider struct {
	bars map[string][]market.KLine
}

func (p *stubProvider) History(symbol string, days int) ([]market.KLine, error) {
	return p.bars[symbol], nil
}

func testMux() *http.ServeMux {
	closes := make([]float64, 70)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/5)
	}
	bars := make([]market.KLine, len(closes))
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = market.KLine{
			Symbol:    "sh600036",
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    2000,
			Timestamp: start.AddDate(0, 0, i),
		}
	}

	provider := &stubProvider{bars: map[string][]market.KLine{"sh600036": bars}}
	core := analyzer.New(provider, nil)

	mux := http.NewServeMux()
	registerHandlers(mux, &handlerDeps{core: core, log: zap.NewNop().Sugar()})
	return mux
}

func TestHandleHealth(t *testing.T) {
	mux := testMux()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestHandleAnalyze(t *testing.T) {
	mux := testMux()
	payload := `{"stock_code":"sh600036"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/analyze", strings.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report analyzer.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("report should be valid JSON: %v", err)
	}
	if report.StockCode != "sh600036" {
		t.Errorf("unexpected stock code %s", report.StockCode)
	}
	if report.Recommendation == "" {
		t.Error("recommendation missing from response")
	}
}

func TestHandleAnalyzeValidation(t *testing.T) {
	mux := testMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/analyze", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET should be rejected, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/analyze", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing stock_code should be rejected, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/analyze", strings.NewReader(`not json`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body should be rejected, got %d", rec.Code)
	}
}

func TestHandleAnalyzeUnknownSymbol(t *testing.T) {
	mux := testMux()
	payload := `{"stock_code":"sz999999"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/analyze", strings.NewReader(payload)))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("missing history should map to 502, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] == "" {
		t.Error("error body missing")
	}
}

func TestHandleBatch(t *testing.T) {
	mux := testMux()
	payload := `{"stock_codes":["sh600036","sz999999"]}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/analyze/batch", strings.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Reports []analyzer.Report     `json:"reports"`
		Summary analyzer.BatchSummary `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Reports) != 2 {
		t.Fatalf("expected 2 report entries, got %d", len(body.Reports))
	}
	if body.Summary.Total != 2 || body.Summary.Succeeded != 1 || body.Summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", body.Summary)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/analyze/batch", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty code list should be rejected, got %d", rec.Code)
	}
}

type stubQuotes struct{}

func (stubQuotes) Quote(symbol string) (*market.Tick, error) {
	return &market.Tick{Symbol: symbol, ChangePct: 1.5, Volume: 100}, nil
}

func TestHandleSentiment(t *testing.T) {
	provider := &stubProvider{}
	core := analyzer.New(provider, nil)
	core.SetQuoteProvider(stubQuotes{})

	mux := http.NewServeMux()
	registerHandlers(mux, &handlerDeps{core: core, log: zap.NewNop().Sugar()})

	payload := `{"stock_codes":["sh600036","sz000001"]}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/sentiment", strings.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var sentiment analyzer.MarketSentiment
	if err := json.Unmarshal(rec.Body.Bytes(), &sentiment); err != nil {
		t.Fatal(err)
	}
	if sentiment.TotalStocks != 2 || sentiment.Sentiment != "bullish" {
		t.Errorf("unexpected sentiment: %+v", sentiment)
	}
}

func TestHandleSentimentWithoutProvider(t *testing.T) {
	mux := testMux()
	payload := `{"stock_codes":["sh600036"]}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/api/sentiment", strings.NewReader(payload)))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("missing quote provider should map to 502, got %d", rec.Code)
	}
}

func TestHandleReportsRequiresSymbol(t *testing.T) {
	mux := testMux()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/reports", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing symbol should be rejected, got %d", rec.Code)
	}
}
