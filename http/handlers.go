package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"stocklens/analyzer"
	"stocklens/db"
	"stocklens/monitoring"
)

type handlerDeps struct {
	core *analyzer.Analyzer
	hub  *monitoring.Hub
	log  *zap.SugaredLogger
}

func registerHandlers(mux *http.ServeMux, deps *handlerDeps) {
	mux.HandleFunc("/api/health", handleHealth)
	mux.HandleFunc("/api/analyze", deps.handleAnalyze)
	mux.HandleFunc("/api/analyze/batch", deps.handleBatch)
	mux.HandleFunc("/api/predict", deps.handlePredict)
	mux.HandleFunc("/api/sentiment", deps.handleSentiment)
	mux.HandleFunc("/api/reports", deps.handleReports)
	if deps.hub != nil {
		mux.HandleFunc("/api/ws", deps.hub.HandleWS)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	StockCode      string   `json:"stock_code"`
	StockCodes     []string `json:"stock_codes"`
	Days           int      `json:"days"`
	PredictionDays int      `json:"prediction_days"`
	WithPrediction bool     `json:"with_prediction"`
}

func (req *analyzeRequest) defaults() {
	if req.Days <= 0 {
		req.Days = 365
	}
	if req.PredictionDays <= 0 {
		req.PredictionDays = 5
	}
}

func (d *handlerDeps) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StockCode == "" {
		writeError(w, http.StatusBadRequest, "stock_code is required")
		return
	}
	req.defaults()

	report, err := d.core.AnalyzeStock(req.StockCode, req.Days, req.PredictionDays, req.WithPrediction)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := db.SaveReport(report.StockCode, report.Volatility.Trend,
		report.TradingSignals.CurrentSignal, report.Recommendation, report); err != nil {
		d.log.Warnw("persist report failed", "symbol", report.StockCode, "error", err)
	}
	writeJSON(w, http.StatusOK, report)
}

func (d *handlerDeps) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.StockCodes) == 0 {
		writeError(w, http.StatusBadRequest, "stock_codes is required")
		return
	}
	req.defaults()

	reports := d.core.BatchAnalyze(req.StockCodes, req.Days, req.PredictionDays, req.WithPrediction)
	summary := analyzer.Summarize(reports)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"summary": summary,
	})
}

func (d *handlerDeps) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StockCode == "" {
		writeError(w, http.StatusBadRequest, "stock_code is required")
		return
	}
	req.defaults()

	pred, err := d.core.PredictStock(req.StockCode, req.Days, req.PredictionDays)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := db.SavePrediction(pred.Symbol, pred.EnsemblePrediction,
		pred.PredictionStd, pred.BestModel, pred); err != nil {
		d.log.Warnw("persist prediction failed", "symbol", pred.Symbol, "error", err)
	}
	writeJSON(w, http.StatusOK, pred)
}

func (d *handlerDeps) handleSentiment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.StockCodes) == 0 {
		writeError(w, http.StatusBadRequest, "stock_codes is required")
		return
	}

	sentiment, err := d.core.MarketSentiment(req.StockCodes)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sentiment)
}

func (d *handlerDeps) handleReports(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	payloads, err := db.RecentReports(symbol, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reports := make([]json.RawMessage, len(payloads))
	for i, payload := range payloads {
		reports[i] = json.RawMessage(payload)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"symbol": symbol, "reports": reports})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
