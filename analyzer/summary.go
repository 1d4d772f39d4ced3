package analyzer

import (
	"fmt"
	"strings"
	"time"
)

// BatchSummary aggregates a batch run: counts plus per-symbol outcomes.
type BatchSummary struct {
	GeneratedAt     string            `json:"generated_at"`
	Total           int               `json:"total"`
	Succeeded       int               `json:"succeeded"`
	Failed          int               `json:"failed"`
	Recommendations map[string]string `json:"recommendations"`
	Failures        map[string]string `json:"failures,omitempty"`
}

// Summarize builds the batch summary from report entries.
func Summarize(reports []*Report) BatchSummary {
	summary := BatchSummary{
		GeneratedAt:     time.Now().Format("2006-01-02 15:04:05"),
		Total:           len(reports),
		Recommendations: make(map[string]string),
		Failures:        make(map[string]string),
	}
	for _, report := range reports {
		if report.Error != "" {
			summary.Failed++
			summary.Failures[report.StockCode] = report.Error
			continue
		}
		summary.Succeeded++
		summary.Recommendations[report.StockCode] = report.Recommendation
	}
	return summary
}

// Format renders the summary as text, symbols in the order given.
func (s BatchSummary) Format(order []string) string {
	var b strings.Builder
	b.WriteString("Batch Analysis Summary\n")
	b.WriteString("======================\n")
	fmt.Fprintf(&b, "generated: %s\n", s.GeneratedAt)
	fmt.Fprintf(&b, "total: %d  succeeded: %d  failed: %d\n", s.Total, s.Succeeded, s.Failed)

	if len(s.Recommendations) > 0 {
		b.WriteString("\nrecommendations:\n")
		for _, code := range order {
			if rec, ok := s.Recommendations[code]; ok {
				fmt.Fprintf(&b, "- %s: %s\n", code, rec)
			}
		}
	}
	if len(s.Failures) > 0 {
		b.WriteString("\nfailures:\n")
		for _, code := range order {
			if msg, ok := s.Failures[code]; ok {
				fmt.Fprintf(&b, "- %s: %s\n", code, msg)
			}
		}
	}
	return b.String()
}
