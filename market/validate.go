package market

import "fmt"

// BarRule is one validation check applied to each fetched bar.
type BarRule interface {
	Name() string
	Check(bar KLine) error
}

// QualityIssue records a bar that failed validation.
type QualityIssue struct {
	Rule    string `json:"rule"`
	Symbol  string `json:"symbol"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

type priceRule struct{}

func (priceRule) Name() string { return "price_validation" }
func (priceRule) Check(bar KLine) error {
	if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
		return fmt.Errorf("non-positive price")
	}
	if bar.High < bar.Low {
		return fmt.Errorf("high %.2f below low %.2f", bar.High, bar.Low)
	}
	if bar.Close > bar.High || bar.Close < bar.Low {
		return fmt.Errorf("close %.2f outside [%.2f, %.2f]", bar.Close, bar.Low, bar.High)
	}
	return nil
}

type volumeRule struct{}

func (volumeRule) Name() string { return "volume_validation" }
func (volumeRule) Check(bar KLine) error {
	if bar.Volume < 0 {
		return fmt.Errorf("negative volume %d", bar.Volume)
	}
	return nil
}

type timestampRule struct{}

func (timestampRule) Name() string { return "timestamp_validation" }
func (timestampRule) Check(bar KLine) error {
	if bar.Timestamp.IsZero() {
		return fmt.Errorf("missing timestamp")
	}
	return nil
}

var defaultRules = []BarRule{priceRule{}, volumeRule{}, timestampRule{}}

// CleanBars drops bars that fail validation and deduplicates by date,
// keeping the first occurrence. Rejected bars become quality issues rather
// than errors; a dirty feed degrades, it does not fail.
func CleanBars(bars []KLine) ([]KLine, []QualityIssue) {
	cleaned := make([]KLine, 0, len(bars))
	var issues []QualityIssue
	seen := make(map[string]bool, len(bars))

	for _, bar := range bars {
		day := bar.Timestamp.Format("2006-01-02")
		if seen[day] {
			issues = append(issues, QualityIssue{
				Rule:    "duplicate_detection",
				Symbol:  bar.Symbol,
				Date:    day,
				Message: "duplicate trading day",
			})
			continue
		}

		rejected := false
		for _, rule := range defaultRules {
			if err := rule.Check(bar); err != nil {
				issues = append(issues, QualityIssue{
					Rule:    rule.Name(),
					Symbol:  bar.Symbol,
					Date:    day,
					Message: err.Error(),
				})
				rejected = true
				break
			}
		}
		if rejected {
			continue
		}

		seen[day] = true
		cleaned = append(cleaned, bar)
	}

	return cleaned, issues
}
