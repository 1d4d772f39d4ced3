package market

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func validBar(d int) KLine {
	return KLine{
		Symbol:    "sh600000",
		Open:      10,
		High:      11,
		Low:       9,
		Close:     10.5,
		Volume:    1000,
		Timestamp: day(d),
	}
}

func TestCleanBarsPassesValidData(t *testing.T) {
	bars := []KLine{validBar(0), validBar(1), validBar(2)}
	cleaned, issues := CleanBars(bars)
	if len(cleaned) != 3 {
		t.Errorf("expected all bars kept, got %d", len(cleaned))
	}
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
}

func TestCleanBarsRejectsBadPrices(t *testing.T) {
	negative := validBar(0)
	negative.Close = -1

	inverted := validBar(1)
	inverted.High = 8 // below low

	outside := validBar(2)
	outside.Close = 20 // above high

	cleaned, issues := CleanBars([]KLine{negative, inverted, outside, validBar(3)})
	if len(cleaned) != 1 {
		t.Errorf("expected only the valid bar, got %d", len(cleaned))
	}
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(issues))
	}
	for _, issue := range issues {
		if issue.Rule != "price_validation" {
			t.Errorf("expected price_validation, got %s", issue.Rule)
		}
	}
}

func TestCleanBarsRejectsNegativeVolume(t *testing.T) {
	bad := validBar(0)
	bad.Volume = -5
	cleaned, issues := CleanBars([]KLine{bad})
	if len(cleaned) != 0 || len(issues) != 1 || issues[0].Rule != "volume_validation" {
		t.Errorf("expected one volume issue, got %d cleaned, %v", len(cleaned), issues)
	}
}

func TestCleanBarsRejectsMissingTimestamp(t *testing.T) {
	bad := validBar(0)
	bad.Timestamp = time.Time{}
	cleaned, issues := CleanBars([]KLine{bad})
	if len(cleaned) != 0 || len(issues) != 1 || issues[0].Rule != "timestamp_validation" {
		t.Errorf("expected one timestamp issue, got %d cleaned, %v", len(cleaned), issues)
	}
}

func TestCleanBarsDeduplicates(t *testing.T) {
	first := validBar(0)
	first.Close = 10.2
	duplicate := validBar(0)
	duplicate.Close = 10.8

	cleaned, issues := CleanBars([]KLine{first, duplicate, validBar(1)})
	if len(cleaned) != 2 {
		t.Fatalf("expected 2 bars after dedup, got %d", len(cleaned))
	}
	// first occurrence wins
	if cleaned[0].Close != 10.2 {
		t.Errorf("dedup should keep the first bar, got close %f", cleaned[0].Close)
	}
	if len(issues) != 1 || issues[0].Rule != "duplicate_detection" {
		t.Errorf("expected one duplicate issue, got %v", issues)
	}
}

func TestNewFetcherDefaults(t *testing.T) {
	f, err := NewFetcher(0)
	if err != nil {
		t.Fatal(err)
	}
	if f.cache == nil {
		t.Error("cache should be initialized with the default size")
	}
}
