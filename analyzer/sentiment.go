package analyzer

import (
	"errors"

	"stocklens/market"
)

// ErrNoQuoteProvider is returned when sentiment runs without a quote source.
var ErrNoQuoteProvider = errors.New("no quote provider configured")

// MarketSentiment summarizes breadth over a quote snapshot.
type MarketSentiment struct {
	TotalStocks int     `json:"total_stocks"`
	UpStocks    int     `json:"up_stocks"`
	DownStocks  int     `json:"down_stocks"`
	FlatStocks  int     `json:"flat_stocks"`
	UpRatio     float64 `json:"up_ratio"`
	DownRatio   float64 `json:"down_ratio"`
	AvgChange   float64 `json:"avg_change"`
	AvgVolume   float64 `json:"avg_volume"`
	Sentiment   string  `json:"sentiment"`
}

// MarketSentiment snapshots realtime quotes for the given symbols and grades
// overall breadth. Symbols whose quote fails are skipped; the call fails only
// when no quote survives.
func (a *Analyzer) MarketSentiment(codes []string) (*MarketSentiment, error) {
	if a.quotes == nil {
		return nil, ErrNoQuoteProvider
	}
	ticks := make([]market.Tick, 0, len(codes))
	for _, code := range codes {
		tick, err := a.quotes.Quote(code)
		if err != nil {
			a.log.Warnw("quote failed", "symbol", code, "error", err)
			continue
		}
		ticks = append(ticks, *tick)
	}
	return AnalyzeSentiment(ticks)
}

// AnalyzeSentiment grades market breadth: bullish when advancers outnumber
// decliners by 1.5x, bearish for the reverse, neutral otherwise.
func AnalyzeSentiment(ticks []market.Tick) (*MarketSentiment, error) {
	if len(ticks) == 0 {
		return nil, errors.New("empty quote snapshot")
	}

	sentiment := &MarketSentiment{TotalStocks: len(ticks)}
	sumChange := 0.0
	sumVolume := 0.0
	for _, tick := range ticks {
		switch {
		case tick.ChangePct > 0:
			sentiment.UpStocks++
		case tick.ChangePct < 0:
			sentiment.DownStocks++
		default:
			sentiment.FlatStocks++
		}
		sumChange += tick.ChangePct
		sumVolume += float64(tick.Volume)
	}

	n := float64(len(ticks))
	sentiment.UpRatio = float64(sentiment.UpStocks) / n
	sentiment.DownRatio = float64(sentiment.DownStocks) / n
	sentiment.AvgChange = sumChange / n
	sentiment.AvgVolume = sumVolume / n

	switch {
	case float64(sentiment.UpStocks) > float64(sentiment.DownStocks)*1.5:
		sentiment.Sentiment = "bullish"
	case float64(sentiment.DownStocks) > float64(sentiment.UpStocks)*1.5:
		sentiment.Sentiment = "bearish"
	default:
		sentiment.Sentiment = "neutral"
	}
	return sentiment, nil
}
