package market

import "errors"

// ErrNoData is returned when a provider has no history for a symbol.
var ErrNoData = errors.New("no history data")

// HistoryProvider supplies ordered daily bars for a symbol. The analyzer
// depends on this interface so tests can substitute canned data.
type HistoryProvider interface {
	History(symbol string, days int) ([]KLine, error)
}

// QuoteProvider supplies realtime quote snapshots.
type QuoteProvider interface {
	Quote(symbol string) (*Tick, error)
}
