package indicator

import "math"

// Signal values: +1 buy, 0 hold/neutral, -1 sell.
const (
	SignalBuy  = 1
	SignalHold = 0
	SignalSell = -1
)

// SignalSet holds the point-in-time trading signals derived from the most
// recent indicator row. Indicators whose inputs are still NA are absent from
// the map and do not dilute the overall average.
type SignalSet struct {
	Signals  map[string]int `json:"signals"`
	Overall  int            `json:"overall_signal"`
	Strength float64        `json:"signal_strength"`
}

// GenerateSignals derives the signal set from the latest indicator row.
func GenerateSignals(row Row) SignalSet {
	signals := make(map[string]int)
	var present []int

	if !IsNA(row.RSI) {
		sig := SignalHold
		switch {
		case row.RSI < 30:
			sig = SignalBuy // oversold
		case row.RSI > 70:
			sig = SignalSell // overbought
		}
		signals["rsi_signal"] = sig
		present = append(present, sig)
	}

	if !IsNA(row.MACD) && !IsNA(row.MACDSignal) {
		// golden cross vs dead cross, no neutral zone
		sig := SignalSell
		if row.MACD > row.MACDSignal {
			sig = SignalBuy
		}
		signals["macd_signal"] = sig
		present = append(present, sig)
	}

	if !IsNA(row.BBUpper) && !IsNA(row.BBLower) {
		sig := SignalHold
		switch {
		case row.Close < row.BBLower:
			sig = SignalBuy
		case row.Close > row.BBUpper:
			sig = SignalSell
		}
		signals["bb_signal"] = sig
		present = append(present, sig)
	}

	set := SignalSet{Signals: signals}
	if len(present) == 0 {
		return set
	}

	sum := 0
	for _, sig := range present {
		sum += sig
	}
	avg := float64(sum) / float64(len(present))
	set.Overall = classify(avg)
	set.Strength = math.Abs(avg)
	return set
}

// classify maps the average signal to the overall label. The buy and sell
// thresholds are strict: an average of exactly ±0.3 stays hold.
func classify(avg float64) int {
	switch {
	case avg > 0.3:
		return SignalBuy
	case avg < -0.3:
		return SignalSell
	default:
		return SignalHold
	}
}
