// Package ml builds feature matrices from indicator tables and trains a
// small ensemble of native regression models to predict future close prices.
package ml

import (
	"errors"
	"strconv"

	"stocklens/indicator"
)

var (
	// ErrEmptyFeatures is returned when feature construction yields no rows.
	ErrEmptyFeatures = errors.New("empty feature matrix")
)

type column struct {
	name string
	data []float64
}

// baseColumns is the full indicator column set in fixed order. Columns where
// every value is NA (history shorter than every window) are dropped; if that
// leaves fewer than 5 indicator columns the matrix falls back to bare OHLCV.
func baseColumns(s *indicator.Series) []column {
	ohlcv := []column{
		{"open", s.Open},
		{"high", s.High},
		{"low", s.Low},
		{"close", s.Close},
		{"volume", s.Volume},
	}
	indicators := []column{
		{"ma5", s.MA5},
		{"ma10", s.MA10},
		{"ma20", s.MA20},
		{"ma60", s.MA60},
		{"ema12", s.EMA12},
		{"ema26", s.EMA26},
		{"macd", s.MACD},
		{"macd_signal", s.MACDSignal},
		{"macd_histogram", s.MACDHist},
		{"rsi", s.RSI},
		{"bb_upper", s.BBUpper},
		{"bb_middle", s.BBMiddle},
		{"bb_lower", s.BBLower},
		{"bb_width", s.BBWidth},
		{"kdj_k", s.KDJK},
		{"kdj_d", s.KDJD},
		{"kdj_j", s.KDJJ},
		{"momentum", s.Momentum},
		{"williams_r", s.WilliamsR},
		{"stoch_k", s.StochK},
		{"stoch_d", s.StochD},
		{"volatility", s.Volatility},
		{"price_change", s.PriceChange},
		{"price_change_5d", s.PriceChange5D},
		{"price_change_20d", s.PriceChange20D},
		{"volume_ma5", s.VolumeMA5},
		{"volume_ma20", s.VolumeMA20},
		{"volume_ratio", s.VolumeRatio},
	}

	available := make([]column, 0, len(indicators))
	for _, col := range indicators {
		if hasValue(col.data) {
			available = append(available, col)
		}
	}
	if len(available) < 5 {
		return ohlcv
	}
	return append(ohlcv, available...)
}

// engineeredColumns expands the table with lags, rolling stats, changes,
// ratios and momentum features, in fixed order.
func engineeredColumns(s *indicator.Series) []column {
	var cols []column
	add := func(name string, data []float64) {
		cols = append(cols, column{name, data})
	}

	for _, src := range []column{{"close", s.Close}, {"volume", s.Volume}} {
		for _, lag := range []int{1, 2, 3, 5} {
			add(src.name+"_lag_"+strconv.Itoa(lag), shift(src.data, lag))
		}
	}

	for _, src := range []column{{"close", s.Close}, {"volume", s.Volume}} {
		for _, window := range []int{3, 5, 10, 20} {
			add(src.name+"_ma_"+strconv.Itoa(window), indicator.RollingMean(src.data, window))
			add(src.name+"_std_"+strconv.Itoa(window), indicator.RollingStd(src.data, window))
		}
	}

	add("price_change_1", indicator.PctChange(s.Close, 1))
	add("price_change_2", indicator.PctChange(s.Close, 2))
	add("price_change_5", indicator.PctChange(s.Close, 5))

	add("volatility_20", indicator.RollingStd(s.Close, 20))
	add("volatility_5", indicator.RollingStd(s.Close, 5))

	add("ma_ratio_5_20", ratio(s.MA5, s.MA20))
	add("ma_ratio_10_60", ratio(s.MA10, s.MA60))
	add("bb_position", bbPosition(s.Close, s.BBUpper, s.BBLower))

	add("volume_ratio_5", ratio(s.Volume, s.VolumeMA5))
	add("volume_change", indicator.PctChange(s.Volume, 1))

	add("momentum_5", momentumRatio(s.Close, 5))
	add("momentum_10", momentumRatio(s.Close, 10))

	return cols
}

// Matrix builds the filled feature matrix: one row per bar, one column per
// feature. Missing values are forward-filled, then backward-filled, then
// zero-filled, in that fixed order.
func Matrix(s *indicator.Series) ([]string, [][]float64, error) {
	if s == nil || s.Len() == 0 {
		return nil, nil, ErrEmptyFeatures
	}

	cols := append(baseColumns(s), engineeredColumns(s)...)
	names := make([]string, len(cols))
	filled := make([][]float64, len(cols))
	for i, col := range cols {
		names[i] = col.name
		filled[i] = fillColumn(col.data)
	}

	n := s.Len()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = filled[j][i]
		}
		rows[i] = row
	}
	return names, rows, nil
}

// BuildFeatures returns the feature matrix X aligned with the target y, the
// close price predictionDays bars ahead. The last predictionDays rows have
// no target and are dropped from both; len(X) == len(y) always.
func BuildFeatures(s *indicator.Series, predictionDays int) (X [][]float64, y []float64, err error) {
	if predictionDays <= 0 {
		predictionDays = 5
	}
	_, rows, err := Matrix(s)
	if err != nil {
		return nil, nil, err
	}

	closeFilled := fillColumn(s.Close)
	n := len(rows) - predictionDays
	if n <= 0 {
		return nil, nil, ErrEmptyFeatures
	}

	X = rows[:n]
	y = make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = closeFilled[i+predictionDays]
	}
	return X, y, nil
}

// LatestFeatures returns the filled feature row for the most recent bar,
// used for inference.
func LatestFeatures(s *indicator.Series) ([]float64, error) {
	_, rows, err := Matrix(s)
	if err != nil {
		return nil, err
	}
	return rows[len(rows)-1], nil
}

// fillColumn applies forward-fill, then backward-fill, then fills what
// remains with zero. The order matters at series boundaries.
func fillColumn(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)

	last := indicator.NA()
	for i := range out {
		if indicator.IsNA(out[i]) {
			out[i] = last
		} else {
			last = out[i]
		}
	}
	next := indicator.NA()
	for i := len(out) - 1; i >= 0; i-- {
		if indicator.IsNA(out[i]) {
			out[i] = next
		} else {
			next = out[i]
		}
	}
	for i := range out {
		if indicator.IsNA(out[i]) {
			out[i] = 0
		}
	}
	return out
}

func shift(data []float64, lag int) []float64 {
	out := make([]float64, len(data))
	for i := range out {
		if i < lag {
			out[i] = indicator.NA()
		} else {
			out[i] = data[i-lag]
		}
	}
	return out
}

func ratio(num, den []float64) []float64 {
	out := make([]float64, len(num))
	for i := range out {
		if indicator.IsNA(num[i]) || indicator.IsNA(den[i]) || den[i] == 0 {
			out[i] = indicator.NA()
		} else {
			out[i] = num[i] / den[i]
		}
	}
	return out
}

func bbPosition(closes, upper, lower []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		if indicator.IsNA(upper[i]) || indicator.IsNA(lower[i]) || upper[i] == lower[i] {
			out[i] = indicator.NA()
		} else {
			out[i] = (closes[i] - lower[i]) / (upper[i] - lower[i])
		}
	}
	return out
}

func momentumRatio(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		if i < period || closes[i-period] == 0 {
			out[i] = indicator.NA()
		} else {
			out[i] = closes[i]/closes[i-period] - 1
		}
	}
	return out
}

func hasValue(data []float64) bool {
	for _, v := range data {
		if !indicator.IsNA(v) {
			return true
		}
	}
	return false
}
