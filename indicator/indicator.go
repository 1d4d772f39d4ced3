// Package indicator computes technical indicators over daily OHLCV history.
// All rolling computations use a trailing window ending at the current row;
// rows inside the warmup of a window carry NA.
package indicator

import (
	"errors"
	"math"

	"stocklens/market"
)

// ErrEmptyHistory is returned when Compute receives no bars.
var ErrEmptyHistory = errors.New("empty history")

// RollingMean calculates the trailing arithmetic mean over period values.
// A window that contains NA yields NA.
func RollingMean(data []float64, period int) []float64 {
	out := naSlice(len(data))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(data); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if IsNA(data[j]) {
				ok = false
				break
			}
			sum += data[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// RollingStd calculates the trailing sample standard deviation (ddof=1).
func RollingStd(data []float64, period int) []float64 {
	out := naSlice(len(data))
	if period <= 1 {
		return out
	}
	for i := period - 1; i < len(data); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if IsNA(data[j]) {
				ok = false
				break
			}
			sum += data[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(period)
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			variance += (data[j] - mean) * (data[j] - mean)
		}
		out[i] = math.Sqrt(variance / float64(period-1))
	}
	return out
}

// RollingMax calculates the trailing maximum over period values.
func RollingMax(data []float64, period int) []float64 {
	out := naSlice(len(data))
	for i := period - 1; i < len(data); i++ {
		maxVal := math.Inf(-1)
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if IsNA(data[j]) {
				ok = false
				break
			}
			if data[j] > maxVal {
				maxVal = data[j]
			}
		}
		if ok {
			out[i] = maxVal
		}
	}
	return out
}

// RollingMin calculates the trailing minimum over period values.
func RollingMin(data []float64, period int) []float64 {
	out := naSlice(len(data))
	for i := period - 1; i < len(data); i++ {
		minVal := math.Inf(1)
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if IsNA(data[j]) {
				ok = false
				break
			}
			if data[j] < minVal {
				minVal = data[j]
			}
		}
		if ok {
			out[i] = minVal
		}
	}
	return out
}

// EMA calculates the exponential moving average with smoothing 2/(period+1),
// seeded at the first observation.
func EMA(data []float64, period int) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = data[0]
	for i := 1; i < len(data); i++ {
		out[i] = data[i]*k + out[i-1]*(1-k)
	}
	return out
}

// PctChange calculates the fractional change over n rows.
func PctChange(data []float64, n int) []float64 {
	out := naSlice(len(data))
	for i := n; i < len(data); i++ {
		if data[i-n] != 0 {
			out[i] = (data[i] - data[i-n]) / data[i-n]
		}
	}
	return out
}

// RSI calculates the Relative Strength Index over a trailing window of
// period deltas. A window with zero average loss clamps to 100 instead of
// propagating a division error.
func RSI(closes []float64, period int) []float64 {
	out := naSlice(len(closes))
	if len(closes) <= period {
		return out
	}
	for i := period; i < len(closes); i++ {
		gains := 0.0
		losses := 0.0
		for j := i - period + 1; j <= i; j++ {
			diff := closes[j] - closes[j-1]
			if diff > 0 {
				gains += diff
			} else {
				losses -= diff
			}
		}
		avgGain := gains / float64(period)
		avgLoss := losses / float64(period)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - (100 / (1 + rs))
	}
	return out
}

// MACD calculates the MACD line, signal line and histogram series.
func MACD(closes []float64, fast, slow, signal int) (macd, signalLine, histogram []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signalLine = EMA(macd, signal)
	histogram = make([]float64, len(closes))
	for i := range closes {
		histogram[i] = macd[i] - signalLine[i]
	}
	return macd, signalLine, histogram
}

// BollingerBands calculates middle/upper/lower bands and band width.
func BollingerBands(closes []float64, period int, stdDev float64) (upper, middle, lower, width []float64) {
	middle = RollingMean(closes, period)
	std := RollingStd(closes, period)
	upper = naSlice(len(closes))
	lower = naSlice(len(closes))
	width = naSlice(len(closes))
	for i := range closes {
		if IsNA(middle[i]) || IsNA(std[i]) {
			continue
		}
		upper[i] = middle[i] + std[i]*stdDev
		lower[i] = middle[i] - std[i]*stdDev
		if middle[i] != 0 {
			width[i] = (upper[i] - lower[i]) / middle[i] * 100
		}
	}
	return upper, middle, lower, width
}

// KDJ calculates the K, D and J lines. The smoothing is an order-dependent
// recursion seeded at 50: K[i] = (2/3)K[i-1] + (1/3)RSV[i], and D repeats
// the recursion over K. Rows whose RSV is undefined (warmup, or a flat
// high==low window) carry the previous smoothed value forward.
func KDJ(high, low, closes []float64, kPeriod int) (k, d, j []float64) {
	n := len(closes)
	k = make([]float64, n)
	d = make([]float64, n)
	j = make([]float64, n)
	if n == 0 {
		return k, d, j
	}

	lowMin := RollingMin(low, kPeriod)
	highMax := RollingMax(high, kPeriod)
	rsv := naSlice(n)
	for i := 0; i < n; i++ {
		if IsNA(lowMin[i]) || IsNA(highMax[i]) {
			continue
		}
		if span := highMax[i] - lowMin[i]; span != 0 {
			rsv[i] = 100 * (closes[i] - lowMin[i]) / span
		}
	}

	k[0] = 50
	for i := 1; i < n; i++ {
		if IsNA(rsv[i]) {
			k[i] = k[i-1]
			continue
		}
		k[i] = (2.0/3.0)*k[i-1] + (1.0/3.0)*rsv[i]
	}

	d[0] = 50
	for i := 1; i < n; i++ {
		d[i] = (2.0/3.0)*d[i-1] + (1.0/3.0)*k[i]
	}

	for i := 0; i < n; i++ {
		j[i] = 3*k[i] - 2*d[i]
	}
	return k, d, j
}

// Momentum calculates close / close[period ago] * 100.
func Momentum(closes []float64, period int) []float64 {
	out := naSlice(len(closes))
	for i := period; i < len(closes); i++ {
		if closes[i-period] != 0 {
			out[i] = closes[i] / closes[i-period] * 100
		}
	}
	return out
}

// WilliamsR calculates Williams %R over a trailing window.
func WilliamsR(high, low, closes []float64, period int) []float64 {
	out := naSlice(len(closes))
	highMax := RollingMax(high, period)
	lowMin := RollingMin(low, period)
	for i := range closes {
		if IsNA(highMax[i]) || IsNA(lowMin[i]) {
			continue
		}
		if span := highMax[i] - lowMin[i]; span != 0 {
			out[i] = -100 * (highMax[i] - closes[i]) / span
		}
	}
	return out
}

// Stochastic calculates the %K and %D oscillator lines.
func Stochastic(high, low, closes []float64, kPeriod, dPeriod int) (k, d []float64) {
	k = naSlice(len(closes))
	highMax := RollingMax(high, kPeriod)
	lowMin := RollingMin(low, kPeriod)
	for i := range closes {
		if IsNA(highMax[i]) || IsNA(lowMin[i]) {
			continue
		}
		if span := highMax[i] - lowMin[i]; span != 0 {
			k[i] = 100 * (closes[i] - lowMin[i]) / span
		}
	}
	d = RollingMean(k, dPeriod)
	return k, d
}

// Volatility calculates the rolling standard deviation of daily returns,
// annualized by sqrt(252) and expressed in percent.
func Volatility(closes []float64, period int) []float64 {
	returns := PctChange(closes, 1)
	std := RollingStd(returns, period)
	out := naSlice(len(closes))
	for i := range std {
		if !IsNA(std[i]) {
			out[i] = std[i] * math.Sqrt(252) * 100
		}
	}
	return out
}

// Compute builds the full indicator table from daily bars. It is a pure
// function of the input history: calling it twice yields identical output.
func Compute(bars []market.KLine) (*Series, error) {
	if len(bars) == 0 {
		return nil, ErrEmptyHistory
	}

	n := len(bars)
	series := &Series{Symbol: bars[0].Symbol}
	series.Open = make([]float64, n)
	series.High = make([]float64, n)
	series.Low = make([]float64, n)
	series.Close = make([]float64, n)
	series.Volume = make([]float64, n)
	for i, bar := range bars {
		series.Dates = append(series.Dates, bar.Timestamp)
		series.Open[i] = bar.Open
		series.High[i] = bar.High
		series.Low[i] = bar.Low
		series.Close[i] = bar.Close
		series.Volume[i] = float64(bar.Volume)
	}

	series.MA5 = RollingMean(series.Close, 5)
	series.MA10 = RollingMean(series.Close, 10)
	series.MA20 = RollingMean(series.Close, 20)
	series.MA60 = RollingMean(series.Close, 60)

	series.EMA12 = EMA(series.Close, 12)
	series.EMA26 = EMA(series.Close, 26)

	series.MACD, series.MACDSignal, series.MACDHist = MACD(series.Close, 12, 26, 9)
	series.RSI = RSI(series.Close, 14)
	series.BBUpper, series.BBMiddle, series.BBLower, series.BBWidth = BollingerBands(series.Close, 20, 2)
	series.KDJK, series.KDJD, series.KDJJ = KDJ(series.High, series.Low, series.Close, 9)
	series.Momentum = Momentum(series.Close, 10)
	series.WilliamsR = WilliamsR(series.High, series.Low, series.Close, 14)
	series.StochK, series.StochD = Stochastic(series.High, series.Low, series.Close, 14, 3)
	series.Volatility = Volatility(series.Close, 20)

	series.PriceChange = scale(PctChange(series.Close, 1), 100)
	series.PriceChange5D = scale(PctChange(series.Close, 5), 100)
	series.PriceChange20D = scale(PctChange(series.Close, 20), 100)

	series.VolumeMA5 = RollingMean(series.Volume, 5)
	series.VolumeMA20 = RollingMean(series.Volume, 20)
	series.VolumeRatio = naSlice(n)
	for i := 0; i < n; i++ {
		if !IsNA(series.VolumeMA20[i]) && series.VolumeMA20[i] != 0 {
			series.VolumeRatio[i] = series.Volume[i] / series.VolumeMA20[i]
		}
	}

	return series, nil
}

func naSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = NA()
	}
	return out
}

func scale(data []float64, factor float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		if IsNA(v) {
			out[i] = NA()
		} else {
			out[i] = v * factor
		}
	}
	return out
}
