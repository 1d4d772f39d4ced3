package indicator

import (
	"math"
	"time"
)

// NA marks an indicator value that could not be computed because the
// lookback window exceeds the available history. Leading rows keep NA until
// the ML feature builder fills them; they are never silently zero.
func NA() float64 { return math.NaN() }

// IsNA reports whether v is a not-available marker.
func IsNA(v float64) bool { return math.IsNaN(v) }

// Series is the indicator table: one row per input bar, fixed schema, with
// NA where a column is not computed yet. Columns mirror the bar fields plus
// every derived indicator.
type Series struct {
	Symbol string
	Dates  []time.Time

	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64

	MA5  []float64
	MA10 []float64
	MA20 []float64
	MA60 []float64

	EMA12 []float64
	EMA26 []float64

	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64

	RSI []float64

	BBUpper  []float64
	BBMiddle []float64
	BBLower  []float64
	BBWidth  []float64

	KDJK []float64
	KDJD []float64
	KDJJ []float64

	Momentum  []float64
	WilliamsR []float64

	StochK []float64
	StochD []float64

	Volatility []float64

	PriceChange    []float64
	PriceChange5D  []float64
	PriceChange20D []float64

	VolumeMA5   []float64
	VolumeMA20  []float64
	VolumeRatio []float64
}

// Len returns the number of rows.
func (s *Series) Len() int { return len(s.Close) }

// Row is a point-in-time snapshot of one indicator table row.
type Row struct {
	Date time.Time

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	MA5  float64
	MA10 float64
	MA20 float64
	MA60 float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	RSI float64

	BBUpper  float64
	BBMiddle float64
	BBLower  float64
	BBWidth  float64

	KDJK float64
	KDJD float64
	KDJJ float64

	Momentum  float64
	WilliamsR float64
	StochK    float64
	StochD    float64

	Volatility  float64
	PriceChange float64
	VolumeRatio float64
}

// Latest returns the most recent row. It panics on an empty series; callers
// guard with Len.
func (s *Series) Latest() Row {
	i := s.Len() - 1
	return Row{
		Date:        s.Dates[i],
		Open:        s.Open[i],
		High:        s.High[i],
		Low:         s.Low[i],
		Close:       s.Close[i],
		Volume:      s.Volume[i],
		MA5:         s.MA5[i],
		MA10:        s.MA10[i],
		MA20:        s.MA20[i],
		MA60:        s.MA60[i],
		MACD:        s.MACD[i],
		MACDSignal:  s.MACDSignal[i],
		MACDHist:    s.MACDHist[i],
		RSI:         s.RSI[i],
		BBUpper:     s.BBUpper[i],
		BBMiddle:    s.BBMiddle[i],
		BBLower:     s.BBLower[i],
		BBWidth:     s.BBWidth[i],
		KDJK:        s.KDJK[i],
		KDJD:        s.KDJD[i],
		KDJJ:        s.KDJJ[i],
		Momentum:    s.Momentum[i],
		WilliamsR:   s.WilliamsR[i],
		StochK:      s.StochK[i],
		StochD:      s.StochD[i],
		Volatility:  s.Volatility[i],
		PriceChange: s.PriceChange[i],
		VolumeRatio: s.VolumeRatio[i],
	}
}
