package indicator

// Trend labels produced by AnalyzeTrend.
const (
	TrendStrongBullish    = "strong_bullish"
	TrendBullish          = "bullish"
	TrendNeutral          = "neutral"
	TrendBearish          = "bearish"
	TrendStrongBearish    = "strong_bearish"
	TrendInsufficientData = "insufficient_data"
)

// Levels describes support and resistance around the current price.
type Levels struct {
	Support              float64 `json:"support"`
	Resistance           float64 `json:"resistance"`
	CurrentPrice         float64 `json:"current_price"`
	DistanceToSupport    float64 `json:"distance_to_support"`
	DistanceToResistance float64 `json:"distance_to_resistance"`
}

// SupportResistance estimates support and resistance from the trailing
// period bars: the recent extremes pushed out by 10% of the range.
func SupportResistance(s *Series, period int) Levels {
	n := s.Len()
	start := n - period
	if start < 0 {
		start = 0
	}

	recentHigh := s.High[start]
	recentLow := s.Low[start]
	for i := start + 1; i < n; i++ {
		if s.High[i] > recentHigh {
			recentHigh = s.High[i]
		}
		if s.Low[i] < recentLow {
			recentLow = s.Low[i]
		}
	}

	span := recentHigh - recentLow
	current := s.Close[n-1]
	levels := Levels{
		Support:      recentLow - span*0.1,
		Resistance:   recentHigh + span*0.1,
		CurrentPrice: current,
	}
	if current != 0 {
		levels.DistanceToSupport = (current - levels.Support) / current * 100
		levels.DistanceToResistance = (levels.Resistance - current) / current * 100
	}
	return levels
}

// AnalyzeTrend classifies the trend from the moving-average ordering and
// the current close. Fewer than 20 bars, or an undefined MA, yields
// insufficient_data.
func AnalyzeTrend(s *Series) string {
	if s.Len() < 20 {
		return TrendInsufficientData
	}

	i := s.Len() - 1
	ma5, ma10, ma20, ma60 := s.MA5[i], s.MA10[i], s.MA20[i], s.MA60[i]
	if IsNA(ma5) || IsNA(ma10) || IsNA(ma20) || IsNA(ma60) {
		return TrendInsufficientData
	}
	closePrice := s.Close[i]

	switch {
	case ma5 > ma10 && ma10 > ma20 && ma20 > ma60 && closePrice > ma5:
		return TrendStrongBullish
	case ma5 > ma10 && ma10 > ma20 && closePrice > ma5:
		return TrendBullish
	case ma5 < ma10 && ma10 < ma20 && ma20 < ma60 && closePrice < ma5:
		return TrendStrongBearish
	case ma5 < ma10 && ma10 < ma20 && closePrice < ma5:
		return TrendBearish
	default:
		return TrendNeutral
	}
}
