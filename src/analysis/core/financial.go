package core

// -----------------------------------------------------------------------------

// OHLC summarises an ordered price sequence.
type OHLC struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// ComputeOHLC returns the first, highest, lowest and last price.
func ComputeOHLC(prices []float64) OHLC {
	if len(prices) == 0 {
		return OHLC{}
	}

	out := OHLC{
		Open:  prices[0],
		High:  prices[0],
		Low:   prices[0],
		Close: prices[len(prices)-1],
	}
	for _, p := range prices[1:] {
		if p > out.High {
			out.High = p
		}
		if p < out.Low {
			out.Low = p
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// CalculateChangePercent returns the change from previous to current in percent.
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous * 100
}
