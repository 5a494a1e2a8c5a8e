package indicator

// OBV returns the on-balance volume series: a running sum of signed volume,
// where the sign follows the direction of the close-to-close price change.
// The first element anchors the running total at its own volume.
func OBV(candles []Candle) []float64 {
	n := len(candles)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	out[0] = candles[0].Volume
	for i := 1; i < n; i++ {
		switch {
		case candles[i].Close > candles[i-1].Close:
			out[i] = out[i-1] + candles[i].Volume
		case candles[i].Close < candles[i-1].Close:
			out[i] = out[i-1] - candles[i].Volume
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// VolumeRatio returns, for each candle, the ratio of its volume to the
// trailing `period`-candle mean volume (current/mean20 by default) — a
// cheap proxy strategies use to flag unusual participation.
func VolumeRatio(candles []Candle, period int) []float64 {
	n := len(candles)
	out := nanSeries(n)
	if n < period {
		return out
	}
	volumes := make([]float64, n)
	for i, c := range candles {
		volumes[i] = c.Volume
	}
	for i := period - 1; i < n; i++ {
		mean := sma(volumes, i, period)
		if mean == 0 {
			continue
		}
		out[i] = volumes[i] / mean
	}
	return out
}
