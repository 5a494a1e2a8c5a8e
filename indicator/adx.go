package indicator

import "math"

// ADX returns the Wilder average directional index series. Not present in
// the teacher's market/data.go, so this follows the same Wilder-smoothing
// shape used there for RSI/ATR: seed with a plain mean over the first
// period, then a running (prev*(period-1)+current)/period average.
func ADX(candles []Candle, period int) []float64 {
	n := len(candles)
	out := nanSeries(n)
	if n < 2*period {
		return out
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := trueRange(candles)

	for i := 1; i < n; i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	smoothTR := wilderSmooth(tr[1:], period)
	smoothPlusDM := wilderSmooth(plusDM[1:], period)
	smoothMinusDM := wilderSmooth(minusDM[1:], period)

	dx := nanSeries(n)
	for i := 0; i < len(smoothTR); i++ {
		if isNaN(smoothTR[i]) || smoothTR[i] == 0 {
			continue
		}
		plusDI := 100 * smoothPlusDM[i] / smoothTR[i]
		minusDI := 100 * smoothMinusDM[i] / smoothTR[i]
		sum := plusDI + minusDI
		if sum == 0 {
			continue
		}
		dx[i+1] = 100 * math.Abs(plusDI-minusDI) / sum
	}

	adxSeries := wilderSmooth(compact(dx), period)
	// Re-align adxSeries (computed over the compacted/defined dx tail) back
	// onto the full candle index space.
	firstDX := -1
	for i, v := range dx {
		if !isNaN(v) {
			firstDX = i
			break
		}
	}
	if firstDX == -1 {
		return out
	}
	for i, v := range adxSeries {
		if firstDX+i < n {
			out[firstDX+i] = v
		}
	}
	return out
}

func compact(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	started := false
	for _, v := range values {
		if !started {
			if isNaN(v) {
				continue
			}
			started = true
		}
		out = append(out, v)
	}
	return out
}
