package indicator

import "math"

// BollingerResult holds the upper/middle/lower bands.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger computes 20-period SMA bands at +/- 2 standard deviations,
// grounded on the teacher's calculateBOLL.
func Bollinger(candles []Candle, period int, numStdDev float64) BollingerResult {
	values := closes(candles)
	n := len(values)
	upper, middle, lower := nanSeries(n), nanSeries(n), nanSeries(n)
	if n < period {
		return BollingerResult{Upper: upper, Middle: middle, Lower: lower}
	}

	for i := period - 1; i < n; i++ {
		mean := sma(values, i, period)
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		variance /= float64(period - 1)
		stddev := math.Sqrt(variance)

		middle[i] = mean
		upper[i] = mean + numStdDev*stddev
		lower[i] = mean - numStdDev*stddev
	}
	return BollingerResult{Upper: upper, Middle: middle, Lower: lower}
}
