package indicator

import "math"

// RSI returns the Wilder-smoothed relative strength index series. Grounded
// on the teacher's calculateRSI, generalised to a full aligned series: the
// first `period` entries are NaN, entry `period` seeds average gain/loss
// with a plain mean, and every later entry uses Wilder's running average
// (prevAvg*(period-1)+current)/period.
func RSI(candles []Candle, period int) []float64 {
	values := closes(candles)
	n := len(values)
	out := nanSeries(n)
	if n <= period {
		return out
	}

	gainSum, lossSum := 0.0, 0.0
	for i := 1; i <= period; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum += -delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < n; i++ {
		delta := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// trueRange computes Wilder's true range series used by both ATR and ADX.
func trueRange(candles []Candle) []float64 {
	n := len(candles)
	out := make([]float64, n)
	out[0] = candles[0].High - candles[0].Low
	for i := 1; i < n; i++ {
		highLow := candles[i].High - candles[i].Low
		highPrevClose := math.Abs(candles[i].High - candles[i-1].Close)
		lowPrevClose := math.Abs(candles[i].Low - candles[i-1].Close)
		out[i] = math.Max(highLow, math.Max(highPrevClose, lowPrevClose))
	}
	return out
}

func wilderSmooth(values []float64, period int) []float64 {
	n := len(values)
	out := nanSeries(n)
	if n < period {
		return out
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	avg := sum / float64(period)
	out[period-1] = avg
	for i := period; i < n; i++ {
		avg = (avg*float64(period-1) + values[i]) / float64(period)
		out[i] = avg
	}
	return out
}

// ATR returns the Wilder-smoothed average true range series, grounded on the
// teacher's calculateATR.
func ATR(candles []Candle, period int) []float64 {
	if len(candles) == 0 {
		return nil
	}
	tr := trueRange(candles)
	return wilderSmooth(tr, period)
}
