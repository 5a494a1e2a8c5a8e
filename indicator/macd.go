package indicator

// MACDResult holds the three aligned series a MACD chart needs: the MACD
// line itself (EMA12-EMA26), the signal line (EMA9 of the MACD line), and
// the histogram (MACD minus signal). Grounded on the teacher's
// calculateMACD, generalised to full series.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the standard 12/26/9 moving average convergence divergence.
func MACD(candles []Candle) MACDResult {
	values := closes(candles)
	n := len(values)

	fast := emaFromValues(values, 12)
	slow := emaFromValues(values, 26)

	macdLine := nanSeries(n)
	for i := 0; i < n; i++ {
		if !isNaN(fast[i]) && !isNaN(slow[i]) {
			macdLine[i] = fast[i] - slow[i]
		}
	}

	// Signal is EMA9 of the MACD line, computed over only the defined
	// (non-NaN) tail so the seeding SMA doesn't include warm-up NaNs.
	firstDefined := -1
	for i, v := range macdLine {
		if !isNaN(v) {
			firstDefined = i
			break
		}
	}
	signal := nanSeries(n)
	histogram := nanSeries(n)
	if firstDefined == -1 {
		return MACDResult{MACD: macdLine, Signal: signal, Histogram: histogram}
	}

	tail := macdLine[firstDefined:]
	signalTail := emaFromValues(tail, 9)
	for i, v := range signalTail {
		signal[firstDefined+i] = v
		if !isNaN(v) {
			histogram[firstDefined+i] = macdLine[firstDefined+i] - v
		}
	}

	return MACDResult{MACD: macdLine, Signal: signal, Histogram: histogram}
}

func isNaN(f float64) bool { return f != f }
