package indicator

import (
	"math"
	"testing"
)

func mkCandles(closes []float64) []Candle {
	out := make([]Candle, len(closes))
	for i, c := range closes {
		out[i] = Candle{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 100 + float64(i)}
	}
	return out
}

func TestEMAWarmupIsNaN(t *testing.T) {
	candles := mkCandles([]float64{1, 2, 3, 4, 5})
	series := EMA(candles, 10)
	for i, v := range series {
		if !isNaN(v) {
			t.Fatalf("index %d: expected NaN for insufficient data, got %v", i, v)
		}
	}
}

func TestEMALength(t *testing.T) {
	candles := mkCandles([]float64{1, 2, 3, 4, 5, 6, 7, 8})
	series := EMA(candles, 3)
	if len(series) != len(candles) {
		t.Fatalf("length = %d, want %d", len(series), len(candles))
	}
	for i := 0; i < 2; i++ {
		if !isNaN(series[i]) {
			t.Errorf("index %d: expected NaN, got %v", i, series[i])
		}
	}
	if isNaN(series[2]) {
		t.Errorf("index 2: expected seeded SMA, got NaN")
	}
}

func TestRSIFlatSeriesIsFifty(t *testing.T) {
	closesFlat := make([]float64, 20)
	for i := range closesFlat {
		closesFlat[i] = 100
	}
	candles := mkCandles(closesFlat)
	series := RSI(candles, 14)
	for i := 14; i < len(series); i++ {
		if math.Abs(series[i]-50) > 1e-9 {
			t.Errorf("index %d: RSI = %v, want 50 for flat prices", i, series[i])
		}
	}
}

func TestRSIMonotonicUpBoundedByHundred(t *testing.T) {
	vals := make([]float64, 20)
	for i := range vals {
		vals[i] = float64(i + 1)
	}
	candles := mkCandles(vals)
	series := RSI(candles, 14)
	for i := 14; i < len(series); i++ {
		if series[i] > 100 || series[i] < 0 {
			t.Errorf("index %d: RSI out of bounds: %v", i, series[i])
		}
	}
}

func TestMACDAlignedLength(t *testing.T) {
	vals := make([]float64, 40)
	for i := range vals {
		vals[i] = 100 + float64(i)*0.5
	}
	candles := mkCandles(vals)
	result := MACD(candles)
	if len(result.MACD) != len(candles) || len(result.Signal) != len(candles) || len(result.Histogram) != len(candles) {
		t.Fatalf("MACD series not aligned with input length")
	}
}

func TestBollingerBandOrdering(t *testing.T) {
	vals := make([]float64, 30)
	for i := range vals {
		vals[i] = 100 + float64(i%5)
	}
	candles := mkCandles(vals)
	result := Bollinger(candles, 20, 2)
	for i := 19; i < len(candles); i++ {
		if result.Upper[i] < result.Middle[i] || result.Middle[i] < result.Lower[i] {
			t.Errorf("index %d: band ordering violated: upper=%v middle=%v lower=%v",
				i, result.Upper[i], result.Middle[i], result.Lower[i])
		}
	}
}

func TestATRNonNegative(t *testing.T) {
	vals := make([]float64, 20)
	for i := range vals {
		vals[i] = 100 + float64(i)
	}
	candles := mkCandles(vals)
	series := ATR(candles, 14)
	for i, v := range series {
		if isNaN(v) {
			continue
		}
		if v < 0 {
			t.Errorf("index %d: ATR negative: %v", i, v)
		}
	}
}

func TestADXBounded(t *testing.T) {
	vals := make([]float64, 60)
	for i := range vals {
		vals[i] = 100 + float64(i)*0.3
	}
	candles := mkCandles(vals)
	series := ADX(candles, 14)
	found := false
	for _, v := range series {
		if isNaN(v) {
			continue
		}
		found = true
		if v < 0 || v > 100 {
			t.Errorf("ADX out of bounds: %v", v)
		}
	}
	if !found {
		t.Fatal("expected at least one defined ADX value")
	}
}

func TestOBVAccumulatesDirectionally(t *testing.T) {
	candles := mkCandles([]float64{10, 11, 10, 10, 12})
	series := OBV(candles)
	if len(series) != len(candles) {
		t.Fatalf("length = %d, want %d", len(series), len(candles))
	}
	// up, down, flat, up
	if !(series[1] > series[0]) {
		t.Errorf("expected OBV to rise on up move")
	}
	if !(series[2] < series[1]) {
		t.Errorf("expected OBV to fall on down move")
	}
	if series[3] != series[2] {
		t.Errorf("expected OBV unchanged on flat move")
	}
	if !(series[4] > series[3]) {
		t.Errorf("expected OBV to rise on up move")
	}
}

func TestVolumeRatioAboveOneOnSpike(t *testing.T) {
	candles := mkCandles([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	for i := range candles {
		candles[i].Volume = 100
	}
	candles[9].Volume = 500
	series := VolumeRatio(candles, 9)
	if isNaN(series[9]) {
		t.Fatalf("expected defined ratio at index 9")
	}
	if series[9] <= 1 {
		t.Errorf("VolumeRatio = %v, want > 1 on a volume spike", series[9])
	}
}
