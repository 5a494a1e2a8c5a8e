package strategy

import (
	"spotpilot/exchange"
	"spotpilot/indicator"
)

func toIndicatorCandles(klines []exchange.Kline) []indicator.Candle {
	out := make([]indicator.Candle, len(klines))
	for i, k := range klines {
		out[i] = indicator.Candle{Open: k.Open, High: k.High, Low: k.Low, Close: k.Close, Volume: k.Volume}
	}
	return out
}
