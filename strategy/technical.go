package strategy

import (
	"context"
	"fmt"

	"spotpilot/indicator"
	"spotpilot/news"
)

// Technical is the weighted-score, news-free strategy variant: it turns a
// handful of indicators into a single -1..+1 score and maps that score onto
// a buy/sell/hold Action with a confidence derived from the score's
// magnitude. Grounded on the teacher's calculateEMA/RSI/MACD/BOLL cluster
// in market/data.go, restructured to produce one decision instead of a
// dashboard feed.
type Technical struct {
	symbol            string
	atrStopLossMult   float64
	atrTakeProfitMult float64
}

// NewTechnical builds the technical strategy. atrStopLossMult/atrTakeProfitMult
// are the multipliers §4.4 applies to the ATR(14) reading to derive the
// upcoming action's stop-loss/take-profit distance from entry; zero falls
// back to the spec's literal 2x/4x.
func NewTechnical(symbol string, atrStopLossMult, atrTakeProfitMult float64) *Technical {
	if atrStopLossMult <= 0 {
		atrStopLossMult = 2.0
	}
	if atrTakeProfitMult <= 0 {
		atrTakeProfitMult = 4.0
	}
	return &Technical{symbol: symbol, atrStopLossMult: atrStopLossMult, atrTakeProfitMult: atrTakeProfitMult}
}

// sizeFractionForATR implements §4.4's dynamic position-size table: the
// tighter the volatility band (ATR as a fraction of price), the larger the
// fraction of the computed quote-to-spend the loop is allowed to commit.
func sizeFractionForATR(atrPct float64) float64 {
	switch {
	case atrPct < 0.015:
		return 1.0
	case atrPct < 0.025:
		return 0.75
	case atrPct < 0.04:
		return 0.5
	default:
		return 0.3
	}
}

func (t *Technical) Name() string         { return "technical" }
func (t *Technical) SymbolMode() SymbolMode { return SymbolModeFixed }

func (t *Technical) Analyse(ctx context.Context, input Context) (Signal, error) {
	candles := toIndicatorCandles(input.Candles)
	if len(candles) < 30 {
		return Signal{Action: ActionHold, Symbol: t.symbol, Reasoning: "insufficient history"}, nil
	}

	last := len(candles) - 1

	rsi := indicator.RSI(candles, 14)[last]
	macd := indicator.MACD(candles)
	boll := indicator.Bollinger(candles, 20, 2)
	volRatio := indicator.VolumeRatio(candles, 20)[last]
	atr := indicator.ATR(candles, 14)[last]

	score := 0.0
	weights := 0.0

	if !isNaN(rsi) {
		weights += 1
		switch {
		case rsi < 30:
			score += 1
		case rsi > 70:
			score -= 1
		default:
			score += (50 - rsi) / 50 * 0.3
		}
	}

	if !isNaN(macd.Histogram[last]) {
		weights += 1
		if macd.Histogram[last] > 0 {
			score += 1
		} else if macd.Histogram[last] < 0 {
			score -= 1
		}
	}

	if !isNaN(boll.Lower[last]) {
		weights += 1
		price := input.Price
		switch {
		case price <= boll.Lower[last]:
			score += 1
		case price >= boll.Upper[last]:
			score -= 1
		}
	}

	if !isNaN(volRatio) && volRatio > 1.5 {
		// High participation amplifies whatever direction the other
		// indicators already lean.
		if score > 0 {
			score += 0.2
		} else if score < 0 {
			score -= 0.2
		}
	}

	if weights == 0 {
		return Signal{Action: ActionHold, Symbol: t.symbol, Reasoning: "no defined indicators"}, nil
	}
	normalised := score / weights
	if normalised > 1 {
		normalised = 1
	}
	if normalised < -1 {
		normalised = -1
	}

	action := ActionHold
	confidence := 0.5
	switch {
	case normalised > 0.2:
		action = ActionBuy
		confidence = 0.5 + normalised/2
	case normalised < -0.2:
		action = ActionSell
		confidence = 0.5 - normalised/2
	}

	signal := Signal{
		Action:     action,
		Symbol:     t.symbol,
		Confidence: confidence,
		RiskLevel:  news.RiskMedium,
		Urgency:    news.UrgencyModerate,
		Sentiment:  news.SentimentNeutral,
		Reasoning:  fmt.Sprintf("rsi=%.1f macd_hist=%.4f score=%.2f", rsi, macd.Histogram[last], normalised),
	}

	if !isNaN(atr) && input.Price > 0 {
		atrPct := atr / input.Price
		slPct := atrPct * t.atrStopLossMult
		tpPct := atrPct * t.atrTakeProfitMult
		signal.StopLossPct = &slPct
		signal.TakeProfitPct = &tpPct
		signal.SizeFraction = sizeFractionForATR(atrPct)
	}

	return signal, nil
}

func isNaN(f float64) bool { return f != f }
