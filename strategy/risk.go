package strategy

import (
	"time"

	"spotpilot/config"
	"spotpilot/news"
)

// RiskParams is the per-action risk envelope the trading loop applies when
// it opens or adds to a position: stop-loss/take-profit percentages, the
// confidence gate a signal must clear, and the max-hold duration before a
// time-based exit fires.
type RiskParams struct {
	StopLossPct   float64
	TakeProfitPct float64
	MinConfidence float64
	MaxHold       time.Duration
}

// Confidence thresholds at which a bullish/bearish sentiment is treated as
// "very bullish"/"very bearish" for the max-hold adjustment — the signal
// pipeline never emits a separate sentiment tier for this, so strength is
// read off confidence instead.
const (
	veryBullishMinConfidence = 0.85
	veryBearishMinConfidence = 0.75
)

// AdjustRiskParams perturbs the operator's RiskDefaults for a single
// upcoming action based on the signal's risk/urgency/sentiment read, per
// §4.4's literal table. The adjustment only ever applies to the action this
// signal is about — it is not a persistent change to the bot's configured
// defaults.
func AdjustRiskParams(defaults config.RiskDefaults, signal Signal) RiskParams {
	params := RiskParams{
		StopLossPct:   defaults.StopLossPct,
		TakeProfitPct: defaults.TakeProfitPct,
		MinConfidence: defaults.MinConfidence,
		MaxHold:       defaults.MaxHold,
	}
	if signal.StopLossPct != nil {
		params.StopLossPct = *signal.StopLossPct
	}
	if signal.TakeProfitPct != nil {
		params.TakeProfitPct = *signal.TakeProfitPct
	}

	switch signal.RiskLevel {
	case news.RiskHigh:
		params.StopLossPct = 0.02
		params.TakeProfitPct = 0.03
	case news.RiskLow:
		params.StopLossPct = 0.04
		params.TakeProfitPct = 0.08
	}

	switch signal.Urgency {
	case news.UrgencyImmediate:
		params.MinConfidence = 0.50
	case news.UrgencyHigh:
		params.MinConfidence = 0.65
	}

	switch {
	case signal.Sentiment == news.SentimentBullish && signal.Confidence >= veryBullishMinConfidence:
		params.MaxHold = 48 * time.Hour
	case signal.Sentiment == news.SentimentBearish && signal.Confidence >= veryBearishMinConfidence:
		params.MaxHold = 12 * time.Hour
	}

	return params
}
