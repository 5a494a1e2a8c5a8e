// Package strategy implements C4, the strategy set: pluggable decision
// engines that turn market data (and, for news-aware variants, C3 output)
// into a single Signal the trading loop can act on.
//
// The teacher's Trader interface favours map[string]interface{} returns
// throughout; per the redesign notes this package instead uses explicit sum
// types for every enumerated field (Action, RiskLevel, Urgency, Sentiment)
// so a caller can switch over them exhaustively instead of string-matching.
package strategy

import (
	"context"
	"time"

	"spotpilot/exchange"
	"spotpilot/news"
)

// Action is what a strategy recommends for the upcoming cycle.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// SymbolMode tells the supervisor whether a strategy trades a single fixed
// symbol or picks its own symbol each cycle (the "autonomous" variant).
type SymbolMode string

const (
	SymbolModeFixed    SymbolMode = "fixed"
	SymbolModeAdvisory SymbolMode = "advisory"
)

// Signal is the strategy's verdict for one cycle.
type Signal struct {
	Action     Action
	Symbol     string // only meaningful for advisory-mode strategies
	Confidence float64
	RiskLevel  news.RiskLevel
	Urgency    news.Urgency
	Sentiment  news.Sentiment
	Reasoning  string

	// StopLossPct and TakeProfitPct let a strategy suggest its own exit
	// thresholds for the upcoming action (e.g. Technical's ATR-derived
	// stops, §4.4) instead of the operator's flat RiskDefaults. Nil means
	// "use the operator default" — AdjustRiskParams applies the dynamic
	// risk/urgency table on top of whichever base is in force.
	StopLossPct   *float64
	TakeProfitPct *float64

	// SizeFraction scales the quote amount the loop would otherwise spend
	// on entry (§4.4's ATR-band position sizing). Zero means "no
	// adjustment" (treated as 1.0) rather than "spend nothing".
	SizeFraction float64
}

// Context bundles everything a strategy needs to produce a Signal: recent
// candles for its symbol, the current market price, and (for news-aware
// strategies) an optional AI news read. Strategies that don't use news
// simply ignore the NewsSignal field.
type Context struct {
	Symbol      string
	Candles     []exchange.Kline
	Price       float64
	NewsSignal  *news.AISignal
	EvaluatedAt time.Time
}

// Strategy is the C4 contract every variant implements.
type Strategy interface {
	// Name identifies the strategy for logging and persistence.
	Name() string
	// SymbolMode reports whether this strategy trades a fixed symbol or
	// advises its own pick each cycle.
	SymbolMode() SymbolMode
	// Analyse produces this cycle's Signal from ctx.
	Analyse(ctx context.Context, input Context) (Signal, error)
}
