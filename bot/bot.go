// Package bot implements C6, the per-bot trading loop and position state
// machine: the periodic cycle that turns a strategy's Signal into exchange
// orders, tracks the open position through the FLAT/LONG/COOLDOWN/HALTED
// states, and persists every transition through C5.
package bot

import "time"

// PositionState is the trading loop's internal state machine, distinct from
// the supervisor-level store.BotState (stopped/starting/running/crashed):
// a bot can be store.BotRunning while its loop cycles between FLAT, LONG,
// and COOLDOWN.
type PositionState string

const (
	StateFlat     PositionState = "FLAT"
	StateLong     PositionState = "LONG"
	StateCooldown PositionState = "COOLDOWN"
	StateHalted   PositionState = "HALTED"
)

// ExitReason names why a LONG position was closed, per P4.
type ExitReason string

const (
	ExitStopLoss     ExitReason = "SL"
	ExitTakeProfit   ExitReason = "TP"
	ExitMaxHold      ExitReason = "max_hold"
	ExitStrategySell ExitReason = "strategy_sell"
)

// cooldownWindow is the fixed backoff after an insufficient-balance buy
// attempt (§4.6).
const cooldownWindow = 300 * time.Second

// quoteReserve is the fixed quote-currency buffer add-to-position leaves
// untouched (§4.6: "the 20 is a quote-currency reserve").
const quoteReserve = 20.0

// addBuyFraction is the share of available quote an add-to-position buy may
// spend at most.
const addBuyFraction = 0.5

// reinvestFraction is the share of available quote a reinvest buy (not the
// bot's first trade) may spend at most.
const reinvestFraction = 0.99

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
