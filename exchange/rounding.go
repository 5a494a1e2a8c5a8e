package exchange

import "math"

// RoundDownToStep truncates qty to the nearest multiple of step at or below
// it, the way the pack's FormatQty helpers do ("Floor ... to avoid
// -2010 Insufficient Balance"). A zero step is a no-op.
func RoundDownToStep(qty, step float64) float64 {
	if step <= 0 {
		return qty
	}
	return math.Floor(qty/step) * step
}

// RoundToTick rounds price to the nearest tick, matching Binance's
// round-half-up PRICE_FILTER behaviour.
func RoundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	ticks := math.Floor(price/tick + 0.5)
	// For a decimal tick such as 0.01, dividing by its inverse gives the
	// nearest float to the decimal result (10046/100 is 100.46, while
	// 10046*0.01 is 100.46000000000001).
	if inv := math.Round(1 / tick); inv >= 1 && math.Abs(inv*tick-1) < 1e-9 {
		return ticks / inv
	}
	return ticks * tick
}

// CheckMinNotional reports whether qty*price clears the symbol's minimum
// order value, applied locally before submission so a doomed order never
// reaches the exchange.
func CheckMinNotional(filters SymbolFilters, qty, price float64) bool {
	if filters.MinNotional <= 0 {
		return true
	}
	return qty*price >= filters.MinNotional
}
