// Package manager implements C7 (the bot supervisor: registry, spawn/stop,
// crash recovery, orphan detection) and C8 (the cross-bot allocation
// accountant) on top of C6's per-bot trading loop.
package manager

import (
	"context"
	"errors"

	"spotpilot/exchange"
	"spotpilot/store"
)

// ErrOverAllocation is returned when an operation would push
// total-allocated-but-unspent capital above the exchange's free USDT
// balance (I1/P5).
var ErrOverAllocation = errors.New("manager: allocation would exceed available funds")

const quoteAsset = "USDT"

// Accountant implements C8: the cross-bot USDT budget. It never mutates
// anything itself — every figure is derived fresh from the store and the
// exchange each call, matching §5's "no core-side mutex" discipline for
// shared balance data.
type Accountant struct {
	Store    *store.Store
	Exchange exchange.Adapter
}

// UsdtFree returns the exchange's current free USDT balance.
func (a *Accountant) UsdtFree(ctx context.Context) (float64, error) {
	free, _, err := a.Exchange.GetBalance(ctx, quoteAsset)
	return free, err
}

// TotalAllocated sums bot.allocated across every registered bot, running or
// not, per §4.8.
func (a *Accountant) TotalAllocated() (float64, error) {
	return a.Store.Bots().TotalAllocated()
}

// totalAllocatedNotYetSpent sums allocated only for bots that are currently
// flat: a bot with an open position has already moved its allocation out of
// usdt_free and into the position, so counting it again here would double
// it — available_for_allocation only needs to reserve quote currency a bot
// hasn't spent yet.
func (a *Accountant) totalAllocatedNotYetSpent() (float64, error) {
	bots, err := a.Store.Bots().List()
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, b := range bots {
		if _, err := a.Store.Positions().Get(b.ID); err != nil {
			if err == store.ErrNotFound {
				sum += b.Allocated
				continue
			}
			return 0, err
		}
	}
	return sum, nil
}

// AvailableForAllocation returns usdt_free minus the allocated-but-unspent
// capital already promised to other bots (§4.8).
func (a *Accountant) AvailableForAllocation(ctx context.Context) (float64, error) {
	free, err := a.UsdtFree(ctx)
	if err != nil {
		return 0, err
	}
	reserved, err := a.totalAllocatedNotYetSpent()
	if err != nil {
		return 0, err
	}
	return free - reserved, nil
}

// CheckAllocation rejects an additional commitment of `additional` quote
// currency with ErrOverAllocation if it would drive available-for-
// allocation negative.
func (a *Accountant) CheckAllocation(ctx context.Context, additional float64) error {
	avail, err := a.AvailableForAllocation(ctx)
	if err != nil {
		return err
	}
	if avail-additional < 0 {
		return ErrOverAllocation
	}
	return nil
}

// OrphanDefaultAllocation implements §4.8's auto-adoption formula:
// (usdt_free * 0.9) / orphan_count, floored at 2x the symbol's min_notional
// so a tiny free balance still produces a tradeable allocation.
func (a *Accountant) OrphanDefaultAllocation(ctx context.Context, orphanCount int, minNotional float64) (float64, error) {
	if orphanCount <= 0 {
		return 0, nil
	}
	free, err := a.UsdtFree(ctx)
	if err != nil {
		return 0, err
	}
	alloc := (free * 0.9) / float64(orphanCount)
	if floor := minNotional * 2; alloc < floor {
		alloc = floor
	}
	return alloc, nil
}
