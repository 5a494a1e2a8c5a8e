package bot

import (
	"context"
	"fmt"
	"math"

	"spotpilot/clock"
	"spotpilot/config"
	"spotpilot/exchange"
	"spotpilot/logger"
	"spotpilot/news"
	"spotpilot/position"
	"spotpilot/store"
	"spotpilot/strategy"
)

const (
	quoteAsset         = "USDT"
	headlineFetchLimit = 10
)

// haltError marks a cycle failure as unrecoverable: the loop transitions the
// bot to crashed/halted and exits rather than retrying next cycle.
type haltError struct{ cause error }

func (h *haltError) Error() string { return h.cause.Error() }
func (h *haltError) Unwrap() error { return h.cause }

// Loop drives one bot's periodic cycle, wiring C1 (exchange), C3/C4
// (strategy plus its optional news read), and C5 (position store) under the
// state machine described in §4.6.
type Loop struct {
	BotID     int64
	Symbol    string
	Allocated float64

	Exchange exchange.Adapter
	Strategy strategy.Strategy
	News     *news.Analyser // nil for strategies that never consult news
	Store    *store.Store
	Defaults config.RiskDefaults
	Clock    clock.Clock

	Interval      int // cycle interval, seconds
	KlineInterval string
	KlineLimit    int

	// Notifier is an optional egress for operator alerts (§6 NOTIFIER_*).
	// nil means alerts are silently dropped.
	Notifier interface{ Notify(string) }
}

func (l *Loop) interval() int {
	if l.Interval <= 0 {
		return 900
	}
	return l.Interval
}

// Run drives the cycle until ctx is cancelled or the bot halts. It never
// auto-restarts on crash (§4.7): a panic or a halt both end the goroutine,
// and the supervisor is responsible for observing that and leaving the bot
// in `crashed`.
func (l *Loop) Run(ctx context.Context) {
	log := logger.Bot(l.BotID)
	for {
		select {
		case <-ctx.Done():
			log.Info("stop requested, loop exiting")
			return
		default:
		}

		flags, err := l.Store.Bots().RuntimeFlags(l.BotID)
		if err != nil {
			log.Errorf("load runtime flags: %v", err)
			return
		}
		if flags.Halted {
			log.Warn("bot halted, loop exiting")
			return
		}

		now := l.Clock.Now()
		if now.Before(flags.CooldownUntil) {
			wait := flags.CooldownUntil.Sub(now)
			select {
			case <-ctx.Done():
				return
			case <-l.Clock.After(wait):
			}
			continue
		}

		if err := l.cycle(ctx); err != nil {
			var halt *haltError
			if asHalt(err, &halt) {
				log.Errorf("halting: %v", halt.cause)
				if setErr := l.Store.Bots().SetHalted(l.BotID, true); setErr != nil {
					log.Errorf("persist halted flag: %v", setErr)
				}
				if l.Notifier != nil {
					l.Notifier.Notify(fmt.Sprintf("bot %d (%s) halted: %v", l.BotID, l.Symbol, halt.cause))
				}
				return
			}
			log.Warnf("cycle error: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-l.Clock.After(secondsToDuration(l.interval())):
		}
	}
}

func (l *Loop) cycle(ctx context.Context) error {
	pos, err := l.Store.Positions().Get(l.BotID)
	if err != nil {
		if err == store.ErrNotFound {
			return l.cycleFlat(ctx)
		}
		return fmt.Errorf("load position: %w", err)
	}
	return l.cycleLong(ctx, pos)
}

func (l *Loop) buildContext(ctx context.Context, symbol string) (strategy.Context, error) {
	candles, err := l.Exchange.GetKlines(ctx, symbol, l.KlineInterval, l.KlineLimit)
	if err != nil {
		return strategy.Context{}, l.maybeHalt(err)
	}
	price, err := l.Exchange.GetPrice(ctx, symbol)
	if err != nil {
		return strategy.Context{}, l.maybeHalt(err)
	}

	var newsSignal *news.AISignal
	if l.News != nil {
		articles := l.News.Headlines(ctx, symbol, headlineFetchLimit)
		signal, _ := l.News.Analyse(ctx, symbol, articles)
		newsSignal = &signal
	}

	return strategy.Context{
		Symbol:      symbol,
		Candles:     candles,
		Price:       price,
		NewsSignal:  newsSignal,
		EvaluatedAt: l.Clock.Now(),
	}, nil
}

func (l *Loop) cycleFlat(ctx context.Context) error {
	log := logger.Bot(l.BotID)

	input, err := l.buildContext(ctx, l.Symbol)
	if err != nil {
		return err
	}

	free, _, err := l.Exchange.GetBalance(ctx, quoteAsset)
	if err != nil {
		return l.maybeHalt(err)
	}

	signal, err := l.Strategy.Analyse(ctx, input)
	if err != nil {
		return fmt.Errorf("strategy analyse: %w", err)
	}
	params := strategy.AdjustRiskParams(l.Defaults, signal)

	log.Infof("cycle state=FLAT signal=%s confidence=%.2f price=%.4f balance=%.2f",
		signal.Action, signal.Confidence, input.Price, free)

	if signal.Action != strategy.ActionBuy || signal.Confidence < params.MinConfidence {
		return nil
	}

	// Advisory strategies (autonomous, §4.4) may name a symbol other than
	// the bot's configured placeholder; it overrides for this entry only
	// once C1 confirms it's tradeable. A fixed-mode strategy never sets
	// Signal.Symbol to anything but its own fixed pair, so this is a no-op
	// for Technical/TickerNews.
	tradeSymbol := l.Symbol
	if l.Strategy.SymbolMode() == strategy.SymbolModeAdvisory && signal.Symbol != "" {
		tradeSymbol = signal.Symbol
	}

	flags, err := l.Store.Bots().RuntimeFlags(l.BotID)
	if err != nil {
		return fmt.Errorf("load runtime flags: %w", err)
	}

	var quoteToSpend float64
	if !flags.HasTraded {
		quoteToSpend = l.Allocated
	} else {
		quoteToSpend = math.Min(free*reinvestFraction, l.Allocated)
	}
	if signal.SizeFraction > 0 {
		quoteToSpend *= signal.SizeFraction
	}

	filters, err := l.Exchange.GetSymbolFilters(ctx, tradeSymbol)
	if err != nil {
		if tradeSymbol != l.Symbol {
			log.Warnf("advisory symbol %s not tradeable, downgrading to hold: %v", tradeSymbol, err)
			return nil
		}
		return l.maybeHalt(err)
	}

	if quoteToSpend < filters.MinNotional {
		log.Warnf("insufficient balance for entry: quote_to_spend=%.2f < min_notional=%.2f",
			quoteToSpend, filters.MinNotional)
		return l.enterCooldown()
	}

	result, err := l.Exchange.MarketOrder(ctx, tradeSymbol, exchange.SideBuy, quoteToSpend, 0)
	if err != nil {
		return l.handleOrderErr(err)
	}

	now := l.Clock.Now()
	newPos := &store.PositionSnapshot{
		BotID:             l.BotID,
		Symbol:            tradeSymbol,
		Side:              "LONG",
		EntryPrice:        result.AvgPrice,
		Quantity:          result.ExecutedQty,
		StopLossPrice:     result.AvgPrice * (1 - params.StopLossPct),
		TakeProfitPrice:   result.AvgPrice * (1 + params.TakeProfitPct),
		InitialInvestment: result.CumulativeQuote,
		OpenedAt:          now,
		MaxHoldUntil:      now.Add(params.MaxHold),
	}
	if err := l.Store.Positions().Open(newPos); err != nil {
		return fmt.Errorf("persist opened position: %w", err)
	}
	if err := l.Store.Bots().MarkTraded(l.BotID); err != nil {
		return fmt.Errorf("mark traded: %w", err)
	}
	if err := l.Store.Trades().Append(&store.TradeLogEntry{
		BotID: l.BotID, Timestamp: now, Side: store.TradeBuy, Symbol: tradeSymbol,
		Price: result.AvgPrice, Quantity: result.ExecutedQty, QuoteAmount: result.CumulativeQuote,
		Reason: "strategy_buy", ClientOrderID: result.ClientOrderID,
	}); err != nil {
		log.Errorf("append trade log: %v", err)
	}

	log.Infof("opened LONG symbol=%s entry=%.4f qty=%.6f sl=%.4f tp=%.4f",
		tradeSymbol, newPos.EntryPrice, newPos.Quantity, newPos.StopLossPrice, newPos.TakeProfitPrice)
	return nil
}

// cycleLong always trades pos.Symbol, never l.Symbol: for an advisory
// strategy the two can differ once a position is open on a symbol the
// strategy picked, and §4.6's tie-break ("a new symbol recommendation is
// ignored until the current position closes") falls out naturally here
// since nothing re-reads Signal.Symbol while a position is in force.
func (l *Loop) cycleLong(ctx context.Context, pos *store.PositionSnapshot) error {
	log := logger.Bot(l.BotID)

	price, err := l.Exchange.GetPrice(ctx, pos.Symbol)
	if err != nil {
		return l.maybeHalt(err)
	}
	now := l.Clock.Now()

	// Priority a > b > c: a spike through both stop-loss and take-profit in
	// one window resolves to stop-loss (S3).
	var exitReason ExitReason
	switch {
	case price <= pos.StopLossPrice:
		exitReason = ExitStopLoss
	case price >= pos.TakeProfitPrice:
		exitReason = ExitTakeProfit
	case !now.Before(pos.MaxHoldUntil):
		exitReason = ExitMaxHold
	}

	input, ctxErr := l.buildContext(ctx, pos.Symbol)
	if ctxErr != nil {
		if exitReason != "" {
			return l.exitPosition(ctx, pos, exitReason)
		}
		return ctxErr
	}
	input.Price = price

	signal, sigErr := l.Strategy.Analyse(ctx, input)
	if sigErr != nil {
		if exitReason != "" {
			return l.exitPosition(ctx, pos, exitReason)
		}
		return fmt.Errorf("strategy analyse: %w", sigErr)
	}
	params := strategy.AdjustRiskParams(l.Defaults, signal)

	if exitReason == "" && signal.Action == strategy.ActionSell && signal.Confidence >= params.MinConfidence {
		exitReason = ExitStrategySell
	}

	log.Infof("cycle state=LONG signal=%s confidence=%.2f price=%.4f exit_trigger=%s",
		signal.Action, signal.Confidence, price, exitReason)

	if exitReason != "" {
		return l.exitPosition(ctx, pos, exitReason)
	}

	if signal.Action == strategy.ActionBuy && signal.Confidence >= params.MinConfidence {
		return l.addToPosition(ctx, pos, params)
	}

	return nil
}

func (l *Loop) exitPosition(ctx context.Context, pos *store.PositionSnapshot, reason ExitReason) error {
	log := logger.Bot(l.BotID)

	filters, err := l.Exchange.GetSymbolFilters(ctx, pos.Symbol)
	if err != nil {
		return l.maybeHalt(err)
	}
	qty := exchange.RoundDownToStep(pos.Quantity, filters.StepSize)

	result, err := l.Exchange.MarketOrder(ctx, pos.Symbol, exchange.SideSell, 0, qty)
	if err != nil {
		return l.handleOrderErr(err)
	}

	realizedPnL := result.CumulativeQuote - pos.EntryPrice*result.ExecutedQty
	now := l.Clock.Now()
	if err := l.Store.Trades().Append(&store.TradeLogEntry{
		BotID: l.BotID, Timestamp: now, Side: store.TradeSell, Symbol: pos.Symbol,
		Price: result.AvgPrice, Quantity: result.ExecutedQty, QuoteAmount: result.CumulativeQuote,
		RealizedPnL: &realizedPnL, Reason: string(reason), ClientOrderID: result.ClientOrderID,
	}); err != nil {
		log.Errorf("append trade log: %v", err)
	}
	if err := l.Store.Positions().Close(l.BotID); err != nil {
		return fmt.Errorf("close position: %w", err)
	}

	log.Infof("closed LONG reason=%s exit_price=%.4f pnl=%.4f", reason, result.AvgPrice, realizedPnL)
	return nil
}

func (l *Loop) addToPosition(ctx context.Context, pos *store.PositionSnapshot, params strategy.RiskParams) error {
	log := logger.Bot(l.BotID)

	free, _, err := l.Exchange.GetBalance(ctx, quoteAsset)
	if err != nil {
		return l.maybeHalt(err)
	}
	filters, err := l.Exchange.GetSymbolFilters(ctx, pos.Symbol)
	if err != nil {
		return l.maybeHalt(err)
	}

	addQuote := math.Min(free*addBuyFraction, free-quoteReserve)
	floor := math.Max(filters.MinNotional, 10)
	if addQuote < floor {
		log.Infof("skip add-to-position: add_quote=%.2f below floor=%.2f", addQuote, floor)
		return nil
	}

	result, err := l.Exchange.MarketOrder(ctx, pos.Symbol, exchange.SideBuy, addQuote, 0)
	if err != nil {
		return l.handleOrderErr(err)
	}

	newQty, newEntry := position.CombineEntry(pos.Quantity, pos.EntryPrice, position.Fill{
		Qty: result.ExecutedQty, Price: result.AvgPrice,
	})
	pos.Quantity = newQty
	pos.EntryPrice = newEntry
	pos.StopLossPrice = newEntry * (1 - params.StopLossPct)
	pos.TakeProfitPrice = newEntry * (1 + params.TakeProfitPct)
	pos.AddBuyQuoteTotal += result.CumulativeQuote
	// The hold window restarts at every add-buy, like SL/TP above — see
	// DESIGN.md's decision on the add-to-position / max-hold open question.
	pos.MaxHoldUntil = l.Clock.Now().Add(params.MaxHold)

	if err := l.Store.Positions().UpdateAfterAddBuy(pos, nil); err != nil {
		return fmt.Errorf("persist add-to-position: %w", err)
	}
	if err := l.Store.Trades().Append(&store.TradeLogEntry{
		BotID: l.BotID, Timestamp: l.Clock.Now(), Side: store.TradeBuy, Symbol: pos.Symbol,
		Price: result.AvgPrice, Quantity: result.ExecutedQty, QuoteAmount: result.CumulativeQuote,
		Reason: "add_to_position", ClientOrderID: result.ClientOrderID,
	}); err != nil {
		log.Errorf("append trade log: %v", err)
	}

	log.Infof("added to LONG new_entry=%.4f new_qty=%.6f new_sl=%.4f new_tp=%.4f",
		newEntry, newQty, pos.StopLossPrice, pos.TakeProfitPrice)
	return nil
}

// maybeHalt classifies a non-order exchange error and escalates to a halt
// only for the kinds §7 says are unrecoverable; everything else is a
// skip-this-cycle failure the loop logs and retries next interval.
func (l *Loop) maybeHalt(err error) error {
	classified := exchange.Classify("exchange_call", err)
	if classified.Kind == exchange.KindAuth || classified.Kind == exchange.KindBadSymbol {
		return &haltError{cause: err}
	}
	return err
}

func (l *Loop) handleOrderErr(err error) error {
	classified := exchange.Classify("market_order", err)
	switch classified.Kind {
	case exchange.KindAuth, exchange.KindBadSymbol:
		return &haltError{cause: err}
	case exchange.KindInsufficientBalance:
		logger.Bot(l.BotID).Warnf("insufficient balance on order submit: %v", err)
		return l.enterCooldown()
	case exchange.KindFilterReject:
		logger.Bot(l.BotID).Warnf("order rejected by exchange filters, skipping cycle: %v", err)
		return nil
	default:
		return err
	}
}

func (l *Loop) enterCooldown() error {
	until := l.Clock.Now().Add(cooldownWindow)
	return l.Store.Bots().SetCooldown(l.BotID, until)
}

func asHalt(err error, target **haltError) bool {
	for err != nil {
		if h, ok := err.(*haltError); ok {
			*target = h
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
