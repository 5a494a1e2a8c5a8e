package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"spotpilot/bot"
	"spotpilot/clock"
	"spotpilot/config"
	"spotpilot/exchange"
	"spotpilot/logger"
	"spotpilot/news"
	"spotpilot/store"
	"spotpilot/strategy"
)

// Strategy tags recognised in a bot config's Strategy field, matching the
// closed set named in §6.
const (
	StrategyTechnical  = "technical"
	StrategyTickerNews = "ticker_news"
	StrategyAutonomous = "autonomous"
)

// ErrNotStopped guards edits that §6/§4.7 restrict to a stopped bot
// (symbol, strategy, allocated; deletion).
var ErrNotStopped = errors.New("manager: bot must be stopped for this operation")

// ErrNotFlat guards deletion, which additionally requires no open position.
var ErrNotFlat = errors.New("manager: bot must be flat to delete")

// drainTimeout is the hard cap §4.7 gives a stopping loop to finish its
// current order submission and flush its snapshot before being abandoned.
const drainTimeout = 10 * time.Second

// runningBot tracks the cancellation handle and completion signal for one
// in-flight trading loop goroutine.
type runningBot struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor implements C7: it owns the bot registry, spawns and stops
// per-bot trading loops, recovers from crashes by leaving a bot `crashed`
// rather than auto-restarting it, and detects orphaned exchange balances on
// startup.
type Supervisor struct {
	Store      *store.Store
	Exchange   exchange.Adapter
	Analyser   *news.Analyser // nil disables news-aware strategies
	LLM        news.LLMClient // used by the autonomous strategy
	Defaults   config.RiskDefaults
	Clock      clock.Clock
	Accountant *Accountant
	Notifier   interface{ Notify(string) } // nil disables operator alerts

	Watchlist         []string // symbols the autonomous strategy may pick from
	MinNewsConfidence float64

	// OrphanCandidateAssets lists base assets (e.g. "BTC", "ETH") the
	// supervisor checks for a positive free balance with no managing bot
	// on startup. Quote pairs are assumed against USDT.
	OrphanCandidateAssets []string

	// OrphanInitialInvestmentFromMarketValue resolves the open question in
	// §9 about an adopted orphan's initial_investment: false (default)
	// uses the computed allocation as a placeholder, matching the source's
	// behaviour; true uses the orphan balance's current market value
	// instead. See DESIGN.md.
	OrphanInitialInvestmentFromMarketValue bool

	CheckIntervalSeconds int
	KlineInterval        string
	KlineLimit           int

	mu      sync.Mutex
	running map[int64]*runningBot
}

func (sup *Supervisor) init() {
	sup.mu.Lock()
	defer sup.mu.Unlock()
	if sup.running == nil {
		sup.running = make(map[int64]*runningBot)
	}
	if sup.Accountant == nil {
		sup.Accountant = &Accountant{Store: sup.Store, Exchange: sup.Exchange}
	}
	if sup.Clock == nil {
		sup.Clock = clock.Real{}
	}
}

func (sup *Supervisor) checkInterval() int {
	if sup.CheckIntervalSeconds <= 0 {
		return 900
	}
	return sup.CheckIntervalSeconds
}

func (sup *Supervisor) klineInterval() string {
	if sup.KlineInterval == "" {
		return "15m"
	}
	return sup.KlineInterval
}

func (sup *Supervisor) klineLimit() int {
	if sup.KlineLimit <= 0 {
		return 50
	}
	return sup.KlineLimit
}

// ListBots and GetBot proxy the registry for the dashboard's read surface.
func (sup *Supervisor) ListBots() ([]store.BotConfig, error) { return sup.Store.Bots().List() }
func (sup *Supervisor) GetBot(id int64) (*store.BotConfig, error) { return sup.Store.Bots().Get(id) }

// CreateBot registers a new bot after checking its allocation against C8.
func (sup *Supervisor) CreateBot(ctx context.Context, cfg *store.BotConfig) error {
	sup.init()
	if err := sup.Accountant.CheckAllocation(ctx, cfg.Allocated); err != nil {
		return err
	}
	cfg.State = store.BotStopped
	return sup.Store.Bots().Create(cfg)
}

// UpdateAllocation edits a stopped bot's allocation, re-checking C8 for any
// increase.
func (sup *Supervisor) UpdateAllocation(ctx context.Context, botID int64, newAllocated float64) error {
	sup.init()
	cfg, err := sup.Store.Bots().Get(botID)
	if err != nil {
		return err
	}
	if cfg.State != store.BotStopped {
		return ErrNotStopped
	}
	if delta := newAllocated - cfg.Allocated; delta > 0 {
		if err := sup.Accountant.CheckAllocation(ctx, delta); err != nil {
			return err
		}
	}
	cfg.Allocated = newAllocated
	return sup.Store.Bots().Update(cfg)
}

// AddFunds pushes an operator top-up onto an open position's
// capital_additions, after C8 re-checks the available budget.
func (sup *Supervisor) AddFunds(ctx context.Context, botID int64, amount float64) error {
	sup.init()
	if err := sup.Accountant.CheckAllocation(ctx, amount); err != nil {
		return err
	}
	pos, err := sup.Store.Positions().Get(botID)
	if err != nil {
		return fmt.Errorf("manager: add funds: %w", err)
	}
	addition := &store.CapitalAddition{Amount: amount, AddedAt: sup.Clock.Now()}
	return sup.Store.Positions().UpdateAfterAddBuy(pos, addition)
}

// DeleteBot removes a bot config, allowed only when stopped and flat (I2).
func (sup *Supervisor) DeleteBot(botID int64) error {
	sup.init()
	cfg, err := sup.Store.Bots().Get(botID)
	if err != nil {
		return err
	}
	if cfg.State != store.BotStopped {
		return ErrNotStopped
	}
	if _, err := sup.Store.Positions().Get(botID); err != store.ErrNotFound {
		if err == nil {
			return ErrNotFlat
		}
		return err
	}
	return sup.Store.Bots().Delete(botID)
}

func (sup *Supervisor) buildStrategy(cfg *store.BotConfig) (strategy.Strategy, error) {
	switch cfg.Strategy {
	case StrategyTechnical:
		return strategy.NewTechnical(cfg.Symbol, sup.Defaults.ATRStopLossMult, sup.Defaults.ATRTakeProfitMult), nil
	case StrategyTickerNews:
		return strategy.NewTickerNews(cfg.Symbol, sup.MinNewsConfidence), nil
	case StrategyAutonomous:
		if sup.LLM == nil {
			return nil, fmt.Errorf("manager: autonomous strategy requires an LLM client")
		}
		return strategy.NewAutonomous(sup.Watchlist, sup.LLM), nil
	default:
		return nil, fmt.Errorf("manager: unknown strategy %q", cfg.Strategy)
	}
}

// Start launches a fresh trading loop for botID.
func (sup *Supervisor) Start(botID int64) error {
	sup.init()

	sup.mu.Lock()
	if _, exists := sup.running[botID]; exists {
		sup.mu.Unlock()
		return fmt.Errorf("manager: bot %d already running", botID)
	}
	sup.mu.Unlock()

	cfg, err := sup.Store.Bots().Get(botID)
	if err != nil {
		return err
	}

	strat, err := sup.buildStrategy(cfg)
	if err != nil {
		return err
	}

	var analyser *news.Analyser
	if cfg.Strategy == StrategyTickerNews || cfg.Strategy == StrategyAutonomous {
		analyser = sup.Analyser
	}

	loop := &bot.Loop{
		BotID: cfg.ID, Symbol: cfg.Symbol, Allocated: cfg.Allocated,
		Exchange: sup.Exchange, Strategy: strat, News: analyser,
		Store: sup.Store, Defaults: sup.Defaults, Clock: sup.Clock,
		Interval: sup.checkInterval(), KlineInterval: sup.klineInterval(), KlineLimit: sup.klineLimit(),
		Notifier: sup.Notifier,
	}

	if err := sup.Store.Bots().SetState(botID, store.BotStarting); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sup.mu.Lock()
	sup.running[botID] = &runningBot{cancel: cancel, done: done}
	sup.mu.Unlock()

	if err := sup.Store.Bots().SetState(botID, store.BotRunning); err != nil {
		cancel()
		sup.mu.Lock()
		delete(sup.running, botID)
		sup.mu.Unlock()
		return err
	}

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Bot(botID).Errorf("trading loop panicked: %v", r)
				sup.markCrashed(botID)
			}
		}()
		loop.Run(ctx)
		sup.onLoopExit(botID, ctx)
	}()

	return nil
}

// onLoopExit decides whether a loop's return was a cooperative Stop (clean)
// or an unplanned exit (crash), per §4.7: only an explicit cancel leaves the
// bot `stopped`; anything else is `crashed`, with no auto-restart.
func (sup *Supervisor) onLoopExit(botID int64, ctx context.Context) {
	sup.mu.Lock()
	delete(sup.running, botID)
	sup.mu.Unlock()

	if ctx.Err() == context.Canceled {
		if err := sup.Store.Bots().SetState(botID, store.BotStopped); err != nil {
			logger.Bot(botID).Errorf("persist stopped state: %v", err)
		}
		return
	}
	sup.markCrashed(botID)
}

func (sup *Supervisor) markCrashed(botID int64) {
	logger.Bot(botID).Warn("trading loop exited unexpectedly, marking crashed")
	if err := sup.Store.Bots().SetState(botID, store.BotCrashed); err != nil {
		logger.Bot(botID).Errorf("persist crashed state: %v", err)
	}
	if sup.Notifier != nil {
		sup.Notifier.Notify(fmt.Sprintf("bot %d crashed unexpectedly", botID))
	}
}

// Stop signals cooperative shutdown and waits up to drainTimeout for the
// loop to finish its current cycle and flush state before giving up on it.
func (sup *Supervisor) Stop(botID int64) error {
	sup.init()

	sup.mu.Lock()
	rb, ok := sup.running[botID]
	sup.mu.Unlock()
	if !ok {
		return fmt.Errorf("manager: bot %d is not running", botID)
	}

	rb.cancel()
	select {
	case <-rb.done:
	case <-time.After(drainTimeout):
		logger.Bot(botID).Warn("stop drain timed out after 10s, abandoning loop")
	}
	return nil
}

// StopAll stops every running bot; used on process shutdown.
func (sup *Supervisor) StopAll() {
	sup.mu.Lock()
	ids := make([]int64, 0, len(sup.running))
	for id := range sup.running {
		ids = append(ids, id)
	}
	sup.mu.Unlock()

	for _, id := range ids {
		if err := sup.Stop(id); err != nil {
			logger.Bot(id).Errorf("stop: %v", err)
		}
	}
}

// StartAll resumes every bot the registry left in running/starting state,
// the crash-recovery-on-restart half of C7 (the other half is
// DetectOrphans).
func (sup *Supervisor) StartAll() error {
	sup.init()
	bots, err := sup.Store.Bots().List()
	if err != nil {
		return err
	}
	for _, b := range bots {
		if b.State == store.BotRunning || b.State == store.BotStarting {
			if err := sup.Start(b.ID); err != nil {
				logger.Bot(b.ID).Errorf("resume on startup: %v", err)
			}
		}
	}
	return nil
}

type orphanCandidate struct {
	asset, symbol string
	free          float64
}

// DetectOrphans implements §4.7.4/S5: for every configured base asset with
// a positive free balance and no bot already managing its pair, create a
// stopped bot with a default allocation and a seeded position snapshot so
// the operator can confirm and start it.
func (sup *Supervisor) DetectOrphans(ctx context.Context) error {
	sup.init()
	if len(sup.OrphanCandidateAssets) == 0 {
		return nil
	}

	bots, err := sup.Store.Bots().List()
	if err != nil {
		return err
	}
	managed := make(map[string]bool, len(bots))
	for _, b := range bots {
		managed[b.Symbol] = true
	}

	// Balance lookups are independent per-asset reads; fan them out so
	// supervisor startup time doesn't scale linearly with the candidate count.
	results := make([]*orphanCandidate, len(sup.OrphanCandidateAssets))
	group, gctx := errgroup.WithContext(ctx)
	for i, asset := range sup.OrphanCandidateAssets {
		i, asset := i, asset
		symbol := asset + quoteAsset
		if managed[symbol] {
			continue
		}
		group.Go(func() error {
			free, _, err := sup.Exchange.GetBalance(gctx, asset)
			if err != nil {
				logger.Warnf("orphan detection: balance for %s: %v", asset, err)
				return nil
			}
			if free > 0 {
				results[i] = &orphanCandidate{asset: asset, symbol: symbol, free: free}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	var orphans []orphanCandidate
	for _, r := range results {
		if r != nil {
			orphans = append(orphans, *r)
		}
	}
	if len(orphans) == 0 {
		return nil
	}

	for _, o := range orphans {
		if err := sup.adoptOrphan(ctx, o, len(orphans)); err != nil {
			logger.Errorf("orphan detection: adopt %s: %v", o.symbol, err)
		}
	}
	return nil
}

func (sup *Supervisor) adoptOrphan(ctx context.Context, o orphanCandidate, orphanCount int) error {
	filters, err := sup.Exchange.GetSymbolFilters(ctx, o.symbol)
	if err != nil {
		return fmt.Errorf("filters: %w", err)
	}
	allocation, err := sup.Accountant.OrphanDefaultAllocation(ctx, orphanCount, filters.MinNotional)
	if err != nil {
		return fmt.Errorf("default allocation: %w", err)
	}
	price, err := sup.Exchange.GetPrice(ctx, o.symbol)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}

	cfg := &store.BotConfig{
		Name: fmt.Sprintf("orphan-%s", o.asset), Symbol: o.symbol,
		Strategy: StrategyTechnical, Allocated: allocation, State: store.BotStopped,
	}
	if err := sup.Store.Bots().Create(cfg); err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	initialInvestment := allocation
	if sup.OrphanInitialInvestmentFromMarketValue {
		initialInvestment = price * o.free
	}

	now := sup.Clock.Now()
	pos := &store.PositionSnapshot{
		BotID: cfg.ID, Symbol: o.symbol, Side: "LONG",
		EntryPrice:        price,
		Quantity:          o.free,
		StopLossPrice:     price * (1 - sup.Defaults.StopLossPct),
		TakeProfitPrice:   price * (1 + sup.Defaults.TakeProfitPct),
		InitialInvestment: initialInvestment,
		OpenedAt:          now,
		MaxHoldUntil:      now.Add(sup.Defaults.MaxHold),
	}
	if err := sup.Store.Positions().Open(pos); err != nil {
		return fmt.Errorf("seed position: %w", err)
	}
	if err := sup.Store.Bots().MarkTraded(cfg.ID); err != nil {
		return fmt.Errorf("mark traded: %w", err)
	}

	logger.Infof("orphan adopted: symbol=%s allocation=%.2f qty=%.6f", o.symbol, allocation, o.free)
	return nil
}
