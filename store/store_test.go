package store

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open in-memory sqlite: %v", err)
	}
	s, err := NewFromGorm(gdb)
	if err != nil {
		t.Fatalf("NewFromGorm: %v", err)
	}
	return s
}

func TestBotCreateGetList(t *testing.T) {
	s := newTestStore(t)
	cfg := &BotConfig{Name: "alpha", Symbol: "BTCUSDT", Strategy: "technical", Allocated: 500, State: BotStopped}
	if err := s.Bots().Create(cfg); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cfg.ID == 0 {
		t.Fatal("expected Create to populate ID")
	}

	got, err := s.Bots().Get(cfg.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "alpha" || got.Symbol != "BTCUSDT" {
		t.Errorf("unexpected bot: %+v", got)
	}

	list, err := s.Bots().List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len(list) = %d, want 1", len(list))
	}
}

func TestBotGetMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Bots().Get(9999)
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHasTradedIsMonotonicUntilReset(t *testing.T) {
	s := newTestStore(t)
	cfg := &BotConfig{Name: "beta", Symbol: "ETHUSDT", Strategy: "technical", Allocated: 100}
	if err := s.Bots().Create(cfg); err != nil {
		t.Fatal(err)
	}

	flags, err := s.Bots().RuntimeFlags(cfg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if flags.HasTraded {
		t.Fatal("expected has_traded=false initially")
	}

	if err := s.Bots().MarkTraded(cfg.ID); err != nil {
		t.Fatal(err)
	}
	flags, _ = s.Bots().RuntimeFlags(cfg.ID)
	if !flags.HasTraded {
		t.Error("expected has_traded=true after MarkTraded")
	}

	if err := s.Bots().ResetTraded(cfg.ID); err != nil {
		t.Fatal(err)
	}
	flags, _ = s.Bots().RuntimeFlags(cfg.ID)
	if flags.HasTraded {
		t.Error("expected has_traded=false after explicit ResetTraded")
	}
}

func TestPositionOpenGetClose(t *testing.T) {
	s := newTestStore(t)
	cfg := &BotConfig{Name: "gamma", Symbol: "BTCUSDT", Strategy: "technical", Allocated: 1000}
	if err := s.Bots().Create(cfg); err != nil {
		t.Fatal(err)
	}

	pos := &PositionSnapshot{
		BotID:             cfg.ID,
		Symbol:            "BTCUSDT",
		Side:              "LONG",
		EntryPrice:        50000,
		Quantity:          0.01,
		InitialInvestment: 500,
		OpenedAt:          time.Now().UTC(),
	}
	if err := s.Positions().Open(pos); err != nil {
		t.Fatalf("Open: %v", err)
	}

	got, err := s.Positions().Get(cfg.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.EntryPrice != 50000 {
		t.Errorf("EntryPrice = %v, want 50000", got.EntryPrice)
	}

	if err := s.Positions().Close(cfg.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.Positions().Get(cfg.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after Close, got %v", err)
	}
}

func TestPositionSnapshotRoundTripIsIdentity(t *testing.T) {
	// R1: serialize -> deserialize of a position snapshot is the identity.
	s := newTestStore(t)
	cfg := &BotConfig{Name: "delta", Symbol: "ETHUSDT", Strategy: "technical", Allocated: 1000}
	if err := s.Bots().Create(cfg); err != nil {
		t.Fatal(err)
	}

	opened := time.Now().UTC().Truncate(time.Second)
	maxHold := opened.Add(24 * time.Hour)
	pos := &PositionSnapshot{
		BotID:             cfg.ID,
		Symbol:            "ETHUSDT",
		Side:              "LONG",
		EntryPrice:        3000.5,
		Quantity:          0.333,
		StopLossPrice:     2900,
		TakeProfitPrice:   3200,
		InitialInvestment: 1000,
		OpenedAt:          opened,
		MaxHoldUntil:      maxHold,
	}
	if err := s.Positions().Open(pos); err != nil {
		t.Fatal(err)
	}

	got, err := s.Positions().Get(cfg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Symbol != pos.Symbol || got.EntryPrice != pos.EntryPrice || got.Quantity != pos.Quantity ||
		got.StopLossPrice != pos.StopLossPrice || got.TakeProfitPrice != pos.TakeProfitPrice ||
		!got.OpenedAt.Equal(pos.OpenedAt) || !got.MaxHoldUntil.Equal(pos.MaxHoldUntil) {
		t.Errorf("round trip mismatch: wrote %+v, read %+v", pos, got)
	}
}

func TestTradeLogAppendAndRead(t *testing.T) {
	s := newTestStore(t)
	cfg := &BotConfig{Name: "epsilon", Symbol: "BTCUSDT", Strategy: "technical", Allocated: 1000}
	if err := s.Bots().Create(cfg); err != nil {
		t.Fatal(err)
	}

	entry := &TradeLogEntry{BotID: cfg.ID, Timestamp: time.Now().UTC(), Side: TradeBuy, Symbol: "BTCUSDT",
		Price: 50000, Quantity: 0.01, QuoteAmount: 500, Reason: "strategy buy"}
	if err := s.Trades().Append(entry); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := s.Trades().ForBot(cfg.ID, 10)
	if err != nil {
		t.Fatalf("ForBot: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Side != TradeBuy {
		t.Errorf("Side = %v, want BUY", entries[0].Side)
	}
}

func TestTotalAllocatedSumsAcrossBots(t *testing.T) {
	s := newTestStore(t)
	if err := s.Bots().Create(&BotConfig{Name: "a", Symbol: "BTCUSDT", Strategy: "technical", Allocated: 300}); err != nil {
		t.Fatal(err)
	}
	if err := s.Bots().Create(&BotConfig{Name: "b", Symbol: "ETHUSDT", Strategy: "technical", Allocated: 200}); err != nil {
		t.Fatal(err)
	}
	total, err := s.Bots().TotalAllocated()
	if err != nil {
		t.Fatal(err)
	}
	if total != 500 {
		t.Errorf("TotalAllocated = %v, want 500", total)
	}
}
