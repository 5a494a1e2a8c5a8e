package store

import (
	"fmt"
	"sync"

	"gorm.io/gorm"

	"spotpilot/logger"
)

// Store is the single entry point for every database operation, grounded
// on the teacher's Store (sub-stores behind lazy accessors, one *gorm.DB
// underneath). Unlike the teacher, there is no legacy sql.DB bridge: this
// module only ever speaks GORM.
type Store struct {
	gdb *gorm.DB

	mu       sync.RWMutex
	bots     *BotStore
	positions *PositionStore
	trades   *TradeLogStore
}

// New opens a database per cfg and runs AutoMigrate for every model this
// module owns.
func New(cfg DBConfig) (*Store, error) {
	gdb, err := Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if err := gdb.AutoMigrate(
		&BotConfig{},
		&PositionSnapshot{},
		&CapitalAddition{},
		&TradeLogEntry{},
		&BotRuntimeFlags{},
	); err != nil {
		return nil, fmt.Errorf("store: automigrate: %w", err)
	}

	logger.Infof("database initialized (%s)", cfg.Type)
	return &Store{gdb: gdb}, nil
}

// NewFromGorm wraps an already-open connection (used by tests with an
// in-memory sqlite database).
func NewFromGorm(gdb *gorm.DB) (*Store, error) {
	if err := gdb.AutoMigrate(
		&BotConfig{},
		&PositionSnapshot{},
		&CapitalAddition{},
		&TradeLogEntry{},
		&BotRuntimeFlags{},
	); err != nil {
		return nil, fmt.Errorf("store: automigrate: %w", err)
	}
	return &Store{gdb: gdb}, nil
}

func (s *Store) DB() *gorm.DB { return s.gdb }

// Bots returns the bot registry sub-store, lazily constructed.
func (s *Store) Bots() *BotStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bots == nil {
		s.bots = &BotStore{db: s.gdb}
	}
	return s.bots
}

// Positions returns the position snapshot sub-store, lazily constructed.
func (s *Store) Positions() *PositionStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.positions == nil {
		s.positions = &PositionStore{db: s.gdb}
	}
	return s.positions
}

// Trades returns the append-only trade log sub-store, lazily constructed.
func (s *Store) Trades() *TradeLogStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trades == nil {
		s.trades = &TradeLogStore{db: s.gdb}
	}
	return s.trades
}

// ForBot returns a scope that filters by bot_id, mirroring the teacher's
// ForUser/ForTrader query-scope helpers.
func ForBot(botID int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("bot_id = ?", botID)
	}
}

// OrderByTimestampDesc mirrors the teacher's OrderByCreatedDesc scope.
func OrderByTimestampDesc() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("timestamp DESC")
	}
}
