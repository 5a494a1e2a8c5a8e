package store

import "time"

// BotState is the lifecycle state C7 tracks for a registered bot.
type BotState string

const (
	BotStopped  BotState = "stopped"
	BotStarting BotState = "starting"
	BotRunning  BotState = "running"
	BotCrashed  BotState = "crashed"
)

// BotConfig is the registry record, one row per bot, persisted so restarts
// never lose an operator's configuration.
type BotConfig struct {
	ID        int64    `gorm:"primaryKey;autoIncrement"`
	Name      string   `gorm:"not null"`
	Symbol    string   `gorm:"not null;index"`
	Strategy  string   `gorm:"not null"`
	Allocated float64  `gorm:"not null"`
	State     BotState `gorm:"not null;default:stopped"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BotConfig) TableName() string { return "bot_configs" }

// CapitalAddition is one operator-initiated top-up of an open position,
// recorded so ROI reporting can separate "capital the operator put in"
// from "capital the position's own add-buys recycled".
type CapitalAddition struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	PositionID int64 `gorm:"not null;index"`
	Amount     float64
	AddedAt    time.Time
}

func (CapitalAddition) TableName() string { return "capital_additions" }

// PositionSnapshot is the durable per-bot open position record (C5). Absent
// (no row) means the bot is flat. has_traded survives independently of the
// position row's lifetime, so it lives on BotConfig-adjacent state instead —
// see BotRuntimeFlags.HasTraded below and MarkTraded in bot.go.
type PositionSnapshot struct {
	ID                int64   `gorm:"primaryKey;autoIncrement"`
	BotID             int64   `gorm:"not null;uniqueIndex"`
	Symbol            string  `gorm:"not null"`
	Side              string  `gorm:"not null;default:LONG"`
	EntryPrice        float64 `gorm:"not null"`
	Quantity          float64 `gorm:"not null"`
	StopLossPrice     float64
	TakeProfitPrice   float64
	InitialInvestment float64 `gorm:"not null"`
	AddBuyQuoteTotal  float64 `gorm:"not null;default:0"`
	OpenedAt          time.Time
	MaxHoldUntil      time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time

	CapitalAdditions []CapitalAddition `gorm:"foreignKey:PositionID"`
}

func (PositionSnapshot) TableName() string { return "position_snapshots" }

// TradeSide is BUY or SELL on the trade log.
type TradeSide string

const (
	TradeBuy  TradeSide = "BUY"
	TradeSell TradeSide = "SELL"
)

// TradeLogEntry is one append-only fill record (never updated or deleted).
type TradeLogEntry struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	BotID         int64     `gorm:"not null;index"`
	Timestamp     time.Time `gorm:"not null;index"`
	Side          TradeSide `gorm:"not null"`
	Symbol        string    `gorm:"not null"`
	Price         float64   `gorm:"not null"`
	Quantity      float64   `gorm:"not null"`
	QuoteAmount   float64   `gorm:"not null"`
	RealizedPnL   *float64
	Reason        string
	ClientOrderID string // correlates this fill with the exchange order that produced it
}

func (TradeLogEntry) TableName() string { return "trade_log_entries" }

// BotRuntimeFlags persists per-bot booleans that outlive a single position,
// notably has_traded (I3: monotonic until explicit reset) and the cooldown
// deadline after an insufficient-funds halt.
type BotRuntimeFlags struct {
	BotID         int64     `gorm:"primaryKey"`
	HasTraded     bool      `gorm:"not null;default:false"`
	CooldownUntil time.Time
	Halted        bool `gorm:"not null;default:false"`
}

func (BotRuntimeFlags) TableName() string { return "bot_runtime_flags" }
