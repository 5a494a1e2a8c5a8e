// Package exchange implements C1, the Exchange Adapter: a thin, retrying,
// circuit-broken wrapper around a Binance-compatible spot REST client. Every
// trading-loop call to the live market goes through the Adapter interface
// here so C6 never touches go-binance/v2 types directly.
package exchange

import (
	"context"
	"time"
)

// Side is the direction of a market order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Kline is one OHLCV candle, already normalised to float64.
type Kline struct {
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// SymbolFilters holds the exchange's tradability constraints for a symbol,
// mirroring Binance's LOT_SIZE / PRICE_FILTER / MIN_NOTIONAL filters.
type SymbolFilters struct {
	Symbol      string
	StepSize    float64 // quantity increment (LOT_SIZE)
	MinQty      float64
	TickSize    float64 // price increment (PRICE_FILTER)
	MinNotional float64 // minimum order value in quote currency
}

// OrderResult reports what the exchange actually filled.
type OrderResult struct {
	OrderID         int64
	ClientOrderID   string // generated locally, correlates a fill with its trade log entry
	Symbol          string
	Side            Side
	ExecutedQty     float64
	CumulativeQuote float64
	AvgPrice        float64
	FilledAt        time.Time
}

// Adapter is everything the trading loop and supervisor need from the
// exchange. Implementations must translate provider-specific errors into the
// Kind taxonomy in errors.go so callers never branch on HTTP status codes.
type Adapter interface {
	// GetBalance returns the free and locked quantity of an asset (e.g. "USDT").
	GetBalance(ctx context.Context, asset string) (free, locked float64, err error)
	// GetPrice returns the latest traded price for a symbol (e.g. "BTCUSDT").
	GetPrice(ctx context.Context, symbol string) (float64, error)
	// GetKlines returns `limit` candles of the given interval, oldest first.
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error)
	// GetSymbolFilters returns the tradability constraints for a symbol.
	GetSymbolFilters(ctx context.Context, symbol string) (SymbolFilters, error)
	// MarketOrder submits an immediate market order. For a buy, quoteQty is
	// the amount of quote currency to spend (QuoteOrderQty); for a sell,
	// baseQty is the amount of base asset to liquidate. Order submission is
	// never retried by the adapter — see DESIGN.md.
	MarketOrder(ctx context.Context, symbol string, side Side, quoteQty, baseQty float64) (OrderResult, error)
}
