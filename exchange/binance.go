package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"spotpilot/logger"
)

// BinanceAdapter implements Adapter against the real go-binance/v2 spot
// client, grounded on the pack's spot bot.go usage of NewCreateOrderService
// / NewKlinesService / NewExchangeInfoService. Every call is wrapped with a
// circuit breaker so a string of exchange failures stops hammering it, and
// read-only calls additionally retry transient errors with backoff.
type BinanceAdapter struct {
	client  *binance.Client
	breaker *gobreaker.CircuitBreaker
	retry   RetryConfig
}

// NewBinanceAdapter builds an adapter against Binance (or its testnet, via
// useTestnet) using the given API credentials.
func NewBinanceAdapter(apiKey, apiSecret string, useTestnet bool) *BinanceAdapter {
	binance.UseTestnet = useTestnet
	client := binance.NewClient(apiKey, apiSecret)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "binance-adapter",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("exchange circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &BinanceAdapter{client: client, breaker: cb, retry: DefaultRetryConfig}
}

func (a *BinanceAdapter) GetBalance(ctx context.Context, asset string) (float64, float64, error) {
	type balance struct{ free, locked float64 }

	result, err := withRetry(ctx, a.retry, "get_balance", func(ctx context.Context) (balance, error) {
		raw, err := a.breaker.Execute(func() (interface{}, error) {
			return a.client.NewGetAccountService().Do(ctx)
		})
		if err != nil {
			return balance{}, err
		}
		account := raw.(*binance.Account)
		for _, b := range account.Balances {
			if b.Asset == asset {
				free, _ := strconv.ParseFloat(b.Free, 64)
				locked, _ := strconv.ParseFloat(b.Locked, 64)
				return balance{free, locked}, nil
			}
		}
		return balance{}, fmt.Errorf("asset %s not found in account balances", asset)
	})
	return result.free, result.locked, err
}

func (a *BinanceAdapter) GetPrice(ctx context.Context, symbol string) (float64, error) {
	return withRetry(ctx, a.retry, "get_price", func(ctx context.Context) (float64, error) {
		raw, err := a.breaker.Execute(func() (interface{}, error) {
			return a.client.NewListPricesService().Symbol(symbol).Do(ctx)
		})
		if err != nil {
			return 0, err
		}
		prices := raw.([]*binance.SymbolPrice)
		if len(prices) == 0 {
			return 0, fmt.Errorf("no price returned for %s", symbol)
		}
		return strconv.ParseFloat(prices[0].Price, 64)
	})
}

func (a *BinanceAdapter) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	return withRetry(ctx, a.retry, "get_klines", func(ctx context.Context) ([]Kline, error) {
		raw, err := a.breaker.Execute(func() (interface{}, error) {
			return a.client.NewKlinesService().
				Symbol(symbol).
				Interval(interval).
				Limit(limit).
				Do(ctx)
		})
		if err != nil {
			return nil, err
		}
		raws := raw.([]*binance.Kline)
		out := make([]Kline, 0, len(raws))
		for _, k := range raws {
			open, _ := strconv.ParseFloat(k.Open, 64)
			high, _ := strconv.ParseFloat(k.High, 64)
			low, _ := strconv.ParseFloat(k.Low, 64)
			closePrice, _ := strconv.ParseFloat(k.Close, 64)
			volume, _ := strconv.ParseFloat(k.Volume, 64)
			out = append(out, Kline{
				OpenTime:  time.UnixMilli(k.OpenTime).UTC(),
				Open:      open,
				High:      high,
				Low:       low,
				Close:     closePrice,
				Volume:    volume,
				CloseTime: time.UnixMilli(k.CloseTime).UTC(),
			})
		}
		return out, nil
	})
}

func (a *BinanceAdapter) GetSymbolFilters(ctx context.Context, symbol string) (SymbolFilters, error) {
	return withRetry(ctx, a.retry, "get_symbol_filters", func(ctx context.Context) (SymbolFilters, error) {
		raw, err := a.breaker.Execute(func() (interface{}, error) {
			return a.client.NewExchangeInfoService().Symbol(symbol).Do(ctx)
		})
		if err != nil {
			return SymbolFilters{}, err
		}
		info := raw.(*binance.ExchangeInfo)
		if len(info.Symbols) == 0 {
			return SymbolFilters{}, &Error{Kind: KindBadSymbol, Op: "get_symbol_filters", Err: fmt.Errorf("unknown symbol %s", symbol)}
		}
		sym := info.Symbols[0]
		filters := SymbolFilters{Symbol: symbol}
		for _, f := range sym.Filters {
			switch f["filterType"] {
			case "LOT_SIZE":
				filters.StepSize, _ = strconv.ParseFloat(f["stepSize"].(string), 64)
				filters.MinQty, _ = strconv.ParseFloat(f["minQty"].(string), 64)
			case "PRICE_FILTER":
				filters.TickSize, _ = strconv.ParseFloat(f["tickSize"].(string), 64)
			case "MIN_NOTIONAL", "NOTIONAL":
				if v, ok := f["minNotional"]; ok {
					filters.MinNotional, _ = strconv.ParseFloat(v.(string), 64)
				}
			}
		}
		return filters, nil
	})
}

// MarketOrder is never wrapped in withRetry: a retried market order could
// double-fill. It still runs through the circuit breaker so a broken
// exchange connection fails fast instead of hanging.
func (a *BinanceAdapter) MarketOrder(ctx context.Context, symbol string, side Side, quoteQty, baseQty float64) (OrderResult, error) {
	clientOrderID := uuid.New().String()

	raw, err := a.breaker.Execute(func() (interface{}, error) {
		svc := a.client.NewCreateOrderService().
			Symbol(symbol).
			Side(binance.SideType(side)).
			Type(binance.OrderTypeMarket).
			NewClientOrderID(clientOrderID)

		if side == SideBuy {
			svc = svc.QuoteOrderQty(strconv.FormatFloat(quoteQty, 'f', -1, 64))
		} else {
			svc = svc.Quantity(strconv.FormatFloat(baseQty, 'f', -1, 64))
		}
		return svc.Do(ctx)
	})
	if err != nil {
		return OrderResult{}, Classify("market_order", err)
	}

	order := raw.(*binance.CreateOrderResponse)
	executedQty, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)
	cumulativeQuote, _ := strconv.ParseFloat(order.CummulativeQuoteQuantity, 64)
	avgPrice := 0.0
	if executedQty > 0 {
		avgPrice = cumulativeQuote / executedQty
	}

	return OrderResult{
		OrderID:         order.OrderID,
		ClientOrderID:   clientOrderID,
		Symbol:          symbol,
		Side:            side,
		ExecutedQty:     executedQty,
		CumulativeQuote: cumulativeQuote,
		AvgPrice:        avgPrice,
		FilledAt:        time.UnixMilli(order.TransactionTime).UTC(),
	}, nil
}
