package strategy

import (
	"context"
	"fmt"

	"spotpilot/news"
)

// TickerNews wraps a fixed-symbol technical strategy and overlays the C3
// news read onto its verdict: a strong news sentiment can upgrade a
// technical "hold" into a "buy"/"sell", or veto a technical signal that
// directly contradicts high-confidence bearish/bullish news.
type TickerNews struct {
	symbol     string
	technical  *Technical
	minNewsConf float64
}

func NewTickerNews(symbol string, minNewsConf float64) *TickerNews {
	return &TickerNews{symbol: symbol, technical: NewTechnical(symbol, 0, 0), minNewsConf: minNewsConf}
}

func (t *TickerNews) Name() string         { return "ticker_news" }
func (t *TickerNews) SymbolMode() SymbolMode { return SymbolModeFixed }

func (t *TickerNews) Analyse(ctx context.Context, input Context) (Signal, error) {
	base, err := t.technical.Analyse(ctx, input)
	if err != nil {
		return Signal{}, err
	}

	if input.NewsSignal == nil || input.NewsSignal.Confidence < t.minNewsConf {
		return base, nil
	}

	signal := input.NewsSignal
	base.RiskLevel = signal.Risk
	base.Urgency = signal.Urgency
	base.Sentiment = signal.Sentiment

	switch {
	case base.Action == ActionHold && signal.Sentiment == news.SentimentBullish:
		base.Action = ActionBuy
		base.Confidence = signal.Confidence
		base.Reasoning = fmt.Sprintf("%s; news overlay: bullish (%.2f)", base.Reasoning, signal.Confidence)
	case base.Action == ActionHold && signal.Sentiment == news.SentimentBearish:
		base.Action = ActionSell
		base.Confidence = signal.Confidence
		base.Reasoning = fmt.Sprintf("%s; news overlay: bearish (%.2f)", base.Reasoning, signal.Confidence)
	case base.Action == ActionBuy && signal.Sentiment == news.SentimentBearish:
		base.Action = ActionHold
		base.Reasoning = fmt.Sprintf("%s; vetoed by bearish news (%.2f)", base.Reasoning, signal.Confidence)
	case base.Action == ActionSell && signal.Sentiment == news.SentimentBullish:
		base.Action = ActionHold
		base.Reasoning = fmt.Sprintf("%s; vetoed by bullish news (%.2f)", base.Reasoning, signal.Confidence)
	}

	return base, nil
}
