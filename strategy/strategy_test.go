package strategy

import (
	"context"
	"testing"
	"time"

	"spotpilot/config"
	"spotpilot/exchange"
	"spotpilot/news"
)

func mkKlines(closes []float64) []exchange.Kline {
	out := make([]exchange.Kline, len(closes))
	for i, c := range closes {
		out[i] = exchange.Kline{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 100}
	}
	return out
}

func TestTechnicalHoldsOnInsufficientHistory(t *testing.T) {
	tech := NewTechnical("BTCUSDT", 0, 0)
	sig, err := tech.Analyse(context.Background(), Context{Candles: mkKlines([]float64{1, 2, 3})})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Action != ActionHold {
		t.Errorf("Action = %v, want hold", sig.Action)
	}
}

func TestTechnicalReturnsDefinedActionAfterOversoldRally(t *testing.T) {
	vals := make([]float64, 40)
	// A long decline then a bounce should push RSI off extreme oversold
	// without necessarily flipping MACD/Bollinger; this mainly exercises
	// that Analyse runs end-to-end and returns a definite action.
	for i := 0; i < 30; i++ {
		vals[i] = 100 - float64(i)
	}
	for i := 30; i < 40; i++ {
		vals[i] = vals[29] + float64(i-29)*2
	}
	candles := mkKlines(vals)
	tech := NewTechnical("BTCUSDT", 0, 0)
	sig, err := tech.Analyse(context.Background(), Context{Candles: candles, Price: vals[len(vals)-1]})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Action == "" {
		t.Error("expected a defined action")
	}
}

func TestTickerNewsOverlayUpgradesHoldToBuy(t *testing.T) {
	vals := make([]float64, 20)
	for i := range vals {
		vals[i] = 100 // under 30 candles -> technical strategy holds
	}
	candles := mkKlines(vals)
	tn := NewTickerNews("BTCUSDT", 0.6)

	signal := &news.AISignal{Sentiment: news.SentimentBullish, Confidence: 0.9, Risk: news.RiskLow, Urgency: news.UrgencyModerate}
	sig, err := tn.Analyse(context.Background(), Context{Candles: candles, Price: 100, NewsSignal: signal})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Action != ActionBuy {
		t.Errorf("Action = %v, want buy after bullish news overlay", sig.Action)
	}
}

func TestTickerNewsOverlayVetoesContradictingSignal(t *testing.T) {
	// A flat series that drops on its last candle (RSI 0, close below the
	// lower Bollinger band) makes the technical strategy lean buy; bearish
	// high-confidence news should veto that to hold.
	vals := make([]float64, 40)
	for i := range vals {
		vals[i] = 100
	}
	vals[len(vals)-1] = 90
	candles := mkKlines(vals)
	tn := NewTickerNews("BTCUSDT", 0.6)

	base, _ := tn.technical.Analyse(context.Background(), Context{Candles: candles, Price: vals[len(vals)-1]})
	if base.Action != ActionBuy {
		t.Skip("base technical signal did not land on buy for this fixture; veto path not exercised")
	}

	signal := &news.AISignal{Sentiment: news.SentimentBearish, Confidence: 0.95, Risk: news.RiskHigh, Urgency: news.UrgencyHigh}
	sig, err := tn.Analyse(context.Background(), Context{Candles: candles, Price: vals[len(vals)-1], NewsSignal: signal})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Action != ActionHold {
		t.Errorf("Action = %v, want hold (vetoed by bearish news)", sig.Action)
	}
}

func TestAdjustRiskParamsTightensStopAndTargetOnHighRisk(t *testing.T) {
	defaults := config.DefaultRiskDefaults()
	signal := Signal{RiskLevel: news.RiskHigh, Urgency: news.UrgencyModerate, Sentiment: news.SentimentNeutral}
	params := AdjustRiskParams(defaults, signal)

	if params.StopLossPct != 0.02 {
		t.Errorf("StopLossPct = %v, want 0.02 on risk=high", params.StopLossPct)
	}
	if params.TakeProfitPct != 0.03 {
		t.Errorf("TakeProfitPct = %v, want 0.03 on risk=high", params.TakeProfitPct)
	}
}

func TestAdjustRiskParamsWidensOnLowRisk(t *testing.T) {
	defaults := config.DefaultRiskDefaults()
	signal := Signal{RiskLevel: news.RiskLow, Urgency: news.UrgencyModerate, Sentiment: news.SentimentNeutral}
	params := AdjustRiskParams(defaults, signal)

	if params.StopLossPct != 0.04 {
		t.Errorf("StopLossPct = %v, want 0.04 on risk=low", params.StopLossPct)
	}
	if params.TakeProfitPct != 0.08 {
		t.Errorf("TakeProfitPct = %v, want 0.08 on risk=low", params.TakeProfitPct)
	}
}

func TestAdjustRiskParamsLowersGateOnUrgency(t *testing.T) {
	defaults := config.DefaultRiskDefaults()

	immediate := AdjustRiskParams(defaults, Signal{Urgency: news.UrgencyImmediate})
	if immediate.MinConfidence != 0.50 {
		t.Errorf("MinConfidence = %v, want 0.50 on urgency=immediate", immediate.MinConfidence)
	}

	high := AdjustRiskParams(defaults, Signal{Urgency: news.UrgencyHigh})
	if high.MinConfidence != 0.65 {
		t.Errorf("MinConfidence = %v, want 0.65 on urgency=high", high.MinConfidence)
	}
}

func TestAdjustRiskParamsExtendsMaxHoldOnVeryBullish(t *testing.T) {
	defaults := config.DefaultRiskDefaults()
	signal := Signal{Sentiment: news.SentimentBullish, Confidence: 0.85}
	params := AdjustRiskParams(defaults, signal)

	if params.MaxHold != 48*time.Hour {
		t.Errorf("MaxHold = %v, want 48h on very-bullish sentiment", params.MaxHold)
	}
}

func TestAdjustRiskParamsCompressesMaxHoldOnVeryBearish(t *testing.T) {
	defaults := config.DefaultRiskDefaults()
	signal := Signal{Sentiment: news.SentimentBearish, Confidence: 0.75}
	params := AdjustRiskParams(defaults, signal)

	if params.MaxHold != 12*time.Hour {
		t.Errorf("MaxHold = %v, want 12h on very-bearish sentiment", params.MaxHold)
	}
}

func TestAdjustRiskParamsUsesStrategySuppliedBaseBeforeRiskTable(t *testing.T) {
	defaults := config.DefaultRiskDefaults()
	atrSL, atrTP := 0.018, 0.036
	signal := Signal{StopLossPct: &atrSL, TakeProfitPct: &atrTP}

	params := AdjustRiskParams(defaults, signal)
	if params.StopLossPct != atrSL || params.TakeProfitPct != atrTP {
		t.Errorf("expected the strategy's ATR-derived base to win over RiskDefaults, got sl=%v tp=%v",
			params.StopLossPct, params.TakeProfitPct)
	}

	signal.RiskLevel = news.RiskHigh
	tightened := AdjustRiskParams(defaults, signal)
	if tightened.StopLossPct != 0.02 || tightened.TakeProfitPct != 0.03 {
		t.Errorf("expected risk=high to still override the strategy's base, got sl=%v tp=%v",
			tightened.StopLossPct, tightened.TakeProfitPct)
	}
}

func TestTechnicalSetsATRDerivedStopsAndSizeFraction(t *testing.T) {
	// A tight, low-volatility series: mkKlines gives every candle a 2-point
	// high-low range, about 0.2% of a ~1000 price, so ATR lands in the 1.0
	// size-fraction band (§4.4's ATR<1.5% row).
	vals := make([]float64, 40)
	for i := range vals {
		vals[i] = 1000 + float64(i%2)*0.1
	}
	candles := mkKlines(vals)
	tech := NewTechnical("BTCUSDT", 2, 4)

	sig, err := tech.Analyse(context.Background(), Context{Candles: candles, Price: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.StopLossPct == nil || sig.TakeProfitPct == nil {
		t.Fatal("expected ATR-derived StopLossPct/TakeProfitPct to be set")
	}
	if *sig.TakeProfitPct != *sig.StopLossPct*2 {
		t.Errorf("TakeProfitPct should be 2x StopLossPct (4xATR vs 2xATR), got sl=%v tp=%v",
			*sig.StopLossPct, *sig.TakeProfitPct)
	}
	if sig.SizeFraction != 1.0 {
		t.Errorf("SizeFraction = %v, want 1.0 for a sub-1.5%% ATR band", sig.SizeFraction)
	}
}

func TestAutonomousRejectsSymbolOutsideWatchlist(t *testing.T) {
	llm := &fakeStrategyLLM{response: `{"symbol":"DOGEUSDT","action":"buy","confidence":0.9}`}
	auto := NewAutonomous([]string{"BTCUSDT", "ETHUSDT"}, llm)

	sig, err := auto.Analyse(context.Background(), Context{NewsSignal: &news.AISignal{Sentiment: news.SentimentBullish, Confidence: 0.8}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Action != ActionHold {
		t.Errorf("Action = %v, want hold for an off-watchlist pick", sig.Action)
	}
}

func TestAutonomousAcceptsWatchlistedPick(t *testing.T) {
	llm := &fakeStrategyLLM{response: "```json\n{\"symbol\":\"ETHUSDT\",\"action\":\"buy\",\"confidence\":0.8,\"risk_level\":\"medium\",\"urgency\":\"moderate\",\"sentiment\":\"bullish\",\"reasoning\":\"strong momentum\"}\n```"}
	auto := NewAutonomous([]string{"BTCUSDT", "ETHUSDT"}, llm)

	sig, err := auto.Analyse(context.Background(), Context{NewsSignal: &news.AISignal{Sentiment: news.SentimentBullish, Confidence: 0.8}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Symbol != "ETHUSDT" || sig.Action != ActionBuy {
		t.Errorf("unexpected signal: %+v", sig)
	}
}

type fakeStrategyLLM struct {
	response string
	err      error
}

func (f *fakeStrategyLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return f.response, f.err
}
