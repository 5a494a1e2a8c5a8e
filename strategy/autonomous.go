package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"spotpilot/news"
)

// Autonomous is the advisory-mode strategy: rather than trading one fixed
// symbol, it asks the LLM to pick the best candidate out of a configured
// watchlist each cycle, grounded on the pack's AutoTradingDecision /
// TradingDecisionData shapes (symbol + action + confidence + reasoning per
// candidate), simplified to the single highest-priority pick this system's
// one-symbol-per-bot trading loop can act on.
type Autonomous struct {
	watchlist []string
	llm       news.LLMClient
}

func NewAutonomous(watchlist []string, llm news.LLMClient) *Autonomous {
	return &Autonomous{watchlist: watchlist, llm: llm}
}

func (a *Autonomous) Name() string         { return "autonomous" }
func (a *Autonomous) SymbolMode() SymbolMode { return SymbolModeAdvisory }

type autonomousDecision struct {
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	RiskLevel  string  `json:"risk_level"`
	Urgency    string  `json:"urgency"`
	Sentiment  string  `json:"sentiment"`
	Reasoning  string  `json:"reasoning"`
}

func (a *Autonomous) Analyse(ctx context.Context, input Context) (Signal, error) {
	if input.NewsSignal == nil {
		return Signal{Action: ActionHold, Reasoning: "no news context for autonomous pick"}, nil
	}

	prompt := a.buildPrompt(input)
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return Signal{}, fmt.Errorf("autonomous: llm completion failed: %w", err)
	}

	cleaned := stripMarkdownFence(raw)
	var decision autonomousDecision
	if err := json.Unmarshal([]byte(cleaned), &decision); err != nil {
		return Signal{}, fmt.Errorf("autonomous: parse llm decision: %w", err)
	}

	if !a.inWatchlist(decision.Symbol) {
		return Signal{Action: ActionHold, Reasoning: fmt.Sprintf("llm picked %s, not in watchlist", decision.Symbol)}, nil
	}

	return Signal{
		Action:     Action(strings.ToLower(decision.Action)),
		Symbol:     decision.Symbol,
		Confidence: decision.Confidence,
		RiskLevel:  news.RiskLevel(decision.RiskLevel),
		Urgency:    news.Urgency(decision.Urgency),
		Sentiment:  news.Sentiment(decision.Sentiment),
		Reasoning:  decision.Reasoning,
	}, nil
}

func (a *Autonomous) inWatchlist(symbol string) bool {
	for _, s := range a.watchlist {
		if s == symbol {
			return true
		}
	}
	return false
}

func (a *Autonomous) buildPrompt(input Context) string {
	var b strings.Builder
	b.WriteString("Pick the single best symbol to trade right now from this watchlist: ")
	b.WriteString(strings.Join(a.watchlist, ", "))
	b.WriteString(".\nRespond with one JSON object: {\"symbol\":\"...\",\"action\":\"buy|sell|hold\",")
	b.WriteString("\"confidence\":0.0-1.0,\"risk_level\":\"low|medium|high\",\"urgency\":\"immediate|high|moderate\",")
	b.WriteString("\"sentiment\":\"bullish|bearish|neutral|mixed\",\"reasoning\":\"...\"}\n")
	if input.NewsSignal != nil {
		fmt.Fprintf(&b, "Latest aggregate news sentiment: %s (confidence %.2f): %s\n",
			input.NewsSignal.Sentiment, input.NewsSignal.Confidence, input.NewsSignal.Reasoning)
	}
	return b.String()
}

func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
