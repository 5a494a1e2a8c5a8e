package news

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	DefaultArticleCacheTTL  = time.Hour
	DefaultAnalysisCacheTTL = time.Hour

	headlinesPerFingerprint = 5
	headlineTruncateChars   = 30
)

var codeBlockPattern = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n?(.*?)\\n?```$")

// stripMarkdownCodeBlock removes a ```json fenced block an LLM wraps its
// answer in, grounded on the pack's llm analyser of the same name.
func stripMarkdownCodeBlock(response string) string {
	response = strings.TrimSpace(response)
	if matches := codeBlockPattern.FindStringSubmatch(response); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return response
}

// Fingerprint builds the analysis-cache key from a symbol hint plus the
// headline batch. Earlier builds of this cache keyed purely on headline
// text; two unrelated symbols sharing a quiet news cycle would then collide
// on the same empty-batch fingerprint and one would silently serve the
// other's cached sentiment. Folding symbolHint into the digest fixes that.
func Fingerprint(symbolHint string, articles []Article) string {
	h := sha256.New()
	h.Write([]byte(symbolHint))
	h.Write([]byte{0})
	for i, a := range articles {
		if i >= headlinesPerFingerprint {
			break
		}
		title := a.Title
		if len(title) > headlineTruncateChars {
			title = title[:headlineTruncateChars]
		}
		h.Write([]byte(title))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Analyser fetches headlines through a NewsProvider, caches them, and hands
// batches to an LLMClient for sentiment scoring, caching that result too.
type Analyser struct {
	provider NewsProvider
	llm      LLMClient

	articles  *ArticleCache
	analyses  *AnalysisCache
}

func NewAnalyser(provider NewsProvider, llm LLMClient, articles *ArticleCache, analyses *AnalysisCache) *Analyser {
	return &Analyser{provider: provider, llm: llm, articles: articles, analyses: analyses}
}

// Headlines returns cached headlines for query, falling back to the
// provider on a cache miss. A provider error degrades to the last stored
// headlines for query, even past their TTL, or to nil when none were ever
// stored, rather than failing the caller, since stale or absent news should
// never block a trading cycle.
func (a *Analyser) Headlines(ctx context.Context, query string, limit int) []Article {
	if cached, ok := a.articles.Get(query); ok {
		return cached
	}
	fetched, err := a.provider.FetchHeadlines(ctx, query, limit)
	if err != nil {
		a.articles.mu.Lock()
		defer a.articles.mu.Unlock()
		if entry, ok := a.articles.entries[query]; ok {
			return entry.articles
		}
		return nil
	}
	a.articles.Put(query, fetched)
	return fetched
}

// holdOnFailure is what Analyse returns when the LLM call or its response
// parsing fails. The batch is deliberately not cached in either case, so the
// next cycle gets a fresh attempt instead of being pinned to a dud result.
var holdOnFailure = AISignal{Action: AIActionHold, Confidence: 0}

// Analyse scores a headline batch for sentiment/risk/urgency, reusing a
// cached result when the fingerprint matches an entry within TTL. A failure
// to reach the LLM, or a response it can't parse, degrades to a neutral
// hold-with-zero-confidence signal rather than surfacing an error — bad news
// coverage should never halt a trading cycle.
func (a *Analyser) Analyse(ctx context.Context, symbolHint string, articles []Article) (AISignal, error) {
	fp := Fingerprint(symbolHint, articles)
	if cached, ok := a.analyses.Get(fp); ok {
		return cached, nil
	}

	prompt := buildPrompt(symbolHint, articles)
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return holdOnFailure, nil
	}

	cleaned := stripMarkdownCodeBlock(raw)
	var parsed llmResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return holdOnFailure, nil
	}

	signal := AISignal{
		Action:            actionFromString(parsed.Signal),
		Sentiment:         Sentiment(parsed.Sentiment),
		Risk:              RiskLevel(parsed.RiskLevel),
		Urgency:           Urgency(parsed.Urgency),
		Confidence:        parsed.Confidence,
		RecommendedSymbol: parsed.RecommendedSymbol,
		Reasoning:         parsed.Reasoning,
		SourceArticleIDs:  parsed.SourceArticleIDs,
	}
	a.analyses.Put(fp, signal)
	return signal, nil
}

func actionFromString(s string) AIAction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(AIActionBuy):
		return AIActionBuy
	case string(AIActionSell):
		return AIActionSell
	default:
		return AIActionHold
	}
}

type llmResponse struct {
	Signal            string   `json:"signal"`
	Sentiment         string   `json:"sentiment"`
	RiskLevel         string   `json:"risk_level"`
	Urgency           string   `json:"urgency"`
	Confidence        float64  `json:"confidence"`
	RecommendedSymbol string   `json:"recommended_symbol"`
	Reasoning         string   `json:"reasoning"`
	SourceArticleIDs  []string `json:"source_article_ids"`
}

func buildPrompt(symbolHint string, articles []Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assess the trading signal for %s given these recent headlines.\n", symbolHint)
	b.WriteString("Respond with a single JSON object: {\"signal\":\"BUY|SELL|HOLD\",")
	b.WriteString("\"sentiment\":\"bullish|bearish|neutral|mixed\",")
	b.WriteString("\"risk_level\":\"low|medium|high\",\"urgency\":\"immediate|high|moderate\",")
	b.WriteString("\"confidence\":0.0-1.0,\"recommended_symbol\":\"...\",")
	b.WriteString("\"reasoning\":\"...\",\"source_article_ids\":[\"...\"]}\n\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "- [%d] %s (%s)\n", i, a.Title, a.Source)
	}
	return b.String()
}
