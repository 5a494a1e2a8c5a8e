package news

import (
	"sync"
	"time"
)

// ArticleCache holds fetched headlines per query for TTL seconds, tolerant
// of provider failure: on a dead provider Analyser.Headlines serves the last
// stored articles for the query past their TTL, and "no articles" when
// nothing was ever stored, rather than blocking the trading loop.
type ArticleCache struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	entries map[string]articleEntry
}

type articleEntry struct {
	articles []Article
	storedAt time.Time
}

// NewArticleCache builds a cache with the given TTL. now defaults to
// time.Now if nil, overridable in tests for deterministic expiry.
func NewArticleCache(ttl time.Duration, now func() time.Time) *ArticleCache {
	if now == nil {
		now = time.Now
	}
	return &ArticleCache{ttl: ttl, now: now, entries: make(map[string]articleEntry)}
}

// Get returns cached articles for query and whether the entry is still
// within its TTL.
func (c *ArticleCache) Get(query string) ([]Article, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[query]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		return nil, false
	}
	return entry.articles, true
}

// Put stores articles for query, stamped with the current time.
func (c *ArticleCache) Put(query string, articles []Article) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[query] = articleEntry{articles: articles, storedAt: c.now()}
}

// AnalysisCache holds the AI analyser's output keyed by a fingerprint of the
// headlines it was given, so an unchanged news batch never re-triggers an
// LLM call within the TTL window.
type AnalysisCache struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	entries map[string]analysisEntry
}

type analysisEntry struct {
	signal   AISignal
	storedAt time.Time
}

func NewAnalysisCache(ttl time.Duration, now func() time.Time) *AnalysisCache {
	if now == nil {
		now = time.Now
	}
	return &AnalysisCache{ttl: ttl, now: now, entries: make(map[string]analysisEntry)}
}

func (c *AnalysisCache) Get(fingerprint string) (AISignal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		return AISignal{}, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		return AISignal{}, false
	}
	return entry.signal, true
}

func (c *AnalysisCache) Put(fingerprint string, signal AISignal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = analysisEntry{signal: signal, storedAt: c.now()}
}
