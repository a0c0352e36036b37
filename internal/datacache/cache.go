// Package datacache owns the per-symbol bar history: one full-history
// fetch per symbol inside a TTL window, client-side named-range filtering,
// and a fixed-stride downsample for dense windows.
package datacache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/summit-enterprise/stock-pro-sub000/internal/feed"
	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
)

// DefaultTTL bounds how long a full-history entry is served without a
// refetch. Daily history moves once per session, so an hour is generous.
const DefaultTTL = time.Hour

// Entry is one cached symbol history.
type Entry struct {
	Symbol    string
	Bars      []market.Bar
	FetchedAt time.Time
}

// Cache is the injectable cache service. One process-wide instance is
// shared by every mounted chart; the first mount to fetch a symbol
// populates it for all others.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry
	fetcher feed.Fetcher
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock injects the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(fetcher feed.Fetcher, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*Entry),
		fetcher: fetcher,
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the full normalized daily history for symbol, fetching at
// most once per TTL window. A failed refetch never evicts the prior
// entry: the stale series is returned instead so the chart keeps
// rendering, and the error is only surfaced when there is nothing to show.
func (c *Cache) Get(ctx context.Context, symbol string) ([]market.Bar, error) {
	c.mu.Lock()
	entry, ok := c.entries[symbol]
	if ok && c.now().Sub(entry.FetchedAt) < c.ttl {
		bars := entry.Bars
		c.mu.Unlock()
		return bars, nil
	}
	c.mu.Unlock()

	bars, err := c.fetcher.FetchDaily(ctx, symbol)
	if err != nil {
		if ok {
			slog.Warn("datacache refresh failed, serving stale entry",
				"symbol", symbol, "age", c.now().Sub(entry.FetchedAt), "error", err)
			return entry.Bars, nil
		}
		return nil, fmt.Errorf("datacache: fetch %s: %w", symbol, err)
	}
	bars = market.Normalize(bars)

	c.mu.Lock()
	c.entries[symbol] = &Entry{Symbol: symbol, Bars: bars, FetchedAt: c.now()}
	c.mu.Unlock()
	slog.Debug("datacache populated", "symbol", symbol, "bars", len(bars))
	return bars, nil
}

// Peek returns the cached entry without fetching.
func (c *Cache) Peek(symbol string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[symbol]
	return entry, ok
}

// Set installs an entry directly (tests, warm starts).
func (c *Cache) Set(symbol string, bars []market.Bar) {
	c.mu.Lock()
	c.entries[symbol] = &Entry{Symbol: symbol, Bars: market.Normalize(bars), FetchedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate drops the entry for symbol.
func (c *Cache) Invalidate(symbol string) {
	c.mu.Lock()
	delete(c.entries, symbol)
	c.mu.Unlock()
}

// Intraday returns the higher-resolution series backing the 1D window.
// It is fetched on every call and deliberately excluded from the daily
// cache.
func (c *Cache) Intraday(ctx context.Context, symbol string) ([]market.Bar, error) {
	bars, err := c.fetcher.FetchIntraday(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("datacache: intraday %s: %w", symbol, err)
	}
	return market.Normalize(bars), nil
}

// Symbols lists symbols currently held in the cache.
func (c *Cache) Symbols() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for s := range c.entries {
		out = append(out, s)
	}
	return out
}

// Refresh refetches every expired entry. Wired to a cron schedule by the
// daemon so hot symbols stay warm between user interactions.
func (c *Cache) Refresh(ctx context.Context) {
	for _, symbol := range c.Symbols() {
		c.mu.Lock()
		entry, ok := c.entries[symbol]
		fresh := ok && c.now().Sub(entry.FetchedAt) < c.ttl
		c.mu.Unlock()
		if fresh {
			continue
		}
		if _, err := c.Get(ctx, symbol); err != nil {
			slog.Warn("datacache scheduled refresh failed", "symbol", symbol, "error", err)
		}
	}
}
