package datacache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
)

type stubFetcher struct {
	daily      []market.Bar
	intraday   []market.Bar
	err        error
	dailyCalls int
	intraCalls int
}

func (f *stubFetcher) Name() string { return "stub" }

func (f *stubFetcher) FetchDaily(ctx context.Context, symbol string) ([]market.Bar, error) {
	f.dailyCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.daily, nil
}

func (f *stubFetcher) FetchIntraday(ctx context.Context, symbol string) ([]market.Bar, error) {
	f.intraCalls++
	return f.intraday, nil
}

// dailyBars builds n strictly ascending daily bars ending at end.
func dailyBars(n int, end time.Time) []market.Bar {
	bars := make([]market.Bar, n)
	for i := 0; i < n; i++ {
		t := end.AddDate(0, 0, -(n - 1 - i))
		bars[i] = market.Bar{Time: market.Ms(t), Open: 10, High: 11, Low: 9, Close: 10 + float64(i)*0.01, Volume: 1000}
	}
	return bars
}

func TestGet_FetchesOncePerTTL(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	f := &stubFetcher{daily: dailyBars(10, now)}
	c := New(f, WithClock(func() time.Time { return now }))

	for i := 0; i < 5; i++ {
		if _, err := c.Get(context.Background(), "AAPL"); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
	}
	if f.dailyCalls != 1 {
		t.Fatalf("daily fetch calls = %d; want 1", f.dailyCalls)
	}
}

func TestGet_ExpiredEntryRefetches(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	f := &stubFetcher{daily: dailyBars(10, now)}
	c := New(f, WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	_, _ = c.Get(context.Background(), "AAPL")
	now = now.Add(2 * time.Minute)
	_, _ = c.Get(context.Background(), "AAPL")
	if f.dailyCalls != 2 {
		t.Fatalf("daily fetch calls = %d; want 2", f.dailyCalls)
	}
}

func TestGet_FetchErrorKeepsPriorEntry(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	f := &stubFetcher{daily: dailyBars(10, now)}
	c := New(f, WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	first, err := c.Get(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	now = now.Add(2 * time.Minute)
	f.err = errors.New("upstream down")
	stale, err := c.Get(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Get() with stale entry error = %v; want nil", err)
	}
	if len(stale) != len(first) {
		t.Fatalf("Get() stale len = %d; want %d", len(stale), len(first))
	}
	if _, ok := c.Peek("AAPL"); !ok {
		t.Fatalf("Peek() entry gone; want prior entry intact")
	}
}

func TestGet_FetchErrorWithNoEntry(t *testing.T) {
	f := &stubFetcher{err: errors.New("upstream down")}
	c := New(f)
	if _, err := c.Get(context.Background(), "AAPL"); err == nil {
		t.Fatalf("Get() = nil; want error when no prior entry exists")
	}
}

func TestIntraday_NeverCached(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	f := &stubFetcher{intraday: dailyBars(3, now)}
	c := New(f)

	_, _ = c.Intraday(context.Background(), "AAPL")
	_, _ = c.Intraday(context.Background(), "AAPL")
	if f.intraCalls != 2 {
		t.Fatalf("intraday calls = %d; want 2 (no caching)", f.intraCalls)
	}
	if _, ok := c.Peek("AAPL"); ok {
		t.Fatalf("Peek() found entry; intraday must not enter the daily cache")
	}
}

func TestRefresh_OnlyRefetchesExpired(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	f := &stubFetcher{daily: dailyBars(5, now)}
	c := New(f, WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	_, _ = c.Get(context.Background(), "AAPL")
	c.Refresh(context.Background())
	if f.dailyCalls != 1 {
		t.Fatalf("daily fetch calls = %d; want 1 (entry still fresh)", f.dailyCalls)
	}

	now = now.Add(2 * time.Minute)
	c.Refresh(context.Background())
	if f.dailyCalls != 2 {
		t.Fatalf("daily fetch calls = %d; want 2 after expiry", f.dailyCalls)
	}
}
