package datacache

import (
	"testing"
	"time"

	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
)

func newTestCache(now time.Time) *Cache {
	return New(&stubFetcher{}, WithClock(func() time.Time { return now }))
}

func TestWindow_SubsetMonotonicUnique(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	c := newTestCache(now)
	full := dailyBars(5*252, now)
	inFull := make(map[int64]bool, len(full))
	for _, b := range full {
		inFull[b.Time] = true
	}

	for _, r := range []Range{Range1W, Range1M, Range3M, Range6M, Range1Y, Range2Y, Range5Y, RangeMax} {
		got := c.Window(full, r, 0)
		if len(got) == 0 {
			t.Fatalf("Window(%s) empty", r)
		}
		for i, b := range got {
			if !inFull[b.Time] {
				t.Fatalf("Window(%s) produced timestamp %d not in source", r, b.Time)
			}
			if i > 0 && b.Time <= got[i-1].Time {
				t.Fatalf("Window(%s) not strictly ascending at %d", r, i)
			}
		}
	}
}

func TestWindow_OneMonthAnchoredAtNow(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	c := newTestCache(now)
	full := dailyBars(5*252, now)

	got := c.Window(full, Range1M, 0)
	cutoff := market.Ms(now.AddDate(0, -1, 0))
	if got[0].Time < cutoff {
		t.Fatalf("Window(1M) first = %d; want >= %d (now - 1 calendar month)", got[0].Time, cutoff)
	}
	if got[len(got)-1].Time != full[len(full)-1].Time {
		t.Fatalf("Window(1M) last = %d; want cached series last %d", got[len(got)-1].Time, full[len(full)-1].Time)
	}
}

func TestWindow_OneMonthSeriesEndsBeforeNow(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	c := newTestCache(now)
	// Weekend shape: the last cached bar is two days old.
	full := dailyBars(5*252, now.AddDate(0, 0, -2))

	got := c.Window(full, Range1M, 0)
	cutoff := market.Ms(now.AddDate(0, -1, 0))
	if got[0].Time < cutoff {
		t.Fatalf("Window(1M) first = %d; want >= %d (now - 1 calendar month)", got[0].Time, cutoff)
	}
	if got[len(got)-1].Time != full[len(full)-1].Time {
		t.Fatalf("Window(1M) last = %d; want cached series last %d", got[len(got)-1].Time, full[len(full)-1].Time)
	}
}

func TestWindow_CenteredOnVisibleMidpoint(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	c := newTestCache(now)
	full := dailyBars(5*252, now)

	// Center two years back: the window must straddle it, not snap to now.
	center := market.Ms(now.AddDate(-2, 0, 0))
	got := c.Window(full, Range1M, center)
	if len(got) == 0 {
		t.Fatalf("Window(1M, centered) empty")
	}
	if got[0].Time > center || got[len(got)-1].Time < center {
		t.Fatalf("Window(1M, centered) [%d,%d] does not straddle center %d",
			got[0].Time, got[len(got)-1].Time, center)
	}
}

func TestWindow_CenterPastEndShiftsBack(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	c := newTestCache(now)
	full := dailyBars(252, now)

	center := market.Ms(now.AddDate(1, 0, 0)) // beyond the data
	got := c.Window(full, Range1M, center)
	if len(got) == 0 {
		t.Fatalf("Window(1M) empty after shift")
	}
	if got[len(got)-1].Time != full[len(full)-1].Time {
		t.Fatalf("Window(1M) last = %d; want clamped to series end", got[len(got)-1].Time)
	}
}

func TestWindow_MaxReturnsFullSeries(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	c := newTestCache(now)
	full := dailyBars(100, now)
	got := c.Window(full, RangeMax, market.Ms(now.AddDate(0, -6, 0)))
	if len(got) != len(full) {
		t.Fatalf("Window(MAX) len = %d; want %d", len(got), len(full))
	}
}

func TestDownsample_CapsAndKeepsEndpoints(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	full := dailyBars(1000, now)
	got := Downsample(full, DenseCeiling)
	if len(got) > DenseCeiling+1 {
		t.Fatalf("Downsample() len = %d; want <= %d", len(got), DenseCeiling+1)
	}
	if got[0].Time != full[0].Time {
		t.Fatalf("Downsample() dropped first point")
	}
	if got[len(got)-1].Time != full[len(full)-1].Time {
		t.Fatalf("Downsample() dropped last point")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Time <= got[i-1].Time {
			t.Fatalf("Downsample() not strictly ascending at %d", i)
		}
	}
}

func TestDownsample_SmallInputUntouched(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	full := dailyBars(10, now)
	if got := Downsample(full, DenseCeiling); len(got) != 10 {
		t.Fatalf("Downsample() len = %d; want 10", len(got))
	}
}

func TestParseRange(t *testing.T) {
	if _, err := ParseRange("1M"); err != nil {
		t.Fatalf("ParseRange(1M) error = %v", err)
	}
	if _, err := ParseRange("7Q"); err == nil {
		t.Fatalf("ParseRange(7Q) = nil; want error")
	}
}
