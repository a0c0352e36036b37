package datacache

import (
	"fmt"
	"time"

	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
)

// Range names the selectable time windows.
type Range string

const (
	Range1D  Range = "1D"
	Range1W  Range = "1W"
	Range1M  Range = "1M"
	Range3M  Range = "3M"
	Range6M  Range = "6M"
	Range1Y  Range = "1Y"
	Range2Y  Range = "2Y"
	Range5Y  Range = "5Y"
	RangeMax Range = "MAX"
)

// DenseCeiling caps rendered points for the short, dense windows (1D/1W).
// First and last points are always retained.
const DenseCeiling = 75

// ParseRange validates a range name.
func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case Range1D, Range1W, Range1M, Range3M, Range6M, Range1Y, Range2Y, Range5Y, RangeMax:
		return Range(s), nil
	}
	return "", fmt.Errorf("datacache: unknown range %q", s)
}

// Intraday reports whether the range is served from the intraday feed
// rather than the daily cache.
func (r Range) Intraday() bool { return r == Range1D }

// Dense reports whether the range gets the fixed-stride downsample.
func (r Range) Dense() bool { return r == Range1D || r == Range1W }

// width returns the window duration, using calendar arithmetic anchored
// at now so that "1M" means one calendar month, not 30 flat days.
func (r Range) width(now time.Time) time.Duration {
	var from time.Time
	switch r {
	case Range1D:
		from = now.AddDate(0, 0, -1)
	case Range1W:
		from = now.AddDate(0, 0, -7)
	case Range1M:
		from = now.AddDate(0, -1, 0)
	case Range3M:
		from = now.AddDate(0, -3, 0)
	case Range6M:
		from = now.AddDate(0, -6, 0)
	case Range1Y:
		from = now.AddDate(-1, 0, 0)
	case Range2Y:
		from = now.AddDate(-2, 0, 0)
	case Range5Y:
		from = now.AddDate(-5, 0, 0)
	default:
		return 0
	}
	return now.Sub(from)
}

// Window derives the named window from a normalized full-history series.
//
// The window is centered on centerMs — the current visible-range midpoint —
// so switching granularity preserves the user's scroll position. A zero
// center anchors the window at "now", which with a live series means the
// latest bars. The window is shifted (never shrunk) to stay inside the
// data extent; MAX returns the full series.
func (c *Cache) Window(bars []market.Bar, r Range, centerMs int64) []market.Bar {
	if len(bars) == 0 || r == RangeMax {
		return bars
	}
	now := c.now()
	width := r.width(now)
	if width <= 0 {
		return bars
	}
	widthMs := width.Milliseconds()

	first, last := bars[0].Time, bars[len(bars)-1].Time
	var from, to int64
	if centerMs == 0 {
		// Anchored at now. When the series ends earlier (weekend, stale
		// entry) only the right edge clamps; the left edge stays at
		// now-width so the window never reaches further back than the
		// named span.
		to = market.Ms(now)
		from = to - widthMs
		if to > last {
			to = last
		}
	} else {
		from = centerMs - widthMs/2
		to = centerMs + widthMs/2
		if to > last {
			from, to = from-(to-last), last
		}
	}
	if from < first {
		shift := first - from
		from = first
		if to+shift <= last {
			to += shift
		} else {
			to = last
		}
	}

	out := market.SliceRange(bars, from, to)
	if r.Dense() {
		out = Downsample(out, DenseCeiling)
	}
	return out
}

// Downsample thins bars to at most max points with a fixed stride,
// always retaining the first and last bar.
func Downsample(bars []market.Bar, max int) []market.Bar {
	if max < 2 || len(bars) <= max {
		return bars
	}
	stride := (len(bars) + max - 1) / max
	out := make([]market.Bar, 0, max+1)
	for i := 0; i < len(bars); i += stride {
		out = append(out, bars[i])
	}
	if out[len(out)-1].Time != bars[len(bars)-1].Time {
		out = append(out, bars[len(bars)-1])
	}
	return out
}
