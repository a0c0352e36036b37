// Package market holds the bar and point models shared by the feed, the
// cache, and the render layer.
package market

import (
	"sort"
	"time"
)

// Bar is one OHLCV bar. Time is epoch milliseconds.
type Bar struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Point is a single (time, value) pair handed to a line series.
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// TimeRange is a time-domain window in epoch milliseconds.
type TimeRange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// LogicalRange is the index-domain window used for sub-pixel sync during
// drags, where both ends may fall between bar indices.
type LogicalRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

func (r TimeRange) IsZero() bool { return r.From == 0 && r.To == 0 }

// Mid returns the midpoint of the range.
func (r TimeRange) Mid() int64 { return r.From + (r.To-r.From)/2 }

// Normalize sorts bars ascending by time and drops duplicate timestamps,
// keeping the first occurrence. The render layer throws hard on
// non-monotonic or duplicate timestamps, so every series passes through
// here (or through NormalizePoints) before it is handed over.
func Normalize(bars []Bar) []Bar {
	if len(bars) == 0 {
		return bars
	}
	out := make([]Bar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	dedup := out[:1]
	for _, b := range out[1:] {
		if b.Time == dedup[len(dedup)-1].Time {
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup
}

// NormalizePoints is Normalize for line-series points.
func NormalizePoints(points []Point) []Point {
	if len(points) == 0 {
		return points
	}
	out := make([]Point, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	dedup := out[:1]
	for _, p := range out[1:] {
		if p.Time == dedup[len(dedup)-1].Time {
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}

// Closes extracts the close column.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high column.
func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low column.
func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volume column.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// SliceFrom returns the suffix of bars with Time >= cutoff. Bars must
// already be normalized ascending.
func SliceFrom(bars []Bar, cutoff int64) []Bar {
	i := sort.Search(len(bars), func(i int) bool { return bars[i].Time >= cutoff })
	return bars[i:]
}

// SliceRange returns bars with from <= Time <= to. Bars must already be
// normalized ascending.
func SliceRange(bars []Bar, from, to int64) []Bar {
	lo := sort.Search(len(bars), func(i int) bool { return bars[i].Time >= from })
	hi := sort.Search(len(bars), func(i int) bool { return bars[i].Time > to })
	return bars[lo:hi]
}

// Ms converts a time.Time to epoch milliseconds.
func Ms(t time.Time) int64 { return t.UnixMilli() }
