// Package render defines the contract between the charting engine and the
// low-level chart-rendering primitive. Implementations live in subpackages;
// the engine never talks to a concrete surface directly.
//
// Any call on a Pane, Series, or TimeScale may return ErrDisposed (or an
// error wrapping it) after the pane was torn down. Callers must treat every
// call defensively; the engine swallows disposed-handle errors and logs
// them at most once per pane.
package render

import (
	"errors"

	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
)

// ErrDisposed reports an operation on a handle whose pane was torn down.
var ErrDisposed = errors.New("render: handle disposed")

// IsDisposed reports whether err originates from a disposed handle.
func IsDisposed(err error) bool { return errors.Is(err, ErrDisposed) }

// SeriesKind selects the visual primitive for a series.
type SeriesKind int

const (
	SeriesCandlestick SeriesKind = iota
	SeriesLine
	SeriesHistogram
)

func (k SeriesKind) String() string {
	switch k {
	case SeriesCandlestick:
		return "candlestick"
	case SeriesLine:
		return "line"
	case SeriesHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// LineStyle mirrors the render primitive's stroke styles.
type LineStyle int

const (
	LineSolid LineStyle = iota
	LineDotted
)

// ScaleMargins pins a series' price-scale band inside its pane.
// Top and Bottom are fractions of the pane height.
type ScaleMargins struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// SeriesOptions configures a series at creation time.
type SeriesOptions struct {
	Title string
	Color string
	Width int
	Style LineStyle

	// PriceScaleID partitions the series onto its own price scale; empty
	// means the pane's default right scale.
	PriceScaleID string
	Margins      *ScaleMargins
}

// PriceLine is a static horizontal reference line attached to a series
// (RSI 70/30, zero lines, and so on).
type PriceLine struct {
	Value float64
	Color string
	Style LineStyle
	Title string
}

// PaneOptions configures a pane at creation time.
type PaneOptions struct {
	Width  int
	Height int

	// TimeVisible shows intraday times on the time axis.
	TimeVisible bool
}

// Layout is one observation of a container's geometry and visibility.
type Layout struct {
	Width   int
	Height  int
	Hidden  bool
	Opacity float64
}

// Displayable reports whether a container with this layout can host a
// render surface.
func (l Layout) Displayable() bool {
	return l.Width > 0 && l.Height > 0 && !l.Hidden && l.Opacity != 0
}

// Container is the host slot a pane renders into. The engine only ever
// inspects its layout; everything else is surface-implementation detail.
type Container interface {
	ID() string
	Layout() Layout
}

// Series is one rendered series inside a pane.
type Series interface {
	// SetBars replaces the series data with OHLCV bars (candlestick kind).
	SetBars(bars []market.Bar) error
	// SetPoints replaces the series data with (time, value) points.
	SetPoints(points []market.Point) error
	// AddPriceLine attaches a static horizontal reference line.
	AddPriceLine(line PriceLine) error
	// PriceAt converts a pane-local y coordinate to a price on this
	// series' scale. ok is false when the coordinate is outside the scale.
	PriceAt(y float64) (price float64, ok bool)
}

// TimeScale exposes the pane's horizontal axis.
type TimeScale interface {
	VisibleRange() (market.TimeRange, bool)
	SetVisibleRange(r market.TimeRange) error
	VisibleLogicalRange() (market.LogicalRange, bool)
	SetVisibleLogicalRange(r market.LogicalRange) error

	// SubscribeVisibleRange registers a callback for time-domain range
	// changes and returns an unsubscribe func.
	SubscribeVisibleRange(fn func(market.TimeRange)) (unsubscribe func())
	// SubscribeVisibleLogicalRange registers a callback for index-domain
	// range changes and returns an unsubscribe func.
	SubscribeVisibleLogicalRange(fn func(market.LogicalRange)) (unsubscribe func())

	// TimeAt converts a pane-local x coordinate to a timestamp. ok is
	// false when the coordinate is outside the data range.
	TimeAt(x float64) (timeMs int64, ok bool)
}

// Pane is one independently rendered chart surface.
type Pane interface {
	AddSeries(kind SeriesKind, opts SeriesOptions) (Series, error)
	RemoveSeries(s Series) error
	Resize(width, height int) error
	TimeScale() TimeScale
	// Dispose tears the surface down. Further calls on the pane or any of
	// its handles return ErrDisposed.
	Dispose()
}

// Surface creates panes. It is the factory boundary between the engine and
// a concrete render backend (in-memory, CDP-driven browser page, ...).
type Surface interface {
	CreatePane(container Container, opts PaneOptions) (Pane, error)
}
