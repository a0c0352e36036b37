// Package rendertest provides a deterministic in-memory implementation of
// the render contract. It backs the engine tests and headless runs, and it
// enforces the same hard invariants the real chart primitive does
// (strictly ascending, unique timestamps) so violations fail fast.
package rendertest

import (
	"fmt"
	"sync"

	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render"
)

// Container is a scriptable host slot. Tests flip its layout to walk the
// pane lifecycle through Pending, Ready, and Failed.
type Container struct {
	mu     sync.Mutex
	id     string
	layout render.Layout
}

func NewContainer(id string, layout render.Layout) *Container {
	return &Container{id: id, layout: layout}
}

func (c *Container) ID() string { return c.id }

func (c *Container) Layout() render.Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout
}

func (c *Container) SetLayout(l render.Layout) {
	c.mu.Lock()
	c.layout = l
	c.mu.Unlock()
}

// Surface is the in-memory pane factory.
type Surface struct {
	mu    sync.Mutex
	panes []*Pane

	// CreateErr, when set, is returned by the next CreatePane call.
	CreateErr error
}

func NewSurface() *Surface { return &Surface{} }

func (s *Surface) CreatePane(container render.Container, opts render.PaneOptions) (render.Pane, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		err := s.CreateErr
		s.CreateErr = nil
		return nil, err
	}
	p := &Pane{
		container: container.ID(),
		width:     opts.Width,
		height:    opts.Height,
		scale:     &TimeScale{},
	}
	p.scale.pane = p
	s.panes = append(s.panes, p)
	return p, nil
}

// Panes returns every pane created so far, disposed ones included.
func (s *Surface) Panes() []*Pane {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Pane, len(s.panes))
	copy(out, s.panes)
	return out
}

// Pane records series and geometry.
type Pane struct {
	mu        sync.Mutex
	container string
	width     int
	height    int
	disposed  bool
	series    []*Series
	scale     *TimeScale

	// price domain for PriceAt conversions: top of the pane maps to
	// priceMax, bottom to priceMin.
	priceMin, priceMax float64
}

func (p *Pane) AddSeries(kind render.SeriesKind, opts render.SeriesOptions) (render.Series, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return nil, render.ErrDisposed
	}
	s := &Series{pane: p, kind: kind, opts: opts}
	p.series = append(p.series, s)
	return s, nil
}

func (p *Pane) RemoveSeries(s render.Series) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return render.ErrDisposed
	}
	fs, ok := s.(*Series)
	if !ok {
		return fmt.Errorf("rendertest: foreign series %T", s)
	}
	for i, have := range p.series {
		if have == fs {
			p.series = append(p.series[:i], p.series[i+1:]...)
			fs.removed = true
			return nil
		}
	}
	return fmt.Errorf("rendertest: series not on pane")
}

func (p *Pane) Resize(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return render.ErrDisposed
	}
	p.width, p.height = width, height
	return nil
}

func (p *Pane) TimeScale() render.TimeScale { return p.scale }

// Container reports the ID of the container this pane was created in.
func (p *Pane) Container() string { return p.container }

func (p *Pane) Dispose() {
	p.mu.Lock()
	p.disposed = true
	p.mu.Unlock()
}

func (p *Pane) Disposed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disposed
}

// SeriesList returns the currently attached series.
func (p *Pane) SeriesList() []*Series {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Series, len(p.series))
	copy(out, p.series)
	return out
}

// SetPriceDomain configures the linear mapping used by Series.PriceAt.
func (p *Pane) SetPriceDomain(min, max float64) {
	p.mu.Lock()
	p.priceMin, p.priceMax = min, max
	p.mu.Unlock()
}

// Series records the data handed to it and rejects unsorted or duplicate
// timestamps the way the real primitive does.
type Series struct {
	pane    *Pane
	kind    render.SeriesKind
	opts    render.SeriesOptions
	removed bool

	mu         sync.Mutex
	bars       []market.Bar
	points     []market.Point
	priceLines []render.PriceLine
}

func (s *Series) Kind() render.SeriesKind       { return s.kind }
func (s *Series) Options() render.SeriesOptions { return s.opts }

func (s *Series) SetBars(bars []market.Bar) error {
	if s.pane.Disposed() {
		return render.ErrDisposed
	}
	for i := 1; i < len(bars); i++ {
		if bars[i].Time <= bars[i-1].Time {
			return fmt.Errorf("rendertest: bar data must be strictly ascending (index %d)", i)
		}
	}
	s.mu.Lock()
	s.bars = append([]market.Bar(nil), bars...)
	s.mu.Unlock()
	return nil
}

func (s *Series) SetPoints(points []market.Point) error {
	if s.pane.Disposed() {
		return render.ErrDisposed
	}
	for i := 1; i < len(points); i++ {
		if points[i].Time <= points[i-1].Time {
			return fmt.Errorf("rendertest: point data must be strictly ascending (index %d)", i)
		}
	}
	s.mu.Lock()
	s.points = append([]market.Point(nil), points...)
	s.mu.Unlock()
	return nil
}

func (s *Series) AddPriceLine(line render.PriceLine) error {
	if s.pane.Disposed() {
		return render.ErrDisposed
	}
	s.mu.Lock()
	s.priceLines = append(s.priceLines, line)
	s.mu.Unlock()
	return nil
}

func (s *Series) PriceAt(y float64) (float64, bool) {
	p := s.pane
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed || p.height <= 0 || p.priceMax <= p.priceMin {
		return 0, false
	}
	if y < 0 || y > float64(p.height) {
		return 0, false
	}
	frac := 1 - y/float64(p.height)
	return p.priceMin + frac*(p.priceMax-p.priceMin), true
}

func (s *Series) Bars() []market.Bar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]market.Bar(nil), s.bars...)
}

func (s *Series) Points() []market.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]market.Point(nil), s.points...)
}

func (s *Series) PriceLines() []render.PriceLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]render.PriceLine(nil), s.priceLines...)
}

// TimeScale is a stored-range scale with synchronous subscriber fan-out.
type TimeScale struct {
	pane *Pane

	mu          sync.Mutex
	visible     market.TimeRange
	hasVisible  bool
	logical     market.LogicalRange
	hasLogical  bool
	timeSubs    map[int]func(market.TimeRange)
	logicalSubs map[int]func(market.LogicalRange)
	nextSub     int
}

func (t *TimeScale) VisibleRange() (market.TimeRange, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible, t.hasVisible
}

func (t *TimeScale) SetVisibleRange(r market.TimeRange) error {
	if t.pane.Disposed() {
		return render.ErrDisposed
	}
	t.mu.Lock()
	t.visible, t.hasVisible = r, true
	subs := make([]func(market.TimeRange), 0, len(t.timeSubs))
	for _, fn := range t.timeSubs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()
	for _, fn := range subs {
		fn(r)
	}
	return nil
}

func (t *TimeScale) VisibleLogicalRange() (market.LogicalRange, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.logical, t.hasLogical
}

func (t *TimeScale) SetVisibleLogicalRange(r market.LogicalRange) error {
	if t.pane.Disposed() {
		return render.ErrDisposed
	}
	t.mu.Lock()
	t.logical, t.hasLogical = r, true
	subs := make([]func(market.LogicalRange), 0, len(t.logicalSubs))
	for _, fn := range t.logicalSubs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()
	for _, fn := range subs {
		fn(r)
	}
	return nil
}

func (t *TimeScale) SubscribeVisibleRange(fn func(market.TimeRange)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timeSubs == nil {
		t.timeSubs = make(map[int]func(market.TimeRange))
	}
	id := t.nextSub
	t.nextSub++
	t.timeSubs[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.timeSubs, id)
		t.mu.Unlock()
	}
}

func (t *TimeScale) SubscribeVisibleLogicalRange(fn func(market.LogicalRange)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.logicalSubs == nil {
		t.logicalSubs = make(map[int]func(market.LogicalRange))
	}
	id := t.nextSub
	t.nextSub++
	t.logicalSubs[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.logicalSubs, id)
		t.mu.Unlock()
	}
}

// TimeAt maps x linearly across the visible range and the pane width.
func (t *TimeScale) TimeAt(x float64) (int64, bool) {
	t.pane.mu.Lock()
	width := t.pane.width
	disposed := t.pane.disposed
	t.pane.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if disposed || !t.hasVisible || width <= 0 {
		return 0, false
	}
	if x < 0 || x > float64(width) {
		return 0, false
	}
	frac := x / float64(width)
	return t.visible.From + int64(frac*float64(t.visible.To-t.visible.From)), true
}
