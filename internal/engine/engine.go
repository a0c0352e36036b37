// Package engine composes the chart services into one controller: cached
// bar history, pane lifecycle, time-scale sync, indicator reconciliation,
// and the drawing layer. One Engine is one mounted chart component; panes
// are shared between engines through the registry.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/summit-enterprise/stock-pro-sub000/internal/datacache"
	"github.com/summit-enterprise/stock-pro-sub000/internal/drawing"
	"github.com/summit-enterprise/stock-pro-sub000/internal/indicator"
	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
	"github.com/summit-enterprise/stock-pro-sub000/internal/overlay"
	"github.com/summit-enterprise/stock-pro-sub000/internal/pane"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render"
	"github.com/summit-enterprise/stock-pro-sub000/internal/timescale"
)

// ErrSelectionFull is returned when a toggle would push the selection past
// its cap. The selection is untouched when this is returned.
var ErrSelectionFull = errors.New("engine: indicator selection full")

// ErrNotMounted is returned by operations that need a mounted chart.
var ErrNotMounted = errors.New("engine: no symbol mounted")

// ContainerProvider hands out the host slot for a named pane. Names are
// stable ("main", "volume", "rsi", "macd", "momentum:<FAMILY>") so a host
// can pre-build its slots or create them on demand.
type ContainerProvider func(name string) render.Container

// Engine drives one chart: a symbol, a named range, a selection of
// indicators, and the drawn lines on the price pane.
type Engine struct {
	cache      *datacache.Cache
	surface    render.Surface
	containers ContainerProvider
	registry   *pane.Registry
	syncer     *timescale.Synchronizer
	reconciler *overlay.Reconciler
	events     *bus

	mu        sync.Mutex
	symbol    string
	rng       datacache.Range
	window    []market.Bar
	selection *indicator.Selection

	mainKey, volKey  pane.Key
	mainCtrl         *pane.Controller
	volCtrl          *pane.Controller
	mainSeries       render.Series
	volSeries        render.Series
	drawings         *drawing.Controller
	indicatorPanes   map[indicator.Family]pane.Key
	indicatorSyncIDs map[indicator.Family]string
}

// New wires an engine over a shared cache, a render surface, and a shared
// pane registry. The registry may be shared by several engines; panes for
// the same (symbol, kind) are then reused across them.
func New(cache *datacache.Cache, surface render.Surface, containers ContainerProvider, registry *pane.Registry) *Engine {
	e := &Engine{
		cache:            cache,
		surface:          surface,
		containers:       containers,
		registry:         registry,
		syncer:           timescale.New(),
		events:           newBus(),
		rng:              datacache.Range1Y,
		selection:        indicator.NewSelection(),
		indicatorPanes:   make(map[indicator.Family]pane.Key),
		indicatorSyncIDs: make(map[indicator.Family]string),
	}
	e.reconciler = overlay.NewReconciler(e)
	return e
}

// Subscribe returns a channel of engine events and an unsubscribe func.
func (e *Engine) Subscribe() (<-chan Event, func()) { return e.events.subscribe() }

// Symbol returns the mounted symbol, empty before the first mount.
func (e *Engine) Symbol() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.symbol
}

// Range returns the active named range.
func (e *Engine) Range() datacache.Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng
}

// Window returns the bars currently on screen.
func (e *Engine) Window() []market.Bar {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]market.Bar(nil), e.window...)
}

// Selected returns the selected indicator specs in insertion order.
func (e *Engine) Selected() []indicator.Spec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.Specs()
}

// Drawings returns the drawing controller for the price pane, nil until
// the main pane is up.
func (e *Engine) Drawings() *drawing.Controller {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drawings
}

// Mount fetches the symbol's history, brings the core panes up, and
// renders the default range. It is also the symbol-switch path: data is
// fetched before any pane state changes, so a failed fetch leaves the
// previous chart fully intact instead of blanking it.
func (e *Engine) Mount(ctx context.Context, symbol string) error {
	bars, err := e.cache.Get(ctx, symbol)
	if err != nil {
		return fmt.Errorf("engine: mount %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("engine: mount %s: empty history", symbol)
	}

	e.mu.Lock()
	prevMain, prevVol := e.mainKey, e.volKey
	mounted := e.mainCtrl != nil
	sameSymbol := mounted && e.symbol == symbol
	e.symbol = symbol
	e.mu.Unlock()

	if !sameSymbol {
		if mounted {
			e.releaseIndicatorPanes()
		}
		mainKey := pane.Key{Symbol: symbol, Kind: pane.KindMain}
		volKey := pane.Key{Symbol: symbol, Kind: pane.KindVolume}
		mainCtrl := e.registry.Acquire(mainKey, func() *pane.Controller {
			return pane.NewController(pane.KindMain, e.surface, e.containers("main"), render.PaneOptions{}, nil)
		})
		volCtrl := e.registry.Acquire(volKey, func() *pane.Controller {
			return pane.NewController(pane.KindVolume, e.surface, e.containers("volume"), render.PaneOptions{}, nil)
		})
		mainCtrl.PollUntilReady(ctx)
		volCtrl.PollUntilReady(ctx)

		e.mu.Lock()
		e.mainKey, e.volKey = mainKey, volKey
		e.mainCtrl, e.volCtrl = mainCtrl, volCtrl
		e.mainSeries, e.volSeries = nil, nil
		e.drawings = nil
		e.mu.Unlock()

		e.adoptCorePanes()

		// Only now is the old symbol's claim dropped; refcounting keeps the
		// panes alive if another engine still shows that symbol.
		if mounted {
			e.registry.Release(prevMain)
			e.registry.Release(prevVol)
		}
	}

	// A symbol switch resets the view to the latest bars (zero center).
	if err := e.applyRange(ctx, e.Range(), 0); err != nil {
		return err
	}
	e.events.publish(Event{Type: EventSymbolChanged, Symbol: symbol})
	return nil
}

// adoptCorePanes binds series handles and the drawing controller to the
// freshly acquired main and volume panes, and rebuilds the sync topology
// with the main pane as master.
func (e *Engine) adoptCorePanes() {
	e.mu.Lock()
	mainCtrl, volCtrl := e.mainCtrl, e.volCtrl
	e.mu.Unlock()

	mainPane, ok := mainCtrl.Pane()
	if !ok {
		slog.Warn("engine: main pane not ready after mount")
		return
	}
	price, err := mainPane.AddSeries(render.SeriesCandlestick, render.SeriesOptions{Title: "price"})
	if err != nil {
		slog.Warn("engine: price series create failed", "error", err)
		return
	}
	e.syncer.AttachMaster(mainPane.TimeScale())

	var vol render.Series
	if volPane, ok := volCtrl.Pane(); ok {
		vol, err = volPane.AddSeries(render.SeriesHistogram, render.SeriesOptions{Title: "volume", Color: "#26a69a"})
		if err != nil {
			slog.Warn("engine: volume series create failed", "error", err)
			vol = nil
		}
		e.syncer.AddSecondary("volume", volPane.TimeScale())
	}

	e.mu.Lock()
	e.mainSeries = price
	e.volSeries = vol
	e.drawings = drawing.NewController(mainPane, price)
	e.mu.Unlock()
}

// SetRange switches the named range, keeping the window centered on the
// user's current scroll position.
func (e *Engine) SetRange(ctx context.Context, name string) error {
	rng, err := datacache.ParseRange(name)
	if err != nil {
		return err
	}
	var center int64
	if r, ok := e.syncer.LastRange(); ok {
		center = r.Mid()
	}
	if err := e.applyRange(ctx, rng, center); err != nil {
		return err
	}
	e.events.publish(Event{Type: EventRangeChanged, Symbol: e.Symbol(), Detail: map[string]any{"range": string(rng)}})
	return nil
}

// applyRange loads the backing series for rng, derives the window, pushes
// it onto the core panes, and reconciles the indicator set against it.
func (e *Engine) applyRange(ctx context.Context, rng datacache.Range, centerMs int64) error {
	e.mu.Lock()
	symbol := e.symbol
	mainSeries := e.mainSeries
	e.mu.Unlock()
	if symbol == "" {
		return ErrNotMounted
	}

	var bars []market.Bar
	var err error
	if rng.Intraday() {
		bars, err = e.cache.Intraday(ctx, symbol)
	} else {
		bars, err = e.cache.Get(ctx, symbol)
	}
	if err != nil {
		// Keep whatever is on screen; the stale-entry path in the cache
		// already covers the daily case, this guards the intraday feed.
		return fmt.Errorf("engine: range %s: %w", rng, err)
	}

	window := e.cache.Window(bars, rng, centerMs)
	if len(window) == 0 {
		return fmt.Errorf("engine: range %s: no bars in window", rng)
	}

	if mainSeries != nil {
		if err := mainSeries.SetBars(window); err != nil && !render.IsDisposed(err) {
			slog.Warn("engine: price data set failed", "symbol", symbol, "error", err)
		}
	}
	e.mu.Lock()
	volSeries := e.volSeries
	e.mu.Unlock()
	if volSeries != nil {
		if err := volSeries.SetPoints(volumePoints(window)); err != nil && !render.IsDisposed(err) {
			slog.Warn("engine: volume data set failed", "symbol", symbol, "error", err)
		}
	}

	// Snap the master to the window extent; sync fans it out to every
	// secondary before this returns.
	if mainCtrl := e.mainController(); mainCtrl != nil {
		if p, ok := mainCtrl.Pane(); ok {
			r := market.TimeRange{From: window[0].Time, To: window[len(window)-1].Time}
			if err := p.TimeScale().SetVisibleRange(r); err != nil && !render.IsDisposed(err) {
				slog.Warn("engine: visible range set failed", "error", err)
			}
		}
	}

	e.mu.Lock()
	e.rng = rng
	e.window = window
	specs := e.selection.Specs()
	e.mu.Unlock()

	e.reconciler.Reconcile(specs, window)
	return nil
}

func (e *Engine) mainController() *pane.Controller {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mainCtrl
}

// ToggleIndicator parses the tag, flips its membership, and reconciles.
// An 11th concurrent selection is refused with ErrSelectionFull before any
// state mutates; a malformed tag is refused before the set is touched.
func (e *Engine) ToggleIndicator(id string) (selected bool, err error) {
	spec, err := indicator.Parse(id)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	selected, rejected := e.selection.Toggle(spec)
	specs := e.selection.Specs()
	window := e.window
	symbol := e.symbol
	e.mu.Unlock()
	if rejected {
		return false, ErrSelectionFull
	}

	e.reconciler.Reconcile(specs, window)
	e.events.publish(Event{Type: EventReconciled, Symbol: symbol, Detail: map[string]any{
		"indicator": spec.ID,
		"selected":  selected,
		"count":     len(specs),
	}})
	return selected, nil
}

// ClearIndicators empties the selection and tears down every indicator
// series and conditional pane.
func (e *Engine) ClearIndicators() {
	e.mu.Lock()
	e.selection.Clear()
	window := e.window
	symbol := e.symbol
	e.mu.Unlock()
	e.reconciler.Reconcile(nil, window)
	e.events.publish(Event{Type: EventReconciled, Symbol: symbol, Detail: map[string]any{"count": 0}})
}

// Reconcile re-renders the current selection against the current window.
// Hosts call this after late pane readiness (a hidden tab becoming
// visible) so specs skipped on an earlier pass get rendered.
func (e *Engine) Reconcile() {
	e.mu.Lock()
	specs := e.selection.Specs()
	window := e.window
	e.mu.Unlock()
	e.reconciler.Reconcile(specs, window)
}

// Resize propagates new dimensions to every pane this engine holds.
func (e *Engine) Resize(width, height int) {
	e.mu.Lock()
	ctrls := make([]*pane.Controller, 0, 2+len(e.indicatorPanes))
	if e.mainCtrl != nil {
		ctrls = append(ctrls, e.mainCtrl)
	}
	if e.volCtrl != nil {
		ctrls = append(ctrls, e.volCtrl)
	}
	keys := make([]pane.Key, 0, len(e.indicatorPanes))
	for _, key := range e.indicatorPanes {
		keys = append(keys, key)
	}
	e.mu.Unlock()

	for _, key := range keys {
		if ctrl, ok := e.registry.Get(key); ok {
			ctrls = append(ctrls, ctrl)
		}
	}
	for _, ctrl := range ctrls {
		ctrl.Resize(width, height)
	}
}

// PaneStatus is one pane's lifecycle snapshot for the control API.
type PaneStatus struct {
	Kind     string `json:"kind"`
	Family   string `json:"family,omitempty"`
	State    string `json:"state"`
	Attempts int    `json:"attempts"`
}

// Panes reports the lifecycle state of every pane this engine holds.
func (e *Engine) Panes() []PaneStatus {
	e.mu.Lock()
	mainCtrl, volCtrl := e.mainCtrl, e.volCtrl
	families := make(map[indicator.Family]pane.Key, len(e.indicatorPanes))
	for f, k := range e.indicatorPanes {
		families[f] = k
	}
	e.mu.Unlock()

	var out []PaneStatus
	add := func(ctrl *pane.Controller, family string) {
		state, attempts := ctrl.State()
		out = append(out, PaneStatus{Kind: ctrl.Kind().String(), Family: family, State: state.String(), Attempts: attempts})
	}
	if mainCtrl != nil {
		add(mainCtrl, "")
	}
	if volCtrl != nil {
		add(volCtrl, "")
	}
	for family, key := range families {
		if ctrl, ok := e.registry.Get(key); ok {
			add(ctrl, family.String())
		}
	}
	return out
}

// Unmount releases every pane reference this engine holds. Main and
// Volume panes survive if another engine still references them; at
// refcount zero the registry disposes them.
func (e *Engine) Unmount() {
	e.releaseIndicatorPanes()

	e.mu.Lock()
	mainKey, volKey := e.mainKey, e.volKey
	mounted := e.mainCtrl != nil
	e.mainCtrl, e.volCtrl = nil, nil
	e.mainSeries, e.volSeries = nil, nil
	e.drawings = nil
	e.symbol = ""
	e.window = nil
	e.mu.Unlock()

	e.syncer.Close()
	if mounted {
		e.registry.Release(mainKey)
		e.registry.Release(volKey)
	}
}

// MainPane exposes the price pane to the reconciler.
func (e *Engine) MainPane() (render.Pane, bool) {
	ctrl := e.mainController()
	if ctrl == nil {
		return nil, false
	}
	return ctrl.Pane()
}

// IndicatorPane acquires (once) and probes the pane for an oscillator
// family. Parameter variants of a family share the pane. A Ready pane is
// registered as a sync secondary the moment it comes up, receiving the
// master's current range as a snapshot.
func (e *Engine) IndicatorPane(family indicator.Family) (render.Pane, bool) {
	e.mu.Lock()
	symbol := e.symbol
	key, held := e.indicatorPanes[family]
	e.mu.Unlock()
	if symbol == "" {
		return nil, false
	}

	secondaryID := "indicator:" + family.String()
	if !held {
		key = indicatorKey(symbol, family)
		e.registry.Acquire(key, func() *pane.Controller {
			kind := kindFor(family)
			container := e.containers(containerName(family))
			return pane.NewController(kind, e.surface, container, render.PaneOptions{}, func(p render.Pane) {
				e.syncer.AddSecondary(secondaryID, p.TimeScale())
			})
		})
		e.mu.Lock()
		e.indicatorPanes[family] = key
		e.indicatorSyncIDs[family] = secondaryID
		e.mu.Unlock()
	}

	ctrl, ok := e.registry.Get(key)
	if !ok {
		return nil, false
	}
	ctrl.Ensure()
	return ctrl.Pane()
}

// ReleaseIndicatorPane drops the family's pane reference and removes it
// from the sync fan-out. The registry disposes at refcount zero.
func (e *Engine) ReleaseIndicatorPane(family indicator.Family) {
	e.mu.Lock()
	key, held := e.indicatorPanes[family]
	secondaryID := e.indicatorSyncIDs[family]
	delete(e.indicatorPanes, family)
	delete(e.indicatorSyncIDs, family)
	e.mu.Unlock()
	if !held {
		return
	}
	e.syncer.RemoveSecondary(secondaryID)
	e.registry.Release(key)
}

func (e *Engine) releaseIndicatorPanes() {
	e.mu.Lock()
	families := make([]indicator.Family, 0, len(e.indicatorPanes))
	for f := range e.indicatorPanes {
		families = append(families, f)
	}
	e.mu.Unlock()
	for _, f := range families {
		e.ReleaseIndicatorPane(f)
	}
}

// NotifyDrawing publishes a drawing-change event for stream subscribers.
// The API layer calls this after commits, removes, and restores.
func (e *Engine) NotifyDrawing(action string, count int) {
	e.events.publish(Event{Type: EventDrawingChanged, Symbol: e.Symbol(), Detail: map[string]any{
		"action": action,
		"lines":  count,
	}})
}

func indicatorKey(symbol string, family indicator.Family) pane.Key {
	kind := kindFor(family)
	key := pane.Key{Symbol: symbol, Kind: kind}
	if kind == pane.KindMomentum {
		key.IndicatorID = family.String()
	}
	return key
}

func kindFor(family indicator.Family) pane.Kind {
	switch family.Placement() {
	case indicator.PlaceRSIPane:
		return pane.KindRSI
	case indicator.PlaceMACDPane:
		return pane.KindMACD
	default:
		return pane.KindMomentum
	}
}

func containerName(family indicator.Family) string {
	switch family.Placement() {
	case indicator.PlaceRSIPane:
		return "rsi"
	case indicator.PlaceMACDPane:
		return "macd"
	default:
		return "momentum:" + family.String()
	}
}

func volumePoints(bars []market.Bar) []market.Point {
	points := make([]market.Point, len(bars))
	for i, b := range bars {
		points[i] = market.Point{Time: b.Time, Value: b.Volume}
	}
	return points
}
