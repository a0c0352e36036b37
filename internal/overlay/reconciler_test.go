package overlay

import (
	"math"
	"testing"
	"time"

	"github.com/summit-enterprise/stock-pro-sub000/internal/indicator"
	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render/rendertest"
)

type fakeSource struct {
	surf        *rendertest.Surface
	main        render.Pane
	panes       map[indicator.Family]render.Pane
	released    []indicator.Family
	unavailable map[indicator.Family]bool
}

func newFakeSource(t *testing.T) *fakeSource {
	t.Helper()
	surf := rendertest.NewSurface()
	main, err := surf.CreatePane(rendertest.NewContainer("main", render.Layout{Width: 800, Height: 400, Opacity: 1}), render.PaneOptions{})
	if err != nil {
		t.Fatalf("CreatePane() error = %v", err)
	}
	return &fakeSource{
		surf:        surf,
		main:        main,
		panes:       make(map[indicator.Family]render.Pane),
		unavailable: make(map[indicator.Family]bool),
	}
}

func (f *fakeSource) MainPane() (render.Pane, bool) { return f.main, true }

func (f *fakeSource) IndicatorPane(family indicator.Family) (render.Pane, bool) {
	if f.unavailable[family] {
		return nil, false
	}
	if p, ok := f.panes[family]; ok {
		return p, true
	}
	p, _ := f.surf.CreatePane(rendertest.NewContainer(family.String(), render.Layout{Width: 800, Height: 150, Opacity: 1}), render.PaneOptions{})
	f.panes[family] = p
	return p, true
}

func (f *fakeSource) ReleaseIndicatorPane(family indicator.Family) {
	if p, ok := f.panes[family]; ok {
		p.Dispose()
		delete(f.panes, family)
	}
	f.released = append(f.released, family)
}

func reconBars(n int) []market.Bar {
	end := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, n)
	for i := 0; i < n; i++ {
		ts := end.AddDate(0, 0, -(n - 1 - i))
		c := 100 + 5*float64(i%9)
		bars[i] = market.Bar{Time: market.Ms(ts), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return bars
}

func mustSpec(t *testing.T, id string) indicator.Spec {
	t.Helper()
	spec, err := indicator.Parse(id)
	if err != nil {
		t.Fatalf("Parse(%s) error = %v", id, err)
	}
	return spec
}

func TestReconcile_SMA50OnMainPane(t *testing.T) {
	src := newFakeSource(t)
	r := NewReconciler(src)
	bars := reconBars(252)

	r.Reconcile([]indicator.Spec{mustSpec(t, "SMA_50")}, bars)

	series := src.main.(*rendertest.Pane).SeriesList()
	if len(series) != 1 {
		t.Fatalf("main pane series = %d; want 1", len(series))
	}
	points := series[0].Points()
	if len(points) != 203 {
		t.Fatalf("SMA_50 points = %d; want 252-49=203", len(points))
	}
	if points[0].Time != bars[49].Time {
		t.Fatalf("first point time = %d; want bar index 49 time %d", points[0].Time, bars[49].Time)
	}
}

func TestReconcile_FullPassRemovesPriorSeries(t *testing.T) {
	src := newFakeSource(t)
	r := NewReconciler(src)
	bars := reconBars(252)

	r.Reconcile([]indicator.Spec{mustSpec(t, "SMA_50"), mustSpec(t, "EMA_20")}, bars)
	r.Reconcile([]indicator.Spec{mustSpec(t, "SMA_50")}, bars)

	series := src.main.(*rendertest.Pane).SeriesList()
	if len(series) != 1 {
		t.Fatalf("main pane series after second pass = %d; want 1 (full teardown)", len(series))
	}
	if r.RenderedCount() != 1 {
		t.Fatalf("RenderedCount() = %d; want 1", r.RenderedCount())
	}
}

func TestReconcile_DeterministicAcrossToggles(t *testing.T) {
	src := newFakeSource(t)
	r := NewReconciler(src)
	bars := reconBars(252)
	spec := mustSpec(t, "SMA_50")

	r.Reconcile([]indicator.Spec{spec}, bars)
	first := src.main.(*rendertest.Pane).SeriesList()[0].Points()

	r.Reconcile(nil, bars)
	r.Reconcile([]indicator.Spec{spec}, bars)
	second := src.main.(*rendertest.Pane).SeriesList()[0].Points()

	if len(first) != len(second) {
		t.Fatalf("point counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("point %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestReconcile_RSIGetsDedicatedPaneWithReferenceLines(t *testing.T) {
	src := newFakeSource(t)
	r := NewReconciler(src)
	bars := reconBars(120)

	r.Reconcile([]indicator.Spec{mustSpec(t, "RSI_14"), mustSpec(t, "RSI_21")}, bars)

	if len(src.main.(*rendertest.Pane).SeriesList()) != 0 {
		t.Fatalf("RSI leaked onto the main price pane")
	}
	pane, ok := src.panes[indicator.FamilyRSI]
	if !ok {
		t.Fatalf("no RSI pane materialized")
	}
	series := pane.(*rendertest.Pane).SeriesList()
	if len(series) != 2 {
		t.Fatalf("RSI pane series = %d; want 2 variants", len(series))
	}

	// Reference lines attach once per pane, to the first series only.
	total := 0
	for _, s := range series {
		total += len(s.PriceLines())
	}
	if total != 3 {
		t.Fatalf("RSI reference lines = %d; want exactly 3 (70/50/30, no duplicates)", total)
	}
}

func TestReconcile_MomentumBandIsolatedScale(t *testing.T) {
	src := newFakeSource(t)
	r := NewReconciler(src)
	bars := reconBars(120)

	r.Reconcile([]indicator.Spec{mustSpec(t, "CCI_20")}, bars)

	pane := src.panes[indicator.FamilyCCI].(*rendertest.Pane)
	series := pane.SeriesList()
	if len(series) != 1 {
		t.Fatalf("CCI pane series = %d; want 1", len(series))
	}
	opts := series[0].Options()
	if opts.PriceScaleID == "" {
		t.Fatalf("momentum series missing isolated price scale")
	}
	if opts.Margins == nil || opts.Margins.Top == 0 {
		t.Fatalf("momentum series not pinned to bottom margin: %+v", opts.Margins)
	}
}

func TestReconcile_DeselectedFamilyPaneReleased(t *testing.T) {
	src := newFakeSource(t)
	r := NewReconciler(src)
	bars := reconBars(120)

	r.Reconcile([]indicator.Spec{mustSpec(t, "RSI_14")}, bars)
	r.Reconcile(nil, bars)

	if len(src.released) != 1 || src.released[0] != indicator.FamilyRSI {
		t.Fatalf("released = %v; want [rsi]", src.released)
	}
}

func TestReconcile_UnavailablePaneSkipsSpecOnly(t *testing.T) {
	src := newFakeSource(t)
	src.unavailable[indicator.FamilyRSI] = true
	r := NewReconciler(src)
	bars := reconBars(120)

	r.Reconcile([]indicator.Spec{mustSpec(t, "RSI_14"), mustSpec(t, "SMA_50")}, bars)

	if len(src.main.(*rendertest.Pane).SeriesList()) != 1 {
		t.Fatalf("sibling spec must still render when one pane is unavailable")
	}
}

func TestReconcile_MACDThreeOutputs(t *testing.T) {
	src := newFakeSource(t)
	r := NewReconciler(src)
	bars := reconBars(252)

	r.Reconcile([]indicator.Spec{mustSpec(t, "MACD_12_26_9")}, bars)

	pane := src.panes[indicator.FamilyMACD].(*rendertest.Pane)
	series := pane.SeriesList()
	if len(series) != 3 {
		t.Fatalf("MACD pane series = %d; want macd+signal+histogram", len(series))
	}
	hist := 0
	for _, s := range series {
		if s.Kind() == render.SeriesHistogram {
			hist++
		}
	}
	if hist != 1 {
		t.Fatalf("histogram series = %d; want 1", hist)
	}
}

func TestAlignOutput_FiltersNaNAndDedupes(t *testing.T) {
	bars := reconBars(10)
	out := indicator.Output{
		Name:   "x",
		Warmup: 2,
		Values: []float64{1, math.NaN(), 3, math.Inf(1), 5},
	}
	points := AlignOutput(out, bars)
	if len(points) != 3 {
		t.Fatalf("AlignOutput() len = %d; want 3 (NaN and Inf filtered)", len(points))
	}
	if points[0].Time != bars[2].Time {
		t.Fatalf("AlignOutput() first time = %d; want bar index 2", points[0].Time)
	}
	for i := 1; i < len(points); i++ {
		if points[i].Time <= points[i-1].Time {
			t.Fatalf("AlignOutput() not strictly ascending")
		}
	}
}
