// Package overlay reconciles the selected-indicator set into rendered
// series. Reconciliation is full, not incremental: every pass removes all
// previously rendered indicator series, recomputes each selected spec
// against the current bars, and re-adds everything. With at most ten
// selections this is cheap and keeps the rendered state a pure function of
// (selection, bars).
package overlay

import (
	"log/slog"
	"math"

	"github.com/summit-enterprise/stock-pro-sub000/internal/indicator"
	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render"
)

// momentumScaleMargins pins a momentum series' isolated price-scale band
// to the bottom margin of its pane.
var momentumScaleMargins = render.ScaleMargins{Top: 0.75, Bottom: 0}

var palette = []string{
	"#2962ff", "#f23645", "#089981", "#ff9800",
	"#9c27b0", "#00bcd4", "#e91e63", "#7cb342",
	"#5c6bc0", "#8d6e63",
}

// PaneSource materializes the panes the reconciler draws on. The main
// pane hosts overlays; RSI, MACD, and momentum families each get a pane
// of their own, shared by parameter variants of the same family.
type PaneSource interface {
	MainPane() (render.Pane, bool)
	// IndicatorPane returns (creating if needed) the pane for an
	// oscillator family. ok is false while the pane is Pending or Failed.
	IndicatorPane(family indicator.Family) (render.Pane, bool)
	// ReleaseIndicatorPane destroys the family's pane once no selected
	// spec needs it.
	ReleaseIndicatorPane(family indicator.Family)
}

type renderedSeries struct {
	pane   render.Pane
	series render.Series
}

// Reconciler owns the rendered indicator series.
type Reconciler struct {
	source   PaneSource
	rendered []renderedSeries
	families map[indicator.Family]bool
}

func NewReconciler(source PaneSource) *Reconciler {
	return &Reconciler{source: source, families: make(map[indicator.Family]bool)}
}

// Reconcile rebuilds every indicator series from the selection and bars.
// Bars must be normalized. Specs are assumed validated (selection-time
// parsing); a failed series aborts only itself, never the pane.
func (r *Reconciler) Reconcile(specs []indicator.Spec, bars []market.Bar) {
	// Tear down the previous pass.
	for _, rs := range r.rendered {
		if err := rs.pane.RemoveSeries(rs.series); err != nil && !render.IsDisposed(err) {
			slog.Warn("reconcile remove series failed", "error", err)
		}
	}
	r.rendered = nil

	// Release panes whose family left the selection.
	needed := make(map[indicator.Family]bool)
	for _, spec := range specs {
		if spec.Family.Oscillator() {
			needed[spec.Family] = true
		}
	}
	for family := range r.families {
		if !needed[family] {
			r.source.ReleaseIndicatorPane(family)
			delete(r.families, family)
		}
	}

	refDone := make(map[render.Pane]map[indicator.Family]bool)
	for i, spec := range specs {
		pane, ok := r.targetPane(spec)
		if !ok {
			// Pane pending or failed; this spec renders on a later pass.
			slog.Debug("reconcile skipped spec, pane unavailable", "id", spec.ID)
			continue
		}
		outs, err := indicator.Compute(spec, bars)
		if err != nil {
			slog.Warn("reconcile compute failed", "id", spec.ID, "error", err)
			continue
		}
		first := true
		for _, out := range outs {
			s := r.addSeries(pane, spec, out, bars, palette[i%len(palette)])
			if s == nil {
				continue
			}
			r.rendered = append(r.rendered, renderedSeries{pane: pane, series: s})
			if first {
				first = false
				if refDone[pane] == nil {
					refDone[pane] = make(map[indicator.Family]bool)
				}
				if !refDone[pane][spec.Family] {
					refDone[pane][spec.Family] = true
					for _, line := range referenceLines(spec.Family) {
						if err := s.AddPriceLine(line); err != nil && !render.IsDisposed(err) {
							slog.Warn("reconcile reference line failed", "id", spec.ID, "error", err)
						}
					}
				}
			}
		}
	}
}

// RenderedCount reports how many series the last pass left on screen.
func (r *Reconciler) RenderedCount() int { return len(r.rendered) }

func (r *Reconciler) targetPane(spec indicator.Spec) (render.Pane, bool) {
	if spec.Family.Placement() == indicator.PlaceOverlay {
		return r.source.MainPane()
	}
	pane, ok := r.source.IndicatorPane(spec.Family)
	if ok {
		r.families[spec.Family] = true
	}
	return pane, ok
}

// addSeries aligns the output to bar timestamps, drops NaN warm-up
// artifacts, and hands a sorted, deduplicated array to the render layer.
// Errors abort only this series.
func (r *Reconciler) addSeries(pane render.Pane, spec indicator.Spec, out indicator.Output, bars []market.Bar, color string) render.Series {
	opts := render.SeriesOptions{Title: out.Name, Color: color, Width: 2}
	if spec.Family.Placement() == indicator.PlaceMomentumBand {
		opts.PriceScaleID = "band:" + spec.Family.String()
		margins := momentumScaleMargins
		opts.Margins = &margins
	}
	kind := render.SeriesLine
	if spec.Family == indicator.FamilyMACD && out.Name == spec.ID+":histogram" {
		kind = render.SeriesHistogram
	}

	s, err := pane.AddSeries(kind, opts)
	if err != nil {
		if !render.IsDisposed(err) {
			slog.Warn("reconcile add series failed", "name", out.Name, "error", err)
		}
		return nil
	}
	if err := s.SetPoints(AlignOutput(out, bars)); err != nil {
		// A timestamp violation or disposal aborts this series only.
		if !render.IsDisposed(err) {
			slog.Warn("reconcile set data failed", "name", out.Name, "error", err)
		}
		_ = pane.RemoveSeries(s)
		return nil
	}
	return s
}

// AlignOutput re-aligns a value array to its source bars: value i belongs
// to bar index Warmup+i. NaN and Inf values (insufficient warm-up data)
// are filtered, never rendered as zero; the result is deduplicated by
// timestamp and sorted ascending.
func AlignOutput(out indicator.Output, bars []market.Bar) []market.Point {
	points := make([]market.Point, 0, len(out.Values))
	for i, v := range out.Values {
		idx := out.Warmup + i
		if idx >= len(bars) {
			break
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		points = append(points, market.Point{Time: bars[idx].Time, Value: v})
	}
	return market.NormalizePoints(points)
}
