package timescale

import (
	"testing"

	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render/rendertest"
)

func newPane(t *testing.T, surf *rendertest.Surface, id string) render.Pane {
	t.Helper()
	c := rendertest.NewContainer(id, render.Layout{Width: 800, Height: 300, Opacity: 1})
	p, err := surf.CreatePane(c, render.PaneOptions{Width: 800, Height: 300})
	if err != nil {
		t.Fatalf("CreatePane(%s) error = %v", id, err)
	}
	return p
}

func TestMasterRangePropagatesToAllSecondaries(t *testing.T) {
	surf := rendertest.NewSurface()
	master := newPane(t, surf, "main")
	rsi := newPane(t, surf, "rsi")
	macd := newPane(t, surf, "macd")

	s := New()
	s.AttachMaster(master.TimeScale())
	s.AddSecondary("rsi", rsi.TimeScale())
	s.AddSecondary("macd", macd.TimeScale())

	want := market.TimeRange{From: 1000, To: 2000}
	if err := master.TimeScale().SetVisibleRange(want); err != nil {
		t.Fatalf("SetVisibleRange() error = %v", err)
	}

	// Applied synchronously within the master callback, before any paint.
	for _, p := range []render.Pane{rsi, macd} {
		got, ok := p.TimeScale().VisibleRange()
		if !ok || got != want {
			t.Fatalf("secondary range = %v ok=%v; want %v", got, ok, want)
		}
	}
}

func TestLogicalRangePropagates(t *testing.T) {
	surf := rendertest.NewSurface()
	master := newPane(t, surf, "main")
	rsi := newPane(t, surf, "rsi")

	s := New()
	s.AttachMaster(master.TimeScale())
	s.AddSecondary("rsi", rsi.TimeScale())

	want := market.LogicalRange{From: 10.25, To: 90.75}
	_ = master.TimeScale().SetVisibleLogicalRange(want)

	got, ok := rsi.TimeScale().VisibleLogicalRange()
	if !ok || got != want {
		t.Fatalf("secondary logical range = %v ok=%v; want %v", got, ok, want)
	}
}

func TestLateJoinerReceivesSnapshot(t *testing.T) {
	surf := rendertest.NewSurface()
	master := newPane(t, surf, "main")

	s := New()
	s.AttachMaster(master.TimeScale())
	want := market.TimeRange{From: 5000, To: 9000}
	_ = master.TimeScale().SetVisibleRange(want)

	// Pane becomes Ready after the master already moved: snapshot, not wait.
	late := newPane(t, surf, "momentum")
	s.AddSecondary("momentum", late.TimeScale())

	got, ok := late.TimeScale().VisibleRange()
	if !ok || got != want {
		t.Fatalf("late joiner range = %v ok=%v; want immediate snapshot %v", got, ok, want)
	}
}

func TestDisposedSecondarySkippedWithoutError(t *testing.T) {
	surf := rendertest.NewSurface()
	master := newPane(t, surf, "main")
	rsi := newPane(t, surf, "rsi")
	macd := newPane(t, surf, "macd")

	s := New()
	s.AttachMaster(master.TimeScale())
	s.AddSecondary("rsi", rsi.TimeScale())
	s.AddSecondary("macd", macd.TimeScale())

	rsi.Dispose()

	want := market.TimeRange{From: 100, To: 200}
	_ = master.TimeScale().SetVisibleRange(want) // must not panic

	got, ok := macd.TimeScale().VisibleRange()
	if !ok || got != want {
		t.Fatalf("sibling range = %v ok=%v; want %v despite disposed peer", got, ok, want)
	}
}

func TestRemoveSecondaryStopsPropagation(t *testing.T) {
	surf := rendertest.NewSurface()
	master := newPane(t, surf, "main")
	rsi := newPane(t, surf, "rsi")

	s := New()
	s.AttachMaster(master.TimeScale())
	s.AddSecondary("rsi", rsi.TimeScale())
	s.RemoveSecondary("rsi")

	_ = master.TimeScale().SetVisibleRange(market.TimeRange{From: 1, To: 2})
	if _, ok := rsi.TimeScale().VisibleRange(); ok {
		t.Fatalf("removed secondary still received range")
	}
}

func TestSecondaryChangeDoesNotFeedBack(t *testing.T) {
	surf := rendertest.NewSurface()
	master := newPane(t, surf, "main")
	rsi := newPane(t, surf, "rsi")

	s := New()
	s.AttachMaster(master.TimeScale())
	s.AddSecondary("rsi", rsi.TimeScale())

	// A direct change on a secondary must never reach the master.
	_ = rsi.TimeScale().SetVisibleRange(market.TimeRange{From: 7, To: 8})
	if _, ok := master.TimeScale().VisibleRange(); ok {
		t.Fatalf("secondary change fed back into master")
	}
}

func TestAttachMasterSeedsExistingRange(t *testing.T) {
	surf := rendertest.NewSurface()
	master := newPane(t, surf, "main")
	want := market.TimeRange{From: 11, To: 22}
	_ = master.TimeScale().SetVisibleRange(want)

	rsi := newPane(t, surf, "rsi")
	s := New()
	s.AddSecondary("rsi", rsi.TimeScale())
	s.AttachMaster(master.TimeScale())

	got, ok := rsi.TimeScale().VisibleRange()
	if !ok || got != want {
		t.Fatalf("seeded range = %v ok=%v; want %v", got, ok, want)
	}
}
