// Package timescale keeps every secondary pane pixel-aligned with the
// master price pane. Propagation is strictly one-directional: the
// synchronizer subscribes only to the master, so a secondary can never
// re-emit a range change back into the loop.
package timescale

import (
	"log/slog"
	"sync"

	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render"
)

// Synchronizer fans master range changes out to secondary time scales.
// Both signals are forwarded: the time-domain visible range and the
// index-domain logical range, the latter for sub-pixel accuracy during
// drags. Application is synchronous inside the master's callback so every
// Ready pane agrees before the next paint.
type Synchronizer struct {
	mu          sync.Mutex
	master      render.TimeScale
	secondaries map[string]render.TimeScale
	unsubs      []func()

	lastRange   market.TimeRange
	hasRange    bool
	lastLogical market.LogicalRange
	hasLogical  bool
}

func New() *Synchronizer {
	return &Synchronizer{secondaries: make(map[string]render.TimeScale)}
}

// AttachMaster subscribes to the master's range signals. Any previously
// attached master is unsubscribed first.
func (s *Synchronizer) AttachMaster(ts render.TimeScale) {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.master = ts
	s.mu.Unlock()
	for _, u := range unsubs {
		u()
	}

	u1 := ts.SubscribeVisibleRange(s.onVisibleRange)
	u2 := ts.SubscribeVisibleLogicalRange(s.onLogicalRange)

	s.mu.Lock()
	s.unsubs = append(s.unsubs, u1, u2)
	s.mu.Unlock()

	// Seed from the master's current state so secondaries added before the
	// first pan/zoom still align.
	if r, ok := ts.VisibleRange(); ok {
		s.onVisibleRange(r)
	}
	if lr, ok := ts.VisibleLogicalRange(); ok {
		s.onLogicalRange(lr)
	}
}

// AddSecondary registers a secondary time scale. A pane that becomes
// Ready after the master already has a visible range receives an
// immediate one-time snapshot instead of waiting for the next pan/zoom.
func (s *Synchronizer) AddSecondary(id string, ts render.TimeScale) {
	s.mu.Lock()
	s.secondaries[id] = ts
	r, hasRange := s.lastRange, s.hasRange
	lr, hasLogical := s.lastLogical, s.hasLogical
	s.mu.Unlock()

	if hasRange {
		s.apply(id, ts, r)
	}
	if hasLogical {
		s.applyLogical(id, ts, lr)
	}
}

// RemoveSecondary unregisters a secondary; subsequent master changes skip it.
func (s *Synchronizer) RemoveSecondary(id string) {
	s.mu.Lock()
	delete(s.secondaries, id)
	s.mu.Unlock()
}

// Close unsubscribes from the master.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.master = nil
	s.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}

// LastRange returns the most recent master visible range.
func (s *Synchronizer) LastRange() (market.TimeRange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRange, s.hasRange
}

func (s *Synchronizer) snapshot() map[string]render.TimeScale {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]render.TimeScale, len(s.secondaries))
	for id, ts := range s.secondaries {
		out[id] = ts
	}
	return out
}

func (s *Synchronizer) onVisibleRange(r market.TimeRange) {
	s.mu.Lock()
	s.lastRange, s.hasRange = r, true
	s.mu.Unlock()
	for id, ts := range s.snapshot() {
		s.apply(id, ts, r)
	}
}

func (s *Synchronizer) onLogicalRange(r market.LogicalRange) {
	s.mu.Lock()
	s.lastLogical, s.hasLogical = r, true
	s.mu.Unlock()
	for id, ts := range s.snapshot() {
		s.applyLogical(id, ts, r)
	}
}

// apply pushes a range onto one secondary, skipping disposed handles.
func (s *Synchronizer) apply(id string, ts render.TimeScale, r market.TimeRange) {
	if err := ts.SetVisibleRange(r); err != nil {
		if render.IsDisposed(err) {
			slog.Debug("timescale sync skipped disposed pane", "pane", id)
			return
		}
		slog.Warn("timescale sync failed", "pane", id, "error", err)
	}
}

func (s *Synchronizer) applyLogical(id string, ts render.TimeScale, r market.LogicalRange) {
	if err := ts.SetVisibleLogicalRange(r); err != nil {
		if render.IsDisposed(err) {
			slog.Debug("timescale sync skipped disposed pane", "pane", id)
			return
		}
		slog.Warn("timescale sync failed", "pane", id, "error", err)
	}
}
