package pane

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/summit-enterprise/stock-pro-sub000/internal/render"
)

const (
	// MaxEnsureAttempts bounds visibility probes before the controller
	// gives up and goes Failed.
	MaxEnsureAttempts = 10

	// RetryInterval is the probe cadence for hosts without layout events,
	// giving a one-second ceiling with MaxEnsureAttempts.
	RetryInterval = 100 * time.Millisecond
)

// Controller drives one pane through Pending, Ready, and Failed. It is
// fed layout observations via Ensure; PollUntilReady adapts interval-based
// hosts onto the same path.
type Controller struct {
	kind      Kind
	surface   render.Surface
	container render.Container
	opts      render.PaneOptions

	mu       sync.Mutex
	state    State
	attempts int
	pane     render.Pane
	onReady  func(render.Pane)
	warned   bool
}

// NewController creates a controller in StatePending. onReady, if non-nil,
// fires synchronously the moment the pane is created (used for the
// late-joiner time-scale snapshot); it may be nil.
func NewController(kind Kind, surface render.Surface, container render.Container, opts render.PaneOptions, onReady func(render.Pane)) *Controller {
	return &Controller{
		kind:      kind,
		surface:   surface,
		container: container,
		opts:      opts,
		onReady:   onReady,
	}
}

func (c *Controller) Kind() Kind { return c.kind }

// State returns the lifecycle state and the attempt count consumed so far.
func (c *Controller) State() (State, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.attempts
}

// Pane returns the live pane handle when Ready.
func (c *Controller) Pane() (render.Pane, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pane, c.state == StateReady && c.pane != nil
}

// Ensure consumes one layout observation. If the container is laid out and
// visible it creates the render surface and goes Ready; otherwise it burns
// one attempt and, after MaxEnsureAttempts, goes Failed. Exhaustion is
// deliberately not an error: the pane simply never renders.
func (c *Controller) Ensure() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateReady, StateFailed:
		return c.state
	}

	layout := c.container.Layout()
	if !layout.Displayable() {
		c.attempts++
		if c.attempts >= MaxEnsureAttempts {
			c.state = StateFailed
			slog.Warn("pane gave up waiting for visible container",
				"kind", c.kind.String(), "container", c.container.ID(), "attempts", c.attempts)
		}
		return c.state
	}

	opts := c.opts
	if opts.Width == 0 {
		opts.Width = layout.Width
	}
	if opts.Height == 0 {
		opts.Height = layout.Height
	}
	p, err := c.surface.CreatePane(c.container, opts)
	if err != nil {
		c.attempts++
		slog.Warn("pane create failed", "kind", c.kind.String(), "container", c.container.ID(), "error", err)
		if c.attempts >= MaxEnsureAttempts {
			c.state = StateFailed
		}
		return c.state
	}

	c.pane = p
	c.state = StateReady
	slog.Debug("pane ready", "kind", c.kind.String(), "container", c.container.ID(), "attempts", c.attempts)
	if c.onReady != nil {
		c.onReady(p)
	}
	return c.state
}

// PollUntilReady drives Ensure at RetryInterval until the controller
// leaves Pending or ctx is done. Polling is bounded by MaxEnsureAttempts,
// so the loop can never run longer than roughly one second.
func (c *Controller) PollUntilReady(ctx context.Context) State {
	if state := c.Ensure(); state != StatePending {
		return state
	}
	ticker := time.NewTicker(RetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			state, _ := c.State()
			return state
		case <-ticker.C:
			if state := c.Ensure(); state != StatePending {
				return state
			}
		}
	}
}

// Resize applies new dimensions defensively. A disposed handle on a
// persistent pane triggers reinitialization on the next layout pass; a
// conditional pane just no-ops.
func (c *Controller) Resize(width, height int) {
	c.mu.Lock()
	pane := c.pane
	ready := c.state == StateReady
	c.mu.Unlock()
	if !ready || pane == nil {
		return
	}
	if err := pane.Resize(width, height); err != nil {
		c.swallow(err, "resize")
		if render.IsDisposed(err) {
			c.reset()
		}
	}
}

// reset returns a persistent controller to Pending so the next layout
// observation recreates the surface. Conditional panes stay down.
func (c *Controller) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.kind.Persistent() {
		return
	}
	c.pane = nil
	c.state = StatePending
	c.attempts = 0
}

// Dispose tears the pane down. Only the registry calls this, at refcount
// zero; persistent panes are intentionally not disposed on unmount.
func (c *Controller) Dispose() {
	c.mu.Lock()
	pane := c.pane
	c.pane = nil
	c.state = StateFailed
	c.mu.Unlock()
	if pane != nil {
		pane.Dispose()
	}
}

// swallow logs a disposed-handle error at most once per controller and
// never propagates it: one torn-down pane must not crash its siblings.
func (c *Controller) swallow(err error, op string) {
	if err == nil {
		return
	}
	c.mu.Lock()
	warned := c.warned
	if render.IsDisposed(err) {
		c.warned = true
	}
	c.mu.Unlock()
	if render.IsDisposed(err) {
		if !warned {
			slog.Warn("pane operation on disposed handle", "kind", c.kind.String(), "op", op)
		}
		return
	}
	slog.Warn("pane operation failed", "kind", c.kind.String(), "op", op, "error", err)
}
