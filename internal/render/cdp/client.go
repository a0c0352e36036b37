// Package cdp renders charts on a real browser page over the Chrome
// DevTools Protocol. The page hosts the lightweight-charts bundle; every
// render call evaluates a small script against it, and range-change events
// come back through a runtime binding.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/summit-enterprise/stock-pro-sub000/internal/render"
)

// rangeBinding is the name of the JS->Go binding used for time-scale
// subscription events.
const rangeBinding = "__chartRangeEvent"

type evalEnvelope struct {
	OK           bool            `json:"ok"`
	Data         json.RawMessage `json:"data,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// rangeEvent is the payload the page posts on every visible-range change.
type rangeEvent struct {
	Pane string  `json:"pane"`
	Kind string  `json:"kind"` // "time" or "logical"
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Client owns one browser page and implements render.Surface on it.
type Client struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	pageCtx     context.Context
	pageCancel  context.CancelFunc

	mu    sync.Mutex
	panes map[string]*Pane
	seq   int
}

// Connect attaches to a running browser over CDP, navigates the page, and
// installs the chart runtime and the range-event binding.
func Connect(ctx context.Context, cdpURL, pageURL string) (*Client, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), cdpURL)
	pageCtx, pageCancel := chromedp.NewContext(allocCtx)

	c := &Client{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		pageCtx:     pageCtx,
		pageCancel:  pageCancel,
		panes:       make(map[string]*Pane),
	}

	select {
	case <-ctx.Done():
		c.Close()
		return nil, ctx.Err()
	default:
	}

	if err := chromedp.Run(pageCtx,
		chromedp.Navigate(pageURL),
		cdpruntime.AddBinding(rangeBinding),
		chromedp.Evaluate(jsRuntime, nil),
	); err != nil {
		c.Close()
		return nil, fmt.Errorf("cdp surface: connect: %w", err)
	}

	chromedp.ListenTarget(pageCtx, c.onTargetEvent)
	slog.Info("cdp render surface connected", "cdp_url", cdpURL, "page", pageURL)
	return c, nil
}

// Close tears down the page context; every pane handle goes disposed.
func (c *Client) Close() {
	c.mu.Lock()
	for _, p := range c.panes {
		p.markDisposed()
	}
	c.panes = make(map[string]*Pane)
	c.mu.Unlock()
	c.pageCancel()
	c.allocCancel()
}

func (c *Client) onTargetEvent(ev any) {
	called, ok := ev.(*cdpruntime.EventBindingCalled)
	if !ok || called.Name != rangeBinding {
		return
	}
	var event rangeEvent
	if err := json.Unmarshal([]byte(called.Payload), &event); err != nil {
		slog.Warn("cdp surface: bad range event payload", "error", err)
		return
	}

	c.mu.Lock()
	pane := c.panes[event.Pane]
	c.mu.Unlock()
	if pane == nil {
		return
	}
	pane.scale.dispatch(event)
}

// eval runs script on the page and decodes the standard envelope into out.
// Scripts must return {ok, data, error_code, error_message}.
func (c *Client) eval(script string, out any) error {
	var env evalEnvelope
	if err := chromedp.Run(c.pageCtx, chromedp.Evaluate(script, &env)); err != nil {
		// A dropped session behaves like disposal: callers already treat
		// disposed handles defensively.
		if transient(err) {
			return render.ErrDisposed
		}
		return fmt.Errorf("cdp surface: eval: %w", err)
	}
	if !env.OK {
		if env.ErrorCode == "disposed" {
			return render.ErrDisposed
		}
		return fmt.Errorf("cdp surface: %s: %s", env.ErrorCode, env.ErrorMessage)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("cdp surface: decode eval data: %w", err)
		}
	}
	return nil
}

// CreatePane builds a chart in the named container, creating the host div
// on demand. The page-side runtime wires range subscriptions back through
// the binding immediately.
func (c *Client) CreatePane(container render.Container, opts render.PaneOptions) (render.Pane, error) {
	c.mu.Lock()
	c.seq++
	id := fmt.Sprintf("pane%d", c.seq)
	c.mu.Unlock()

	script := fmt.Sprintf(`__charts.createPane(%s, %s, %d, %d, %t)`,
		jsString(id), jsString(container.ID()), opts.Width, opts.Height, opts.TimeVisible)
	if err := c.eval(script, nil); err != nil {
		return nil, err
	}

	p := &Pane{client: c, id: id}
	p.scale = newTimeScale(p)
	c.mu.Lock()
	c.panes[id] = p
	c.mu.Unlock()
	return p, nil
}

// Container is a DOM-backed host slot; layout observations query the
// live element so hidden or zero-size containers gate pane creation the
// same way they do in a real browser session.
type Container struct {
	client *Client
	id     string
}

// Container returns the host slot for the given element ID.
func (c *Client) Container(id string) render.Container {
	return &Container{client: c, id: id}
}

func (c *Container) ID() string { return c.id }

func (c *Container) Layout() render.Layout {
	var out struct {
		Width   int     `json:"width"`
		Height  int     `json:"height"`
		Hidden  bool    `json:"hidden"`
		Opacity float64 `json:"opacity"`
	}
	script := fmt.Sprintf(`__charts.layout(%s)`, jsString(c.id))
	if err := c.client.eval(script, &out); err != nil {
		return render.Layout{}
	}
	return render.Layout{Width: out.Width, Height: out.Height, Hidden: out.Hidden, Opacity: out.Opacity}
}

// jsString quotes a Go string as a JS string literal.
func jsString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

// transient reports whether an eval failure looks like a dropped CDP
// session rather than a script error.
func transient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"context canceled", "target closed", "session closed", "websocket", "connection reset"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
