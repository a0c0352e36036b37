// Package drawing implements the free-hand annotation layer on the main
// price pane: trend lines and horizontal lines drawn via click gestures.
// Coordinates are always resolved through the pane's time scale and the
// price series' scale, never by raw pixel arithmetic.
package drawing

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render"
)

// Tool is the active drawing tool.
type Tool int

const (
	ToolNone Tool = iota
	ToolTrendline
	ToolHorizontal
)

func (t Tool) String() string {
	switch t {
	case ToolTrendline:
		return "trendline"
	case ToolHorizontal:
		return "horizontal"
	default:
		return "none"
	}
}

// ParseTool maps a tool name from the API.
func ParseTool(s string) (Tool, error) {
	switch s {
	case "none":
		return ToolNone, nil
	case "trendline":
		return ToolTrendline, nil
	case "horizontal":
		return ToolHorizontal, nil
	}
	return ToolNone, fmt.Errorf("drawing: unknown tool %q", s)
}

// LineType tags a committed line.
type LineType int

const (
	Trendline LineType = iota
	Horizontal
)

func (t LineType) String() string {
	if t == Horizontal {
		return "horizontal"
	}
	return "trendline"
}

// PointRef is one anchor of a drawn line.
type PointRef struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Line is a committed annotation. The two point times are never equal;
// the commit path nudges the second by one minimal time unit when both
// clicks resolve to the same time bucket.
type Line struct {
	ID     string           `json:"id"`
	Type   LineType         `json:"type"`
	Points [2]PointRef      `json:"points"`
	Style  render.LineStyle `json:"style"`
}

// Controller is the click-gesture state machine. Lines live in memory for
// the session; rendering clears and fully re-adds every line series on any
// state change, which is fine at single-digit line counts.
type Controller struct {
	mu          sync.Mutex
	pane        render.Pane
	priceSeries render.Series
	tool        Tool
	style       render.LineStyle
	pending     []PointRef
	lines       []Line
	rendered    map[string]render.Series
	warned      bool
}

// NewController binds the controller to the main pane and its price
// series, the only surfaces annotations live on.
func NewController(pane render.Pane, priceSeries render.Series) *Controller {
	return &Controller{
		pane:        pane,
		priceSeries: priceSeries,
		rendered:    make(map[string]render.Series),
	}
}

// SetTool selects the active tool and drops any half-finished gesture.
func (c *Controller) SetTool(tool Tool) {
	c.mu.Lock()
	c.tool = tool
	c.pending = nil
	c.mu.Unlock()
}

// Tool returns the active tool.
func (c *Controller) Tool() Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tool
}

// SetStyle selects the stroke style for subsequently committed lines.
func (c *Controller) SetStyle(style render.LineStyle) {
	c.mu.Lock()
	c.style = style
	c.mu.Unlock()
}

// Cancel deselects the tool. This is the only way drawing mode ends; a
// commit keeps the tool active so several lines can be drawn in a row.
func (c *Controller) Cancel() { c.SetTool(ToolNone) }

// Click feeds one pointer event at pane coordinates (x, y). It returns
// the committed line when the gesture completes, nil while it is still in
// progress or when no tool is active. Clicks that resolve outside the
// data range are ignored.
func (c *Controller) Click(x, y float64) (*Line, error) {
	c.mu.Lock()
	tool := c.tool
	c.mu.Unlock()

	switch tool {
	case ToolTrendline:
		return c.trendlineClick(x, y)
	case ToolHorizontal:
		return c.horizontalClick(y)
	default:
		return nil, nil
	}
}

func (c *Controller) resolve(x, y float64) (PointRef, bool) {
	t, ok := c.pane.TimeScale().TimeAt(x)
	if !ok {
		return PointRef{}, false
	}
	price, ok := c.priceSeries.PriceAt(y)
	if !ok {
		return PointRef{}, false
	}
	return PointRef{Time: t, Value: price}, true
}

func (c *Controller) trendlineClick(x, y float64) (*Line, error) {
	point, ok := c.resolve(x, y)
	if !ok {
		return nil, nil
	}

	c.mu.Lock()
	if len(c.pending) == 0 {
		c.pending = append(c.pending, point)
		c.mu.Unlock()
		return nil, nil
	}
	first := c.pending[0]
	c.pending = nil
	style := c.style
	c.mu.Unlock()

	// Both clicks can land in the same time bucket; the render layer
	// rejects identical times, so nudge the second by one minimal unit.
	if point.Time == first.Time {
		point.Time++
	}
	line := Line{
		ID:     ulid.Make().String(),
		Type:   Trendline,
		Points: [2]PointRef{first, point},
		Style:  style,
	}
	return c.commit(line)
}

func (c *Controller) horizontalClick(y float64) (*Line, error) {
	price, ok := c.priceSeries.PriceAt(y)
	if !ok {
		return nil, nil
	}
	visible, ok := c.pane.TimeScale().VisibleRange()
	if !ok {
		return nil, fmt.Errorf("drawing: no visible range for horizontal line")
	}
	from, to := visible.From, visible.To
	if to == from {
		to++
	}

	c.mu.Lock()
	style := c.style
	c.mu.Unlock()

	line := Line{
		ID:     ulid.Make().String(),
		Type:   Horizontal,
		Points: [2]PointRef{{Time: from, Value: price}, {Time: to, Value: price}},
		Style:  style,
	}
	return c.commit(line)
}

func (c *Controller) commit(line Line) (*Line, error) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
	c.redraw()
	slog.Debug("drawing committed", "id", line.ID, "type", line.Type.String())
	return &line, nil
}

// Lines returns the committed lines in commit order.
func (c *Controller) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

// Remove deletes one line and its rendered series synchronously.
func (c *Controller) Remove(id string) bool {
	c.mu.Lock()
	found := false
	for i, l := range c.lines {
		if l.ID == id {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			found = true
			break
		}
	}
	c.mu.Unlock()
	if found {
		c.redraw()
	}
	return found
}

// Clear deletes every line and its rendered series synchronously.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
	c.redraw()
}

// Restore replaces the session's lines wholesale (layout load).
func (c *Controller) Restore(lines []Line) {
	c.mu.Lock()
	c.lines = append([]Line(nil), lines...)
	c.mu.Unlock()
	c.redraw()
}

// redraw clears and fully re-adds every line series. Disposed-handle
// errors are swallowed and logged at most once.
func (c *Controller) redraw() {
	c.mu.Lock()
	rendered := c.rendered
	c.rendered = make(map[string]render.Series)
	lines := append([]Line(nil), c.lines...)
	c.mu.Unlock()

	for _, s := range rendered {
		c.swallow(c.pane.RemoveSeries(s), "remove line series")
	}
	for _, line := range lines {
		s, err := c.pane.AddSeries(render.SeriesLine, render.SeriesOptions{
			Title: line.Type.String(),
			Color: "#787b86",
			Width: 1,
			Style: line.Style,
		})
		if err != nil {
			c.swallow(err, "add line series")
			continue
		}
		points := market.NormalizePoints([]market.Point{
			{Time: line.Points[0].Time, Value: line.Points[0].Value},
			{Time: line.Points[1].Time, Value: line.Points[1].Value},
		})
		if err := s.SetPoints(points); err != nil {
			c.swallow(err, "set line data")
			c.swallow(c.pane.RemoveSeries(s), "remove failed line series")
			continue
		}
		c.mu.Lock()
		c.rendered[line.ID] = s
		c.mu.Unlock()
	}
}

func (c *Controller) swallow(err error, op string) {
	if err == nil {
		return
	}
	if render.IsDisposed(err) {
		c.mu.Lock()
		warned := c.warned
		c.warned = true
		c.mu.Unlock()
		if !warned {
			slog.Warn("drawing operation on disposed pane", "op", op)
		}
		return
	}
	slog.Warn("drawing operation failed", "op", op, "error", err)
}
