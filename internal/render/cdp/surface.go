package cdp

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render"
)

// Pane is one chart on the page.
type Pane struct {
	client *Client
	id     string
	scale  *TimeScale

	mu       sync.Mutex
	disposed bool
	seq      int
}

func (p *Pane) markDisposed() {
	p.mu.Lock()
	p.disposed = true
	p.mu.Unlock()
}

func (p *Pane) isDisposed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disposed
}

func (p *Pane) AddSeries(kind render.SeriesKind, opts render.SeriesOptions) (render.Series, error) {
	if p.isDisposed() {
		return nil, render.ErrDisposed
	}
	p.mu.Lock()
	p.seq++
	id := fmt.Sprintf("%s.s%d", p.id, p.seq)
	p.mu.Unlock()

	optsJSON, err := json.Marshal(map[string]any{
		"title":        opts.Title,
		"color":        opts.Color,
		"width":        opts.Width,
		"style":        int(opts.Style),
		"priceScaleId": opts.PriceScaleID,
		"margins":      opts.Margins,
	})
	if err != nil {
		return nil, fmt.Errorf("cdp surface: series options: %w", err)
	}
	script := fmt.Sprintf(`__charts.addSeries(%s, %s, %s, %s)`,
		jsString(p.id), jsString(id), jsString(kind.String()), string(optsJSON))
	if err := p.client.eval(script, nil); err != nil {
		return nil, err
	}
	return &Series{pane: p, id: id}, nil
}

func (p *Pane) RemoveSeries(s render.Series) error {
	if p.isDisposed() {
		return render.ErrDisposed
	}
	cs, ok := s.(*Series)
	if !ok {
		return fmt.Errorf("cdp surface: foreign series %T", s)
	}
	return p.client.eval(fmt.Sprintf(`__charts.removeSeries(%s, %s)`, jsString(p.id), jsString(cs.id)), nil)
}

func (p *Pane) Resize(width, height int) error {
	if p.isDisposed() {
		return render.ErrDisposed
	}
	return p.client.eval(fmt.Sprintf(`__charts.resize(%s, %d, %d)`, jsString(p.id), width, height), nil)
}

func (p *Pane) TimeScale() render.TimeScale { return p.scale }

func (p *Pane) Dispose() {
	if p.isDisposed() {
		return
	}
	p.markDisposed()
	_ = p.client.eval(fmt.Sprintf(`__charts.dispose(%s)`, jsString(p.id)), nil)
	p.client.mu.Lock()
	delete(p.client.panes, p.id)
	p.client.mu.Unlock()
}

// Series is a handle onto one page-side series.
type Series struct {
	pane *Pane
	id   string
}

// barPayload mirrors the lightweight-charts bar shape; time is epoch
// seconds there, milliseconds on our side.
type barPayload struct {
	Time   float64 `json:"time"`
	Open   float64 `json:"open,omitempty"`
	High   float64 `json:"high,omitempty"`
	Low    float64 `json:"low,omitempty"`
	Close  float64 `json:"close,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Volume float64 `json:"-"`
}

func (s *Series) SetBars(bars []market.Bar) error {
	if s.pane.isDisposed() {
		return render.ErrDisposed
	}
	payload := make([]barPayload, len(bars))
	for i, b := range bars {
		payload[i] = barPayload{
			Time: float64(b.Time) / 1000,
			Open: b.Open, High: b.High, Low: b.Low, Close: b.Close,
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("cdp surface: marshal bars: %w", err)
	}
	return s.pane.client.eval(fmt.Sprintf(`__charts.setData(%s, %s, %s)`,
		jsString(s.pane.id), jsString(s.id), string(data)), nil)
}

func (s *Series) SetPoints(points []market.Point) error {
	if s.pane.isDisposed() {
		return render.ErrDisposed
	}
	payload := make([]barPayload, len(points))
	for i, p := range points {
		payload[i] = barPayload{Time: float64(p.Time) / 1000, Value: p.Value}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("cdp surface: marshal points: %w", err)
	}
	return s.pane.client.eval(fmt.Sprintf(`__charts.setData(%s, %s, %s)`,
		jsString(s.pane.id), jsString(s.id), string(data)), nil)
}

func (s *Series) AddPriceLine(line render.PriceLine) error {
	if s.pane.isDisposed() {
		return render.ErrDisposed
	}
	data, err := json.Marshal(map[string]any{
		"price": line.Value,
		"color": line.Color,
		"style": int(line.Style),
		"title": line.Title,
	})
	if err != nil {
		return fmt.Errorf("cdp surface: marshal price line: %w", err)
	}
	return s.pane.client.eval(fmt.Sprintf(`__charts.addPriceLine(%s, %s, %s)`,
		jsString(s.pane.id), jsString(s.id), string(data)), nil)
}

func (s *Series) PriceAt(y float64) (float64, bool) {
	if s.pane.isDisposed() {
		return 0, false
	}
	var out struct {
		Price *float64 `json:"price"`
	}
	script := fmt.Sprintf(`__charts.priceAt(%s, %s, %g)`, jsString(s.pane.id), jsString(s.id), y)
	if err := s.pane.client.eval(script, &out); err != nil || out.Price == nil {
		return 0, false
	}
	return *out.Price, true
}

// TimeScale proxies the page-side time scale. Subscriptions are held in
// Go; the page posts every range change through the runtime binding and
// dispatch fans it out.
type TimeScale struct {
	pane *Pane

	mu          sync.Mutex
	timeSubs    map[int]func(market.TimeRange)
	logicalSubs map[int]func(market.LogicalRange)
	nextSub     int
}

func newTimeScale(p *Pane) *TimeScale {
	return &TimeScale{
		pane:        p,
		timeSubs:    make(map[int]func(market.TimeRange)),
		logicalSubs: make(map[int]func(market.LogicalRange)),
	}
}

func (t *TimeScale) dispatch(event rangeEvent) {
	t.mu.Lock()
	timeSubs := make([]func(market.TimeRange), 0, len(t.timeSubs))
	for _, fn := range t.timeSubs {
		timeSubs = append(timeSubs, fn)
	}
	logicalSubs := make([]func(market.LogicalRange), 0, len(t.logicalSubs))
	for _, fn := range t.logicalSubs {
		logicalSubs = append(logicalSubs, fn)
	}
	t.mu.Unlock()

	switch event.Kind {
	case "time":
		r := market.TimeRange{From: int64(event.From * 1000), To: int64(event.To * 1000)}
		for _, fn := range timeSubs {
			fn(r)
		}
	case "logical":
		r := market.LogicalRange{From: event.From, To: event.To}
		for _, fn := range logicalSubs {
			fn(r)
		}
	}
}

func (t *TimeScale) VisibleRange() (market.TimeRange, bool) {
	if t.pane.isDisposed() {
		return market.TimeRange{}, false
	}
	var out struct {
		From *float64 `json:"from"`
		To   *float64 `json:"to"`
	}
	script := fmt.Sprintf(`__charts.visibleRange(%s)`, jsString(t.pane.id))
	if err := t.pane.client.eval(script, &out); err != nil || out.From == nil || out.To == nil {
		return market.TimeRange{}, false
	}
	return market.TimeRange{From: int64(*out.From * 1000), To: int64(*out.To * 1000)}, true
}

func (t *TimeScale) SetVisibleRange(r market.TimeRange) error {
	if t.pane.isDisposed() {
		return render.ErrDisposed
	}
	script := fmt.Sprintf(`__charts.setVisibleRange(%s, %g, %g)`,
		jsString(t.pane.id), float64(r.From)/1000, float64(r.To)/1000)
	return t.pane.client.eval(script, nil)
}

func (t *TimeScale) VisibleLogicalRange() (market.LogicalRange, bool) {
	if t.pane.isDisposed() {
		return market.LogicalRange{}, false
	}
	var out struct {
		From *float64 `json:"from"`
		To   *float64 `json:"to"`
	}
	script := fmt.Sprintf(`__charts.visibleLogicalRange(%s)`, jsString(t.pane.id))
	if err := t.pane.client.eval(script, &out); err != nil || out.From == nil || out.To == nil {
		return market.LogicalRange{}, false
	}
	return market.LogicalRange{From: *out.From, To: *out.To}, true
}

func (t *TimeScale) SetVisibleLogicalRange(r market.LogicalRange) error {
	if t.pane.isDisposed() {
		return render.ErrDisposed
	}
	script := fmt.Sprintf(`__charts.setVisibleLogicalRange(%s, %g, %g)`,
		jsString(t.pane.id), r.From, r.To)
	return t.pane.client.eval(script, nil)
}

func (t *TimeScale) SubscribeVisibleRange(fn func(market.TimeRange)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
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
	id := t.nextSub
	t.nextSub++
	t.logicalSubs[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.logicalSubs, id)
		t.mu.Unlock()
	}
}

func (t *TimeScale) TimeAt(x float64) (int64, bool) {
	if t.pane.isDisposed() {
		return 0, false
	}
	var out struct {
		Time *float64 `json:"time"`
	}
	script := fmt.Sprintf(`__charts.timeAt(%s, %g)`, jsString(t.pane.id), x)
	if err := t.pane.client.eval(script, &out); err != nil || out.Time == nil {
		return 0, false
	}
	return int64(*out.Time * 1000), true
}
