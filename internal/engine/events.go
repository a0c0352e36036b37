package engine

import "sync"

// Event is one engine state change pushed to stream subscribers.
type Event struct {
	Type   string         `json:"type"`
	Symbol string         `json:"symbol,omitempty"`
	Detail map[string]any `json:"detail,omitempty"`
}

const (
	EventSymbolChanged  = "symbol_changed"
	EventRangeChanged   = "range_changed"
	EventReconciled     = "reconciled"
	EventDrawingChanged = "drawing_changed"
)

// bus fans events out to subscriber channels. Slow subscribers drop
// events rather than stall the UI loop.
type bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func newBus() *bus {
	return &bus{subs: make(map[int]chan Event)}
}

func (b *bus) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, 32)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
}

func (b *bus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
