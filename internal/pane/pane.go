// Package pane owns the lifecycle of render surfaces: visibility-gated
// creation with bounded retries, disposal-safe option application, and a
// refcounted registry that decides when a pane may actually be torn down.
package pane

// Kind identifies what a pane displays.
type Kind int

const (
	KindMain Kind = iota
	KindVolume
	KindRSI
	KindMACD
	KindMomentum
	KindDrawing
)

func (k Kind) String() string {
	switch k {
	case KindMain:
		return "main"
	case KindVolume:
		return "volume"
	case KindRSI:
		return "rsi"
	case KindMACD:
		return "macd"
	case KindMomentum:
		return "momentum"
	case KindDrawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// Persistent reports whether panes of this kind survive unmounts. Main and
// Volume are deliberately kept alive across modal and route transitions to
// avoid flicker; indicator panes die with their indicator.
func (k Kind) Persistent() bool { return k == KindMain || k == KindVolume }

// State is the lifecycle state of a controller.
type State int

const (
	// StatePending means the container has not yet been laid out and
	// visible; creation is retried a bounded number of times.
	StatePending State = iota
	StateReady
	// StateFailed means every visibility probe was exhausted. This is a
	// silent degradation: the pane never renders, no error is surfaced.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
