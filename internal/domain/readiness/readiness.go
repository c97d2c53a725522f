// Package readiness tracks whether storage may be used to serve requests.
package readiness

import "sync/atomic"

// State is the storage availability as seen by request handlers.
type State int32

const (
	// Starting means storage has not finished initializing.
	Starting State = iota
	// Ready means storage is initialized and serving.
	Ready
	// Unavailable means a storage connectivity failure was observed after Ready.
	Unavailable
	// Draining means shutdown has begun.
	Draining
	// Stopped means the storage handle is closed.
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Unavailable:
		return "unavailable"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Gate is safe for concurrent use. The zero value is in Starting.
type Gate struct {
	state atomic.Int32
}

// NewGate returns a Gate in Starting.
func NewGate() *Gate {
	return &Gate{}
}

// IsReady reports whether data operations may touch storage.
func (g *Gate) IsReady() bool {
	return g.State() == Ready
}

// State returns the current state.
func (g *Gate) State() State {
	return State(g.state.Load())
}

// MarkReady moves Starting to Ready. It returns false if the gate has already
// left Starting, so readiness is granted at most once.
func (g *Gate) MarkReady() bool {
	return g.state.CompareAndSwap(int32(Starting), int32(Ready))
}

// MarkUnavailable moves Ready to Unavailable. It returns false when the gate
// was not Ready.
func (g *Gate) MarkUnavailable() bool {
	return g.state.CompareAndSwap(int32(Ready), int32(Unavailable))
}

// MarkDraining moves any state except Stopped to Draining.
func (g *Gate) MarkDraining() {
	for {
		cur := g.state.Load()
		if State(cur) == Stopped || State(cur) == Draining {
			return
		}
		if g.state.CompareAndSwap(cur, int32(Draining)) {
			return
		}
	}
}

// MarkStopped moves the gate to its terminal state.
func (g *Gate) MarkStopped() {
	g.state.Store(int32(Stopped))
}
