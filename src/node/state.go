package node

import (
	"sync/atomic"
)

// State captures the lifecycle of a node: Initializing, Running, or Shutdown
type State uint32

const (
	// Initializing is the initial state, until the init message has been
	// acknowledged.
	Initializing State = iota
	// Running means the processing loop is consuming events.
	Running
	// Shutdown means the processing loop has exited.
	Shutdown
)

// String ...
func (s State) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case Running:
		return "Running"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

type state struct {
	state State
}

func (b *state) getState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

func (b *state) setState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}
