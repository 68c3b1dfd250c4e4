package node

import (
	"github.com/mosaicnetworks/glomers/src/message"
)

type eventKind uint8

const (
	// a decoded inbound message
	inboundEvent eventKind = iota
	// a line that failed to decode but whose routing fields were recovered
	malformedEvent
	// a periodic tick from the ControlTimer
	tickEvent
	// a function to run inside the loop, for read-only access to state
	queryEvent
	// the input is exhausted (err == nil) or unreadable (err != nil)
	closedEvent
)

// event is the single type consumed by the processing loop. Every mutation of
// handler state happens while handling one event.
type event struct {
	kind  eventKind
	env   *message.Envelope
	err   error
	query func()
	done  chan struct{}

	// silent malformed events are counted but not answered
	silent bool
}
