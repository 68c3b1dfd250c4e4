package node

import (
	"context"
	"time"
)

type timerFactory func(time.Duration) <-chan time.Time

// ControlTimer emits a tick event into the node's event channel every
// interval. It never touches handler state; it only produces events.
type ControlTimer struct {
	timerFactory timerFactory
	eventCh      chan<- event
}

// NewControlTimer ...
func NewControlTimer(timerFactory timerFactory, eventCh chan<- event) *ControlTimer {
	if timerFactory == nil {
		timerFactory = time.After
	}
	return &ControlTimer{
		timerFactory: timerFactory,
		eventCh:      eventCh,
	}
}

// Run emits ticks until ctx is cancelled, which happens when the consumer
// of the event channel is gone.
func (c *ControlTimer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	for {
		timer := c.timerFactory(interval)
		select {
		case <-timer:
			select {
			case c.eventCh <- event{kind: tickEvent}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
