package node

import (
	"errors"

	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/sirupsen/logrus"
)

// Handler implements the application side of a node. Process is called from
// the processing loop only, one message at a time, so implementations need
// no synchronization.
type Handler interface {
	// Registry returns the closed set of message types the handler accepts.
	// It is read once, after the handler is created.
	Registry() message.Registry

	// Process handles one decoded message. A returned error is reported to
	// the sender with a crash error, unless it is wrapped with Fatal.
	Process(env *message.Envelope) error
}

// Ticker is implemented by handlers that need periodic work.
type Ticker interface {
	Tick() error
}

// StatsReporter is implemented by handlers that expose counters to the
// stats service.
type StatsReporter interface {
	Stats() map[string]string
}

// Snapshotter is implemented by handlers that can serialize their state.
type Snapshotter interface {
	Snapshot() ([]byte, error)
}

// Factory creates the Handler of a node once its identity is known. The
// Outbox is the handler's only way to emit messages.
type Factory func(ini *message.Init, out *Outbox, logger *logrus.Entry) (Handler, error)

// FatalError marks a handler error the node cannot recover from.
type FatalError struct {
	Err error
}

// Fatal wraps err so that the node stops instead of replying with a crash
// error.
func Fatal(err error) error {
	return &FatalError{Err: err}
}

// Error ...
func (e *FatalError) Error() string {
	return "fatal: " + e.Err.Error()
}

// Unwrap ...
func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err, or any error it wraps, is a FatalError.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
