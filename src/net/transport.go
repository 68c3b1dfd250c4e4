package net

import "errors"

// ErrTransportShutdown is returned when operations on a transport are invoked
// after it's been closed.
var ErrTransportShutdown = errors.New("transport shutdown")

// LineWriter emits one encoded message per call.
type LineWriter interface {
	// WriteLine writes line followed by a newline. line must not contain a
	// newline itself.
	WriteLine(line []byte) error
}

// Transport provides an interface for line transports to allow a node to
// communicate with the rest of the cluster.
type Transport interface {
	LineWriter

	// ReadLine blocks until the next inbound line is available and returns
	// it without its trailing newline. It returns io.EOF once the input is
	// exhausted or the transport is closed.
	ReadLine() ([]byte, error)

	// Close permanently closes a transport, unblocking pending reads.
	Close() error
}
