package net

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/sirupsen/logrus"
)

// ErrReceiveTimeout is returned by InmemTransport.Receive when no line
// arrived in time.
var ErrReceiveTimeout = errors.New("receive timed out")

type link struct {
	from, to message.NodeID
}

// InmemNetwork routes lines between InmemTransports, to allow glomers nodes
// to be tested in-memory without spawning processes. Lines are delivered in
// the order they are written, per destination. Lines addressed to an unknown
// NodeID, or across a cut link, are dropped.
type InmemNetwork struct {
	sync.RWMutex
	transports map[message.NodeID]*InmemTransport
	cut        map[link]bool
	logger     *logrus.Entry
}

// NewInmemNetwork returns an empty network.
func NewInmemNetwork(logger *logrus.Entry) *InmemNetwork {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &InmemNetwork{
		transports: make(map[message.NodeID]*InmemTransport),
		cut:        make(map[link]bool),
		logger:     logger.WithField("component", "inmem-network"),
	}
}

// Transport returns the transport registered for id, creating it if
// necessary.
func (n *InmemNetwork) Transport(id message.NodeID) *InmemTransport {
	n.Lock()
	defer n.Unlock()

	if t, ok := n.transports[id]; ok {
		return t
	}

	t := &InmemTransport{
		id:      id,
		network: n,
		inbox:   newInbox(),
	}
	n.transports[id] = t

	return t
}

// Disconnect cuts the link between a and b in both directions.
func (n *InmemNetwork) Disconnect(a, b message.NodeID) {
	n.Lock()
	defer n.Unlock()
	n.cut[link{a, b}] = true
	n.cut[link{b, a}] = true
}

// Connect restores the link between a and b.
func (n *InmemNetwork) Connect(a, b message.NodeID) {
	n.Lock()
	defer n.Unlock()
	delete(n.cut, link{a, b})
	delete(n.cut, link{b, a})
}

// Close closes every transport of the network.
func (n *InmemNetwork) Close() {
	n.RLock()
	defer n.RUnlock()
	for _, t := range n.transports {
		t.inbox.close()
	}
}

func (n *InmemNetwork) deliver(from message.NodeID, line []byte) error {
	env, err := message.DecodeRouting(line)
	if err != nil {
		return err
	}

	n.RLock()
	dest, ok := n.transports[env.Dest]
	cut := n.cut[link{from, env.Dest}]
	n.RUnlock()

	if !ok || cut {
		n.logger.WithFields(logrus.Fields{
			"from": from,
			"to":   env.Dest,
			"cut":  cut,
		}).Debug("Dropping line")
		return nil
	}

	buf := make([]byte, len(line))
	copy(buf, line)
	dest.inbox.push(buf)

	return nil
}

// InmemTransport implements the Transport interface on top of an
// InmemNetwork.
type InmemTransport struct {
	id      message.NodeID
	network *InmemNetwork
	inbox   *inbox
}

// ID returns the NodeID the transport is registered under.
func (i *InmemTransport) ID() message.NodeID {
	return i.id
}

// ReadLine implements the Transport interface.
func (i *InmemTransport) ReadLine() ([]byte, error) {
	return i.inbox.pop(nil)
}

// Receive is ReadLine with a timeout.
func (i *InmemTransport) Receive(timeout time.Duration) ([]byte, error) {
	return i.inbox.pop(time.After(timeout))
}

// WriteLine implements the Transport interface by routing the line to the
// transport named in its dest field.
func (i *InmemTransport) WriteLine(line []byte) error {
	if i.inbox.isClosed() {
		return ErrTransportShutdown
	}
	return i.network.deliver(i.id, line)
}

// Inject queues a line as if it had been received from the network. It is
// used to feed the init message and requests from outside the network.
func (i *InmemTransport) Inject(line []byte) {
	i.inbox.push(line)
}

// Close implements the Transport interface.
func (i *InmemTransport) Close() error {
	i.inbox.close()
	return nil
}

// inbox is an unbounded FIFO of lines. Writers never block, so two nodes
// writing to each other from their processing loops cannot deadlock.
type inbox struct {
	sync.Mutex
	items  [][]byte
	notify chan struct{}
	closed bool
}

func newInbox() *inbox {
	return &inbox{notify: make(chan struct{}, 1)}
}

func (b *inbox) push(line []byte) {
	b.Lock()
	if b.closed {
		b.Unlock()
		return
	}
	b.items = append(b.items, line)

	select {
	case b.notify <- struct{}{}:
	default:
	}
	b.Unlock()
}

func (b *inbox) pop(timeout <-chan time.Time) ([]byte, error) {
	for {
		b.Lock()
		if len(b.items) > 0 {
			line := b.items[0]
			b.items[0] = nil
			b.items = b.items[1:]
			b.Unlock()
			return line, nil
		}
		if b.closed {
			b.Unlock()
			return nil, io.EOF
		}
		b.Unlock()

		select {
		case <-b.notify:
		case <-timeout:
			return nil, ErrReceiveTimeout
		}
	}
}

func (b *inbox) close() {
	b.Lock()
	if !b.closed {
		b.closed = true
		close(b.notify)
	}
	b.Unlock()
}

func (b *inbox) isClosed() bool {
	b.Lock()
	defer b.Unlock()
	return b.closed
}
