package node

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/net"
	"github.com/sirupsen/logrus"
)

// ErrNotRunning is returned by queries issued while the processing loop is
// not consuming events.
var ErrNotRunning = errors.New("node is not running")

var initRegistry = message.Registry{
	"init": func() message.Payload { return &message.Init{} },
}

// errorRegistry is merged under every handler's registry so that error
// replies always decode.
var errorRegistry = message.Registry{
	"error": func() message.Payload { return &message.Error{} },
}

// Node runs the message loop of a glomers node: the init handshake, the
// decoding of inbound lines, the dispatch to the Handler, and tick events.
type Node struct {
	state

	conf   *Config
	logger *logrus.Entry

	factory Factory
	handler Handler
	ticker  Ticker

	trans  net.Transport
	outbox *Outbox

	id       message.NodeID
	nodeIDs  []message.NodeID
	registry message.Registry

	// handlesErrors is set when the handler registers the error type itself.
	handlesErrors bool

	eventCh      chan event
	doneCh       chan struct{}
	controlTimer *ControlTimer

	received  int
	malformed int
	crashes   int
	ticks     int
}

// NewNode is a factory method that returns a Node instance. The Handler is
// created by factory once the init message has been received.
func NewNode(conf *Config, factory Factory, trans net.Transport) *Node {
	eventCh := make(chan event)

	return &Node{
		conf:         conf,
		logger:       conf.Logger,
		factory:      factory,
		trans:        trans,
		eventCh:      eventCh,
		doneCh:       make(chan struct{}),
		controlTimer: NewControlTimer(conf.timerFactory, eventCh),
	}
}

// Run performs the init handshake and then processes events until the input
// is exhausted, ctx is cancelled, or a fatal error occurs. A clean end of
// input returns nil.
func (n *Node) Run(ctx context.Context) error {
	defer close(n.doneCh)
	defer n.setState(Shutdown)

	if err := n.handshake(); err != nil {
		n.logger.WithError(err).Error("Init")
		return err
	}

	defer n.logSnapshot()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go n.readLoop(ctx)

	if n.ticker != nil {
		go n.controlTimer.Run(ctx, n.conf.TickInterval)
	}

	n.setState(Running)

	for {
		select {
		case ev := <-n.eventCh:
			done, err := n.handle(ev)
			if err != nil {
				n.logger.WithError(err).Error("Stopping")
				return err
			}
			if done {
				n.logger.Debug("Input closed")
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handshake reads the first line, which must be an init message, acknowledges it,
// and creates the Handler.
func (n *Node) handshake() error {
	line, err := n.nextLine()
	if err != nil {
		return fmt.Errorf("reading init message: %w", err)
	}

	env, err := message.Decode(line, initRegistry)
	if err != nil {
		return fmt.Errorf("decoding init message: %w", err)
	}

	ini := env.Body.Payload.(*message.Init)
	if ini.NodeID == "" {
		return fmt.Errorf("init message without node_id")
	}

	n.id = ini.NodeID
	n.nodeIDs = ini.NodeIDs
	n.logger = n.logger.WithField("this_id", n.id)
	n.outbox = NewOutbox(n.id, n.trans, n.logger)

	if err := n.outbox.Reply(env, message.InitOk{}); err != nil {
		return err
	}

	handler, err := n.factory(ini, n.outbox, n.logger)
	if err != nil {
		return fmt.Errorf("creating handler: %w", err)
	}

	n.handler = handler
	registry := handler.Registry()
	_, n.handlesErrors = registry["error"]
	n.registry = errorRegistry.Merge(registry)
	if t, ok := handler.(Ticker); ok {
		n.ticker = t
	}

	n.logger.WithFields(logrus.Fields{
		"node_ids": ini.NodeIDs,
		"handler":  fmt.Sprintf("%T", handler),
	}).Info("Initialized")

	return nil
}

// nextLine skips blank lines.
func (n *Node) nextLine() ([]byte, error) {
	for {
		line, err := n.trans.ReadLine()
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(line)) > 0 {
			return line, nil
		}
	}
}

// readLoop decodes inbound lines and pushes them into the event channel. It
// stops at the end of input or at the first line that cannot be routed.
func (n *Node) readLoop(ctx context.Context) {
	for {
		ev := n.readEvent()

		select {
		case n.eventCh <- ev:
		case <-ctx.Done():
			return
		}

		if ev.kind == closedEvent {
			return
		}
	}
}

func (n *Node) readEvent() event {
	line, err := n.nextLine()
	if err == io.EOF {
		return event{kind: closedEvent}
	}
	if err != nil {
		return event{kind: closedEvent, err: fmt.Errorf("reading input: %w", err)}
	}

	env, err := message.Decode(line, n.registry)
	if err == nil {
		return event{kind: inboundEvent, env: env}
	}

	routing, rerr := message.DecodeRouting(line)
	if rerr != nil {
		return event{kind: closedEvent, err: fmt.Errorf("decoding %q: %w", line, err)}
	}

	if message.BodyType(line) == (message.Error{}).Type() {
		// errors are never answered
		return event{kind: malformedEvent, env: routing, err: err, silent: true}
	}

	return event{kind: malformedEvent, env: routing, err: err}
}

// handle processes one event. It returns true when the input is exhausted.
func (n *Node) handle(ev event) (bool, error) {
	switch ev.kind {
	case inboundEvent:
		n.received++
		return false, n.process(ev.env)
	case malformedEvent:
		n.malformed++
		n.logger.WithFields(logrus.Fields{
			"src":   ev.env.Src,
			"error": ev.err,
		}).Warn("Malformed request")
		if ev.silent {
			return false, nil
		}
		return false, n.outbox.ReplyError(ev.env, message.StandardCode(message.MalformedRequest), ev.err.Error())
	case tickEvent:
		n.ticks++
		if err := n.ticker.Tick(); err != nil {
			return false, fmt.Errorf("tick: %w", err)
		}
		return false, nil
	case queryEvent:
		ev.query()
		close(ev.done)
		return false, nil
	case closedEvent:
		return ev.err == nil, ev.err
	default:
		return false, fmt.Errorf("unknown event kind %d", ev.kind)
	}
}

func (n *Node) process(env *message.Envelope) error {
	n.logger.WithFields(logrus.Fields{
		"type": env.Type(),
		"src":  env.Src,
	}).Debug("Processing")

	_, isError := env.Body.Payload.(*message.Error)

	if isError && !n.handlesErrors {
		n.logger.WithFields(logrus.Fields{
			"src":   env.Src,
			"error": env.Body.Payload,
		}).Warn("Unexpected error message")
		return nil
	}

	err := n.handler.Process(env)
	if err == nil {
		return nil
	}

	if IsFatal(err) {
		return err
	}

	n.crashes++
	n.logger.WithError(err).WithField("type", env.Type()).Warn("Handler failed")

	// errors are never answered, the sender would answer back
	if isError {
		return nil
	}

	return n.outbox.ReplyError(env, message.StandardCode(message.Crash), err.Error())
}

// logSnapshot records the final state of the handler. It runs on the
// processing goroutine, after the loop exited.
func (n *Node) logSnapshot() {
	s, ok := n.handler.(Snapshotter)
	if !ok {
		return
	}

	data, err := s.Snapshot()
	if err != nil {
		n.logger.WithError(err).Warn("Snapshot")
		return
	}

	n.logger.WithField("state", string(data)).Debug("Final state")
}

// query runs fn inside the processing loop and waits for it to complete.
func (n *Node) query(ctx context.Context, fn func()) error {
	if n.getState() != Running {
		return ErrNotRunning
	}

	ev := event{kind: queryEvent, query: fn, done: make(chan struct{})}

	select {
	case n.eventCh <- ev:
	case <-n.doneCh:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ev.done:
		return nil
	case <-n.doneCh:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetState returns the lifecycle state of the node.
func (n *Node) GetState() State {
	return n.getState()
}

// Done is closed when Run returns.
func (n *Node) Done() <-chan struct{} {
	return n.doneCh
}

// GetStats returns runtime counters merged with the handler's own.
func (n *Node) GetStats(ctx context.Context) (map[string]string, error) {
	var s map[string]string

	err := n.query(ctx, func() {
		s = map[string]string{
			"id":        n.id.String(),
			"state":     n.getState().String(),
			"num_nodes": strconv.Itoa(len(n.nodeIDs)),
			"received":  strconv.Itoa(n.received),
			"malformed": strconv.Itoa(n.malformed),
			"crashes":   strconv.Itoa(n.crashes),
			"ticks":     strconv.Itoa(n.ticks),
			"sent":      strconv.Itoa(n.outbox.Sent()),
			"msg_ids":   strconv.Itoa(n.outbox.Minted()),
		}

		if r, ok := n.handler.(StatsReporter); ok {
			for k, v := range r.Stats() {
				s[k] = v
			}
		}
	})

	return s, err
}

// GetSnapshot returns the serialized state of the handler.
func (n *Node) GetSnapshot(ctx context.Context) ([]byte, error) {
	var (
		data []byte
		serr error
	)

	err := n.query(ctx, func() {
		s, ok := n.handler.(Snapshotter)
		if !ok {
			serr = fmt.Errorf("%T does not support snapshots", n.handler)
			return
		}
		data, serr = s.Snapshot()
	})
	if err != nil {
		return nil, err
	}

	return data, serr
}

// ID returns the NodeID assigned by the init message, or an empty string
// before init.
func (n *Node) ID() message.NodeID {
	return n.id
}
