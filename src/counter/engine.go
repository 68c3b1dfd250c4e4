package counter

import (
	"fmt"
	"strconv"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/kv"
	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/node"
	"github.com/sirupsen/logrus"
)

// DefaultKey is the key of the counter in the key-value service.
const DefaultKey = "counter"

type pendingWrite struct {
	delta  int
	target int
}

// Engine is the counter Handler. It is driven by the node's processing loop
// and is not safe for concurrent use.
type Engine struct {
	key    string
	kvNode message.NodeID
	out    *node.Outbox
	logger *logrus.Entry

	// delta is the sum of the increments not yet carried by a CAS.
	delta int
	// lastKnown is the highest value read or written, it never decreases.
	lastKnown int
	// pending holds the CAS in flight, by MsgID. It has at most one entry.
	pending map[message.MsgID]pendingWrite

	readsSent int
	casSent   int
	conflicts int
	creates   int
	ignored   int
}

// New returns an Engine committing to key on kvNode.
func New(key string, kvNode message.NodeID, out *node.Outbox, logger *logrus.Entry) *Engine {
	return &Engine{
		key:     key,
		kvNode:  kvNode,
		out:     out,
		logger:  logger.WithField("prefix", "counter"),
		pending: make(map[message.MsgID]pendingWrite),
	}
}

// NewFactory returns a node.Factory creating Engines that commit to key on
// kvNode.
func NewFactory(key string, kvNode message.NodeID) node.Factory {
	return func(ini *message.Init, out *node.Outbox, logger *logrus.Entry) (node.Handler, error) {
		return New(key, kvNode, out, logger), nil
	}
}

// Registry implements node.Handler.
func (e *Engine) Registry() message.Registry {
	return Registry()
}

// Process implements node.Handler.
func (e *Engine) Process(env *message.Envelope) error {
	switch p := env.Body.Payload.(type) {
	case *Add:
		if p.Delta < 0 {
			return e.out.ReplyError(env,
				message.StandardCode(message.MalformedRequest),
				fmt.Sprintf("delta %d is negative, the counter only grows", p.Delta))
		}
		e.delta += p.Delta
		return e.out.Reply(env, AddOk{})
	case *Read:
		return e.out.Reply(env, kv.ReadOk{Value: e.lastKnown})
	case *kv.ReadOk:
		if !e.fromKV(env) {
			return nil
		}
		return e.onRead(p.Value)
	case *kv.CasOk:
		if !e.fromKV(env) {
			return nil
		}
		e.onCasOk(env)
		return nil
	case *message.Error:
		if !e.fromKV(env) {
			return nil
		}
		return e.onError(env, p)
	default:
		return fmt.Errorf("unexpected message %s", env.Type())
	}
}

// Tick implements node.Ticker. It reads the counter on every tick, so that
// the value keeps advancing while a CAS is in flight. A CAS is only sent from
// a read when none is in flight.
func (e *Engine) Tick() error {
	return e.read()
}

// fromKV reports whether env comes from the key-value service. Replies from
// anyone else are counted and dropped.
func (e *Engine) fromKV(env *message.Envelope) bool {
	if env.Src == e.kvNode {
		return true
	}

	e.ignored++
	e.logger.WithFields(logrus.Fields{
		"type": env.Type(),
		"src":  env.Src,
	}).Warn("Reply from unexpected node")

	return false
}

func (e *Engine) read() error {
	if _, err := e.out.Send(e.kvNode, kv.Read{Key: e.key}); err != nil {
		return err
	}
	e.readsSent++
	return nil
}

func (e *Engine) onRead(value int) error {
	if value > e.lastKnown {
		e.lastKnown = value
	}

	if e.delta == 0 || len(e.pending) > 0 {
		return nil
	}

	return e.cas(value, value+e.delta, value == 0)
}

// cas sends the local delta, which is cleared until the reply comes back.
func (e *Engine) cas(from, to int, create bool) error {
	id, err := e.out.Send(e.kvNode, kv.Cas{
		Key:               e.key,
		From:              from,
		To:                to,
		CreateIfNotExists: create,
	})
	if err != nil {
		return err
	}

	e.pending[id] = pendingWrite{delta: e.delta, target: to}
	e.delta = 0
	e.casSent++

	e.logger.WithFields(logrus.Fields{
		"msg_id": id,
		"from":   from,
		"to":     to,
	}).Debug("CAS")

	return nil
}

// settle removes the CAS env replies to. It returns false for replies that
// match no CAS in flight, such as duplicates.
func (e *Engine) settle(env *message.Envelope) (pendingWrite, bool) {
	if env.Body.InReplyTo == nil {
		return pendingWrite{}, false
	}

	w, ok := e.pending[*env.Body.InReplyTo]
	if !ok {
		return pendingWrite{}, false
	}

	delete(e.pending, *env.Body.InReplyTo)

	return w, true
}

func (e *Engine) onCasOk(env *message.Envelope) {
	w, ok := e.settle(env)
	if !ok {
		e.ignored++
		return
	}

	if w.target > e.lastKnown {
		e.lastKnown = w.target
	}
}

func (e *Engine) onError(env *message.Envelope, msgErr *message.Error) error {
	switch msgErr.Code.Kind {
	case message.PreconditionFailed:
		w, ok := e.settle(env)
		if !ok {
			e.ignored++
			return nil
		}

		e.conflicts++
		e.delta += w.delta

		return e.read()
	case message.KeyDoesNotExist:
		if w, ok := e.settle(env); ok {
			e.delta += w.delta
		}

		if len(e.pending) > 0 {
			return nil
		}

		e.creates++

		return e.cas(0, e.delta, true)
	default:
		return node.Fatal(fmt.Errorf("unexpected error from %s: %w", env.Src, msgErr))
	}
}

// Value returns the highest committed value observed.
func (e *Engine) Value() int {
	return e.lastKnown
}

// Delta returns the increments not yet carried by a CAS.
func (e *Engine) Delta() int {
	return e.delta
}

// InFlight returns the number of CAS awaiting a reply.
func (e *Engine) InFlight() int {
	return len(e.pending)
}

// Stats implements node.StatsReporter.
func (e *Engine) Stats() map[string]string {
	return map[string]string{
		"value":         strconv.Itoa(e.lastKnown),
		"delta":         strconv.Itoa(e.delta),
		"in_flight":     strconv.Itoa(len(e.pending)),
		"reads_sent":    strconv.Itoa(e.readsSent),
		"cas_sent":      strconv.Itoa(e.casSent),
		"cas_conflicts": strconv.Itoa(e.conflicts),
		"creates":       strconv.Itoa(e.creates),
		"ignored":       strconv.Itoa(e.ignored),
	}
}

type snapshot struct {
	Key      string `json:"key"`
	Value    int    `json:"value"`
	Delta    int    `json:"delta"`
	InFlight int    `json:"in_flight"`
}

// Snapshot implements node.Snapshotter. The delta carried by a CAS in flight
// is counted in Delta.
func (e *Engine) Snapshot() ([]byte, error) {
	s := snapshot{
		Key:      e.key,
		Value:    e.lastKnown,
		Delta:    e.delta,
		InFlight: len(e.pending),
	}

	for _, w := range e.pending {
		s.Delta += w.delta
	}

	return common.MarshalCanonical(s)
}
