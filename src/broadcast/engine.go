package broadcast

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/node"
	"github.com/sirupsen/logrus"
)

// Knowledge is what a node knows about a neighbor's knowledge of a value.
type Knowledge uint8

const (
	// ToBeConfirmed means the neighbor told us it knows the value, and we
	// have not told it that we know it too.
	ToBeConfirmed Knowledge = iota + 1
	// Confirmed means both sides know the other knows the value.
	Confirmed
)

// String ...
func (k Knowledge) String() string {
	switch k {
	case ToBeConfirmed:
		return "ToBeConfirmed"
	case Confirmed:
		return "Confirmed"
	default:
		return "Unknown"
	}
}

type knowledgeKey struct {
	peer  message.NodeID
	value int
}

// Engine is the broadcast Handler. It is driven by the node's processing loop
// and is not safe for concurrent use.
type Engine struct {
	self      message.NodeID
	out       *node.Outbox
	logger    *logrus.Entry
	neighbors []message.NodeID

	seen      map[int]struct{}
	knowledge map[knowledgeKey]Knowledge

	// owed lists, per peer, the values we must acknowledge with a verified
	// claim on the next tick.
	owed map[message.NodeID]map[int]struct{}

	gossipSent int
	newsSent   int
}

// New returns an Engine whose neighbors are every node of the cluster but
// itself, until a topology message says otherwise.
func New(ini *message.Init, out *node.Outbox, logger *logrus.Entry) *Engine {
	return &Engine{
		self:      ini.NodeID,
		out:       out,
		logger:    logger.WithField("prefix", "broadcast"),
		neighbors: ini.Peers(),
		seen:      make(map[int]struct{}),
		knowledge: make(map[knowledgeKey]Knowledge),
		owed:      make(map[message.NodeID]map[int]struct{}),
	}
}

// Factory implements node.Factory.
func Factory(ini *message.Init, out *node.Outbox, logger *logrus.Entry) (node.Handler, error) {
	return New(ini, out, logger), nil
}

// Registry implements node.Handler.
func (e *Engine) Registry() message.Registry {
	return Registry()
}

// Process implements node.Handler.
func (e *Engine) Process(env *message.Envelope) error {
	switch p := env.Body.Payload.(type) {
	case *Broadcast:
		e.insert(p.Message)
		return e.out.Reply(env, BroadcastOk{})
	case *Read:
		return e.out.Reply(env, ReadOk{Messages: e.Seen()})
	case *Topology:
		if neighbors, ok := p.Topology[e.self]; ok {
			e.neighbors = append([]message.NodeID(nil), neighbors...)
			e.logger.WithField("neighbors", e.neighbors).Debug("Topology")
		}
		return e.out.Reply(env, TopologyOk{})
	case *Gossip:
		e.receive(env.Src, p.News)
		return nil
	default:
		return fmt.Errorf("unexpected message %s", env.Type())
	}
}

func (e *Engine) insert(v int) bool {
	if _, ok := e.seen[v]; ok {
		return false
	}
	e.seen[v] = struct{}{}
	return true
}

func (e *Engine) receive(src message.NodeID, news []News) {
	for _, n := range news {
		e.insert(n.Value)

		key := knowledgeKey{src, n.Value}

		switch n.Claim {
		case ClaimNew:
			// src does not know that we know. Confirmed is never
			// downgraded, the acknowledgement is simply sent again.
			if e.knowledge[key] != Confirmed {
				e.knowledge[key] = ToBeConfirmed
			}
			e.owe(src, n.Value)
		case ClaimVerified:
			e.knowledge[key] = Confirmed
			if owed, ok := e.owed[src]; ok {
				delete(owed, n.Value)
			}
		}
	}
}

func (e *Engine) owe(peer message.NodeID, v int) {
	owed, ok := e.owed[peer]
	if !ok {
		owed = make(map[int]struct{})
		e.owed[peer] = owed
	}
	owed[v] = struct{}{}
}

// Tick implements node.Ticker. It sends every neighbor the values it may not
// know, and every peer the acknowledgements we owe it.
func (e *Engine) Tick() error {
	for _, peer := range e.targets() {
		news := e.news(peer)
		if len(news) == 0 {
			continue
		}

		if _, err := e.out.Send(peer, Gossip{News: news}); err != nil {
			return err
		}

		e.gossipSent++
		e.newsSent += len(news)
	}
	return nil
}

// targets returns the neighbors followed by the other peers we owe
// acknowledgements to, in a stable order.
func (e *Engine) targets() []message.NodeID {
	targets := append([]message.NodeID(nil), e.neighbors...)

	var extra []message.NodeID
	for peer, owed := range e.owed {
		if len(owed) > 0 && !e.isNeighbor(peer) {
			extra = append(extra, peer)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	return append(targets, extra...)
}

func (e *Engine) isNeighbor(peer message.NodeID) bool {
	for _, n := range e.neighbors {
		if n == peer {
			return true
		}
	}
	return false
}

// news computes the gossip for peer and records the acknowledgements it
// carries.
func (e *Engine) news(peer message.NodeID) []News {
	neighbor := e.isNeighbor(peer)
	owed := e.owed[peer]

	var news []News
	for _, v := range e.Seen() {
		key := knowledgeKey{peer, v}

		if _, ok := owed[v]; ok {
			news = append(news, News{Value: v, Claim: ClaimVerified})
			e.knowledge[key] = Confirmed
			continue
		}

		if _, known := e.knowledge[key]; !known && neighbor {
			news = append(news, News{Value: v, Claim: ClaimNew})
		}
	}

	delete(e.owed, peer)

	return news
}

// Seen returns the values seen so far, in ascending order.
func (e *Engine) Seen() []int {
	res := make([]int, 0, len(e.seen))
	for v := range e.seen {
		res = append(res, v)
	}
	sort.Ints(res)
	return res
}

// Neighbors returns the NodeIDs gossiped to on every tick.
func (e *Engine) Neighbors() []message.NodeID {
	return append([]message.NodeID(nil), e.neighbors...)
}

// Knowledge returns what we know about peer's knowledge of v. The boolean is
// false when nothing is known.
func (e *Engine) Knowledge(peer message.NodeID, v int) (Knowledge, bool) {
	k, ok := e.knowledge[knowledgeKey{peer, v}]
	return k, ok
}

// Stats implements node.StatsReporter.
func (e *Engine) Stats() map[string]string {
	confirmed := 0
	for _, k := range e.knowledge {
		if k == Confirmed {
			confirmed++
		}
	}

	return map[string]string{
		"seen":                strconv.Itoa(len(e.seen)),
		"neighbors":           strconv.Itoa(len(e.neighbors)),
		"knowledge":           strconv.Itoa(len(e.knowledge)),
		"knowledge_confirmed": strconv.Itoa(confirmed),
		"gossip_sent":         strconv.Itoa(e.gossipSent),
		"news_sent":           strconv.Itoa(e.newsSent),
	}
}

type snapshot struct {
	Seen      []int                        `json:"seen"`
	Neighbors []string                     `json:"neighbors"`
	Knowledge map[string]map[string]string `json:"knowledge"`
}

// Snapshot implements node.Snapshotter.
func (e *Engine) Snapshot() ([]byte, error) {
	s := snapshot{
		Seen:      e.Seen(),
		Neighbors: make([]string, len(e.neighbors)),
		Knowledge: make(map[string]map[string]string),
	}

	for i, n := range e.neighbors {
		s.Neighbors[i] = n.String()
	}

	for key, k := range e.knowledge {
		peer, ok := s.Knowledge[key.peer.String()]
		if !ok {
			peer = make(map[string]string)
			s.Knowledge[key.peer.String()] = peer
		}
		peer[strconv.Itoa(key.value)] = k.String()
	}

	return common.MarshalCanonical(s)
}
