package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/mosaicnetworks/glomers/src/message"
)

// Broadcast asks a node to add Message to its set.
type Broadcast struct {
	Message int `json:"message"`
}

// Type ...
func (Broadcast) Type() string { return "broadcast" }

// BroadcastOk ...
type BroadcastOk struct{}

// Type ...
func (BroadcastOk) Type() string { return "broadcast_ok" }

// Read asks a node for every value it has seen.
type Read struct{}

// Type ...
func (Read) Type() string { return "read" }

// ReadOk ...
type ReadOk struct {
	Messages []int `json:"messages"`
}

// Type ...
func (ReadOk) Type() string { return "read_ok" }

// Topology maps every NodeID to its neighbors.
type Topology struct {
	Topology map[message.NodeID][]message.NodeID `json:"topology"`
}

// Type ...
func (Topology) Type() string { return "topology" }

// TopologyOk ...
type TopologyOk struct{}

// Type ...
func (TopologyOk) Type() string { return "topology_ok" }

// Gossip carries news between neighbors. It is never replied to.
type Gossip struct {
	News []News `json:"news"`
}

// Type ...
func (Gossip) Type() string { return "gossip" }

// Claim qualifies a value in a Gossip message.
type Claim string

const (
	// ClaimNew means the sender knows the value and does not know whether
	// the receiver knows it.
	ClaimNew Claim = "new"
	// ClaimVerified means the sender learned from the receiver that the
	// receiver knows the value.
	ClaimVerified Claim = "verified"
)

// UnmarshalJSON rejects unknown claims.
func (c *Claim) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch Claim(s) {
	case ClaimNew, ClaimVerified:
		*c = Claim(s)
		return nil
	default:
		return fmt.Errorf("unknown claim %q", s)
	}
}

// News is one entry of a Gossip message.
type News struct {
	Value int   `json:"value"`
	Claim Claim `json:"claim"`
}

// UnmarshalJSON rejects entries without a value or a claim.
func (n *News) UnmarshalJSON(data []byte) error {
	var wire struct {
		Value *int   `json:"value"`
		Claim *Claim `json:"claim"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch {
	case wire.Value == nil:
		return message.MissingFieldError{Type: "news", Field: "value"}
	case wire.Claim == nil:
		return message.MissingFieldError{Type: "news", Field: "claim"}
	}

	n.Value = *wire.Value
	n.Claim = *wire.Claim

	return nil
}

// Registry returns the message types handled by the Engine.
func Registry() message.Registry {
	return message.Registry{
		"broadcast": func() message.Payload { return &Broadcast{} },
		"read":      func() message.Payload { return &Read{} },
		"topology":  func() message.Payload { return &Topology{} },
		"gossip":    func() message.Payload { return &Gossip{} },
	}
}
