package message

import (
	"encoding/json"
	"fmt"
)

// NodeID identifies a node or a client in the cluster. A node learns its own
// NodeID from the init message and keeps it for the lifetime of the process.
type NodeID string

// String ...
func (id NodeID) String() string {
	return string(id)
}

// SeqKV is the NodeID of the sequentially-consistent key-value service
// provided by the cluster.
const SeqKV NodeID = "seq-kv"

// MsgID is a per-node message counter. Uniqueness is only guaranteed within
// the node that minted it.
type MsgID uint64

// FirstMsgID is the first MsgID minted by a node.
const FirstMsgID MsgID = 1

// Payload is the type-specific part of a message body. Type returns the tag
// written in the "type" field of the body.
type Payload interface {
	Type() string
}

// Body is the body of an Envelope. The Payload fields are flattened next to
// type, msg_id and in_reply_to on the wire.
type Body struct {
	MsgID     *MsgID
	InReplyTo *MsgID
	Payload   Payload
}

// Envelope is the unit of communication between nodes.
type Envelope struct {
	Src  NodeID `json:"src"`
	Dest NodeID `json:"dest"`
	Body Body   `json:"body"`
}

// Type returns the type tag of the body, or an empty string if the Envelope
// was decoded without a payload.
func (e *Envelope) Type() string {
	if e.Body.Payload == nil {
		return ""
	}
	return e.Body.Payload.Type()
}

// MarshalJSON flattens the payload fields into the body object.
func (b Body) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage)

	if b.Payload != nil {
		raw, err := json.Marshal(b.Payload)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("payload %s is not a JSON object: %w", b.Payload.Type(), err)
		}
		fields[typeField], err = json.Marshal(b.Payload.Type())
		if err != nil {
			return nil, err
		}
	}

	if b.MsgID != nil {
		fields[msgIDField] = json.RawMessage(fmt.Sprint(uint64(*b.MsgID)))
	}

	if b.InReplyTo != nil {
		fields[inReplyToField] = json.RawMessage(fmt.Sprint(uint64(*b.InReplyTo)))
	}

	return json.Marshal(fields)
}

// NewEnvelope returns an Envelope without correlation ids.
func NewEnvelope(src, dest NodeID, payload Payload) *Envelope {
	return &Envelope{
		Src:  src,
		Dest: dest,
		Body: Body{Payload: payload},
	}
}

// Init is the first message a node receives. It carries the node's identity
// and the identities of every node in the cluster, itself included.
type Init struct {
	NodeID  NodeID   `json:"node_id"`
	NodeIDs []NodeID `json:"node_ids"`
}

// Type ...
func (Init) Type() string { return "init" }

// Peers returns NodeIDs without the node's own identity, in their original
// order.
func (i *Init) Peers() []NodeID {
	peers := make([]NodeID, 0, len(i.NodeIDs))
	for _, id := range i.NodeIDs {
		if id != i.NodeID {
			peers = append(peers, id)
		}
	}
	return peers
}

// InitOk acknowledges Init.
type InitOk struct{}

// Type ...
func (InitOk) Type() string { return "init_ok" }
