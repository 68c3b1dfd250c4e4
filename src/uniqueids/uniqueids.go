// Package uniqueids implements a Handler generating identifiers that are
// unique across the cluster without coordination. An id is a sequence number
// local to the node, followed by the NodeID, which is unique in the cluster.
package uniqueids

import (
	"fmt"
	"strconv"

	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/node"
	"github.com/sirupsen/logrus"
)

// Generate ...
type Generate struct{}

// Type ...
func (Generate) Type() string { return "generate" }

// GenerateOk ...
type GenerateOk struct {
	ID string `json:"id"`
}

// Type ...
func (GenerateOk) Type() string { return "generate_ok" }

// Handler implements node.Handler.
type Handler struct {
	self message.NodeID
	seq  uint64
	out  *node.Outbox
}

// New ...
func New(self message.NodeID, out *node.Outbox) *Handler {
	return &Handler{self: self, out: out}
}

// Factory implements node.Factory.
func Factory(ini *message.Init, out *node.Outbox, logger *logrus.Entry) (node.Handler, error) {
	return New(ini.NodeID, out), nil
}

// Registry implements node.Handler.
func (h *Handler) Registry() message.Registry {
	return message.Registry{
		"generate": func() message.Payload { return &Generate{} },
	}
}

// Process implements node.Handler.
func (h *Handler) Process(env *message.Envelope) error {
	if _, ok := env.Body.Payload.(*Generate); !ok {
		return fmt.Errorf("unexpected message %s", env.Type())
	}
	return h.out.Reply(env, GenerateOk{ID: h.Next()})
}

// Next returns a new id of the form "<seq>@<node>", seq starting at 1.
func (h *Handler) Next() string {
	h.seq++
	return fmt.Sprintf("%d@%s", h.seq, h.self)
}

// Stats implements node.StatsReporter.
func (h *Handler) Stats() map[string]string {
	return map[string]string{"generated": strconv.FormatUint(h.seq, 10)}
}
