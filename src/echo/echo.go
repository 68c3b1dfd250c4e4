// Package echo implements a Handler that sends every echo request back to its
// sender.
package echo

import (
	"fmt"

	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/node"
	"github.com/sirupsen/logrus"
)

// Echo ...
type Echo struct {
	Echo string `json:"echo"`
}

// Type ...
func (Echo) Type() string { return "echo" }

// EchoOk carries the Echo of the request.
type EchoOk struct {
	Echo string `json:"echo"`
}

// Type ...
func (EchoOk) Type() string { return "echo_ok" }

// Handler implements node.Handler.
type Handler struct {
	out *node.Outbox
}

// Factory implements node.Factory.
func Factory(ini *message.Init, out *node.Outbox, logger *logrus.Entry) (node.Handler, error) {
	return &Handler{out: out}, nil
}

// Registry implements node.Handler.
func (h *Handler) Registry() message.Registry {
	return message.Registry{
		"echo": func() message.Payload { return &Echo{} },
	}
}

// Process implements node.Handler.
func (h *Handler) Process(env *message.Envelope) error {
	p, ok := env.Body.Payload.(*Echo)
	if !ok {
		return fmt.Errorf("unexpected message %s", env.Type())
	}
	return h.out.Reply(env, EchoOk{Echo: p.Echo})
}
