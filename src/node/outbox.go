package node

import (
	"fmt"

	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/net"
	"github.com/sirupsen/logrus"
)

// Outbox encodes and writes the messages of a node, and owns its MsgID
// counter. It is used from the processing loop only.
type Outbox struct {
	self   message.NodeID
	next   message.MsgID
	w      net.LineWriter
	logger *logrus.Entry

	sent int
}

// NewOutbox returns an Outbox whose first minted MsgID is
// message.FirstMsgID.
func NewOutbox(self message.NodeID, w net.LineWriter, logger *logrus.Entry) *Outbox {
	return &Outbox{
		self:   self,
		next:   message.FirstMsgID,
		w:      w,
		logger: logger,
	}
}

// Self returns the NodeID messages are sent from.
func (o *Outbox) Self() message.NodeID {
	return o.self
}

// Minted returns the number of MsgIDs minted so far.
func (o *Outbox) Minted() int {
	return int(o.next - message.FirstMsgID)
}

// Sent returns the number of messages written so far.
func (o *Outbox) Sent() int {
	return o.sent
}

func (o *Outbox) mint() *message.MsgID {
	id := o.next
	o.next++
	return &id
}

// Send writes a new request to dest and returns its MsgID, which the reply
// will reference in in_reply_to.
func (o *Outbox) Send(dest message.NodeID, payload message.Payload) (message.MsgID, error) {
	env := message.NewEnvelope(o.self, dest, payload)
	env.Body.MsgID = o.mint()

	return *env.Body.MsgID, o.write(env)
}

// Reply answers req with payload. The reply carries its own MsgID.
func (o *Outbox) Reply(req *message.Envelope, payload message.Payload) error {
	env := message.NewEnvelope(o.self, req.Src, payload)
	env.Body.MsgID = o.mint()
	env.Body.InReplyTo = req.Body.MsgID

	return o.write(env)
}

// ReplyError answers req with an error body. No MsgID is minted, nothing
// replies to an error.
func (o *Outbox) ReplyError(req *message.Envelope, code message.ErrorCode, text string) error {
	env := message.NewEnvelope(o.self, req.Src, &message.Error{Code: code, Text: text})
	env.Body.InReplyTo = req.Body.MsgID

	return o.write(env)
}

func (o *Outbox) write(env *message.Envelope) error {
	line, err := message.Encode(env)
	if err != nil {
		return fmt.Errorf("encoding %s to %s: %w", env.Type(), env.Dest, err)
	}

	if err := o.w.WriteLine(line); err != nil {
		return fmt.Errorf("writing %s to %s: %w", env.Type(), env.Dest, err)
	}

	o.sent++

	o.logger.WithFields(logrus.Fields{
		"type": env.Type(),
		"dest": env.Dest,
	}).Debug("Sent")

	return nil
}
