package node

import (
	"encoding/json"
	"testing"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/message"
)

type recorder struct {
	lines [][]byte
}

func (r *recorder) WriteLine(line []byte) error {
	r.lines = append(r.lines, line)
	return nil
}

func (r *recorder) body(t *testing.T, i int) map[string]interface{} {
	t.Helper()

	var env struct {
		Src  string                 `json:"src"`
		Dest string                 `json:"dest"`
		Body map[string]interface{} `json:"body"`
	}
	if err := json.Unmarshal(r.lines[i], &env); err != nil {
		t.Fatalf("err: %v", err)
	}
	return env.Body
}

func TestOutboxMint(t *testing.T) {
	rec := &recorder{}
	out := NewOutbox("n1", rec, common.NewTestEntry(t, common.TestLogLevel))

	for i := 1; i <= 3; i++ {
		id, err := out.Send("n2", pong{Echo: "x"})
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if id != message.MsgID(i) {
			t.Fatalf("MsgID should be %d, not %d", i, id)
		}
	}

	if out.Minted() != 3 {
		t.Fatalf("Minted should be 3, not %d", out.Minted())
	}
	if out.Sent() != 3 {
		t.Fatalf("Sent should be 3, not %d", out.Sent())
	}
}

func TestOutboxReply(t *testing.T) {
	rec := &recorder{}
	out := NewOutbox("n1", rec, common.NewTestEntry(t, common.TestLogLevel))

	id := message.MsgID(42)
	req := &message.Envelope{
		Src:  "c1",
		Dest: "n1",
		Body: message.Body{MsgID: &id, Payload: &ping{Echo: "hi"}},
	}

	if err := out.Reply(req, pong{Echo: "hi"}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := out.ReplyError(req, message.StandardCode(message.Crash), "oops"); err != nil {
		t.Fatalf("err: %v", err)
	}

	reply := rec.body(t, 0)
	if reply["in_reply_to"] != float64(42) {
		t.Fatalf("in_reply_to should be 42, not %v", reply["in_reply_to"])
	}
	if reply["msg_id"] != float64(1) {
		t.Fatalf("msg_id should be 1, not %v", reply["msg_id"])
	}

	errBody := rec.body(t, 1)
	if errBody["type"] != "error" {
		t.Fatalf("type should be error, not %v", errBody["type"])
	}
	if _, ok := errBody["msg_id"]; ok {
		t.Fatalf("error reply should not have a msg_id")
	}
	if errBody["code"] != float64(13) {
		t.Fatalf("code should be 13, not %v", errBody["code"])
	}

	if out.Minted() != 1 {
		t.Fatalf("Minted should be 1, not %d", out.Minted())
	}
}

func TestOutboxReplyWithoutMsgID(t *testing.T) {
	rec := &recorder{}
	out := NewOutbox("n1", rec, common.NewTestEntry(t, common.TestLogLevel))

	req := message.NewEnvelope("n2", "n1", &ping{})

	if err := out.Reply(req, pong{}); err != nil {
		t.Fatalf("err: %v", err)
	}

	if _, ok := rec.body(t, 0)["in_reply_to"]; ok {
		t.Fatalf("reply to a request without msg_id should not have in_reply_to")
	}
}
