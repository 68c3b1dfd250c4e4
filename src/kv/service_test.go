package kv

import (
	"encoding/json"
	"testing"

	"github.com/mosaicnetworks/glomers/src/common"
	"github.com/mosaicnetworks/glomers/src/message"
	"github.com/mosaicnetworks/glomers/src/node"
)

func messageCode(err StoreErr) int {
	return message.StandardCode(err.Kind()).Int()
}

type recorder struct {
	lines [][]byte
}

func (r *recorder) WriteLine(line []byte) error {
	r.lines = append(r.lines, line)
	return nil
}

func (r *recorder) last(t *testing.T) map[string]interface{} {
	t.Helper()

	if len(r.lines) == 0 {
		t.Fatalf("nothing was written")
	}

	var env struct {
		Body map[string]interface{} `json:"body"`
	}
	if err := json.Unmarshal(r.lines[len(r.lines)-1], &env); err != nil {
		t.Fatalf("err: %v", err)
	}
	return env.Body
}

func newTestService(t *testing.T) (*Service, *recorder) {
	rec := &recorder{}
	logger := common.NewTestEntry(t, common.TestLogLevel)
	out := node.NewOutbox(message.SeqKV, rec, logger)
	return NewService(NewInmemStore(), out, logger), rec
}

func request(t *testing.T, s *Service, line string) {
	t.Helper()

	env, err := message.Decode([]byte(line), s.Registry())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := s.Process(env); err != nil {
		t.Fatalf("err: %v", err)
	}
}

func TestServiceReadMissing(t *testing.T) {
	s, rec := newTestService(t)

	request(t, s, `{"src":"n1","dest":"seq-kv","body":{"type":"read","msg_id":1,"key":"counter"}}`)

	body := rec.last(t)
	if body["type"] != "error" || body["code"] != float64(20) {
		t.Fatalf("read of a missing key should fail with 20, got %v", body)
	}
	if body["in_reply_to"] != float64(1) {
		t.Fatalf("in_reply_to should be 1, not %v", body["in_reply_to"])
	}
}

func TestServiceWriteRead(t *testing.T) {
	s, rec := newTestService(t)

	request(t, s, `{"src":"n1","dest":"seq-kv","body":{"type":"write","msg_id":1,"key":"x","value":12}}`)
	if body := rec.last(t); body["type"] != "write_ok" {
		t.Fatalf("reply should be write_ok, not %v", body)
	}

	request(t, s, `{"src":"n1","dest":"seq-kv","body":{"type":"read","msg_id":2,"key":"x"}}`)
	body := rec.last(t)
	if body["type"] != "read_ok" || body["value"] != float64(12) {
		t.Fatalf("reply should be read_ok with 12, not %v", body)
	}
}

func TestServiceCas(t *testing.T) {
	s, rec := newTestService(t)

	request(t, s, `{"src":"n1","dest":"seq-kv","body":{"type":"cas","msg_id":1,"key":"c","from":0,"to":3}}`)
	if body := rec.last(t); body["code"] != float64(20) {
		t.Fatalf("cas on a missing key should fail with 20, got %v", body)
	}

	request(t, s, `{"src":"n1","dest":"seq-kv","body":{"type":"cas","msg_id":2,"key":"c","from":0,"to":3,"create_if_not_exists":true}}`)
	if body := rec.last(t); body["type"] != "cas_ok" {
		t.Fatalf("reply should be cas_ok, not %v", body)
	}

	request(t, s, `{"src":"n2","dest":"seq-kv","body":{"type":"cas","msg_id":1,"key":"c","from":0,"to":5}}`)
	if body := rec.last(t); body["code"] != float64(22) {
		t.Fatalf("stale cas should fail with 22, got %v", body)
	}

	stats := s.Stats()
	if stats["kv_cas"] != "3" || stats["kv_cas_failed"] != "1" || stats["kv_not_found"] != "1" {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestServiceMissingField(t *testing.T) {
	line := []byte(`{"src":"n1","dest":"seq-kv","body":{"type":"cas","msg_id":1,"key":"c","to":3}}`)

	if _, err := message.Decode(line, Registry()); err == nil {
		t.Fatalf("cas without from should not decode")
	}
}
