package message

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type echo struct {
	Echo string `json:"echo"`
}

func (echo) Type() string { return "echo" }

type cas struct {
	Key    string `json:"key"`
	From   int    `json:"from"`
	To     int    `json:"to"`
	Create bool   `json:"create_if_not_exists,omitempty"`
}

func (cas) Type() string { return "cas" }

var testRegistry = Registry{
	"echo": func() Payload { return &echo{} },
	"cas":  func() Payload { return &cas{} },
}

func TestDecode(t *testing.T) {
	lines := []string{
		"{\"id\":90,\"src\":\"c2\",\"dest\":\"n0\",\"body\":{\"echo\":\"Please echo 98\",\"type\":\"echo\",\"msg_id\":45}}\n",
		`{"id":2,"src":"c2","dest":"n0","body":{"echo":"Please echo 15","type":"echo","msg_id":1}}`,
	}

	for _, l := range lines {
		env, err := Decode([]byte(l), testRegistry)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if env.Src != "c2" || env.Dest != "n0" {
			t.Fatalf("routing should be c2 -> n0, not %s -> %s", env.Src, env.Dest)
		}
		if env.Body.MsgID == nil {
			t.Fatalf("msg_id should be set")
		}
		if env.Body.InReplyTo != nil {
			t.Fatalf("in_reply_to should not be set")
		}
		if _, ok := env.Body.Payload.(*echo); !ok {
			t.Fatalf("payload should be *echo, not %T", env.Body.Payload)
		}
	}
}

func TestDecodeFailures(t *testing.T) {
	for _, c := range []struct {
		name string
		line string
		err  error
	}{
		{"unknown type", `{"src":"c1","dest":"n1","body":{"type":"nope","msg_id":1}}`, UnknownTypeError{Type: "nope"}},
		{"missing field", `{"src":"c1","dest":"n1","body":{"type":"echo","msg_id":1}}`, MissingFieldError{Type: "echo", Field: "echo"}},
		{"missing type", `{"src":"c1","dest":"n1","body":{"msg_id":1}}`, ErrMissingType},
		{"missing dest", `{"src":"c1","body":{"type":"echo","echo":"x"}}`, ErrMissingRouting},
	} {
		_, err := Decode([]byte(c.line), testRegistry)
		if !errors.Is(err, c.err) {
			t.Errorf("%s: error should be %v, not %v", c.name, c.err, err)
		}
	}

	if _, err := Decode([]byte(`{"src":"c1","dest":"n1","body":{"type":"echo","echo":5}}`), testRegistry); err == nil {
		t.Errorf("a field of the wrong type should fail to decode")
	}

	if _, err := Decode([]byte(`not json`), testRegistry); err == nil {
		t.Errorf("garbage should fail to decode")
	}
}

func TestOptionalFields(t *testing.T) {
	env, err := Decode([]byte(`{"src":"n1","dest":"seq-kv","body":{"type":"cas","msg_id":3,"key":"counter","from":0,"to":3}}`), testRegistry)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	p := env.Body.Payload.(*cas)
	if p.Create {
		t.Fatalf("create_if_not_exists should default to false")
	}
	if p.To != 3 {
		t.Fatalf("to should be 3, not %d", p.To)
	}
}

func TestDecodeRouting(t *testing.T) {
	env, err := DecodeRouting([]byte(`{"src":"c1","dest":"n1","body":{"type":"nope","msg_id":7}}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if env.Src != "c1" || env.Dest != "n1" || env.Body.MsgID == nil || *env.Body.MsgID != 7 {
		t.Fatalf("unexpected routing %+v", env)
	}
	if env.Body.Payload != nil {
		t.Fatalf("payload should be nil, not %v", env.Body.Payload)
	}

	if _, err := DecodeRouting([]byte(`{"body":{}}`)); err == nil {
		t.Fatalf("routing decode without src and dest should fail")
	}
}

func TestEncodeFlattensPayload(t *testing.T) {
	id, reply := MsgID(2), MsgID(45)
	env := &Envelope{
		Src:  "n0",
		Dest: "c2",
		Body: Body{
			MsgID:     &id,
			InReplyTo: &reply,
			Payload:   echo{Echo: "hi"},
		},
	}

	data, err := Encode(env)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	expected := `{"body":{"echo":"hi","in_reply_to":45,"msg_id":2,"type":"echo"},"dest":"c2","src":"n0"}`

	var got, want map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("err: %v", err)
	}
	json.Unmarshal([]byte(expected), &want)

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("encoded envelope should be %s, not %s", expected, data)
	}

	back, err := Decode(data, testRegistry)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if *back.Body.MsgID != 2 || *back.Body.InReplyTo != 45 {
		t.Fatalf("ids should survive encoding, got %+v", back.Body)
	}
}

func TestOmitsEmptyOptionals(t *testing.T) {
	data, err := Encode(NewEnvelope("n1", SeqKV, cas{Key: "counter", From: 1, To: 2}))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	var body struct {
		Body map[string]interface{} `json:"body"`
	}
	json.Unmarshal(data, &body)
	for _, f := range []string{"msg_id", "in_reply_to", "create_if_not_exists"} {
		if _, ok := body.Body[f]; ok {
			t.Errorf("%s should be omitted from %s", f, data)
		}
	}
}

func TestErrorCodes(t *testing.T) {
	for _, c := range []struct {
		kind ErrorKind
		code int
	}{
		{Timeout, 0},
		{NodeNotFound, 1},
		{NotSupported, 10},
		{TemporarilyUnavailable, 11},
		{MalformedRequest, 12},
		{Crash, 13},
		{Abort, 14},
		{KeyDoesNotExist, 20},
		{KeyExistsAlready, 21},
		{PreconditionFailed, 22},
		{TxnConflict, 30},
	} {
		if got := StandardCode(c.kind).Int(); got != c.code {
			t.Errorf("%s should map to %d, not %d", c.kind, c.code, got)
		}
		parsed, err := ParseErrorCode(c.code)
		if err != nil {
			t.Errorf("ParseErrorCode(%d): %v", c.code, err)
		}
		if parsed.Kind != c.kind {
			t.Errorf("%d should parse to %s, not %s", c.code, c.kind, parsed.Kind)
		}
	}

	user, err := UserCode(1001)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if user.Kind != UserDefined || user.Int() != 1001 {
		t.Fatalf("user code should be 1001, not %v", user)
	}

	if _, err := UserCode(999); err == nil {
		t.Fatalf("codes below 1000 should be rejected")
	}
	for _, code := range []int{2, 42, 999} {
		parsed, err := ParseErrorCode(code)
		if err != nil {
			t.Fatalf("ParseErrorCode(%d): %v", code, err)
		}
		if parsed.Kind != Unknown || parsed.Int() != code {
			t.Fatalf("%d should parse to an unknown code keeping %d, not %v", code, code, parsed)
		}
	}

	if _, err := ParseErrorCode(-1); err == nil {
		t.Fatalf("negative codes should be rejected")
	}
}

func TestUnknownErrorCodeBody(t *testing.T) {
	registry := Registry{"error": func() Payload { return &Error{} }}

	env, err := Decode([]byte(`{"src":"seq-kv","dest":"n1","body":{"type":"error","in_reply_to":4,"code":2}}`), registry)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	e := env.Body.Payload.(*Error)
	if e.Code.Kind != Unknown || e.Code.Int() != 2 {
		t.Fatalf("code should be unknown 2, not %v", e.Code)
	}

	data, err := Encode(env)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(string(data), `"code":2`) {
		t.Fatalf("the unknown code should be encoded back, got %s", data)
	}
}

func TestErrorBody(t *testing.T) {
	registry := Registry{"error": func() Payload { return &Error{} }}

	env, err := Decode([]byte(`{"src":"seq-kv","dest":"n1","body":{"type":"error","in_reply_to":4,"code":22,"text":"expected 1, had 2"}}`), registry)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	e := env.Body.Payload.(*Error)
	if e.Code.Kind != PreconditionFailed {
		t.Fatalf("kind should be %s, not %s", PreconditionFailed, e.Code.Kind)
	}

	data, err := Encode(NewEnvelope("n1", "c1", NewError(Crash, "")))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	var out struct {
		Body map[string]interface{} `json:"body"`
	}
	json.Unmarshal(data, &out)
	if out.Body["code"] != float64(13) {
		t.Fatalf("code should be 13, not %v", out.Body["code"])
	}
	if _, ok := out.Body["text"]; ok {
		t.Fatalf("empty text should be omitted")
	}
}

func TestInitPeers(t *testing.T) {
	in := Init{NodeID: "n1", NodeIDs: []NodeID{"n0", "n1", "n2"}}
	if got := in.Peers(); !reflect.DeepEqual(got, []NodeID{"n0", "n2"}) {
		t.Fatalf("peers should be [n0 n2], not %v", got)
	}
}
