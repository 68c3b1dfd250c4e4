package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

const (
	typeField      = "type"
	msgIDField     = "msg_id"
	inReplyToField = "in_reply_to"
)

var (
	// ErrMissingRouting is returned when src, dest or body are absent.
	ErrMissingRouting = errors.New("missing routing fields")

	// ErrMissingType is returned when the body has no type tag.
	ErrMissingType = errors.New("missing body type")
)

// UnknownTypeError is returned by Decode when the body type is not part of
// the Registry.
type UnknownTypeError struct {
	Type string
}

// Error ...
func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown message type %q", e.Type)
}

// MissingFieldError is returned by Decode when a field of the payload that is
// not tagged omitempty is absent from the body.
type MissingFieldError struct {
	Type  string
	Field string
}

// Error ...
func (e MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q in %s", e.Field, e.Type)
}

// Registry maps body type tags to constructors of the corresponding payload.
// Constructors must return pointers so the payload can be decoded in place.
// The set of tags is closed: any other tag fails to decode.
type Registry map[string]func() Payload

// Merge returns a new Registry containing the entries of r and other. Entries
// of other take precedence.
func (r Registry) Merge(other Registry) Registry {
	res := make(Registry, len(r)+len(other))
	for k, v := range r {
		res[k] = v
	}
	for k, v := range other {
		res[k] = v
	}
	return res
}

type wireEnvelope struct {
	Src  NodeID          `json:"src"`
	Dest NodeID          `json:"dest"`
	Body json.RawMessage `json:"body"`
}

type wireBody struct {
	Type      string `json:"type"`
	MsgID     *MsgID `json:"msg_id"`
	InReplyTo *MsgID `json:"in_reply_to"`
}

// Encode returns the JSON encoding of e, without the trailing newline.
func Encode(e *Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses one line into an Envelope whose payload is chosen by the body
// type in the Registry. Unknown types and missing required fields are decode
// errors.
func Decode(data []byte, registry Registry) (*Envelope, error) {
	env, fields, err := decodeRouting(data)
	if err != nil {
		return nil, err
	}

	if env.typ == "" {
		return nil, ErrMissingType
	}

	newPayload, ok := registry[env.typ]
	if !ok {
		return nil, UnknownTypeError{Type: env.typ}
	}

	payload := newPayload()

	for _, name := range requiredFields(payload) {
		if _, ok := fields[name]; !ok {
			return nil, MissingFieldError{Type: env.typ, Field: name}
		}
	}

	if err := json.Unmarshal(env.rawBody, payload); err != nil {
		return nil, fmt.Errorf("decoding %s body: %w", env.typ, err)
	}

	env.Envelope.Body.Payload = payload

	return &env.Envelope, nil
}

// DecodeRouting extracts the routing fields (src, dest, msg_id and
// in_reply_to) of a line, ignoring the payload. The returned Envelope has a
// nil Payload. It is used to answer requests that Decode rejected.
func DecodeRouting(data []byte) (*Envelope, error) {
	env, _, err := decodeRouting(data)
	if err != nil {
		return nil, err
	}
	return &env.Envelope, nil
}

// BodyType returns the type tag of a line, or an empty string when the line
// cannot be routed.
func BodyType(data []byte) string {
	env, _, err := decodeRouting(data)
	if err != nil {
		return ""
	}
	return env.typ
}

type routedEnvelope struct {
	Envelope
	typ     string
	rawBody json.RawMessage
}

func decodeRouting(data []byte) (*routedEnvelope, map[string]json.RawMessage, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, nil, err
	}

	if wire.Src == "" || wire.Dest == "" || len(wire.Body) == 0 {
		return nil, nil, ErrMissingRouting
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(wire.Body, &fields); err != nil {
		return nil, nil, fmt.Errorf("decoding body: %w", err)
	}
	if fields == nil {
		return nil, nil, ErrMissingRouting
	}

	var body wireBody
	if err := json.Unmarshal(wire.Body, &body); err != nil {
		return nil, nil, fmt.Errorf("decoding body header: %w", err)
	}

	env := &routedEnvelope{
		Envelope: Envelope{
			Src:  wire.Src,
			Dest: wire.Dest,
			Body: Body{
				MsgID:     body.MsgID,
				InReplyTo: body.InReplyTo,
			},
		},
		typ:     body.Type,
		rawBody: wire.Body,
	}

	return env, fields, nil
}

var requiredCache sync.Map

// requiredFields lists the JSON names of the payload's exported fields that
// are not tagged omitempty.
func requiredFields(p Payload) []string {
	t := reflect.TypeOf(p)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if cached, ok := requiredCache.Load(t); ok {
		return cached.([]string)
	}

	var res []string
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" || f.Anonymous {
				continue
			}
			tag := f.Tag.Get("json")
			if tag == "-" {
				continue
			}
			parts := strings.Split(tag, ",")
			name := parts[0]
			if name == "" {
				name = f.Name
			}
			omit := false
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					omit = true
				}
			}
			if !omit {
				res = append(res, name)
			}
		}
	}

	requiredCache.Store(t, res)

	return res
}
