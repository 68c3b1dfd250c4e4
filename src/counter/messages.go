package counter

import (
	"github.com/mosaicnetworks/glomers/src/kv"
	"github.com/mosaicnetworks/glomers/src/message"
)

// Add increments the counter by Delta.
type Add struct {
	Delta int `json:"delta"`
}

// Type ...
func (Add) Type() string { return "add" }

// AddOk ...
type AddOk struct{}

// Type ...
func (AddOk) Type() string { return "add_ok" }

// Read asks for the value of the counter. It is answered with a kv.ReadOk.
type Read struct{}

// Type ...
func (Read) Type() string { return "read" }

// Registry returns the client requests and the key-value replies handled by
// the Engine.
func Registry() message.Registry {
	return message.Registry{
		"add":     func() message.Payload { return &Add{} },
		"read":    func() message.Payload { return &Read{} },
		"read_ok": func() message.Payload { return &kv.ReadOk{} },
		"cas_ok":  func() message.Payload { return &kv.CasOk{} },
		"error":   func() message.Payload { return &message.Error{} },
	}
}
