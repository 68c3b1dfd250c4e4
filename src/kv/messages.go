package kv

import "github.com/mosaicnetworks/glomers/src/message"

// Read requests the value of Key.
type Read struct {
	Key string `json:"key"`
}

// Type ...
func (Read) Type() string { return "read" }

// ReadOk carries the value of a key.
type ReadOk struct {
	Value int `json:"value"`
}

// Type ...
func (ReadOk) Type() string { return "read_ok" }

// Write sets Key to Value.
type Write struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

// Type ...
func (Write) Type() string { return "write" }

// WriteOk ...
type WriteOk struct{}

// Type ...
func (WriteOk) Type() string { return "write_ok" }

// Cas sets Key to To if its current value is From. If the key does not exist
// and CreateIfNotExists is set, the key is created with value To.
type Cas struct {
	Key               string `json:"key"`
	From              int    `json:"from"`
	To                int    `json:"to"`
	CreateIfNotExists bool   `json:"create_if_not_exists,omitempty"`
}

// Type ...
func (Cas) Type() string { return "cas" }

// CasOk ...
type CasOk struct{}

// Type ...
func (CasOk) Type() string { return "cas_ok" }

// Registry returns the requests served by the Service.
func Registry() message.Registry {
	return message.Registry{
		"read":  func() message.Payload { return &Read{} },
		"write": func() message.Payload { return &Write{} },
		"cas":   func() message.Payload { return &Cas{} },
	}
}
