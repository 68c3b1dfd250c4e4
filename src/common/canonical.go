package common

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// MarshalCanonical returns the JSON encoding of v with map keys sorted, so
// that equal values always produce identical bytes. It is used for state
// snapshots that are compared and served verbatim.
func MarshalCanonical(v interface{}) ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// UnmarshalCanonical decodes data produced by MarshalCanonical into v.
func UnmarshalCanonical(data []byte, v interface{}) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(v)
}
