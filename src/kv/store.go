package kv

import "fmt"

// Store is the storage behind the Service. Values are integers.
type Store interface {
	// Read returns the value of key, or a KeyNotFound StoreErr.
	Read(key string) (int, error)

	// Write sets key to value, creating it if necessary.
	Write(key string, value int) error

	// CompareAndSwap sets key to to if its value is from. A missing key is
	// created with value to when create is set, otherwise a KeyNotFound
	// StoreErr is returned. A PreconditionFailed StoreErr is returned when
	// the current value is not from.
	CompareAndSwap(key string, from, to int, create bool) error

	Close() error
}

func casMismatch(key string, from, current int) error {
	return NewStoreErr(PreconditionFailed, key, fmt.Sprintf("expected %d, but had %d", from, current))
}
