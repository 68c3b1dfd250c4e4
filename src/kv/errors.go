package kv

import (
	"errors"
	"fmt"

	"github.com/mosaicnetworks/glomers/src/message"
)

// StoreErrType ...
type StoreErrType uint32

const (
	// KeyNotFound ...
	KeyNotFound StoreErrType = iota
	// PreconditionFailed ...
	PreconditionFailed
	// KeyAlreadyExists ...
	KeyAlreadyExists
)

// StoreErr is returned by Stores for the failures that the protocol reports
// with a dedicated error code.
type StoreErr struct {
	errType StoreErrType
	key     string
	detail  string
}

// NewStoreErr ...
func NewStoreErr(errType StoreErrType, key string, detail string) StoreErr {
	return StoreErr{
		errType: errType,
		key:     key,
		detail:  detail,
	}
}

// Error ...
func (e StoreErr) Error() string {
	m := ""
	switch e.errType {
	case KeyNotFound:
		m = "key does not exist"
	case PreconditionFailed:
		m = "precondition failed"
	case KeyAlreadyExists:
		m = "key already exists"
	}

	if e.detail != "" {
		return fmt.Sprintf("%s: %s, %s", e.key, m, e.detail)
	}
	return fmt.Sprintf("%s: %s", e.key, m)
}

// Kind maps the error to the protocol's error kind.
func (e StoreErr) Kind() message.ErrorKind {
	switch e.errType {
	case KeyNotFound:
		return message.KeyDoesNotExist
	case PreconditionFailed:
		return message.PreconditionFailed
	case KeyAlreadyExists:
		return message.KeyExistsAlready
	default:
		return message.Crash
	}
}

// IsStore checks that an error is of type StoreErr and that it's code matches
// the provided StoreErr code.
func IsStore(err error, t StoreErrType) bool {
	var storeErr StoreErr
	return asStoreErr(err, &storeErr) && storeErr.errType == t
}

func asStoreErr(err error, target *StoreErr) bool {
	return errors.As(err, target)
}
