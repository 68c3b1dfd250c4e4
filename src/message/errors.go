package message

import (
	"encoding/json"
	"fmt"
)

// ErrorKind is the closed set of error kinds defined by the protocol, plus
// UserDefined for application codes and Unknown for undefined ones.
type ErrorKind uint8

const (
	// Timeout indicates that the requested operation could not be completed
	// within a timeout.
	Timeout ErrorKind = iota
	// NodeNotFound indicates that the destination node does not exist.
	NodeNotFound
	// NotSupported indicates that the request type is not supported.
	NotSupported
	// TemporarilyUnavailable indicates that the operation definitely cannot
	// be performed at this time.
	TemporarilyUnavailable
	// MalformedRequest indicates that the request could not be decoded.
	MalformedRequest
	// Crash indicates that the node failed while processing the request.
	Crash
	// Abort indicates that the operation definitely did not take place.
	Abort
	// KeyDoesNotExist indicates that the key is unknown to the store.
	KeyDoesNotExist
	// KeyExistsAlready indicates that the key already exists.
	KeyExistsAlready
	// PreconditionFailed indicates that a compare-and-swap did not match.
	PreconditionFailed
	// TxnConflict indicates that a transaction conflicted with another.
	TxnConflict
	// UserDefined covers application codes, which start at MinUserCode.
	UserDefined
	// Unknown covers codes below MinUserCode that the protocol does not
	// define. The code is kept so it can be reported.
	Unknown
)

// MinUserCode is the lowest code available to applications.
const MinUserCode = 1000

// String ...
func (k ErrorKind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case NodeNotFound:
		return "node-not-found"
	case NotSupported:
		return "not-supported"
	case TemporarilyUnavailable:
		return "temporarily-unavailable"
	case MalformedRequest:
		return "malformed-request"
	case Crash:
		return "crash"
	case Abort:
		return "abort"
	case KeyDoesNotExist:
		return "key-does-not-exist"
	case KeyExistsAlready:
		return "key-already-exists"
	case PreconditionFailed:
		return "precondition-failed"
	case TxnConflict:
		return "txn-conflict"
	case UserDefined:
		return "user-defined"
	case Unknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// code maps the standard kinds to their wire value.
func (k ErrorKind) code() (int, bool) {
	switch k {
	case Timeout:
		return 0, true
	case NodeNotFound:
		return 1, true
	case NotSupported:
		return 10, true
	case TemporarilyUnavailable:
		return 11, true
	case MalformedRequest:
		return 12, true
	case Crash:
		return 13, true
	case Abort:
		return 14, true
	case KeyDoesNotExist:
		return 20, true
	case KeyExistsAlready:
		return 21, true
	case PreconditionFailed:
		return 22, true
	case TxnConflict:
		return 30, true
	default:
		return 0, false
	}
}

var standardKinds = []ErrorKind{
	Timeout,
	NodeNotFound,
	NotSupported,
	TemporarilyUnavailable,
	MalformedRequest,
	Crash,
	Abort,
	KeyDoesNotExist,
	KeyExistsAlready,
	PreconditionFailed,
	TxnConflict,
}

// ErrorCode is the value of the code field of an error body.
type ErrorCode struct {
	Kind ErrorKind
	raw  int
}

// StandardCode returns the code of a standard kind. It panics when called
// with UserDefined, use UserCode instead.
func StandardCode(kind ErrorKind) ErrorCode {
	if _, ok := kind.code(); !ok {
		panic(fmt.Sprintf("no standard code for error kind %s", kind))
	}
	return ErrorCode{Kind: kind}
}

// UserCode returns an application error code. Codes below MinUserCode are
// reserved by the protocol.
func UserCode(code int) (ErrorCode, error) {
	if code < MinUserCode {
		return ErrorCode{}, fmt.Errorf("user error code %d is below %d", code, MinUserCode)
	}
	return ErrorCode{Kind: UserDefined, raw: code}, nil
}

// ParseErrorCode maps a wire value back to an ErrorCode. Codes below
// MinUserCode that the protocol does not define parse to Unknown, so that
// receivers can still see, and reject, them. Negative codes are invalid.
func ParseErrorCode(code int) (ErrorCode, error) {
	if code < 0 {
		return ErrorCode{}, fmt.Errorf("negative error code %d", code)
	}
	for _, k := range standardKinds {
		if c, _ := k.code(); c == code {
			return ErrorCode{Kind: k}, nil
		}
	}
	if code < MinUserCode {
		return ErrorCode{Kind: Unknown, raw: code}, nil
	}
	return UserCode(code)
}

// Int returns the wire value of the code.
func (c ErrorCode) Int() int {
	if c.Kind == UserDefined || c.Kind == Unknown {
		return c.raw
	}
	code, _ := c.Kind.code()
	return code
}

// String ...
func (c ErrorCode) String() string {
	return fmt.Sprintf("%d (%s)", c.Int(), c.Kind)
}

// MarshalJSON ...
func (c ErrorCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Int())
}

// UnmarshalJSON ...
func (c *ErrorCode) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	code, err := ParseErrorCode(n)
	if err != nil {
		return err
	}
	*c = code
	return nil
}

// Error is the body of an error reply. It doubles as a Go error.
type Error struct {
	Code ErrorCode `json:"code"`
	Text string    `json:"text,omitempty"`
}

// NewError ...
func NewError(kind ErrorKind, text string) *Error {
	return &Error{Code: StandardCode(kind), Text: text}
}

// Type ...
func (Error) Type() string { return "error" }

// Error ...
func (e *Error) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("error %s", e.Code)
	}
	return fmt.Sprintf("error %s: %s", e.Code, e.Text)
}
