package peerwire

import "fmt"

// ProtocolViolation reports a message arriving in a state that did not
// expect it. Unexpected messages are a hard failure, never silently skipped.
type ProtocolViolation struct {
	Expected string
	Got      MessageType
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("peerwire: protocol violation: expected %s, got message id %d", e.Expected, e.Got)
}

// IoErrorKind enumerates the ways a peer socket operation can fail.
type IoErrorKind int

const (
	ConnectionRefused IoErrorKind = iota
	UnexpectedEof
	Timeout
)

// IoError reports a peer connection failure.
type IoError struct {
	Kind  IoErrorKind
	Cause error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("peerwire: io error (%d): %v", e.Kind, e.Cause)
}

func (e *IoError) Unwrap() error {
	return e.Cause
}
