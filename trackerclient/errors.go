package trackerclient

import "fmt"

// ErrorKind enumerates the ways an announce can fail.
type ErrorKind int

const (
	HttpFailure ErrorKind = iota
	DecodeFailure
	TrackerFailure
	BadPeersField
)

// Error reports a tracker announce failure.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	switch e.Kind {
	case HttpFailure:
		return fmt.Sprintf("trackerclient: http failure: %s", e.Detail)
	case DecodeFailure:
		return fmt.Sprintf("trackerclient: decode failure: %s", e.Detail)
	case TrackerFailure:
		return fmt.Sprintf("trackerclient: tracker reported failure: %s", e.Detail)
	case BadPeersField:
		return fmt.Sprintf("trackerclient: invalid peers field: %s", e.Detail)
	default:
		return "trackerclient: invalid"
	}
}
