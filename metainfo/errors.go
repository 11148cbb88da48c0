package metainfo

import "fmt"

// MetainfoErrorKind enumerates the ways a .torrent file can fail validation.
type MetainfoErrorKind int

const (
	MissingField MetainfoErrorKind = iota
	BadType
	PiecesLengthNotMultiple20
	InconsistentLength
)

// MetainfoError reports a metainfo validation failure, naming the field that
// triggered it.
type MetainfoError struct {
	Kind  MetainfoErrorKind
	Field string
}

func (e *MetainfoError) Error() string {
	switch e.Kind {
	case MissingField:
		return fmt.Sprintf("metainfo: missing field %q", e.Field)
	case BadType:
		return fmt.Sprintf("metainfo: field %q has the wrong bencode type", e.Field)
	case PiecesLengthNotMultiple20:
		return "metainfo: info.pieces length is not a multiple of 20"
	case InconsistentLength:
		return fmt.Sprintf("metainfo: %s", e.Field)
	default:
		return "metainfo: invalid"
	}
}

// MagnetErrorKind enumerates the ways a magnet URI can fail to parse.
type MagnetErrorKind int

const (
	MalformedURI MagnetErrorKind = iota
	MissingXt
	BadInfoHashEncoding
)

// MagnetError reports a magnet link parse failure.
type MagnetError struct {
	Kind   MagnetErrorKind
	Detail string
}

func (e *MagnetError) Error() string {
	switch e.Kind {
	case MalformedURI:
		return fmt.Sprintf("magnet: malformed uri: %s", e.Detail)
	case MissingXt:
		return "magnet: missing 'xt' parameter"
	case BadInfoHashEncoding:
		return fmt.Sprintf("magnet: bad info-hash encoding: %s", e.Detail)
	default:
		return "magnet: invalid"
	}
}
