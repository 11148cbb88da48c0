// Package session implements the per-peer-connection state machine that
// drives a single piece (or, for magnet sources, the metadata) to
// completion over an already-handshaken connection.
package session

import "fmt"

// PieceHashMismatch is returned when a completed piece's SHA-1 does not
// match the metainfo's recorded hash for that index. The piece is never
// written out in this case.
type PieceHashMismatch struct {
	Index int
}

func (e *PieceHashMismatch) Error() string {
	return fmt.Sprintf("session: piece %d failed hash verification", e.Index)
}

// InfoHashMismatchError is returned when a magnet's fetched metadata hashes
// to something other than the magnet's advertised info-hash: this aborts
// before any piece download begins.
type InfoHashMismatchError struct{}

func (e *InfoHashMismatchError) Error() string {
	return "session: fetched metadata does not match magnet info-hash"
}
