// Package peerwire implements the BitTorrent peer wire protocol: the
// handshake, length-prefixed message framing, and the id-20 extension
// sub-protocol used for magnet metadata exchange.
package peerwire

import "fmt"

// Protocol is the protocol name advertised in every handshake.
const Protocol = "BitTorrent protocol"

// HandshakeSize is the fixed wire length of a handshake message.
const HandshakeSize = 1 + len(Protocol) + 8 + 20 + 20

// ExtendedBit is reserved-byte-5's extension-protocol capability flag
// (BEP 10).
const ExtendedBit = 0x10

// Handshake is the 68-byte message exchanged before any other traffic.
type Handshake struct {
	Reserved [8]byte
	InfoHash [20]byte
	PeerID   [20]byte
}

// SupportsExtensions reports whether the extension protocol bit is set.
func (h Handshake) SupportsExtensions() bool {
	return h.Reserved[5]&ExtendedBit != 0
}

// Serialize renders a Handshake as the 68-byte wire form.
func (h Handshake) Serialize() []byte {
	buf := make([]byte, HandshakeSize)
	buf[0] = byte(len(Protocol))
	copy(buf[1:], Protocol)
	copy(buf[1+len(Protocol):], h.Reserved[:])
	copy(buf[1+len(Protocol)+8:], h.InfoHash[:])
	copy(buf[1+len(Protocol)+8+20:], h.PeerID[:])
	return buf
}

// ParseHandshake parses the 68-byte wire form back into a Handshake.
func ParseHandshake(buf []byte) (Handshake, error) {
	var h Handshake
	if len(buf) < HandshakeSize {
		return h, fmt.Errorf("peerwire: handshake too short: %d bytes", len(buf))
	}
	protocolLen := int(buf[0])
	if 1+protocolLen+8+20+20 > len(buf) {
		return h, fmt.Errorf("peerwire: handshake protocol length out of range: %d", protocolLen)
	}
	offset := 1 + protocolLen
	copy(h.Reserved[:], buf[offset:offset+8])
	copy(h.InfoHash[:], buf[offset+8:offset+28])
	copy(h.PeerID[:], buf[offset+28:offset+48])
	return h, nil
}

// NewHandshake builds a Handshake for infoHash/peerID, setting the
// extension bit when extended is true.
func NewHandshake(infoHash, peerID [20]byte, extended bool) Handshake {
	h := Handshake{InfoHash: infoHash, PeerID: peerID}
	if extended {
		h.Reserved[5] = ExtendedBit
	}
	return h
}
