package torrent

import (
	"net"
	"time"

	"github.com/danwils/gobit/peerwire"
)

const dialTimeout = 10 * time.Second

// Connect dials addr and performs the wire handshake, returning the open
// connection and the peer's reply. extended advertises the extension
// protocol bit, set iff the download originated from a magnet link.
func Connect(addr string, infoHash, peerID [20]byte, extended bool) (net.Conn, peerwire.Handshake, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, peerwire.Handshake{}, &peerwire.IoError{Kind: peerwire.ConnectionRefused, Cause: err}
	}

	ours := peerwire.NewHandshake(infoHash, peerID, extended)
	if _, err := conn.Write(ours.Serialize()); err != nil {
		conn.Close()
		return nil, peerwire.Handshake{}, err
	}

	reply := make([]byte, peerwire.HandshakeSize)
	if _, err := readFull(conn, reply); err != nil {
		conn.Close()
		return nil, peerwire.Handshake{}, &peerwire.IoError{Kind: peerwire.UnexpectedEof, Cause: err}
	}

	theirs, err := peerwire.ParseHandshake(reply)
	if err != nil {
		conn.Close()
		return nil, peerwire.Handshake{}, err
	}
	if theirs.InfoHash != infoHash {
		conn.Close()
		return nil, peerwire.Handshake{}, &peerwire.ProtocolViolation{Expected: "matching info hash", Got: 0}
	}

	return conn, theirs, nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
