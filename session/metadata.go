package session

import (
	"crypto/sha1"
	"fmt"
	"io"

	"github.com/danwils/gobit/peerwire"
)

// OurUtMetadataID is the extension id we advertise for ut_metadata in our
// own extension handshake.
const OurUtMetadataID = 16

const metadataPieceSize = 16 * 1024

// FetchMetadata runs the extension-handshake-then-metadata-pieces exchange,
// returning the raw info-dictionary bytes once every metadata piece has
// arrived and the whole concatenation hashes to infoHash.
func FetchMetadata(conn io.ReadWriter, infoHash [20]byte) ([]byte, error) {
	if _, err := conn.Write(peerwire.NewExtensionHandshake(OurUtMetadataID).Serialize()); err != nil {
		return nil, err
	}

	handshakeMsg, err := peerwire.ReadMessage(conn)
	if err != nil {
		return nil, &peerwire.IoError{Kind: peerwire.UnexpectedEof, Cause: err}
	}
	if handshakeMsg.Type != peerwire.Extension {
		return nil, &peerwire.ProtocolViolation{Expected: "extension handshake", Got: handshakeMsg.Type}
	}

	peerUtID, metadataSize, err := peerwire.ParseExtensionHandshake(handshakeMsg.Payload)
	if err != nil {
		return nil, err
	}

	numPieces := int(metadataSize) / metadataPieceSize
	if int(metadataSize)%metadataPieceSize != 0 {
		numPieces++
	}

	buf := make([]byte, metadataSize)
	for k := 0; k < numPieces; k++ {
		if _, err := conn.Write(peerwire.NewMetadataRequest(peerUtID, k).Serialize()); err != nil {
			return nil, err
		}

		msg, err := peerwire.ReadMessage(conn)
		if err != nil {
			return nil, &peerwire.IoError{Kind: peerwire.UnexpectedEof, Cause: err}
		}
		if msg.Type != peerwire.Extension {
			return nil, &peerwire.ProtocolViolation{Expected: "metadata data message", Got: msg.Type}
		}

		msgType, piece, block, err := peerwire.ParseMetadataMessage(msg.Payload)
		if err != nil {
			return nil, err
		}
		if msgType == peerwire.MetadataReject {
			return nil, fmt.Errorf("session: peer rejected metadata piece %d", k)
		}
		offset := piece * metadataPieceSize
		copy(buf[offset:], block)
	}

	if sha1.Sum(buf) != infoHash {
		return nil, &InfoHashMismatchError{}
	}
	return buf, nil
}
