package peerwire

import (
	"errors"
	"fmt"

	"github.com/danwils/gobit/bencode"
)

// ExtHandshakeSubID is the reserved sub-id for the initial extension
// handshake exchange.
const ExtHandshakeSubID = 0

// MetadataMsgType enumerates ut_metadata message kinds.
type MetadataMsgType int

const (
	MetadataRequest MetadataMsgType = 0
	MetadataData    MetadataMsgType = 1
	MetadataReject  MetadataMsgType = 2
)

// ErrExtensionUnsupported is returned when a peer's extension handshake
// does not advertise a ut_metadata id — the session must not proceed as if
// an id of zero were meaningful.
var ErrExtensionUnsupported = errors.New("peerwire: peer did not advertise ut_metadata")

// NewExtensionHandshake builds the sub-id-0 extension handshake message
// advertising our own ut_metadata id.
func NewExtensionHandshake(ourUtMetadataID uint8) Message {
	m := bencode.NewDict(map[string]*bencode.Item{
		"m": bencode.NewDict(map[string]*bencode.Item{
			"ut_metadata": bencode.NewInt(int64(ourUtMetadataID)),
		}),
	})
	body := bencode.Encode(m)
	payload := make([]byte, 1+len(body))
	payload[0] = ExtHandshakeSubID
	copy(payload[1:], body)
	return Message{Type: Extension, Payload: payload}
}

// ParseExtensionHandshake parses a peer's sub-id-0 extension handshake,
// returning the peer's advertised ut_metadata id and the total metadata
// size it announced. ErrExtensionUnsupported is returned if the "m"
// dictionary omits "ut_metadata" — absence must not be treated as a usable
// zero id.
func ParseExtensionHandshake(payload []byte) (utMetadataID uint8, metadataSize int64, err error) {
	if len(payload) < 1 {
		return 0, 0, fmt.Errorf("peerwire: empty extension payload")
	}
	root, _, err := bencode.Decode(payload[1:], false)
	if err != nil {
		return 0, 0, err
	}
	if root.Kind != bencode.KindDict {
		return 0, 0, fmt.Errorf("peerwire: extension handshake is not a dictionary")
	}
	m, ok := root.Get("m")
	if !ok || m.Kind != bencode.KindDict {
		return 0, 0, fmt.Errorf("peerwire: extension handshake missing \"m\"")
	}
	utItem, ok := m.Get("ut_metadata")
	if !ok {
		return 0, 0, ErrExtensionUnsupported
	}
	utID, err := utItem.Int()
	if err != nil {
		return 0, 0, ErrExtensionUnsupported
	}

	var size int64
	if sizeItem, ok := root.Get("metadata_size"); ok {
		size, _ = sizeItem.Int()
	}
	return uint8(utID), size, nil
}

// NewMetadataRequest builds a ut_metadata request message for the given
// metadata piece index, addressed to the peer's advertised extension id.
func NewMetadataRequest(peerUtMetadataID uint8, piece int) Message {
	body := []byte(fmt.Sprintf("d8:msg_typei0e5:piecei%dee", piece))
	payload := make([]byte, 1+len(body))
	payload[0] = peerUtMetadataID
	copy(payload[1:], body)
	return Message{Type: Extension, Payload: payload}
}

// ParseMetadataMessage parses a ut_metadata data/reject message. For a
// reject, block is nil. For data, block holds the raw metadata bytes that
// immediately follow the bencoded header.
func ParseMetadataMessage(payload []byte) (msgType MetadataMsgType, piece int, block []byte, err error) {
	if len(payload) < 1 {
		return 0, 0, nil, fmt.Errorf("peerwire: empty extension payload")
	}
	body := payload[1:]
	root, n, err := bencode.Decode(body, false)
	if err != nil {
		return 0, 0, nil, err
	}
	if root.Kind != bencode.KindDict {
		return 0, 0, nil, fmt.Errorf("peerwire: metadata message is not a dictionary")
	}
	msgTypeItem, ok := root.Get("msg_type")
	if !ok {
		return 0, 0, nil, fmt.Errorf("peerwire: metadata message missing \"msg_type\"")
	}
	mt, err := msgTypeItem.Int()
	if err != nil {
		return 0, 0, nil, err
	}
	msgType = MetadataMsgType(mt)

	if msgType == MetadataReject {
		return msgType, 0, nil, nil
	}

	pieceItem, ok := root.Get("piece")
	if !ok {
		return 0, 0, nil, fmt.Errorf("peerwire: metadata message missing \"piece\"")
	}
	p, err := pieceItem.Int()
	if err != nil {
		return 0, 0, nil, err
	}
	piece = int(p)

	if msgType == MetadataData {
		block = body[n:]
	}
	return msgType, piece, block, nil
}
