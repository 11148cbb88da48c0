package peerwire

import (
	"encoding/binary"
	"io"
)

// MessageType is the single-byte id prefixing every non-keepalive message.
type MessageType uint8

const (
	Choke MessageType = iota
	Unchoke
	Interested
	NotInterested
	Have
	BitField
	Request
	Piece
	Cancel
	Extension MessageType = 20
)

// Message is a parsed peer wire message. KeepAlive frames have no Message
// form: ReadMessage consumes them and returns the next real message.
type Message struct {
	Type    MessageType
	Payload []byte
}

// Serialize renders a Message with its 4-byte big-endian length prefix:
// the prefix equals 1+len(Payload).
func (m Message) Serialize() []byte {
	length := uint32(len(m.Payload) + 1)
	buf := make([]byte, 4+length)
	binary.BigEndian.PutUint32(buf, length)
	buf[4] = byte(m.Type)
	copy(buf[5:], m.Payload)
	return buf
}

// ReadMessage reads one message from r, transparently consuming and
// skipping KeepAlive frames (a zero length prefix) until a real message
// arrives. A short read on the length prefix or payload is reported as
// io.ErrUnexpectedEOF via the underlying io.ReadFull error.
func ReadMessage(r io.Reader) (*Message, error) {
	lenBuf := make([]byte, 4)
	for {
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			return nil, err
		}
		length := binary.BigEndian.Uint32(lenBuf)
		if length == 0 {
			continue
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return &Message{Type: MessageType(body[0]), Payload: body[1:]}, nil
	}
}

// NewChoke, NewUnchoke, and NewInterested build the empty-payload control
// messages.
func NewChoke() Message      { return Message{Type: Choke} }
func NewUnchoke() Message    { return Message{Type: Unchoke} }
func NewInterested() Message { return Message{Type: Interested} }

// NewBitField wraps a raw bitmap payload (MSB-first per byte) as a
// BitField message.
func NewBitField(bitmap []byte) Message {
	return Message{Type: BitField, Payload: bitmap}
}

// NewRequest builds a Request message for the given piece index, byte
// offset within the piece, and block length.
func NewRequest(index, begin, length uint32) Message {
	payload := make([]byte, 12)
	binary.BigEndian.PutUint32(payload[0:], index)
	binary.BigEndian.PutUint32(payload[4:], begin)
	binary.BigEndian.PutUint32(payload[8:], length)
	return Message{Type: Request, Payload: payload}
}

// ParseRequest extracts the three u32 fields of a Request payload.
func ParseRequest(payload []byte) (index, begin, length uint32, err error) {
	if len(payload) < 12 {
		return 0, 0, 0, io.ErrUnexpectedEOF
	}
	index = binary.BigEndian.Uint32(payload[0:])
	begin = binary.BigEndian.Uint32(payload[4:])
	length = binary.BigEndian.Uint32(payload[8:])
	return
}

// NewPiece builds a Piece message carrying a block of data.
func NewPiece(index, begin uint32, block []byte) Message {
	payload := make([]byte, 8+len(block))
	binary.BigEndian.PutUint32(payload[0:], index)
	binary.BigEndian.PutUint32(payload[4:], begin)
	copy(payload[8:], block)
	return Message{Type: Piece, Payload: payload}
}

// ParsePiece extracts the piece index, block offset, and block bytes from
// a Piece payload.
func ParsePiece(payload []byte) (index, begin uint32, block []byte, err error) {
	if len(payload) < 8 {
		return 0, 0, nil, io.ErrUnexpectedEOF
	}
	index = binary.BigEndian.Uint32(payload[0:])
	begin = binary.BigEndian.Uint32(payload[4:])
	block = payload[8:]
	return
}
