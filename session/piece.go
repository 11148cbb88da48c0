package session

import (
	"crypto/sha1"
	"io"

	"github.com/danwils/gobit/peerwire"
	"github.com/sirupsen/logrus"
)

// State names the session's position in the piece-download state machine.
type State int

const (
	AwaitingBitField State = iota
	AwaitingUnchoke
	AwaitingPieceBlock
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingBitField:
		return "AwaitingBitField"
	case AwaitingUnchoke:
		return "AwaitingUnchoke"
	case AwaitingPieceBlock:
		return "AwaitingPieceBlock"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Block is a (offset, length) sub-range of a piece to request from the
// peer; callers derive these from their metainfo's piece geometry.
type Block struct {
	Offset int64
	Length int64
}

// received records one accepted Piece message's placement within the
// buffer.
type received struct {
	offset int64
	length int64
}

// PieceSession drives the message exchange to fetch one piece over an
// already-handshaken connection.
type PieceSession struct {
	conn       io.ReadWriter
	index      int
	pieceSize  int64
	blocks     []Block
	expectHash [20]byte

	state   State
	buffer  []byte
	pending []received
}

// NewPieceSession constructs a session for the given piece index, size,
// expected hash, and pre-computed block layout.
func NewPieceSession(conn io.ReadWriter, index int, pieceSize int64, expectHash [20]byte, blocks []Block) *PieceSession {
	return &PieceSession{
		conn:       conn,
		index:      index,
		pieceSize:  pieceSize,
		blocks:     blocks,
		expectHash: expectHash,
		state:      AwaitingBitField,
		buffer:     make([]byte, pieceSize),
	}
}

// Run drives the state machine to completion, returning the verified piece
// bytes or an error.
func (s *PieceSession) Run() ([]byte, error) {
	for s.state != Done {
		msg, err := peerwire.ReadMessage(s.conn)
		if err != nil {
			return nil, &peerwire.IoError{Kind: peerwire.UnexpectedEof, Cause: err}
		}
		if err := s.handle(msg); err != nil {
			return nil, err
		}
	}

	sum := sha1.Sum(s.buffer)
	if sum != s.expectHash {
		return nil, &PieceHashMismatch{Index: s.index}
	}
	return s.buffer, nil
}

func (s *PieceSession) handle(msg *peerwire.Message) error {
	switch s.state {
	case AwaitingBitField:
		if msg.Type != peerwire.BitField {
			return &peerwire.ProtocolViolation{Expected: s.state.String(), Got: msg.Type}
		}
		if _, err := s.conn.Write(peerwire.NewInterested().Serialize()); err != nil {
			return err
		}
		s.state = AwaitingUnchoke
		return nil

	case AwaitingUnchoke:
		if msg.Type != peerwire.Unchoke {
			return &peerwire.ProtocolViolation{Expected: s.state.String(), Got: msg.Type}
		}
		for _, b := range s.blocks {
			req := peerwire.NewRequest(uint32(s.index), uint32(b.Offset), uint32(b.Length))
			if _, err := s.conn.Write(req.Serialize()); err != nil {
				return err
			}
		}
		s.state = AwaitingPieceBlock
		return nil

	case AwaitingPieceBlock:
		if msg.Type != peerwire.Piece {
			return &peerwire.ProtocolViolation{Expected: s.state.String(), Got: msg.Type}
		}
		index, begin, data, err := peerwire.ParsePiece(msg.Payload)
		if err != nil {
			return err
		}
		if int(index) != s.index {
			logrus.WithFields(logrus.Fields{"want": s.index, "got": index}).Warn("discarding piece block for a different index")
			return nil
		}
		if int64(begin)+int64(len(data)) > s.pieceSize {
			return &peerwire.ProtocolViolation{Expected: "block within piece bounds", Got: msg.Type}
		}
		copy(s.buffer[begin:], data)
		s.pending = append(s.pending, received{offset: int64(begin), length: int64(len(data))})

		if s.receivedTotal() == s.pieceSize {
			s.state = Done
		}
		return nil
	}
	return nil
}

func (s *PieceSession) receivedTotal() int64 {
	var total int64
	for _, b := range s.pending {
		total += b.length
	}
	return total
}
