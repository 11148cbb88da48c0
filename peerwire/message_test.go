package peerwire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	cases := []Message{
		NewChoke(),
		NewUnchoke(),
		NewInterested(),
		NewBitField([]byte{0xff, 0x00}),
		NewRequest(1, 2, 16384),
		NewPiece(1, 2, []byte("hello block")),
	}
	for _, want := range cases {
		wire := want.Serialize()
		assert.Equal(t, uint32(len(want.Payload)+1), readLen(wire))

		got, err := ReadMessage(bytes.NewReader(wire))
		require.NoError(t, err)
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.Payload, got.Payload)
	}
}

func readLen(wire []byte) uint32 {
	return uint32(wire[0])<<24 | uint32(wire[1])<<16 | uint32(wire[2])<<8 | uint32(wire[3])
}

func TestReadMessageSkipsKeepAlive(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0}) // keepalive
	buf.Write(NewInterested().Serialize())

	msg, err := ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, Interested, msg.Type)
}

func TestReadMessageUnexpectedEOF(t *testing.T) {
	_, err := ReadMessage(bytes.NewReader([]byte{0, 0, 0, 5, 6}))
	require.Error(t, err)
}

func TestRequestPayloadRoundTrip(t *testing.T) {
	msg := NewRequest(7, 16384, 16384)
	index, begin, length, err := ParseRequest(msg.Payload)
	require.NoError(t, err)
	assert.EqualValues(t, 7, index)
	assert.EqualValues(t, 16384, begin)
	assert.EqualValues(t, 16384, length)
}

func TestPiecePayloadRoundTrip(t *testing.T) {
	block := []byte("some block bytes")
	msg := NewPiece(3, 32768, block)
	index, begin, got, err := ParsePiece(msg.Payload)
	require.NoError(t, err)
	assert.EqualValues(t, 3, index)
	assert.EqualValues(t, 32768, begin)
	assert.Equal(t, block, got)
}
