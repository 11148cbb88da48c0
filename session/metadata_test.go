package session

import (
	"bytes"
	"crypto/sha1"
	"strconv"
	"testing"

	"github.com/danwils/gobit/peerwire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMetadataAssemblesAndVerifies(t *testing.T) {
	info := bytes.Repeat([]byte{0xAB}, metadataPieceSize+100)
	infoHash := sha1.Sum(info)

	peerUtID := uint8(7)
	var script bytes.Buffer
	script.Write(peerExtensionHandshake(peerUtID, len(info)))

	// two metadata pieces: full 16KiB, then the 100-byte remainder
	script.Write(metadataDataMessage(t, peerUtID, 0, info[:metadataPieceSize]))
	script.Write(metadataDataMessage(t, peerUtID, 1, info[metadataPieceSize:]))

	conn := &scriptedConn{reads: &script}
	got, err := FetchMetadata(conn, infoHash)
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestFetchMetadataRejectsBadHash(t *testing.T) {
	info := bytes.Repeat([]byte{0xCD}, 50)
	var script bytes.Buffer
	script.Write(peerExtensionHandshake(3, len(info)))
	script.Write(metadataDataMessage(t, 3, 0, info))

	conn := &scriptedConn{reads: &script}
	_, err := FetchMetadata(conn, [20]byte{9, 9, 9})
	require.Error(t, err)
	var mismatch *InfoHashMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestFetchMetadataRejectsMissingUtMetadata(t *testing.T) {
	var script bytes.Buffer
	payload := append([]byte{0}, []byte("d1:md2:xxi1eee")...)
	script.Write(peerwire.Message{Type: peerwire.Extension, Payload: payload}.Serialize())

	conn := &scriptedConn{reads: &script}
	_, err := FetchMetadata(conn, [20]byte{})
	require.ErrorIs(t, err, peerwire.ErrExtensionUnsupported)
}

// peerExtensionHandshake builds the scripted peer's reply to our extension
// handshake, advertising utID and the total metadata size.
func peerExtensionHandshake(utID uint8, metadataSize int) []byte {
	body := []byte("d1:md11:ut_metadatai" + strconv.Itoa(int(utID)) + "ee13:metadata_sizei" + strconv.Itoa(metadataSize) + "ee")
	payload := make([]byte, 1+len(body))
	copy(payload[1:], body)
	return peerwire.Message{Type: peerwire.Extension, Payload: payload}.Serialize()
}

// metadataDataMessage builds a wire-ready extension message carrying one
// ut_metadata "data" reply for the given piece index.
func metadataDataMessage(t *testing.T, peerUtID uint8, piece int, block []byte) []byte {
	t.Helper()
	header := []byte("d8:msg_typei1e5:piecei" + strconv.Itoa(piece) + "e10:total_sizei" + strconv.Itoa(len(block)) + "ee")
	payload := make([]byte, 1+len(header)+len(block))
	payload[0] = peerUtID
	copy(payload[1:], header)
	copy(payload[1+len(header):], block)
	return peerwire.Message{Type: peerwire.Extension, Payload: payload}.Serialize()
}
