package peerwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionHandshakeRoundTrip(t *testing.T) {
	msg := NewExtensionHandshake(16)
	assert.Equal(t, Extension, msg.Type)
	assert.Equal(t, uint8(ExtHandshakeSubID), msg.Payload[0])

	peerReply := append([]byte{0}, []byte("d1:md11:ut_metadatai16ee13:metadata_sizei1024ee")...)
	id, size, err := ParseExtensionHandshake(peerReply)
	require.NoError(t, err)
	assert.EqualValues(t, 16, id)
	assert.EqualValues(t, 1024, size)
}

func TestParseExtensionHandshakeMissingUtMetadata(t *testing.T) {
	payload := append([]byte{0}, []byte("d1:md2:xxi1eee")...)
	_, _, err := ParseExtensionHandshake(payload)
	require.ErrorIs(t, err, ErrExtensionUnsupported)
}

func TestMetadataRequestAndDataRoundTrip(t *testing.T) {
	req := NewMetadataRequest(16, 0)
	assert.Equal(t, Extension, req.Type)
	assert.Equal(t, uint8(16), req.Payload[0])

	infoBytes := []byte("some raw info dict bytes")
	header := []byte("d8:msg_typei1e5:piecei0e10:total_sizei123ee")
	payload := append([]byte{0}, append(header, infoBytes...)...)

	msgType, piece, block, err := ParseMetadataMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, MetadataData, msgType)
	assert.Equal(t, 0, piece)
	assert.Equal(t, infoBytes, block)
}

func TestMetadataRejectMessage(t *testing.T) {
	payload := append([]byte{0}, []byte("d8:msg_typei2ee")...)
	msgType, _, block, err := ParseMetadataMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, MetadataReject, msgType)
	assert.Nil(t, block)
}
