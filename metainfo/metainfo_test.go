package metainfo

import (
	"crypto/sha1"
	"testing"

	"github.com/danwils/gobit/bencode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSingleFileTorrent constructs the raw bencode bytes of a single-file
// .torrent: announce http://127.0.0.1:44381/announce, length 2097152, piece
// length 262144, 8 piece hashes.
func buildSingleFileTorrent() []byte {
	pieces := make([]byte, 0, 20*8)
	for i := 0; i < 8; i++ {
		piece := make([]byte, 20)
		for j := range piece {
			piece[j] = byte(i*20 + j)
		}
		pieces = append(pieces, piece...)
	}

	var buf []byte
	buf = append(buf, []byte("d8:announce31:http://127.0.0.1:44381/announce4:infod6:lengthi2097152e4:name9:test.file12:piece lengthi262144e6:pieces")...)
	buf = append(buf, []byte("160:")...)
	buf = append(buf, pieces...)
	buf = append(buf, []byte("ee")...)
	return buf
}

func TestParseMetainfoSingleFile(t *testing.T) {
	raw := buildSingleFileTorrent()
	mi, err := ParseMetainfo(raw)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:44381/announce", string(mi.Announce))
	assert.Equal(t, "test.file", mi.Info.Name)
	assert.EqualValues(t, 262144, mi.Info.PieceLength)
	assert.True(t, mi.Info.Layout.SingleFile)
	assert.EqualValues(t, 2097152, mi.Info.Layout.Length)
	assert.Len(t, mi.Info.Pieces, 8)
	assert.False(t, mi.Info.Multi())
}

// Hashing the exact decoded info token must equal hashing the same bytes
// directly, independent of tree re-serialization.
func TestInfoHashMatchesRawInfoBencode(t *testing.T) {
	raw := buildSingleFileTorrent()
	mi, err := ParseMetainfo(raw)
	require.NoError(t, err)

	root, _, err := bencode.Decode(raw, false)
	require.NoError(t, err)
	infoItem, ok := root.Get("info")
	require.True(t, ok)

	want := sha1.Sum(infoItem.Raw)
	assert.Equal(t, want, mi.Info.InfoHash())
}

func TestConstructedInfoDictHashesCanonicalEncoding(t *testing.T) {
	inf := InfoDict{
		Name:        "x",
		PieceLength: 16384,
		Pieces:      [][20]byte{{1, 2, 3}},
		Layout:      Layout{SingleFile: true, Length: 16384},
	}
	h1 := inf.InfoHash()
	h2 := inf.InfoHash()
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, [20]byte{}, h1)
}

func TestParseMetainfoRejectsMissingAnnounce(t *testing.T) {
	_, err := ParseMetainfo([]byte("d4:infod6:lengthi1e4:name1:x12:piece lengthi1e6:pieces0:ee"))
	require.Error(t, err)
	var mErr *MetainfoError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, MissingField, mErr.Kind)
}

func TestParseMetainfoRejectsBadPiecesLength(t *testing.T) {
	_, err := ParseMetainfo([]byte("d8:announce1:a4:infod6:lengthi1e4:name1:x12:piece lengthi1e6:pieces3:abcee"))
	require.Error(t, err)
	var mErr *MetainfoError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, PiecesLengthNotMultiple20, mErr.Kind)
}

func TestParseMetainfoRejectsLengthAndFilesTogether(t *testing.T) {
	raw := []byte("d8:announce1:a4:infod6:lengthi1e4:name1:x5:filesle12:piece lengthi1e6:pieces0:ee")
	_, err := ParseMetainfo(raw)
	require.Error(t, err)
	var mErr *MetainfoError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, InconsistentLength, mErr.Kind)
}

func TestParseMetainfoMultiFile(t *testing.T) {
	raw := []byte("d8:announce1:a4:infod4:name1:x12:piece lengthi10e6:pieces20:" +
		string(make([]byte, 20)) +
		"5:filesld6:lengthi5e4:pathl1:a1:beed6:lengthi5e4:pathl1:ceeeee")
	mi, err := ParseMetainfo(raw)
	require.NoError(t, err)
	require.True(t, mi.Info.Multi())
	require.Len(t, mi.Info.Layout.Files, 2)
	assert.Equal(t, []string{"a", "b"}, mi.Info.Layout.Files[0].Path)
	assert.EqualValues(t, 10, mi.Info.Layout.TotalLength())
}
