package torrent

import (
	"crypto/sha1"
	"net"
	"testing"

	"github.com/danwils/gobit/metainfo"
	"github.com/danwils/gobit/peerwire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocksForCoversWholePiece(t *testing.T) {
	inf := metainfo.InfoDict{
		PieceLength: 40,
		Pieces:      make([][20]byte, 1),
		Layout:      metainfo.Layout{SingleFile: true, Length: 40},
	}
	blocks := blocksFor(inf, 0)

	var total int64
	for _, b := range blocks {
		total += b.Length
	}
	assert.EqualValues(t, 40, total)
}

// servePiece accepts one connection, performs the handshake, and scripts
// BitField/Unchoke/Piece replies to satisfy a single-piece download.
func servePiece(t *testing.T, ln net.Listener, infoHash [20]byte, pieceData []byte) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		reply := make([]byte, peerwire.HandshakeSize)
		if _, err := readFull(conn, reply); err != nil {
			return
		}
		h, err := peerwire.ParseHandshake(reply)
		if err != nil || h.InfoHash != infoHash {
			return
		}
		ours := peerwire.NewHandshake(infoHash, [20]byte{9}, false)
		conn.Write(ours.Serialize())

		conn.Write(peerwire.Message{Type: peerwire.BitField, Payload: []byte{0xff}}.Serialize())
		conn.Write(peerwire.NewUnchoke().Serialize())

		msg, err := peerwire.ReadMessage(conn)
		if err != nil || msg.Type != peerwire.Interested {
			return
		}

		for {
			msg, err := peerwire.ReadMessage(conn)
			if err != nil {
				return
			}
			if msg.Type != peerwire.Request {
				return
			}
			index, begin, length, err := peerwire.ParseRequest(msg.Payload)
			if err != nil {
				return
			}
			block := pieceData[begin : begin+length]
			conn.Write(peerwire.NewPiece(index, begin, block).Serialize())
		}
	}()
}

func TestDownloadPieceOverLoopback(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	pieceData := make([]byte, 50)
	for i := range pieceData {
		pieceData[i] = byte(i)
	}
	hash := sha1.Sum(pieceData)

	mi := &metainfo.Metainfo{
		Announce: []byte("http://unused.invalid/announce"),
		Info: metainfo.InfoDict{
			Name:        "x",
			PieceLength: 50,
			Pieces:      [][20]byte{hash},
			Layout:      metainfo.Layout{SingleFile: true, Length: 50},
		},
	}

	servePiece(t, ln, mi.Info.InfoHash(), pieceData)

	peerID := [20]byte{1}
	got, err := DownloadPiece(mi, ln.Addr().String(), 0, peerID)
	require.NoError(t, err)
	assert.Equal(t, pieceData, got)
}
