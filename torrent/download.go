// Package torrent wires together bencode, metainfo, trackerclient,
// peerwire, and session into the single-peer, sequential download
// orchestration described by the core: resolve a source to peers and
// geometry, then fetch pieces one at a time over one connection each.
package torrent

import (
	"fmt"
	"os"

	"github.com/danwils/gobit/metainfo"
	"github.com/danwils/gobit/session"
	"github.com/danwils/gobit/trackerclient"
	"github.com/sirupsen/logrus"
)

// OpenMetainfo reads and parses a .torrent file from disk.
func OpenMetainfo(path string) (*metainfo.Metainfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return metainfo.ParseMetainfo(data)
}

// Peers announces to the torrent's tracker and returns the peer list.
func Peers(mi *metainfo.Metainfo, peerID [20]byte) ([]trackerclient.PeerEndpoint, error) {
	infoHash := mi.Info.InfoHash()
	resp, err := trackerclient.Announce(string(mi.Announce), infoHash, peerID, mi.Info.Layout.TotalLength())
	if err != nil {
		return nil, err
	}
	return resp.Peers, nil
}

func blocksFor(inf metainfo.InfoDict, index int) []session.Block {
	n := inf.BlocksCount(index)
	blocks := make([]session.Block, n)
	for j := 0; j < n; j++ {
		b := inf.BlockAt(index, j)
		blocks[j] = session.Block{Offset: b.Offset, Length: b.Length}
	}
	return blocks
}

// DownloadPiece connects to peerAddr, performs the handshake, and fetches
// a single piece.
func DownloadPiece(mi *metainfo.Metainfo, peerAddr string, index int, peerID [20]byte) ([]byte, error) {
	infoHash := mi.Info.InfoHash()
	conn, _, err := Connect(peerAddr, infoHash, peerID, false)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	expectHash := mi.Info.Pieces[index]
	pieceSize := mi.Info.PieceSize(index)
	blocks := blocksFor(mi.Info, index)

	sess := session.NewPieceSession(conn, index, pieceSize, expectHash, blocks)
	return sess.Run()
}

// Download fetches every piece of mi in order over the first announced
// peer, reconnecting fresh for each piece, and returns the assembled file
// bytes. No partial output is returned on failure.
func Download(mi *metainfo.Metainfo, peerID [20]byte) ([]byte, error) {
	peers, err := Peers(mi, peerID)
	if err != nil {
		return nil, err
	}
	if len(peers) == 0 {
		return nil, fmt.Errorf("torrent: tracker returned no peers")
	}
	peerAddr := peers[0].String()

	total := mi.Info.Layout.TotalLength()
	out := make([]byte, 0, total)

	for i := 0; i < mi.Info.PiecesCount(); i++ {
		logrus.WithFields(logrus.Fields{"piece": i, "of": mi.Info.PiecesCount()}).Info("fetching piece")
		piece, err := DownloadPiece(mi, peerAddr, i, peerID)
		if err != nil {
			return nil, fmt.Errorf("torrent: piece %d: %w", i, err)
		}
		out = append(out, piece...)
	}
	return out, nil
}
