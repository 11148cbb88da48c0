package torrent

import (
	"fmt"

	"github.com/danwils/gobit/metainfo"
	"github.com/danwils/gobit/session"
	"github.com/danwils/gobit/trackerclient"
	"github.com/sirupsen/logrus"
)

// OpenMagnet parses a magnet URI.
func OpenMagnet(uri string) (*metainfo.MagnetLink, error) {
	return metainfo.ParseMagnet(uri)
}

// MagnetPeers announces to the magnet's first tracker; the other trackers
// are not contacted. left is 0 since the total length is unknown before the
// metadata exchange.
func MagnetPeers(link *metainfo.MagnetLink, peerID [20]byte) ([]trackerclient.PeerEndpoint, error) {
	if len(link.Trackers) == 0 {
		return nil, fmt.Errorf("torrent: magnet link has no trackers")
	}
	resp, err := trackerclient.Announce(link.Trackers[0], link.InfoHash, peerID, 0)
	if err != nil {
		return nil, err
	}
	return resp.Peers, nil
}

// FetchMagnetInfo connects to peerAddr with the extension bit set,
// fetches the info dictionary over the ut_metadata sub-protocol, verifies
// it against the magnet's info-hash, and returns the parsed InfoDict. The
// connection is closed before returning, so piece downloads reconnect, as
// DownloadMagnetPiece and DownloadMagnet do.
func FetchMagnetInfo(link *metainfo.MagnetLink, peerAddr string, peerID [20]byte) (*metainfo.InfoDict, error) {
	conn, theirs, err := Connect(peerAddr, link.InfoHash, peerID, true)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if !theirs.SupportsExtensions() {
		return nil, fmt.Errorf("torrent: peer does not support the extension protocol")
	}

	raw, err := session.FetchMetadata(conn, link.InfoHash)
	if err != nil {
		return nil, err
	}

	return metainfo.ParseInfoDict(raw)
}

// DownloadMagnetPiece fetches the info dictionary from peerAddr, then the
// requested piece over a fresh connection to the same peer.
func DownloadMagnetPiece(link *metainfo.MagnetLink, peerAddr string, index int, peerID [20]byte) ([]byte, *metainfo.InfoDict, error) {
	inf, err := FetchMagnetInfo(link, peerAddr, peerID)
	if err != nil {
		return nil, nil, err
	}

	conn, _, err := Connect(peerAddr, link.InfoHash, peerID, true)
	if err != nil {
		return nil, inf, err
	}
	defer conn.Close()

	expectHash := inf.Pieces[index]
	pieceSize := inf.PieceSize(index)
	blocks := blocksFor(*inf, index)

	sess := session.NewPieceSession(conn, index, pieceSize, expectHash, blocks)
	piece, err := sess.Run()
	return piece, inf, err
}

// DownloadMagnet fetches the metadata then every piece in order, following
// the same single-peer sequential model as Download.
func DownloadMagnet(link *metainfo.MagnetLink, peerID [20]byte) ([]byte, error) {
	peers, err := MagnetPeers(link, peerID)
	if err != nil {
		return nil, err
	}
	if len(peers) == 0 {
		return nil, fmt.Errorf("torrent: tracker returned no peers")
	}
	peerAddr := peers[0].String()

	inf, err := FetchMagnetInfo(link, peerAddr, peerID)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, inf.Layout.TotalLength())
	for i := 0; i < inf.PiecesCount(); i++ {
		logrus.WithFields(logrus.Fields{"piece": i, "of": inf.PiecesCount()}).Info("fetching magnet piece")
		conn, _, err := Connect(peerAddr, link.InfoHash, peerID, true)
		if err != nil {
			return nil, fmt.Errorf("torrent: piece %d: %w", i, err)
		}
		expectHash := inf.Pieces[i]
		pieceSize := inf.PieceSize(i)
		blocks := blocksFor(*inf, i)
		sess := session.NewPieceSession(conn, i, pieceSize, expectHash, blocks)
		piece, err := sess.Run()
		conn.Close()
		if err != nil {
			return nil, fmt.Errorf("torrent: piece %d: %w", i, err)
		}
		out = append(out, piece...)
	}
	return out, nil
}
