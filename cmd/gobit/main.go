// Command gobit is a minimal BitTorrent client exposing the protocol's
// individual steps (decode, info, peers, handshake, piece download, full
// download) as separate subcommands, for both .torrent files and magnet
// links.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/danwils/gobit/bencode"
	"github.com/danwils/gobit/metainfo"
	"github.com/danwils/gobit/peerwire"
	"github.com/danwils/gobit/session"
	"github.com/danwils/gobit/torrent"
	"github.com/danwils/gobit/trackerclient"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// clientPeerIDSeed is the process-wide, fixed 20-byte printable peer id
// seed (a "fixed 20-byte printable ASCII string chosen at client init").
const clientPeerIDSeed = "00112233445566778899"

func usage() {
	fmt.Fprintf(os.Stderr, `%s <command> [args]

commands:
  decode <bencoded-string>
  info <path>
  peers <path>
  handshake <path> <ip:port>
  download_piece [-o out] <path> <index>
  download [-o out] <path>
  magnet_parse <uri>
  magnet_handshake <uri>
  magnet_info <uri>
  magnet_download_piece [-o out] <uri> <index>
  magnet_download [-o out] <uri>
`, os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "decode":
		err = cmdDecode(os.Args[2:])
	case "info":
		err = cmdInfo(os.Args[2:])
	case "peers":
		err = cmdPeers(os.Args[2:])
	case "handshake":
		err = cmdHandshake(os.Args[2:])
	case "download_piece":
		err = cmdDownloadPiece(os.Args[2:])
	case "download":
		err = cmdDownload(os.Args[2:])
	case "magnet_parse":
		err = cmdMagnetParse(os.Args[2:])
	case "magnet_handshake":
		err = cmdMagnetHandshake(os.Args[2:])
	case "magnet_info":
		err = cmdMagnetInfo(os.Args[2:])
	case "magnet_download_piece":
		err = cmdMagnetDownloadPiece(os.Args[2:])
	case "magnet_download":
		err = cmdMagnetDownload(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func peerID() [20]byte {
	return trackerclient.PeerID(clientPeerIDSeed)
}

func cmdDecode(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: decode <bencoded-string>")
	}
	item, _, err := bencode.Decode([]byte(args[0]), false)
	if err != nil {
		return err
	}
	out, err := json.Marshal(toJSONValue(item))
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func toJSONValue(item *bencode.Item) any {
	switch item.Kind {
	case bencode.KindString:
		return item.Text()
	case bencode.KindInt:
		n, _ := item.Int()
		return n
	case bencode.KindList:
		out := make([]any, len(item.List()))
		for i, child := range item.List() {
			out[i] = toJSONValue(child)
		}
		return out
	case bencode.KindDict:
		out := make(map[string]any, len(item.Dict()))
		for k, v := range item.Dict() {
			out[k] = toJSONValue(v)
		}
		return out
	default:
		return nil
	}
}

func cmdInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: info <path>")
	}
	mi, err := torrent.OpenMetainfo(args[0])
	if err != nil {
		return err
	}
	printInfo(mi.Announce, mi.Info)
	return nil
}

func printInfo(announce []byte, inf metainfo.InfoDict) {
	hash := inf.InfoHash()
	fmt.Printf("Tracker URL: %s\n", announce)
	fmt.Printf("Length: %d\n", inf.Layout.TotalLength())
	fmt.Printf("Info Hash: %s\n", hex.EncodeToString(hash[:]))
	fmt.Printf("Piece Length: %d\n", inf.PieceLength)
	fmt.Println("Piece Hashes:")
	for _, p := range inf.Pieces {
		fmt.Println(hex.EncodeToString(p[:]))
	}
}

func cmdPeers(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: peers <path>")
	}
	mi, err := torrent.OpenMetainfo(args[0])
	if err != nil {
		return err
	}
	peers, err := torrent.Peers(mi, peerID())
	if err != nil {
		return err
	}
	for _, p := range peers {
		fmt.Println(p.String())
	}
	return nil
}

func cmdHandshake(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: handshake <path> <ip:port>")
	}
	mi, err := torrent.OpenMetainfo(args[0])
	if err != nil {
		return err
	}
	_, theirs, err := torrent.Connect(args[1], mi.Info.InfoHash(), peerID(), false)
	if err != nil {
		return err
	}
	fmt.Printf("Peer ID: %s\n", hex.EncodeToString(theirs.PeerID[:]))
	return nil
}

// outFlag extracts an optional leading "-o <path>" pair, returning the
// remaining positional args.
func outFlag(args []string) (out string, rest []string) {
	if len(args) >= 2 && args[0] == "-o" {
		return args[1], args[2:]
	}
	return "", args
}

func writeOut(out string, data []byte) error {
	if out == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0644)
}

func cmdDownloadPiece(args []string) error {
	out, rest := outFlag(args)
	if len(rest) != 2 {
		return fmt.Errorf("usage: download_piece [-o out] <path> <index>")
	}
	mi, err := torrent.OpenMetainfo(rest[0])
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(rest[1])
	if err != nil {
		return err
	}
	peers, err := torrent.Peers(mi, peerID())
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		return fmt.Errorf("no peers available")
	}
	piece, err := torrent.DownloadPiece(mi, peers[0].String(), index, peerID())
	if err != nil {
		return err
	}
	return writeOut(out, piece)
}

func cmdDownload(args []string) error {
	out, rest := outFlag(args)
	if len(rest) != 1 {
		return fmt.Errorf("usage: download [-o out] <path>")
	}
	mi, err := torrent.OpenMetainfo(rest[0])
	if err != nil {
		return err
	}
	logrus.WithField("path", rest[0]).Info("starting download")
	data, err := torrent.Download(mi, peerID())
	if err != nil {
		return err
	}
	return writeOut(out, data)
}

func cmdMagnetParse(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: magnet_parse <uri>")
	}
	link, err := torrent.OpenMagnet(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Display Name: %s\n", link.DisplayName())
	fmt.Printf("Tracker URL: %s\n", firstOr(link.Trackers, ""))
	fmt.Printf("Info Hash: %s\n", hex.EncodeToString(link.InfoHash[:]))
	return nil
}

func firstOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return items[0]
}

func cmdMagnetHandshake(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: magnet_handshake <uri>")
	}
	link, err := torrent.OpenMagnet(args[0])
	if err != nil {
		return err
	}
	peers, err := torrent.MagnetPeers(link, peerID())
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		return fmt.Errorf("no peers available")
	}
	conn, theirs, err := torrent.Connect(peers[0].String(), link.InfoHash, peerID(), true)
	if err != nil {
		return err
	}
	defer conn.Close()
	fmt.Printf("Peer ID: %s\n", hex.EncodeToString(theirs.PeerID[:]))
	if theirs.SupportsExtensions() {
		if _, err := conn.Write(peerwire.NewExtensionHandshake(session.OurUtMetadataID).Serialize()); err != nil {
			return err
		}
		msg, err := peerwire.ReadMessage(conn)
		if err != nil {
			return err
		}
		if msg.Type != peerwire.Extension {
			return &peerwire.ProtocolViolation{Expected: "extension handshake", Got: msg.Type}
		}
		utID, _, err := peerwire.ParseExtensionHandshake(msg.Payload)
		if err != nil {
			return err
		}
		fmt.Printf("Peer Metadata Extension ID: %d\n", utID)
	}
	return nil
}

func cmdMagnetInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: magnet_info <uri>")
	}
	link, err := torrent.OpenMagnet(args[0])
	if err != nil {
		return err
	}
	peers, err := torrent.MagnetPeers(link, peerID())
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		return fmt.Errorf("no peers available")
	}
	inf, err := torrent.FetchMagnetInfo(link, peers[0].String(), peerID())
	if err != nil {
		return err
	}
	fmt.Printf("Display Name: %s\n", link.DisplayName())
	printInfo([]byte(firstOr(link.Trackers, "")), *inf)
	return nil
}

func cmdMagnetDownloadPiece(args []string) error {
	out, rest := outFlag(args)
	if len(rest) != 2 {
		return fmt.Errorf("usage: magnet_download_piece [-o out] <uri> <index>")
	}
	link, err := torrent.OpenMagnet(rest[0])
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(rest[1])
	if err != nil {
		return err
	}
	peers, err := torrent.MagnetPeers(link, peerID())
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		return fmt.Errorf("no peers available")
	}
	piece, _, err := torrent.DownloadMagnetPiece(link, peers[0].String(), index, peerID())
	if err != nil {
		return err
	}
	return writeOut(out, piece)
}

func cmdMagnetDownload(args []string) error {
	out, rest := outFlag(args)
	if len(rest) != 1 {
		return fmt.Errorf("usage: magnet_download [-o out] <uri>")
	}
	link, err := torrent.OpenMagnet(rest[0])
	if err != nil {
		return err
	}
	logrus.WithField("magnet", rest[0]).Info("starting magnet download")
	data, err := torrent.DownloadMagnet(link, peerID())
	if err != nil {
		return err
	}
	return writeOut(out, data)
}
