// Package trackerclient implements the HTTP tracker announce protocol:
// building the GET request URL, issuing it, and parsing the bencoded
// response into a peer list.
package trackerclient

import (
	"encoding/binary"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/danwils/gobit/bencode"
	"github.com/sirupsen/logrus"
)

const httpTimeout = 15 * time.Second

// PeerEndpoint is one peer returned by a tracker.
type PeerEndpoint struct {
	IP   net.IP
	Port uint16
}

func (p PeerEndpoint) String() string {
	return net.JoinHostPort(p.IP.String(), strconv.Itoa(int(p.Port)))
}

// Response is a parsed tracker announce response.
type Response struct {
	Interval int64
	Peers    []PeerEndpoint
}

// Announce performs the GET request against the tracker described by
// announceURL and decodes its bencoded body.
func Announce(announceURL string, infoHash, peerID [20]byte, left int64) (*Response, error) {
	url := BuildAnnounceURL(announceURL, infoHash, peerID, left)

	client := &http.Client{Timeout: httpTimeout}
	res, err := client.Get(url)
	if err != nil {
		return nil, &Error{Kind: HttpFailure, Detail: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &Error{Kind: HttpFailure, Detail: res.Status}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Kind: HttpFailure, Detail: err.Error()}
	}

	resp, err := ParseResponse(body)
	if err != nil {
		logrus.WithError(err).WithField("url", url).Warn("tracker announce failed")
	}
	return resp, err
}

// ParseResponse decodes a tracker announce body into a Response, accepting
// both the compact peers string form and the dictionary-list form.
func ParseResponse(body []byte) (*Response, error) {
	root, _, err := bencode.Decode(body, false)
	if err != nil {
		return nil, &Error{Kind: DecodeFailure, Detail: err.Error()}
	}
	if root.Kind != bencode.KindDict {
		return nil, &Error{Kind: DecodeFailure, Detail: "response is not a dictionary"}
	}

	if failure, ok := root.Get("failure reason"); ok {
		return nil, &Error{Kind: TrackerFailure, Detail: failure.Text()}
	}

	intervalItem, ok := root.Get("interval")
	if !ok || intervalItem.Kind != bencode.KindInt {
		return nil, &Error{Kind: DecodeFailure, Detail: "missing interval"}
	}
	interval, err := intervalItem.Int()
	if err != nil {
		return nil, &Error{Kind: DecodeFailure, Detail: err.Error()}
	}

	peersItem, ok := root.Get("peers")
	if !ok {
		return nil, &Error{Kind: BadPeersField, Detail: "missing peers"}
	}

	var peers []PeerEndpoint
	switch peersItem.Kind {
	case bencode.KindString:
		peers, err = parseCompactPeers(peersItem.Bytes())
	case bencode.KindList:
		peers, err = parseDictPeers(peersItem.List())
	default:
		err = &Error{Kind: BadPeersField, Detail: "peers is neither a string nor a list"}
	}
	if err != nil {
		return nil, err
	}

	return &Response{Interval: interval, Peers: peers}, nil
}

func parseCompactPeers(data []byte) ([]PeerEndpoint, error) {
	const recordSize = 6
	if len(data)%recordSize != 0 {
		return nil, &Error{Kind: BadPeersField, Detail: "compact peers length not a multiple of 6"}
	}
	peers := make([]PeerEndpoint, len(data)/recordSize)
	for i := range peers {
		rec := data[i*recordSize : (i+1)*recordSize]
		ip := make(net.IP, net.IPv4len)
		copy(ip, rec[:4])
		peers[i] = PeerEndpoint{
			IP:   ip,
			Port: binary.BigEndian.Uint16(rec[4:6]),
		}
	}
	return peers, nil
}

func parseDictPeers(items []*bencode.Item) ([]PeerEndpoint, error) {
	peers := make([]PeerEndpoint, 0, len(items))
	for _, it := range items {
		if it.Kind != bencode.KindDict {
			return nil, &Error{Kind: BadPeersField, Detail: "peer entry is not a dictionary"}
		}
		ipItem, ok := it.Get("ip")
		if !ok || ipItem.Kind != bencode.KindString {
			return nil, &Error{Kind: BadPeersField, Detail: "peer entry missing ip"}
		}
		portItem, ok := it.Get("port")
		if !ok || portItem.Kind != bencode.KindInt {
			return nil, &Error{Kind: BadPeersField, Detail: "peer entry missing port"}
		}
		port, err := portItem.Int()
		if err != nil {
			return nil, &Error{Kind: BadPeersField, Detail: err.Error()}
		}
		ip := net.ParseIP(ipItem.Text())
		if ip == nil {
			return nil, &Error{Kind: BadPeersField, Detail: "peer entry has an unparseable ip"}
		}
		peers = append(peers, PeerEndpoint{IP: ip, Port: uint16(port)})
	}
	return peers, nil
}
