package trackerclient

import (
	"strconv"
	"strings"
)

const clientPort = 6881

// BuildAnnounceURL constructs the tracker GET URL: the 20-byte info hash
// percent-encoded byte-by-byte in lowercase hex, followed by the fixed
// peer_id/port/uploaded/downloaded/left/compact parameters. net/url.Values.Encode
// is not used here because it escapes bytes as Go's query-escaper sees fit
// (e.g. leaving some bytes literal), not byte-for-byte as trackers expect.
func BuildAnnounceURL(announce string, infoHash [20]byte, peerID [20]byte, left int64) string {
	var b strings.Builder
	b.WriteString(announce)
	b.WriteString("?info_hash=")
	percentEncode(&b, infoHash[:])
	b.WriteString("&peer_id=")
	b.WriteString(string(peerID[:]))
	b.WriteString("&port=")
	b.WriteString(strconv.Itoa(clientPort))
	b.WriteString("&uploaded=0")
	b.WriteString("&downloaded=0")
	b.WriteString("&left=")
	b.WriteString(strconv.FormatInt(left, 10))
	b.WriteString("&compact=1")
	return b.String()
}

func percentEncode(b *strings.Builder, data []byte) {
	const hex = "0123456789abcdef"
	for _, c := range data {
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
}

// PeerID derives a 20-byte peer id from a human-readable seed, truncating or
// padding with underscores so the wire length invariant always holds. The
// seed is meant to be a constant chosen at process start, not per-connection
// state.
func PeerID(seed string) [20]byte {
	var id [20]byte
	s := seed
	if len(s) > 20 {
		s = s[:20]
	}
	copy(id[:], s)
	for i := len(s); i < 20; i++ {
		id[i] = '_'
	}
	return id
}
