package metainfo

import (
	"encoding/base32"
	"encoding/hex"
	"net/url"
	"strings"
)

// displayNameHashPrefixLen is how much of the hex info hash DisplayName
// falls back to when the magnet carries no "dn" parameter.
const displayNameHashPrefixLen = 16

// MagnetLink is a parsed magnet URI (BEP 9). Name and Trackers are hints
// only: a magnet link carries no metainfo, so the info dictionary itself
// must be fetched from a peer via the extension protocol before a download
// can begin.
type MagnetLink struct {
	InfoHash [20]byte
	Name     string
	Trackers []string
}

// DisplayName returns the magnet's "dn" hint, or a fallback built from the
// first bytes of its info hash when the magnet carries no display name.
func (m MagnetLink) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	hash := hex.EncodeToString(m.InfoHash[:])
	return hash[:displayNameHashPrefixLen] + "..."
}

// ParseMagnet parses a magnet URI, requiring an "xt=urn:btih:<hash>"
// parameter encoding the info hash as 40 hex digits or 32 base32 characters.
func ParseMagnet(raw string) (*MagnetLink, error) {
	if !strings.HasPrefix(raw, "magnet:?") {
		return nil, &MagnetError{Kind: MalformedURI, Detail: "missing magnet:? prefix"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &MagnetError{Kind: MalformedURI, Detail: err.Error()}
	}
	query := u.Query()

	infoHash, err := parseInfoHash(query)
	if err != nil {
		return nil, err
	}

	name := ""
	if dn := query.Get("dn"); dn != "" {
		name = dn
	}

	var trackers []string
	if tr, ok := query["tr"]; ok {
		trackers = tr
	}

	return &MagnetLink{
		InfoHash: infoHash,
		Name:     name,
		Trackers: trackers,
	}, nil
}

func parseInfoHash(query url.Values) ([20]byte, error) {
	var hash [20]byte

	xt := query.Get("xt")
	if xt == "" {
		return hash, &MagnetError{Kind: MissingXt}
	}

	if !strings.HasPrefix(xt, "urn:btih:") {
		return hash, &MagnetError{Kind: BadInfoHashEncoding, Detail: "xt is not a urn:btih topic"}
	}
	encoded := strings.TrimPrefix(xt, "urn:btih:")

	switch len(encoded) {
	case 40:
		decoded, err := hex.DecodeString(encoded)
		if err != nil {
			return hash, &MagnetError{Kind: BadInfoHashEncoding, Detail: err.Error()}
		}
		copy(hash[:], decoded)
	case 32:
		decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(encoded))
		if err != nil {
			return hash, &MagnetError{Kind: BadInfoHashEncoding, Detail: err.Error()}
		}
		copy(hash[:], decoded)
	default:
		return hash, &MagnetError{Kind: BadInfoHashEncoding, Detail: "info hash is neither 40 hex nor 32 base32 characters"}
	}

	return hash, nil
}
