// Package metainfo provides a typed view over a decoded .torrent file (and
// its magnet-link counterpart), deriving piece/block geometry and the
// info-hash identity used by the tracker client, handshake, and session
// state machine.
package metainfo

import (
	"crypto/sha1"
	"path/filepath"

	"github.com/danwils/gobit/bencode"
)

// FileEntry is one file within a multi-file torrent layout.
type FileEntry struct {
	Length int64
	Path   []string
}

// Layout describes a torrent's payload shape: either a single file of a
// given length, or an ordered list of files concatenated to form the
// torrent's payload.
type Layout struct {
	SingleFile bool
	Length     int64       // valid when SingleFile
	Files      []FileEntry // valid when !SingleFile
}

// TotalLength returns the sum of all file lengths.
func (l Layout) TotalLength() int64 {
	if l.SingleFile {
		return l.Length
	}
	var total int64
	for _, f := range l.Files {
		total += f.Length
	}
	return total
}

// InfoDict is the typed view of a metainfo's "info" dictionary.
type InfoDict struct {
	Name        string
	PieceLength int64
	Pieces      [][20]byte
	Layout      Layout

	// raw is the exact byte range of the "info" dictionary's bencode token,
	// as decoded — hashing it directly gives the info-hash without
	// re-serializing.
	raw []byte
}

// Metainfo is a parsed .torrent file.
type Metainfo struct {
	Announce []byte
	Info     InfoDict
}

// InfoHash returns the 20-byte SHA-1 identity of the torrent, computed over
// the raw bencode bytes of the info dictionary exactly as they were decoded.
// If the InfoDict was constructed rather than parsed, raw is empty and the
// canonical encoding is hashed instead, so both paths agree for equivalent
// content.
func (inf InfoDict) InfoHash() [20]byte {
	if len(inf.raw) > 0 {
		return sha1.Sum(inf.raw)
	}
	return sha1.Sum(bencode.Encode(inf.toBencode()))
}

func (inf InfoDict) toBencode() *bencode.Item {
	dict := map[string]*bencode.Item{
		"name":         bencode.NewString([]byte(inf.Name)),
		"piece length": bencode.NewInt(inf.PieceLength),
		"pieces":       bencode.NewString(concatPieces(inf.Pieces)),
	}
	if inf.Layout.SingleFile {
		dict["length"] = bencode.NewInt(inf.Layout.Length)
	} else {
		files := make([]*bencode.Item, len(inf.Layout.Files))
		for i, f := range inf.Layout.Files {
			pathParts := make([]*bencode.Item, len(f.Path))
			for j, p := range f.Path {
				pathParts[j] = bencode.NewString([]byte(p))
			}
			files[i] = bencode.NewDict(map[string]*bencode.Item{
				"length": bencode.NewInt(f.Length),
				"path":   bencode.NewList(pathParts),
			})
		}
		dict["files"] = bencode.NewList(files)
	}
	return bencode.NewDict(dict)
}

func concatPieces(pieces [][20]byte) []byte {
	buf := make([]byte, 20*len(pieces))
	for i, p := range pieces {
		copy(buf[i*20:], p[:])
	}
	return buf
}

// Multi reports whether the torrent has more than one file.
func (inf InfoDict) Multi() bool {
	return !inf.Layout.SingleFile
}

// ParseMetainfo decodes a .torrent file's bytes into a Metainfo, validating
// the presence and type of announce, info.name, info.piece length,
// info.pieces (length a multiple of 20), and exactly one of info.length or
// info.files.
func ParseMetainfo(data []byte) (*Metainfo, error) {
	root, _, err := bencode.Decode(data, false)
	if err != nil {
		return nil, err
	}
	if root.Kind != bencode.KindDict {
		return nil, &MetainfoError{Kind: BadType, Field: "<root>"}
	}

	announce, ok := root.Get("announce")
	if !ok {
		return nil, &MetainfoError{Kind: MissingField, Field: "announce"}
	}
	if announce.Kind != bencode.KindString {
		return nil, &MetainfoError{Kind: BadType, Field: "announce"}
	}

	infoItem, ok := root.Get("info")
	if !ok {
		return nil, &MetainfoError{Kind: MissingField, Field: "info"}
	}
	if infoItem.Kind != bencode.KindDict {
		return nil, &MetainfoError{Kind: BadType, Field: "info"}
	}

	info, err := parseInfoDict(infoItem)
	if err != nil {
		return nil, err
	}

	return &Metainfo{
		Announce: announce.Bytes(),
		Info:     *info,
	}, nil
}

// ParseInfoDict parses a standalone info dictionary, as fetched via the
// magnet metadata extension exchange rather than read from a .torrent
// file's "info" key.
func ParseInfoDict(data []byte) (*InfoDict, error) {
	root, _, err := bencode.Decode(data, false)
	if err != nil {
		return nil, err
	}
	if root.Kind != bencode.KindDict {
		return nil, &MetainfoError{Kind: BadType, Field: "<info>"}
	}
	return parseInfoDict(root)
}

func parseInfoDict(infoItem *bencode.Item) (*InfoDict, error) {
	nameItem, ok := infoItem.Get("name")
	if !ok || nameItem.Kind != bencode.KindString {
		return nil, &MetainfoError{Kind: MissingField, Field: "info.name"}
	}

	pieceLenItem, ok := infoItem.Get("piece length")
	if !ok || pieceLenItem.Kind != bencode.KindInt {
		return nil, &MetainfoError{Kind: MissingField, Field: "info.piece length"}
	}
	pieceLength, err := pieceLenItem.Int()
	if err != nil || pieceLength <= 0 {
		return nil, &MetainfoError{Kind: BadType, Field: "info.piece length"}
	}

	piecesItem, ok := infoItem.Get("pieces")
	if !ok || piecesItem.Kind != bencode.KindString {
		return nil, &MetainfoError{Kind: MissingField, Field: "info.pieces"}
	}
	pieces, err := splitPieces(piecesItem.Bytes())
	if err != nil {
		return nil, err
	}

	lengthItem, hasLength := infoItem.Get("length")
	filesItem, hasFiles := infoItem.Get("files")
	if hasLength == hasFiles {
		return nil, &MetainfoError{
			Kind:  InconsistentLength,
			Field: "info must have exactly one of length or files",
		}
	}

	var layout Layout
	if hasLength {
		length, err := lengthItem.Int()
		if err != nil || length < 0 {
			return nil, &MetainfoError{Kind: BadType, Field: "info.length"}
		}
		layout = Layout{SingleFile: true, Length: length}
	} else {
		files, err := parseFiles(filesItem)
		if err != nil {
			return nil, err
		}
		layout = Layout{SingleFile: false, Files: files}
	}

	if err := validatePieceCoverage(pieceLength, int64(len(pieces)), layout.TotalLength()); err != nil {
		return nil, err
	}

	return &InfoDict{
		Name:        nameItem.Text(),
		PieceLength: pieceLength,
		Pieces:      pieces,
		Layout:      layout,
		raw:         infoItem.Raw,
	}, nil
}

// validatePieceCoverage checks that numPieces*pieceLength lands within
// [totalLen, totalLen+pieceLength).
func validatePieceCoverage(pieceLength, numPieces, totalLen int64) error {
	covered := numPieces * pieceLength
	if covered < totalLen || covered >= totalLen+pieceLength {
		return &MetainfoError{
			Kind:  InconsistentLength,
			Field: "piece count * piece length does not cover total length",
		}
	}
	return nil
}

func splitPieces(raw []byte) ([][20]byte, error) {
	if len(raw)%20 != 0 {
		return nil, &MetainfoError{Kind: PiecesLengthNotMultiple20, Field: "info.pieces"}
	}
	pieces := make([][20]byte, len(raw)/20)
	for i := range pieces {
		copy(pieces[i][:], raw[i*20:(i+1)*20])
	}
	return pieces, nil
}

func parseFiles(filesItem *bencode.Item) ([]FileEntry, error) {
	if filesItem.Kind != bencode.KindList || len(filesItem.List()) == 0 {
		return nil, &MetainfoError{Kind: BadType, Field: "info.files"}
	}
	entries := make([]FileEntry, len(filesItem.List()))
	for i, f := range filesItem.List() {
		if f.Kind != bencode.KindDict {
			return nil, &MetainfoError{Kind: BadType, Field: "info.files[]"}
		}
		lengthItem, ok := f.Get("length")
		if !ok || lengthItem.Kind != bencode.KindInt {
			return nil, &MetainfoError{Kind: MissingField, Field: "info.files[].length"}
		}
		length, err := lengthItem.Int()
		if err != nil || length < 0 {
			return nil, &MetainfoError{Kind: BadType, Field: "info.files[].length"}
		}
		pathItem, ok := f.Get("path")
		if !ok || pathItem.Kind != bencode.KindList || len(pathItem.List()) == 0 {
			return nil, &MetainfoError{Kind: MissingField, Field: "info.files[].path"}
		}
		path := make([]string, len(pathItem.List()))
		for j, seg := range pathItem.List() {
			if seg.Kind != bencode.KindString {
				return nil, &MetainfoError{Kind: BadType, Field: "info.files[].path[]"}
			}
			path[j] = seg.Text()
		}
		entries[i] = FileEntry{Length: length, Path: path}
	}
	return entries, nil
}

// JoinPath returns the filesystem path (relative to the torrent's output
// directory) for a file entry.
func (f FileEntry) JoinPath() string {
	return filepath.Join(f.Path...)
}
