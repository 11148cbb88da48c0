package metainfo

// BlockSize is the default request granularity peers use when pulling a
// piece (16 KiB).
const BlockSize = 16 * 1024

// PiecesCount returns the number of pieces the torrent is divided into.
func (inf InfoDict) PiecesCount() int {
	return len(inf.Pieces)
}

// PieceSize returns the length in bytes of piece i. Every piece is
// PieceLength bytes except possibly the last, which is whatever remains of
// the total length.
func (inf InfoDict) PieceSize(i int) int64 {
	total := inf.Layout.TotalLength()
	if i == inf.PiecesCount()-1 {
		remainder := total - int64(i)*inf.PieceLength
		return remainder
	}
	return inf.PieceLength
}

// BlocksCount returns the number of BlockSize-aligned blocks piece i is
// split into when requested from a peer.
func (inf InfoDict) BlocksCount(i int) int {
	size := inf.PieceSize(i)
	count := size / BlockSize
	if size%BlockSize != 0 {
		count++
	}
	return int(count)
}

// Block describes one sub-request within a piece: its offset from the start
// of the piece and its length.
type Block struct {
	Offset int64
	Length int64
}

// BlockAt returns the offset and length of block j within piece i.
func (inf InfoDict) BlockAt(i, j int) Block {
	pieceSize := inf.PieceSize(i)
	offset := int64(j) * BlockSize
	length := int64(BlockSize)
	if offset+length > pieceSize {
		length = pieceSize - offset
	}
	return Block{Offset: offset, Length: length}
}
