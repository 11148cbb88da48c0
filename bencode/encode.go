package bencode

import (
	"bytes"
	"sort"
	"strconv"
)

// Encode renders an Item in canonical bencode form: dictionary keys sorted
// in ascending byte order regardless of the Item's recorded insertion order,
// and integers with no redundant sign or leading zeros. An Item decoded from
// unsorted input therefore does not round-trip byte-for-byte through Encode
// unless its keys were already sorted.
func Encode(it *Item) []byte {
	var buf bytes.Buffer
	encodeTo(&buf, it)
	return buf.Bytes()
}

func encodeTo(buf *bytes.Buffer, it *Item) {
	switch it.Kind {
	case KindString:
		buf.WriteString(strconv.Itoa(len(it.str)))
		buf.WriteByte(':')
		buf.Write(it.str)
	case KindInt:
		buf.WriteByte('i')
		buf.Write(it.digits)
		buf.WriteByte('e')
	case KindList:
		buf.WriteByte('l')
		for _, child := range it.list {
			encodeTo(buf, child)
		}
		buf.WriteByte('e')
	case KindDict:
		buf.WriteByte('d')
		keys := make([]string, 0, len(it.dict))
		for k := range it.dict {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			buf.WriteString(strconv.Itoa(len(k)))
			buf.WriteByte(':')
			buf.WriteString(k)
			encodeTo(buf, it.dict[k])
		}
		buf.WriteByte('e')
	}
}

// NewString builds a KindString Item from raw bytes, suitable for encoding a
// value the caller constructed rather than parsed.
func NewString(b []byte) *Item {
	return &Item{Kind: KindString, str: b}
}

// NewInt builds a KindInt Item from an int64.
func NewInt(n int64) *Item {
	return &Item{Kind: KindInt, digits: []byte(strconv.FormatInt(n, 10))}
}

// NewList builds a KindList Item.
func NewList(items []*Item) *Item {
	return &Item{Kind: KindList, list: items}
}

// NewDict builds a KindDict Item from a key/value map. Key order on encode
// is always sorted regardless of the order passed here.
func NewDict(m map[string]*Item) *Item {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Item{Kind: KindDict, dict: m, keys: keys}
}
