package bencode

import (
	"fmt"
	"strconv"
)

// Kind identifies which of the four bencode variants an Item holds.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindList
	KindDict
)

// Item is a node of a decoded bencode tree. Every variant borrows from the
// input byte slice it was decoded from: ByteString/Integer hold a sub-slice
// of the payload, and Raw always holds the sub-slice spanning the entire
// token (length prefix/braces included). This lets a caller hash
// Raw directly instead of re-encoding, which is how info-hash computation
// stays independent of whatever whitespace or key ordering surrounded it in
// the source file.
type Item struct {
	Kind Kind
	Raw  []byte

	str    []byte           // KindString: the string's bytes, not text
	digits []byte           // KindInt: ascii digits, optional leading '-'
	list   []*Item          // KindList
	dict   map[string]*Item // KindDict
	keys   []string         // KindDict: keys in first-occurrence order
}

// Bytes returns the raw bytes of a KindString item.
func (it *Item) Bytes() []byte {
	return it.str
}

// Text is a convenience wrapper over Bytes for the (common) case where the
// byte string is expected to be printable text, such as "announce" or "name".
func (it *Item) Text() string {
	return string(it.str)
}

// Int returns the parsed value of a KindInt item.
func (it *Item) Int() (int64, error) {
	n, err := strconv.ParseInt(string(it.digits), 10, 64)
	if err != nil {
		return 0, newErr(InvalidInteger, 0, err.Error())
	}
	return n, nil
}

// List returns the children of a KindList item.
func (it *Item) List() []*Item {
	return it.list
}

// Dict returns the entries of a KindDict item, keyed by the raw byte-string
// key rendered as text (bencode dictionary keys are always byte strings).
func (it *Item) Dict() map[string]*Item {
	return it.dict
}

// Keys returns a KindDict item's keys in first-occurrence (decode) order.
// Use this, not a map iteration, when encounter order matters.
func (it *Item) Keys() []string {
	return it.keys
}

// Get looks up a key in a KindDict item, returning (nil, false) if absent or
// if the item is not a dictionary.
func (it *Item) Get(key string) (*Item, bool) {
	if it.dict == nil {
		return nil, false
	}
	v, ok := it.dict[key]
	return v, ok
}

func (it *Item) String() string {
	switch it.Kind {
	case KindString:
		return fmt.Sprintf("%q", it.str)
	case KindInt:
		return string(it.digits)
	case KindList:
		return fmt.Sprintf("%v", it.list)
	case KindDict:
		return fmt.Sprintf("%v", it.dict)
	default:
		return "<invalid>"
	}
}
