package bencode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRoundTripSortedInput(t *testing.T) {
	input := []byte("d3:bar4:spam3:fooi42ee")
	it, _, err := Decode(input, false)
	require.NoError(t, err)
	assert.Equal(t, input, Encode(it))
}

func TestEncodeSortsUnsortedKeys(t *testing.T) {
	input := []byte("d3:fooi1e3:bari2ee")
	it, _, err := Decode(input, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("d3:bari2e3:fooi1ee"), Encode(it))
}

func TestEncodeDecodeEncodeIsIdempotent(t *testing.T) {
	input := []byte("d3:fooi1e3:bari2e4:listl1:a1:bee")
	it1, _, err := Decode(input, false)
	require.NoError(t, err)
	encoded := Encode(it1)
	it2, _, err := Decode(encoded, false)
	require.NoError(t, err)
	assert.Equal(t, Encode(it1), Encode(it2))
}

func TestEncodeConstructedValues(t *testing.T) {
	dict := NewDict(map[string]*Item{
		"hello": NewInt(52),
		"foo":   NewString([]byte("bar")),
	})
	assert.Equal(t, []byte("d3:foo3:bar5:helloi52ee"), Encode(dict))
}

func TestEncodeNegativeAndZero(t *testing.T) {
	assert.Equal(t, []byte("i-42e"), Encode(NewInt(-42)))
	assert.Equal(t, []byte("i0e"), Encode(NewInt(0)))
}
