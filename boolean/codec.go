package boolean

import (
	"encoding/binary"
	"fmt"
)

// TermCodec erases terms to bytes at the storage boundary. Encoded forms
// must be unambiguous per term: the vocabulary is persisted sorted by
// encoded bytes and decoded back through the same codec.
type TermCodec[T comparable] interface {
	EncodeTerm(term T) []byte
	DecodeTerm(b []byte) (T, error)
}

// StringCodec stores string terms as their raw bytes.
type StringCodec struct{}

func (StringCodec) EncodeTerm(term string) []byte { return []byte(term) }

func (StringCodec) DecodeTerm(b []byte) (string, error) { return string(b), nil }

// Uint64Codec stores numeric terms big-endian so the byte order matches
// the numeric order.
type Uint64Codec struct{}

func (Uint64Codec) EncodeTerm(term uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], term)
	return buf[:]
}

func (Uint64Codec) DecodeTerm(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("boolean: uint64 term has %d bytes, want 8", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
