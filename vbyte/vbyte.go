// Package vbyte implements the variable-byte integer code used throughout
// the index: 7-bit groups, most-significant group first, with the high bit
// set on the final byte of each value. A 64-bit value occupies 1-10 bytes.
package vbyte

import (
	"errors"
	"io"
)

// MaxLen is the maximum encoded size of a 64-bit value.
const MaxLen = 10

var (
	// ErrTruncated is returned when the input ends in the middle of a value.
	ErrTruncated = errors.New("vbyte: truncated value")
	// ErrOverflow is returned when a value does not fit in 64 bits.
	ErrOverflow = errors.New("vbyte: value overflows 64 bits")
)

// Append encodes n and appends the bytes to dst, returning the extended
// slice.
func Append(dst []byte, n uint64) []byte {
	var scratch [MaxLen]byte
	i := MaxLen
	scratch[i-1] = byte(n&0x7f) | 0x80
	i--
	n >>= 7
	for n > 0 {
		i--
		scratch[i] = byte(n & 0x7f)
		n >>= 7
	}
	return append(dst, scratch[i:]...)
}

// Encode returns the encoded form of n.
func Encode(n uint64) []byte {
	return Append(nil, n)
}

// Decode reads one value from the front of b. It returns the value and the
// number of bytes consumed.
func Decode(b []byte) (uint64, int, error) {
	var v uint64
	for i, c := range b {
		if v > (1<<57)-1 {
			// Another 7-bit shift would drop high bits.
			return 0, 0, ErrOverflow
		}
		v = v<<7 | uint64(c&0x7f)
		if c >= 0x80 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrTruncated
}

// Len returns the encoded size of n in bytes.
func Len(n uint64) int {
	l := 1
	for n >>= 7; n > 0; n >>= 7 {
		l++
	}
	return l
}

// Decoder reads a stream of vbyte-encoded values from an io.ByteReader.
// It keeps no buffer of its own, so it can be pointed at an arbitrary
// byte offset inside an entry.
type Decoder struct {
	r io.ByteReader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.ByteReader) *Decoder {
	return &Decoder{r: r}
}

// Next decodes the next value. io.EOF is returned unchanged when the
// stream is exhausted on a value boundary; ErrTruncated when it ends
// mid-value.
func (d *Decoder) Next() (uint64, error) {
	var v uint64
	for i := 0; ; i++ {
		c, err := d.r.ReadByte()
		if err != nil {
			if err == io.EOF && i > 0 {
				return 0, ErrTruncated
			}
			return 0, err
		}
		if v > (1<<57)-1 {
			return 0, ErrOverflow
		}
		v = v<<7 | uint64(c&0x7f)
		if c >= 0x80 {
			return v, nil
		}
	}
}
