package vbyte

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
)

func TestEncodeKnownValues(t *testing.T) {
	cases := []struct {
		n    uint64
		want []byte
	}{
		{0, []byte{0x80}},
		{5, []byte{0x85}},
		{127, []byte{0xFF}},
		{128, []byte{0x01, 0x80}},
		{130, []byte{0x01, 0x82}},
		{255, []byte{0x01, 0xFF}},
		{20000, []byte{0x01, 0x1C, 0xA0}},
		{0xFFFF, []byte{0x03, 0x7F, 0xFF}},
	}
	for _, c := range cases {
		if got := Encode(c.n); !bytes.Equal(got, c.want) {
			t.Errorf("Encode(%d) = %v, want %v", c.n, got, c.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 129, 16383, 16384, 1 << 20, 1 << 35, 1 << 56, math.MaxUint64 - 1, math.MaxUint64}
	for _, n := range values {
		enc := Encode(n)
		got, consumed, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(Encode(%d)): %v", n, err)
		}
		if got != n {
			t.Errorf("Decode(Encode(%d)) = %d", n, got)
		}
		if consumed != len(enc) {
			t.Errorf("Decode(Encode(%d)) consumed %d of %d bytes", n, consumed, len(enc))
		}
		if Len(n) != len(enc) {
			t.Errorf("Len(%d) = %d, want %d", n, Len(n), len(enc))
		}
	}
}

func TestDecodeSequence(t *testing.T) {
	var buf []byte
	buf = Append(buf, 0xFFFF)
	buf = Append(buf, 130)
	buf = Append(buf, 5)
	dec := NewDecoder(bytes.NewReader(buf))
	want := []uint64{0xFFFF, 130, 5}
	for _, w := range want {
		got, err := dec.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got != w {
			t.Errorf("Next = %d, want %d", got, w)
		}
	}
	if _, err := dec.Next(); err != io.EOF {
		t.Errorf("Next after exhaustion = %v, want io.EOF", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	// 20000 encodes to three bytes; chop the final byte off.
	enc := Encode(20000)
	if _, _, err := Decode(enc[:2]); !errors.Is(err, ErrTruncated) {
		t.Errorf("Decode(truncated) = %v, want ErrTruncated", err)
	}
	dec := NewDecoder(bytes.NewReader(enc[:2]))
	if _, err := dec.Next(); !errors.Is(err, ErrTruncated) {
		t.Errorf("Decoder.Next(truncated) = %v, want ErrTruncated", err)
	}
}

func TestDecodeOverflow(t *testing.T) {
	// Eleven continuation groups exceed 64 bits.
	in := bytes.Repeat([]byte{0x7F}, 11)
	in = append(in, 0xFF)
	if _, _, err := Decode(in); !errors.Is(err, ErrOverflow) {
		t.Errorf("Decode(overflow) = %v, want ErrOverflow", err)
	}
}

func TestMaxUint64Length(t *testing.T) {
	if got := len(Encode(math.MaxUint64)); got != MaxLen {
		t.Errorf("len(Encode(MaxUint64)) = %d, want %d", got, MaxLen)
	}
}
