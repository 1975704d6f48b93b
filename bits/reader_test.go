package bits

import (
	"bytes"
	"testing"
)

// encodeUE builds the Exp-Golomb bit string for x, returned as a string of
// '0'/'1' characters, matching the style of h264dec's table-driven tests.
func encodeUE(x uint32) string {
	codeNum := x + 1
	nbits := 0
	for v := codeNum; v > 1; v >>= 1 {
		nbits++
	}
	s := ""
	for i := 0; i < nbits; i++ {
		s += "0"
	}
	s += "1"
	for i := nbits - 1; i >= 0; i-- {
		s += string('0' + byte((codeNum>>uint(i))&1))
	}
	return s
}

func binToBytes(s string) []byte {
	for len(s)%8 != 0 {
		s += "0"
	}
	out := make([]byte, len(s)/8)
	for i, c := range s {
		if c == '1' {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func TestUERoundTrip(t *testing.T) {
	for _, x := range []uint32{0, 1, 2, 3, 7, 8, 255, 1000, 1 << 20} {
		bs := encodeUE(x)
		r := NewReader(bytes.NewReader(binToBytes(bs)))
		got, err := r.UE()
		if err != nil {
			t.Fatalf("UE(%d): %v", x, err)
		}
		if got != x {
			t.Errorf("UE round trip: got %d, want %d", got, x)
		}
		if r.BytesRead()*8-r.Off() < len(bs) {
			t.Errorf("UE(%d): bit offset advanced by fewer bits than the token length", x)
		}
	}
}

func TestSERoundTrip(t *testing.T) {
	cases := map[int32]uint32{0: 0, 1: 1, -1: 2, 2: 3, -2: 4, 3: 5}
	for se, ue := range cases {
		bs := encodeUE(ue)
		r := NewReader(bytes.NewReader(binToBytes(bs)))
		got, err := r.SE()
		if err != nil {
			t.Fatalf("SE: %v", err)
		}
		if got != se {
			t.Errorf("SE: got %d, want %d", got, se)
		}
	}
}

func TestUFixedWidth(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x8f, 0xe3}))
	cases := []struct {
		n    int
		want uint32
	}{
		{4, 0x8},
		{2, 0x3},
		{4, 0xf},
		{6, 0x23},
	}
	for _, c := range cases {
		got, err := r.U(c.n)
		if err != nil {
			t.Fatalf("U(%d): %v", c.n, err)
		}
		if got != c.want {
			t.Errorf("U(%d) = %#x, want %#x", c.n, got, c.want)
		}
	}
}

func TestSU(t *testing.T) {
	// su(4) over 1000 (high bit set) should be 8 - 16 = -8.
	r := NewReader(bytes.NewReader([]byte{0x80}))
	got, err := r.SU(4)
	if err != nil {
		t.Fatal(err)
	}
	if got != -8 {
		t.Errorf("SU(4) = %d, want -8", got)
	}
}

func TestLeb128(t *testing.T) {
	cases := []struct {
		bytes []byte
		want  uint64
		n     int
	}{
		{[]byte{0x00}, 0, 1},
		{[]byte{0x7f}, 127, 1},
		{[]byte{0x80, 0x01}, 128, 2},
		{[]byte{0xe5, 0x8e, 0x26}, 624485, 3},
	}
	for _, c := range cases {
		r := NewReader(bytes.NewReader(c.bytes))
		got, n, err := r.Leb128()
		if err != nil {
			t.Fatalf("Leb128(%v): %v", c.bytes, err)
		}
		if got != c.want || n != c.n {
			t.Errorf("Leb128(%v) = (%d, %d), want (%d, %d)", c.bytes, got, n, c.want, c.n)
		}
	}
}

func TestNS(t *testing.T) {
	// n=3 values {0,1,2}: w=2, m=1. v<1 (0 binary) returns 0, otherwise
	// an extra bit distinguishes 1 and 2.
	r := NewReader(bytes.NewReader([]byte{0x00}))
	got, err := r.NS(3)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("NS(3) = %d, want 0", got)
	}
}

func TestUVLC(t *testing.T) {
	// Single "1" bit: zero leading zeros, value should be 0.
	r := NewReader(bytes.NewReader([]byte{0x80}))
	got, err := r.UVLC()
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("UVLC() = %d, want 0", got)
	}
}

func TestByteAlign(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xff, 0x00}))
	if _, err := r.U(3); err != nil {
		t.Fatal(err)
	}
	if r.ByteAligned() {
		t.Fatal("expected not byte aligned after reading 3 bits")
	}
	if err := r.ByteAlign(); err != nil {
		t.Fatal(err)
	}
	if !r.ByteAligned() {
		t.Fatal("expected byte aligned after ByteAlign")
	}
}

func TestOutOfRange(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xff}))
	if _, err := r.U(32); err == nil {
		t.Fatal("expected out-of-range error reading past end of buffer")
	}
}
