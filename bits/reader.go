// Package bits provides a bit-accurate reader over a byte buffer, used by
// every codec's syntax parser to pull fixed-width, Exp-Golomb, signed, and
// non-symmetric code values out of a NAL unit or OBU payload.
//
// The reader is grounded on the BitReader in
// github.com/ausocean/av/codec/h264/h264dec/bits, generalized from a single
// io.Reader cursor with ReadBits/PeekBits into the full descriptor set a
// multi-codec parser needs: ue(v), se(v), su(n), uvlc(), leb128(), ns(n),
// byte alignment, and more_rbsp_data().
package bits

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// ErrOutOfRange is returned by Reader methods when the source is exhausted
// before the requested number of bits could be read. Per spec, an
// out-of-bounds read is always a fatal parse error for the caller.
var ErrOutOfRange = errors.New("bits: read past end of buffer")

type bytePeeker interface {
	io.ByteReader
	Peek(int) ([]byte, error)
}

// Reader is a cursor over a byte source providing the bit-level read
// primitives required by the AVC, HEVC and AV1 syntax tables.
type Reader struct {
	r     bytePeeker
	n     uint64
	bits  int
	nRead int
}

// NewReader returns a new Reader sourcing bits from r.
func NewReader(r io.Reader) *Reader {
	byter, ok := r.(bytePeeker)
	if !ok {
		byter = bufio.NewReader(r)
	}
	return &Reader{r: byter}
}

// ReadBits reads n bits (1 <= n <= 32) from the source, MSB first, and
// returns them in the least-significant part of a uint64.
func (r *Reader) ReadBits(n int) (uint64, error) {
	for n > r.bits {
		b, err := r.r.ReadByte()
		if err == io.EOF {
			return 0, ErrOutOfRange
		}
		if err != nil {
			return 0, err
		}
		r.nRead++
		r.n <<= 8
		r.n |= uint64(b)
		r.bits += 8
	}
	res := (r.n >> uint(r.bits-n)) & ((1 << uint(n)) - 1)
	r.bits -= n
	return res, nil
}

// PeekBits returns the next n bits without advancing the cursor.
func (r *Reader) PeekBits(n int) (uint64, error) {
	need := (n - r.bits + 7) / 8
	if need < 0 {
		need = 0
	}
	byt, err := r.r.Peek(need)
	bits := r.bits
	if err != nil {
		if err == io.EOF {
			return 0, ErrOutOfRange
		}
		return 0, err
	}
	n64 := r.n
	for i := 0; n > bits; i++ {
		n64 <<= 8
		n64 |= uint64(byt[i])
		bits += 8
	}
	return (n64 >> uint(bits-n)) & ((1 << uint(n)) - 1), nil
}

// U reads an n-bit unsigned fixed-width field, u(n) in ITU-T syntax tables.
func (r *Reader) U(n int) (uint32, error) {
	v, err := r.ReadBits(n)
	if err != nil {
		return 0, errors.Wrap(err, "u(n)")
	}
	return uint32(v), nil
}

// Flag reads a single bit and returns it as a bool.
func (r *Reader) Flag() (bool, error) {
	v, err := r.ReadBits(1)
	if err != nil {
		return false, errors.Wrap(err, "flag")
	}
	return v == 1, nil
}

// UE reads an Exp-Golomb coded unsigned integer, ue(v). It counts the leading
// zero bits k, consumes the terminating 1, reads k trailing bits x, and
// returns (1<<k)-1+x. k>30 is a fatal error.
func (r *Reader) UE() (uint32, error) {
	k := -1
	for b := uint64(0); b == 0; k++ {
		var err error
		b, err = r.ReadBits(1)
		if err != nil {
			return 0, errors.Wrap(err, "ue(v): leading zero run")
		}
	}
	if k > 30 {
		return 0, errors.Errorf("ue(v): leading zero run of %d exceeds 30", k)
	}
	x, err := r.ReadBits(k)
	if err != nil {
		return 0, errors.Wrap(err, "ue(v): suffix")
	}
	return uint32((uint64(1)<<uint(k) - 1) + x), nil
}

// SE reads a signed Exp-Golomb coded integer, se(v), derived from ue(v) via
// (-1)^(u+1) * ceil(u/2).
func (r *Reader) SE() (int32, error) {
	u, err := r.UE()
	if err != nil {
		return 0, errors.Wrap(err, "se(v)")
	}
	half := int32((u + 1) / 2)
	if u&1 == 1 {
		return half, nil
	}
	return -half, nil
}

// SU reads a signed fixed-width field, su(n): read u(n), and if the high bit
// is set subtract 2^n.
func (r *Reader) SU(n int) (int32, error) {
	v, err := r.ReadBits(n)
	if err != nil {
		return 0, errors.Wrap(err, "su(n)")
	}
	sign := uint64(1) << uint(n-1)
	if v&sign != 0 {
		return int32(v) - (int32(1) << uint(n)), nil
	}
	return int32(v), nil
}

// UVLC reads a unary leading-zero-prefix code, uvlc(), used by AV1. The
// prefix length is capped at 32.
func (r *Reader) UVLC() (uint32, error) {
	leadingZeros := 0
	for {
		b, err := r.ReadBits(1)
		if err != nil {
			return 0, errors.Wrap(err, "uvlc(): prefix")
		}
		if b == 1 || leadingZeros >= 32 {
			break
		}
		leadingZeros++
	}
	if leadingZeros >= 32 {
		return 0xFFFFFFFF, nil
	}
	value, err := r.ReadBits(leadingZeros)
	if err != nil {
		return 0, errors.Wrap(err, "uvlc(): suffix")
	}
	return value + (uint32(1)<<uint(leadingZeros) - 1), nil
}

// NS reads a non-symmetric code ns(n) as defined by AV1 section 4.10.7,
// where n is the number of distinct values the field may take (not a bit
// width).
func (r *Reader) NS(n uint32) (uint32, error) {
	if n <= 1 {
		return 0, nil
	}
	w := floorLog2(n) + 1
	m := (uint32(1) << uint(w)) - n
	v, err := r.ReadBits(int(w - 1))
	if err != nil {
		return 0, errors.Wrap(err, "ns(n): prefix")
	}
	if uint32(v) < m {
		return uint32(v), nil
	}
	extra, err := r.ReadBits(1)
	if err != nil {
		return 0, errors.Wrap(err, "ns(n): extra bit")
	}
	return uint32(v)<<1 - m + uint32(extra), nil
}

func floorLog2(n uint32) uint32 {
	var s uint32
	for n > 1 {
		n >>= 1
		s++
	}
	return s
}

// Leb128 reads a little-endian base-128 value as used for AV1 OBU sizes: up
// to 8 bytes, 7 payload bits each, high bit set means "continue". It returns
// the decoded value and the number of bytes consumed.
func (r *Reader) Leb128() (uint64, int, error) {
	var value uint64
	var i int
	for ; i < 8; i++ {
		b, err := r.ReadBits(8)
		if err != nil {
			return 0, i, errors.Wrap(err, "leb128()")
		}
		value |= (b & 0x7f) << uint(i*7)
		if b&0x80 == 0 {
			i++
			break
		}
	}
	return value, i, nil
}

// ByteAligned reports whether the cursor sits on a byte boundary.
func (r *Reader) ByteAligned() bool {
	return r.bits == 0
}

// ByteAlign advances the cursor to the next byte boundary, discarding the
// skipped bits.
func (r *Reader) ByteAlign() error {
	if r.bits == 0 {
		return nil
	}
	_, err := r.ReadBits(r.bits)
	return err
}

// Off returns the number of valid, unconsumed bits currently buffered from
// the current byte (0 on a byte boundary); bits already consumed from that
// byte are not counted.
func (r *Reader) Off() int {
	return r.bits
}

// BytesRead returns the number of whole bytes pulled from the underlying
// source so far.
func (r *Reader) BytesRead() int {
	return r.nRead
}

// MoreRBSPData implements more_rbsp_data(), true iff there is more RBSP
// data in the NAL payload beyond the rbsp_stop_one_bit and its trailing
// zeros. Used by the AVC PPS tail.
func (r *Reader) MoreRBSPData() bool {
	b, err := r.PeekBits(1)
	if err != nil {
		return false
	}
	if b == 0 {
		return true
	}

	// off is the number of bits already consumed from the current byte.
	off := (8 - r.Off()) % 8
	rem, err := r.PeekBits(8 - off)
	if err != nil {
		return false
	}
	stopPattern := uint64(1) << uint(7-off)
	if rem != stopPattern {
		return true
	}

	if _, err := r.PeekBits(9 - off); err != nil {
		return false
	}

	if v, err := r.PeekBits(8 - off + 24); err == nil {
		want := (uint64(1) << uint((7-off)+24)) | 1
		if v == want {
			return false
		}
	}
	if v, err := r.PeekBits(8 - off + 32); err == nil {
		want := (uint64(1) << uint((7-off)+32)) | 1
		if v == want {
			return false
		}
	}
	return true
}
