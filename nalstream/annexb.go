// Package nalstream splits an incoming packet into NAL units (AVC/HEVC
// Annex-B byte streams) or OBUs (AV1), grounded on the NAL-scanning loop in
// github.com/ausocean/av/codec/h264/h264dec/read.go (H264Reader.readNalUnit)
// and the wire layout in spec.md §4.2.
package nalstream

import "github.com/pkg/errors"

// Unit is one AVC/HEVC NAL unit found in an Annex-B byte stream: a span of
// the input buffer starting immediately after its start code, running up to
// (but not including) the next start code or the end of the buffer.
type Unit struct {
	Offset int
	Size   int
}

// Bytes returns the unit's payload (the NAL header and RBSP, still with
// emulation prevention bytes present) from the source buffer data.
func (u Unit) Bytes(data []byte) []byte {
	return data[u.Offset : u.Offset+u.Size]
}

// SplitAnnexB scans data for Annex-B start codes ("00 00 01" preceded by any
// number >= 0 of additional zero bytes, i.e. "00 00 00 01" is also a valid
// start code) and returns the span of each NAL unit between consecutive
// start codes. A buffer with no start code yields no units.
func SplitAnnexB(data []byte) []Unit {
	starts := findStartCodes(data)
	if len(starts) == 0 {
		return nil
	}
	units := make([]Unit, 0, len(starts))
	for i, s := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1].codeOffset
		}
		if s.unitOffset >= end {
			continue
		}
		units = append(units, Unit{Offset: s.unitOffset, Size: end - s.unitOffset})
	}
	return units
}

type startCode struct {
	codeOffset int // offset of the first 0x00 of the start code.
	unitOffset int // offset of the first byte of NAL unit data after the start code.
}

// findStartCodes locates every "00 00 01" start code in data, reporting
// where the NAL unit payload following it begins. This mirrors the
// start_code_num_ bookkeeping in
// original_source/src/parser/roc_video_parser.h (curr_start_code_offset_ /
// next_start_code_offset_): the first start code marks the beginning of the
// first NAL unit rather than the end of a preceding one.
func findStartCodes(data []byte) []startCode {
	var codes []startCode
	for i := 0; i+2 < len(data); i++ {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
			codes = append(codes, startCode{codeOffset: i, unitOffset: i + 3})
			i += 2
		}
	}
	return codes
}

// ErrNoStartCode is returned when a buffer expected to carry at least one
// Annex-B start code has none.
var ErrNoStartCode = errors.New("nalstream: no Annex-B start code found")
