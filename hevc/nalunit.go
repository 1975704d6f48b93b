// Package hevc parses the H.265/HEVC parameter-set, slice-segment-header,
// and reference-picture-set syntax a hardware decoder needs to configure
// itself and assemble per-picture reference lists. It deliberately stops
// short of a software decoder: no transform-unit residual, no intra/inter
// prediction, no in-loop filtering.
//
// Grounded on the H265 SPS/VUI field layout in
// other_examples/4bf402b8_bluenviron-gortsplib__pkg-codecs-h265-sps.go.go
// and the method/field names of original_source/src/parser/hevc_parser.h,
// reimplemented over this repository's own bits.Reader rather than the
// gortsplib package's positional buf/pos convention, to match the cursor
// idiom the avc package (itself grounded on ausocean-av/codec/h264/h264dec)
// already uses.
package hevc

import (
	"github.com/pkg/errors"
)

// NAL unit types, Table 7-1.
const (
	NALUnitTypeTrailN       = 0
	NALUnitTypeTrailR       = 1
	NALUnitTypeTSAN         = 2
	NALUnitTypeTSAR         = 3
	NALUnitTypeSTSAN        = 4
	NALUnitTypeSTSAR        = 5
	NALUnitTypeRADLN        = 6
	NALUnitTypeRADLR        = 7
	NALUnitTypeRASLN        = 8
	NALUnitTypeRASLR        = 9
	NALUnitTypeBLAWLP       = 16
	NALUnitTypeBLAWRADL     = 17
	NALUnitTypeBLANLP       = 18
	NALUnitTypeIDRWRADL     = 19
	NALUnitTypeIDRNLP       = 20
	NALUnitTypeCRA          = 21
	NALUnitTypeVPS          = 32
	NALUnitTypeSPS          = 33
	NALUnitTypePPS          = 34
	NALUnitTypeAUD          = 35
	NALUnitTypeEOS          = 36
	NALUnitTypeEOB          = 37
	NALUnitTypeFD           = 38
	NALUnitTypePrefixSEI    = 39
	NALUnitTypeSuffixSEI    = 40
)

// NALHeader is nal_unit_header(), section 7.3.1.2 (two bytes, unlike AVC's
// one).
type NALHeader struct {
	Type          uint8
	LayerID       uint8
	TemporalIDPlus1 uint8
}

var ErrShortNALHeader = errors.New("hevc: NAL unit too short for a 2-byte header")

func ParseNALHeader(b []byte) (NALHeader, error) {
	if len(b) < 2 {
		return NALHeader{}, ErrShortNALHeader
	}
	return NALHeader{
		Type:            (b[0] >> 1) & 0x3f,
		LayerID:         ((b[0] & 0x1) << 5) | (b[1] >> 3),
		TemporalIDPlus1: b[1] & 0x7,
	}, nil
}

// IsSlice reports whether t identifies a VCL (coded-slice) NAL unit,
// Table 7-1's ranges 0-9 and 16-21.
func IsSlice(t uint8) bool {
	return t <= NALUnitTypeRASLR || (t >= NALUnitTypeBLAWLP && t <= NALUnitTypeCRA)
}

// IsIRAP reports an intra random access point (BLA/IDR/CRA), section 3.1.
func IsIRAP(t uint8) bool {
	return t >= NALUnitTypeBLAWLP && t <= NALUnitTypeCRA
}

// IsIDR reports an IDR picture specifically.
func IsIDR(t uint8) bool {
	return t == NALUnitTypeIDRWRADL || t == NALUnitTypeIDRNLP
}

// IsBLA reports a broken-link-access picture.
func IsBLA(t uint8) bool {
	return t >= NALUnitTypeBLAWLP && t <= NALUnitTypeBLANLP
}

// IsRASL reports a leading picture dropped on output until the next CRA
// resolves its references (RASL_N / RASL_R).
func IsRASL(t uint8) bool {
	return t == NALUnitTypeRASLN || t == NALUnitTypeRASLR
}

// IsRADL reports a random-access decodable leading picture.
func IsRADL(t uint8) bool {
	return t == NALUnitTypeRADLN || t == NALUnitTypeRADLR
}

// IsSubLayerNonReference reports a _N-suffixed type (TRAIL_N, TSA_N, ...):
// never used as a reference by a picture of the same or a higher temporal
// sub-layer.
func IsSubLayerNonReference(t uint8) bool {
	switch t {
	case NALUnitTypeTrailN, NALUnitTypeTSAN, NALUnitTypeSTSAN, NALUnitTypeRADLN, NALUnitTypeRASLN:
		return true
	}
	return false
}
