// Package av1 parses the AV1 sequence-header, frame-header, and
// reference-selection syntax a hardware decoder needs to configure itself
// and assemble per-frame reference lists. Tile group payload bytes are
// handed through untouched; no transform/prediction/loop-filter decode.
//
// Grounded on the teacher's sticky-error bit-reader idiom (each field read
// checked immediately, wrapped with context) applied to the OBU/sequence/
// frame-header wire layout and method names of
// original_source/src/parser/av1_parser.h (ParseSequenceHeaderObu,
// ParseUncompressedHeader, SetFrameRefs, FindLatestBackward,
// FindEarliestBackward, FindLatestForward, ComputeImageSize) — no pack
// example parses AV1 at all.
package av1

import "github.com/pkg/errors"

// OBU types, section 6.2.2.
const (
	OBUSequenceHeader       = 1
	OBUTemporalDelimiter    = 2
	OBUFrameHeader          = 3
	OBUTileGroup            = 4
	OBUMetadata             = 5
	OBUFrame                = 6
	OBURedundantFrameHeader = 7
	OBUTileList             = 8
	OBUPadding              = 15
)

// Reference frame slots, section 6.10.24 / Table in 6.8.2.
const (
	RefIntraFrame = 0
	RefLastFrame  = 1
	RefLast2Frame = 2
	RefLast3Frame = 3
	RefGoldenFrame = 4
	RefBwdRefFrame = 5
	RefAltRef2Frame = 6
	RefAltRefFrame = 7

	NumRefFrames   = 8
	RefsPerFrame   = 7
	PrimaryRefNone = 7
)

// Frame types, section 6.8.2.
const (
	FrameTypeKey       = 0
	FrameTypeInter     = 1
	FrameTypeIntraOnly = 2
	FrameTypeSwitch    = 3
)

// Header is obu_header(), section 5.3.2.
type Header struct {
	Type           uint8
	ExtensionFlag  bool
	HasSizeField   bool
	TemporalID     uint8
	SpatialID      uint8
	HeaderSize     int // 1 or 2 bytes: the header byte plus the optional extension byte
}

var ErrMissingSizeField = errors.New("av1: obu_has_size_field must be 1")

// ParseOBUHeader parses obu_header(), rejecting has_size_field=0 as the
// specification's bitstream-conformance requirement demands.
func ParseOBUHeader(b []byte) (Header, error) {
	if len(b) < 1 {
		return Header{}, errors.New("av1: OBU header truncated")
	}
	if b[0]&0x80 != 0 {
		return Header{}, errors.New("av1: obu_forbidden_bit must be 0")
	}
	h := Header{
		Type:          (b[0] >> 3) & 0xf,
		ExtensionFlag: b[0]&0x04 != 0,
		HasSizeField:  b[0]&0x02 != 0,
		HeaderSize:    1,
	}
	if !h.HasSizeField {
		return Header{}, ErrMissingSizeField
	}
	if b[0]&0x01 != 0 {
		return Header{}, errors.New("av1: obu_reserved_1bit must be 0")
	}
	if h.ExtensionFlag {
		if len(b) < 2 {
			return Header{}, errors.New("av1: OBU extension header truncated")
		}
		h.TemporalID = (b[1] >> 5) & 0x7
		h.SpatialID = (b[1] >> 3) & 0x3
		if b[1]&0x07 != 0 {
			return Header{}, errors.New("av1: extension_header_reserved_3bits must be 0")
		}
		h.HeaderSize = 2
	}
	return h, nil
}
