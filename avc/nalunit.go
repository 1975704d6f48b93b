// Package avc implements AVC (H.264) parameter-set, slice-header, picture
// order count, reference picture marking, and reference-list-construction
// parsing, producing the fields a hardware decoder needs without
// reconstructing any sample data.
//
// It is grounded on github.com/ausocean/av/codec/h264/h264dec, generalized
// from a full software decoder (which also does CAVLC/CABAC residual
// decoding this package has no use for) down to the syntax-parsing and
// reference-management subset a parameter extractor needs.
package avc

// NAL unit types referenced by this package, Table 7-1.
const (
	NALUnitTypeSliceNonIDR  = 1
	NALUnitTypeSliceDPA     = 2
	NALUnitTypeSliceDPB     = 3
	NALUnitTypeSliceDPC     = 4
	NALUnitTypeSliceIDR     = 5
	NALUnitTypeSEI          = 6
	NALUnitTypeSPS          = 7
	NALUnitTypePPS          = 8
	NALUnitTypeAUD          = 9
	NALUnitTypeEndOfSeq     = 10
	NALUnitTypeEndOfStream  = 11
	NALUnitTypeFiller       = 12
	NALUnitTypeSPSExt       = 13
	NALUnitTypePrefix       = 14
	NALUnitTypeSubsetSPS    = 15
	NALUnitTypeAuxSlice     = 19
	NALUnitTypeSliceExt     = 20
)

// NALHeader is the one-byte AVC NAL unit header, section 7.3.1.
type NALHeader struct {
	RefIDC uint8 // nal_ref_idc
	Type   uint8 // nal_unit_type
}

// ParseNALHeader reads the NAL header byte. The caller has already stripped
// the Annex-B start code; b[0] is the NAL header.
func ParseNALHeader(b byte) NALHeader {
	return NALHeader{
		RefIDC: (b >> 5) & 0x03,
		Type:   b & 0x1f,
	}
}

// IsSlice reports whether t is one of the slice NAL unit types this package
// parses a slice header from.
func IsSlice(t uint8) bool {
	switch t {
	case NALUnitTypeSliceNonIDR, NALUnitTypeSliceIDR, NALUnitTypeAuxSlice:
		return true
	default:
		return false
	}
}

// IsIDR reports whether t is an IDR slice NAL unit type.
func IsIDR(t uint8) bool {
	return t == NALUnitTypeSliceIDR
}
