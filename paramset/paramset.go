// Package paramset holds the codec-agnostic bookkeeping shared by every
// SPS/PPS/VPS store: fixed parameter-set id-space limits and the
// resolution/activation-change detection a ParserCore uses to decide when
// to fire the sequence callback before the next decode callback.
//
// Each codec package (avc, hevc, av1) owns its own typed parameter-set
// arrays, since the VPS/SPS/PPS struct shapes are entirely codec-specific;
// this package only factors out what is genuinely common between them.
package paramset

// Per-codec parameter-set id-space sizes, per spec.md §3.2.
const (
	MaxAVCSPS = 32
	MaxAVCPPS = 256

	MaxHEVCVPS = 16
	MaxHEVCSPS = 16
	MaxHEVCPPS = 64
)

// Dimensions is a coded picture's width and height in luma samples, used to
// detect resolution changes across an activated SPS.
type Dimensions struct {
	Width  int
	Height int
}

// ActivationTracker watches the (sps_id, dimensions) pair activated by each
// parsed slice/frame header and reports whether a sequence-level change
// occurred, mirroring pic_width_/pic_height_/new_sps_activated_ in
// original_source/src/parser/roc_video_parser.h: the original parser
// updates those three fields together whenever a new SPS becomes active,
// and the ParserCore callback sequencing (spec.md §4.3/§4.9) reads
// new_sps_activated_ once per picture then clears it.
type ActivationTracker struct {
	activated bool
	spsID     int
	dims      Dimensions
}

// Activate records the SPS id and dimensions a newly parsed picture
// activates and reports whether this is a sequence-level change: either no
// SPS had been activated yet, the SPS id differs from the previously
// activated one, or the dimensions differ even under the same id (a
// conformant stream never does the latter, but the parser does not trust
// conformance).
func (t *ActivationTracker) Activate(spsID int, dims Dimensions) bool {
	changed := !t.activated || spsID != t.spsID || dims != t.dims
	t.activated = true
	t.spsID = spsID
	t.dims = dims
	return changed
}

// Dimensions returns the currently activated dimensions.
func (t *ActivationTracker) Dimensions() Dimensions {
	return t.dims
}
