package avc

import (
	"github.com/pkg/errors"

	"github.com/ROCm/rocDecode-sub000/paramset"
)

// ParamSetStore holds every SPS/PPS an AVC session has received, keyed by
// id, grounded on the fixed-size id-indexed arrays described in spec.md
// §4.3 and the pic_width_/pic_height_/new_sps_activated_ fields in
// original_source/src/parser/roc_video_parser.h.
type ParamSetStore struct {
	sps         [paramset.MaxAVCSPS]*SPS
	spsReceived [paramset.MaxAVCSPS]bool
	pps         [paramset.MaxAVCPPS]*PPS
	ppsReceived [paramset.MaxAVCPPS]bool

	activation paramset.ActivationTracker
}

// ErrParamSetIDRange is returned when a parsed id falls outside the id
// space an array-backed ParamSetStore provides.
var ErrParamSetIDRange = errors.New("avc: parameter set id out of range")

// ErrParamSetNotReceived is a fatal parse error: a slice referenced a
// parameter set id this session never received.
var ErrParamSetNotReceived = errors.New("avc: referenced parameter set was never received")

// PutSPS stores a parsed SPS, replacing any previous content at its id.
func (s *ParamSetStore) PutSPS(sps *SPS) error {
	if sps.ID < 0 || sps.ID >= len(s.sps) {
		return errors.Wrapf(ErrParamSetIDRange, "sps id %d", sps.ID)
	}
	s.sps[sps.ID] = sps
	s.spsReceived[sps.ID] = true
	return nil
}

// PutPPS stores a parsed PPS, replacing any previous content at its id.
func (s *ParamSetStore) PutPPS(pps *PPS) error {
	if pps.ID < 0 || pps.ID >= len(s.pps) {
		return errors.Wrapf(ErrParamSetIDRange, "pps id %d", pps.ID)
	}
	s.pps[pps.ID] = pps
	s.ppsReceived[pps.ID] = true
	return nil
}

// SPS returns the SPS at id, or ErrParamSetNotReceived if it was never
// parsed from the bitstream.
func (s *ParamSetStore) SPS(id int) (*SPS, error) {
	if id < 0 || id >= len(s.sps) || !s.spsReceived[id] {
		return nil, errors.Wrapf(ErrParamSetNotReceived, "sps id %d", id)
	}
	return s.sps[id], nil
}

// PPS returns the PPS at id, or ErrParamSetNotReceived if it was never
// parsed from the bitstream.
func (s *ParamSetStore) PPS(id int) (*PPS, error) {
	if id < 0 || id >= len(s.pps) || !s.ppsReceived[id] {
		return nil, errors.Wrapf(ErrParamSetNotReceived, "pps id %d", id)
	}
	return s.pps[id], nil
}

// Activate records that sps is now the activated SPS and reports whether
// this constitutes a sequence-level change (new_sps_activated, spec.md
// §4.3), which the ParserCore must observe before the next decode
// callback.
func (s *ParamSetStore) Activate(sps *SPS) bool {
	return s.activation.Activate(sps.ID, paramset.Dimensions{
		Width:  sps.PicWidthInSamplesY(),
		Height: sps.PicHeightInSamplesY(),
	})
}
