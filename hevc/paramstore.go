package hevc

import (
	"github.com/pkg/errors"

	"github.com/ROCm/rocDecode-sub000/paramset"
)

// VPS is a parsed video parameter set, section 7.3.2.1. Only the id is
// kept, to key storage; no forwarded decode-configuration field depends on
// VPS contents beyond its presence.
type VPS struct {
	ID int
}

// ErrParamSetIDRange and ErrParamSetNotReceived mirror avc's ParamSetStore
// errors for the HEVC id space (VPS/SPS/PPS all share the pack's
// MaxHEVC* constants, section 7.4.3.1/7.4.3.2/7.4.3.3's id ranges).
var (
	ErrParamSetIDRange    = errors.New("hevc: parameter set id out of range")
	ErrParamSetNotReceived = errors.New("hevc: referenced parameter set was never received")
)

// ParamSetStore holds every VPS/SPS/PPS an HEVC session has received.
type ParamSetStore struct {
	vps         [paramset.MaxHEVCVPS]*VPS
	vpsReceived [paramset.MaxHEVCVPS]bool
	sps         [paramset.MaxHEVCSPS]*SPS
	spsReceived [paramset.MaxHEVCSPS]bool
	pps         [paramset.MaxHEVCPPS]*PPS
	ppsReceived [paramset.MaxHEVCPPS]bool

	activation paramset.ActivationTracker
}

func (s *ParamSetStore) PutVPS(vps *VPS) error {
	if vps.ID < 0 || vps.ID >= len(s.vps) {
		return errors.Wrapf(ErrParamSetIDRange, "vps id %d", vps.ID)
	}
	s.vps[vps.ID] = vps
	s.vpsReceived[vps.ID] = true
	return nil
}

func (s *ParamSetStore) PutSPS(sps *SPS) error {
	if sps.ID < 0 || sps.ID >= len(s.sps) {
		return errors.Wrapf(ErrParamSetIDRange, "sps id %d", sps.ID)
	}
	s.sps[sps.ID] = sps
	s.spsReceived[sps.ID] = true
	return nil
}

func (s *ParamSetStore) PutPPS(pps *PPS) error {
	if pps.ID < 0 || pps.ID >= len(s.pps) {
		return errors.Wrapf(ErrParamSetIDRange, "pps id %d", pps.ID)
	}
	s.pps[pps.ID] = pps
	s.ppsReceived[pps.ID] = true
	return nil
}

func (s *ParamSetStore) SPS(id int) (*SPS, error) {
	if id < 0 || id >= len(s.sps) || !s.spsReceived[id] {
		return nil, errors.Wrapf(ErrParamSetNotReceived, "sps id %d", id)
	}
	return s.sps[id], nil
}

func (s *ParamSetStore) PPS(id int) (*PPS, error) {
	if id < 0 || id >= len(s.pps) || !s.ppsReceived[id] {
		return nil, errors.Wrapf(ErrParamSetNotReceived, "pps id %d", id)
	}
	return s.pps[id], nil
}

func (s *ParamSetStore) VPS(id int) (*VPS, error) {
	if id < 0 || id >= len(s.vps) || !s.vpsReceived[id] {
		return nil, errors.Wrapf(ErrParamSetNotReceived, "vps id %d", id)
	}
	return s.vps[id], nil
}

// Activate records sps as the activated SPS and reports whether this is a
// sequence-level change, matching avc.ParamSetStore.Activate.
func (s *ParamSetStore) Activate(sps *SPS) bool {
	return s.activation.Activate(sps.ID, paramset.Dimensions{
		Width:  sps.Width(),
		Height: sps.Height(),
	})
}
