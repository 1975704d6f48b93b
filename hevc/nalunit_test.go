package hevc

import "testing"

func TestParseNALHeader(t *testing.T) {
	// nal_unit_type = 33 (SPS), layer_id = 0, temporal_id_plus1 = 1.
	b := []byte{33 << 1, 1}
	h, err := ParseNALHeader(b)
	if err != nil {
		t.Fatalf("ParseNALHeader: %v", err)
	}
	if h.Type != NALUnitTypeSPS {
		t.Errorf("Type = %d, want %d", h.Type, NALUnitTypeSPS)
	}
	if h.LayerID != 0 {
		t.Errorf("LayerID = %d, want 0", h.LayerID)
	}
	if h.TemporalIDPlus1 != 1 {
		t.Errorf("TemporalIDPlus1 = %d, want 1", h.TemporalIDPlus1)
	}
}

func TestIsIRAPandIDR(t *testing.T) {
	if !IsIRAP(NALUnitTypeIDRWRADL) || !IsIDR(NALUnitTypeIDRWRADL) {
		t.Error("IDR_W_RADL should be both IRAP and IDR")
	}
	if IsIDR(NALUnitTypeCRA) {
		t.Error("CRA must not be classified as IDR")
	}
	if !IsIRAP(NALUnitTypeCRA) {
		t.Error("CRA must be classified as IRAP")
	}
	if IsIRAP(NALUnitTypeTrailR) {
		t.Error("TRAIL_R must not be classified as IRAP")
	}
}

func TestParseNALHeaderTooShort(t *testing.T) {
	if _, err := ParseNALHeader([]byte{0x42}); err != ErrShortNALHeader {
		t.Fatalf("err = %v, want ErrShortNALHeader", err)
	}
}
