package av1

import "testing"

func TestParseOBUHeaderNoExtension(t *testing.T) {
	b := newBitBuilder()
	b.flag(false)       // obu_forbidden_bit
	b.u(4, OBUSequenceHeader)
	b.flag(false) // obu_extension_flag
	b.flag(true)  // obu_has_size_field
	b.flag(false) // obu_reserved_1bit

	h, err := ParseOBUHeader(b.bytes())
	if err != nil {
		t.Fatalf("ParseOBUHeader: %v", err)
	}
	if h.Type != OBUSequenceHeader {
		t.Errorf("Type = %d, want %d", h.Type, OBUSequenceHeader)
	}
	if h.HeaderSize != 1 {
		t.Errorf("HeaderSize = %d, want 1", h.HeaderSize)
	}
}

func TestParseOBUHeaderWithExtension(t *testing.T) {
	b := newBitBuilder()
	b.flag(false)
	b.u(4, OBUFrame)
	b.flag(true) // extension_flag
	b.flag(true)
	b.flag(false)
	b.u(3, 2) // temporal_id
	b.u(2, 1) // spatial_id
	b.u(3, 0) // reserved

	h, err := ParseOBUHeader(b.bytes())
	if err != nil {
		t.Fatalf("ParseOBUHeader: %v", err)
	}
	if h.TemporalID != 2 || h.SpatialID != 1 {
		t.Errorf("TemporalID/SpatialID = %d/%d, want 2/1", h.TemporalID, h.SpatialID)
	}
	if h.HeaderSize != 2 {
		t.Errorf("HeaderSize = %d, want 2", h.HeaderSize)
	}
}

func TestParseOBUHeaderRejectsMissingSizeField(t *testing.T) {
	b := newBitBuilder()
	b.flag(false)
	b.u(4, OBUSequenceHeader)
	b.flag(false)
	b.flag(false) // obu_has_size_field = 0
	b.flag(false)

	if _, err := ParseOBUHeader(b.bytes()); err != ErrMissingSizeField {
		t.Fatalf("err = %v, want ErrMissingSizeField", err)
	}
}
