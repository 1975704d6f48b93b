package nalstream

import (
	"bytes"
	"testing"
)

func TestSplitAnnexBBasic(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 0x01, 0x67, 0xaa, 0xbb, // SPS-like NAL, 4-byte start code
		0x00, 0x00, 0x01, 0x68, 0xcc, // PPS-like NAL, 3-byte start code
		0x00, 0x00, 0x01, 0x65, 0xdd, 0xee, 0xff, // slice NAL
	}
	units := SplitAnnexB(data)
	if len(units) != 3 {
		t.Fatalf("got %d units, want 3", len(units))
	}
	want := [][]byte{
		{0x67, 0xaa, 0xbb},
		{0x68, 0xcc},
		{0x65, 0xdd, 0xee, 0xff},
	}
	for i, u := range units {
		if !bytes.Equal(u.Bytes(data), want[i]) {
			t.Errorf("unit %d = %v, want %v", i, u.Bytes(data), want[i])
		}
	}
}

func TestSplitAnnexBNoStartCode(t *testing.T) {
	if units := SplitAnnexB([]byte{0x01, 0x02, 0x03}); units != nil {
		t.Errorf("expected no units, got %v", units)
	}
}

func TestSplitAnnexBTrailingZeros(t *testing.T) {
	// A NAL unit's RBSP commonly ends with cabac_zero_word padding; the
	// framer must not mistake embedded zero runs for a start code unless
	// followed by the 0x01 byte.
	data := []byte{0x00, 0x00, 0x01, 0x65, 0x00, 0x00, 0x00, 0x00}
	units := SplitAnnexB(data)
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
	if !bytes.Equal(units[0].Bytes(data), []byte{0x65, 0x00, 0x00, 0x00, 0x00}) {
		t.Errorf("unit = %v", units[0].Bytes(data))
	}
}
