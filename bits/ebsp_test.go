package bits

import "testing"

// insertEmulationBytes inserts 0x03 after every 00 00 {00|01|02|03} run, the
// inverse of StripEmulationPrevention, used to build the property test fixture
// spec.md §8 describes.
func insertEmulationBytes(p []byte) []byte {
	var out []byte
	zeros := 0
	for _, b := range p {
		if zeros >= 2 && b <= 0x03 {
			out = append(out, 0x03)
			zeros = 0
		}
		out = append(out, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}

func TestStripEmulationPreventionRoundTrip(t *testing.T) {
	cases := [][]byte{
		{0x00, 0x00, 0x00},
		{0x00, 0x00, 0x01, 0x02, 0x00, 0x00, 0x00, 0x00},
		{0x01, 0x02, 0x03, 0x00, 0x00, 0x03, 0x04},
		{},
		{0x00, 0x00, 0x01},
	}
	for _, p := range cases {
		ebsp := insertEmulationBytes(p)
		got, err := StripEmulationPrevention(ebsp)
		if err != nil {
			t.Fatalf("StripEmulationPrevention(%v): %v", ebsp, err)
		}
		if !equalBytes(got, p) {
			t.Errorf("strip(insert(%v)) = %v, want %v", p, got, p)
		}
	}
}

func TestStripEmulationPreventionRejectsBadByte(t *testing.T) {
	_, err := StripEmulationPrevention([]byte{0x00, 0x00, 0x03, 0x04})
	if err == nil {
		t.Fatal("expected error for emulation_prevention_three_byte followed by > 0x03")
	}
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
