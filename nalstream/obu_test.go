package nalstream

import (
	"bytes"
	"testing"
)

// obuHeader builds a minimal OBU: type, no extension, has_size_field=1,
// followed by a 1-byte leb128 size and payload.
func obuHeader(obuType uint8, payload []byte) []byte {
	header := byte(obuType<<3) | 0x02 // obu_has_size_field bit
	return append([]byte{header, byte(len(payload))}, payload...)
}

func TestSplitOBUsBasic(t *testing.T) {
	var data []byte
	data = append(data, obuHeader(OBUTemporalDelimiter, nil)...)
	data = append(data, obuHeader(OBUSequenceHeader, []byte{0xaa, 0xbb, 0xcc})...)
	data = append(data, obuHeader(OBUFrame, []byte{0x01, 0x02})...)

	obus, err := SplitOBUs(data)
	if err != nil {
		t.Fatalf("SplitOBUs: %v", err)
	}
	if len(obus) != 3 {
		t.Fatalf("got %d OBUs, want 3", len(obus))
	}
	if obus[0].Type != OBUTemporalDelimiter || obus[0].Size != 0 {
		t.Errorf("obu[0] = %+v", obus[0])
	}
	if obus[1].Type != OBUSequenceHeader || !bytes.Equal(obus[1].Bytes(data), []byte{0xaa, 0xbb, 0xcc}) {
		t.Errorf("obu[1] = %+v, bytes %v", obus[1], obus[1].Bytes(data))
	}
	if obus[2].Type != OBUFrame || !bytes.Equal(obus[2].Bytes(data), []byte{0x01, 0x02}) {
		t.Errorf("obu[2] = %+v, bytes %v", obus[2], obus[2].Bytes(data))
	}
}

func TestSplitOBUsRejectsMissingSizeField(t *testing.T) {
	// has_size_field bit cleared.
	data := []byte{byte(OBUTemporalDelimiter << 3), 0x00}
	_, err := SplitOBUs(data)
	if err != ErrNoSizeField {
		t.Fatalf("got err %v, want ErrNoSizeField", err)
	}
}

func TestSplitOBUsExtensionHeader(t *testing.T) {
	// type=OBUFrame, extension_flag=1, has_size_field=1, temporal_id=5, spatial_id=1.
	header := byte(OBUFrame<<3) | 0x04 | 0x02
	ext := byte(5<<5) | byte(1<<3)
	data := []byte{header, ext, 0x02, 0xde, 0xad}
	obus, err := SplitOBUs(data)
	if err != nil {
		t.Fatalf("SplitOBUs: %v", err)
	}
	if len(obus) != 1 {
		t.Fatalf("got %d OBUs, want 1", len(obus))
	}
	o := obus[0]
	if o.TemporalID != 5 || o.SpatialID != 1 {
		t.Errorf("obu = %+v, want temporal_id=5 spatial_id=1", o)
	}
	if !bytes.Equal(o.Bytes(data), []byte{0xde, 0xad}) {
		t.Errorf("payload = %v", o.Bytes(data))
	}
}
