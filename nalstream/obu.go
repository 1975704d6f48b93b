package nalstream

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/ROCm/rocDecode-sub000/bits"
)

// OBU type values, AV1 section 6.2.2.
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

// OBU is one open bitstream unit found in a temporal unit's payload.
type OBU struct {
	Type          uint8
	ExtensionFlag bool
	TemporalID    uint8
	SpatialID     uint8
	HeaderLen     int
	Offset        int // offset of the OBU payload (after header and size field) within the source buffer.
	Size          int // length of the OBU payload.
}

// Bytes returns the OBU's payload from the source buffer data.
func (o OBU) Bytes(data []byte) []byte {
	return data[o.Offset : o.Offset+o.Size]
}

// ErrNoSizeField is returned when an OBU header has obu_has_size_field == 0.
// Per spec.md §4.2, a parser fed a low-overhead bitstream without a length
// framing layer of its own cannot locate the next OBU and must fail fatally
// rather than guess.
var ErrNoSizeField = errors.New("nalstream: obu_has_size_field must be 1")

// SplitOBUs parses every OBU in a temporal unit's payload, grounded on the
// obu_header()/leb128() syntax in original_source/src/parser/av1_parser.h
// (ParseObuHeaderAndSize) and spec.md §4.2's wire description.
func SplitOBUs(data []byte) ([]OBU, error) {
	var obus []OBU
	off := 0
	for off < len(data) {
		r := bits.NewReader(bytes.NewReader(data[off:]))

		if _, err := r.U(1); err != nil { // obu_forbidden_bit
			return nil, errors.Wrap(err, "obu_header")
		}
		obuType, err := r.U(4)
		if err != nil {
			return nil, errors.Wrap(err, "obu_type")
		}
		extFlag, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "obu_extension_flag")
		}
		hasSize, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "obu_has_size_field")
		}
		if _, err := r.U(1); err != nil { // obu_reserved_1bit
			return nil, errors.Wrap(err, "obu_reserved_1bit")
		}
		if !hasSize {
			return nil, ErrNoSizeField
		}

		var temporalID, spatialID uint8
		if extFlag {
			tid, err := r.U(3)
			if err != nil {
				return nil, errors.Wrap(err, "temporal_id")
			}
			sid, err := r.U(2)
			if err != nil {
				return nil, errors.Wrap(err, "spatial_id")
			}
			if _, err := r.U(3); err != nil { // extension_header_reserved_3bits
				return nil, errors.Wrap(err, "extension_header_reserved_3bits")
			}
			temporalID, spatialID = uint8(tid), uint8(sid)
		}

		size, sizeLen, err := r.Leb128()
		if err != nil {
			return nil, errors.Wrap(err, "obu_size")
		}

		headerLen := 1 + sizeLen
		if extFlag {
			headerLen++
		}
		payloadOff := off + headerLen
		if payloadOff+int(size) > len(data) {
			return nil, errors.Errorf("nalstream: OBU at offset %d claims size %d beyond buffer", off, size)
		}

		obus = append(obus, OBU{
			Type:          uint8(obuType),
			ExtensionFlag: extFlag,
			TemporalID:    temporalID,
			SpatialID:     spatialID,
			HeaderLen:     headerLen,
			Offset:        payloadOff,
			Size:          int(size),
		})
		off = payloadOff + int(size)
	}
	return obus, nil
}
