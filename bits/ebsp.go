package bits

import "github.com/pkg/errors"

// ErrBadEmulationByte is returned by StripEmulationPrevention when an
// emulation_prevention_three_byte (0x03) is followed by a byte greater than
// 0x03, which the AVC/HEVC specifications forbid.
var ErrBadEmulationByte = errors.New("bits: emulation_prevention_three_byte followed by byte > 0x03")

// StripEmulationPrevention converts an AVC/HEVC encapsulated byte sequence
// payload (EBSP) into a raw byte sequence payload (RBSP) by removing every
// emulation_prevention_three_byte: whenever 00 00 03 occurs, the 03 is
// dropped. It is grounded on EbspToRbsp in
// original_source/src/parser/roc_video_parser.h.
func StripEmulationPrevention(ebsp []byte) ([]byte, error) {
	out := make([]byte, 0, len(ebsp))
	zeros := 0
	for i := 0; i < len(ebsp); i++ {
		b := ebsp[i]
		if zeros >= 2 && b == 0x03 {
			if i+1 < len(ebsp) && ebsp[i+1] > 0x03 {
				return nil, ErrBadEmulationByte
			}
			zeros = 0
			continue
		}
		out = append(out, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out, nil
}
