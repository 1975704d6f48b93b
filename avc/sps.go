package avc

import (
	"bytes"

	"github.com/pkg/errors"

	gobits "github.com/ROCm/rocDecode-sub000/bits"
)

// Chroma format values, Table 6-1.
const (
	ChromaMonochrome = 0
	Chroma420        = 1
	Chroma422        = 2
	Chroma444        = 3
)

// Default scaling matrices, Tables 7-3/7-4, grounded on
// ausocean-av/codec/h264/h264dec/sps.go's DefaultScalingMatrix4x4/8x8.
var (
	defaultScaling4x4Intra = []int{6, 13, 13, 20, 20, 20, 38, 38, 38, 38, 32, 32, 32, 37, 37, 42}
	defaultScaling4x4Inter = []int{10, 14, 14, 20, 20, 20, 24, 24, 24, 24, 27, 27, 27, 30, 30, 34}
	defaultScaling8x8Intra = []int{
		6, 10, 10, 13, 11, 13, 16, 16, 16, 16, 18, 18, 18, 18, 18, 23,
		23, 23, 23, 23, 23, 25, 25, 25, 25, 25, 25, 25, 27, 27, 27, 27,
		27, 27, 27, 27, 29, 29, 29, 29, 29, 29, 29, 31, 31, 31, 31, 31,
		31, 33, 33, 33, 33, 33, 36, 36, 36, 36, 38, 38, 38, 40, 40, 42}
	defaultScaling8x8Inter = []int{
		9, 13, 13, 15, 13, 15, 17, 17, 17, 17, 19, 19, 19, 19, 19, 21,
		21, 21, 21, 21, 21, 22, 22, 22, 22, 22, 22, 22, 24, 24, 24, 24,
		24, 24, 24, 24, 25, 25, 25, 25, 25, 25, 25, 27, 27, 27, 27, 27,
		27, 28, 28, 28, 28, 28, 30, 30, 30, 30, 32, 32, 32, 33, 33, 35}
)

// profilesWithChromaExtension lists the profile_idc values for which the SPS
// carries chroma_format_idc through the seq_scaling_matrix fields, Annex A.2.
var profilesWithChromaExtension = map[uint8]bool{
	100: true, 110: true, 122: true, 244: true, 44: true,
	83: true, 86: true, 118: true, 128: true, 138: true, 139: true, 134: true, 135: true,
}

// SPS is a parsed sequence parameter set, section 7.3.2.1.1.
type SPS struct {
	Profile    uint8
	Constraint [6]bool
	LevelIDC   uint8

	ID              int
	ChromaFormatIDC int
	SeparateColorPlane bool

	BitDepthLumaMinus8   int
	BitDepthChromaMinus8 int

	QPPrimeYZeroTransformBypass bool
	SeqScalingMatrixPresent     bool
	ScalingList4x4              [6][]int
	ScalingList8x8              [6][]int
	UseDefaultScaling4x4        [6]bool
	UseDefaultScaling8x8        [6]bool

	Log2MaxFrameNumMinus4 int
	PicOrderCountType     int

	Log2MaxPicOrderCntLSBMinus4 int
	DeltaPicOrderAlwaysZero     bool
	OffsetForNonRefPic          int
	OffsetForTopToBottomField   int
	OffsetForRefFrame           []int

	MaxNumRefFrames              int
	GapsInFrameNumValueAllowed   bool
	PicWidthInMBSMinus1          int
	PicHeightInMapUnitsMinus1    int
	FrameMBSOnly                 bool
	MBAdaptiveFrameField         bool
	Direct8x8Inference           bool

	FrameCropping     bool
	FrameCropLeft     int
	FrameCropRight    int
	FrameCropTop      int
	FrameCropBottom   int

	VUIParametersPresent bool
	VUI                  *VUIParameters
}

// PicWidthInSamplesY is the frame width in luma samples, eq 7-13.
func (s *SPS) PicWidthInSamplesY() int {
	return (s.PicWidthInMBSMinus1 + 1) * 16
}

// FrameHeightInMBS is the frame height in macroblock rows, eq 7-18.
func (s *SPS) FrameHeightInMBS() int {
	mul := 1
	if !s.FrameMBSOnly {
		mul = 2
	}
	return mul * (s.PicHeightInMapUnitsMinus1 + 1)
}

// PicHeightInSamplesY is the frame height in luma samples.
func (s *SPS) PicHeightInSamplesY() int {
	return s.FrameHeightInMBS() * 16
}

// MaxFrameNum is MaxFrameNum, eq 7-10.
func (s *SPS) MaxFrameNum() int {
	return 1 << uint(s.Log2MaxFrameNumMinus4+4)
}

// MaxPicOrderCntLSB is MaxPicOrderCntLsb, eq 7-11.
func (s *SPS) MaxPicOrderCntLSB() int {
	return 1 << uint(s.Log2MaxPicOrderCntLSBMinus4+4)
}

// ChromaArrayType is 0 when separate_colour_plane_flag is set, otherwise
// chroma_format_idc.
func (s *SPS) ChromaArrayType() int {
	if s.SeparateColorPlane {
		return 0
	}
	return s.ChromaFormatIDC
}

// SubWidthHeightC returns SubWidthC/SubHeightC, Table 6-1. ok is false for
// formats with no defined chroma subsampling factor (monochrome, or any
// chroma_format_idc outside 1..3).
func SubWidthHeightC(chromaFormatIDC int) (subW, subH int, ok bool) {
	switch chromaFormatIDC {
	case Chroma420:
		return 2, 2, true
	case Chroma422:
		return 2, 1, true
	case Chroma444:
		return 1, 1, true
	default:
		return 0, 0, false
	}
}

// ParseSPS parses a sequence parameter set RBSP, section 7.3.2.1.1.
func ParseSPS(rbsp []byte) (*SPS, error) {
	r := gobits.NewReader(bytes.NewReader(rbsp))
	s := &SPS{}

	profile, err := r.U(8)
	if err != nil {
		return nil, errors.Wrap(err, "profile_idc")
	}
	s.Profile = uint8(profile)
	for i := range s.Constraint {
		f, err := r.Flag()
		if err != nil {
			return nil, errors.Wrapf(err, "constraint_set%d_flag", i)
		}
		s.Constraint[i] = f
	}
	if _, err := r.U(2); err != nil { // reserved_zero_2bits
		return nil, errors.Wrap(err, "reserved_zero_2bits")
	}
	level, err := r.U(8)
	if err != nil {
		return nil, errors.Wrap(err, "level_idc")
	}
	s.LevelIDC = uint8(level)

	id, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "seq_parameter_set_id")
	}
	s.ID = int(id)
	s.ChromaFormatIDC = Chroma420

	if profilesWithChromaExtension[s.Profile] {
		cf, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "chroma_format_idc")
		}
		s.ChromaFormatIDC = int(cf)

		if s.ChromaFormatIDC == Chroma444 {
			scp, err := r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "separate_colour_plane_flag")
			}
			s.SeparateColorPlane = scp
		}

		bdl, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "bit_depth_luma_minus8")
		}
		s.BitDepthLumaMinus8 = int(bdl)

		bdc, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "bit_depth_chroma_minus8")
		}
		s.BitDepthChromaMinus8 = int(bdc)

		bypass, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "qpprime_y_zero_transform_bypass_flag")
		}
		s.QPPrimeYZeroTransformBypass = bypass

		present, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "seq_scaling_matrix_present_flag")
		}
		s.SeqScalingMatrixPresent = present

		if s.SeqScalingMatrixPresent {
			n := 8
			if s.ChromaFormatIDC == Chroma444 {
				n = 12
			}
			for i := 0; i < n; i++ {
				listPresent, err := r.Flag()
				if err != nil {
					return nil, errors.Wrapf(err, "seq_scaling_list_present_flag[%d]", i)
				}
				if !listPresent {
					continue
				}
				if i < 6 {
					list, useDefault, err := parseScalingList(r, 16)
					if err != nil {
						return nil, errors.Wrapf(err, "scaling_list 4x4[%d]", i)
					}
					s.ScalingList4x4[i] = list
					s.UseDefaultScaling4x4[i] = useDefault
				} else {
					list, useDefault, err := parseScalingList(r, 64)
					if err != nil {
						return nil, errors.Wrapf(err, "scaling_list 8x8[%d]", i-6)
					}
					s.ScalingList8x8[i-6] = list
					s.UseDefaultScaling8x8[i-6] = useDefault
				}
			}
		}
	}
	applyDefaultScalingLists(s)

	v, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "log2_max_frame_num_minus4")
	}
	s.Log2MaxFrameNumMinus4 = int(v)

	poc, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "pic_order_cnt_type")
	}
	s.PicOrderCountType = int(poc)

	switch s.PicOrderCountType {
	case 0:
		v, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "log2_max_pic_order_cnt_lsb_minus4")
		}
		s.Log2MaxPicOrderCntLSBMinus4 = int(v)
	case 1:
		f, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "delta_pic_order_always_zero_flag")
		}
		s.DeltaPicOrderAlwaysZero = f

		off1, err := r.SE()
		if err != nil {
			return nil, errors.Wrap(err, "offset_for_non_ref_pic")
		}
		s.OffsetForNonRefPic = int(off1)

		off2, err := r.SE()
		if err != nil {
			return nil, errors.Wrap(err, "offset_for_top_to_bottom_field")
		}
		s.OffsetForTopToBottomField = int(off2)

		n, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "num_ref_frames_in_pic_order_cnt_cycle")
		}
		s.OffsetForRefFrame = make([]int, n)
		for i := range s.OffsetForRefFrame {
			o, err := r.SE()
			if err != nil {
				return nil, errors.Wrapf(err, "offset_for_ref_frame[%d]", i)
			}
			s.OffsetForRefFrame[i] = int(o)
		}
	}

	maxRef, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "max_num_ref_frames")
	}
	s.MaxNumRefFrames = int(maxRef)

	gaps, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "gaps_in_frame_num_value_allowed_flag")
	}
	s.GapsInFrameNumValueAllowed = gaps

	w, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "pic_width_in_mbs_minus1")
	}
	s.PicWidthInMBSMinus1 = int(w)

	h, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "pic_height_in_map_units_minus1")
	}
	s.PicHeightInMapUnitsMinus1 = int(h)

	fmbs, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "frame_mbs_only_flag")
	}
	s.FrameMBSOnly = fmbs

	if !s.FrameMBSOnly {
		maff, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "mb_adaptive_frame_field_flag")
		}
		s.MBAdaptiveFrameField = maff
	}

	di, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "direct_8x8_inference_flag")
	}
	s.Direct8x8Inference = di

	fc, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "frame_cropping_flag")
	}
	s.FrameCropping = fc
	if s.FrameCropping {
		l, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "frame_crop_left_offset")
		}
		s.FrameCropLeft = int(l)
		rt, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "frame_crop_right_offset")
		}
		s.FrameCropRight = int(rt)
		t, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "frame_crop_top_offset")
		}
		s.FrameCropTop = int(t)
		b, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "frame_crop_bottom_offset")
		}
		s.FrameCropBottom = int(b)
	}

	vp, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "vui_parameters_present_flag")
	}
	s.VUIParametersPresent = vp
	if s.VUIParametersPresent {
		vui, err := parseVUIParameters(r)
		if err != nil {
			return nil, errors.Wrap(err, "vui_parameters")
		}
		s.VUI = vui
	}

	return s, nil
}

// parseScalingList implements the scaling_list() syntax, section 7.3.2.1.1.1,
// grounded on ausocean-av/codec/h264/h264dec/sps.go's scalingList, corrected
// to allocate and return its own list (the teacher's version mutated a
// caller-provided default-matrix slice in place).
func parseScalingList(r *gobits.Reader, size int) (list []int, useDefault bool, err error) {
	list = make([]int, size)
	lastScale, nextScale := 8, 8
	for i := 0; i < size; i++ {
		if nextScale != 0 {
			delta, err := r.SE()
			if err != nil {
				return nil, false, errors.Wrapf(err, "delta_scale[%d]", i)
			}
			nextScale = (lastScale + int(delta) + 256) % 256
			if i == 0 && nextScale == 0 {
				useDefault = true
			}
		}
		if nextScale == 0 {
			list[i] = lastScale
		} else {
			list[i] = nextScale
		}
		lastScale = list[i]
	}
	return list, useDefault, nil
}

// applyDefaultScalingLists fills in fall-back-rule-A defaults (Table 7-2)
// for any scaling list never signalled in the bitstream. Fall-back rule B
// (inheriting from a previous list) is not modeled since this parser has no
// need to fully reconstruct transform coefficients; every unsignalled or
// use_default list resolves straight to the spec's flat/default tables,
// which is sufficient for the decoder parameters this package forwards.
func applyDefaultScalingLists(s *SPS) {
	for i := 0; i < 6; i++ {
		if s.ScalingList4x4[i] == nil || s.UseDefaultScaling4x4[i] {
			if i < 3 {
				s.ScalingList4x4[i] = defaultScaling4x4Intra
			} else {
				s.ScalingList4x4[i] = defaultScaling4x4Inter
			}
		}
	}
	for i := 0; i < 6; i++ {
		if s.ScalingList8x8[i] == nil || s.UseDefaultScaling8x8[i] {
			if i%2 == 0 {
				s.ScalingList8x8[i] = defaultScaling8x8Intra
			} else {
				s.ScalingList8x8[i] = defaultScaling8x8Inter
			}
		}
	}
}
