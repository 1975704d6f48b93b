package av1

import (
	"bytes"

	"github.com/pkg/errors"

	gobits "github.com/ROCm/rocDecode-sub000/bits"
)

const selectScreenContentTools = 2
const selectIntegerMV = 2

// ColorConfig is color_config(), section 5.5.2, trimmed to the fields a
// hardware decoder's VideoFormat needs.
type ColorConfig struct {
	BitDepth          int
	Monochrome        bool
	ColorPrimaries    uint8
	TransferChars     uint8
	MatrixCoeffs      uint8
	ColorRange        bool
	SubsamplingX      int
	SubsamplingY      int
	ChromaSamplePos   uint8
	SeparateUVDeltaQ  bool
}

// SequenceHeader is sequence_header_obu(), section 5.5.1, trimmed to the
// fields frame-header parsing and reference management need. Operating
// point selection beyond syntax (parsing and storing
// operating_point_idc/operating_points_cnt) is out of scope: this parser
// always acts on operating point 0.
type SequenceHeader struct {
	SeqProfile                 int
	StillPicture               bool
	ReducedStillPictureHeader  bool
	OperatingPointIdc          []uint32
	FrameWidthBitsMinus1       int
	FrameHeightBitsMinus1      int
	MaxFrameWidthMinus1        int
	MaxFrameHeightMinus1       int
	FrameIDNumbersPresent      bool
	DeltaFrameIDLengthMinus2   int
	AdditionalFrameIDLengthMinus1 int
	Use128x128Superblock       bool
	EnableFilterIntra          bool
	EnableIntraEdgeFilter      bool
	EnableInterintraCompound   bool
	EnableMaskedCompound       bool
	EnableWarpedMotion         bool
	EnableDualFilter           bool
	EnableOrderHint            bool
	EnableJntComp              bool
	EnableRefFrameMvs          bool
	SeqForceScreenContentTools int
	SeqForceIntegerMV          int
	OrderHintBits              int
	EnableSuperres             bool
	EnableCdef                 bool
	EnableRestoration          bool
	ColorConfig                ColorConfig
	FilmGrainParamsPresent     bool
}

// ParseSequenceHeaderObu parses sequence_header_obu(), section 5.5.1. rbsp
// is the OBU payload (header/size bytes already stripped by the framer).
func ParseSequenceHeaderObu(rbsp []byte) (*SequenceHeader, error) {
	r := gobits.NewReader(bytes.NewReader(rbsp))
	s := &SequenceHeader{}

	v, err := r.U(3)
	if err != nil {
		return nil, errors.Wrap(err, "seq_profile")
	}
	s.SeqProfile = int(v)
	if sp, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "still_picture")
	} else {
		s.StillPicture = sp
	}
	rsp, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "reduced_still_picture_header")
	}
	s.ReducedStillPictureHeader = rsp

	if s.ReducedStillPictureHeader {
		s.OperatingPointIdc = []uint32{0}
		if _, err := r.U(5); err != nil { // seq_level_idx[0]
			return nil, errors.Wrap(err, "seq_level_idx")
		}
	} else {
		timingInfoPresent, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "timing_info_present_flag")
		}
		decoderModelInfoPresent := false
		equalPictureInterval := false
		bufferDelayLengthMinus1 := 0
		if timingInfoPresent {
			if _, err := r.U(32); err != nil { // num_units_in_display_tick
				return nil, errors.Wrap(err, "num_units_in_display_tick")
			}
			if _, err := r.U(32); err != nil { // time_scale
				return nil, errors.Wrap(err, "time_scale")
			}
			equalPictureInterval, err = r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "equal_picture_interval")
			}
			if equalPictureInterval {
				if _, err := r.UVLC(); err != nil { // num_ticks_per_picture_minus_1
					return nil, errors.Wrap(err, "num_ticks_per_picture_minus_1")
				}
			}
			decoderModelInfoPresent, err = r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "decoder_model_info_present_flag")
			}
			if decoderModelInfoPresent {
				v, err := r.U(5)
				if err != nil {
					return nil, errors.Wrap(err, "buffer_delay_length_minus_1")
				}
				bufferDelayLengthMinus1 = int(v)
				if _, err := r.U(32); err != nil { // num_units_in_decoding_tick
					return nil, errors.Wrap(err, "num_units_in_decoding_tick")
				}
				if _, err := r.U(5); err != nil { // buffer_removal_time_length_minus_1
					return nil, errors.Wrap(err, "buffer_removal_time_length_minus_1")
				}
				if _, err := r.U(5); err != nil { // frame_presentation_time_length_minus_1
					return nil, errors.Wrap(err, "frame_presentation_time_length_minus_1")
				}
			}
		}
		initialDisplayDelayPresent, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "initial_display_delay_present_flag")
		}
		opCntMinus1, err := r.U(5)
		if err != nil {
			return nil, errors.Wrap(err, "operating_points_cnt_minus_1")
		}
		s.OperatingPointIdc = make([]uint32, opCntMinus1+1)
		for i := 0; i <= int(opCntMinus1); i++ {
			idc, err := r.U(12)
			if err != nil {
				return nil, errors.Wrap(err, "operating_point_idc")
			}
			s.OperatingPointIdc[i] = idc
			level, err := r.U(5)
			if err != nil {
				return nil, errors.Wrap(err, "seq_level_idx")
			}
			if level > 7 {
				if _, err := r.Flag(); err != nil { // seq_tier
					return nil, errors.Wrap(err, "seq_tier")
				}
			}
			if decoderModelInfoPresent {
				present, err := r.Flag()
				if err != nil {
					return nil, errors.Wrap(err, "decoder_model_present_for_this_op")
				}
				if present {
					if _, err := r.U(bufferDelayLengthMinus1 + 1); err != nil {
						return nil, errors.Wrap(err, "decoder_buffer_delay")
					}
					if _, err := r.U(bufferDelayLengthMinus1 + 1); err != nil {
						return nil, errors.Wrap(err, "encoder_buffer_delay")
					}
					if _, err := r.Flag(); err != nil { // low_delay_mode_flag
						return nil, errors.Wrap(err, "low_delay_mode_flag")
					}
				}
			}
			if initialDisplayDelayPresent {
				present, err := r.Flag()
				if err != nil {
					return nil, errors.Wrap(err, "initial_display_delay_present_for_this_op")
				}
				if present {
					if _, err := r.U(4); err != nil { // initial_display_delay_minus_1
						return nil, errors.Wrap(err, "initial_display_delay_minus_1")
					}
				}
			}
		}
		_ = equalPictureInterval
	}

	fwb, err := r.U(4)
	if err != nil {
		return nil, errors.Wrap(err, "frame_width_bits_minus_1")
	}
	s.FrameWidthBitsMinus1 = int(fwb)
	fhb, err := r.U(4)
	if err != nil {
		return nil, errors.Wrap(err, "frame_height_bits_minus_1")
	}
	s.FrameHeightBitsMinus1 = int(fhb)
	mfw, err := r.U(s.FrameWidthBitsMinus1 + 1)
	if err != nil {
		return nil, errors.Wrap(err, "max_frame_width_minus_1")
	}
	s.MaxFrameWidthMinus1 = int(mfw)
	mfh, err := r.U(s.FrameHeightBitsMinus1 + 1)
	if err != nil {
		return nil, errors.Wrap(err, "max_frame_height_minus_1")
	}
	s.MaxFrameHeightMinus1 = int(mfh)

	if !s.ReducedStillPictureHeader {
		fid, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "frame_id_numbers_present_flag")
		}
		s.FrameIDNumbersPresent = fid
	}
	if s.FrameIDNumbersPresent {
		v, err := r.U(4)
		if err != nil {
			return nil, errors.Wrap(err, "delta_frame_id_length_minus_2")
		}
		s.DeltaFrameIDLengthMinus2 = int(v)
		v, err = r.U(3)
		if err != nil {
			return nil, errors.Wrap(err, "additional_frame_id_length_minus_1")
		}
		s.AdditionalFrameIDLengthMinus1 = int(v)
	}

	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "use_128x128_superblock")
	} else {
		s.Use128x128Superblock = v
	}
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "enable_filter_intra")
	} else {
		s.EnableFilterIntra = v
	}
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "enable_intra_edge_filter")
	} else {
		s.EnableIntraEdgeFilter = v
	}

	if s.ReducedStillPictureHeader {
		s.SeqForceScreenContentTools = selectScreenContentTools
		s.SeqForceIntegerMV = selectIntegerMV
		s.OrderHintBits = 0
	} else {
		if v, err := r.Flag(); err != nil {
			return nil, errors.Wrap(err, "enable_interintra_compound")
		} else {
			s.EnableInterintraCompound = v
		}
		if v, err := r.Flag(); err != nil {
			return nil, errors.Wrap(err, "enable_masked_compound")
		} else {
			s.EnableMaskedCompound = v
		}
		if v, err := r.Flag(); err != nil {
			return nil, errors.Wrap(err, "enable_warped_motion")
		} else {
			s.EnableWarpedMotion = v
		}
		if v, err := r.Flag(); err != nil {
			return nil, errors.Wrap(err, "enable_dual_filter")
		} else {
			s.EnableDualFilter = v
		}
		eoh, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "enable_order_hint")
		}
		s.EnableOrderHint = eoh
		if s.EnableOrderHint {
			if v, err := r.Flag(); err != nil {
				return nil, errors.Wrap(err, "enable_jnt_comp")
			} else {
				s.EnableJntComp = v
			}
			if v, err := r.Flag(); err != nil {
				return nil, errors.Wrap(err, "enable_ref_frame_mvs")
			} else {
				s.EnableRefFrameMvs = v
			}
		}

		chooseScreenContentTools, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "seq_choose_screen_content_tools")
		}
		if chooseScreenContentTools {
			s.SeqForceScreenContentTools = selectScreenContentTools
		} else {
			v, err := r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "seq_force_screen_content_tools")
			}
			if v {
				s.SeqForceScreenContentTools = 1
			}
		}
		if s.SeqForceScreenContentTools > 0 {
			chooseIntegerMV, err := r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "seq_choose_integer_mv")
			}
			if chooseIntegerMV {
				s.SeqForceIntegerMV = selectIntegerMV
			} else {
				v, err := r.Flag()
				if err != nil {
					return nil, errors.Wrap(err, "seq_force_integer_mv")
				}
				if v {
					s.SeqForceIntegerMV = 1
				}
			}
		} else {
			s.SeqForceIntegerMV = selectIntegerMV
		}

		if s.EnableOrderHint {
			v, err := r.U(3)
			if err != nil {
				return nil, errors.Wrap(err, "order_hint_bits_minus_1")
			}
			s.OrderHintBits = int(v) + 1
		}
	}

	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "enable_superres")
	} else {
		s.EnableSuperres = v
	}
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "enable_cdef")
	} else {
		s.EnableCdef = v
	}
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "enable_restoration")
	} else {
		s.EnableRestoration = v
	}

	cc, err := parseColorConfig(r, s.SeqProfile)
	if err != nil {
		return nil, errors.Wrap(err, "color_config")
	}
	s.ColorConfig = cc

	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "film_grain_params_present")
	} else {
		s.FilmGrainParamsPresent = v
	}

	return s, nil
}

func parseColorConfig(r *gobits.Reader, seqProfile int) (ColorConfig, error) {
	var c ColorConfig
	c.BitDepth = 8
	high, err := r.Flag()
	if err != nil {
		return c, errors.Wrap(err, "high_bitdepth")
	}
	if seqProfile == 2 && high {
		twelve, err := r.Flag()
		if err != nil {
			return c, errors.Wrap(err, "twelve_bit")
		}
		if twelve {
			c.BitDepth = 12
		} else {
			c.BitDepth = 10
		}
	} else if seqProfile <= 2 && high {
		c.BitDepth = 10
	}

	if seqProfile == 1 {
		c.Monochrome = false
	} else {
		mono, err := r.Flag()
		if err != nil {
			return c, errors.Wrap(err, "mono_chrome")
		}
		c.Monochrome = mono
	}

	colorDescPresent, err := r.Flag()
	if err != nil {
		return c, errors.Wrap(err, "color_description_present_flag")
	}
	if colorDescPresent {
		v, err := r.U(8)
		if err != nil {
			return c, errors.Wrap(err, "color_primaries")
		}
		c.ColorPrimaries = uint8(v)
		v, err = r.U(8)
		if err != nil {
			return c, errors.Wrap(err, "transfer_characteristics")
		}
		c.TransferChars = uint8(v)
		v, err = r.U(8)
		if err != nil {
			return c, errors.Wrap(err, "matrix_coefficients")
		}
		c.MatrixCoeffs = uint8(v)
	} else {
		c.ColorPrimaries = 2 // CP_UNSPECIFIED
		c.TransferChars = 2  // TC_UNSPECIFIED
		c.MatrixCoeffs = 2   // MC_UNSPECIFIED
	}

	if c.Monochrome {
		cr, err := r.Flag()
		if err != nil {
			return c, errors.Wrap(err, "color_range")
		}
		c.ColorRange = cr
		c.SubsamplingX, c.SubsamplingY = 1, 1
		return c, nil
	}
	if c.ColorPrimaries == 1 && c.TransferChars == 13 && c.MatrixCoeffs == 0 {
		// CP_BT_709 / TC_SRGB / MC_IDENTITY: always 4:4:4, full range.
		c.ColorRange = true
		c.SubsamplingX, c.SubsamplingY = 0, 0
		return c, nil
	}
	cr, err := r.Flag()
	if err != nil {
		return c, errors.Wrap(err, "color_range")
	}
	c.ColorRange = cr
	switch seqProfile {
	case 0:
		c.SubsamplingX, c.SubsamplingY = 1, 1
	case 1:
		c.SubsamplingX, c.SubsamplingY = 0, 0
	default:
		if c.BitDepth == 12 {
			sx, err := r.Flag()
			if err != nil {
				return c, errors.Wrap(err, "subsampling_x")
			}
			c.SubsamplingX = boolToInt(sx)
			if c.SubsamplingX != 0 {
				sy, err := r.Flag()
				if err != nil {
					return c, errors.Wrap(err, "subsampling_y")
				}
				c.SubsamplingY = boolToInt(sy)
			}
		} else {
			c.SubsamplingX, c.SubsamplingY = 1, 0
		}
	}
	if c.SubsamplingX != 0 && c.SubsamplingY != 0 {
		v, err := r.U(2)
		if err != nil {
			return c, errors.Wrap(err, "chroma_sample_position")
		}
		c.ChromaSamplePos = uint8(v)
	}
	sep, err := r.Flag()
	if err != nil {
		return c, errors.Wrap(err, "separate_uv_delta_q")
	}
	c.SeparateUVDeltaQ = sep
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
