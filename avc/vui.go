package avc

import (
	"github.com/pkg/errors"

	gobits "github.com/ROCm/rocDecode-sub000/bits"
)

// VUIParameters is video usability information, Annex E.1.1. Only the
// fields the sequence callback forwards (timing, aspect ratio, color
// description, bitstream restrictions bounding DPB sizing) are kept; VUI
// subfields with no decoder-parameter use are parsed to stay bit-aligned
// and then discarded.
type VUIParameters struct {
	AspectRatioInfoPresent bool
	AspectRatioIDC         uint8
	SARWidth               uint32
	SARHeight              uint32

	VideoSignalTypePresent bool
	VideoFormat            uint8
	VideoFullRange         bool
	ColorDescriptionPresent bool
	ColorPrimaries          uint8
	TransferCharacteristics uint8
	MatrixCoefficients      uint8

	ChromaLocInfoPresent          bool
	ChromaSampleLocTypeTopField   int
	ChromaSampleLocTypeBottomField int

	TimingInfoPresent bool
	NumUnitsInTick    uint32
	TimeScale         uint32
	FixedFrameRate    bool

	NALHRDParametersPresent bool
	NALHRDParameters        *HRDParameters
	VCLHRDParametersPresent bool
	VCLHRDParameters        *HRDParameters
	LowDelayHRDFlag         bool

	PicStructPresent     bool
	BitstreamRestriction bool

	MaxNumReorderFrames  int
	MaxDecFrameBuffering int
}

const extendedSAR = 255

func parseVUIParameters(r *gobits.Reader) (*VUIParameters, error) {
	p := &VUIParameters{}

	var err error
	if p.AspectRatioInfoPresent, err = r.Flag(); err != nil {
		return nil, errors.Wrap(err, "aspect_ratio_info_present_flag")
	}
	if p.AspectRatioInfoPresent {
		v, err := r.U(8)
		if err != nil {
			return nil, errors.Wrap(err, "aspect_ratio_idc")
		}
		p.AspectRatioIDC = uint8(v)
		if int(p.AspectRatioIDC) == extendedSAR {
			w, err := r.U(16)
			if err != nil {
				return nil, errors.Wrap(err, "sar_width")
			}
			p.SARWidth = w
			h, err := r.U(16)
			if err != nil {
				return nil, errors.Wrap(err, "sar_height")
			}
			p.SARHeight = h
		}
	}

	overscanPresent, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "overscan_info_present_flag")
	}
	if overscanPresent {
		if _, err := r.Flag(); err != nil { // overscan_appropriate_flag
			return nil, errors.Wrap(err, "overscan_appropriate_flag")
		}
	}

	if p.VideoSignalTypePresent, err = r.Flag(); err != nil {
		return nil, errors.Wrap(err, "video_signal_type_present_flag")
	}
	if p.VideoSignalTypePresent {
		v, err := r.U(3)
		if err != nil {
			return nil, errors.Wrap(err, "video_format")
		}
		p.VideoFormat = uint8(v)

		if p.VideoFullRange, err = r.Flag(); err != nil {
			return nil, errors.Wrap(err, "video_full_range_flag")
		}
		if p.ColorDescriptionPresent, err = r.Flag(); err != nil {
			return nil, errors.Wrap(err, "colour_description_present_flag")
		}
		if p.ColorDescriptionPresent {
			cp, err := r.U(8)
			if err != nil {
				return nil, errors.Wrap(err, "colour_primaries")
			}
			p.ColorPrimaries = uint8(cp)
			tc, err := r.U(8)
			if err != nil {
				return nil, errors.Wrap(err, "transfer_characteristics")
			}
			p.TransferCharacteristics = uint8(tc)
			mc, err := r.U(8)
			if err != nil {
				return nil, errors.Wrap(err, "matrix_coefficients")
			}
			p.MatrixCoefficients = uint8(mc)
		}
	}

	if p.ChromaLocInfoPresent, err = r.Flag(); err != nil {
		return nil, errors.Wrap(err, "chroma_loc_info_present_flag")
	}
	if p.ChromaLocInfoPresent {
		t, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "chroma_sample_loc_type_top_field")
		}
		p.ChromaSampleLocTypeTopField = int(t)
		b, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "chroma_sample_loc_type_bottom_field")
		}
		p.ChromaSampleLocTypeBottomField = int(b)
	}

	if p.TimingInfoPresent, err = r.Flag(); err != nil {
		return nil, errors.Wrap(err, "timing_info_present_flag")
	}
	if p.TimingInfoPresent {
		nu, err := r.U(32)
		if err != nil {
			return nil, errors.Wrap(err, "num_units_in_tick")
		}
		p.NumUnitsInTick = nu
		ts, err := r.U(32)
		if err != nil {
			return nil, errors.Wrap(err, "time_scale")
		}
		p.TimeScale = ts
		if p.FixedFrameRate, err = r.Flag(); err != nil {
			return nil, errors.Wrap(err, "fixed_frame_rate_flag")
		}
	}

	if p.NALHRDParametersPresent, err = r.Flag(); err != nil {
		return nil, errors.Wrap(err, "nal_hrd_parameters_present_flag")
	}
	if p.NALHRDParametersPresent {
		p.NALHRDParameters, err = parseHRDParameters(r)
		if err != nil {
			return nil, errors.Wrap(err, "nal_hrd_parameters")
		}
	}
	if p.VCLHRDParametersPresent, err = r.Flag(); err != nil {
		return nil, errors.Wrap(err, "vcl_hrd_parameters_present_flag")
	}
	if p.VCLHRDParametersPresent {
		p.VCLHRDParameters, err = parseHRDParameters(r)
		if err != nil {
			return nil, errors.Wrap(err, "vcl_hrd_parameters")
		}
	}
	if p.NALHRDParametersPresent || p.VCLHRDParametersPresent {
		if p.LowDelayHRDFlag, err = r.Flag(); err != nil {
			return nil, errors.Wrap(err, "low_delay_hrd_flag")
		}
	}

	if p.PicStructPresent, err = r.Flag(); err != nil {
		return nil, errors.Wrap(err, "pic_struct_present_flag")
	}
	if p.BitstreamRestriction, err = r.Flag(); err != nil {
		return nil, errors.Wrap(err, "bitstream_restriction_flag")
	}
	if p.BitstreamRestriction {
		if _, err := r.Flag(); err != nil { // motion_vectors_over_pic_boundaries_flag
			return nil, errors.Wrap(err, "motion_vectors_over_pic_boundaries_flag")
		}
		if _, err := r.UE(); err != nil { // max_bytes_per_pic_denom
			return nil, errors.Wrap(err, "max_bytes_per_pic_denom")
		}
		if _, err := r.UE(); err != nil { // max_bits_per_mb_denom
			return nil, errors.Wrap(err, "max_bits_per_mb_denom")
		}
		if _, err := r.UE(); err != nil { // log2_max_mv_length_horizontal
			return nil, errors.Wrap(err, "log2_max_mv_length_horizontal")
		}
		if _, err := r.UE(); err != nil { // log2_max_mv_length_vertical
			return nil, errors.Wrap(err, "log2_max_mv_length_vertical")
		}
		n, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "max_num_reorder_frames")
		}
		p.MaxNumReorderFrames = int(n)
		d, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "max_dec_frame_buffering")
		}
		p.MaxDecFrameBuffering = int(d)
	}

	return p, nil
}

// HRDParameters is a hypothetical reference decoder parameter set, Annex
// E.1.2. Only cpb_cnt_minus1 and the four delay/offset length fields are
// kept; the per-CPB rate figures have no bearing on decode parameters, so
// they are parsed to consume the correct number of bits and discarded.
type HRDParameters struct {
	CPBCntMinus1                   int
	InitialCPBRemovalDelayLenMinus1 uint8
	CPBRemovalDelayLenMinus1        uint8
	DPBOutputDelayLenMinus1         uint8
	TimeOffsetLen                   uint8
}

func parseHRDParameters(r *gobits.Reader) (*HRDParameters, error) {
	h := &HRDParameters{}
	cnt, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "cpb_cnt_minus1")
	}
	h.CPBCntMinus1 = int(cnt)

	if _, err := r.U(4); err != nil { // bit_rate_scale
		return nil, errors.Wrap(err, "bit_rate_scale")
	}
	if _, err := r.U(4); err != nil { // cpb_size_scale
		return nil, errors.Wrap(err, "cpb_size_scale")
	}
	for i := 0; i <= h.CPBCntMinus1; i++ {
		if _, err := r.UE(); err != nil { // bit_rate_value_minus1
			return nil, errors.Wrapf(err, "bit_rate_value_minus1[%d]", i)
		}
		if _, err := r.UE(); err != nil { // cpb_size_value_minus1
			return nil, errors.Wrapf(err, "cpb_size_value_minus1[%d]", i)
		}
		if _, err := r.Flag(); err != nil { // cbr_flag
			return nil, errors.Wrapf(err, "cbr_flag[%d]", i)
		}
	}
	v, err := r.U(5)
	if err != nil {
		return nil, errors.Wrap(err, "initial_cpb_removal_delay_length_minus1")
	}
	h.InitialCPBRemovalDelayLenMinus1 = uint8(v)
	v, err = r.U(5)
	if err != nil {
		return nil, errors.Wrap(err, "cpb_removal_delay_length_minus1")
	}
	h.CPBRemovalDelayLenMinus1 = uint8(v)
	v, err = r.U(5)
	if err != nil {
		return nil, errors.Wrap(err, "dpb_output_delay_length_minus1")
	}
	h.DPBOutputDelayLenMinus1 = uint8(v)
	v, err = r.U(5)
	if err != nil {
		return nil, errors.Wrap(err, "time_offset_length")
	}
	h.TimeOffsetLen = uint8(v)
	return h, nil
}
