package hevc

import (
	"bytes"

	"github.com/pkg/errors"

	gobits "github.com/ROCm/rocDecode-sub000/bits"
)

var subWidthC = [4]int{1, 2, 2, 1}
var subHeightC = [4]int{1, 2, 1, 1}

// ProfileTierLevel is profile_tier_level(), section 7.3.3, trimmed to the
// fields a hardware decoder needs to gate capability (general profile/level
// only; per-sub-layer profile/level parsing is consumed to stay bit-aligned
// but not retained, mirroring the teacher corpus's SPS_ProfileTierLevel
// which also treats sub-layer profile/level presence as an unsupported
// edge case).
type ProfileTierLevel struct {
	GeneralProfileSpace uint8
	GeneralTierFlag     bool
	GeneralProfileIdc   uint8
	GeneralLevelIdc     uint8
}

func parseProfileTierLevel(r *gobits.Reader, maxSubLayersMinus1 int) (ProfileTierLevel, error) {
	var p ProfileTierLevel
	v, err := r.U(2)
	if err != nil {
		return p, errors.Wrap(err, "general_profile_space")
	}
	p.GeneralProfileSpace = uint8(v)
	tier, err := r.Flag()
	if err != nil {
		return p, errors.Wrap(err, "general_tier_flag")
	}
	p.GeneralTierFlag = tier
	v, err = r.U(5)
	if err != nil {
		return p, errors.Wrap(err, "general_profile_idc")
	}
	p.GeneralProfileIdc = uint8(v)

	// general_profile_compatibility_flag[32] + the 48 bits of general
	// source/constraint flags and reserved bits: always exactly 32+48 = 80
	// bits regardless of idc, consumed verbatim (the same layout the
	// sub-layer branch below skips as part of its 88 bits).
	if _, err := r.U(32); err != nil {
		return p, errors.Wrap(err, "general_profile_compatibility_flag")
	}
	if _, err := r.U(32); err != nil {
		return p, errors.Wrap(err, "general_constraint_flags_hi")
	}
	if _, err := r.U(16); err != nil {
		return p, errors.Wrap(err, "general_constraint_flags_lo")
	}

	v, err = r.U(8)
	if err != nil {
		return p, errors.Wrap(err, "general_level_idc")
	}
	p.GeneralLevelIdc = uint8(v)

	subProfilePresent := make([]bool, maxSubLayersMinus1)
	subLevelPresent := make([]bool, maxSubLayersMinus1)
	for i := 0; i < maxSubLayersMinus1; i++ {
		pf, err := r.Flag()
		if err != nil {
			return p, errors.Wrap(err, "sub_layer_profile_present_flag")
		}
		subProfilePresent[i] = pf
		lf, err := r.Flag()
		if err != nil {
			return p, errors.Wrap(err, "sub_layer_level_present_flag")
		}
		subLevelPresent[i] = lf
	}
	if maxSubLayersMinus1 > 0 {
		if _, err := r.U((8 - maxSubLayersMinus1) * 2); err != nil {
			return p, errors.Wrap(err, "reserved_zero_2bits")
		}
	}
	for i := 0; i < maxSubLayersMinus1; i++ {
		if subProfilePresent[i] {
			// sub_layer_profile_space/tier/idc/compatibility/constraint: 88 bits.
			if _, err := r.U(32); err != nil {
				return p, errors.Wrap(err, "sub_layer_profile")
			}
			if _, err := r.U(32); err != nil {
				return p, errors.Wrap(err, "sub_layer_profile")
			}
			if _, err := r.U(24); err != nil {
				return p, errors.Wrap(err, "sub_layer_profile")
			}
		}
		if subLevelPresent[i] {
			if _, err := r.U(8); err != nil {
				return p, errors.Wrap(err, "sub_layer_level_idc")
			}
		}
	}
	return p, nil
}

// ShortTermRefPicSet is st_ref_pic_set(), section 7.3.7, grounded on
// SPS_ShortTermRefPicSet in the referenced gortsplib SPS parser, adapted to
// report both absolute POC deltas (not just the minus-1 coded values) since
// RpsEngine needs signed deltas directly.
type ShortTermRefPicSet struct {
	NumNegativePics int
	NumPositivePics int
	DeltaPocS0      []int // negative, descending magnitude order as coded
	UsedByCurrPicS0 []bool
	DeltaPocS1      []int // positive
	UsedByCurrPicS1 []bool
}

func parseShortTermRefPicSet(r *gobits.Reader, stRpsIdx int, numSets int, sets []ShortTermRefPicSet) (ShortTermRefPicSet, error) {
	var s ShortTermRefPicSet
	interPred := false
	if stRpsIdx != 0 {
		v, err := r.Flag()
		if err != nil {
			return s, errors.Wrap(err, "inter_ref_pic_set_prediction_flag")
		}
		interPred = v
	}

	if interPred {
		deltaIdxMinus1 := 0
		if stRpsIdx == numSets {
			v, err := r.UE()
			if err != nil {
				return s, errors.Wrap(err, "delta_idx_minus1")
			}
			deltaIdxMinus1 = int(v)
		}
		sign, err := r.Flag()
		if err != nil {
			return s, errors.Wrap(err, "delta_rps_sign")
		}
		absMinus1, err := r.UE()
		if err != nil {
			return s, errors.Wrap(err, "abs_delta_rps_minus1")
		}
		deltaRps := int(absMinus1) + 1
		if sign {
			deltaRps = -deltaRps
		}

		refIdx := stRpsIdx - (deltaIdxMinus1 + 1)
		if refIdx < 0 || refIdx >= len(sets) {
			return s, errors.New("st_ref_pic_set: ref_rps_idx out of range")
		}
		ref := sets[refIdx]
		numDeltaPocs := ref.NumNegativePics + ref.NumPositivePics

		// This repo only needs the resulting delta-POC list, not the
		// intermediate used_by_curr_pic_flag/use_delta_flag bookkeeping, so
		// it derives S0/S1 directly per 7.4.8's construction process rather
		// than keeping the inter-prediction flags around as the teacher's
		// struct does.
		refDeltaPocs := append(append([]int(nil), ref.DeltaPocS0...), ref.DeltaPocS1...)
		var negPocs, posPocs []int
		var negUsed, posUsed []bool
		for j := 0; j <= numDeltaPocs; j++ {
			used, err := r.Flag()
			if err != nil {
				return s, errors.Wrap(err, "used_by_curr_pic_flag")
			}
			useDelta := true
			if !used {
				useDelta, err = r.Flag()
				if err != nil {
					return s, errors.Wrap(err, "use_delta_flag")
				}
			}
			if !useDelta {
				continue
			}
			var dPoc int
			switch {
			case j < len(ref.DeltaPocS0):
				dPoc = deltaRps + refDeltaPocs[j]
			case j == len(refDeltaPocs):
				dPoc = deltaRps
			default:
				dPoc = deltaRps + refDeltaPocs[j]
			}
			if dPoc < 0 {
				negPocs = append(negPocs, dPoc)
				negUsed = append(negUsed, used)
			} else if dPoc > 0 {
				posPocs = append(posPocs, dPoc)
				posUsed = append(posUsed, used)
			}
		}
		s.DeltaPocS0, s.UsedByCurrPicS0 = negPocs, negUsed
		s.DeltaPocS1, s.UsedByCurrPicS1 = posPocs, posUsed
		s.NumNegativePics, s.NumPositivePics = len(negPocs), len(posPocs)
		return s, nil
	}

	neg, err := r.UE()
	if err != nil {
		return s, errors.Wrap(err, "num_negative_pics")
	}
	s.NumNegativePics = int(neg)
	pos, err := r.UE()
	if err != nil {
		return s, errors.Wrap(err, "num_positive_pics")
	}
	s.NumPositivePics = int(pos)

	running := 0
	s.DeltaPocS0 = make([]int, s.NumNegativePics)
	s.UsedByCurrPicS0 = make([]bool, s.NumNegativePics)
	for i := 0; i < s.NumNegativePics; i++ {
		m1, err := r.UE()
		if err != nil {
			return s, errors.Wrapf(err, "delta_poc_s0_minus1[%d]", i)
		}
		running -= int(m1) + 1
		s.DeltaPocS0[i] = running
		used, err := r.Flag()
		if err != nil {
			return s, errors.Wrapf(err, "used_by_curr_pic_s0_flag[%d]", i)
		}
		s.UsedByCurrPicS0[i] = used
	}
	running = 0
	s.DeltaPocS1 = make([]int, s.NumPositivePics)
	s.UsedByCurrPicS1 = make([]bool, s.NumPositivePics)
	for i := 0; i < s.NumPositivePics; i++ {
		m1, err := r.UE()
		if err != nil {
			return s, errors.Wrapf(err, "delta_poc_s1_minus1[%d]", i)
		}
		running += int(m1) + 1
		s.DeltaPocS1[i] = running
		used, err := r.Flag()
		if err != nil {
			return s, errors.Wrapf(err, "used_by_curr_pic_s1_flag[%d]", i)
		}
		s.UsedByCurrPicS1[i] = used
	}
	return s, nil
}

func negate(in []int) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = -v
	}
	return out
}

// SPS is a parsed HEVC sequence parameter set, section 7.3.2.2.1, trimmed to
// the fields the decode-configuration callback and reference list/POC
// derivation processes need.
type SPS struct {
	VPSID                       int
	MaxSubLayersMinus1          int
	ProfileTierLevel            ProfileTierLevel
	ID                          int
	ChromaFormatIDC             int
	SeparateColorPlane          bool
	PicWidthInLumaSamples       int
	PicHeightInLumaSamples      int
	ConformanceWindow           bool
	ConfWinLeft, ConfWinRight   int
	ConfWinTop, ConfWinBottom   int
	BitDepthLumaMinus8          int
	BitDepthChromaMinus8        int
	Log2MaxPicOrderCntLsbMinus4 int
	MaxDecPicBufferingMinus1    []int
	MaxNumReorderPics           []int
	MaxLatencyIncreasePlus1     []int
	Log2MinLumaCodingBlockSizeMinus3     int
	Log2DiffMaxMinLumaCodingBlockSize    int
	SampleAdaptiveOffsetEnabled bool
	ShortTermRefPicSets         []ShortTermRefPicSet
	LongTermRefPicsPresent      bool
	NumLongTermRefPicsSPS       int
	LtRefPicPocLsbSPS           []int
	UsedByCurrPicLtSPS          []bool
	TemporalMvpEnabled          bool
	StrongIntraSmoothingEnabled bool
}

// Width/Height report the conformance-cropped output dimensions, section
// 7.4.3.2.1's Eq. 7-21/7-22, matching the SPS.Width()/Height() naming
// convention of the h265 reference parser this package is grounded on.
func (s *SPS) Width() int {
	w := s.PicWidthInLumaSamples
	if s.ConformanceWindow {
		w -= (s.ConfWinLeft + s.ConfWinRight) * subWidthC[s.ChromaFormatIDC]
	}
	return w
}

func (s *SPS) Height() int {
	h := s.PicHeightInLumaSamples
	if s.ConformanceWindow {
		h -= (s.ConfWinTop + s.ConfWinBottom) * subHeightC[s.ChromaFormatIDC]
	}
	return h
}

func (s *SPS) MaxPicOrderCntLsb() int {
	return 1 << uint(s.Log2MaxPicOrderCntLsbMinus4+4)
}

// ParseSPS parses seq_parameter_set_rbsp(), section 7.3.2.2.1. rbsp excludes
// the 2-byte NAL header.
func ParseSPS(rbsp []byte) (*SPS, error) {
	r := gobits.NewReader(bytes.NewReader(rbsp))
	s := &SPS{}

	v, err := r.U(4)
	if err != nil {
		return nil, errors.Wrap(err, "sps_video_parameter_set_id")
	}
	s.VPSID = int(v)
	v, err = r.U(3)
	if err != nil {
		return nil, errors.Wrap(err, "sps_max_sub_layers_minus1")
	}
	s.MaxSubLayersMinus1 = int(v)
	if _, err := r.Flag(); err != nil { // sps_temporal_id_nesting_flag
		return nil, errors.Wrap(err, "sps_temporal_id_nesting_flag")
	}

	ptl, err := parseProfileTierLevel(r, s.MaxSubLayersMinus1)
	if err != nil {
		return nil, errors.Wrap(err, "profile_tier_level")
	}
	s.ProfileTierLevel = ptl

	id, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "sps_seq_parameter_set_id")
	}
	s.ID = int(id)

	cf, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "chroma_format_idc")
	}
	s.ChromaFormatIDC = int(cf)
	if s.ChromaFormatIDC == 3 {
		scp, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "separate_colour_plane_flag")
		}
		s.SeparateColorPlane = scp
	}

	w, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "pic_width_in_luma_samples")
	}
	s.PicWidthInLumaSamples = int(w)
	h, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "pic_height_in_luma_samples")
	}
	s.PicHeightInLumaSamples = int(h)

	cwf, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "conformance_window_flag")
	}
	s.ConformanceWindow = cwf
	if s.ConformanceWindow {
		for _, dst := range []*int{&s.ConfWinLeft, &s.ConfWinRight, &s.ConfWinTop, &s.ConfWinBottom} {
			v, err := r.UE()
			if err != nil {
				return nil, errors.Wrap(err, "conf_win_offset")
			}
			*dst = int(v)
		}
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

	lsb, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "log2_max_pic_order_cnt_lsb_minus4")
	}
	s.Log2MaxPicOrderCntLsbMinus4 = int(lsb)

	subOrderingPresent, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "sps_sub_layer_ordering_info_present_flag")
	}
	start := s.MaxSubLayersMinus1
	if subOrderingPresent {
		start = 0
	}
	n := s.MaxSubLayersMinus1 - start + 1
	s.MaxDecPicBufferingMinus1 = make([]int, n)
	s.MaxNumReorderPics = make([]int, n)
	s.MaxLatencyIncreasePlus1 = make([]int, n)
	for i := 0; i < n; i++ {
		v, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "sps_max_dec_pic_buffering_minus1")
		}
		s.MaxDecPicBufferingMinus1[i] = int(v)
		v, err = r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "sps_max_num_reorder_pics")
		}
		s.MaxNumReorderPics[i] = int(v)
		v, err = r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "sps_max_latency_increase_plus1")
		}
		s.MaxLatencyIncreasePlus1[i] = int(v)
	}

	v, err = r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "log2_min_luma_coding_block_size_minus3")
	}
	s.Log2MinLumaCodingBlockSizeMinus3 = int(v)
	v, err = r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "log2_diff_max_min_luma_coding_block_size")
	}
	s.Log2DiffMaxMinLumaCodingBlockSize = int(v)
	if _, err := r.UE(); err != nil { // log2_min_luma_transform_block_size_minus2
		return nil, errors.Wrap(err, "log2_min_luma_transform_block_size_minus2")
	}
	if _, err := r.UE(); err != nil { // log2_diff_max_min_luma_transform_block_size
		return nil, errors.Wrap(err, "log2_diff_max_min_luma_transform_block_size")
	}
	if _, err := r.UE(); err != nil { // max_transform_hierarchy_depth_inter
		return nil, errors.Wrap(err, "max_transform_hierarchy_depth_inter")
	}
	if _, err := r.UE(); err != nil { // max_transform_hierarchy_depth_intra
		return nil, errors.Wrap(err, "max_transform_hierarchy_depth_intra")
	}

	scalingListEnabled, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "scaling_list_enabled_flag")
	}
	if scalingListEnabled {
		present, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "sps_scaling_list_data_present_flag")
		}
		if present {
			if err := skipScalingListData(r); err != nil {
				return nil, errors.Wrap(err, "scaling_list_data")
			}
		}
	}

	if _, err := r.Flag(); err != nil { // amp_enabled_flag
		return nil, errors.Wrap(err, "amp_enabled_flag")
	}
	sao, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "sample_adaptive_offset_enabled_flag")
	}
	s.SampleAdaptiveOffsetEnabled = sao

	pcmEnabled, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "pcm_enabled_flag")
	}
	if pcmEnabled {
		if _, err := r.U(4); err != nil { // pcm_sample_bit_depth_luma_minus1
			return nil, errors.Wrap(err, "pcm_sample_bit_depth_luma_minus1")
		}
		if _, err := r.U(4); err != nil { // pcm_sample_bit_depth_chroma_minus1
			return nil, errors.Wrap(err, "pcm_sample_bit_depth_chroma_minus1")
		}
		if _, err := r.UE(); err != nil {
			return nil, errors.Wrap(err, "log2_min_pcm_luma_coding_block_size_minus3")
		}
		if _, err := r.UE(); err != nil {
			return nil, errors.Wrap(err, "log2_diff_max_min_pcm_luma_coding_block_size")
		}
		if _, err := r.Flag(); err != nil {
			return nil, errors.Wrap(err, "pcm_loop_filter_disabled_flag")
		}
	}

	numSets, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "num_short_term_ref_pic_sets")
	}
	s.ShortTermRefPicSets = make([]ShortTermRefPicSet, numSets)
	for i := 0; i < int(numSets); i++ {
		set, err := parseShortTermRefPicSet(r, i, int(numSets), s.ShortTermRefPicSets)
		if err != nil {
			return nil, errors.Wrapf(err, "short_term_ref_pic_set[%d]", i)
		}
		s.ShortTermRefPicSets[i] = set
	}

	ltPresent, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "long_term_ref_pics_present_flag")
	}
	s.LongTermRefPicsPresent = ltPresent
	if s.LongTermRefPicsPresent {
		n, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "num_long_term_ref_pics_sps")
		}
		s.NumLongTermRefPicsSPS = int(n)
		s.LtRefPicPocLsbSPS = make([]int, n)
		s.UsedByCurrPicLtSPS = make([]bool, n)
		for i := range s.LtRefPicPocLsbSPS {
			v, err := r.U(s.Log2MaxPicOrderCntLsbMinus4 + 4)
			if err != nil {
				return nil, errors.Wrap(err, "lt_ref_pic_poc_lsb_sps")
			}
			s.LtRefPicPocLsbSPS[i] = int(v)
			used, err := r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "used_by_curr_pic_lt_sps_flag")
			}
			s.UsedByCurrPicLtSPS[i] = used
		}
	}

	tmvp, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "sps_temporal_mvp_enabled_flag")
	}
	s.TemporalMvpEnabled = tmvp
	sis, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "strong_intra_smoothing_enabled_flag")
	}
	s.StrongIntraSmoothingEnabled = sis

	// vui_parameters_present_flag and any VUI content, plus SPS extension
	// flags, affect only display/timing metadata this parser does not
	// forward; parsing stops here rather than walking the remaining bits,
	// since ParseSPS never reads past what the picture/reference-management
	// callbacks need (the same scoping choice the teacher corpus's h265 SPS
	// parser makes by returning fmt.Errorf on other unsupported paths).

	return s, nil
}

// skipScalingListData walks scaling_list_data(), section 7.3.4, discarding
// values: no forwarded decoder parameter needs exact scaling-list
// coefficients (mirrors the fall-back-rule-A-only simplification the avc
// package documents for SPS/PPS scaling lists).
func skipScalingListData(r *gobits.Reader) error {
	for sizeID := 0; sizeID < 4; sizeID++ {
		step := 1
		if sizeID == 3 {
			step = 3
		}
		for matrixID := 0; matrixID < 6; matrixID += step {
			pred, err := r.Flag()
			if err != nil {
				return errors.Wrap(err, "scaling_list_pred_mode_flag")
			}
			if !pred {
				if _, err := r.UE(); err != nil { // scaling_list_pred_matrix_id_delta
					return errors.Wrap(err, "scaling_list_pred_matrix_id_delta")
				}
				continue
			}
			coefNum := 64
			if sizeID == 0 {
				coefNum = 16
			}
			if sizeID > 1 {
				if _, err := r.SE(); err != nil { // scaling_list_dc_coef_minus8
					return errors.Wrap(err, "scaling_list_dc_coef_minus8")
				}
			}
			for i := 0; i < coefNum; i++ {
				if _, err := r.SE(); err != nil { // scaling_list_delta_coef
					return errors.Wrap(err, "scaling_list_delta_coef")
				}
			}
		}
	}
	return nil
}
