package hevc

import "testing"

func minimalSPSBytes(t *testing.T) []byte {
	t.Helper()
	b := newBitBuilder()
	b.u(4, 0) // sps_video_parameter_set_id
	b.u(3, 0) // sps_max_sub_layers_minus1
	b.flag(false) // sps_temporal_id_nesting_flag

	// profile_tier_level(maxSubLayersMinus1=0)
	b.u(2, 0) // general_profile_space
	b.flag(false)
	b.u(5, 1) // general_profile_idc
	b.u(32, 0)
	b.u(32, 0)
	b.u(16, 0)
	b.u(8, 120) // general_level_idc

	b.ue(0) // sps_seq_parameter_set_id
	b.ue(1) // chroma_format_idc = 4:2:0
	b.ue(64) // pic_width_in_luma_samples
	b.ue(64) // pic_height_in_luma_samples
	b.flag(false) // conformance_window_flag
	b.ue(0) // bit_depth_luma_minus8
	b.ue(0) // bit_depth_chroma_minus8
	b.ue(0) // log2_max_pic_order_cnt_lsb_minus4
	b.flag(false) // sps_sub_layer_ordering_info_present_flag
	b.ue(0) // sps_max_dec_pic_buffering_minus1[0]
	b.ue(0) // sps_max_num_reorder_pics[0]
	b.ue(0) // sps_max_latency_increase_plus1[0]
	b.ue(0) // log2_min_luma_coding_block_size_minus3
	b.ue(0) // log2_diff_max_min_luma_coding_block_size
	b.ue(0) // log2_min_luma_transform_block_size_minus2
	b.ue(0) // log2_diff_max_min_luma_transform_block_size
	b.ue(0) // max_transform_hierarchy_depth_inter
	b.ue(0) // max_transform_hierarchy_depth_intra
	b.flag(false) // scaling_list_enabled_flag
	b.flag(false) // amp_enabled_flag
	b.flag(false) // sample_adaptive_offset_enabled_flag
	b.flag(false) // pcm_enabled_flag
	b.ue(0)       // num_short_term_ref_pic_sets
	b.flag(false) // long_term_ref_pics_present_flag
	b.flag(false) // sps_temporal_mvp_enabled_flag
	b.flag(false) // strong_intra_smoothing_enabled_flag
	return b.bytes()
}

func TestParseSPSMinimal(t *testing.T) {
	sps, err := ParseSPS(minimalSPSBytes(t))
	if err != nil {
		t.Fatalf("ParseSPS: %v", err)
	}
	if sps.ChromaFormatIDC != 1 {
		t.Errorf("ChromaFormatIDC = %d, want 1", sps.ChromaFormatIDC)
	}
	if sps.Width() != 64 || sps.Height() != 64 {
		t.Errorf("dimensions = %dx%d, want 64x64", sps.Width(), sps.Height())
	}
	if sps.MaxPicOrderCntLsb() != 16 {
		t.Errorf("MaxPicOrderCntLsb = %d, want 16", sps.MaxPicOrderCntLsb())
	}
	if len(sps.ShortTermRefPicSets) != 0 {
		t.Errorf("len(ShortTermRefPicSets) = %d, want 0", len(sps.ShortTermRefPicSets))
	}
}
