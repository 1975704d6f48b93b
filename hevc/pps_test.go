package hevc

import "testing"

func minimalPPSBytes(t *testing.T) []byte {
	t.Helper()
	b := newBitBuilder()
	b.ue(0)       // pps_pic_parameter_set_id
	b.ue(0)       // pps_seq_parameter_set_id
	b.flag(false) // dependent_slice_segments_enabled_flag
	b.flag(false) // output_flag_present_flag
	b.u(3, 0)     // num_extra_slice_header_bits
	b.flag(false) // sign_data_hiding_enabled_flag
	b.flag(false) // cabac_init_present_flag
	b.ue(0)       // num_ref_idx_l0_default_active_minus1
	b.ue(0)       // num_ref_idx_l1_default_active_minus1
	b.se(0)       // init_qp_minus26
	b.flag(false) // constrained_intra_pred_flag
	b.flag(false) // transform_skip_enabled_flag
	b.flag(false) // cu_qp_delta_enabled_flag
	b.se(0)       // pps_cb_qp_offset
	b.se(0)       // pps_cr_qp_offset
	b.flag(false) // pps_slice_chroma_qp_offsets_present_flag
	b.flag(false) // weighted_pred_flag
	b.flag(false) // weighted_bipred_flag
	b.flag(false) // transquant_bypass_enabled_flag
	b.flag(true)  // tiles_enabled_flag
	b.flag(false) // entropy_coding_sync_enabled_flag
	b.ue(1)       // num_tile_columns_minus1
	b.ue(0)       // num_tile_rows_minus1
	b.flag(true)  // uniform_spacing_flag
	b.flag(false) // loop_filter_across_tiles_enabled_flag
	b.flag(true)  // pps_loop_filter_across_slices_enabled_flag
	b.flag(true)  // deblocking_filter_control_present_flag
	b.flag(false) // deblocking_filter_override_enabled_flag
	b.flag(true)  // pps_deblocking_filter_disabled_flag
	b.flag(false) // pps_scaling_list_data_present_flag
	b.flag(false) // lists_modification_present_flag
	b.ue(2)       // log2_parallel_merge_level_minus2
	b.flag(false) // slice_segment_header_extension_present_flag
	return b.bytes()
}

func TestParsePPSTileGeometryAndDeblocking(t *testing.T) {
	pps, err := ParsePPS(minimalPPSBytes(t))
	if err != nil {
		t.Fatalf("ParsePPS: %v", err)
	}
	if !pps.TilesEnabled {
		t.Error("TilesEnabled = false, want true")
	}
	if !pps.DeblockingFilterControlPresent {
		t.Error("DeblockingFilterControlPresent = false, want true")
	}
	if !pps.LoopFilterAcrossSlicesEnabled {
		t.Error("LoopFilterAcrossSlicesEnabled = false, want true")
	}
	if pps.Log2ParallelMergeLevelMinus2 != 2 {
		t.Errorf("Log2ParallelMergeLevelMinus2 = %d, want 2", pps.Log2ParallelMergeLevelMinus2)
	}
}

func TestParsePPSMinimalNoTiles(t *testing.T) {
	b := newBitBuilder()
	b.ue(3)       // pps_pic_parameter_set_id
	b.ue(1)       // pps_seq_parameter_set_id
	b.flag(true)  // dependent_slice_segments_enabled_flag
	b.flag(false) // output_flag_present_flag
	b.u(3, 0)     // num_extra_slice_header_bits
	b.flag(false) // sign_data_hiding_enabled_flag
	b.flag(false) // cabac_init_present_flag
	b.ue(0)       // num_ref_idx_l0_default_active_minus1
	b.ue(0)       // num_ref_idx_l1_default_active_minus1
	b.se(0)       // init_qp_minus26
	b.flag(false) // constrained_intra_pred_flag
	b.flag(false) // transform_skip_enabled_flag
	b.flag(false) // cu_qp_delta_enabled_flag
	b.se(0)       // pps_cb_qp_offset
	b.se(0)       // pps_cr_qp_offset
	b.flag(false) // pps_slice_chroma_qp_offsets_present_flag
	b.flag(false) // weighted_pred_flag
	b.flag(false) // weighted_bipred_flag
	b.flag(false) // transquant_bypass_enabled_flag
	b.flag(false) // tiles_enabled_flag
	b.flag(false) // entropy_coding_sync_enabled_flag
	b.flag(false) // pps_loop_filter_across_slices_enabled_flag
	b.flag(false) // deblocking_filter_control_present_flag
	b.flag(false) // pps_scaling_list_data_present_flag
	b.flag(false) // lists_modification_present_flag
	b.ue(0)       // log2_parallel_merge_level_minus2
	b.flag(false) // slice_segment_header_extension_present_flag

	pps, err := ParsePPS(b.bytes())
	if err != nil {
		t.Fatalf("ParsePPS: %v", err)
	}
	if pps.ID != 3 || pps.SPSID != 1 {
		t.Errorf("ID/SPSID = %d/%d, want 3/1", pps.ID, pps.SPSID)
	}
	if !pps.DependentSliceSegmentsEnabled {
		t.Error("DependentSliceSegmentsEnabled = false, want true")
	}
	if pps.TilesEnabled {
		t.Error("TilesEnabled = true, want false")
	}
}
