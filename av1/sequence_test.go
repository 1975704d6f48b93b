package av1

import "testing"

func minimalSequenceHeaderBytes() []byte {
	b := newBitBuilder()
	b.u(3, 0)     // seq_profile = 0
	b.flag(false) // still_picture
	b.flag(true)  // reduced_still_picture_header
	b.u(5, 0)     // seq_level_idx[0]

	b.u(4, 5) // frame_width_bits_minus_1 = 5 -> 6 bits
	b.u(4, 5) // frame_height_bits_minus_1 = 5 -> 6 bits
	b.u(6, 63) // max_frame_width_minus_1 = 63 -> width 64
	b.u(6, 63) // max_frame_height_minus_1 = 63 -> height 64

	b.flag(false) // use_128x128_superblock
	b.flag(false) // enable_filter_intra
	b.flag(false) // enable_intra_edge_filter

	b.flag(false) // enable_superres
	b.flag(false) // enable_cdef
	b.flag(false) // enable_restoration

	// color_config(), seq_profile == 0
	b.flag(false) // high_bitdepth
	b.flag(false) // mono_chrome
	b.flag(false) // color_description_present_flag
	b.flag(true)  // color_range
	b.u(2, 0)     // chroma_sample_position
	b.flag(false) // separate_uv_delta_q

	b.flag(false) // film_grain_params_present
	return b.bytes()
}

func TestParseSequenceHeaderObuReducedStillPicture(t *testing.T) {
	s, err := ParseSequenceHeaderObu(minimalSequenceHeaderBytes())
	if err != nil {
		t.Fatalf("ParseSequenceHeaderObu: %v", err)
	}
	if !s.ReducedStillPictureHeader {
		t.Error("ReducedStillPictureHeader = false, want true")
	}
	if s.MaxFrameWidthMinus1 != 63 || s.MaxFrameHeightMinus1 != 63 {
		t.Errorf("max frame dims minus1 = %d/%d, want 63/63", s.MaxFrameWidthMinus1, s.MaxFrameHeightMinus1)
	}
	if s.OrderHintBits != 0 {
		t.Errorf("OrderHintBits = %d, want 0 (reduced still picture header forces 0)", s.OrderHintBits)
	}
	if s.SeqForceScreenContentTools != selectScreenContentTools {
		t.Errorf("SeqForceScreenContentTools = %d, want %d", s.SeqForceScreenContentTools, selectScreenContentTools)
	}
	if s.ColorConfig.BitDepth != 8 {
		t.Errorf("BitDepth = %d, want 8", s.ColorConfig.BitDepth)
	}
	if s.ColorConfig.SubsamplingX != 1 || s.ColorConfig.SubsamplingY != 1 {
		t.Errorf("subsampling = %d/%d, want 1/1 (profile 0)", s.ColorConfig.SubsamplingX, s.ColorConfig.SubsamplingY)
	}
}
