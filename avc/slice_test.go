package avc

import "testing"

func TestParseSliceHeaderPSliceReadsFrameNum(t *testing.T) {
	sps := &SPS{
		Log2MaxFrameNumMinus4:       2, // frame_num is 6 bits.
		PicOrderCountType:           0,
		Log2MaxPicOrderCntLSBMinus4: 0,
		FrameMBSOnly:                true,
	}
	pps := &PPS{}

	b := newBitBuilder()
	b.ue(0) // first_mb_in_slice
	b.ue(0) // slice_type = P
	b.ue(0) // pic_parameter_set_id
	b.u(6, 5) // frame_num = 5
	// PicOrderCountType == 0: pic_order_cnt_lsb, 4 bits.
	b.u(4, 3) // pic_order_cnt_lsb = 3
	// fam(P)=0: num_ref_idx_active_override_flag
	b.flag(false)
	// ref_pic_list_modification: fam != 2,4 -> present flag
	b.flag(false)
	// no weighted pred, no dec_ref_pic_marking (RefIDC==0 in this call)
	b.se(0) // slice_qp_delta

	nal := NALHeader{Type: NALUnitTypeSliceNonIDR, RefIDC: 0}
	sh, err := ParseSliceHeader(b.bytes(), nal, sps, pps)
	if err != nil {
		t.Fatalf("ParseSliceHeader: %v", err)
	}
	if sh.FrameNum != 5 {
		t.Errorf("FrameNum = %d, want 5 (teacher never read this field)", sh.FrameNum)
	}
	if sh.PicOrderCntLsb != 3 {
		t.Errorf("PicOrderCntLsb = %d, want 3", sh.PicOrderCntLsb)
	}
	if !sh.FirstSliceOfPicture() {
		t.Error("FirstSliceOfPicture() = false, want true for first_mb_in_slice == 0")
	}
}

func TestParseSliceHeaderIDR(t *testing.T) {
	sps := &SPS{
		Log2MaxFrameNumMinus4:       0,
		PicOrderCountType:           0,
		Log2MaxPicOrderCntLSBMinus4: 0,
		FrameMBSOnly:                true,
	}
	pps := &PPS{}

	b := newBitBuilder()
	b.ue(0)   // first_mb_in_slice
	b.ue(2)   // slice_type = I
	b.ue(0)   // pic_parameter_set_id
	b.u(4, 0) // frame_num = 0
	b.ue(0)   // idr_pic_id
	b.u(4, 0) // pic_order_cnt_lsb = 0
	// fam(I)=2: no direct_spatial_mv_pred, no num_ref_idx_active_override.
	// ref_pic_list_modification: fam==2 -> no l0 flag, fam!=1 -> no l1 flag.
	// no weighted pred (fam not 0/3/1).
	b.flag(false) // no_output_of_prior_pics_flag (nal_ref_idc != 0, IDR)
	b.flag(false) // long_term_reference_flag
	b.se(0)       // slice_qp_delta

	nal := NALHeader{Type: NALUnitTypeSliceIDR, RefIDC: 3}
	sh, err := ParseSliceHeader(b.bytes(), nal, sps, pps)
	if err != nil {
		t.Fatalf("ParseSliceHeader: %v", err)
	}
	if !sh.IDRPicFlag {
		t.Error("IDRPicFlag = false, want true")
	}
	if !sh.IsIntra() {
		t.Error("IsIntra() = false, want true for I slice")
	}
	if sh.DecRefPicMarking == nil {
		t.Fatal("DecRefPicMarking not parsed for a reference IDR slice")
	}
}
