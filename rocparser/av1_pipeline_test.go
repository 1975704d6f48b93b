package rocparser

import (
	"testing"

	"github.com/ROCm/rocDecode-sub000/av1"
	"github.com/ROCm/rocDecode-sub000/nalstream"
	"github.com/ROCm/rocDecode-sub000/session"
)

// av1OBU frames a payload as one OBU with obu_has_size_field=1 and no
// extension header, matching nalstream.SplitOBUs' expected layout. The size
// is leb128-encoded as a single byte, valid only for payloads under 128
// bytes — sufficient for these hand-built fixtures.
func av1OBU(obuType uint8, payload []byte) []byte {
	header := byte(obuType<<3) | 0x02 // obu_has_size_field=1
	out := []byte{header, byte(len(payload))}
	return append(out, payload...)
}

// av1NonReducedSequenceHeaderBytes builds a sequence header with
// enable_order_hint=true (order_hint_bits_minus_1=3, giving OrderHintBits=4)
// and both screen-content-tools and integer-mv left to "choose" defaults —
// a fuller layout than the av1 package's own reduced-still-picture fixture,
// needed here since the frame header below requires order hints.
func av1NonReducedSequenceHeaderBytes() []byte {
	b := newBitBuilder()
	b.u(3, 0)     // seq_profile
	b.flag(false) // still_picture
	b.flag(false) // reduced_still_picture_header

	b.flag(false) // timing_info_present_flag
	b.flag(false) // initial_display_delay_present_flag
	b.u(5, 0)     // operating_points_cnt_minus_1
	b.u(12, 0)    // operating_point_idc[0]
	b.u(5, 0)     // seq_level_idx[0]

	b.u(4, 5)  // frame_width_bits_minus_1 -> 6 bits
	b.u(4, 5)  // frame_height_bits_minus_1 -> 6 bits
	b.u(6, 63) // max_frame_width_minus_1 -> 64
	b.u(6, 63) // max_frame_height_minus_1 -> 64

	b.flag(false) // frame_id_numbers_present_flag

	b.flag(false) // use_128x128_superblock
	b.flag(false) // enable_filter_intra
	b.flag(false) // enable_intra_edge_filter

	b.flag(false) // enable_interintra_compound
	b.flag(false) // enable_masked_compound
	b.flag(false) // enable_warped_motion
	b.flag(false) // enable_dual_filter
	b.flag(true)  // enable_order_hint
	b.flag(false) // enable_jnt_comp
	b.flag(false) // enable_ref_frame_mvs

	b.flag(true) // seq_choose_screen_content_tools
	b.flag(true) // seq_choose_integer_mv
	b.u(3, 3)    // order_hint_bits_minus_1 -> OrderHintBits = 4

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

// av1KeyFrameHeaderBytes builds an uncompressed_header() for a shown key
// frame against the sequence header above: screen-content-tools and
// integer-mv both resolve to their "choose" defaults at the sequence level,
// so allow_screen_content_tools is the only extra flag this frame header
// reads beyond the av1 package's own minimal intra-key-frame fixture.
func av1KeyFrameHeaderBytes(orderHint uint64) []byte {
	b := newBitBuilder()
	b.flag(false) // show_existing_frame
	b.u(2, av1.FrameTypeKey)
	b.flag(true)  // show_frame
	// error_resilient_mode implied by FrameType==Key && ShowFrame, not coded.
	b.flag(false) // disable_cdf_update
	b.flag(false) // allow_screen_content_tools
	b.flag(false) // frame_size_override_flag
	b.u(4, orderHint)
	b.flag(false) // render_and_frame_size_different
	return b.bytes()
}

func TestAV1PipelineEndToEnd(t *testing.T) {
	var gotFormat *VideoFormat
	var gotPic *PicParams
	var gotDisp *DispInfo

	h, status := Create(Params{
		Codec: session.AV1,
		Callbacks: Callbacks{
			Sequence: func(f *VideoFormat) int { gotFormat = f; return 1 },
			Decode:   func(p *PicParams) int { gotPic = p; return 1 },
			Display:  func(d *DispInfo) int { gotDisp = d; return 1 },
		},
	})
	if status != Success {
		t.Fatalf("Create() = %v, want Success", status)
	}

	var payload []byte
	payload = append(payload, av1OBU(nalstream.OBUTemporalDelimiter, nil)...)
	payload = append(payload, av1OBU(nalstream.OBUSequenceHeader, av1NonReducedSequenceHeaderBytes())...)
	payload = append(payload, av1OBU(nalstream.OBUFrameHeader, av1KeyFrameHeaderBytes(5))...)

	status = h.ParseVideoData(&Packet{Payload: payload})
	if status != Success {
		t.Fatalf("ParseVideoData() = %v, want Success (LastError: %v)", status, LastError(h))
	}

	if gotFormat == nil {
		t.Fatal("SequenceCb never fired")
	}
	if gotFormat.CodedWidth != 64 || gotFormat.CodedHeight != 64 {
		t.Errorf("VideoFormat dims = %dx%d, want 64x64", gotFormat.CodedWidth, gotFormat.CodedHeight)
	}

	if gotPic == nil {
		t.Fatal("DecodeCb never fired")
	}
	if gotPic.Width != 64 || gotPic.Height != 64 {
		t.Errorf("PicParams dims = %dx%d, want 64x64", gotPic.Width, gotPic.Height)
	}
	if gotPic.AV1 == nil {
		t.Fatal("PicParams.AV1 not populated")
	}
	if gotPic.AV1.FrameType != av1.FrameTypeKey {
		t.Errorf("FrameType = %d, want FrameTypeKey", gotPic.AV1.FrameType)
	}
	if gotPic.AV1.OrderHint != 5 {
		t.Errorf("OrderHint = %d, want 5", gotPic.AV1.OrderHint)
	}

	// A key frame with show_frame=1 pushes straight to the reorder queue
	// (pipeline_av1.go's decodeFrame), unlike AVC/HEVC which need a later
	// bump or an explicit flush — so DisplayCb should already have fired.
	if gotDisp == nil {
		t.Fatal("DisplayCb never fired for a shown key frame")
	}
	if gotDisp.PicIdx != gotPic.CurrPicIdx {
		t.Errorf("DispInfo.PicIdx = %d, want %d", gotDisp.PicIdx, gotPic.CurrPicIdx)
	}
}
