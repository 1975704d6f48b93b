package rocparser

import (
	"bytes"

	gobits "github.com/ROCm/rocDecode-sub000/bits"
	"github.com/ROCm/rocDecode-sub000/dpb"
	"github.com/ROCm/rocDecode-sub000/hevc"
	"github.com/ROCm/rocDecode-sub000/nalstream"
)

// hevcPipeline drives one HEVC session's per-picture pipeline, the HEVC
// analogue of avcPipeline, grounded on the same NAL-dispatch shape
// original_source/src/parser/hevc_parser.cpp's ParseVideoData uses, adapted
// to HEVC's two-byte NAL header, POC-only reference identity, and IRAP/
// NoRaslOutputFlag output-suppression rule (section 8.1.3).
//
// Scope: exactly one slice segment per coded picture is processed into
// PicParams, matching avcPipeline's single-slice scope decision and every
// one of spec.md §8's HEVC end-to-end scenarios.
type hevcPipeline struct {
	store       hevc.ParamSetStore
	poc         hevc.POCState
	decodeOrder uint64
	refs        []hevc.RefPicture

	firstPictureInBitstream bool
}

func newHEVCPipeline() *hevcPipeline {
	return &hevcPipeline{firstPictureInBitstream: true}
}

// peekHEVCSlicePPSID reads just enough of a slice_segment_header() to
// resolve slice_pic_parameter_set_id, mirroring peekUE's role for AVC but
// accounting for HEVC's NAL-type-conditioned no_output_of_prior_pics_flag.
func peekHEVCSlicePPSID(rbsp []byte, nalType uint8) (firstSlice bool, ppsID int, err error) {
	r := gobits.NewReader(bytes.NewReader(rbsp))
	fs, err := r.Flag()
	if err != nil {
		return false, 0, err
	}
	if hevc.IsIRAP(nalType) {
		if _, err := r.Flag(); err != nil {
			return false, 0, err
		}
	}
	id, err := r.UE()
	if err != nil {
		return false, 0, err
	}
	return fs, int(id), nil
}

func (hp *hevcPipeline) parse(h *Handle, p *Packet) Status {
	units := nalstream.SplitAnnexB(p.Payload)
	for _, u := range units {
		raw := u.Bytes(p.Payload)
		nal, err := hevc.ParseNALHeader(raw)
		if err != nil {
			continue // too short to carry a NAL header, ignore
		}
		rbsp, err := gobits.StripEmulationPrevention(raw[2:])
		if err != nil {
			return h.fail(RuntimeError, err)
		}

		switch {
		case nal.Type == hevc.NALUnitTypeVPS:
			id, err := peekU4(rbsp)
			if err != nil {
				return h.fail(RuntimeError, err)
			}
			if err := hp.store.PutVPS(&hevc.VPS{ID: id}); err != nil {
				return h.fail(RuntimeError, err)
			}

		case nal.Type == hevc.NALUnitTypeSPS:
			sps, err := hevc.ParseSPS(rbsp)
			if err != nil {
				return h.fail(RuntimeError, err)
			}
			if err := hp.store.PutSPS(sps); err != nil {
				return h.fail(RuntimeError, err)
			}

		case nal.Type == hevc.NALUnitTypePPS:
			pps, err := hevc.ParsePPS(rbsp)
			if err != nil {
				return h.fail(RuntimeError, err)
			}
			if err := hp.store.PutPPS(pps); err != nil {
				return h.fail(RuntimeError, err)
			}

		case hevc.IsSlice(nal.Type):
			firstSlice, ppsID, err := peekHEVCSlicePPSID(rbsp, nal.Type)
			if err != nil {
				return h.fail(RuntimeError, err)
			}
			if !firstSlice {
				continue // not the first slice segment of a picture in this scope
			}
			pps, err := hp.store.PPS(ppsID)
			if err != nil {
				continue // recoverable: unreceived PPS, skip picture
			}
			sps, err := hp.store.SPS(pps.SPSID)
			if err != nil {
				continue
			}
			sh, err := hevc.ParseSliceSegmentHeader(rbsp, nal.Type, sps, pps)
			if err != nil {
				return h.fail(RuntimeError, err)
			}
			if st := hp.decodePicture(h, sps, pps, sh, nal, rbsp); st != Success {
				return st
			}
		}
	}
	return Success
}

func peekU4(rbsp []byte) (int, error) {
	r := gobits.NewReader(bytes.NewReader(rbsp))
	v, err := r.U(4)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func (hp *hevcPipeline) decodePicture(h *Handle, sps *hevc.SPS, pps *hevc.PPS, sh *hevc.SliceSegmentHeader, nal hevc.NALHeader, bitstream []byte) Status {
	changed := hp.store.Activate(sps)
	if changed && h.callbacks.Sequence != nil {
		format := &VideoFormat{
			Codec:                h.codec,
			CodedWidth:           sps.PicWidthInLumaSamples,
			CodedHeight:          sps.PicHeightInLumaSamples,
			DisplayWidth:         sps.Width(),
			DisplayHeight:        sps.Height(),
			ChromaFormat:         sps.ChromaFormatIDC,
			BitDepthLumaMinus8:   sps.BitDepthLumaMinus8,
			BitDepthChromaMinus8: sps.BitDepthChromaMinus8,
			MinNumDecodeSurfaces: h.pool.Size(),
		}
		if h.callbacks.Sequence(format) == 0 {
			return h.fail(RuntimeError, nil)
		}
	}

	noRaslOutputFlag := hevc.IsIDR(nal.Type) || hevc.IsBLA(nal.Type) ||
		(nal.Type == hevc.NALUnitTypeCRA && (hp.firstPictureInBitstream || h.state.FirstPicAfterEOS))
	h.state.NoRaslOutputFlag = noRaslOutputFlag

	poc := hp.poc.Derive(sps, nal.Type, sh.PicOrderCntLsb, noRaslOutputFlag)

	irapNoOutput := hevc.IsIRAP(nal.Type) && noRaslOutputFlag && sh.NoOutputOfPriorPics
	if hevc.IsIRAP(nal.Type) && noRaslOutputFlag {
		for _, idx := range h.dpb.MarkForOutputOnIrapWithNoRasl(irapNoOutput) {
			h.reorder.Push(idx)
			h.pool.ReleaseDecode(idx)
		}
		hp.refs = hp.refs[:0]
	}

	st := sh.ExplicitShortTermRefPicSet
	var stSet hevc.ShortTermRefPicSet
	if st != nil {
		stSet = *st
	} else if len(sps.ShortTermRefPicSets) > 0 {
		stSet = sps.ShortTermRefPicSets[sh.ShortTermRefPicSetIdx]
	}
	rps := hevc.DeriveRps(poc, stSet, sh.LtPocs, sh.LtUsedByCurrPic, hp.refs)

	maxNumReorder := 0
	if len(sps.MaxNumReorderPics) > 0 {
		maxNumReorder = sps.MaxNumReorderPics[len(sps.MaxNumReorderPics)-1]
	}
	maxDecBuf := h.dpb.Size()
	if len(sps.MaxDecPicBufferingMinus1) > 0 {
		maxDecBuf = sps.MaxDecPicBufferingMinus1[len(sps.MaxDecPicBufferingMinus1)-1] + 1
	}
	for _, idx := range h.dpb.ConditionalBump(maxNumReorder, maxDecBuf) {
		h.reorder.Push(idx)
		h.pool.ReleaseDecode(idx)
	}

	slotIdx, err := h.dpb.FindFreeSlot()
	if err != nil {
		return h.fail(RuntimeError, err)
	}
	surfaceIdx, err := h.pool.FindFreeSurface()
	if err != nil {
		return h.fail(RuntimeError, err)
	}

	isB := sh.SliceType == hevc.SliceTypeB
	list0, list1 := hevc.BuildRefPicLists(rps, sh.NumRefIdxL0ActiveMinus1, sh.NumRefIdxL1ActiveMinus1, isB, sh.ListEntryL0, sh.ListEntryL1)

	pic := &PicParams{
		Width:         sps.PicWidthInLumaSamples,
		Height:        sps.PicHeightInLumaSamples,
		CurrPicIdx:    surfaceIdx,
		BitstreamData: bitstream,
		NumSlices:     1,
		HEVC:          &HEVCPicParams{},
	}
	for i := range pic.HEVC.RefFrames {
		pic.HEVC.RefFrames[i] = HEVCRefFrame{PicIdx: 0xFF}
	}
	fillHEVCRefFrames(pic.HEVC.RefFrames[:], rps)
	fillHEVCSliceRefList(pic.HEVC.SliceRefPicList[0][:], list0, pic.HEVC.RefFrames[:])
	fillHEVCSliceRefList(pic.HEVC.SliceRefPicList[1][:], list1, pic.HEVC.RefFrames[:])

	if h.callbacks.Decode != nil && h.callbacks.Decode(pic) == 0 {
		return h.fail(RuntimeError, nil)
	}

	hp.decodeOrder++
	h.dpb.InsertCurrent(slotIdx, surfaceIdx, poc, hp.decodeOrder, true)
	h.pool.Claim(surfaceIdx, h.callbacks.Display != nil)

	isRef := nal.Type != hevc.NALUnitTypeTrailN && !hevc.IsSubLayerNonReference(nal.Type)
	kept := hp.refs[:0]
	for _, r := range rps.StCurrBefore {
		kept = append(kept, r)
	}
	for _, r := range rps.StCurrAfter {
		kept = append(kept, r)
	}
	for _, r := range rps.StFoll {
		kept = append(kept, r)
	}
	for _, r := range rps.LtCurr {
		r.IsLongTerm = true
		kept = append(kept, r)
	}
	for _, r := range rps.LtFoll {
		r.IsLongTerm = true
		kept = append(kept, r)
	}
	if isRef {
		kept = append(kept, hevc.RefPicture{DPBIndex: surfaceIdx, PicOrderCnt: poc})
	}
	hp.refs = kept

	keep := make(map[int]dpb.ReferenceState, len(hp.refs))
	for _, r := range hp.refs {
		state := dpb.ShortTerm
		if r.IsLongTerm {
			state = dpb.LongTerm
		}
		keep[r.DPBIndex] = state
	}
	h.dpb.MarkUnusedForReference(keep)

	hp.firstPictureInBitstream = false
	h.state.AdvancePicture()
	return h.releaseOutputs()
}

func fillHEVCRefFrames(out []HEVCRefFrame, rps hevc.CurrRps) {
	i := 0
	add := func(rs []hevc.RefPicture) {
		for _, r := range rs {
			if i >= len(out) {
				return
			}
			out[i] = HEVCRefFrame{PicIdx: r.DPBIndex, POC: r.PicOrderCnt}
			i++
		}
	}
	add(rps.StCurrBefore)
	add(rps.StCurrAfter)
	add(rps.LtCurr)
	add(rps.StFoll)
	add(rps.LtFoll)
}

// fillHEVCSliceRefList writes ref_pic_list entries as indices into
// refFrames (the ref_frames array already filled by fillHEVCRefFrames),
// not raw DPB/surface indices, per spec.md §6/§4.7. A reference with no
// matching refFrames entry (shouldn't occur: list was built from the same
// rps fillHEVCRefFrames consumed) is left at the unused-slot sentinel.
func fillHEVCSliceRefList(out []int, list []hevc.RefPicture, refFrames []HEVCRefFrame) {
	for i := range out {
		out[i] = 0xFF
	}
	for i, r := range list {
		if i >= len(out) {
			break
		}
		out[i] = 0xFF
		for j, rf := range refFrames {
			if rf.PicIdx == r.DPBIndex {
				out[i] = j
				break
			}
		}
	}
}
