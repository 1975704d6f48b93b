package rocparser

import (
	"github.com/ROCm/rocDecode-sub000/av1"
	"github.com/ROCm/rocDecode-sub000/nalstream"
)

// av1Pipeline drives one AV1 session's per-frame pipeline, grounded on
// original_source/src/parser/av1_parser.cpp's ParseVideoData OBU-dispatch
// loop, adapted to this package's OBU framer and the av1 package's
// sequence/frame-header parsers.
//
// Scope: one coded frame (an OBU_FRAME_HEADER or a single OBU_FRAME) per
// DecodeCb call, matching spec.md §8's AV1 single-keyframe scenario.
// OBU_TILE_GROUP units are not dispatched: BitstreamData carries only the
// OBU_FRAME_HEADER or OBU_FRAME payload, so for a frame coded as a frame
// header plus separate tile groups no tile data reaches PicParams.
type av1Pipeline struct {
	seq         *av1.SequenceHeader
	seqPending  bool // a sequence header was parsed and not yet reported via SequenceCb
	refSlot     [av1.NumRefFrames]int // dpb slot index last assigned to each ref frame slot
	surfaceSlot [av1.NumRefFrames]int // decode-pool surface index last assigned to each ref frame slot
	decodeOrder uint64
}

func newAV1Pipeline() *av1Pipeline { return &av1Pipeline{} }

func (ap *av1Pipeline) parse(h *Handle, p *Packet) Status {
	obus, err := nalstream.SplitOBUs(p.Payload)
	if err != nil {
		return h.fail(RuntimeError, err)
	}
	for _, o := range obus {
		payload := o.Bytes(p.Payload)
		switch o.Type {
		case nalstream.OBUTemporalDelimiter:
			h.state.AV1.SeenFrameHeader = false

		case nalstream.OBUSequenceHeader:
			seq, err := av1.ParseSequenceHeaderObu(payload)
			if err != nil {
				return h.fail(RuntimeError, err)
			}
			ap.seq = seq
			ap.seqPending = true

		case nalstream.OBUFrameHeader, nalstream.OBUFrame:
			if ap.seq == nil {
				return h.fail(RuntimeError, nil) // frame header before any sequence header
			}
			fh, err := av1.ParseUncompressedHeader(payload, ap.seq, h.state.AV1.RefOrderHint, h.state.AV1.RefFrameType)
			if err != nil {
				return h.fail(RuntimeError, err)
			}
			h.state.AV1.SeenFrameHeader = true
			if st := ap.decodeFrame(h, fh, payload); st != Success {
				return st
			}

		case nalstream.OBURedundantFrameHeader:
			// A redundant frame header must repeat an already-seen header
			// within the same temporal unit verbatim, section 5.9.2; this
			// parser does not re-decode it, only enforces the ordering
			// invariant.
			if !h.state.AV1.SeenFrameHeader {
				return h.fail(RuntimeError, nil)
			}
		}
	}
	return Success
}

func (ap *av1Pipeline) decodeFrame(h *Handle, fh *av1.FrameHeader, bitstream []byte) Status {
	if fh.ShowExistingFrame {
		return ap.showExistingFrame(h, fh)
	}

	if ap.seqPending && h.callbacks.Sequence != nil {
		format := &VideoFormat{
			Codec:                h.codec,
			CodedWidth:           fh.FrameWidth,
			CodedHeight:          fh.FrameHeight,
			DisplayWidth:         fh.RenderWidth,
			DisplayHeight:        fh.RenderHeight,
			BitDepthLumaMinus8:   ap.seq.ColorConfig.BitDepth - 8,
			BitDepthChromaMinus8: ap.seq.ColorConfig.BitDepth - 8,
			MinNumDecodeSurfaces: h.pool.Size(),
		}
		if h.callbacks.Sequence(format) == 0 {
			return h.fail(RuntimeError, nil)
		}
		ap.seqPending = false
	}

	maxNumReorder := 0 // AV1 has no explicit reorder-depth field; bounded purely by max_display_delay.
	for _, idx := range h.dpb.ConditionalBump(maxNumReorder, h.dpb.Size()) {
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

	pic := &PicParams{
		Width:         fh.FrameWidth,
		Height:        fh.FrameHeight,
		CurrPicIdx:    surfaceIdx,
		BitstreamData: bitstream,
		NumSlices:     1,
		AV1: &AV1PicParams{
			FrameType: fh.FrameType,
			OrderHint: fh.OrderHint,
		},
	}
	for i := 0; i < av1.RefsPerFrame; i++ {
		pic.AV1.RefFrameIdx[i] = ap.surfaceSlot[fh.RefFrameIdx[i]]
	}

	if h.callbacks.Decode != nil && h.callbacks.Decode(pic) == 0 {
		return h.fail(RuntimeError, nil)
	}

	ap.decodeOrder++
	// picOutputFlag is always false here: AV1 output never flows through
	// the DPB's own OutputPending/BumpOne bookkeeping (unlike AVC/HEVC) —
	// a shown frame is pushed to the reorder queue directly below, and a
	// previously decoded frame is re-shown via show_existing_frame. Passing
	// fh.ShowFrame through would additionally mark the slot OutputPending
	// and the next ConditionalBump/flush would enqueue and display it a
	// second time.
	h.dpb.InsertCurrent(slotIdx, surfaceIdx, fh.OrderHint, ap.decodeOrder, false)
	h.pool.Claim(surfaceIdx, h.callbacks.Display != nil)

	for i := 0; i < av1.NumRefFrames; i++ {
		if fh.RefreshFrameFlags&(1<<uint(i)) != 0 {
			ap.refSlot[i] = slotIdx
			ap.surfaceSlot[i] = surfaceIdx
			h.state.AV1.RefOrderHint[i] = fh.OrderHint
			h.state.AV1.RefFrameType[i] = fh.FrameType
		}
	}

	if fh.ShowFrame {
		h.reorder.Push(surfaceIdx)
	}

	h.state.AdvancePicture()
	return h.releaseOutputs()
}

// showExistingFrame implements section 7.4's show_existing_frame path: the
// referenced slot's surface is pushed straight to the output-reorder queue
// with no new DecodeCb dispatch.
func (ap *av1Pipeline) showExistingFrame(h *Handle, fh *av1.FrameHeader) Status {
	surfaceIdx := ap.surfaceSlot[fh.FrameToShowMapIdx]
	h.reorder.Push(surfaceIdx)
	if fh.FrameType == av1.FrameTypeKey {
		for i := 0; i < av1.NumRefFrames; i++ {
			ap.refSlot[i] = ap.refSlot[fh.FrameToShowMapIdx]
			ap.surfaceSlot[i] = surfaceIdx
			h.state.AV1.RefOrderHint[i] = h.state.AV1.RefOrderHint[fh.FrameToShowMapIdx]
			h.state.AV1.RefFrameType[i] = av1.FrameTypeKey
		}
	}
	h.state.AdvancePicture()
	return h.releaseOutputs()
}
