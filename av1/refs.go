package av1

// GetRelativeDist implements get_relative_dist(), section 5.9.3: the
// circular order-hint distance a-b, wrapped into the signed range
// [-m, m-1] where m = 1 << (OrderHintBits-1).
func GetRelativeDist(seq *SequenceHeader, a, b int) int {
	if !seq.EnableOrderHint {
		return 0
	}
	diff := a - b
	m := 1 << uint(seq.OrderHintBits-1)
	diff = (diff & (m - 1)) - (diff & m)
	return diff
}

// SetFrameRefs implements the set_frame_refs() process, section 7.8: given
// last_frame_idx and gold_frame_idx signalled via frame_refs_short_signaling,
// derive the remaining five entries of ref_frame_idx[0..6] from the stored
// per-slot order hints via Latest-Backward / Earliest-Backward (twice) /
// Latest-Forward selection, with a deterministic final fallback to the
// reference with the smallest shifted order hint.
func SetFrameRefs(seq *SequenceHeader, fh *FrameHeader, refOrderHint [NumRefFrames]int) {
	for i := 0; i < RefsPerFrame; i++ {
		fh.RefFrameIdx[i] = -1
	}
	fh.RefFrameIdx[RefLastFrame-RefLastFrame] = fh.LastFrameIdx
	fh.RefFrameIdx[RefGoldenFrame-RefLastFrame] = fh.GoldFrameIdx

	usedFrame := [NumRefFrames]bool{}
	usedFrame[fh.LastFrameIdx] = true
	usedFrame[fh.GoldFrameIdx] = true

	currFrameHint := 1 << uint(seq.OrderHintBits-1)
	var shiftedOrderHints [NumRefFrames]int
	for i := 0; i < NumRefFrames; i++ {
		shiftedOrderHints[i] = currFrameHint + GetRelativeDist(seq, refOrderHint[i], fh.OrderHint)
	}

	if ref := findLatestBackward(shiftedOrderHints, usedFrame, currFrameHint); ref >= 0 {
		fh.RefFrameIdx[RefAltRefFrame-RefLastFrame] = ref
		usedFrame[ref] = true
	}
	if ref := findEarliestBackward(shiftedOrderHints, usedFrame, currFrameHint); ref >= 0 {
		fh.RefFrameIdx[RefBwdRefFrame-RefLastFrame] = ref
		usedFrame[ref] = true
	}
	if ref := findEarliestBackward(shiftedOrderHints, usedFrame, currFrameHint); ref >= 0 {
		fh.RefFrameIdx[RefAltRef2Frame-RefLastFrame] = ref
		usedFrame[ref] = true
	}

	refFrameList := [RefsPerFrame - 2]int{RefLast2Frame, RefLast3Frame, RefBwdRefFrame, RefAltRef2Frame, RefAltRefFrame}
	for _, refFrame := range refFrameList {
		if fh.RefFrameIdx[refFrame-RefLastFrame] < 0 {
			if ref := findLatestForward(shiftedOrderHints, usedFrame, currFrameHint); ref >= 0 {
				fh.RefFrameIdx[refFrame-RefLastFrame] = ref
				usedFrame[ref] = true
			}
		}
	}

	earliest := -1
	earliestHint := 0
	for i := 0; i < NumRefFrames; i++ {
		if earliest < 0 || shiftedOrderHints[i] < earliestHint {
			earliest = i
			earliestHint = shiftedOrderHints[i]
		}
	}
	for i := 0; i < RefsPerFrame; i++ {
		if fh.RefFrameIdx[i] < 0 {
			fh.RefFrameIdx[i] = earliest
		}
	}
}

func findLatestBackward(shiftedOrderHints [NumRefFrames]int, usedFrame [NumRefFrames]bool, currFrameHint int) int {
	ref := -1
	latest := 0
	for i := 0; i < NumRefFrames; i++ {
		hint := shiftedOrderHints[i]
		if !usedFrame[i] && hint >= currFrameHint && (ref < 0 || hint >= latest) {
			ref = i
			latest = hint
		}
	}
	return ref
}

func findEarliestBackward(shiftedOrderHints [NumRefFrames]int, usedFrame [NumRefFrames]bool, currFrameHint int) int {
	ref := -1
	earliest := 0
	for i := 0; i < NumRefFrames; i++ {
		hint := shiftedOrderHints[i]
		if !usedFrame[i] && hint >= currFrameHint && (ref < 0 || hint < earliest) {
			ref = i
			earliest = hint
		}
	}
	return ref
}

func findLatestForward(shiftedOrderHints [NumRefFrames]int, usedFrame [NumRefFrames]bool, currFrameHint int) int {
	ref := -1
	latest := 0
	for i := 0; i < NumRefFrames; i++ {
		hint := shiftedOrderHints[i]
		if !usedFrame[i] && hint < currFrameHint && (ref < 0 || hint >= latest) {
			ref = i
			latest = hint
		}
	}
	return ref
}
