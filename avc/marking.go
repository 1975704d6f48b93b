package avc

// MarkDecision is the output of reference-picture marking, sections 8.2.5.3
// (sliding window) and 8.2.5.4 (adaptive MMCO): which existing references
// the DPB must drop or promote to long-term before the current picture is
// inserted. It is expressed as instructions over the `refs` slice passed to
// DeriveMarking rather than as direct mutation, since the avc package has
// no DPB of its own to mutate — spec.md's Dpb component (§4.6) owns the
// actual slot array and applies this decision to it.
type MarkDecision struct {
	// UnusedDPBIndices are the RefPicture.DPBIndex values the DPB must mark
	// Unused.
	UnusedDPBIndices []int
	// LongTermDPBIndices maps a RefPicture.DPBIndex to the
	// long_term_frame_idx it must be marked with.
	LongTermDPBIndices map[int]int
	// MaxLongTermFrameIdx is the new maximum allowed long-term frame index
	// (MMCO 4), or -1 if unset by this picture.
	MaxLongTermFrameIdx int
	// CurrentMarkedLongTerm is true if MMCO 6 assigns the about-to-be-
	// inserted current picture itself a long-term index.
	CurrentMarkedLongTerm bool
	CurrentLongTermFrameIdx int
}

// DeriveMarking implements 8.2.5.1's top-level dispatch between the
// sliding-window process (8.2.5.3) and adaptive MMCO (8.2.5.4), grounded on
// the drpmElement/MemoryManagementControlOperation fields parsed in
// ausocean-av/codec/h264/h264dec/slice.go (NewDecRefPicMarking) — the
// teacher parses these MMCO syntax elements but never applies them; this
// is the missing application step spec.md §4.5/§4.6 requires.
func DeriveMarking(sh *SliceHeader, sps *SPS, currFrameNum int, refs []RefPicture) MarkDecision {
	d := MarkDecision{MaxLongTermFrameIdx: -1, LongTermDPBIndices: map[int]int{}}

	if sh.DecRefPicMarking != nil && sh.DecRefPicMarking.AdaptiveRefPicMarkingMode {
		maxFrameNum := sps.MaxFrameNum()
		for _, op := range sh.DecRefPicMarking.Ops {
			switch op.Op {
			case 1: // mark a short-term picture as unused.
				picNumX := currFrameNum - (op.DifferenceOfPicNumsMinus1 + 1)
				for _, r := range refs {
					if !r.IsLongTerm && picNum(r, currFrameNum, maxFrameNum) == picNumX {
						d.UnusedDPBIndices = append(d.UnusedDPBIndices, r.DPBIndex)
					}
				}
			case 2: // mark a long-term picture as unused.
				for _, r := range refs {
					if r.IsLongTerm && longTermPicNum(r) == op.LongTermPicNum {
						d.UnusedDPBIndices = append(d.UnusedDPBIndices, r.DPBIndex)
					}
				}
			case 3: // mark a short-term picture as long-term.
				picNumX := currFrameNum - (op.DifferenceOfPicNumsMinus1 + 1)
				for _, r := range refs {
					if !r.IsLongTerm && picNum(r, currFrameNum, maxFrameNum) == picNumX {
						d.LongTermDPBIndices[r.DPBIndex] = op.LongTermFrameIdx
					}
				}
			case 4: // set MaxLongTermFrameIdx.
				d.MaxLongTermFrameIdx = op.MaxLongTermFrameIdxPlus1 - 1
			case 5: // mark all references unused; POC reset handled by POCState.
				for _, r := range refs {
					d.UnusedDPBIndices = append(d.UnusedDPBIndices, r.DPBIndex)
				}
			case 6: // mark current picture long-term.
				d.CurrentMarkedLongTerm = true
				d.CurrentLongTermFrameIdx = op.LongTermFrameIdx
			}
		}
		return d
	}

	// Sliding window, 8.2.5.3: evict the short-term reference with the
	// smallest FrameNumWrap once numShortTerm+numLongTerm reaches
	// max(MaxNumRefFrames, 1).
	maxRefs := sps.MaxNumRefFrames
	if maxRefs < 1 {
		maxRefs = 1
	}
	if len(refs) < maxRefs {
		return d
	}
	var oldest *RefPicture
	oldestWrap := 0
	for i, r := range refs {
		if r.IsLongTerm {
			continue
		}
		wrap := picNum(r, currFrameNum, sps.MaxFrameNum())
		if oldest == nil || wrap < oldestWrap {
			oldest = &refs[i]
			oldestWrap = wrap
		}
	}
	if oldest != nil {
		d.UnusedDPBIndices = append(d.UnusedDPBIndices, oldest.DPBIndex)
	}
	return d
}
