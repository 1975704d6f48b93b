package avc

import "testing"

func TestDeriveMarkingSlidingWindowEvictsOldest(t *testing.T) {
	sps := &SPS{MaxNumRefFrames: 2, Log2MaxFrameNumMinus4: 0} // MaxFrameNum = 16
	sh := &SliceHeader{} // no DecRefPicMarking -> sliding window path.

	refs := []RefPicture{
		{DPBIndex: 0, FrameNum: 1},
		{DPBIndex: 1, FrameNum: 2},
	}
	d := DeriveMarking(sh, sps, 3, refs)
	if len(d.UnusedDPBIndices) != 1 || d.UnusedDPBIndices[0] != 0 {
		t.Fatalf("UnusedDPBIndices = %v, want [0] (oldest FrameNumWrap)", d.UnusedDPBIndices)
	}
}

func TestDeriveMarkingSlidingWindowNoEvictionBelowCapacity(t *testing.T) {
	sps := &SPS{MaxNumRefFrames: 4, Log2MaxFrameNumMinus4: 0}
	sh := &SliceHeader{}
	refs := []RefPicture{{DPBIndex: 0, FrameNum: 1}}
	d := DeriveMarking(sh, sps, 2, refs)
	if len(d.UnusedDPBIndices) != 0 {
		t.Fatalf("UnusedDPBIndices = %v, want none (below MaxNumRefFrames)", d.UnusedDPBIndices)
	}
}

func TestDeriveMarkingAdaptiveMMCO1UnmarksShortTerm(t *testing.T) {
	sps := &SPS{MaxNumRefFrames: 4, Log2MaxFrameNumMinus4: 0}
	sh := &SliceHeader{
		DecRefPicMarking: &DecRefPicMarking{
			AdaptiveRefPicMarkingMode: true,
			Ops: []MMCOOp{
				{Op: 1, DifferenceOfPicNumsMinus1: 0}, // picNumX = currFrameNum - 1.
			},
		},
	}
	refs := []RefPicture{{DPBIndex: 5, FrameNum: 4}}
	d := DeriveMarking(sh, sps, 5, refs)
	if len(d.UnusedDPBIndices) != 1 || d.UnusedDPBIndices[0] != 5 {
		t.Fatalf("UnusedDPBIndices = %v, want [5]", d.UnusedDPBIndices)
	}
}

func TestDeriveMarkingAdaptiveMMCO5MarksAllUnused(t *testing.T) {
	sps := &SPS{MaxNumRefFrames: 4, Log2MaxFrameNumMinus4: 0}
	sh := &SliceHeader{
		DecRefPicMarking: &DecRefPicMarking{
			AdaptiveRefPicMarkingMode: true,
			Ops:                       []MMCOOp{{Op: 5}},
		},
	}
	refs := []RefPicture{{DPBIndex: 0}, {DPBIndex: 1}, {DPBIndex: 2}}
	d := DeriveMarking(sh, sps, 9, refs)
	if len(d.UnusedDPBIndices) != 3 {
		t.Fatalf("UnusedDPBIndices = %v, want all 3 marked unused", d.UnusedDPBIndices)
	}
}

func TestDeriveMarkingAdaptiveMMCO6MarksCurrentLongTerm(t *testing.T) {
	sps := &SPS{MaxNumRefFrames: 4, Log2MaxFrameNumMinus4: 0}
	sh := &SliceHeader{
		DecRefPicMarking: &DecRefPicMarking{
			AdaptiveRefPicMarkingMode: true,
			Ops:                       []MMCOOp{{Op: 6, LongTermFrameIdx: 2}},
		},
	}
	d := DeriveMarking(sh, sps, 9, nil)
	if !d.CurrentMarkedLongTerm || d.CurrentLongTermFrameIdx != 2 {
		t.Fatalf("current-long-term marking not applied: %+v", d)
	}
}
