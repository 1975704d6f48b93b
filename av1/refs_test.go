package av1

import "testing"

func TestGetRelativeDistDisabledOrderHint(t *testing.T) {
	seq := &SequenceHeader{EnableOrderHint: false}
	if d := GetRelativeDist(seq, 5, 1); d != 0 {
		t.Errorf("GetRelativeDist = %d, want 0 when order hint disabled", d)
	}
}

func TestGetRelativeDistWraps(t *testing.T) {
	seq := &SequenceHeader{EnableOrderHint: true, OrderHintBits: 3} // m = 4
	if d := GetRelativeDist(seq, 1, 7); d != 2 {
		t.Errorf("GetRelativeDist(1,7) = %d, want 2 (wraps forward)", d)
	}
	if d := GetRelativeDist(seq, 7, 1); d != -2 {
		t.Errorf("GetRelativeDist(7,1) = %d, want -2", d)
	}
}

func TestSetFrameRefsAssignsAllSevenSlots(t *testing.T) {
	seq := &SequenceHeader{EnableOrderHint: true, OrderHintBits: 4}
	fh := &FrameHeader{OrderHint: 8, LastFrameIdx: 0, GoldFrameIdx: 1}
	refOrderHint := [NumRefFrames]int{6, 2, 10, 12, 4, 14, 0, 9}

	SetFrameRefs(seq, fh, refOrderHint)

	for i, idx := range fh.RefFrameIdx {
		if idx < 0 || idx >= NumRefFrames {
			t.Errorf("RefFrameIdx[%d] = %d, want a valid DPB slot", i, idx)
		}
	}
	if fh.RefFrameIdx[RefLastFrame-RefLastFrame] != 0 {
		t.Errorf("RefFrameIdx[Last] = %d, want 0 (from LastFrameIdx)", fh.RefFrameIdx[RefLastFrame-RefLastFrame])
	}
	if fh.RefFrameIdx[RefGoldenFrame-RefLastFrame] != 1 {
		t.Errorf("RefFrameIdx[Golden] = %d, want 1 (from GoldFrameIdx)", fh.RefFrameIdx[RefGoldenFrame-RefLastFrame])
	}
}

func TestGetRelativeDistAntisymmetric(t *testing.T) {
	for bits := 1; bits <= 8; bits++ {
		seq := &SequenceHeader{EnableOrderHint: true, OrderHintBits: bits}
		m := 1 << uint(bits)
		for a := 0; a < m; a++ {
			for b := 0; b < m; b++ {
				fwd := GetRelativeDist(seq, a, b)
				bwd := GetRelativeDist(seq, b, a)
				if fwd != -bwd {
					t.Fatalf("OrderHintBits=%d: GetRelativeDist(%d,%d)=%d, GetRelativeDist(%d,%d)=%d, want negatives of each other",
						bits, a, b, fwd, b, a, bwd)
				}
				if a == b && fwd != 0 {
					t.Fatalf("OrderHintBits=%d: GetRelativeDist(%d,%d)=%d, want 0", bits, a, b, fwd)
				}
			}
		}
	}
}

func TestFindLatestBackwardSkipsUsedAndForward(t *testing.T) {
	shifted := [NumRefFrames]int{10, 20, 5, 30, 40, 0, 0, 0}
	used := [NumRefFrames]bool{4: true}
	currHint := 8
	ref := findLatestBackward(shifted, used, currHint)
	if ref != 3 {
		t.Errorf("findLatestBackward = %d, want 3 (hint 30, the largest unused >= currHint)", ref)
	}
}
