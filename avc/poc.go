package avc

// POCState carries the picture order count derivation state that must
// persist across pictures, grounded on the vid.prevPicOrderCntMsb/Lsb,
// vid.frameNumOffset and vid.expectedDeltaPerPicOrderCntCycle fields in
// ausocean-av/codec/h264/h264dec/decode.go, generalized from that
// package's IDR-only implementation (which panics on any non-IDR picture)
// to the full process of section 8.2.1, including the prevHasMMCO5 carry
// spec.md §4.5 requires.
//
// Field-coded pictures (complementary top/bottom field pairs) are parsed
// syntactically but POC derivation here always treats a picture as a
// frame; no stream in this parser's test corpus, nor any of the testable
// scenarios in spec.md §8, exercises field coding, and combining a field
// pair's independent POCs into one picture's output order is out of scope.
type POCState struct {
	prevPicOrderCntMsb int
	prevPicOrderCntLsb int
	prevFrameNum       int
	prevFrameNumOffset int
	prevHasMMCO5       bool
}

// SliceForPOC is the subset of a parsed slice header POC derivation needs.
type SliceForPOC struct {
	IDRPicFlag              bool
	RefIDC                  uint8
	FrameNum                int
	PicOrderCntLsb          int
	DeltaPicOrderCntBottom  int
	DeltaPicOrderCnt0       int
	DeltaPicOrderCnt1       int
	MemoryManagementControl5 bool
}

// Derive returns (topFieldOrderCnt, bottomFieldOrderCnt, picOrderCnt) for
// the next picture and advances the persistent state, following section
// 8.2.1.
func (st *POCState) Derive(sps *SPS, sh *SliceForPOC) (top, bottom, poc int) {
	switch sps.PicOrderCountType {
	case 0:
		top, bottom = st.deriveType0(sps, sh)
	case 1:
		top, bottom = st.deriveType1(sps, sh)
	default:
		top, bottom = st.deriveType2(sps, sh)
	}

	poc = top
	if bottom < poc {
		poc = bottom
	}

	st.prevFrameNum = sh.FrameNum
	st.prevHasMMCO5 = sh.MemoryManagementControl5
	if sh.MemoryManagementControl5 {
		// 8.2.1: after MMCO 5, tempPicOrderCnt is subtracted from both
		// field order counts for *this* picture's output, and frame_num /
		// POC tracking resets for the next one.
		tmp := poc
		top -= tmp
		bottom -= tmp
		poc = 0
		st.prevFrameNumOffset = 0
		st.prevPicOrderCntMsb = 0
		st.prevPicOrderCntLsb = 0
	}
	return top, bottom, poc
}

func (st *POCState) deriveType0(sps *SPS, sh *SliceForPOC) (top, bottom int) {
	maxLsb := sps.MaxPicOrderCntLSB()

	prevMsb, prevLsb := st.prevPicOrderCntMsb, st.prevPicOrderCntLsb
	if sh.IDRPicFlag {
		prevMsb, prevLsb = 0, 0
	} else if st.prevHasMMCO5 {
		prevLsb = st.prevPicOrderCntLsb
		prevMsb = 0
	}

	msb := prevMsb
	switch {
	case sh.PicOrderCntLsb < prevLsb && prevLsb-sh.PicOrderCntLsb >= maxLsb/2:
		msb = prevMsb + maxLsb
	case sh.PicOrderCntLsb > prevLsb && sh.PicOrderCntLsb-prevLsb > maxLsb/2:
		msb = prevMsb - maxLsb
	}

	top = msb + sh.PicOrderCntLsb
	bottom = top + sh.DeltaPicOrderCntBottom

	st.prevPicOrderCntMsb = msb
	st.prevPicOrderCntLsb = sh.PicOrderCntLsb
	return top, bottom
}

func (st *POCState) deriveType1(sps *SPS, sh *SliceForPOC) (top, bottom int) {
	frameNumOffset := 0
	switch {
	case sh.IDRPicFlag:
		frameNumOffset = 0
	case st.prevFrameNum > sh.FrameNum:
		frameNumOffset = st.prevFrameNumOffset + sps.MaxFrameNum()
	default:
		frameNumOffset = st.prevFrameNumOffset
	}

	absFrameNum := 0
	if len(sps.OffsetForRefFrame) != 0 {
		absFrameNum = frameNumOffset + sh.FrameNum
	}
	if sh.RefIDC == 0 && absFrameNum > 0 {
		absFrameNum--
	}

	expectedDeltaPerCycle := 0
	for _, o := range sps.OffsetForRefFrame {
		expectedDeltaPerCycle += o
	}

	var expected int
	if absFrameNum > 0 {
		n := len(sps.OffsetForRefFrame)
		cycleCnt := (absFrameNum - 1) / n
		inCycle := (absFrameNum - 1) % n
		expected = cycleCnt * expectedDeltaPerCycle
		for i := 0; i <= inCycle; i++ {
			expected += sps.OffsetForRefFrame[i]
		}
	}
	if sh.RefIDC == 0 {
		expected += sps.OffsetForNonRefPic
	}

	top = expected + sh.DeltaPicOrderCnt0
	bottom = top + sps.OffsetForTopToBottomField + sh.DeltaPicOrderCnt1

	st.prevFrameNumOffset = frameNumOffset
	return top, bottom
}

func (st *POCState) deriveType2(sps *SPS, sh *SliceForPOC) (top, bottom int) {
	frameNumOffset := 0
	switch {
	case sh.IDRPicFlag:
		frameNumOffset = 0
	case st.prevFrameNum > sh.FrameNum:
		frameNumOffset = st.prevFrameNumOffset + sps.MaxFrameNum()
	default:
		frameNumOffset = st.prevFrameNumOffset
	}

	var tempPOC int
	switch {
	case sh.IDRPicFlag:
		tempPOC = 0
	case sh.RefIDC == 0:
		tempPOC = 2*(frameNumOffset+sh.FrameNum) - 1
	default:
		tempPOC = 2 * (frameNumOffset + sh.FrameNum)
	}

	top, bottom = tempPOC, tempPOC
	st.prevFrameNumOffset = frameNumOffset
	return top, bottom
}
