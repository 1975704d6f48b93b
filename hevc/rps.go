package hevc

// RefPicture is the subset of a DPB entry's state the HEVC reference
// picture set and list construction processes need, mirroring avc.RefPicture
// but keyed on full POC rather than AVC's FrameNum/PicNum scheme, since HEVC
// derives POC directly (section 8.3.1) with no frame-number wraparound
// bookkeeping during reference management.
type RefPicture struct {
	DPBIndex    int
	PicOrderCnt int
	IsLongTerm  bool
}

// CurrRps is the output of the reference picture set derivation process,
// section 8.3.2: the five POC-partitioned sets the HEVC spec calls
// PocStCurrBefore, PocStCurrAfter, PocStFoll, PocLtCurr, and PocLtFoll.
// PocStFoll/PocLtFoll (pictures kept in the DPB for potential future
// reference but not used by the current picture) are tracked for DPB
// bookkeeping even though they never enter a current reference list.
type CurrRps struct {
	StCurrBefore []RefPicture
	StCurrAfter  []RefPicture
	StFoll       []RefPicture
	LtCurr       []RefPicture
	LtFoll       []RefPicture
}

// DeriveRps implements section 8.3.2 given the short-term set selected for
// the current slice (already resolved by the caller from
// short_term_ref_pic_set_sps_flag / short_term_ref_pic_set_idx, or an
// explicitly-coded set) and the long-term POC list from the slice header,
// matching each signalled delta-POC/POC value against the pictures the DPB
// currently holds.
func DeriveRps(currPOC int, st ShortTermRefPicSet, ltPocs []int, ltUsedByCurr []bool, dpb []RefPicture) CurrRps {
	var rps CurrRps
	byPOC := make(map[int]RefPicture, len(dpb))
	for _, r := range dpb {
		if !r.IsLongTerm {
			byPOC[r.PicOrderCnt] = r
		}
	}

	for i, d := range st.DeltaPocS0 {
		poc := currPOC + d
		r, ok := byPOC[poc]
		if !ok {
			continue
		}
		if st.UsedByCurrPicS0[i] {
			rps.StCurrBefore = append(rps.StCurrBefore, r)
		} else {
			rps.StFoll = append(rps.StFoll, r)
		}
	}
	for i, d := range st.DeltaPocS1 {
		poc := currPOC + d
		r, ok := byPOC[poc]
		if !ok {
			continue
		}
		if st.UsedByCurrPicS1[i] {
			rps.StCurrAfter = append(rps.StCurrAfter, r)
		} else {
			rps.StFoll = append(rps.StFoll, r)
		}
	}

	byLtPOC := make(map[int]RefPicture)
	for _, r := range dpb {
		if r.IsLongTerm {
			byLtPOC[r.PicOrderCnt] = r
		}
	}
	for i, poc := range ltPocs {
		r, ok := byLtPOC[poc]
		if !ok {
			continue
		}
		if i < len(ltUsedByCurr) && ltUsedByCurr[i] {
			rps.LtCurr = append(rps.LtCurr, r)
		} else {
			rps.LtFoll = append(rps.LtFoll, r)
		}
	}
	return rps
}

// GetRelativeDist is the HEVC output-order distance used to decide whether
// a leading picture's references are complete after an IRAP, section 8.1.3
// / C.5.2.2's "PicOrderCnt() relative to the IRAP" comparisons: simply the
// signed POC difference, since unlike AVC there is no frame_num wraparound
// to resolve here.
func GetRelativeDist(a, b int) int {
	return a - b
}
