package hevc

// BuildRefPicLists implements the reference picture list construction
// process, section 8.3.4: concatenate RefPicListTemp0/1 from
// StCurrBefore/StCurrAfter/LtCurr (cycling if the temp list is shorter than
// NumRefIdxL0ActiveMinus1+1) then select the first numRefIdx entries,
// applying ref_pic_lists_modification() if list_entry indices were
// signalled.
//
// Grounded on spec.md §4.7's description of the equivalent AVC process
// generalized to HEVC's POC-only (no FrameNum wraparound) reference
// identity; no pack example parses real HEVC reference list construction,
// so (as for avc.BuildRefPicLists) this follows the specification text
// directly rather than an adapted teacher implementation.
func BuildRefPicLists(rps CurrRps, numRefIdxL0ActiveMinus1, numRefIdxL1ActiveMinus1 int, isB bool, listEntryL0, listEntryL1 []int) (list0, list1 []RefPicture) {
	numPicTotalCurr := len(rps.StCurrBefore) + len(rps.StCurrAfter) + len(rps.LtCurr)

	temp0 := buildTemp(rps.StCurrBefore, rps.StCurrAfter, rps.LtCurr, numRefIdxL0ActiveMinus1+1, numPicTotalCurr)
	list0 = selectList(temp0, listEntryL0, numRefIdxL0ActiveMinus1+1)

	if !isB {
		return list0, nil
	}
	temp1 := buildTemp(rps.StCurrAfter, rps.StCurrBefore, rps.LtCurr, numRefIdxL1ActiveMinus1+1, numPicTotalCurr)
	list1 = selectList(temp1, listEntryL1, numRefIdxL1ActiveMinus1+1)
	return list0, list1
}

// buildTemp constructs RefPicListTempX, section 8.3.4: its length is
// max(numRefIdxActive, NumPicTotalCurr) since an explicit list_entry_lX
// index can range over the full current-picture reference count even when
// fewer entries are ultimately selected.
func buildTemp(before, after, lt []RefPicture, numRefIdxActive, numPicTotalCurr int) []RefPicture {
	var base []RefPicture
	base = append(base, before...)
	base = append(base, after...)
	base = append(base, lt...)
	if len(base) == 0 {
		return nil
	}
	tempLen := numRefIdxActive
	if numPicTotalCurr > tempLen {
		tempLen = numPicTotalCurr
	}
	temp := make([]RefPicture, tempLen)
	for i := range temp {
		temp[i] = base[i%len(base)]
	}
	return temp
}

func selectList(temp []RefPicture, listEntry []int, numRefIdxActive int) []RefPicture {
	if len(listEntry) == 0 {
		if len(temp) > numRefIdxActive {
			return temp[:numRefIdxActive]
		}
		return temp
	}
	out := make([]RefPicture, 0, numRefIdxActive)
	for i := 0; i < numRefIdxActive && i < len(listEntry); i++ {
		idx := listEntry[i]
		if idx >= 0 && idx < len(temp) {
			out = append(out, temp[idx])
		}
	}
	return out
}
