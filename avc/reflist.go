package avc

import "sort"

// RefPicture is the subset of a DPB entry's state the reference list
// construction and modification process needs.
type RefPicture struct {
	DPBIndex          int // opaque identity used only to let the caller map back to its own DPB slot.
	FrameNum          int
	PicOrderCnt       int
	IsLongTerm        bool
	LongTermFrameIdx  int
}

// picNum and longTermPicNum, section 8.2.4.1. Frame-coded pictures only
// (field_pic_flag == 0): the FrameNumWrap / PicNum distinction this parser
// implements matches 8.2.4.1 exactly when field decoding is absent.
func picNum(r RefPicture, currFrameNum, maxFrameNum int) int {
	frameNumWrap := r.FrameNum
	if r.FrameNum > currFrameNum {
		frameNumWrap = r.FrameNum - maxFrameNum
	}
	return frameNumWrap
}

func longTermPicNum(r RefPicture) int {
	return r.LongTermFrameIdx
}

// BuildRefPicLists constructs RefPicList0 (P, SP, and B slices) and
// RefPicList1 (B slices only), section 8.2.4.2, then applies
// ref_pic_list_modification, section 8.2.4.3.
//
// This is grounded directly on spec.md §4.7's description of the process:
// neither the teacher (ausocean-av's h264dec has no reference-list
// construction at all; it decodes without ever building RefPicListX) nor
// original_source/src/parser/avc_parser.h (which only declares
// FillFieldRefList/ModifiyRefList without bodies) carries a worked
// implementation of 8.2.4.2 to adapt, so the list-construction order below
// follows the specification text directly. It fixes the REDESIGN FLAG in
// spec.md §9: RefPicList1's before/after partitions are built with their
// own independent loop rather than reusing RefPicList0's index.
func BuildRefPicLists(sh *SliceHeader, sps *SPS, currFrameNum, currPOC int, refs []RefPicture) (list0, list1 []RefPicture) {
	fam := sliceTypeFamily(sh.SliceType)
	if fam != SliceTypeP && fam != SliceTypeSP && fam != SliceTypeB {
		return nil, nil
	}

	shortTerm := make([]RefPicture, 0, len(refs))
	longTerm := make([]RefPicture, 0, len(refs))
	for _, r := range refs {
		if r.IsLongTerm {
			longTerm = append(longTerm, r)
		} else {
			shortTerm = append(shortTerm, r)
		}
	}
	sort.Slice(longTerm, func(i, j int) bool {
		return longTermPicNum(longTerm[i]) < longTermPicNum(longTerm[j])
	})

	if fam == SliceTypeP || fam == SliceTypeSP {
		st := append([]RefPicture(nil), shortTerm...)
		sort.Slice(st, func(i, j int) bool {
			return picNum(st[i], currFrameNum, sps.MaxFrameNum()) > picNum(st[j], currFrameNum, sps.MaxFrameNum())
		})
		list0 = append(list0, st...)
		list0 = append(list0, longTerm...)
		list0 = applyModification(list0, sh.RefPicListModification, 0, sh.NumRefIdxL0ActiveMinus1+1, currFrameNum, currPOC, sps.MaxFrameNum())
		return truncateOrHold(list0, sh.NumRefIdxL0ActiveMinus1+1), nil
	}

	// B slice: independent before/after partitions for each list, section
	// 8.2.4.2.3.
	var before0, after0 []RefPicture
	for _, r := range shortTerm {
		if r.PicOrderCnt < currPOC {
			before0 = append(before0, r)
		} else {
			after0 = append(after0, r)
		}
	}
	sort.Slice(before0, func(i, j int) bool { return before0[i].PicOrderCnt > before0[j].PicOrderCnt })
	sort.Slice(after0, func(i, j int) bool { return after0[i].PicOrderCnt < after0[j].PicOrderCnt })
	list0 = append(list0, before0...)
	list0 = append(list0, after0...)
	list0 = append(list0, longTerm...)

	var before1, after1 []RefPicture
	for _, r := range shortTerm {
		if r.PicOrderCnt < currPOC {
			before1 = append(before1, r)
		} else {
			after1 = append(after1, r)
		}
	}
	sort.Slice(after1, func(i, j int) bool { return after1[i].PicOrderCnt < after1[j].PicOrderCnt })
	sort.Slice(before1, func(i, j int) bool { return before1[i].PicOrderCnt > before1[j].PicOrderCnt })
	list1 = append(list1, after1...)
	list1 = append(list1, before1...)
	list1 = append(list1, longTerm...)

	if len(list1) > 1 && sameOrder(list0, list1) {
		list1[0], list1[1] = list1[1], list1[0]
	}

	list0 = applyModification(list0, sh.RefPicListModification, 0, sh.NumRefIdxL0ActiveMinus1+1, currFrameNum, currPOC, sps.MaxFrameNum())
	list1 = applyModification(list1, sh.RefPicListModification, 1, sh.NumRefIdxL1ActiveMinus1+1, currFrameNum, currPOC, sps.MaxFrameNum())

	return truncateOrHold(list0, sh.NumRefIdxL0ActiveMinus1+1), truncateOrHold(list1, sh.NumRefIdxL1ActiveMinus1+1)
}

func sameOrder(a, b []RefPicture) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].DPBIndex != b[i].DPBIndex {
			return false
		}
	}
	return true
}

func truncateOrHold(list []RefPicture, n int) []RefPicture {
	if len(list) > n {
		return list[:n]
	}
	return list
}

// applyModification implements the modification_of_pic_nums_idc loop of
// 8.2.4.3.1, moving the picture it identifies to the front of the
// remaining (unprocessed) part of the list.
func applyModification(list []RefPicture, mod *RefPicListModification, listIdx, numRefIdxActive, currFrameNum, currPOC, maxFrameNum int) []RefPicture {
	if mod == nil || !mod.Present[listIdx] {
		return list
	}
	picNumPred := currFrameNum
	out := append([]RefPicture(nil), list...)
	refIdxLX := 0
	for _, op := range mod.Ops[listIdx] {
		if op.Idc == 3 {
			break
		}
		var picNumNoWrap int
		switch op.Idc {
		case 0:
			picNumNoWrap = picNumPred - (op.AbsDiffPicNumMinus1 + 1)
			if picNumNoWrap < 0 {
				picNumNoWrap += maxFrameNum
			}
		case 1:
			picNumNoWrap = picNumPred + (op.AbsDiffPicNumMinus1 + 1)
			if picNumNoWrap >= maxFrameNum {
				picNumNoWrap -= maxFrameNum
			}
		case 2:
			// Long-term: find by longTermPicNum directly below.
		}
		picNumPred = picNumNoWrap

		targetPicNum := picNumNoWrap
		if picNumNoWrap > currFrameNum {
			targetPicNum = picNumNoWrap - maxFrameNum
		}

		idx := -1
		for i, r := range out {
			if op.Idc == 2 {
				if r.IsLongTerm && longTermPicNum(r) == op.LongTermPicNum {
					idx = i
					break
				}
			} else if !r.IsLongTerm && picNum(r, currFrameNum, maxFrameNum) == targetPicNum {
				idx = i
				break
			}
		}
		if idx < 0 || refIdxLX >= len(out) {
			continue
		}
		picked := out[idx]
		out = append(out[:idx], out[idx+1:]...)
		out = append(out[:refIdxLX], append([]RefPicture{picked}, out[refIdxLX:]...)...)
		refIdxLX++
	}
	return out
}
