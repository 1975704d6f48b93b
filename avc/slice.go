package avc

import (
	"bytes"

	"github.com/pkg/errors"

	gobits "github.com/ROCm/rocDecode-sub000/bits"
)

// Slice types, Table 7-6.
const (
	SliceTypeP  = 0
	SliceTypeB  = 1
	SliceTypeI  = 2
	SliceTypeSP = 3
	SliceTypeSI = 4
)

// sliceTypeFamily maps a raw slice_type (which may carry +5 to indicate
// "all slices in the picture have this type") to its base value in 0..4.
func sliceTypeFamily(t int) int {
	return t % 5
}

// RefPicListModification is ref_pic_list_modification(), section 7.3.3.1.
type RefPicListModification struct {
	Present [2]bool
	Ops     [2][]RefPicListModOp
}

// RefPicListModOp is one modification_of_pic_nums_idc entry.
type RefPicListModOp struct {
	Idc                 int
	AbsDiffPicNumMinus1 int
	LongTermPicNum      int
}

func parseRefPicListModification(r *gobits.Reader, sliceType int) (*RefPicListModification, error) {
	m := &RefPicListModification{}
	fam := sliceTypeFamily(sliceType)

	if fam != 2 && fam != 4 {
		present, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "ref_pic_list_modification_flag_l0")
		}
		m.Present[0] = present
		if present {
			ops, err := parseModOpsLoop(r)
			if err != nil {
				return nil, errors.Wrap(err, "ref_pic_list_modification l0")
			}
			m.Ops[0] = ops
		}
	}

	if fam == 1 {
		present, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "ref_pic_list_modification_flag_l1")
		}
		m.Present[1] = present
		if present {
			ops, err := parseModOpsLoop(r)
			if err != nil {
				return nil, errors.Wrap(err, "ref_pic_list_modification l1")
			}
			m.Ops[1] = ops
		}
	}
	return m, nil
}

func parseModOpsLoop(r *gobits.Reader) ([]RefPicListModOp, error) {
	var ops []RefPicListModOp
	for {
		idc, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "modification_of_pic_nums_idc")
		}
		op := RefPicListModOp{Idc: int(idc)}
		switch op.Idc {
		case 0, 1:
			v, err := r.UE()
			if err != nil {
				return nil, errors.Wrap(err, "abs_diff_pic_num_minus1")
			}
			op.AbsDiffPicNumMinus1 = int(v)
		case 2:
			v, err := r.UE()
			if err != nil {
				return nil, errors.Wrap(err, "long_term_pic_num")
			}
			op.LongTermPicNum = int(v)
		}
		ops = append(ops, op)
		if op.Idc == 3 {
			break
		}
		if len(ops) > 1<<16 {
			return nil, errors.New("ref_pic_list_modification: modification loop did not terminate")
		}
	}
	return ops, nil
}

// PredWeightTable is pred_weight_table(), section 7.3.3.2. Only the log2
// weight denominators are kept; the per-entry weight flags and
// weight/offset values are parsed (to stay bit-aligned) but not retained,
// since no decoder
// parameter this parser forwards depends on the weighted-prediction
// coefficients themselves, only on whether weighted prediction is active
// (carried on the PPS already). The spec.md default-weight rule
// (unsignalled weights imply weight = 1<<log2_denom, offset = 0) is the
// caller's responsibility to apply when filling PicParams.
type PredWeightTable struct {
	LumaLog2WeightDenom   int
	ChromaLog2WeightDenom int
}

func parsePredWeightTable(r *gobits.Reader, sh *SliceHeader, chromaArrayType int) (*PredWeightTable, error) {
	p := &PredWeightTable{}
	v, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "luma_log2_weight_denom")
	}
	p.LumaLog2WeightDenom = int(v)

	if chromaArrayType != 0 {
		v, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "chroma_log2_weight_denom")
		}
		p.ChromaLog2WeightDenom = int(v)
	}

	readList := func(count int) error {
		for i := 0; i < count; i++ {
			lumaFlag, err := r.Flag()
			if err != nil {
				return errors.Wrap(err, "luma_weight_flag")
			}
			if lumaFlag {
				if _, err := r.SE(); err != nil {
					return errors.Wrap(err, "luma_weight")
				}
				if _, err := r.SE(); err != nil {
					return errors.Wrap(err, "luma_offset")
				}
			}
			if chromaArrayType != 0 {
				chromaFlag, err := r.Flag()
				if err != nil {
					return errors.Wrap(err, "chroma_weight_flag")
				}
				if chromaFlag {
					for j := 0; j < 2; j++ {
						if _, err := r.SE(); err != nil {
							return errors.Wrap(err, "chroma_weight")
						}
						if _, err := r.SE(); err != nil {
							return errors.Wrap(err, "chroma_offset")
						}
					}
				}
			}
		}
		return nil
	}

	if err := readList(sh.NumRefIdxL0ActiveMinus1 + 1); err != nil {
		return nil, errors.Wrap(err, "pred_weight_table l0")
	}
	if sliceTypeFamily(sh.SliceType) == 1 {
		if err := readList(sh.NumRefIdxL1ActiveMinus1 + 1); err != nil {
			return nil, errors.Wrap(err, "pred_weight_table l1")
		}
	}
	return p, nil
}

// MMCOOp is one memory_management_control_operation entry, section 7.3.3.3.
type MMCOOp struct {
	Op                       int
	DifferenceOfPicNumsMinus1 int
	LongTermPicNum           int
	LongTermFrameIdx         int
	MaxLongTermFrameIdxPlus1 int
}

// DecRefPicMarking is dec_ref_pic_marking(), section 7.3.3.3.
type DecRefPicMarking struct {
	NoOutputOfPriorPics       bool
	LongTermReference         bool
	AdaptiveRefPicMarkingMode bool
	Ops                       []MMCOOp
}

func parseDecRefPicMarking(r *gobits.Reader, idrPic bool) (*DecRefPicMarking, error) {
	d := &DecRefPicMarking{}
	if idrPic {
		v, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "no_output_of_prior_pics_flag")
		}
		d.NoOutputOfPriorPics = v
		v, err = r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "long_term_reference_flag")
		}
		d.LongTermReference = v
		return d, nil
	}

	adaptive, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "adaptive_ref_pic_marking_mode_flag")
	}
	d.AdaptiveRefPicMarkingMode = adaptive
	if !adaptive {
		return d, nil
	}
	for {
		op, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "memory_management_control_operation")
		}
		e := MMCOOp{Op: int(op)}
		switch e.Op {
		case 1, 3:
			v, err := r.UE()
			if err != nil {
				return nil, errors.Wrap(err, "difference_of_pic_nums_minus1")
			}
			e.DifferenceOfPicNumsMinus1 = int(v)
		}
		if e.Op == 2 {
			v, err := r.UE()
			if err != nil {
				return nil, errors.Wrap(err, "long_term_pic_num")
			}
			e.LongTermPicNum = int(v)
		}
		if e.Op == 3 || e.Op == 6 {
			v, err := r.UE()
			if err != nil {
				return nil, errors.Wrap(err, "long_term_frame_idx")
			}
			e.LongTermFrameIdx = int(v)
		}
		if e.Op == 4 {
			v, err := r.UE()
			if err != nil {
				return nil, errors.Wrap(err, "max_long_term_frame_idx_plus1")
			}
			e.MaxLongTermFrameIdxPlus1 = int(v)
		}
		d.Ops = append(d.Ops, e)
		if e.Op == 0 {
			break
		}
		if len(d.Ops) > 1<<16 {
			return nil, errors.New("dec_ref_pic_marking: MMCO loop did not terminate")
		}
	}
	return d, nil
}

// SliceHeader is a parsed slice_header(), section 7.3.3.
type SliceHeader struct {
	FirstMbInSlice int
	SliceType      int
	PPSID          int
	ColorPlaneID   int
	FrameNum       int
	FieldPic       bool
	BottomField    bool
	IDRPicFlag     bool
	IDRPicID       int

	PicOrderCntLsb         int
	DeltaPicOrderCntBottom int
	DeltaPicOrderCnt       [2]int

	RedundantPicCnt         int
	DirectSpatialMvPred     bool
	NumRefIdxActiveOverride bool
	NumRefIdxL0ActiveMinus1 int
	NumRefIdxL1ActiveMinus1 int

	RefPicListModification *RefPicListModification
	PredWeightTable        *PredWeightTable
	DecRefPicMarking       *DecRefPicMarking

	CabacInit               int
	SliceQPDelta            int
	SliceQSDelta            int
	SPForSwitch             bool
	DisableDeblockingFilter int
	SliceAlphaC0OffsetDiv2  int
	SliceBetaOffsetDiv2     int
	SliceGroupChangeCycle   int
}

// IsReference reports whether the slice belongs to a reference picture,
// i.e. whether the NAL header's nal_ref_idc is non-zero. The caller passes
// nal_ref_idc in, since the NAL header is parsed one layer up, ahead of the
// slice RBSP.
func (sh *SliceHeader) IsReference(refIDC uint8) bool { return refIDC != 0 }

// ParseSliceHeader parses slice_header(), section 7.3.3, given the already
// parsed NAL header (for nal_unit_type/nal_ref_idc) and the activated
// SPS/PPS.
func ParseSliceHeader(rbsp []byte, nal NALHeader, sps *SPS, pps *PPS) (*SliceHeader, error) {
	r := gobits.NewReader(bytes.NewReader(rbsp))
	sh := &SliceHeader{IDRPicFlag: IsIDR(nal.Type)}

	v, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "first_mb_in_slice")
	}
	sh.FirstMbInSlice = int(v)

	v, err = r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "slice_type")
	}
	sh.SliceType = int(v)

	v, err = r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "pic_parameter_set_id")
	}
	sh.PPSID = int(v)

	if sps.SeparateColorPlane {
		cp, err := r.U(2)
		if err != nil {
			return nil, errors.Wrap(err, "colour_plane_id")
		}
		sh.ColorPlaneID = int(cp)
	}

	fn, err := r.U(sps.Log2MaxFrameNumMinus4 + 4)
	if err != nil {
		return nil, errors.Wrap(err, "frame_num")
	}
	sh.FrameNum = int(fn)

	if !sps.FrameMBSOnly {
		fp, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "field_pic_flag")
		}
		sh.FieldPic = fp
		if sh.FieldPic {
			bf, err := r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "bottom_field_flag")
			}
			sh.BottomField = bf
		}
	}

	if sh.IDRPicFlag {
		id, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "idr_pic_id")
		}
		sh.IDRPicID = int(id)
	}

	if sps.PicOrderCountType == 0 {
		lsb, err := r.U(sps.Log2MaxPicOrderCntLSBMinus4 + 4)
		if err != nil {
			return nil, errors.Wrap(err, "pic_order_cnt_lsb")
		}
		sh.PicOrderCntLsb = int(lsb)
		if pps.BottomFieldPicOrderInFramePresent && !sh.FieldPic {
			d, err := r.SE()
			if err != nil {
				return nil, errors.Wrap(err, "delta_pic_order_cnt_bottom")
			}
			sh.DeltaPicOrderCntBottom = int(d)
		}
	}
	if sps.PicOrderCountType == 1 && !sps.DeltaPicOrderAlwaysZero {
		d0, err := r.SE()
		if err != nil {
			return nil, errors.Wrap(err, "delta_pic_order_cnt[0]")
		}
		sh.DeltaPicOrderCnt[0] = int(d0)
		if pps.BottomFieldPicOrderInFramePresent && !sh.FieldPic {
			d1, err := r.SE()
			if err != nil {
				return nil, errors.Wrap(err, "delta_pic_order_cnt[1]")
			}
			sh.DeltaPicOrderCnt[1] = int(d1)
		}
	}

	if pps.RedundantPicCntPresent {
		v, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "redundant_pic_cnt")
		}
		sh.RedundantPicCnt = int(v)
	}

	fam := sliceTypeFamily(sh.SliceType)
	if fam == 1 {
		f, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "direct_spatial_mv_pred_flag")
		}
		sh.DirectSpatialMvPred = f
	}

	sh.NumRefIdxL0ActiveMinus1 = pps.NumRefIdxL0DefaultActiveMinus1
	sh.NumRefIdxL1ActiveMinus1 = pps.NumRefIdxL1DefaultActiveMinus1
	if fam == 0 || fam == 3 || fam == 1 {
		f, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "num_ref_idx_active_override_flag")
		}
		sh.NumRefIdxActiveOverride = f
		if sh.NumRefIdxActiveOverride {
			v, err := r.UE()
			if err != nil {
				return nil, errors.Wrap(err, "num_ref_idx_l0_active_minus1")
			}
			sh.NumRefIdxL0ActiveMinus1 = int(v)
			if fam == 1 {
				v, err := r.UE()
				if err != nil {
					return nil, errors.Wrap(err, "num_ref_idx_l1_active_minus1")
				}
				sh.NumRefIdxL1ActiveMinus1 = int(v)
			}
		}
	}

	rplm, err := parseRefPicListModification(r, sh.SliceType)
	if err != nil {
		return nil, errors.Wrap(err, "ref_pic_list_modification")
	}
	sh.RefPicListModification = rplm

	if (pps.WeightedPred && (fam == 0 || fam == 3)) || (pps.WeightedBipredIDC == 1 && fam == 1) {
		chromaArrayType := sps.ChromaArrayType()
		pwt, err := parsePredWeightTable(r, sh, chromaArrayType)
		if err != nil {
			return nil, errors.Wrap(err, "pred_weight_table")
		}
		sh.PredWeightTable = pwt
	}

	if nal.RefIDC != 0 {
		drpm, err := parseDecRefPicMarking(r, sh.IDRPicFlag)
		if err != nil {
			return nil, errors.Wrap(err, "dec_ref_pic_marking")
		}
		sh.DecRefPicMarking = drpm
	}

	if pps.EntropyCodingMode && fam != 2 && fam != 4 {
		v, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "cabac_init_idc")
		}
		sh.CabacInit = int(v)
	}

	qpd, err := r.SE()
	if err != nil {
		return nil, errors.Wrap(err, "slice_qp_delta")
	}
	sh.SliceQPDelta = int(qpd)

	if fam == 3 || fam == 4 {
		if fam == 3 {
			f, err := r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "sp_for_switch_flag")
			}
			sh.SPForSwitch = f
		}
		qsd, err := r.SE()
		if err != nil {
			return nil, errors.Wrap(err, "slice_qs_delta")
		}
		sh.SliceQSDelta = int(qsd)
	}

	if pps.DeblockingFilterControlPresent {
		v, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "disable_deblocking_filter_idc")
		}
		sh.DisableDeblockingFilter = int(v)
		if sh.DisableDeblockingFilter != 1 {
			a, err := r.SE()
			if err != nil {
				return nil, errors.Wrap(err, "slice_alpha_c0_offset_div2")
			}
			sh.SliceAlphaC0OffsetDiv2 = int(a)
			b, err := r.SE()
			if err != nil {
				return nil, errors.Wrap(err, "slice_beta_offset_div2")
			}
			sh.SliceBetaOffsetDiv2 = int(b)
		}
	}

	if pps.NumSliceGroupsMinus1 > 0 && pps.SliceGroupMapType >= 3 && pps.SliceGroupMapType <= 5 {
		picSizeInMapUnits := (sps.PicWidthInMBSMinus1 + 1) * (sps.PicHeightInMapUnitsMinus1 + 1)
		rate := pps.SliceGroupChangeRateMinus1 + 1
		width := ceilLog2(picSizeInMapUnits/rate + 1)
		v, err := r.U(width)
		if err != nil {
			return nil, errors.Wrap(err, "slice_group_change_cycle")
		}
		sh.SliceGroupChangeCycle = int(v)
	}

	return sh, nil
}

// IsIntra reports whether every macroblock of this slice type is
// intra-predicted (I or SI slices).
func (sh *SliceHeader) IsIntra() bool {
	fam := sliceTypeFamily(sh.SliceType)
	return fam == SliceTypeI || fam == SliceTypeSI
}

// FirstSliceOfPicture reports whether this slice starts a new picture,
// section 7.4.3 / the picture-boundary rule this parser applies (a slice
// NAL with first_mb_in_slice == 0 starts a new picture).
func (sh *SliceHeader) FirstSliceOfPicture() bool {
	return sh.FirstMbInSlice == 0
}
