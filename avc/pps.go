package avc

import (
	"bytes"

	"github.com/pkg/errors"

	gobits "github.com/ROCm/rocDecode-sub000/bits"
)

// PPS is a parsed picture parameter set, section 7.3.2.2.
type PPS struct {
	ID, SPSID int

	EntropyCodingMode                 bool
	BottomFieldPicOrderInFramePresent bool
	NumSliceGroupsMinus1              int
	SliceGroupMapType                 int
	RunLengthMinus1                   []int
	TopLeft                           []int
	BottomRight                       []int
	SliceGroupChangeDirection         bool
	SliceGroupChangeRateMinus1        int
	PicSizeInMapUnitsMinus1           int
	SliceGroupID                      []int

	NumRefIdxL0DefaultActiveMinus1 int
	NumRefIdxL1DefaultActiveMinus1 int
	WeightedPred                   bool
	WeightedBipredIDC              int
	PicInitQPMinus26               int
	PicInitQSMinus26               int
	ChromaQPIndexOffset            int
	DeblockingFilterControlPresent bool
	ConstrainedIntraPred           bool
	RedundantPicCntPresent         bool

	Transform8x8Mode          bool
	PicScalingMatrixPresent   bool
	PicScalingListPresent     []bool
	ScalingList4x4            [6][]int
	ScalingList8x8            [6][]int
	SecondChromaQPIndexOffset int
}

// ParsePPS parses a picture parameter set RBSP, section 7.3.2.2. chromaFormat
// and the SPS's own scaling lists are needed for the optional
// pic_scaling_matrix, so the activated SPS is passed in.
func ParsePPS(rbsp []byte, sps *SPS) (*PPS, error) {
	r := gobits.NewReader(bytes.NewReader(rbsp))
	p := &PPS{ChromaQPIndexOffset: 0, SecondChromaQPIndexOffset: 0}

	id, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "pic_parameter_set_id")
	}
	p.ID = int(id)

	spsID, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "seq_parameter_set_id")
	}
	p.SPSID = int(spsID)

	ecm, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "entropy_coding_mode_flag")
	}
	p.EntropyCodingMode = ecm

	bf, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "bottom_field_pic_order_in_frame_present_flag")
	}
	p.BottomFieldPicOrderInFramePresent = bf

	nsg, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "num_slice_groups_minus1")
	}
	p.NumSliceGroupsMinus1 = int(nsg)

	if p.NumSliceGroupsMinus1 > 0 {
		sgmt, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "slice_group_map_type")
		}
		p.SliceGroupMapType = int(sgmt)

		switch {
		case p.SliceGroupMapType == 0:
			p.RunLengthMinus1 = make([]int, p.NumSliceGroupsMinus1+1)
			for i := range p.RunLengthMinus1 {
				v, err := r.UE()
				if err != nil {
					return nil, errors.Wrapf(err, "run_length_minus1[%d]", i)
				}
				p.RunLengthMinus1[i] = int(v)
			}
		case p.SliceGroupMapType == 2:
			p.TopLeft = make([]int, p.NumSliceGroupsMinus1)
			p.BottomRight = make([]int, p.NumSliceGroupsMinus1)
			for i := 0; i < p.NumSliceGroupsMinus1; i++ {
				tl, err := r.UE()
				if err != nil {
					return nil, errors.Wrapf(err, "top_left[%d]", i)
				}
				p.TopLeft[i] = int(tl)
				br, err := r.UE()
				if err != nil {
					return nil, errors.Wrapf(err, "bottom_right[%d]", i)
				}
				p.BottomRight[i] = int(br)
			}
		case p.SliceGroupMapType > 2 && p.SliceGroupMapType < 6:
			dir, err := r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "slice_group_change_direction_flag")
			}
			p.SliceGroupChangeDirection = dir
			rate, err := r.UE()
			if err != nil {
				return nil, errors.Wrap(err, "slice_group_change_rate_minus1")
			}
			p.SliceGroupChangeRateMinus1 = int(rate)
		case p.SliceGroupMapType == 6:
			psmu, err := r.UE()
			if err != nil {
				return nil, errors.Wrap(err, "pic_size_in_map_units_minus1")
			}
			p.PicSizeInMapUnitsMinus1 = int(psmu)

			// The teacher's shipped version reads this loop into
			// PPS.SliceGroupId without ever allocating it, an out-of-range
			// write on any stream that reaches this path. Allocate the
			// slice to its signalled size before filling it.
			bitWidth := ceilLog2(p.NumSliceGroupsMinus1 + 1)
			p.SliceGroupID = make([]int, p.PicSizeInMapUnitsMinus1+1)
			for i := range p.SliceGroupID {
				v, err := r.U(bitWidth)
				if err != nil {
					return nil, errors.Wrapf(err, "slice_group_id[%d]", i)
				}
				p.SliceGroupID[i] = int(v)
			}
		}
	}

	v, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "num_ref_idx_l0_default_active_minus1")
	}
	p.NumRefIdxL0DefaultActiveMinus1 = int(v)

	v, err = r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "num_ref_idx_l1_default_active_minus1")
	}
	p.NumRefIdxL1DefaultActiveMinus1 = int(v)

	wp, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "weighted_pred_flag")
	}
	p.WeightedPred = wp

	wb, err := r.U(2)
	if err != nil {
		return nil, errors.Wrap(err, "weighted_bipred_idc")
	}
	p.WeightedBipredIDC = int(wb)

	qp, err := r.SE()
	if err != nil {
		return nil, errors.Wrap(err, "pic_init_qp_minus26")
	}
	p.PicInitQPMinus26 = int(qp)

	qs, err := r.SE()
	if err != nil {
		return nil, errors.Wrap(err, "pic_init_qs_minus26")
	}
	p.PicInitQSMinus26 = int(qs)

	cqp, err := r.SE()
	if err != nil {
		return nil, errors.Wrap(err, "chroma_qp_index_offset")
	}
	p.ChromaQPIndexOffset = int(cqp)

	dfc, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "deblocking_filter_control_present_flag")
	}
	p.DeblockingFilterControlPresent = dfc

	cip, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "constrained_intra_pred_flag")
	}
	p.ConstrainedIntraPred = cip

	rpc, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "redundant_pic_cnt_present_flag")
	}
	p.RedundantPicCntPresent = rpc

	p.SecondChromaQPIndexOffset = p.ChromaQPIndexOffset
	copy(p.ScalingList4x4[:], sps.ScalingList4x4[:])
	copy(p.ScalingList8x8[:], sps.ScalingList8x8[:])

	if !r.MoreRBSPData() {
		return p, nil
	}

	t8, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "transform_8x8_mode_flag")
	}
	p.Transform8x8Mode = t8

	psmp, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "pic_scaling_matrix_present_flag")
	}
	p.PicScalingMatrixPresent = psmp

	if p.PicScalingMatrixPresent {
		n := 2
		if sps.ChromaFormatIDC == Chroma444 {
			n = 6
		}
		count := 6
		if p.Transform8x8Mode {
			count += n
		}
		p.PicScalingListPresent = make([]bool, count)
		for i := range p.PicScalingListPresent {
			present, err := r.Flag()
			if err != nil {
				return nil, errors.Wrapf(err, "pic_scaling_list_present_flag[%d]", i)
			}
			p.PicScalingListPresent[i] = present
			if !present {
				continue
			}
			if i < 6 {
				list, useDefault, err := parseScalingList(r, 16)
				if err != nil {
					return nil, errors.Wrapf(err, "pic scaling_list 4x4[%d]", i)
				}
				if useDefault {
					if i < 3 {
						list = defaultScaling4x4Intra
					} else {
						list = defaultScaling4x4Inter
					}
				}
				p.ScalingList4x4[i] = list
			} else {
				list, useDefault, err := parseScalingList(r, 64)
				if err != nil {
					return nil, errors.Wrapf(err, "pic scaling_list 8x8[%d]", i-6)
				}
				if useDefault {
					if (i-6)%2 == 0 {
						list = defaultScaling8x8Intra
					} else {
						list = defaultScaling8x8Inter
					}
				}
				p.ScalingList8x8[i-6] = list
			}
		}
	}

	sc, err := r.SE()
	if err != nil {
		return nil, errors.Wrap(err, "second_chroma_qp_index_offset")
	}
	p.SecondChromaQPIndexOffset = int(sc)

	return p, nil
}

// ceilLog2 returns Ceil(Log2(n)) for n >= 1, used by slice_group_id's
// fixed-width field per section 7.4.2.2.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	bits := 0
	v := 1
	for v < n {
		v <<= 1
		bits++
	}
	return bits
}
