package hevc

import (
	"bytes"

	"github.com/pkg/errors"

	gobits "github.com/ROCm/rocDecode-sub000/bits"
)

// PPS is a parsed picture parameter set, section 7.3.2.3.1, trimmed to the
// fields the slice-header parser and reference-management process need.
type PPS struct {
	ID, SPSID                       int
	DependentSliceSegmentsEnabled   bool
	OutputFlagPresent               bool
	NumExtraSliceHeaderBits         int
	SignDataHidingEnabled           bool
	CabacInitPresent                bool
	NumRefIdxL0DefaultActiveMinus1  int
	NumRefIdxL1DefaultActiveMinus1  int
	InitQPMinus26                   int
	ConstrainedIntraPred            bool
	TransformSkipEnabled            bool
	CuQPDeltaEnabled                bool
	WeightedPred                    bool
	WeightedBipred                  bool
	TransquantBypassEnabled         bool
	TilesEnabled                    bool
	EntropyCodingSyncEnabled        bool
	LoopFilterAcrossSlicesEnabled   bool
	DeblockingFilterControlPresent bool
	ListsModificationPresent        bool
	Log2ParallelMergeLevelMinus2    int
	SliceSegmentHeaderExtension     bool
}

// ParsePPS parses pic_parameter_set_rbsp(), section 7.3.2.3.1, stopping
// before the PPS extension flags. Tile column/row geometry is read to stay
// bit-aligned but not kept: no forwarded decoder parameter depends on it
// beyond the tiles_enabled flag a hardware decoder surfaces as-is.
func ParsePPS(rbsp []byte) (*PPS, error) {
	r := gobits.NewReader(bytes.NewReader(rbsp))
	p := &PPS{}

	id, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "pps_pic_parameter_set_id")
	}
	p.ID = int(id)
	spsID, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "pps_seq_parameter_set_id")
	}
	p.SPSID = int(spsID)

	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "dependent_slice_segments_enabled_flag")
	} else {
		p.DependentSliceSegmentsEnabled = v
	}
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "output_flag_present_flag")
	} else {
		p.OutputFlagPresent = v
	}
	if v, err := r.U(3); err != nil {
		return nil, errors.Wrap(err, "num_extra_slice_header_bits")
	} else {
		p.NumExtraSliceHeaderBits = int(v)
	}
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "sign_data_hiding_enabled_flag")
	} else {
		p.SignDataHidingEnabled = v
	}
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "cabac_init_present_flag")
	} else {
		p.CabacInitPresent = v
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
	se, err := r.SE()
	if err != nil {
		return nil, errors.Wrap(err, "init_qp_minus26")
	}
	p.InitQPMinus26 = int(se)
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "constrained_intra_pred_flag")
	} else {
		p.ConstrainedIntraPred = v
	}
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "transform_skip_enabled_flag")
	} else {
		p.TransformSkipEnabled = v
	}
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "cu_qp_delta_enabled_flag")
	} else {
		p.CuQPDeltaEnabled = v
		if v {
			if _, err := r.UE(); err != nil { // diff_cu_qp_delta_depth
				return nil, errors.Wrap(err, "diff_cu_qp_delta_depth")
			}
		}
	}
	if _, err := r.SE(); err != nil { // pps_cb_qp_offset
		return nil, errors.Wrap(err, "pps_cb_qp_offset")
	}
	if _, err := r.SE(); err != nil { // pps_cr_qp_offset
		return nil, errors.Wrap(err, "pps_cr_qp_offset")
	}
	if _, err := r.Flag(); err != nil { // pps_slice_chroma_qp_offsets_present_flag
		return nil, errors.Wrap(err, "pps_slice_chroma_qp_offsets_present_flag")
	}
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "weighted_pred_flag")
	} else {
		p.WeightedPred = v
	}
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "weighted_bipred_flag")
	} else {
		p.WeightedBipred = v
	}
	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "transquant_bypass_enabled_flag")
	} else {
		p.TransquantBypassEnabled = v
	}
	tiles, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "tiles_enabled_flag")
	}
	p.TilesEnabled = tiles
	sync, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "entropy_coding_sync_enabled_flag")
	}
	p.EntropyCodingSyncEnabled = sync

	if p.TilesEnabled {
		numTileCols, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "num_tile_columns_minus1")
		}
		numTileRows, err := r.UE()
		if err != nil {
			return nil, errors.Wrap(err, "num_tile_rows_minus1")
		}
		uniform, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "uniform_spacing_flag")
		}
		if !uniform {
			for i := 0; i < int(numTileCols); i++ {
				if _, err := r.UE(); err != nil { // column_width_minus1
					return nil, errors.Wrap(err, "column_width_minus1")
				}
			}
			for i := 0; i < int(numTileRows); i++ {
				if _, err := r.UE(); err != nil { // row_height_minus1
					return nil, errors.Wrap(err, "row_height_minus1")
				}
			}
		}
		if _, err := r.Flag(); err != nil { // loop_filter_across_tiles_enabled_flag
			return nil, errors.Wrap(err, "loop_filter_across_tiles_enabled_flag")
		}
	}

	lf, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "pps_loop_filter_across_slices_enabled_flag")
	}
	p.LoopFilterAcrossSlicesEnabled = lf

	dfc, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "deblocking_filter_control_present_flag")
	}
	p.DeblockingFilterControlPresent = dfc
	if p.DeblockingFilterControlPresent {
		if _, err := r.Flag(); err != nil { // deblocking_filter_override_enabled_flag
			return nil, errors.Wrap(err, "deblocking_filter_override_enabled_flag")
		}
		disabled, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "pps_deblocking_filter_disabled_flag")
		}
		if !disabled {
			if _, err := r.SE(); err != nil { // pps_beta_offset_div2
				return nil, errors.Wrap(err, "pps_beta_offset_div2")
			}
			if _, err := r.SE(); err != nil { // pps_tc_offset_div2
				return nil, errors.Wrap(err, "pps_tc_offset_div2")
			}
		}
	}

	scalingListPresent, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "pps_scaling_list_data_present_flag")
	}
	if scalingListPresent {
		if err := skipScalingListData(r); err != nil {
			return nil, errors.Wrap(err, "scaling_list_data")
		}
	}

	lmp, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "lists_modification_present_flag")
	}
	p.ListsModificationPresent = lmp

	pml, err := r.UE()
	if err != nil {
		return nil, errors.Wrap(err, "log2_parallel_merge_level_minus2")
	}
	p.Log2ParallelMergeLevelMinus2 = int(pml)

	she, err := r.Flag()
	if err != nil {
		return nil, errors.Wrap(err, "slice_segment_header_extension_present_flag")
	}
	p.SliceSegmentHeaderExtension = she

	return p, nil
}
