package av1

import (
	"bytes"

	"github.com/pkg/errors"

	gobits "github.com/ROCm/rocDecode-sub000/bits"
)

const superresNum = 8
const superresDenomMin = 9
const superresDenomBits = 3

// FrameHeader is uncompressed_header(), section 5.9.2, trimmed to the
// fields POC/order-hint bookkeeping, reference selection, and frame-size
// computation need. Parsing stops once frame size and reference selection
// are resolved: quantization, loop-filter, CDEF, LR, and film-grain
// parameters carry no signal this parser forwards, the same scoping
// decision hevc.ParseSPS documents for its own trailing VUI content.
type FrameHeader struct {
	ShowExistingFrame  bool
	FrameToShowMapIdx  int
	FrameType          int
	FrameIsIntra       bool
	ShowFrame          bool
	ShowableFrame      bool
	ErrorResilientMode bool
	DisableCdfUpdate   bool
	OrderHint          int
	PrimaryRefFrame    int
	RefreshFrameFlags  int
	FrameWidth         int
	FrameHeight        int
	UpscaledWidth      int
	RenderWidth        int
	RenderHeight       int
	FrameSizeOverride  bool

	FrameRefsShortSignaling bool
	LastFrameIdx            int
	GoldFrameIdx             int
	RefFrameIdx              [RefsPerFrame]int
	RefOrderHint             [RefsPerFrame]int
	RefFrameSignBias         [RefsPerFrame + 1]bool // indexed by RefLastFrame..RefAltRefFrame
}

// ParseUncompressedHeader parses uncompressed_header(), section 5.9.2.
// refOrderHint holds the currently stored RefOrderHint[i] for each of the
// NUM_REF_FRAMES reference slots (session-persistent AV1 DPB state); it is
// read but never mutated here. refFrameType resolves show_existing_frame's
// frame_to_show_map_idx to the referenced slot's frame type.
func ParseUncompressedHeader(rbsp []byte, seq *SequenceHeader, refOrderHint [NumRefFrames]int, refFrameType [NumRefFrames]int) (*FrameHeader, error) {
	r := gobits.NewReader(bytes.NewReader(rbsp))
	fh := &FrameHeader{}
	const allFrames = (1 << NumRefFrames) - 1

	if seq.ReducedStillPictureHeader {
		fh.FrameType = FrameTypeKey
		fh.FrameIsIntra = true
		fh.ShowFrame = true
	} else {
		sef, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "show_existing_frame")
		}
		fh.ShowExistingFrame = sef
		if fh.ShowExistingFrame {
			idx, err := r.U(3)
			if err != nil {
				return nil, errors.Wrap(err, "frame_to_show_map_idx")
			}
			fh.FrameToShowMapIdx = int(idx)
			fh.FrameType = refFrameType[fh.FrameToShowMapIdx]
			if fh.FrameType == FrameTypeKey {
				fh.RefreshFrameFlags = allFrames
			}
			return fh, nil
		}

		ft, err := r.U(2)
		if err != nil {
			return nil, errors.Wrap(err, "frame_type")
		}
		fh.FrameType = int(ft)
		fh.FrameIsIntra = fh.FrameType == FrameTypeIntraOnly || fh.FrameType == FrameTypeKey
		sf, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "show_frame")
		}
		fh.ShowFrame = sf
		if fh.ShowFrame {
			fh.ShowableFrame = fh.FrameType != FrameTypeKey
		} else {
			sfb, err := r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "showable_frame")
			}
			fh.ShowableFrame = sfb
		}
		if fh.FrameType == FrameTypeSwitch || (fh.FrameType == FrameTypeKey && fh.ShowFrame) {
			fh.ErrorResilientMode = true
		} else {
			erm, err := r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "error_resilient_mode")
			}
			fh.ErrorResilientMode = erm
		}
	}

	if v, err := r.Flag(); err != nil {
		return nil, errors.Wrap(err, "disable_cdf_update")
	} else {
		fh.DisableCdfUpdate = v
	}

	allowScreenContentTools := seq.SeqForceScreenContentTools
	if allowScreenContentTools == selectScreenContentTools {
		v, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "allow_screen_content_tools")
		}
		allowScreenContentTools = boolToInt(v)
	}
	forceIntegerMV := false
	if allowScreenContentTools != 0 {
		if seq.SeqForceIntegerMV == selectIntegerMV {
			v, err := r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "force_integer_mv")
			}
			forceIntegerMV = v
		} else {
			forceIntegerMV = seq.SeqForceIntegerMV != 0
		}
	}
	if fh.FrameIsIntra {
		forceIntegerMV = true
	}

	if fh.FrameType == FrameTypeSwitch {
		fh.FrameSizeOverride = true
	} else if !seq.ReducedStillPictureHeader {
		v, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "frame_size_override_flag")
		}
		fh.FrameSizeOverride = v
	}

	oh, err := r.U(seq.OrderHintBits)
	if err != nil {
		return nil, errors.Wrap(err, "order_hint")
	}
	fh.OrderHint = int(oh)

	if fh.FrameIsIntra || fh.ErrorResilientMode {
		fh.PrimaryRefFrame = PrimaryRefNone
	} else {
		v, err := r.U(3)
		if err != nil {
			return nil, errors.Wrap(err, "primary_ref_frame")
		}
		fh.PrimaryRefFrame = int(v)
	}

	if fh.FrameType == FrameTypeSwitch || (fh.FrameType == FrameTypeKey && fh.ShowFrame) {
		fh.RefreshFrameFlags = allFrames
	} else {
		v, err := r.U(8)
		if err != nil {
			return nil, errors.Wrap(err, "refresh_frame_flags")
		}
		fh.RefreshFrameFlags = int(v)
	}

	if !fh.FrameIsIntra || fh.RefreshFrameFlags != allFrames {
		if fh.ErrorResilientMode && seq.EnableOrderHint {
			for i := 0; i < NumRefFrames; i++ {
				if _, err := r.U(seq.OrderHintBits); err != nil { // ref_order_hint[i]
					return nil, errors.Wrap(err, "ref_order_hint")
				}
			}
		}
	}

	if fh.FrameIsIntra {
		if err := parseFrameSize(r, seq, fh); err != nil {
			return nil, err
		}
		if err := parseRenderSize(r, fh); err != nil {
			return nil, err
		}
	} else {
		if !seq.EnableOrderHint {
			fh.FrameRefsShortSignaling = false
		} else {
			short, err := r.Flag()
			if err != nil {
				return nil, errors.Wrap(err, "frame_refs_short_signaling")
			}
			fh.FrameRefsShortSignaling = short
			if fh.FrameRefsShortSignaling {
				v, err := r.U(3)
				if err != nil {
					return nil, errors.Wrap(err, "last_frame_idx")
				}
				fh.LastFrameIdx = int(v)
				v, err = r.U(3)
				if err != nil {
					return nil, errors.Wrap(err, "gold_frame_idx")
				}
				fh.GoldFrameIdx = int(v)
				SetFrameRefs(seq, fh, refOrderHint)
			}
		}
		for i := 0; i < RefsPerFrame; i++ {
			if !fh.FrameRefsShortSignaling {
				v, err := r.U(3)
				if err != nil {
					return nil, errors.Wrap(err, "ref_frame_idx")
				}
				fh.RefFrameIdx[i] = int(v)
			}
		}

		if fh.FrameSizeOverride && !fh.ErrorResilientMode {
			if err := parseFrameSizeWithRefs(r, seq, fh); err != nil {
				return nil, err
			}
		} else {
			if err := parseFrameSize(r, seq, fh); err != nil {
				return nil, err
			}
			if err := parseRenderSize(r, fh); err != nil {
				return nil, err
			}
		}

		if !forceIntegerMV {
			if _, err := r.Flag(); err != nil { // allow_high_precision_mv
				return nil, errors.Wrap(err, "allow_high_precision_mv")
			}
		}

		isSwitchable, err := r.Flag()
		if err != nil {
			return nil, errors.Wrap(err, "is_filter_switchable")
		}
		if !isSwitchable {
			if _, err := r.U(2); err != nil { // interpolation_filter
				return nil, errors.Wrap(err, "interpolation_filter")
			}
		}
		if _, err := r.Flag(); err != nil { // is_motion_mode_switchable
			return nil, errors.Wrap(err, "is_motion_mode_switchable")
		}
		if fh.ErrorResilientMode || !seq.EnableRefFrameMvs {
			// use_ref_frame_mvs = 0, not coded
		} else {
			if _, err := r.Flag(); err != nil { // use_ref_frame_mvs
				return nil, errors.Wrap(err, "use_ref_frame_mvs")
			}
		}

		for i := 0; i < RefsPerFrame; i++ {
			hint := refOrderHint[fh.RefFrameIdx[i]]
			fh.RefOrderHint[i] = hint
			if seq.EnableOrderHint {
				fh.RefFrameSignBias[RefLastFrame+i] = GetRelativeDist(seq, hint, fh.OrderHint) > 0
			}
		}
	}

	return fh, nil
}

func parseFrameSize(r *gobits.Reader, seq *SequenceHeader, fh *FrameHeader) error {
	if fh.FrameSizeOverride {
		w, err := r.U(seq.FrameWidthBitsMinus1 + 1)
		if err != nil {
			return errors.Wrap(err, "frame_width_minus_1")
		}
		fh.FrameWidth = int(w) + 1
		h, err := r.U(seq.FrameHeightBitsMinus1 + 1)
		if err != nil {
			return errors.Wrap(err, "frame_height_minus_1")
		}
		fh.FrameHeight = int(h) + 1
	} else {
		fh.FrameWidth = seq.MaxFrameWidthMinus1 + 1
		fh.FrameHeight = seq.MaxFrameHeightMinus1 + 1
	}
	return parseSuperresParams(r, seq, fh)
}

func parseSuperresParams(r *gobits.Reader, seq *SequenceHeader, fh *FrameHeader) error {
	useSuperres := false
	if seq.EnableSuperres {
		v, err := r.Flag()
		if err != nil {
			return errors.Wrap(err, "use_superres")
		}
		useSuperres = v
	}
	denom := superresNum
	if useSuperres {
		v, err := r.U(superresDenomBits)
		if err != nil {
			return errors.Wrap(err, "coded_denom")
		}
		denom = int(v) + superresDenomMin
	}
	fh.UpscaledWidth = fh.FrameWidth
	fh.FrameWidth = (fh.UpscaledWidth*superresNum + denom/2) / denom
	return nil
}

func parseRenderSize(r *gobits.Reader, fh *FrameHeader) error {
	different, err := r.Flag()
	if err != nil {
		return errors.Wrap(err, "render_and_frame_size_different")
	}
	if different {
		w, err := r.U(16)
		if err != nil {
			return errors.Wrap(err, "render_width_minus_1")
		}
		fh.RenderWidth = int(w) + 1
		h, err := r.U(16)
		if err != nil {
			return errors.Wrap(err, "render_height_minus_1")
		}
		fh.RenderHeight = int(h) + 1
	} else {
		fh.RenderWidth = fh.UpscaledWidth
		fh.RenderHeight = fh.FrameHeight
	}
	return nil
}

func parseFrameSizeWithRefs(r *gobits.Reader, seq *SequenceHeader, fh *FrameHeader) error {
	foundRef := false
	for i := 0; i < RefsPerFrame && !foundRef; i++ {
		v, err := r.Flag()
		if err != nil {
			return errors.Wrap(err, "found_ref")
		}
		foundRef = v
		// This parser does not track per-reference stored dimensions (no
		// decode/upscale buffer is kept here); when found_ref is set the
		// frame size is simply left at its zero value for the caller to
		// fill in from its own reference-dimension bookkeeping.
	}
	if !foundRef {
		if err := parseFrameSize(r, seq, fh); err != nil {
			return err
		}
		return parseRenderSize(r, fh)
	}
	return parseSuperresParams(r, seq, fh)
}

// ComputeImageSize derives MiCols/MiRows, section 5.9.6.
func ComputeImageSize(fh *FrameHeader) (miCols, miRows int) {
	miCols = 2 * ((fh.FrameWidth + 7) >> 3)
	miRows = 2 * ((fh.FrameHeight + 7) >> 3)
	return
}
