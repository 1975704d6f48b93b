package session

import "github.com/pkg/errors"

// Surface tracks one decode-surface slot's occupancy, grounded on
// RocVideoParser::DecodeFrameBuffer (dec_use_status/disp_use_status) in
// original_source/src/parser/roc_video_parser.h, collapsed from the
// original's top/bottom/frame tri-state to a single bool pair: this
// parser does not model field-coded pictures, so "used" is the only
// occupancy state that matters.
type Surface struct {
	DecUseFlag  bool
	DispUseFlag bool
}

// DecodePool is the fixed pool of decode-surface occupancy flags a
// session hands out alongside each Dpb slot. surface_idx is opaque to the
// parser — the external decoder owns the actual GPU surface (spec.md §5);
// this pool tracks only whether the parser or the consumer still holds a
// claim on it.
type DecodePool struct {
	surfaces []Surface
}

// NewDecodePool allocates a pool of the given size. Per spec.md §6's
// create() contract, callers should size this to at least
// max(params.max_num_decode_surfaces, MAX_DPB_FRAMES+max_display_delay).
func NewDecodePool(size int) *DecodePool {
	return &DecodePool{surfaces: make([]Surface, size)}
}

// Size returns the number of surfaces in the pool.
func (p *DecodePool) Size() int { return len(p.surfaces) }

// FindFreeSurface returns the index of a surface with both occupancy
// flags clear, grounded on RocVideoParser's FindFreeInDecBufPool. Fails
// if every surface is claimed, satisfying invariant I4 (a surface with
// disp_use_flag=true is never chosen).
func (p *DecodePool) FindFreeSurface() (int, error) {
	for i := range p.surfaces {
		if !p.surfaces[i].DecUseFlag && !p.surfaces[i].DispUseFlag {
			return i, nil
		}
	}
	return 0, errors.New("session: no free decode surface")
}

// Claim marks a surface as in use for decode, optionally also for
// display (when the picture's pic_output_flag is set and a display
// callback is registered).
func (p *DecodePool) Claim(idx int, forDisplay bool) {
	p.surfaces[idx].DecUseFlag = true
	if forDisplay {
		p.surfaces[idx].DispUseFlag = true
	}
}

// ReleaseDecode clears a surface's decode-use flag, called when its Dpb
// slot is freed (bumped out and unreferenced).
func (p *DecodePool) ReleaseDecode(idx int) {
	p.surfaces[idx].DecUseFlag = false
}

// MarkFrameForReuse clears a surface's display-use flag, implementing
// the mark_frame_for_reuse(handle, pic_idx) host API entry point
// (spec.md §6): the external consumer has finished displaying the frame.
func (p *DecodePool) MarkFrameForReuse(idx int) {
	p.surfaces[idx].DispUseFlag = false
}
