// Package dpb implements a codec-agnostic decoded picture buffer: a
// fixed-size frame store with per-slot reference marking and output-pending
// bookkeeping, shared by the avc, hevc, and av1 syntax parsers through a
// common session layer.
//
// Grounded on the teacher's DecodedPictureBuffer/HevcPicInfo layout and its
// InitDpb/FindFreeBufAndMark/MarkOutputPictures/BumpPicFromDpb bodies,
// generalized from a fixed HEVC_MAX_DPB_FRAMES array to an explicitly
// sized slice so AVC/HEVC/AV1 sessions (with their different max-DPB-size
// rules) can each construct their own instance.
package dpb

import "github.com/pkg/errors"

// ReferenceState mirrors HEVC's is_reference field: Unused, ShortTerm, or
// LongTerm. AVC only ever uses Unused/ShortTerm/LongTerm too; AV1 has no
// long-term concept and never sets LongTerm.
type ReferenceState int

const (
	Unused ReferenceState = iota
	ShortTerm
	LongTerm
)

// Slot is one entry of the frame store: a picture's decode metadata plus
// its output-pending status. Index corresponds to a surface_idx in the
// caller's decode-surface pool (DecodeSurface in the owning session).
type Slot struct {
	InUse            bool
	SurfaceIdx       int
	POC              int
	DecodeOrderCount uint64
	PicOutputFlag    bool
	OutputPending    bool
	ReferenceState   ReferenceState
}

// Dpb is the fixed-size decoded picture buffer. Size is set at
// construction and never changes; a codec session resizes it only by
// creating a new Dpb (e.g. on an SPS activation that changes
// max_dec_pic_buffering).
type Dpb struct {
	slots                  []Slot
	fullness               int
	numPicsNeededForOutput int
}

// New allocates an empty Dpb with the given number of slots.
func New(size int) *Dpb {
	return &Dpb{slots: make([]Slot, size)}
}

// Size returns the number of slots.
func (d *Dpb) Size() int { return len(d.slots) }

// Fullness returns the number of slots currently in use.
func (d *Dpb) Fullness() int { return d.fullness }

// NumPicsNeededForOutput returns the count of slots with OutputPending set.
func (d *Dpb) NumPicsNeededForOutput() int { return d.numPicsNeededForOutput }

// Slot returns a copy of slot i for inspection by reference-list
// construction.
func (d *Dpb) Slot(i int) Slot { return d.slots[i] }

// FindFreeSlot returns the index of the slot with InUse=false and the
// lowest DecodeOrderCount among free slots, grounded on
// HevcVideoParser::FindFreeBufAndMark's "longest decode history" scan.
// Fails if every slot is occupied.
func (d *Dpb) FindFreeSlot() (int, error) {
	index := -1
	var minOrder uint64
	for i := range d.slots {
		if d.slots[i].InUse {
			continue
		}
		if index == -1 || d.slots[i].DecodeOrderCount < minOrder {
			index = i
			minOrder = d.slots[i].DecodeOrderCount
		}
	}
	if index == -1 {
		return 0, errors.New("dpb: buffer overflow, no free slot")
	}
	return index, nil
}

// InsertCurrent occupies slot index with the current picture's state:
// use_status=Frame, reference_state=ShortTerm, output_pending set from
// picOutputFlag, and the bookkeeping counters updated accordingly.
// Grounded on FindFreeBufAndMark's post-search field assignments.
func (d *Dpb) InsertCurrent(index, surfaceIdx, poc int, decodeOrderCount uint64, picOutputFlag bool) {
	s := &d.slots[index]
	s.InUse = true
	s.SurfaceIdx = surfaceIdx
	s.POC = poc
	s.DecodeOrderCount = decodeOrderCount
	s.PicOutputFlag = picOutputFlag
	s.OutputPending = picOutputFlag
	s.ReferenceState = ShortTerm
	if picOutputFlag {
		d.numPicsNeededForOutput++
	}
	d.fullness++
}

// BumpOne selects the output-pending slot with the minimum POC, clears its
// OutputPending flag, and returns its SurfaceIdx for the caller to enqueue
// into an OutputReorder. If the slot is no longer a reference it is freed.
// Returns ok=false if no slot has OutputPending set, mirroring
// BumpPicFromDpb's no-op return when nothing is pending.
func (d *Dpb) BumpOne() (surfaceIdx int, ok bool) {
	index := -1
	minPOC := 0
	for i := range d.slots {
		if !d.slots[i].InUse || !d.slots[i].OutputPending {
			continue
		}
		if index == -1 || d.slots[i].POC < minPOC {
			index = i
			minPOC = d.slots[i].POC
		}
	}
	if index == -1 {
		return 0, false
	}
	s := &d.slots[index]
	s.OutputPending = false
	if d.numPicsNeededForOutput > 0 {
		d.numPicsNeededForOutput--
	}
	surfaceIdx = s.SurfaceIdx
	if s.ReferenceState == Unused {
		d.freeSlot(index)
	}
	return surfaceIdx, true
}

// ConditionalBump repeatedly bumps until num_pics_needed_for_output <=
// maxNumReorder and fullness < maxDecBuf, appending each bumped surface
// index to out. Grounded on MarkOutputPictures' two sequential while
// loops and FindFreeBufAndMark's single reorder-count loop — this method
// folds both bounds into one call so either codec's caller can supply
// only the bound it tracks (HEVC: both; AVC/AV1: reorder count only).
func (d *Dpb) ConditionalBump(maxNumReorder, maxDecBuf int) (surfaceIdxs []int) {
	for d.fullness >= maxDecBuf || d.numPicsNeededForOutput > maxNumReorder {
		idx, ok := d.BumpOne()
		if !ok {
			break
		}
		surfaceIdxs = append(surfaceIdxs, idx)
	}
	return surfaceIdxs
}

// MarkForOutputOnIrapWithNoRasl implements the IRAP-with-NoRaslOutputFlag
// output-control process: if noOutputOfPriorPics, every pending slot is
// silently dropped (no display callback); otherwise every pending slot is
// bumped (in POC order) before the DPB is cleared. Grounded on
// MarkOutputPictures' IRAP branch.
func (d *Dpb) MarkForOutputOnIrapWithNoRasl(noOutputOfPriorPics bool) (surfaceIdxs []int) {
	if !noOutputOfPriorPics {
		for {
			idx, ok := d.BumpOne()
			if !ok {
				break
			}
			surfaceIdxs = append(surfaceIdxs, idx)
		}
	}
	d.empty()
	return surfaceIdxs
}

// Flush bumps every remaining pending slot, for use at end-of-stream; the
// caller force-drains its OutputReorder afterward. Grounded on FlushDpb.
func (d *Dpb) Flush() (surfaceIdxs []int) {
	for {
		idx, ok := d.BumpOne()
		if !ok {
			break
		}
		surfaceIdxs = append(surfaceIdxs, idx)
	}
	return surfaceIdxs
}

// MarkUnusedForReference clears ReferenceState for every slot whose
// SurfaceIdx is not in keep, and releases any such slot that also has no
// pending output — grounded on the HEVC RPS engine's "mark the rest
// Unused" sweep (section 8.3.2) and the AVC sliding-window/MMCO marking
// process, both of which hand this package a fresh "still referenced"
// set each picture.
func (d *Dpb) MarkUnusedForReference(keep map[int]ReferenceState) {
	for i := range d.slots {
		s := &d.slots[i]
		if !s.InUse {
			continue
		}
		if state, ok := keep[s.SurfaceIdx]; ok {
			s.ReferenceState = state
			continue
		}
		s.ReferenceState = Unused
		if !s.OutputPending {
			d.freeSlot(i)
		}
	}
}

func (d *Dpb) freeSlot(index int) {
	if d.slots[index].InUse && d.fullness > 0 {
		d.fullness--
	}
	d.slots[index] = Slot{}
}

func (d *Dpb) empty() {
	for i := range d.slots {
		d.slots[i] = Slot{}
	}
	d.fullness = 0
	d.numPicsNeededForOutput = 0
}
