// Package session hosts the primitives a codec-tagged ParserCore shares
// regardless of which syntax parser (avc, hevc, av1) is driving it: the
// output-reorder queue, the decode-surface occupancy pool, and the
// session-persistent state fields spec.md §4.9/§5 names (pic_count,
// SeenFrameHeader, first_pic_after_eos, NoRaslOutputFlag, and each
// codec's own prev_* bookkeeping).
//
// Grounded on the teacher's RocVideoParser base class
// (original_source/src/parser/roc_video_parser.h) for the decode-surface
// pool and on hevc_parser.cpp's num_output_pics_/output_pic_list_ fields
// for the reorder queue, generalized to a codec-neutral fixed-capacity
// queue per spec.md §4.8.
package session

// OutputReorder holds surface indices in decode-order of bump, released to
// the display callback once the queue would otherwise exceed
// max_display_delay. Not thread-safe; callers serialize access themselves
// per spec.md §5.
type OutputReorder struct {
	maxDisplayDelay int
	queue           []int
}

// NewOutputReorder creates a reorder queue bounded to maxDisplayDelay
// pending surfaces.
func NewOutputReorder(maxDisplayDelay int) *OutputReorder {
	return &OutputReorder{maxDisplayDelay: maxDisplayDelay}
}

// Len returns the number of surfaces currently queued.
func (o *OutputReorder) Len() int { return len(o.queue) }

// Push enqueues a bumped surface index.
func (o *OutputReorder) Push(surfaceIdx int) {
	o.queue = append(o.queue, surfaceIdx)
}

// Release pops and returns the head of the queue whenever the queue's
// length exceeds max_display_delay (0 while flushing, per spec.md §4.8).
// Called after every picture-decode step; returns ok=false if nothing is
// due for release yet.
func (o *OutputReorder) Release(flushing bool) (surfaceIdx int, ok bool) {
	limit := o.maxDisplayDelay
	if flushing {
		limit = 0
	}
	if len(o.queue) <= limit {
		return 0, false
	}
	surfaceIdx = o.queue[0]
	o.queue = o.queue[1:]
	return surfaceIdx, true
}

// Drain releases every remaining queued surface, for use once Dpb.Flush
// has bumped everything still pending at end-of-stream.
func (o *OutputReorder) Drain() []int {
	out := o.queue
	o.queue = nil
	return out
}
