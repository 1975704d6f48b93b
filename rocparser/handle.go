package rocparser

import (
	"sync"
	"sync/atomic"

	"github.com/ausocean/utils/logging"

	"github.com/ROCm/rocDecode-sub000/dpb"
	"github.com/ROCm/rocDecode-sub000/session"
)

// Params configures a new session, spec.md §6's create() contract.
type Params struct {
	Codec                session.Codec
	MaxNumDecodeSurfaces int
	MaxDisplayDelay      int
	ErrorThreshold       int // percentage of a picture's bitstream tolerated as corrupt; stored only, per spec.md §5's Non-goals.
	Callbacks            Callbacks

	// Logger receives session create/flush events at Debug and failures
	// at Error; pictures skipped for an unreceived parameter set are not
	// logged. Nil disables logging entirely.
	Logger logging.Logger

	// TracePath, if set, enables a rotating structured trace of every
	// picture decoded and displayed (design note §9's replacement for
	// the teacher's "#if DBGINFO" print macros). Empty disables tracing.
	TracePath      string
	TraceMaxSizeMB int // MaxSize passed to lumberjack; defaults to 10 if TracePath is set and this is 0.
}

// maxDPBFrames is the largest fixed DPB size any supported codec's
// profile/level combination requires; create() raises
// max_num_decode_surfaces to at least this plus max_display_delay,
// per spec.md §6.
const maxDPBFrames = 16

// Handle is one parser session: exactly one DPB, one DecodePool, one
// OutputReorder, and one codec-tagged persistent State, per spec.md §5's
// "no cross-session aliasing" resource-sharing rule.
type Handle struct {
	id int64

	codec     session.Codec
	callbacks Callbacks

	dpb      *dpb.Dpb
	pool     *session.DecodePool
	reorder  *session.OutputReorder
	state    *session.State

	maxDisplayDelay int
	errorThreshold  int
	log             logging.Logger
	trace           *session.Trace

	avc  *avcPipeline
	hevc *hevcPipeline
	av1  *av1Pipeline

	inFlight int32 // guards the "no parse_video_data call in flight on destroy" rule
}

// debug/warn/errlog guard h.log so call sites never need a nil check of
// their own, matching how the teacher's commands inject a logging.Logger.
func (h *Handle) debug(msg string, kv ...interface{}) {
	if h.log != nil {
		h.log.Debug(msg, kv...)
	}
}

func (h *Handle) warn(msg string, kv ...interface{}) {
	if h.log != nil {
		h.log.Warning(msg, kv...)
	}
}

func (h *Handle) errlog(msg string, kv ...interface{}) {
	if h.log != nil {
		h.log.Error(msg, kv...)
	}
}

var (
	handleSeq   int64
	lastErrors  sync.Map // map[int64]error
)

// Create allocates a new session for the given codec. Returns
// InvalidParameter if params.Codec is not one of AVC/HEVC/AV1.
func Create(params Params) (*Handle, Status) {
	switch params.Codec {
	case session.AVC, session.HEVC, session.AV1:
	default:
		return nil, InvalidParameter
	}

	numSurfaces := params.MaxNumDecodeSurfaces
	if min := maxDPBFrames + params.MaxDisplayDelay; numSurfaces < min {
		numSurfaces = min
	}

	h := &Handle{
		id:              atomic.AddInt64(&handleSeq, 1),
		codec:           params.Codec,
		callbacks:       params.Callbacks,
		dpb:             dpb.New(numSurfaces),
		pool:            session.NewDecodePool(numSurfaces),
		reorder:         session.NewOutputReorder(params.MaxDisplayDelay),
		state:           session.NewState(params.Codec),
		maxDisplayDelay: params.MaxDisplayDelay,
		errorThreshold:  params.ErrorThreshold,
		log:             params.Logger,
	}
	switch params.Codec {
	case session.AVC:
		h.avc = newAVCPipeline()
	case session.HEVC:
		h.hevc = newHEVCPipeline()
	case session.AV1:
		h.av1 = newAV1Pipeline()
	}
	if params.TracePath != "" {
		maxSize := params.TraceMaxSizeMB
		if maxSize == 0 {
			maxSize = 10
		}
		h.trace = session.NewRotatingTrace(params.TracePath, maxSize, 3)
	}
	h.debug("session created", "codec", params.Codec, "surfaces", numSurfaces, "maxDisplayDelay", params.MaxDisplayDelay)
	h.trace.Event("create codec=%v surfaces=%d maxDisplayDelay=%d", params.Codec, numSurfaces, params.MaxDisplayDelay)
	return h, Success
}

// ParseVideoData feeds one demuxed packet into the session, driving the
// per-picture pipeline of spec.md §4.9. An empty payload with the EOS
// flag set triggers a flush; an empty payload without it is an invalid
// parameter.
func (h *Handle) ParseVideoData(p *Packet) Status {
	atomic.AddInt32(&h.inFlight, 1)
	defer atomic.AddInt32(&h.inFlight, -1)

	if len(p.Payload) == 0 {
		if p.isEOS() {
			return h.flush()
		}
		return h.fail(InvalidParameter, nil)
	}

	var st Status
	switch h.codec {
	case session.AVC:
		st = h.avc.parse(h, p)
	case session.HEVC:
		st = h.hevc.parse(h, p)
	case session.AV1:
		st = h.av1.parse(h, p)
	}
	if p.isEOS() {
		h.state.ObserveEOS()
	}
	return st
}

// flush implements dpb.Flush + OutputReorder draining at end-of-stream,
// spec.md §4.6's flush() and §8 scenario 6.
func (h *Handle) flush() Status {
	h.debug("flushing session", "picCount", h.state.PicCount)
	h.trace.Event("flush picCount=%d", h.state.PicCount)
	for _, idx := range h.dpb.Flush() {
		h.reorder.Push(idx)
	}
	for _, idx := range h.reorder.Drain() {
		if !h.emitDisplay(idx) {
			h.errlog("display callback rejected a flushed picture", "surfaceIdx", idx)
			return h.fail(RuntimeError, nil)
		}
	}
	h.state.ObserveEOS()
	return Success
}

// MarkFrameForReuse clears the DecodePool entry's disp_use_flag for the
// given surface index, spec.md §6.
func (h *Handle) MarkFrameForReuse(picIdx int) Status {
	if picIdx < 0 || picIdx >= h.pool.Size() {
		return InvalidParameter
	}
	h.pool.MarkFrameForReuse(picIdx)
	return Success
}

// Destroy drops the handle's LastError entry; it does not flush or display
// pictures still held. Valid only when no ParseVideoData call is in flight
// on this handle, per spec.md §5; otherwise it returns InvalidParameter.
func (h *Handle) Destroy() Status {
	if atomic.LoadInt32(&h.inFlight) != 0 {
		return InvalidParameter
	}
	lastErrors.Delete(h.id)
	return Success
}

// LastError returns the most recent error recorded for h, or nil if none.
// Kept out-of-band via a package-level map (rather than a field read
// directly off the handle) so a caller across the C ABI can retrieve it
// without racing a concurrent Destroy that frees the handle's memory.
func LastError(h *Handle) error {
	v, ok := lastErrors.Load(h.id)
	if !ok {
		return nil
	}
	return v.(error)
}

func (h *Handle) fail(status Status, err error) Status {
	if err != nil {
		lastErrors.Store(h.id, err)
		h.errlog("parse failed", "status", status, "error", err.Error())
	}
	return status
}

func (h *Handle) emitDisplay(surfaceIdx int) bool {
	h.trace.Event("display surfaceIdx=%d", surfaceIdx)
	if h.callbacks.Display == nil {
		return true
	}
	info := &DispInfo{PicIdx: surfaceIdx, Progressive: true}
	return h.callbacks.Display(info) != 0
}

// releaseOutputs implements spec.md §4.9 step 6: on every picture-decode
// step, release the reorder queue's head while it exceeds
// max_display_delay.
func (h *Handle) releaseOutputs() Status {
	for {
		idx, ok := h.reorder.Release(false)
		if !ok {
			return Success
		}
		if !h.emitDisplay(idx) {
			return h.fail(RuntimeError, nil)
		}
	}
}
