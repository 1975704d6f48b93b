package session

// Codec tags the three syntax families a Session can be configured for,
// modeling the "polymorphism by inheritance" the original base/derived
// parser classes express as a capability set dispatched on a tag instead
// (spec.md §9 REDESIGN FLAGS).
type Codec int

const (
	AVC Codec = iota
	HEVC
	AV1
)

// AVCState is the AVC-specific session-persistent POC bookkeeping,
// section 8.2.1: the fields carried from one picture's POC derivation to
// the next.
type AVCState struct {
	PrevPicOrderCntMsb int
	PrevPicOrderCntLsb int
	PrevFrameNum       int
	PrevFrameNumOffset int
	PrevHasMMCO5       bool
	PrevRefPicBottomField bool
}

// HEVCState is the HEVC-specific session-persistent POC bookkeeping,
// section 8.3.1.
type HEVCState struct {
	PrevPocLsb int
	PrevPocMsb int
}

// AV1State is the AV1-specific session-persistent reference bookkeeping:
// the per-slot order_hint/frame_type tables set_frame_refs and
// show_existing_frame resolution read back each frame.
type AV1State struct {
	RefOrderHint [8]int
	RefFrameType [8]int
	SeenFrameHeader bool
}

// State carries the fields spec.md §4.9 names as "session-persistent":
// pic_count, first_pic_after_eos, NoRaslOutputFlag, plus each codec's own
// table (AV1's SeenFrameHeader lives in AV1State). A ParserCore embeds one State and mutates it across calls to
// ParseVideoData; it is never reset except by Create or an IDR/EOS that
// the codec's own rules say should clear it.
type State struct {
	Codec Codec

	PicCount          int
	FirstPicAfterEOS  bool
	NoRaslOutputFlag  bool

	AVC  AVCState
	HEVC HEVCState
	AV1  AV1State
}

// NewState returns a freshly initialized State for the given codec.
func NewState(codec Codec) *State {
	return &State{Codec: codec, FirstPicAfterEOS: true}
}

// ObserveEOS sets FirstPicAfterEOS so the next decoded picture is flagged
// as the first one following an end-of-stream marker, per spec.md §4.9
// step 2's "EOS → flag first-picture-after-EOS".
func (s *State) ObserveEOS() { s.FirstPicAfterEOS = true }

// ObserveEOB resets PicCount, per spec.md §4.9 step 2's "EOB → reset
// pic_count" (a new coded video sequence begins).
func (s *State) ObserveEOB() { s.PicCount = 0 }

// AdvancePicture increments PicCount and clears FirstPicAfterEOS, called
// once a picture has been successfully decoded and dispatched.
func (s *State) AdvancePicture() {
	s.PicCount++
	s.FirstPicAfterEOS = false
}
