package rocparser

import "github.com/ROCm/rocDecode-sub000/session"

// SequenceCb fires before decoding frames and whenever the active format
// changes. Returning 0 is a failure (propagated as RuntimeError); any
// other value means ok. The DPB size is fixed at Create: a return value
// greater than 1 does not change it.
type SequenceCb func(format *VideoFormat) int

// DecodeCb fires once a picture's parameters are fully resolved, in
// decode order. Returning 0 is a failure.
type DecodeCb func(pic *PicParams) int

// DisplayCb fires once a picture is released from the output-reorder
// queue, in display order. Returning 0 is a failure.
type DisplayCb func(info *DispInfo) int

// SeiCb is the callback type for a picture's SEI/metadata payload.
// Returning 0 is a failure. None of this package's pipelines invokes it:
// SEI NAL units and metadata OBUs are skipped without being forwarded.
type SeiCb func(info *SeiMessageInfo) int

// Callbacks bundles every callback a Create call may register. Any nil
// entry is simply not invoked; unlike the other three, a DecodeCb is
// required for a session to produce useful output, but it is not
// validated here — an absent DecodeCb just means no picture is ever
// dispatched to a decoder.
type Callbacks struct {
	Sequence SequenceCb
	Decode   DecodeCb
	Display  DisplayCb
	Sei      SeiCb
}

// Rational is a {num, den} pair used for frame rate and aspect ratio.
type Rational struct {
	Num int
	Den int
}

// VideoFormat is the sequence-level description handed to SequenceCb,
// spec.md §6.
type VideoFormat struct {
	Codec              session.Codec
	FrameRate          Rational
	ProgressiveSequence bool
	BitDepthLumaMinus8  int
	BitDepthChromaMinus8 int
	MinNumDecodeSurfaces int
	CodedWidth         int
	CodedHeight        int
	DisplayWidth       int
	DisplayHeight      int
	ChromaFormat       int
	Bitrate            int
	AspectRatio        Rational
	VideoSignalDescriptionPresent bool
	SeqHdrData         []byte // raw sequence-header bytes, truncated to 1024
}

// AVCPicParams is the AVC-tagged arm of PicParams' per-codec union.
type AVCPicParams struct {
	FrameNum     int
	FieldPicFlag bool
	RefPicFlag   bool
	IntraPicFlag bool
	RefFrames    [16]int
}

// HEVCPicParams is the HEVC-tagged arm of PicParams' per-codec union.
// RefFrames is filled ST-curr-before, ST-curr-after, LT-curr, ST-foll,
// LT-foll; unused entries carry PicIdx=0xFF, per spec.md §6.
type HEVCPicParams struct {
	RefFrames [15]HEVCRefFrame
	SliceRefPicList [2][15]int
}

// HEVCRefFrame is one entry of HEVCPicParams.RefFrames.
type HEVCRefFrame struct {
	PicIdx int
	POC    int
}

// AV1PicParams is the AV1-tagged arm of PicParams' per-codec union.
type AV1PicParams struct {
	FrameType  int
	RefFrameIdx [7]int
	OrderHint  int
}

// PicParams is the combined per-picture parameter block emitted by
// DecodeCb, spec.md §6. Exactly one of AVC/HEVC/AV1 is populated,
// matching the session's configured Codec.
type PicParams struct {
	Width        int
	Height       int
	CurrPicIdx   int
	FieldPicFlag bool
	BottomFieldFlag bool
	BitstreamData   []byte
	NumSlices    int

	AVC  *AVCPicParams
	HEVC *HEVCPicParams
	AV1  *AV1PicParams
}

// DispInfo is the per-picture information handed to DisplayCb.
type DispInfo struct {
	PicIdx           int
	Progressive      bool
	TopFieldFirst    bool
	RepeatFirstField bool
	PTS              int64
}

// SeiMessageInfo forwards one picture's raw SEI/metadata payload.
type SeiMessageInfo struct {
	Payload      []byte
	MessageType  int
	MessageSize  int
}
