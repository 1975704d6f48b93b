package rocparser

import (
	"testing"

	"github.com/ROCm/rocDecode-sub000/session"
)

func TestCreateRejectsUnknownCodec(t *testing.T) {
	_, status := Create(Params{Codec: session.Codec(99)})
	if status != InvalidParameter {
		t.Fatalf("Create() with unknown codec = %v, want InvalidParameter", status)
	}
}

func TestCreateSizesPoolToAtLeastMaxDPBPlusDisplayDelay(t *testing.T) {
	h, status := Create(Params{Codec: session.AVC, MaxNumDecodeSurfaces: 1, MaxDisplayDelay: 3})
	if status != Success {
		t.Fatalf("Create() = %v, want Success", status)
	}
	if got, want := h.pool.Size(), maxDPBFrames+3; got != want {
		t.Errorf("pool.Size() = %d, want %d", got, want)
	}
	if h.avc == nil {
		t.Error("expected an avcPipeline to be constructed for session.AVC")
	}
}

func TestCreateConstructsCorrectPipelineForEachCodec(t *testing.T) {
	hHEVC, status := Create(Params{Codec: session.HEVC})
	if status != Success || hHEVC.hevc == nil {
		t.Fatalf("Create(HEVC): status=%v hevc=%v", status, hHEVC.hevc)
	}
	hAV1, status := Create(Params{Codec: session.AV1})
	if status != Success || hAV1.av1 == nil {
		t.Fatalf("Create(AV1): status=%v av1=%v", status, hAV1.av1)
	}
}

func TestParseVideoDataEmptyNonEOSIsInvalidParameter(t *testing.T) {
	h, _ := Create(Params{Codec: session.AVC})
	status := h.ParseVideoData(&Packet{})
	if status != InvalidParameter {
		t.Fatalf("ParseVideoData(empty, no EOS) = %v, want InvalidParameter", status)
	}
}

func TestParseVideoDataEmptyEOSFlushesCleanly(t *testing.T) {
	h, _ := Create(Params{Codec: session.AVC})
	status := h.ParseVideoData(&Packet{Flags: FlagEndOfStream})
	if status != Success {
		t.Fatalf("ParseVideoData(EOS flush on empty session) = %v, want Success", status)
	}
	if !h.state.FirstPicAfterEOS {
		t.Error("expected FirstPicAfterEOS to be set after an EOS flush")
	}
}

func TestMarkFrameForReuseBoundsCheck(t *testing.T) {
	h, _ := Create(Params{Codec: session.AVC, MaxNumDecodeSurfaces: 4})
	if status := h.MarkFrameForReuse(-1); status != InvalidParameter {
		t.Errorf("MarkFrameForReuse(-1) = %v, want InvalidParameter", status)
	}
	if status := h.MarkFrameForReuse(h.pool.Size()); status != InvalidParameter {
		t.Errorf("MarkFrameForReuse(size) = %v, want InvalidParameter", status)
	}
	if status := h.MarkFrameForReuse(0); status != Success {
		t.Errorf("MarkFrameForReuse(0) = %v, want Success", status)
	}
}

func TestDestroyClearsLastError(t *testing.T) {
	h, _ := Create(Params{Codec: session.AVC})
	h.fail(RuntimeError, errTestSentinel)
	if LastError(h) == nil {
		t.Fatal("expected LastError to be set after fail()")
	}
	if status := h.Destroy(); status != Success {
		t.Fatalf("Destroy() = %v, want Success", status)
	}
	if LastError(h) != nil {
		t.Error("expected LastError to be cleared after Destroy")
	}
}

func TestDestroyRejectsWhileParseInFlight(t *testing.T) {
	h, _ := Create(Params{Codec: session.AVC})
	h.inFlight = 1
	if status := h.Destroy(); status != InvalidParameter {
		t.Errorf("Destroy() while in-flight = %v, want InvalidParameter", status)
	}
}

var errTestSentinel = &sentinelError{"boom"}

type sentinelError struct{ msg string }

func (e *sentinelError) Error() string { return e.msg }
