package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindFreeSurfaceSkipsClaimed(t *testing.T) {
	p := NewDecodePool(2)
	p.Claim(0, true)
	idx, err := p.FindFreeSurface()
	if err != nil {
		t.Fatalf("FindFreeSurface: %v", err)
	}
	if idx != 1 {
		t.Errorf("FindFreeSurface = %d, want 1", idx)
	}
}

func TestFindFreeSurfaceExhausted(t *testing.T) {
	p := NewDecodePool(1)
	p.Claim(0, true)
	if _, err := p.FindFreeSurface(); err == nil {
		t.Error("FindFreeSurface succeeded with no free surfaces, want error")
	}
}

func TestMarkFrameForReuseClearsDispFlag(t *testing.T) {
	p := NewDecodePool(1)
	p.Claim(0, true)
	p.MarkFrameForReuse(0)
	want := Surface{DecUseFlag: true, DispUseFlag: false}
	if diff := cmp.Diff(want, p.surfaces[0]); diff != "" {
		t.Errorf("surfaces[0] mismatch (-want +got):\n%s", diff)
	}
}

func TestReleaseDecodeFreesSurfaceForReuse(t *testing.T) {
	p := NewDecodePool(1)
	p.Claim(0, false)
	p.ReleaseDecode(0)
	if _, err := p.FindFreeSurface(); err != nil {
		t.Errorf("FindFreeSurface after ReleaseDecode: %v", err)
	}
}
