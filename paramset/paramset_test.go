package paramset

import "testing"

func TestActivationTrackerFirstActivationChanges(t *testing.T) {
	var tr ActivationTracker
	if !tr.Activate(0, Dimensions{1920, 1080}) {
		t.Fatal("first activation must report a change")
	}
	if tr.Activate(0, Dimensions{1920, 1080}) {
		t.Fatal("same id and dimensions must not report a change")
	}
}

func TestActivationTrackerIDChange(t *testing.T) {
	var tr ActivationTracker
	tr.Activate(0, Dimensions{1920, 1080})
	if !tr.Activate(1, Dimensions{1920, 1080}) {
		t.Fatal("new SPS id must report a change even at the same dimensions")
	}
}

func TestActivationTrackerResolutionChange(t *testing.T) {
	var tr ActivationTracker
	tr.Activate(0, Dimensions{1920, 1080})
	if !tr.Activate(0, Dimensions{1280, 720}) {
		t.Fatal("dimension change under the same id must report a change")
	}
	if got := tr.Dimensions(); got != (Dimensions{1280, 720}) {
		t.Errorf("Dimensions() = %+v, want {1280 720}", got)
	}
}
