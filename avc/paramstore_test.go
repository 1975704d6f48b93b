package avc

import "testing"

func TestParamSetStorePutAndGet(t *testing.T) {
	var store ParamSetStore
	sps := &SPS{ID: 0, PicWidthInMBSMinus1: 3, PicHeightInMapUnitsMinus1: 3, FrameMBSOnly: true}
	if err := store.PutSPS(sps); err != nil {
		t.Fatalf("PutSPS: %v", err)
	}
	got, err := store.SPS(0)
	if err != nil {
		t.Fatalf("SPS(0): %v", err)
	}
	if got != sps {
		t.Fatal("SPS(0) did not return the stored pointer")
	}
}

func TestParamSetStoreNotReceived(t *testing.T) {
	var store ParamSetStore
	if _, err := store.PPS(1); err == nil {
		t.Fatal("PPS(1) should fail before any PPS is stored")
	}
}

func TestParamSetStoreActivateReportsChange(t *testing.T) {
	var store ParamSetStore
	sps := &SPS{ID: 0, PicWidthInMBSMinus1: 3, PicHeightInMapUnitsMinus1: 3, FrameMBSOnly: true}
	if !store.Activate(sps) {
		t.Fatal("first Activate should report a change")
	}
	if store.Activate(sps) {
		t.Fatal("second Activate with identical dimensions should report no change")
	}
	sps2 := &SPS{ID: 0, PicWidthInMBSMinus1: 7, PicHeightInMapUnitsMinus1: 3, FrameMBSOnly: true}
	if !store.Activate(sps2) {
		t.Fatal("Activate with a resolution change should report a change")
	}
}
