package dpb

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindFreeSlotPrefersLowestDecodeOrder(t *testing.T) {
	d := New(3)
	d.InsertCurrent(0, 10, 0, 5, true)
	idx, err := d.FindFreeSlot()
	if err != nil {
		t.Fatalf("FindFreeSlot: %v", err)
	}
	if idx != 1 {
		t.Errorf("FindFreeSlot = %d, want 1 (first still-empty slot)", idx)
	}
}

func TestFindFreeSlotOverflow(t *testing.T) {
	d := New(1)
	d.InsertCurrent(0, 10, 0, 0, true)
	if _, err := d.FindFreeSlot(); err == nil {
		t.Error("FindFreeSlot succeeded on a full DPB, want error")
	}
}

func TestInsertCurrentUpdatesCounters(t *testing.T) {
	d := New(2)
	d.InsertCurrent(0, 7, 3, 1, true)
	if d.Fullness() != 1 {
		t.Errorf("Fullness = %d, want 1", d.Fullness())
	}
	if d.NumPicsNeededForOutput() != 1 {
		t.Errorf("NumPicsNeededForOutput = %d, want 1", d.NumPicsNeededForOutput())
	}
	want := Slot{
		InUse:            true,
		SurfaceIdx:       7,
		POC:              3,
		DecodeOrderCount: 1,
		PicOutputFlag:    true,
		OutputPending:    true,
		ReferenceState:   ShortTerm,
	}
	if diff := cmp.Diff(want, d.Slot(0)); diff != "" {
		t.Errorf("Slot(0) mismatch (-want +got):\n%s", diff)
	}
}

func TestBumpOneSelectsMinPOCAndFreesNonReference(t *testing.T) {
	d := New(3)
	d.InsertCurrent(0, 100, 8, 0, true)
	d.InsertCurrent(1, 101, 2, 1, true)
	d.InsertCurrent(2, 102, 4, 2, true)
	d.slots[1].ReferenceState = Unused

	surface, ok := d.BumpOne()
	if !ok {
		t.Fatal("BumpOne returned ok=false, want true")
	}
	if surface != 101 {
		t.Errorf("BumpOne surface = %d, want 101 (POC 2 is the minimum)", surface)
	}
	if d.Fullness() != 2 {
		t.Errorf("Fullness after bump = %d, want 2 (non-reference slot freed)", d.Fullness())
	}
	if d.NumPicsNeededForOutput() != 2 {
		t.Errorf("NumPicsNeededForOutput = %d, want 2", d.NumPicsNeededForOutput())
	}
}

func TestBumpOneKeepsReferenceSlotOccupied(t *testing.T) {
	d := New(2)
	d.InsertCurrent(0, 1, 0, 0, true)
	surface, ok := d.BumpOne()
	if !ok || surface != 1 {
		t.Fatalf("BumpOne = %d,%v, want 1,true", surface, ok)
	}
	if d.Fullness() != 1 {
		t.Errorf("Fullness = %d, want 1 (still a reference)", d.Fullness())
	}
}

func TestBumpOneNoPendingReturnsFalse(t *testing.T) {
	d := New(1)
	if _, ok := d.BumpOne(); ok {
		t.Error("BumpOne on empty DPB returned ok=true")
	}
}

func TestConditionalBumpReorderBound(t *testing.T) {
	d := New(4)
	d.InsertCurrent(0, 10, 0, 0, true)
	d.InsertCurrent(1, 11, 1, 1, true)
	d.InsertCurrent(2, 12, 2, 2, true)

	bumped := d.ConditionalBump(1, 100)
	if len(bumped) != 2 {
		t.Fatalf("ConditionalBump returned %d surfaces, want 2", len(bumped))
	}
	if bumped[0] != 10 || bumped[1] != 11 {
		t.Errorf("bumped = %v, want [10 11] in ascending POC order", bumped)
	}
	if d.NumPicsNeededForOutput() != 1 {
		t.Errorf("NumPicsNeededForOutput = %d, want 1", d.NumPicsNeededForOutput())
	}
}

func TestConditionalBumpDecBufBound(t *testing.T) {
	d := New(4)
	d.InsertCurrent(0, 10, 0, 0, true)
	d.InsertCurrent(1, 11, 1, 1, true)
	d.slots[0].ReferenceState = Unused
	d.slots[1].ReferenceState = Unused

	bumped := d.ConditionalBump(10, 1)
	if len(bumped) != 2 {
		t.Fatalf("ConditionalBump returned %d surfaces, want 2 (maxDecBuf=1 drains until fullness<1)", len(bumped))
	}
	if d.Fullness() != 0 {
		t.Errorf("Fullness = %d, want 0", d.Fullness())
	}
}

func TestMarkForOutputOnIrapWithNoRaslDrops(t *testing.T) {
	d := New(2)
	d.InsertCurrent(0, 10, 0, 0, true)
	d.InsertCurrent(1, 11, 1, 1, true)

	bumped := d.MarkForOutputOnIrapWithNoRasl(true)
	if len(bumped) != 0 {
		t.Errorf("MarkForOutputOnIrapWithNoRasl(true) bumped %v, want none (silent drop)", bumped)
	}
	if d.Fullness() != 0 {
		t.Errorf("Fullness = %d, want 0 (emptied)", d.Fullness())
	}
}

func TestMarkForOutputOnIrapWithNoRaslBumpsThenEmpties(t *testing.T) {
	d := New(2)
	d.InsertCurrent(0, 10, 5, 0, true)
	d.InsertCurrent(1, 11, 1, 1, true)

	bumped := d.MarkForOutputOnIrapWithNoRasl(false)
	if len(bumped) != 2 {
		t.Fatalf("bumped %v, want 2 surfaces", bumped)
	}
	if bumped[0] != 11 || bumped[1] != 10 {
		t.Errorf("bumped = %v, want [11 10] in POC order", bumped)
	}
	if d.Fullness() != 0 {
		t.Errorf("Fullness = %d, want 0 after empty", d.Fullness())
	}
}

func TestFlushDrainsAllPending(t *testing.T) {
	d := New(3)
	d.InsertCurrent(0, 10, 2, 0, true)
	d.InsertCurrent(1, 11, 0, 1, true)
	d.InsertCurrent(2, 12, 1, 2, false)

	bumped := d.Flush()
	if len(bumped) != 2 {
		t.Fatalf("Flush returned %d surfaces, want 2 (slot 2 has no pending output)", len(bumped))
	}
	if bumped[0] != 11 || bumped[1] != 10 {
		t.Errorf("bumped = %v, want [11 10] in POC order", bumped)
	}
}

func TestMarkUnusedForReferenceFreesUnreferencedNonPending(t *testing.T) {
	d := New(2)
	d.InsertCurrent(0, 10, 0, 0, false)
	d.InsertCurrent(1, 11, 1, 1, false)

	d.MarkUnusedForReference(map[int]ReferenceState{11: ShortTerm})

	if d.Slot(1).ReferenceState != ShortTerm {
		t.Errorf("slot 1 ReferenceState = %v, want ShortTerm (kept)", d.Slot(1).ReferenceState)
	}
	if d.Fullness() != 1 {
		t.Errorf("Fullness = %d, want 1 (slot 0 freed, not kept and not pending)", d.Fullness())
	}
}

func TestMarkUnusedForReferenceKeepsPendingSlotOccupied(t *testing.T) {
	d := New(1)
	d.InsertCurrent(0, 10, 0, 0, true)

	d.MarkUnusedForReference(map[int]ReferenceState{})

	if d.Slot(0).ReferenceState != Unused {
		t.Errorf("ReferenceState = %v, want Unused", d.Slot(0).ReferenceState)
	}
	if d.Fullness() != 1 {
		t.Errorf("Fullness = %d, want 1 (still output-pending, not freed)", d.Fullness())
	}
}
