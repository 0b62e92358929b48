package delta

import "testing"

func containsU32(s []uint32, v uint32) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func TestSetDeltaAddRemoveCancel(t *testing.T) {
	d := NewSetDelta()
	d.MarkAdded(1)
	if !containsU32(d.Added(), 1) {
		t.Fatal("expected slot 1 in Added")
	}
	d.MarkRemoved(1) // cancels the same-tick add
	if d.IsEmpty() == false {
		t.Fatalf("expected empty delta after add+remove cancel, got added=%v removed=%v", d.Added(), d.Removed())
	}
}

func TestSetDeltaRemoveThenReaddCancels(t *testing.T) {
	d := NewSetDelta()
	d.MarkRemoved(5)
	if !containsU32(d.Removed(), 5) {
		t.Fatal("expected slot 5 in Removed")
	}
	d.MarkAdded(5) // cancels the same-tick remove
	if !d.IsEmpty() {
		t.Fatalf("expected empty delta after remove+add cancel, got added=%v removed=%v", d.Added(), d.Removed())
	}
}

func TestSetDeltaClear(t *testing.T) {
	d := NewSetDelta()
	d.MarkAdded(1)
	d.MarkRemoved(2)
	d.Clear()
	if !d.IsEmpty() {
		t.Fatal("expected empty delta after Clear")
	}
}

func TestMapDeltaLastWriteWinsCollapsesToOneEntry(t *testing.T) {
	d := NewMapDelta()
	d.MarkAdded(10)
	d.MarkUpdated(10) // still new this tick; must stay Added, not also Updated
	if !containsU32(d.Added(), 10) {
		t.Fatal("expected slot 10 in Added")
	}
	if containsU32(d.Updated(), 10) {
		t.Fatal("slot newly added this tick must not also appear in Updated")
	}
}

func TestMapDeltaUpdateExistingKey(t *testing.T) {
	d := NewMapDelta()
	d.MarkUpdated(3)
	d.MarkUpdated(3)
	d.MarkUpdated(3)
	if len(d.Updated()) != 1 {
		t.Fatalf("repeated updates to the same key must collapse to one entry, got %v", d.Updated())
	}
}

func TestMapDeltaRemoveCancelsAdd(t *testing.T) {
	d := NewMapDelta()
	d.MarkAdded(7)
	d.MarkRemoved(7)
	if !d.IsEmpty() {
		t.Fatalf("add+remove of same key within a tick should net to empty, got added=%v removed=%v", d.Added(), d.Removed())
	}
}

func TestMapDeltaRemoveDropsPendingUpdate(t *testing.T) {
	d := NewMapDelta()
	d.MarkUpdated(8)
	d.MarkRemoved(8)
	if containsU32(d.Updated(), 8) {
		t.Fatal("removed key must not remain in Updated")
	}
	if !containsU32(d.Removed(), 8) {
		t.Fatal("expected key 8 in Removed")
	}
}

func TestBundleDeltaNavTracksTouchedFields(t *testing.T) {
	d := NewBundleDeltaNav()
	inner := NewSetDelta()
	inner.MarkAdded(1)
	d.MarkField(2, inner)
	d.MarkField(0, nil)

	fields := d.TouchedFields()
	if len(fields) != 2 {
		t.Fatalf("expected 2 touched fields, got %v", fields)
	}
	child, ok := d.ChildDelta(2)
	if !ok {
		t.Fatal("expected child delta for field 2")
	}
	if sd, ok := child.(*SetDelta); !ok || sd != inner {
		t.Fatal("expected child delta to be the SetDelta attached to field 2")
	}
	if _, ok := d.ChildDelta(0); ok {
		t.Fatal("field 0 had no child delta attached")
	}
}

func TestListDeltaNavModifiedIndices(t *testing.T) {
	d := NewListDeltaNav()
	d.MarkIndex(0, nil)
	d.MarkIndex(3, nil)
	idxs := d.ModifiedIndices()
	if len(idxs) != 2 {
		t.Fatalf("expected 2 modified indices, got %v", idxs)
	}
	d.Clear()
	if !d.IsEmpty() {
		t.Fatal("expected empty after Clear")
	}
}
