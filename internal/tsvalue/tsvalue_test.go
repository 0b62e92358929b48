package tsvalue

import (
	"testing"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/value"
)

func mkIntValue(n int64) value.Value {
	v := value.New(value.IntMeta)
	v.Emplace(n)
	return v
}

func TestScalarSetValueUpdatesTimeAndNotifies(t *testing.T) {
	reg := NewTSTypeRegistry()
	meta := reg.InternScalar(value.IntMeta)
	ts := New(meta)
	mv := NewTSMutableView(ts)

	if ts.LastModifiedTime() != clock.MinDT {
		t.Fatal("fresh TSValue should have MinDT last-modified time")
	}

	if err := mv.SetValue(100, int64(42)); err != nil {
		t.Fatal(err)
	}
	if ts.LastModifiedTime() != 100 {
		t.Fatalf("LastModifiedTime() = %d, want 100", ts.LastModifiedTime())
	}

	view := mv.AsView()
	got, err := view.GetValue()
	if err != nil {
		t.Fatal(err)
	}
	n, ok := value.As[int64](got)
	if !ok || n != 42 {
		t.Fatalf("GetValue() = (%v, %v), want (42, true)", n, ok)
	}
}

func TestBundleFieldMutationMarksOnlyWrittenField(t *testing.T) {
	reg := NewTSTypeRegistry()
	xMeta := reg.InternScalar(value.IntMeta)
	yMeta := reg.InternScalar(value.FloatMeta)
	bundleMeta := reg.InternBundle([]TSField{{Name: "x", Meta: xMeta}, {Name: "y", Meta: yMeta}})
	ts := New(bundleMeta)
	mv := NewTSMutableView(ts)

	err := mv.SetField(10, "x", func(child TSMutableView) error {
		return child.SetValue(10, int64(5))
	})
	if err != nil {
		t.Fatal(err)
	}

	touched := ts.bundleDelta.TouchedFields()
	if len(touched) != 1 || touched[0] != 0 {
		t.Fatalf("expected only field 0 (x) touched, got %v", touched)
	}

	view := mv.AsView()
	xView, err := view.Field("x")
	if err != nil {
		t.Fatal(err)
	}
	xVal, _ := xView.GetValue()
	n, _ := value.As[int64](xVal)
	if n != 5 {
		t.Fatalf("field x = %d, want 5", n)
	}
}

func TestListPushAndModifiedIndices(t *testing.T) {
	reg := NewTSTypeRegistry()
	elemMeta := reg.InternScalar(value.IntMeta)
	listMeta := reg.InternList(elemMeta)
	ts := New(listMeta)
	mv := NewTSMutableView(ts)

	for i := int64(0); i < 3; i++ {
		i := i
		err := mv.PushListElem(clock.EngineTime(i+1), elemMeta, func(child TSMutableView) error {
			return child.SetValue(clock.EngineTime(i+1), i)
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	view := mv.AsView()
	if view.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", view.Size())
	}
	idxs := view.ModifiedIndices()
	if len(idxs) != 3 {
		t.Fatalf("ModifiedIndices() = %v, want 3 entries", idxs)
	}
}

func TestSetInsertEraseDelta(t *testing.T) {
	reg := NewTSTypeRegistry()
	setMeta := reg.InternSet(value.IntMeta)
	ts := New(setMeta)
	mv := NewTSMutableView(ts)

	if err := mv.SetInsert(1, mkIntValue(7)); err != nil {
		t.Fatal(err)
	}
	view := mv.AsView()
	if !view.Contains(mkIntValue(7)) {
		t.Fatal("expected 7 to be a set member")
	}
	added := view.Added()
	if len(added) != 1 {
		t.Fatalf("Added() = %v, want 1 entry", added)
	}

	if err := mv.SetErase(2, mkIntValue(7)); err != nil {
		t.Fatal(err)
	}
	if view.Contains(mkIntValue(7)) {
		t.Fatal("7 should no longer be a member after erase")
	}
}

func TestDictSetKeyAddedThenUpdated(t *testing.T) {
	reg := NewTSTypeRegistry()
	valMeta := reg.InternScalar(value.IntMeta)
	dictMeta := reg.InternDict(value.StringMeta, valMeta)
	ts := New(dictMeta)
	mv := NewTSMutableView(ts)

	strKey := func(s string) value.Value {
		v := value.New(value.StringMeta)
		v.Emplace(s)
		return v
	}

	err := mv.SetKey(1, strKey("a"), func(child TSMutableView) error {
		return child.SetValue(1, int64(10))
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ts.mapDelta.Added()) != 1 {
		t.Fatalf("expected 1 added key, got %v", ts.mapDelta.Added())
	}

	err = mv.SetKey(2, strKey("a"), func(child TSMutableView) error {
		return child.SetValue(2, int64(20))
	})
	if err != nil {
		t.Fatal(err)
	}
	// No ApplyDelta ran between the two SetKey calls, so key "a" is still
	// within its original tick's Added entry, not yet Updated.
	if len(ts.mapDelta.Added()) != 1 {
		t.Fatalf("expected key 'a' to remain Added within the same tick, got %v", ts.mapDelta.Added())
	}

	view := mv.AsView()
	childView, err := view.AtKey(strKey("a"))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := childView.GetValue()
	n, _ := value.As[int64](got)
	if n != 20 {
		t.Fatalf("dict value at key a = %d, want 20 (last write wins)", n)
	}
}

func TestDictDeltaClearedBetweenTicksShowsUpdate(t *testing.T) {
	reg := NewTSTypeRegistry()
	valMeta := reg.InternScalar(value.IntMeta)
	dictMeta := reg.InternDict(value.StringMeta, valMeta)
	ts := New(dictMeta)
	mv := NewTSMutableView(ts)
	strKey := func(s string) value.Value {
		v := value.New(value.StringMeta)
		v.Emplace(s)
		return v
	}

	mv.SetKey(1, strKey("a"), func(child TSMutableView) error {
		return child.SetValue(1, int64(1))
	})
	mv.ApplyDelta() // tick boundary: clear deltas

	mv.SetKey(2, strKey("a"), func(child TSMutableView) error {
		return child.SetValue(2, int64(2))
	})
	if len(ts.mapDelta.Added()) != 0 {
		t.Fatalf("key 'a' already existed before this tick, must not appear in Added, got %v", ts.mapDelta.Added())
	}
	if len(ts.mapDelta.Updated()) != 1 {
		t.Fatalf("expected key 'a' in Updated after tick boundary, got %v", ts.mapDelta.Updated())
	}
}

func TestWindowPushAndEviction(t *testing.T) {
	reg := NewTSTypeRegistry()
	winMeta := reg.InternWindow(value.IntMeta, 2)
	ts := New(winMeta)
	mv := NewTSMutableView(ts)

	mv.WindowPush(1, mkIntValue(10))
	mv.WindowPush(2, mkIntValue(20))
	mv.WindowPush(3, mkIntValue(30))

	view := mv.AsView()
	if view.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", view.Size())
	}
	if view.Capacity() != 2 {
		t.Fatalf("Capacity() = %d, want 2", view.Capacity())
	}
	vals := view.Values()
	if len(vals) != 2 {
		t.Fatalf("Values() len = %d, want 2", len(vals))
	}
	n0, _ := value.As[int64](&vals[0])
	n1, _ := value.As[int64](&vals[1])
	if n0 != 20 || n1 != 30 {
		t.Fatalf("Values() = [%d %d], want [20 30]", n0, n1)
	}
}

func TestRefBindAndTarget(t *testing.T) {
	reg := NewTSTypeRegistry()
	scalarMeta := reg.InternScalar(value.IntMeta)
	refMeta := reg.InternRef(scalarMeta)
	target := New(scalarMeta)
	NewTSMutableView(target).SetValue(1, int64(9))

	ref := New(refMeta)
	mv := NewTSMutableView(ref)
	if err := mv.Bind(1, target); err != nil {
		t.Fatal(err)
	}

	view := mv.AsView()
	targetView, err := view.Target()
	if err != nil {
		t.Fatal(err)
	}
	got, _ := targetView.GetValue()
	n, _ := value.As[int64](got)
	if n != 9 {
		t.Fatalf("ref target value = %d, want 9", n)
	}
}

func TestTSMetaInterningSharesPointer(t *testing.T) {
	reg := NewTSTypeRegistry()
	a := reg.InternScalar(value.IntMeta)
	b := reg.InternScalar(value.IntMeta)
	if a != b {
		t.Fatal("structurally equal TSMeta should share one pointer")
	}
}
