package value

import "testing"

func TestScalarEmplaceAndAs(t *testing.T) {
	v := New(IntMeta)
	if v.HasValue() {
		t.Fatal("new scalar value should be unset")
	}
	if err := v.Emplace(int64(42)); err != nil {
		t.Fatalf("Emplace: %v", err)
	}
	got, ok := As[int64](&v)
	if !ok || got != 42 {
		t.Fatalf("As[int64] = (%v, %v), want (42, true)", got, ok)
	}
}

func TestScalarCopyEqual(t *testing.T) {
	v := New(StringMeta)
	if err := v.Emplace("hello"); err != nil {
		t.Fatal(err)
	}
	cp := v.Copy()
	if !v.Equal(&cp) {
		t.Fatal("copy should equal original")
	}
	if err := cp.Emplace("other"); err != nil {
		t.Fatal(err)
	}
	if v.Equal(&cp) {
		t.Fatal("mutated copy should not equal original")
	}
}

func TestBundleFieldAccess(t *testing.T) {
	fields := []FieldMeta{{Name: "x", Type: IntMeta}, {Name: "y", Type: FloatMeta}}
	reg := NewTypeRegistry()
	bundleMeta, err := reg.InternBundle("point", fields, VTable{})
	if err != nil {
		t.Fatal(err)
	}
	v := New(bundleMeta)
	if err := v.InitBundle(); err != nil {
		t.Fatal(err)
	}
	xf, err := v.Field("x")
	if err != nil {
		t.Fatal(err)
	}
	if err := xf.Emplace(int64(7)); err != nil {
		t.Fatal(err)
	}
	got, ok := As[int64](xf)
	if !ok || got != 7 {
		t.Fatalf("field x = (%v, %v)", got, ok)
	}
	if _, err := v.Field("z"); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestListMutators(t *testing.T) {
	reg := NewTypeRegistry()
	listMeta, err := reg.InternCollection(KindList, IntMeta, VTable{})
	if err != nil {
		t.Fatal(err)
	}
	v := New(listMeta)
	for i := int64(0); i < 3; i++ {
		elem := New(IntMeta)
		elem.Emplace(i)
		if err := v.PushBack(elem); err != nil {
			t.Fatal(err)
		}
	}
	if v.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", v.Len())
	}
	mid, err := v.At(1)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := As[int64](mid)
	if got != 1 {
		t.Fatalf("At(1) = %d, want 1", got)
	}
	if err := v.EraseAt(0); err != nil {
		t.Fatal(err)
	}
	if v.Len() != 2 {
		t.Fatalf("after erase Len() = %d, want 2", v.Len())
	}
	first, _ := v.At(0)
	got, _ = As[int64](first)
	if got != 1 {
		t.Fatalf("after erase At(0) = %d, want 1", got)
	}
}

func TestSetInsertEraseSlots(t *testing.T) {
	reg := NewTypeRegistry()
	setMeta, err := reg.InternCollection(KindSet, IntMeta, VTable{})
	if err != nil {
		t.Fatal(err)
	}
	v := New(setMeta)
	mkInt := func(n int64) Value {
		e := New(IntMeta)
		e.Emplace(n)
		return e
	}

	h3, added := v.SetInsert(mkInt(3))
	if !added {
		t.Fatal("expected fresh insert")
	}
	if !v.SetContains(mkInt(3)) {
		t.Fatal("expected 3 to be a member")
	}
	if _, added := v.SetInsert(mkInt(3)); added {
		t.Fatal("duplicate insert should not be fresh")
	}

	erasedHandle, found := v.SetErase(mkInt(3))
	if !found {
		t.Fatal("expected erase to find 3")
	}
	if erasedHandle != h3 {
		t.Fatalf("erase handle mismatch: %v != %v", erasedHandle, h3)
	}
	if v.SetSlotValid(h3) {
		t.Fatal("erased slot handle should be invalid")
	}

	h5, _ := v.SetInsert(mkInt(5))
	if h5.Index() != h3.Index() {
		t.Fatalf("expected recycled index %d, got %d", h3.Index(), h5.Index())
	}
	if h5.Generation() == h3.Generation() {
		t.Fatal("recycled slot must bump generation")
	}
	if v.SetSlotValid(h3) {
		t.Fatal("stale handle with old generation must stay invalid after reuse")
	}
}

func TestMapSetKeyLastWriteWins(t *testing.T) {
	reg := NewTypeRegistry()
	mapMeta, err := reg.InternMap(StringMeta, IntMeta, VTable{})
	if err != nil {
		t.Fatal(err)
	}
	v := New(mapMeta)
	mkStr := func(s string) Value {
		e := New(StringMeta)
		e.Emplace(s)
		return e
	}
	mkInt := func(n int64) Value {
		e := New(IntMeta)
		e.Emplace(n)
		return e
	}

	if _, fresh := v.SetKey(mkStr("a"), mkInt(1)); !fresh {
		t.Fatal("expected fresh insert")
	}
	if _, fresh := v.SetKey(mkStr("a"), mkInt(2)); fresh {
		t.Fatal("expected update, not fresh insert")
	}
	got, ok := v.AtKey(mkStr("a"))
	if !ok {
		t.Fatal("expected key a to be present")
	}
	n, _ := As[int64](got)
	if n != 2 {
		t.Fatalf("last write should win: got %d, want 2", n)
	}
}

func TestCyclicBufferRetainsEvictedForOneTick(t *testing.T) {
	cb := NewCyclicBuffer(2)
	cb.Push(1)
	cb.Push(2)
	if _, ok := cb.LastEvicted(); ok {
		t.Fatal("no eviction should have occurred yet")
	}
	cb.Push(3) // evicts 1
	evicted, ok := cb.LastEvicted()
	if !ok || evicted != 1 {
		t.Fatalf("LastEvicted() = (%v, %v), want (1, true)", evicted, ok)
	}
	cb.ClearEvicted()
	if _, ok := cb.LastEvicted(); ok {
		t.Fatal("evicted value should be cleared at tick boundary")
	}
	got := cb.Values()
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("Values() = %v, want [2 3]", got)
	}
}

func TestTypeRegistryInterning(t *testing.T) {
	reg := NewTypeRegistry()
	a, err := reg.InternBundle("p", []FieldMeta{{Name: "x", Type: IntMeta}}, VTable{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := reg.InternBundle("p", []FieldMeta{{Name: "x", Type: IntMeta}}, VTable{})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("structurally equal bundles should share one TypeMeta pointer")
	}
}
