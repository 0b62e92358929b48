package access

import (
	"testing"

	"github.com/hgraph-go/runtime/internal/observer"
	"github.com/hgraph-go/runtime/internal/tsvalue"
	"github.com/hgraph-go/runtime/internal/value"
)

type fakeNode struct {
	scheduled []int64
}

func (n *fakeNode) ScheduleAt(t int64) { n.scheduled = append(n.scheduled, t) }

func TestDirectAccessBindAndNotify(t *testing.T) {
	reg := tsvalue.NewTSTypeRegistry()
	meta := reg.InternScalar(value.IntMeta)
	output := tsvalue.New(meta)

	da := NewDirectAccess(output, FQPath{{Field: "out"}})
	node := &fakeNode{}
	if err := da.Bind(node, observer.Active); err != nil {
		t.Fatal(err)
	}

	tsvalue.NewTSMutableView(output).SetValue(5, int64(99))

	if len(node.scheduled) != 1 || node.scheduled[0] != 5 {
		t.Fatalf("scheduled = %v, want [5]", node.scheduled)
	}

	got, err := da.View().GetValue()
	if err != nil {
		t.Fatal(err)
	}
	n, _ := value.As[int64](got)
	if n != 99 {
		t.Fatalf("View() value = %d, want 99", n)
	}

	if err := da.Unbind(); err != nil {
		t.Fatal(err)
	}
	tsvalue.NewTSMutableView(output).SetValue(6, int64(100))
	if len(node.scheduled) != 1 {
		t.Fatal("node should not be notified after Unbind")
	}
}

func TestCollectionAccessDelegatesToChildren(t *testing.T) {
	reg := tsvalue.NewTSTypeRegistry()
	meta := reg.InternScalar(value.IntMeta)
	out1 := tsvalue.New(meta)
	out2 := tsvalue.New(meta)

	col := NewCollectionAccess(FQPath{})
	col.AddChild(NewDirectAccess(out1, FQPath{{Index: 0}}))
	col.AddChild(NewDirectAccess(out2, FQPath{{Index: 1}}))

	node := &fakeNode{}
	if err := col.Bind(node, observer.Active); err != nil {
		t.Fatal(err)
	}

	tsvalue.NewTSMutableView(out1).SetValue(1, int64(1))
	tsvalue.NewTSMutableView(out2).SetValue(2, int64(2))

	if len(node.scheduled) != 2 {
		t.Fatalf("expected node scheduled twice (once per child output), got %v", node.scheduled)
	}

	child, err := col.Child(0)
	if err != nil {
		t.Fatal(err)
	}
	if child.Path().String() != "[0]" {
		t.Fatalf("child path = %q, want [0]", child.Path().String())
	}
}

func TestRefObserverAccessFollowsRebind(t *testing.T) {
	reg := tsvalue.NewTSTypeRegistry()
	scalarMeta := reg.InternScalar(value.IntMeta)
	refMeta := reg.InternRef(scalarMeta)

	targetA := tsvalue.New(scalarMeta)
	targetB := tsvalue.New(scalarMeta)
	ref := tsvalue.New(refMeta)
	tsvalue.NewTSMutableView(ref).Bind(1, targetA)

	roa := NewRefObserverAccess(ref, FQPath{{Field: "ref"}})
	node := &fakeNode{}
	if err := roa.Bind(node, observer.Active); err != nil {
		t.Fatal(err)
	}

	tsvalue.NewTSMutableView(targetA).SetValue(2, int64(1))
	if len(node.scheduled) != 1 {
		t.Fatalf("expected node notified from targetA, got %v", node.scheduled)
	}

	// Rebind the REF to targetB; the node's subscription should move.
	tsvalue.NewTSMutableView(ref).Bind(3, targetB)

	tsvalue.NewTSMutableView(targetA).SetValue(4, int64(2))
	if len(node.scheduled) != 1 {
		t.Fatal("node should no longer be notified by the old target after rebind")
	}

	tsvalue.NewTSMutableView(targetB).SetValue(5, int64(3))
	if len(node.scheduled) != 2 {
		t.Fatalf("expected node notified from targetB after rebind, got %v", node.scheduled)
	}
}

func TestRefWrapperAccessSynthesizesStableRef(t *testing.T) {
	reg := tsvalue.NewTSTypeRegistry()
	scalarMeta := reg.InternScalar(value.IntMeta)
	output := tsvalue.New(scalarMeta)
	tsvalue.NewTSMutableView(output).SetValue(1, int64(42))

	rwa := NewRefWrapperAccess(reg, output, FQPath{{Field: "ref"}})
	if rwa.View().Meta().Kind() != tsvalue.REF {
		t.Fatal("RefWrapperAccess.View() should present a REF-kinded TSMeta")
	}
	targetView, err := rwa.View().Target()
	if err != nil {
		t.Fatal(err)
	}
	got, _ := targetView.GetValue()
	n, _ := value.As[int64](got)
	if n != 42 {
		t.Fatalf("wrapped target value = %d, want 42", n)
	}

	node := &fakeNode{}
	if err := rwa.Bind(node, observer.Active); err != nil {
		t.Fatal(err)
	}
	tsvalue.NewTSMutableView(output).SetValue(2, int64(43))
	if len(node.scheduled) != 1 {
		t.Fatalf("expected node notified via wrapped output, got %v", node.scheduled)
	}

	if err := rwa.Unbind(); err != nil {
		t.Fatal(err)
	}
	tsvalue.NewTSMutableView(output).SetValue(3, int64(44))
	if len(node.scheduled) != 1 {
		t.Fatal("node should not be notified after Unbind")
	}
}

func TestFQPathRendering(t *testing.T) {
	p := FQPath{}
	p = p.Append(PathElem{Field: "a"})
	p = p.Append(PathElem{Index: 2})
	p = p.Append(PathElem{Key: "k"})
	want := ".a[2]{k}"
	if p.String() != want {
		t.Fatalf("FQPath.String() = %q, want %q", p.String(), want)
	}
}
