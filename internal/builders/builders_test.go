package builders

import (
	"testing"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/nested"
	"github.com/hgraph-go/runtime/internal/node"
	"github.com/hgraph-go/runtime/internal/tsvalue"
	"github.com/hgraph-go/runtime/internal/value"
)

type testEvalCtx struct {
	t clock.EngineTime
}

func (c *testEvalCtx) Time() clock.EngineTime                { return c.t }
func (c *testEvalCtx) RescheduleNow() error                   { return nil }
func (c *testEvalCtx) RescheduleAt(t clock.EngineTime) error { return nil }

func TestSignatureValidateRejectsMissingOutput(t *testing.T) {
	sig := Signature{}
	if err := sig.Validate(); err == nil {
		t.Fatal("expected error for missing Output")
	}
}

func TestSignatureValidateRejectsDuplicateInputs(t *testing.T) {
	reg := tsvalue.NewTSTypeRegistry()
	m := reg.InternScalar(value.IntMeta)
	sig := Signature{
		Inputs: []NamedInput{{Name: "x", Meta: m}, {Name: "x", Meta: m}},
		Output: m,
	}
	if err := sig.Validate(); err == nil {
		t.Fatal("expected error for duplicate input name")
	}
}

func TestSignatureFootprintSumsScalarSizes(t *testing.T) {
	reg := tsvalue.NewTSTypeRegistry()
	intMeta := reg.InternScalar(value.IntMeta)
	sig := Signature{
		Inputs: []NamedInput{{Name: "a", Meta: intMeta}, {Name: "b", Meta: intMeta}},
		Output: intMeta,
	}
	want := 3 * value.IntMeta.Size()
	if got := sig.Footprint(); got != want {
		t.Fatalf("Footprint() = %d, want %d", got, want)
	}
}

func TestFuncBuilderBuildsAndEvaluatesSum(t *testing.T) {
	reg := tsvalue.NewTSTypeRegistry()
	intMeta := reg.InternScalar(value.IntMeta)

	a := tsvalue.New(intMeta)
	b := tsvalue.New(intMeta)

	sig := Signature{
		Inputs: []NamedInput{{Name: "a", Meta: intMeta}, {Name: "b", Meta: intMeta}},
		Output: intMeta,
	}
	fn := func(ctx node.EvalContext, inputs map[string]*tsvalue.TSValue, state, out, errOut *tsvalue.TSValue) error {
		av, err := tsvalue.NewTSView(inputs["a"]).GetValue()
		if err != nil {
			return err
		}
		bv, err := tsvalue.NewTSView(inputs["b"]).GetValue()
		if err != nil {
			return err
		}
		x, _ := value.As[int64](av)
		y, _ := value.As[int64](bv)
		return tsvalue.NewTSMutableView(out).SetValue(ctx.Time(), x+y)
	}
	builder := FuncBuilder{Sig: sig, Fn: fn}

	tsvalue.NewTSMutableView(a).SetValue(1, int64(2))
	tsvalue.NewTSMutableView(b).SetValue(1, int64(3))

	n, err := builder.Build("/sum", map[string]*tsvalue.TSValue{"a": a, "b": b})
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Eval(&testEvalCtx{t: 1}); err != nil {
		t.Fatal(err)
	}

	fnNode := n.(*funcNode)
	v, err := tsvalue.NewTSView(fnNode.Out()).GetValue()
	if err != nil {
		t.Fatal(err)
	}
	got, _ := value.As[int64](v)
	if got != 5 {
		t.Fatalf("sum = %d, want 5", got)
	}

	// The node must have subscribed to both inputs, so a fresh touch on
	// either schedules it.
	if n.NextWakeTime() != clock.MaxDT {
		t.Fatalf("node should not be scheduled before any post-build touch, got wake=%d", n.NextWakeTime())
	}
	tsvalue.NewTSMutableView(a).SetValue(2, int64(10))
	if n.NextWakeTime() != 2 {
		t.Fatalf("node wake time after input touch = %d, want 2", n.NextWakeTime())
	}
}

func TestFuncBuilderRejectsMissingInput(t *testing.T) {
	reg := tsvalue.NewTSTypeRegistry()
	intMeta := reg.InternScalar(value.IntMeta)
	sig := Signature{
		Inputs: []NamedInput{{Name: "a", Meta: intMeta}},
		Output: intMeta,
	}
	builder := FuncBuilder{Sig: sig, Fn: func(node.EvalContext, map[string]*tsvalue.TSValue, *tsvalue.TSValue, *tsvalue.TSValue, *tsvalue.TSValue) error {
		return nil
	}}
	if _, err := builder.Build("/missing", map[string]*tsvalue.TSValue{}); err == nil {
		t.Fatal("expected error for missing bound input")
	}
}

func TestCollectionBuilderBuildsOneChildGraphPerKey(t *testing.T) {
	reg := tsvalue.NewTSTypeRegistry()
	intMeta := reg.InternScalar(value.IntMeta)
	dictMeta := reg.InternDict(value.StringMeta, intMeta)
	source := tsvalue.New(dictMeta)

	doubleSig := Signature{
		Inputs: []NamedInput{{Name: "x", Meta: intMeta}},
		Output: intMeta,
	}
	doubleFn := func(ctx node.EvalContext, inputs map[string]*tsvalue.TSValue, state, out, errOut *tsvalue.TSValue) error {
		v, err := tsvalue.NewTSView(inputs["x"]).GetValue()
		if err != nil {
			return err
		}
		n, _ := value.As[int64](v)
		return tsvalue.NewTSMutableView(out).SetValue(ctx.Time(), n*2)
	}
	elem := FuncElementBuilder{Inner: FuncBuilder{Sig: doubleSig, Fn: doubleFn}, InputName: "x"}
	cb := CollectionBuilder{Source: source, Element: elem}

	n, err := cb.Build("/coll")
	if err != nil {
		t.Fatal(err)
	}

	key := value.New(value.StringMeta)
	if err := key.Emplace("alpha"); err != nil {
		t.Fatal(err)
	}
	mv := tsvalue.NewTSMutableView(source)
	if err := mv.SetKey(1, key, func(f tsvalue.TSMutableView) error { return f.SetValue(1, int64(21)) }); err != nil {
		t.Fatal(err)
	}

	if err := n.Eval(&testEvalCtx{t: 1}); err != nil {
		t.Fatal(err)
	}
	if got := len(n.(*nested.MapOverKeys).ActiveKeys()); got != 1 {
		t.Fatalf("child graphs after one key = %d, want 1", got)
	}
}
