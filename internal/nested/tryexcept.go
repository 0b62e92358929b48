package nested

import (
	"errors"
	"fmt"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/graph"
	"github.com/hgraph-go/runtime/internal/node"
	"github.com/hgraph-go/runtime/internal/tsvalue"
)

// TryExcept wraps a nested graph, catching any EvalError raised while
// stepping it (spec §4.8, §7). On success it relays the protected
// output's fresh value to its own "out" slot. On failure it writes the
// error output and leaves "out" completely untouched — not even its
// last-modified time moves — so downstream observers see neither a
// spurious new value nor a stale-looking re-touch.
type TryExcept struct {
	*node.BaseNode

	inner  *graph.Graph
	target *tsvalue.TSValue // protected output inside inner, TS kind
	out    *tsvalue.TSValue // outer-visible relay, same TSMeta as target

	errOut *tsvalue.TSValue // TSB{path: TS<string>, message: TS<string>, time: TS<int64>}

	// scratchAttemptTime records the engine time of the most recent eval
	// attempt, successful or not, purely for diagnostics: it is never
	// copied onto out's real last-modified time, which is the whole point
	// of keeping it separate.
	scratchAttemptTime clock.EngineTime
}

// NewTryExcept wraps innerNodes, protecting target's value (a TS-kind
// output belonging to one of innerNodes) behind errOut.
func NewTryExcept(path string, innerNodes []node.Node, traits map[string]string, target, errOut *tsvalue.TSValue) *TryExcept {
	te := &TryExcept{
		BaseNode: node.NewBaseNode(path, 0),
		target:   target,
		out:      tsvalue.New(target.Meta()),
		errOut:   errOut,
	}
	te.inner = graph.New(innerNodes, traits, te)
	te.RegisterOutput(te.out)
	te.RegisterOutput(te.errOut)
	te.scratchAttemptTime = clock.MinDT
	return te
}

func (te *TryExcept) Inner() *graph.Graph    { return te.inner }
func (te *TryExcept) Out() *tsvalue.TSValue  { return te.out }
func (te *TryExcept) Err() *tsvalue.TSValue  { return te.errOut }

func (te *TryExcept) Initialise() error { return nil }
func (te *TryExcept) Start() error      { return nil }
func (te *TryExcept) Stop() error       { return nil }
func (te *TryExcept) Dispose() error    { return nil }

func (te *TryExcept) Eval(ctx node.EvalContext) error {
	te.scratchAttemptTime = ctx.Time()

	if err := te.stepInner(ctx.Time()); err != nil {
		return te.writeError(ctx.Time(), err)
	}

	if te.target.LastModifiedTime() == ctx.Time() {
		view := tsvalue.NewTSView(te.target)
		val, verr := view.GetValue()
		if verr != nil {
			return verr
		}
		if err := tsvalue.NewTSMutableView(te.out).CopyValue(ctx.Time(), *val); err != nil {
			return err
		}
	}

	if next := te.inner.NextScheduledTime(); next != clock.MaxDT && next > ctx.Time() {
		return ctx.RescheduleAt(next)
	}
	return nil
}

// stepInner steps the inner graph, translating a panic (from a faulty
// node's Eval) into an EvalError the same as a returned error. The
// inner graph's own StepAt already wraps a node error with its path and
// engine time (internal/graph.Graph.StepAt), so that context survives
// into the error message written below.
func (te *TryExcept) stepInner(at clock.EngineTime) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during eval: %v", r)
		}
	}()
	return te.inner.StepAt(at)
}

// writeError records cause into errOut's three fields: the offending
// node's path (from the nested *graph.StepError, if the failure reached
// us that way — a recovered panic has no node path to attribute), the
// message, and the attempt time.
func (te *TryExcept) writeError(t clock.EngineTime, cause error) error {
	path := ""
	var stepErr *graph.StepError
	if errors.As(cause, &stepErr) {
		path = stepErr.Path
	}

	mv := tsvalue.NewTSMutableView(te.errOut)
	if err := mv.SetField(t, "path", func(field tsvalue.TSMutableView) error {
		return field.SetValue(t, path)
	}); err != nil {
		return err
	}
	if err := mv.SetField(t, "message", func(field tsvalue.TSMutableView) error {
		return field.SetValue(t, cause.Error())
	}); err != nil {
		return err
	}
	return mv.SetField(t, "time", func(field tsvalue.TSMutableView) error {
		return field.SetValue(t, int64(t))
	})
}
