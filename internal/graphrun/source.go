package graphrun

import (
	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/node"
	"github.com/hgraph-go/runtime/internal/tsvalue"
)

// tickSourceNode is the demo graph's only root: it emits an incrementing
// counter every tick. Grounded on internal/engine's countingNode test
// helper, generalised to write a TS[int64] output instead of just
// counting, and to call an afterEval hook after each write so the host
// can update its tick metrics and health state without the source needing
// to know about either.
type tickSourceNode struct {
	*node.BaseNode
	out   *tsvalue.TSValue
	count int64

	afterEval func(at clock.EngineTime)
}

func newTickSourceNode(path string, meta *tsvalue.TSMeta) *tickSourceNode {
	n := &tickSourceNode{
		BaseNode: node.NewBaseNode(path, 0),
		out:      tsvalue.New(meta),
	}
	n.RegisterOutput(n.out)
	n.ScheduleAt(0)
	return n
}

func (n *tickSourceNode) Out() *tsvalue.TSValue { return n.out }

func (n *tickSourceNode) Initialise() error { return nil }
func (n *tickSourceNode) Start() error      { return nil }
func (n *tickSourceNode) Stop() error       { return nil }
func (n *tickSourceNode) Dispose() error    { return nil }

func (n *tickSourceNode) Eval(ctx node.EvalContext) error {
	n.count++
	if err := tsvalue.NewTSMutableView(n.out).SetValue(ctx.Time(), n.count); err != nil {
		return err
	}
	n.ScheduleAt(int64(ctx.Time() + 1))
	if n.afterEval != nil {
		n.afterEval(ctx.Time())
	}
	return nil
}
