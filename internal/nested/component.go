package nested

import (
	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/graph"
	"github.com/hgraph-go/runtime/internal/node"
)

// Component is a reusable sub-graph with a stable recordable identity
// (spec §4.8). Its inner graph's nodes are wired to the outer graph
// through ordinary TSValue bindings supplied by the caller before
// construction; Component's own job at eval time is purely to step the
// inner graph forward and to bubble up the inner graph's next wake time
// so the outer scheduler keeps calling it.
type Component struct {
	*node.BaseNode

	recordableID string
	outer        node.Node
	inner        *graph.Graph
}

// NewComponent builds a Component wrapping innerNodes as a nested graph.
// outer is the node this component is wired beneath for FQ-id purposes
// (nil at the outermost scope).
func NewComponent(path, recordableID string, innerNodes []node.Node, traits map[string]string, outer node.Node) *Component {
	c := &Component{
		BaseNode:     node.NewBaseNode(path, 0),
		recordableID: recordableID,
		outer:        outer,
	}
	c.inner = graph.New(innerNodes, traits, c)
	return c
}

func (c *Component) RecordableID() (string, bool) { return c.recordableID, c.recordableID != "" }
func (c *Component) outerParent() node.Node        { return c.outer }

// Inner exposes the child graph for tests and for builders wiring
// cross-boundary TSValue bindings.
func (c *Component) Inner() *graph.Graph { return c.inner }

func (c *Component) Initialise() error { return nil }
func (c *Component) Start() error      { return nil }
func (c *Component) Stop() error       { return nil }
func (c *Component) Dispose() error    { return nil }

// Eval steps the inner graph to the current tick, then reschedules
// itself for the inner graph's next wake time so the outer engine knows
// to return (spec §5: "nested graphs evaluate within their owning node's
// eval; their outputs become visible to the outer graph only upon
// return from that eval").
func (c *Component) Eval(ctx node.EvalContext) error {
	if err := c.inner.StepAt(ctx.Time()); err != nil {
		return err
	}
	if next := c.inner.NextScheduledTime(); next != clock.MaxDT && next > ctx.Time() {
		if err := ctx.RescheduleAt(next); err != nil {
			return err
		}
	}
	return nil
}
