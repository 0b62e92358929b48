package builders

import (
	"fmt"

	"github.com/hgraph-go/runtime/internal/node"
	"github.com/hgraph-go/runtime/internal/observer"
	"github.com/hgraph-go/runtime/internal/tsvalue"
)

// EvalFunc is the user-supplied body of a builder-produced node. inputs is
// keyed by Signature.Inputs[i].Name; state and errOut are nil when the
// signature didn't request them.
type EvalFunc func(ctx node.EvalContext, inputs map[string]*tsvalue.TSValue, state, out, errOut *tsvalue.TSValue) error

// funcNode is the generic node type every FuncBuilder produces: its shape
// comes entirely from the Signature it was built from, its behaviour
// entirely from the EvalFunc.
type funcNode struct {
	*node.BaseNode

	inputs map[string]*tsvalue.TSValue
	state  *tsvalue.TSValue
	out    *tsvalue.TSValue
	errOut *tsvalue.TSValue

	fn EvalFunc
}

func (n *funcNode) Initialise() error { return nil }
func (n *funcNode) Start() error      { return nil }
func (n *funcNode) Stop() error       { return nil }
func (n *funcNode) Dispose() error    { return nil }

func (n *funcNode) Eval(ctx node.EvalContext) error {
	return n.fn(ctx, n.inputs, n.state, n.out, n.errOut)
}

func (n *funcNode) Out() *tsvalue.TSValue       { return n.out }
func (n *funcNode) StateValue() *tsvalue.TSValue { return n.state }
func (n *funcNode) Err() *tsvalue.TSValue       { return n.errOut }
func (n *funcNode) Input(name string) *tsvalue.TSValue { return n.inputs[name] }

// FuncBuilder is a Builder that wraps a plain EvalFunc: given a Signature
// and the already-constructed TSValues to bind as inputs, it allocates the
// node's own output (and, if requested, state/error) TSValues, subscribes
// the node to every input as an Active observer, and returns the wired
// node (spec §4.9: "produce a node instance and its wired inputs and
// outputs"). Grounded on the teacher's config-driven factory pattern
// (internal/indicator.Engine.createTokenIndicators), generalised from a
// fixed switch over indicator kinds to an arbitrary user Fn.
type FuncBuilder struct {
	Sig Signature
	Fn  EvalFunc
}

// Footprint reports the estimated resident size of one node this builder
// produces (spec §4.9).
func (b FuncBuilder) Footprint() uintptr { return b.Sig.Footprint() }

// Build constructs a node at path, binding inputs in Signature.Inputs
// order. inputs must supply exactly one TSValue per named input, each
// matching that input's declared TSMeta.
func (b FuncBuilder) Build(path string, inputs map[string]*tsvalue.TSValue) (node.Node, error) {
	if err := b.Sig.Validate(); err != nil {
		return nil, fmt.Errorf("builders: %s: %w", path, err)
	}
	bound := make(map[string]*tsvalue.TSValue, len(b.Sig.Inputs))
	for _, in := range b.Sig.Inputs {
		ts, ok := inputs[in.Name]
		if !ok {
			return nil, fmt.Errorf("builders: %s: missing input %q", path, in.Name)
		}
		if ts.Meta() != in.Meta {
			return nil, fmt.Errorf("builders: %s: input %q has mismatched TSMeta", path, in.Name)
		}
		bound[in.Name] = ts
	}

	n := &funcNode{
		BaseNode: node.NewBaseNode(path, 0),
		inputs:   bound,
		out:      tsvalue.New(b.Sig.Output),
		fn:       b.Fn,
	}
	if b.Sig.StateMeta != nil {
		n.state = tsvalue.New(b.Sig.StateMeta)
	}
	if b.Sig.ErrorMeta != nil {
		n.errOut = tsvalue.New(b.Sig.ErrorMeta)
		n.RegisterOutput(n.errOut)
	}
	n.RegisterOutput(n.out)

	for _, ts := range bound {
		ts.Observers().Subscribe(n, observer.Active)
	}
	return n, nil
}
