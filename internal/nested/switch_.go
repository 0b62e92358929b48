package nested

import (
	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/graph"
	"github.com/hgraph-go/runtime/internal/node"
	"github.com/hgraph-go/runtime/internal/tsvalue"
	"github.com/hgraph-go/runtime/internal/value"
)

// BranchBuilder constructs the nodes of a named branch sub-graph.
type BranchBuilder func(name string) ([]node.Node, error)

// Switch selects one of a set of named branch sub-graphs based on a key
// input (spec §4.8). Swapping branches calls Stop and Dispose on each of
// the old branch's nodes, then builds a graph from the new branch's
// nodes. Switch does not itself unbind the old nodes' inputs; any
// unbinding happens only in those nodes' own Stop or Dispose.
type Switch struct {
	*node.BaseNode

	keyInput *tsvalue.TSValue // TS<string>
	build    BranchBuilder
	traits   map[string]string

	current      string
	currentGraph *graph.Graph
}

// NewSwitch builds a Switch selecting among branches named by keyInput's
// TS<string> value.
func NewSwitch(path string, keyInput *tsvalue.TSValue, traits map[string]string, build BranchBuilder) *Switch {
	return &Switch{
		BaseNode: node.NewBaseNode(path, 0),
		keyInput: keyInput,
		build:    build,
		traits:   traits,
	}
}

// Current reports the currently active branch name, or "" if none has
// been selected yet.
func (s *Switch) Current() string { return s.current }

func (s *Switch) Initialise() error { return nil }
func (s *Switch) Start() error      { return nil }
func (s *Switch) Stop() error       { return nil }
func (s *Switch) Dispose() error    { return nil }

func (s *Switch) Eval(ctx node.EvalContext) error {
	if s.keyInput.LastModifiedTime() == ctx.Time() {
		view := tsvalue.NewTSView(s.keyInput)
		raw, err := view.GetValue()
		if err != nil {
			return err
		}
		name, ok := value.As[string](raw)
		if !ok {
			return nil
		}
		if name != s.current || s.currentGraph == nil {
			if err := s.swapTo(name); err != nil {
				return err
			}
		}
	}

	if s.currentGraph == nil {
		return nil
	}
	if err := s.currentGraph.StepAt(ctx.Time()); err != nil {
		return err
	}
	if next := s.currentGraph.NextScheduledTime(); next != clock.MaxDT && next > ctx.Time() {
		return ctx.RescheduleAt(next)
	}
	return nil
}

func (s *Switch) swapTo(name string) error {
	if s.currentGraph != nil {
		for _, n := range s.currentGraph.Nodes() {
			n.Stop()
			n.Dispose()
		}
		s.currentGraph = nil
	}
	nodes, err := s.build(name)
	if err != nil {
		return err
	}
	s.currentGraph = graph.New(nodes, s.traits, s)
	s.current = name
	return nil
}
