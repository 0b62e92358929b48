package nested

import (
	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/graph"
	"github.com/hgraph-go/runtime/internal/node"
	"github.com/hgraph-go/runtime/internal/tsvalue"
	"github.com/hgraph-go/runtime/internal/value"
)

// ChildGraphBuilder constructs the nodes of a per-key child graph given
// that key's value and the TSD's child TSValue carrying its stream (the
// dict already owns one TSValue per key — see internal/tsvalue's
// dictValues — so no separate adapter slot is needed).
type ChildGraphBuilder func(key value.Value, input *tsvalue.TSValue) ([]node.Node, error)

type keyedChild struct {
	key   value.Value
	graph *graph.Graph
}

// MapOverKeys maintains one child graph per key of a TSD input, adding
// and removing child graphs in response to the TSD's key-set delta (spec
// §4.8). Grounded on the teacher's per-token lazy state maps
// (internal/indicator.Engine.state[tfIdx][tokenKey]), generalised from
// "map of indicator state" to "map of child graph".
type MapOverKeys struct {
	*node.BaseNode

	source *tsvalue.TSValue
	build  ChildGraphBuilder
	traits map[string]string

	children map[uint32]*keyedChild
}

// NewMapOverKeys builds a MapOverKeys node driven by source (a TSD
// output), calling build to construct each newly-seen key's child graph.
func NewMapOverKeys(path string, source *tsvalue.TSValue, traits map[string]string, build ChildGraphBuilder) *MapOverKeys {
	return &MapOverKeys{
		BaseNode: node.NewBaseNode(path, 0),
		source:   source,
		build:    build,
		traits:   traits,
		children: make(map[uint32]*keyedChild),
	}
}

// ActiveKeys returns the keys currently backed by a live child graph,
// for tests and introspection.
func (m *MapOverKeys) ActiveKeys() []value.Value {
	out := make([]value.Value, 0, len(m.children))
	for _, c := range m.children {
		out = append(out, c.key)
	}
	return out
}

func (m *MapOverKeys) Initialise() error { return nil }
func (m *MapOverKeys) Start() error      { return nil }
func (m *MapOverKeys) Stop() error       { return nil }
func (m *MapOverKeys) Dispose() error    { return nil }

func (m *MapOverKeys) Eval(ctx node.EvalContext) error {
	view := tsvalue.NewTSView(m.source)

	if added := view.Added(); len(added) > 0 {
		bySlot := make(map[uint32]tsvalue.DictEntry, len(added))
		for _, e := range view.Keys() {
			bySlot[e.Slot] = e
		}
		for _, slot := range added {
			entry, ok := bySlot[slot]
			if !ok {
				continue
			}
			nodes, err := m.build(entry.Key, entry.Child.Unwrap())
			if err != nil {
				return err
			}
			// A key appearing this tick carries a value set this same
			// tick, already missed by any subscription its child nodes
			// establish during construction (the notify fired before they
			// existed to observe it). Schedule them explicitly so the
			// child graph's first step sees that value rather than
			// waiting for the key's next change.
			for _, n := range nodes {
				n.ScheduleAt(int64(ctx.Time()))
			}
			m.children[slot] = &keyedChild{
				key:   entry.Key,
				graph: graph.New(nodes, m.traits, m),
			}
		}
	}

	// Removed children are stopped and disposed before any further node
	// in this tick's ready list runs, which the single-threaded
	// cooperative eval loop (spec §5) guarantees structurally: this Eval
	// call runs to completion, synchronously, before the outer graph
	// advances to its next ready node.
	for _, slot := range view.Removed() {
		c, ok := m.children[slot]
		if !ok {
			continue
		}
		for _, n := range c.graph.Nodes() {
			n.Stop()
			n.Dispose()
		}
		delete(m.children, slot)
	}

	minNext := clock.MaxDT
	for _, c := range m.children {
		if err := c.graph.StepAt(ctx.Time()); err != nil {
			return err
		}
		if nx := c.graph.NextScheduledTime(); nx < minNext {
			minNext = nx
		}
	}
	if minNext != clock.MaxDT && minNext > ctx.Time() {
		return ctx.RescheduleAt(minNext)
	}
	return nil
}
