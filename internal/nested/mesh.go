package nested

import (
	"fmt"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/graph"
	"github.com/hgraph-go/runtime/internal/node"
	"github.com/hgraph-go/runtime/internal/tsvalue"
	"github.com/hgraph-go/runtime/internal/value"
)

// DependencyProvider reports which other keys a key's child graph reads
// from, so Mesh can order evaluation within a tick (spec §4.8). A key
// depending on another that isn't currently active is simply ignored —
// dependencies only constrain relative order among keys actually present
// this tick.
type DependencyProvider func(key value.Value) ([]value.Value, error)

// Mesh is a MapOverKeys with an additional directed dependency graph
// among its active keys, evaluated in dependency order within each tick
// and checked for cycles on every structural change (spec §4.8, §7:
// WiringError on "cycle in dependency graph of mesh keys").
type Mesh struct {
	*node.BaseNode

	source *tsvalue.TSValue
	build  ChildGraphBuilder
	depsOf DependencyProvider
	traits map[string]string

	children  map[uint32]*keyedChild
	keyToSlot map[string]uint32
}

// NewMesh builds a Mesh driven by source (a TSD output), using build to
// construct each key's child graph and depsOf to report its dependency
// keys.
func NewMesh(path string, source *tsvalue.TSValue, traits map[string]string, build ChildGraphBuilder, depsOf DependencyProvider) *Mesh {
	return &Mesh{
		BaseNode:  node.NewBaseNode(path, 0),
		source:    source,
		build:     build,
		depsOf:    depsOf,
		traits:    traits,
		children:  make(map[uint32]*keyedChild),
		keyToSlot: make(map[string]uint32),
	}
}

// meshKeyString mirrors internal/tsvalue's unexported dictKeyString so
// Mesh can index its own dependency bookkeeping by key without that
// package needing to export slot<->key plumbing beyond TSView.Keys.
func meshKeyString(k value.Value) (string, error) {
	foreign, err := k.ToForeign()
	if err != nil {
		return "", fmt.Errorf("nested: mesh key not convertible: %w", err)
	}
	return fmt.Sprintf("%v:%T", foreign, foreign), nil
}

func (m *Mesh) ActiveKeys() []value.Value {
	out := make([]value.Value, 0, len(m.children))
	for _, c := range m.children {
		out = append(out, c.key)
	}
	return out
}

func (m *Mesh) Initialise() error { return nil }
func (m *Mesh) Start() error      { return nil }
func (m *Mesh) Stop() error       { return nil }
func (m *Mesh) Dispose() error    { return nil }

func (m *Mesh) Eval(ctx node.EvalContext) error {
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
			// See MapOverKeys.Eval: a key's value this tick predates its
			// child nodes' subscriptions, so schedule them explicitly.
			for _, n := range nodes {
				n.ScheduleAt(int64(ctx.Time()))
			}
			m.children[slot] = &keyedChild{
				key:   entry.Key,
				graph: graph.New(nodes, m.traits, m),
			}
			ks, err := meshKeyString(entry.Key)
			if err != nil {
				return err
			}
			m.keyToSlot[ks] = slot
		}
	}

	for _, slot := range view.Removed() {
		c, ok := m.children[slot]
		if !ok {
			continue
		}
		for _, n := range c.graph.Nodes() {
			n.Stop()
			n.Dispose()
		}
		if ks, err := meshKeyString(c.key); err == nil {
			delete(m.keyToSlot, ks)
		}
		delete(m.children, slot)
	}

	order, err := m.topoOrder()
	if err != nil {
		return err
	}

	minNext := clock.MaxDT
	for _, slot := range order {
		c := m.children[slot]
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

// topoOrder returns the active slots in an order where every key
// precedes every key that depends on it, via depth-first postorder.
// Dependencies on inactive keys are ignored. A cycle among active keys
// is a WiringError.
func (m *Mesh) topoOrder() ([]uint32, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[uint32]int, len(m.children))
	var order []uint32

	var visit func(slot uint32) error
	visit = func(slot uint32) error {
		switch state[slot] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("nested: mesh dependency cycle detected at key %v", m.children[slot].key)
		}
		state[slot] = visiting
		c := m.children[slot]
		deps, err := m.depsOf(c.key)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			ks, err := meshKeyString(dep)
			if err != nil {
				return err
			}
			depSlot, active := m.keyToSlot[ks]
			if !active {
				continue
			}
			if err := visit(depSlot); err != nil {
				return err
			}
		}
		state[slot] = done
		order = append(order, slot)
		return nil
	}

	for slot := range m.children {
		if err := visit(slot); err != nil {
			return nil, err
		}
	}
	return order, nil
}
