// Package graph implements the ranked node sequence and tick-drive loop
// described in spec §4.6: draining ready nodes in rank order, evaluating
// them, and clearing deltas at the tick boundary.
package graph

import (
	"fmt"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/node"
	"github.com/hgraph-go/runtime/internal/tsvalue"
)

// StepError reports a node eval failure with enough context for a
// try/except boundary (or the top-level caller) to attribute it: the
// offending node's path, the engine time of the attempt, and the
// underlying cause.
type StepError struct {
	Path string
	Time clock.EngineTime
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("graph: node %s eval at %s: %v", e.Path, e.Time, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Graph is an ordered sequence of nodes sharing an engine clock, a traits
// map inherited by nested graphs, and an optional parent node (non-nil
// for nested graphs, per spec §3).
type Graph struct {
	nodes     []node.Node
	scheduler *Scheduler
	traits    map[string]string
	parent    node.Node

	allOutputs []*tsvalue.TSValue
	lastTick   clock.EngineTime
	haveTick   bool

	stopRequested bool
}

// New builds a Graph over nodes, assigning rank = slice position unless
// the caller has already set ranks (e.g. via a topological sort).
func New(nodes []node.Node, traits map[string]string, parent node.Node) *Graph {
	if traits == nil {
		traits = make(map[string]string)
	}
	var outputs []*tsvalue.TSValue
	for i, n := range nodes {
		if n.Rank() == 0 {
			n.SetRank(i)
		}
		outputs = append(outputs, n.Outputs()...)
	}
	return &Graph{
		nodes:      nodes,
		scheduler:  NewScheduler(nodes),
		traits:     traits,
		parent:     parent,
		allOutputs: outputs,
		lastTick:   clock.MinDT,
	}
}

func (g *Graph) Nodes() []node.Node          { return g.nodes }
func (g *Graph) Trait(key string) (string, bool) {
	v, ok := g.traits[key]
	return v, ok
}
func (g *Graph) Parent() node.Node { return g.parent }

// RequestStop sets the cooperative stop flag checked between ticks.
func (g *Graph) RequestStop() { g.stopRequested = true }

// StopRequested reports whether RequestStop has been called.
func (g *Graph) StopRequested() bool { return g.stopRequested }

// NextScheduledTime returns the earliest wake time across all nodes, or
// clock.MaxDT if nothing is scheduled.
func (g *Graph) NextScheduledTime() clock.EngineTime {
	return g.scheduler.NextScheduledTime()
}

// evalContext is the concrete node.EvalContext the graph hands to Eval.
type evalContext struct {
	time clock.EngineTime
	base *node.BaseNode
}

func (c *evalContext) Time() clock.EngineTime { return c.time }
func (c *evalContext) RescheduleNow() error   { return c.base.RescheduleNow(c.time) }
func (c *evalContext) RescheduleAt(t clock.EngineTime) error {
	return c.base.RescheduleAt(c.time, t)
}

// nodeWithBase lets the graph reach into a node's embedded *BaseNode to
// build its EvalContext; concrete node types satisfy this alongside
// node.Node by embedding *node.BaseNode.
type nodeWithBase interface {
	Base() *node.BaseNode
}

// StepAt evaluates every node whose wake time equals t (spec §4.6 loop
// steps 1-4). The caller (internal/engine) is responsible for having
// already advanced the clock to t. StepAt performs the tick-boundary
// delta clear itself before running t's ready list whenever t differs
// from the previously evaluated tick.
func (g *Graph) StepAt(t clock.EngineTime) error {
	if !g.haveTick || t != g.lastTick {
		for _, o := range g.allOutputs {
			tsvalue.NewTSMutableView(o).ApplyDelta()
		}
		g.lastTick = t
		g.haveTick = true
	}

	ready := g.scheduler.DrainReadyAt(t)
	for _, n := range ready {
		nb, ok := n.(nodeWithBase)
		if !ok {
			return fmt.Errorf("graph: node %s does not embed *node.BaseNode", n.Path())
		}
		// ClearWake must run before Eval: Eval may call ScheduleAt (directly,
		// or via RescheduleNow/RescheduleAt) to set this tick's or a future
		// wake time, and BaseNode.ScheduleAt only lowers an existing
		// wakeTime, so clearing after Eval would stomp whatever Eval just
		// set back to MaxDT.
		n.ClearWake()
		ctx := &evalContext{time: t, base: nb.Base()}
		if err := n.Eval(ctx); err != nil {
			return &StepError{Path: n.Path(), Time: t, Err: err}
		}
		g.scheduler.Requeue(n)
	}
	return nil
}
