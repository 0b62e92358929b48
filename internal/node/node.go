// Package node defines the graph vertex contract (spec §4.6): lifecycle
// methods called in a fixed order, a per-node scheduler record, and the
// output set the owning graph drains deltas from at tick boundaries.
package node

import (
	"fmt"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/tsvalue"
)

// LifecycleState is a node's position in its created/started/stopped/
// disposed lifecycle.
type LifecycleState int

const (
	Created LifecycleState = iota
	Started
	Stopped
	Disposed
)

func (s LifecycleState) String() string {
	switch s {
	case Created:
		return "created"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// EvalContext is the information the engine makes available to a node's
// Eval call: the current engine time and the node's own reschedule
// surface (spec Open Question 3: RescheduleNow vs RescheduleAt).
type EvalContext interface {
	Time() clock.EngineTime
	RescheduleNow() error
	RescheduleAt(t clock.EngineTime) error
}

// Node is a graph vertex. Implementations embed *BaseNode for the
// scheduling/lifecycle bookkeeping and supply Eval.
type Node interface {
	Path() string
	Rank() int
	SetRank(r int)

	Initialise() error
	Start() error
	Eval(ctx EvalContext) error
	Stop() error
	Dispose() error

	State() LifecycleState

	// ScheduleAt implements observer.Scheduler: the ObserverList of an
	// output the node is subscribed to calls this when that output is
	// notified.
	ScheduleAt(t int64)

	// NextWakeTime returns the earliest time this node is scheduled to
	// run, or clock.MaxDT if not scheduled.
	NextWakeTime() clock.EngineTime

	// ClearWake resets the scheduled-wake marker once the node has been
	// drained into a tick's ready list.
	ClearWake()

	// Outputs returns every TSValue this node owns as a producer, so the
	// owning graph can drain/clear deltas at the tick boundary.
	Outputs() []*tsvalue.TSValue
}

// BaseNode implements the scheduling and lifecycle bookkeeping every
// concrete node shares; it is embedded by builder-produced node types.
type BaseNode struct {
	path  string
	rank  int
	state LifecycleState

	wakeTime clock.EngineTime

	// rescheduleNowCount bounds same-tick self-reentry within one graph
	// tick to catch runaway loops (Open Question 3).
	rescheduleNowCount int
	maxRescheduleNow    int

	outputs []*tsvalue.TSValue
}

// NewBaseNode constructs a BaseNode at path with its rescheduleNow budget
// for catching same-tick runaway reentry (a value <= 0 selects the
// default budget of 1000).
func NewBaseNode(path string, maxRescheduleNow int) *BaseNode {
	if maxRescheduleNow <= 0 {
		maxRescheduleNow = 1000
	}
	return &BaseNode{path: path, wakeTime: clock.MaxDT, maxRescheduleNow: maxRescheduleNow}
}

// Base returns b itself; embedding *BaseNode promotes this method so the
// graph package can reach a concrete node's scheduling state generically.
func (b *BaseNode) Base() *BaseNode { return b }

func (b *BaseNode) Path() string  { return b.path }
func (b *BaseNode) Rank() int     { return b.rank }
func (b *BaseNode) SetRank(r int) { b.rank = r }
func (b *BaseNode) State() LifecycleState { return b.state }

// RegisterOutput adds ts to the set this node reports via Outputs().
func (b *BaseNode) RegisterOutput(ts *tsvalue.TSValue) {
	b.outputs = append(b.outputs, ts)
}

func (b *BaseNode) Outputs() []*tsvalue.TSValue { return b.outputs }

func (b *BaseNode) MarkInitialised() { b.state = Created }
func (b *BaseNode) MarkStarted()     { b.state = Started }
func (b *BaseNode) MarkStopped()     { b.state = Stopped }
func (b *BaseNode) MarkDisposed()    { b.state = Disposed }

// ScheduleAt implements observer.Scheduler. Idempotent: a later call for a
// time >= the currently pending wake time is a no-op (spec §4.5 rule 2);
// an earlier time replaces the pending one.
func (b *BaseNode) ScheduleAt(t int64) {
	et := clock.EngineTime(t)
	if et < b.wakeTime {
		b.wakeTime = et
	}
}

func (b *BaseNode) NextWakeTime() clock.EngineTime { return b.wakeTime }

func (b *BaseNode) ClearWake() {
	b.wakeTime = clock.MaxDT
	b.rescheduleNowCount = 0
}

// RescheduleNow requests re-evaluation within the current tick, bounded by
// the per-tick reentry counter.
func (b *BaseNode) RescheduleNow(current clock.EngineTime) error {
	b.rescheduleNowCount++
	if b.rescheduleNowCount > b.maxRescheduleNow {
		return fmt.Errorf("node %s: RescheduleNow exceeded %d same-tick reentries, suspected runaway loop", b.path, b.maxRescheduleNow)
	}
	b.wakeTime = current
	return nil
}

// RescheduleAt requests re-evaluation at a strictly future time. t ==
// current is rejected: only RescheduleNow may target the current tick
// (Open Question 3).
func (b *BaseNode) RescheduleAt(current, t clock.EngineTime) error {
	if t <= current {
		return fmt.Errorf("node %s: RescheduleAt(%d) must be strictly greater than current time %d; use RescheduleNow for same-tick reentry", b.path, t, current)
	}
	if t > clock.MaxDT {
		return fmt.Errorf("node %s: RescheduleAt(%d) exceeds MaxDT", b.path, t)
	}
	if t < b.wakeTime {
		b.wakeTime = t
	}
	return nil
}
