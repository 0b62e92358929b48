package graph

import (
	"container/heap"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/node"
)

// schedulerHeap is a min-heap over a Graph's nodes, ordered by wake time
// then node rank. Nodes track their own NextWakeTime (see
// internal/node.BaseNode); the heap is re-heapified on every drain since
// ScheduleAt/RescheduleAt mutate a node's wake time directly rather than
// through heap operations, matching the single-threaded cooperative model
// (no drain is interleaved with a mutation).
type schedulerHeap []node.Node

func (h schedulerHeap) Len() int { return len(h) }
func (h schedulerHeap) Less(i, j int) bool {
	wi, wj := h[i].NextWakeTime(), h[j].NextWakeTime()
	if wi != wj {
		return wi < wj
	}
	return h[i].Rank() < h[j].Rank()
}
func (h schedulerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *schedulerHeap) Push(x any)   { *h = append(*h, x.(node.Node)) }
func (h *schedulerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler is the min-heap of (wake_time, node) pairs a Graph drains at
// each tick (spec §4.6).
type Scheduler struct {
	heap schedulerHeap
}

// NewScheduler builds a Scheduler over nodes, in rank order initially.
func NewScheduler(nodes []node.Node) *Scheduler {
	s := &Scheduler{heap: append(schedulerHeap(nil), nodes...)}
	heap.Init(&s.heap)
	return s
}

// NextScheduledTime returns the earliest wake time among all nodes, or
// clock.MaxDT if none are scheduled.
func (s *Scheduler) NextScheduledTime() clock.EngineTime {
	heap.Init(&s.heap)
	if s.heap.Len() == 0 {
		return clock.MaxDT
	}
	return s.heap[0].NextWakeTime()
}

// DrainReadyAt pops and returns every node whose wake time equals t, in
// node-rank order, leaving nodes scheduled for other times untouched.
func (s *Scheduler) DrainReadyAt(t clock.EngineTime) []node.Node {
	heap.Init(&s.heap)
	var ready []node.Node
	for s.heap.Len() > 0 && s.heap[0].NextWakeTime() == t {
		n := heap.Pop(&s.heap).(node.Node)
		ready = append(ready, n)
	}
	return ready
}

// Requeue returns n to the heap, under its current (possibly just
// rescheduled) wake time.
func (s *Scheduler) Requeue(n node.Node) {
	heap.Push(&s.heap, n)
}
