package engine

import (
	"fmt"
	"time"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/graph"
)

// Engine drives a Graph against a Clock until its end time or a
// cooperative stop request, per spec §4.7. Grounded on
// indengine.Service.Run's loop shape (advance, drain ready, check stop,
// repeat) but generalised over SimulationClock and RealTimeClock instead
// of being specific to one data source.
type Engine struct {
	clock clock.Clock
	graph *graph.Graph

	// RealtimeSleep lets tests replace the wall-clock wait with a no-op or
	// short delay; nil uses time.Sleep. Only consulted when clock is a
	// *RealTimeClock and the next scheduled time is in the future.
	RealtimeSleep func(d time.Duration)
}

// New wires a clock and graph into a runnable Engine.
func New(c clock.Clock, g *graph.Graph) *Engine {
	return &Engine{clock: c, graph: g}
}

func (e *Engine) Clock() clock.Clock { return e.clock }
func (e *Engine) Graph() *graph.Graph { return e.graph }

// Step advances to the next due time (min of the graph's next scheduled
// node and, for a RealTimeClock, the next queued push event or wall
// clock), evaluates the resulting ready set, and reports whether any
// work was due before end. A false, nil return means the engine is idle
// past end and the caller should stop calling Step.
func (e *Engine) Step(end clock.EngineTime) (bool, error) {
	if e.graph.StopRequested() {
		return false, nil
	}

	next := e.graph.NextScheduledTime()

	if rtc, ok := e.clock.(*RealTimeClock); ok {
		if pushNext := rtc.NextScheduledEvaluationTime(); pushNext < next {
			next = pushNext
		}
		if next == clock.MaxDT {
			return false, nil
		}
		if next > end {
			return false, nil
		}
		if wallNow := rtc.Now(); wallNow < next {
			wait := next.AsTime().Sub(wallNow.AsTime())
			if wait > 0 {
				if e.RealtimeSleep != nil {
					e.RealtimeSleep(wait)
				} else {
					time.Sleep(wait)
				}
			}
		}
		if err := e.clock.AdvanceTo(next); err != nil {
			return false, fmt.Errorf("engine: advance to %s: %w", next, err)
		}
		if err := rtc.DrainDueAt(next); err != nil {
			return false, fmt.Errorf("engine: drain push queue at %s: %w", next, err)
		}
		if err := e.graph.StepAt(next); err != nil {
			return false, err
		}
		return true, nil
	}

	if next == clock.MaxDT || next > end {
		return false, nil
	}
	if err := e.clock.AdvanceTo(next); err != nil {
		return false, fmt.Errorf("engine: advance to %s: %w", next, err)
	}
	if err := e.graph.StepAt(next); err != nil {
		return false, err
	}
	return true, nil
}

// Run drives Step until no work remains at or before end, or the graph's
// cooperative stop flag is set.
func (e *Engine) Run(end clock.EngineTime) error {
	for {
		more, err := e.Step(end)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}
