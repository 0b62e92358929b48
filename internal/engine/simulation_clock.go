// Package engine drives a graph to completion against a Clock (spec
// §4.7): SimulationClock advances purely by scheduled wake times,
// RealTimeClock additionally blocks on wall-clock time and an external
// push-input queue.
package engine

import (
	"fmt"

	"github.com/hgraph-go/runtime/internal/clock"
)

// SimulationClock advances only in response to scheduled evaluation
// times; Now() and EvaluationTime() coincide, since there is no wall-clock
// to diverge from.
type SimulationClock struct {
	current clock.EngineTime
	pending bool
}

// NewSimulationClock starts the clock at start.
func NewSimulationClock(start clock.EngineTime) *SimulationClock {
	return &SimulationClock{current: start}
}

func (c *SimulationClock) EvaluationTime() clock.EngineTime { return c.current }
func (c *SimulationClock) Now() clock.EngineTime            { return c.current }

// NextScheduledEvaluationTime is unused directly by SimulationClock; the
// engine asks the graph for this instead and calls AdvanceTo, since a
// simulation clock has no independent notion of "next" beyond the graph's
// schedule.
func (c *SimulationClock) NextScheduledEvaluationTime() clock.EngineTime { return clock.MaxDT }

func (c *SimulationClock) SetPushHasPendingValues(pending bool) { c.pending = pending }
func (c *SimulationClock) HasPendingPushValues() bool           { return c.pending }

func (c *SimulationClock) AdvanceTo(t clock.EngineTime) error {
	if t < c.current {
		return fmt.Errorf("engine: SimulationClock cannot move backward from %s to %s", c.current, t)
	}
	c.current = t
	return nil
}
