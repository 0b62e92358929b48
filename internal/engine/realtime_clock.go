package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/hgraph-go/runtime/internal/clock"
)

// PushEvent is an externally-enqueued event awaiting the real-time
// clock's next tick boundary drain (spec §5: "the enqueue side is the
// only lock-taking operation in the core; the drain side runs on the
// engine thread").
type PushEvent struct {
	At    clock.EngineTime
	Apply func() error
}

// RealTimeClock tracks wall-clock time and a thread-safe push queue,
// draining enqueued events only at tick boundaries on the engine
// goroutine. Grounded on the teacher's channel-buffered ingestion idiom
// (indengine.Service.tfCandleCh) adapted to a mutex-guarded slice since
// push arrival here must also set SetPushHasPendingValues for the engine
// loop to observe without blocking on a channel receive.
type RealTimeClock struct {
	mu      sync.Mutex
	current clock.EngineTime
	queue   []PushEvent
	pending bool
}

// NewRealTimeClock starts the clock at the given wall-clock time.
func NewRealTimeClock(start time.Time) *RealTimeClock {
	return &RealTimeClock{current: clock.FromTime(start)}
}

func (c *RealTimeClock) EvaluationTime() clock.EngineTime {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *RealTimeClock) Now() clock.EngineTime {
	return clock.FromTime(time.Now())
}

func (c *RealTimeClock) NextScheduledEvaluationTime() clock.EngineTime {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return clock.MaxDT
	}
	min := c.queue[0].At
	for _, e := range c.queue[1:] {
		if e.At < min {
			min = e.At
		}
	}
	return min
}

func (c *RealTimeClock) SetPushHasPendingValues(pending bool) {
	c.mu.Lock()
	c.pending = pending
	c.mu.Unlock()
}

func (c *RealTimeClock) HasPendingPushValues() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *RealTimeClock) AdvanceTo(t clock.EngineTime) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.current {
		return fmt.Errorf("engine: RealTimeClock cannot move backward from %s to %s", c.current, t)
	}
	c.current = t
	return nil
}

// Push enqueues an external event. Safe for concurrent callers; the only
// lock-taking operation on the producer side (spec §5).
func (c *RealTimeClock) Push(ev PushEvent) {
	c.mu.Lock()
	c.queue = append(c.queue, ev)
	c.pending = true
	c.mu.Unlock()
}

// DrainDueAt removes and applies every queued event at or before t,
// called by the engine on its own goroutine at a tick boundary.
func (c *RealTimeClock) DrainDueAt(t clock.EngineTime) error {
	c.mu.Lock()
	var due []PushEvent
	var rest []PushEvent
	for _, e := range c.queue {
		if e.At <= t {
			due = append(due, e)
		} else {
			rest = append(rest, e)
		}
	}
	c.queue = rest
	c.pending = len(rest) > 0
	c.mu.Unlock()

	for _, e := range due {
		if e.Apply == nil {
			continue
		}
		if err := e.Apply(); err != nil {
			return err
		}
	}
	return nil
}
