package engine

import (
	"testing"
	"time"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/graph"
	"github.com/hgraph-go/runtime/internal/node"
	"github.com/hgraph-go/runtime/internal/tsvalue"
	"github.com/hgraph-go/runtime/internal/value"
)

// countingNode increments evalCount every time it runs and optionally
// reschedules itself a fixed number of further ticks.
type countingNode struct {
	*node.BaseNode
	evalCount  int
	everyTicks clock.EngineTime
	stopAfter  int
}

func newCountingNode(path string, first, every clock.EngineTime) *countingNode {
	n := &countingNode{BaseNode: node.NewBaseNode(path, 0), everyTicks: every}
	n.ScheduleAt(int64(first))
	return n
}

func (n *countingNode) Initialise() error { return nil }
func (n *countingNode) Start() error      { return nil }
func (n *countingNode) Stop() error       { return nil }
func (n *countingNode) Dispose() error    { return nil }

func (n *countingNode) Eval(ctx node.EvalContext) error {
	n.evalCount++
	if n.stopAfter > 0 && n.evalCount >= n.stopAfter {
		return nil
	}
	if n.everyTicks > 0 {
		n.ScheduleAt(int64(ctx.Time() + n.everyTicks))
	}
	return nil
}

func TestEngineRunsSimulationClockToCompletion(t *testing.T) {
	n := newCountingNode("/n", 1, 1)
	n.stopAfter = 5
	g := graph.New([]node.Node{n}, nil, nil)
	e := New(NewSimulationClock(0), g)

	if err := e.Run(100); err != nil {
		t.Fatal(err)
	}
	if n.evalCount != 5 {
		t.Fatalf("evalCount = %d, want 5 (node should stop rescheduling itself after 5 evals)", n.evalCount)
	}
	if e.Clock().EvaluationTime() != 5 {
		t.Fatalf("clock stopped at %s, want 5", e.Clock().EvaluationTime())
	}
}

func TestEngineHonoursEndBound(t *testing.T) {
	n := newCountingNode("/n", 1, 1)
	g := graph.New([]node.Node{n}, nil, nil)
	e := New(NewSimulationClock(0), g)

	if err := e.Run(3); err != nil {
		t.Fatal(err)
	}
	if n.evalCount != 3 {
		t.Fatalf("evalCount = %d, want 3 (Run must not advance past end)", n.evalCount)
	}
}

func TestEngineStopsOnGraphRequestStop(t *testing.T) {
	n := newCountingNode("/n", 1, 1)
	g := graph.New([]node.Node{n}, nil, nil)
	e := New(NewSimulationClock(0), g)

	for i := 0; i < 2; i++ {
		if _, err := e.Step(100); err != nil {
			t.Fatal(err)
		}
	}
	g.RequestStop()
	more, err := e.Step(100)
	if err != nil {
		t.Fatal(err)
	}
	if more {
		t.Fatalf("Step returned more=true after RequestStop")
	}
	if n.evalCount != 2 {
		t.Fatalf("evalCount = %d, want 2 (no eval should run once stop is requested)", n.evalCount)
	}
}

func TestEngineRealTimeClockDrainsDuePushBeforeWallClock(t *testing.T) {
	rtc := NewRealTimeClock(time.Unix(0, 0))
	reg := tsvalue.NewTSTypeRegistry()
	meta := reg.InternScalar(value.IntMeta)
	out := tsvalue.New(meta)

	applied := false
	pushAt := clock.FromTime(time.Unix(0, 0).Add(10 * time.Millisecond))
	rtc.Push(PushEvent{
		At: pushAt,
		Apply: func() error {
			applied = true
			tsvalue.NewTSMutableView(out).SetValue(pushAt, int64(42))
			return nil
		},
	})

	g := graph.New(nil, nil, nil)
	e := New(rtc, g)
	e.RealtimeSleep = func(time.Duration) {}

	more, err := e.Step(clock.MaxDT)
	if err != nil {
		t.Fatal(err)
	}
	if !more {
		t.Fatalf("Step returned more=false, want true (a push event was due)")
	}
	if !applied {
		t.Fatalf("queued push event was not applied")
	}
	if rtc.HasPendingPushValues() {
		t.Fatalf("HasPendingPushValues still true after drain")
	}
	if rtc.EvaluationTime() != pushAt {
		t.Fatalf("EvaluationTime = %s, want %s", rtc.EvaluationTime(), pushAt)
	}
}

func TestEngineRealTimeClockIdleReturnsNoMoreWork(t *testing.T) {
	rtc := NewRealTimeClock(time.Unix(0, 0))
	g := graph.New(nil, nil, nil)
	e := New(rtc, g)

	more, err := e.Step(clock.MaxDT)
	if err != nil {
		t.Fatal(err)
	}
	if more {
		t.Fatalf("Step returned more=true with no nodes and no push events queued")
	}
}
