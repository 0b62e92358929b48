package clock

// Clock is the interface both simulation and real-time clocks satisfy
// (spec §4.7): every variant exposes the current evaluation time, the
// wall-clock "now", the next time the clock itself has queued work for,
// and whether an out-of-band push arrived.
type Clock interface {
	// EvaluationTime returns the engine time currently being processed.
	EvaluationTime() EngineTime

	// Now returns the wall-clock-derived current time; for SimulationClock
	// this is simply EvaluationTime.
	Now() EngineTime

	// NextScheduledEvaluationTime returns the earliest time the clock has
	// queued work for, or MaxDT if none: SimulationClock always returns
	// MaxDT, RealTimeClock the time of its earliest queued push event.
	// Node wake times are held by the graph's scheduler, not the clock.
	NextScheduledEvaluationTime() EngineTime

	// SetPushHasPendingValues marks that an external push-input event is
	// waiting to be drained at the next tick boundary.
	SetPushHasPendingValues(pending bool)

	// HasPendingPushValues reports the flag set by SetPushHasPendingValues.
	HasPendingPushValues() bool

	// AdvanceTo moves the clock forward to t. Implementations must reject
	// t <= EvaluationTime() except when t == EvaluationTime() (a no-op).
	AdvanceTo(t EngineTime) error
}
