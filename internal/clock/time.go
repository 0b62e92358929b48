// Package clock defines the engine's notion of time — the microsecond-
// resolution logical clock that drives graph evaluation — independent of
// the node/graph/engine machinery that consumes it, so lower layers
// (internal/tsvalue, internal/access) can depend on it without pulling in
// the evaluation loop.
package clock

import "time"

// EngineTime is a microsecond-resolution logical timestamp. It is the unit
// of wake times, last-modified times, and tick boundaries throughout the
// runtime.
type EngineTime int64

// FromTime converts a wall-clock time.Time to EngineTime at microsecond
// resolution, the representation real-time clocks use at the push-input
// boundary.
func FromTime(t time.Time) EngineTime {
	return EngineTime(t.UnixMicro())
}

// AsTime converts an EngineTime back to a wall-clock time.Time.
func (t EngineTime) AsTime() time.Time {
	return time.UnixMicro(int64(t))
}

func (t EngineTime) String() string {
	return t.AsTime().UTC().Format("2006-01-02T15:04:05.000000Z")
}

const (
	// MinTD is the smallest representable time increment: one clock tick.
	MinTD EngineTime = 1

	// MinDT marks "never evaluated" — strictly before any real tick.
	MinDT EngineTime = -(1 << 62)

	// MaxDT marks "disposed/terminal" — strictly after any real tick.
	MaxDT EngineTime = 1<<62 - 1
)
