// Package persist implements spec.md §6's "Persisted state (record/
// replay)": each recordable component writes entries keyed by its fully-
// qualified recordable id and engine time; a backend replays them back in
// order for restore or audit. Grounded on the teacher's store/redis and
// store/sqlite writer/reader pairs, generalised from "candles and
// indicator snapshots" to "one opaque payload per recordable id".
package persist

import (
	"context"

	"github.com/hgraph-go/runtime/internal/clock"
)

// Entry is one persisted record: the fully-qualified recordable id
// (internal/nested.FullyQualifiedRecordableID), the engine time it was
// written at, and an opaque payload the caller encodes/decodes (the
// engine core never names a serialization format, mirroring spec §6's
// foreign-interop boundary).
type Entry struct {
	RecordableID string
	At           clock.EngineTime
	Payload      []byte
}

// Backend is what internal/graphrun drives to record and replay entries. A
// backend is free to choose its own durability/latency tradeoff; the
// runtime core depends only on this interface.
type Backend interface {
	// Record appends one entry for a recordable id.
	Record(ctx context.Context, e Entry) error

	// Replay returns every entry for recordableID with At in [from, to],
	// ordered by At ascending.
	Replay(ctx context.Context, recordableID string, from, to clock.EngineTime) ([]Entry, error)

	// LastRecorded returns the engine time of the most recent entry for
	// recordableID, or clock.MinDT if none exists — used to resume
	// replay from the last checkpoint rather than from the beginning.
	LastRecorded(ctx context.Context, recordableID string) (clock.EngineTime, error)

	Close() error
}
