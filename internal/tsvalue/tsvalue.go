package tsvalue

import (
	"fmt"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/delta"
	"github.com/hgraph-go/runtime/internal/observer"
	"github.com/hgraph-go/runtime/internal/value"
)

// TSValue holds the four parallel trees (value/time/observer/delta) for one
// time-series output slot, shaped to match its TSMeta. Storage is
// kind-specific, mirroring value.Value's dispatch style.
type TSValue struct {
	meta *TSMeta

	// TS / TSW / SIGNAL / REF: a single slot.
	val          value.Value
	lastModified clock.EngineTime
	observers    *observer.ObserverList
	refTarget    *TSValue // REF only: current bound target

	// TS / TSS / TSW also keep a scalar delta when scalar-kinded (SetDelta
	// for TSS, nil for plain TS/TSW which have no finer-grained delta).
	setDelta *delta.SetDelta // TSS only

	window     *value.CyclicBuffer // TSW values
	windowTime *value.CyclicBuffer // TSW per-slot times, parallel to window

	// TSB: fixed-order named children.
	fieldValues []*TSValue
	bundleDelta *delta.BundleDeltaNav

	// TSL: ordered children.
	listValues []*TSValue
	listDelta  *delta.ListDeltaNav

	// TSD: per-key nested children.
	dictValues map[string]*TSValue // serialized key -> child
	dictKeys   map[string]value.Value
	dictSlots  map[string]uint32 // serialized key -> stable slot index
	nextSlot   uint32
	mapDelta   *delta.MapDelta
}

// New constructs a fresh, unset TSValue of the given TSMeta, allocating
// kind-specific storage eagerly so its four trees exist from construction
// (spec: "A TSValue is created with its owning output and lives as long as
// the output").
func New(meta *TSMeta) *TSValue {
	ts := &TSValue{meta: meta, lastModified: clock.MinDT, observers: observer.NewObserverList()}
	switch meta.kind {
	case TS:
		ts.val = value.New(meta.scalar)
	case TSS:
		ts.setDelta = delta.NewSetDelta()
	case TSW:
		ts.window = value.NewCyclicBuffer(meta.capacity)
		ts.windowTime = value.NewCyclicBuffer(meta.capacity)
	case TSB:
		ts.fieldValues = make([]*TSValue, len(meta.fields))
		for i, f := range meta.fields {
			ts.fieldValues[i] = New(f.Meta)
		}
		ts.bundleDelta = delta.NewBundleDeltaNav()
	case TSL:
		ts.listDelta = delta.NewListDeltaNav()
	case TSD:
		ts.dictValues = make(map[string]*TSValue)
		ts.dictKeys = make(map[string]value.Value)
		ts.dictSlots = make(map[string]uint32)
		ts.mapDelta = delta.NewMapDelta()
	case REF, SIGNAL:
		// no value storage
	}
	return ts
}

func (ts *TSValue) Meta() *TSMeta                    { return ts.meta }
func (ts *TSValue) LastModifiedTime() clock.EngineTime { return ts.lastModified }
func (ts *TSValue) Observers() *observer.ObserverList { return ts.observers }

// HasValue reports whether this slot (or, for SIGNAL, the timestamp) has
// ever been set.
func (ts *TSValue) HasValue() bool {
	if ts.meta.kind == SIGNAL {
		return ts.lastModified != clock.MinDT
	}
	return ts.lastModified != clock.MinDT
}

// dictKeyString serializes a map key into a stable lookup string. Keys in
// TSD are restricted to the scalar kinds value.Value supports hashing/
// equality for, so this round-trips for the key types the runtime exposes.
func dictKeyString(k *value.Value) (string, error) {
	if k == nil || !k.HasValue() {
		return "", fmt.Errorf("tsvalue: TSD key must be a set value")
	}
	foreign, err := k.ToForeign()
	if err != nil {
		return "", fmt.Errorf("tsvalue: TSD key not convertible: %w", err)
	}
	return fmt.Sprintf("%v:%T", foreign, foreign), nil
}
