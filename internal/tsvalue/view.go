package tsvalue

import (
	"fmt"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/value"
)

// TSView is a read-only, kind-dispatched accessor over a TSValue (spec
// §4.3). Accessor methods that don't apply to the view's kind return an
// error rather than panicking, so a binding mismatch surfaces as a
// BindingError at the call site instead of crashing the engine.
type TSView struct {
	ts *TSValue
}

// NewTSView wraps ts for read access.
func NewTSView(ts *TSValue) TSView { return TSView{ts: ts} }

// Unwrap returns the underlying TSValue. Exported for internal/access and
// internal/node, which need the raw handle to build subscriptions and
// resolve REF targets; TSView itself stays read-only for ordinary callers.
func (v TSView) Unwrap() *TSValue { return v.ts }

func (v TSView) Meta() *TSMeta                      { return v.ts.meta }
func (v TSView) HasValue() bool                     { return v.ts.HasValue() }
func (v TSView) LastModifiedTime() clock.EngineTime { return v.ts.lastModified }

// GetValue returns the scalar payload (TS only).
func (v TSView) GetValue() (*value.Value, error) {
	if v.ts.meta.kind != TS {
		return nil, fmt.Errorf("tsvalue: GetValue requires TS, got %s", v.ts.meta.kind)
	}
	return &v.ts.val, nil
}

// Field returns the named child view (TSB only).
func (v TSView) Field(name string) (TSView, error) {
	if v.ts.meta.kind != TSB {
		return TSView{}, fmt.Errorf("tsvalue: Field requires TSB, got %s", v.ts.meta.kind)
	}
	idx := v.ts.meta.FieldIndex(name)
	if idx < 0 {
		return TSView{}, fmt.Errorf("tsvalue: no field %q on TSB", name)
	}
	return TSView{ts: v.ts.fieldValues[idx]}, nil
}

// At returns the i'th child view (TSL only).
func (v TSView) At(i int) (TSView, error) {
	if v.ts.meta.kind != TSL {
		return TSView{}, fmt.Errorf("tsvalue: At requires TSL, got %s", v.ts.meta.kind)
	}
	if i < 0 || i >= len(v.ts.listValues) {
		return TSView{}, fmt.Errorf("tsvalue: list index %d out of range (len %d)", i, len(v.ts.listValues))
	}
	return TSView{ts: v.ts.listValues[i]}, nil
}

// Size returns the element count for TSL/TSS/TSD/TSW.
func (v TSView) Size() int {
	switch v.ts.meta.kind {
	case TSL:
		return len(v.ts.listValues)
	case TSS:
		return v.ts.val.Len()
	case TSD:
		return len(v.ts.dictValues)
	case TSW:
		return v.ts.window.Size()
	default:
		return 0
	}
}

// ModifiedIndices returns the logical list positions touched this tick
// (TSL only).
func (v TSView) ModifiedIndices() []int {
	if v.ts.meta.kind != TSL || v.ts.listDelta == nil {
		return nil
	}
	return v.ts.listDelta.ModifiedIndices()
}

// Contains reports set membership (TSS only).
func (v TSView) Contains(elem value.Value) bool {
	if v.ts.meta.kind != TSS {
		return false
	}
	return v.ts.val.SetContains(elem)
}

// Added returns the set/dict slot indices added this tick (TSS/TSD).
func (v TSView) Added() []uint32 {
	switch v.ts.meta.kind {
	case TSS:
		return v.ts.setDelta.Added()
	case TSD:
		return v.ts.mapDelta.Added()
	default:
		return nil
	}
}

// Removed returns the set/dict slot indices removed this tick (TSS/TSD).
func (v TSView) Removed() []uint32 {
	switch v.ts.meta.kind {
	case TSS:
		return v.ts.setDelta.Removed()
	case TSD:
		return v.ts.mapDelta.Removed()
	default:
		return nil
	}
}

// UpdatedKeys returns the dict keys updated this tick (TSD only).
func (v TSView) UpdatedKeys() []uint32 {
	if v.ts.meta.kind != TSD {
		return nil
	}
	return v.ts.mapDelta.Updated()
}

// AtKey returns the nested TSView bound to key (TSD only).
func (v TSView) AtKey(key value.Value) (TSView, error) {
	if v.ts.meta.kind != TSD {
		return TSView{}, fmt.Errorf("tsvalue: AtKey requires TSD, got %s", v.ts.meta.kind)
	}
	ks, err := dictKeyString(&key)
	if err != nil {
		return TSView{}, err
	}
	child, ok := v.ts.dictValues[ks]
	if !ok {
		return TSView{}, fmt.Errorf("tsvalue: no such dict key")
	}
	return TSView{ts: child}, nil
}

// DictEntry pairs a TSD key with its slot index and child view, as
// returned by Keys.
type DictEntry struct {
	Slot  uint32
	Key   value.Value
	Child TSView
}

// Keys returns every current key of a TSD, resolving the slot indices
// Added/Removed/UpdatedKeys report back to key values and child views.
// Callers needing to react to a specific delta slot (internal/nested's
// map-over-keys and mesh nodes) build their own slot->entry index from
// this rather than tsvalue exposing one, since only those callers need
// it kept warm across a tick.
func (v TSView) Keys() []DictEntry {
	if v.ts.meta.kind != TSD {
		return nil
	}
	out := make([]DictEntry, 0, len(v.ts.dictValues))
	for ks, slot := range v.ts.dictSlots {
		out = append(out, DictEntry{
			Slot:  slot,
			Key:   v.ts.dictKeys[ks],
			Child: TSView{ts: v.ts.dictValues[ks]},
		})
	}
	return out
}

// Values returns an oldest-first snapshot of window elements (TSW only).
func (v TSView) Values() []value.Value {
	if v.ts.meta.kind != TSW {
		return nil
	}
	raw := v.ts.window.Values()
	out := make([]value.Value, len(raw))
	for i, r := range raw {
		out[i] = r.(value.Value)
	}
	return out
}

// Times returns the per-element modification times parallel to Values
// (TSW only).
func (v TSView) Times() []clock.EngineTime {
	if v.ts.meta.kind != TSW {
		return nil
	}
	raw := v.ts.windowTime.Values()
	out := make([]clock.EngineTime, len(raw))
	for i, r := range raw {
		out[i] = r.(clock.EngineTime)
	}
	return out
}

// Capacity returns the window's fixed capacity (TSW only).
func (v TSView) Capacity() int {
	if v.ts.meta.kind != TSW {
		return 0
	}
	return v.ts.window.Capacity()
}

// Target returns the view of the currently bound target output (REF only).
func (v TSView) Target() (TSView, error) {
	if v.ts.meta.kind != REF {
		return TSView{}, fmt.Errorf("tsvalue: Target requires REF, got %s", v.ts.meta.kind)
	}
	if v.ts.refTarget == nil {
		return TSView{}, fmt.Errorf("tsvalue: REF has no bound target")
	}
	return TSView{ts: v.ts.refTarget}, nil
}
