package tsvalue

import (
	"fmt"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/value"
)

// TSMutableView is the producer-side counterpart of TSView: a node writes
// through it during eval. Every mutator takes the current engine time and
// updates the value tree, time tree, and delta tree together, then
// notifies observers — preserving the central invariant that a non-empty
// delta for a slot implies time[slot] == t (spec §4.2/§4.3).
type TSMutableView struct {
	ts *TSValue
}

// NewTSMutableView wraps ts for write access.
func NewTSMutableView(ts *TSValue) TSMutableView { return TSMutableView{ts: ts} }

func (v TSMutableView) AsView() TSView { return TSView{ts: v.ts} }

// touch updates the time tree and fires observer notifications for this
// slot. Every mutator below calls this last, once its value/delta update
// is complete.
func (v TSMutableView) touch(t clock.EngineTime) {
	v.ts.lastModified = t
	v.ts.observers.Notify(int64(t))
}

// SetValue overwrites the scalar payload (TS only).
func (v TSMutableView) SetValue(t clock.EngineTime, scalar any) error {
	if v.ts.meta.kind != TS {
		return fmt.Errorf("tsvalue: SetValue requires TS, got %s", v.ts.meta.kind)
	}
	if err := v.ts.val.Emplace(scalar); err != nil {
		return err
	}
	v.touch(t)
	return nil
}

// CopyValue overwrites the scalar payload with an already-typed Value
// (TS only). Used where the caller holds a *value.Value from another
// TSValue of the same meta rather than a native Go scalar — e.g.
// internal/nested's TryExcept relaying a protected sub-graph's output to
// its own outer-visible slot.
func (v TSMutableView) CopyValue(t clock.EngineTime, src value.Value) error {
	if v.ts.meta.kind != TS {
		return fmt.Errorf("tsvalue: CopyValue requires TS, got %s", v.ts.meta.kind)
	}
	v.ts.val = src
	v.touch(t)
	return nil
}

// SetField writes through to a named child and marks the parent bundle's
// delta (TSB only).
func (v TSMutableView) SetField(t clock.EngineTime, name string, write func(TSMutableView) error) error {
	if v.ts.meta.kind != TSB {
		return fmt.Errorf("tsvalue: SetField requires TSB, got %s", v.ts.meta.kind)
	}
	idx := v.ts.meta.FieldIndex(name)
	if idx < 0 {
		return fmt.Errorf("tsvalue: no field %q on TSB", name)
	}
	child := v.ts.fieldValues[idx]
	if err := write(TSMutableView{ts: child}); err != nil {
		return err
	}
	v.ts.bundleDelta.MarkField(idx, nil)
	v.touch(t)
	return nil
}

// PushListElem appends a new child and marks the list delta (TSL only).
func (v TSMutableView) PushListElem(t clock.EngineTime, elemMeta *TSMeta, write func(TSMutableView) error) error {
	if v.ts.meta.kind != TSL {
		return fmt.Errorf("tsvalue: PushListElem requires TSL, got %s", v.ts.meta.kind)
	}
	child := New(elemMeta)
	if err := write(TSMutableView{ts: child}); err != nil {
		return err
	}
	idx := len(v.ts.listValues)
	v.ts.listValues = append(v.ts.listValues, child)
	v.ts.listDelta.MarkIndex(idx, nil)
	v.touch(t)
	return nil
}

// SetListElem writes through to an existing child and marks its index
// touched (TSL only).
func (v TSMutableView) SetListElem(t clock.EngineTime, i int, write func(TSMutableView) error) error {
	if v.ts.meta.kind != TSL {
		return fmt.Errorf("tsvalue: SetListElem requires TSL, got %s", v.ts.meta.kind)
	}
	if i < 0 || i >= len(v.ts.listValues) {
		return fmt.Errorf("tsvalue: list index %d out of range (len %d)", i, len(v.ts.listValues))
	}
	if err := write(TSMutableView{ts: v.ts.listValues[i]}); err != nil {
		return err
	}
	v.ts.listDelta.MarkIndex(i, nil)
	v.touch(t)
	return nil
}

// SetInsert adds elem to the set, recording the slot delta (TSS only).
func (v TSMutableView) SetInsert(t clock.EngineTime, elem value.Value) error {
	if v.ts.meta.kind != TSS {
		return fmt.Errorf("tsvalue: SetInsert requires TSS, got %s", v.ts.meta.kind)
	}
	if v.ts.val.Meta() == nil {
		v.ts.val = value.New(mustSetTypeMeta(v.ts.meta))
	}
	h, added := v.ts.val.SetInsert(elem)
	if added {
		v.ts.setDelta.MarkAdded(h.Index())
		v.touch(t)
	}
	return nil
}

// SetErase removes elem from the set, recording the slot delta (TSS only).
func (v TSMutableView) SetErase(t clock.EngineTime, elem value.Value) error {
	if v.ts.meta.kind != TSS {
		return fmt.Errorf("tsvalue: SetErase requires TSS, got %s", v.ts.meta.kind)
	}
	h, found := v.ts.val.SetErase(elem)
	if found {
		v.ts.setDelta.MarkRemoved(h.Index())
		v.touch(t)
	}
	return nil
}

// mustSetTypeMeta lazily builds the value.TypeMeta backing a TSS's
// underlying set Value, interned from the TSMeta's scalar element type.
func mustSetTypeMeta(meta *TSMeta) *value.TypeMeta {
	tm, err := value.GlobalRegistry.InternCollection(value.KindSet, meta.scalar, value.VTable{})
	if err != nil {
		panic(fmt.Sprintf("tsvalue: cannot build TSS backing type: %v", err))
	}
	return tm
}

// SetKey inserts or updates the nested child at key (TSD only). The
// supplied write func runs against the (possibly freshly created) child's
// mutable view.
func (v TSMutableView) SetKey(t clock.EngineTime, key value.Value, write func(TSMutableView) error) error {
	if v.ts.meta.kind != TSD {
		return fmt.Errorf("tsvalue: SetKey requires TSD, got %s", v.ts.meta.kind)
	}
	ks, err := dictKeyString(&key)
	if err != nil {
		return err
	}
	child, existed := v.ts.dictValues[ks]
	if !existed {
		child = New(v.ts.meta.elem)
		v.ts.dictValues[ks] = child
		v.ts.dictKeys[ks] = key
		v.ts.dictSlots[ks] = v.ts.nextSlot
		v.ts.nextSlot++
	}
	if err := write(TSMutableView{ts: child}); err != nil {
		return err
	}
	slot := v.ts.dictSlots[ks]
	if existed {
		v.ts.mapDelta.MarkUpdated(slot)
	} else {
		v.ts.mapDelta.MarkAdded(slot)
	}
	v.touch(t)
	return nil
}

// EraseKey removes the child at key (TSD only).
func (v TSMutableView) EraseKey(t clock.EngineTime, key value.Value) error {
	if v.ts.meta.kind != TSD {
		return fmt.Errorf("tsvalue: EraseKey requires TSD, got %s", v.ts.meta.kind)
	}
	ks, err := dictKeyString(&key)
	if err != nil {
		return err
	}
	slot, ok := v.ts.dictSlots[ks]
	if !ok {
		return nil
	}
	delete(v.ts.dictValues, ks)
	delete(v.ts.dictKeys, ks)
	delete(v.ts.dictSlots, ks)
	v.ts.mapDelta.MarkRemoved(slot)
	v.touch(t)
	return nil
}

// WindowPush appends a value to the window, evicting the oldest entry if
// full (TSW only). No delta is recorded: windows expose their full state
// via Values()/Times() rather than incremental deltas.
func (v TSMutableView) WindowPush(t clock.EngineTime, elem value.Value) error {
	if v.ts.meta.kind != TSW {
		return fmt.Errorf("tsvalue: WindowPush requires TSW, got %s", v.ts.meta.kind)
	}
	v.ts.window.Push(elem)
	v.ts.windowTime.Push(t)
	v.touch(t)
	return nil
}

// Bind rebinds a REF's target (REF only).
func (v TSMutableView) Bind(t clock.EngineTime, target *TSValue) error {
	if v.ts.meta.kind != REF {
		return fmt.Errorf("tsvalue: Bind requires REF, got %s", v.ts.meta.kind)
	}
	v.ts.refTarget = target
	v.touch(t)
	return nil
}

// Invalidate marks a signal (or any slot where only the timestamp matters)
// as touched at t without changing payload (SIGNAL only, though harmless
// on others).
func (v TSMutableView) Invalidate(t clock.EngineTime) {
	v.touch(t)
}

// ApplyDelta clears this slot's tick-scoped delta bookkeeping. Called by
// the engine at the transition between engine times (spec §4.2), not by
// node eval code.
func (v TSMutableView) ApplyDelta() {
	switch v.ts.meta.kind {
	case TSS:
		v.ts.setDelta.Clear()
	case TSB:
		v.ts.bundleDelta.Clear()
		for _, c := range v.ts.fieldValues {
			TSMutableView{ts: c}.ApplyDelta()
		}
	case TSL:
		v.ts.listDelta.Clear()
		for _, c := range v.ts.listValues {
			TSMutableView{ts: c}.ApplyDelta()
		}
	case TSD:
		v.ts.mapDelta.Clear()
		for _, c := range v.ts.dictValues {
			TSMutableView{ts: c}.ApplyDelta()
		}
	case TSW:
		v.ts.window.ClearEvicted()
	}
}
