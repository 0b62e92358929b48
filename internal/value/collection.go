package value

import "fmt"

// --- Bundle ---

// InitBundle allocates the fixed-order field slots for a bundle Value.
func (v *Value) InitBundle() error {
	if v.meta == nil || (v.meta.kind != KindBundle && v.meta.kind != KindTuple) {
		return fmt.Errorf("value: InitBundle requires a bundle/tuple TypeMeta")
	}
	v.fields = make([]Value, len(v.meta.fields))
	for i, f := range v.meta.fields {
		v.fields[i] = New(f.Type)
	}
	v.hasValue = true
	return nil
}

// Field returns a pointer to the field slot at the TypeMeta-fixed index.
func (v *Value) Field(name string) (*Value, error) {
	idx := v.meta.FieldIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("value: no field %q on bundle %s", name, v.meta.name)
	}
	return &v.fields[idx], nil
}

// FieldAt returns a pointer to the field slot by fixed index.
func (v *Value) FieldAt(idx int) (*Value, error) {
	if idx < 0 || idx >= len(v.fields) {
		return nil, fmt.Errorf("value: bundle field index %d out of range", idx)
	}
	return &v.fields[idx], nil
}

// --- List ---

// Len returns the number of logical elements of a list/set/map/window.
func (v *Value) Len() int {
	switch v.meta.kind {
	case KindList, KindQueue:
		return len(v.list)
	case KindSet:
		return len(v.setElems)
	case KindMap:
		return len(v.mapVals)
	case KindWindow, KindCyclicBuffer:
		if v.window == nil {
			return 0
		}
		return v.window.Size()
	default:
		return 0
	}
}

// At returns the i'th element of a list or queue, in insertion order.
// Window and cyclic-buffer elements are not reachable through At (it
// reports the index out of range); they are read with WindowValues.
func (v *Value) At(i int) (*Value, error) {
	if i < 0 || i >= len(v.list) {
		return nil, fmt.Errorf("value: list index %d out of range (len %d)", i, len(v.list))
	}
	v.hasValue = true
	return &v.list[i], nil
}

// PushBack appends an element to a list.
func (v *Value) PushBack(elem Value) error {
	if v.meta.kind != KindList && v.meta.kind != KindQueue {
		return fmt.Errorf("value: PushBack requires a list/queue TypeMeta")
	}
	v.list = append(v.list, elem)
	v.hasValue = true
	return nil
}

// InsertAt inserts an element at the given logical index.
func (v *Value) InsertAt(i int, elem Value) error {
	if i < 0 || i > len(v.list) {
		return fmt.Errorf("value: InsertAt index %d out of range (len %d)", i, len(v.list))
	}
	v.list = append(v.list, Value{})
	copy(v.list[i+1:], v.list[i:])
	v.list[i] = elem
	v.hasValue = true
	return nil
}

// EraseAt removes the element at the given logical index.
func (v *Value) EraseAt(i int) error {
	if i < 0 || i >= len(v.list) {
		return fmt.Errorf("value: EraseAt index %d out of range (len %d)", i, len(v.list))
	}
	v.list = append(v.list[:i], v.list[i+1:]...)
	return nil
}

// Clear empties a collection value in place.
func (v *Value) Clear() {
	switch v.meta.kind {
	case KindList, KindQueue:
		v.list = nil
	case KindSet:
		v.slots = nil
		v.setElems = nil
	case KindMap:
		v.slots = nil
		v.mapKeys = nil
		v.mapVals = nil
	case KindWindow, KindCyclicBuffer:
		v.window = nil
	}
	v.hasValue = true
}

// --- Set ---

func (v *Value) ensureSet() {
	if v.slots == nil {
		v.slots = newSlotTable()
		v.setElems = make(map[uint32]Value)
	}
}

// SetInsert adds elem to a set, returning the slot handle and whether it
// was newly added (false if an equal element already occupied a slot).
func (v *Value) SetInsert(elem Value) (SlotHandle, bool) {
	v.ensureSet()
	for idx, existing := range v.setElems {
		if existing.Equal(&elem) {
			gen := v.slots.generations[idx]
			return SlotHandle{index: idx, generation: gen}, false
		}
	}
	h := v.slots.alloc()
	v.setElems[h.index] = elem
	v.hasValue = true
	return h, true
}

// SetContains reports whether elem is a member of the set.
func (v *Value) SetContains(elem Value) bool {
	for _, existing := range v.setElems {
		if existing.Equal(&elem) {
			return true
		}
	}
	return false
}

// SetErase removes elem from the set if present, returning its prior slot
// handle and whether it was found.
func (v *Value) SetErase(elem Value) (SlotHandle, bool) {
	for idx, existing := range v.setElems {
		if existing.Equal(&elem) {
			gen := v.slots.generations[idx]
			h := SlotHandle{index: idx, generation: gen}
			v.slots.release(h)
			delete(v.setElems, idx)
			return h, true
		}
	}
	return SlotHandle{}, false
}

// SetSlotValid reports whether h still identifies a live set member.
func (v *Value) SetSlotValid(h SlotHandle) bool {
	return v.slots != nil && v.slots.valid(h)
}

func copySetStorage(src *slotTable, elems map[uint32]Value) (*slotTable, map[uint32]Value) {
	if src == nil {
		return nil, nil
	}
	dstTable := &slotTable{
		generations: append([]uint32(nil), src.generations...),
		free:        append([]uint32(nil), src.free...),
	}
	dstElems := make(map[uint32]Value, len(elems))
	for k, v := range elems {
		dstElems[k] = v.Copy()
	}
	return dstTable, dstElems
}

// --- Map (TSD storage) ---

func (v *Value) ensureMap() {
	if v.slots == nil {
		v.slots = newSlotTable()
		v.mapKeys = make(map[uint32]Value)
		v.mapVals = make(map[uint32]Value)
	}
}

// findMapSlot returns the slot index holding key, or -1.
func (v *Value) findMapSlot(key Value) int {
	for idx, k := range v.mapKeys {
		if k.Equal(&key) {
			return int(idx)
		}
	}
	return -1
}

// SetKey inserts or updates the value at key, returning the slot handle and
// whether this was a fresh insertion (false means an update).
func (v *Value) SetKey(key, val Value) (SlotHandle, bool) {
	v.ensureMap()
	if idx := v.findMapSlot(key); idx >= 0 {
		h := SlotHandle{index: uint32(idx), generation: v.slots.generations[idx]}
		v.mapVals[uint32(idx)] = val
		return h, false
	}
	h := v.slots.alloc()
	v.mapKeys[h.index] = key
	v.mapVals[h.index] = val
	v.hasValue = true
	return h, true
}

// AtKey returns the value stored at key, if present.
func (v *Value) AtKey(key Value) (*Value, bool) {
	idx := v.findMapSlot(key)
	if idx < 0 {
		return nil, false
	}
	out := v.mapVals[uint32(idx)]
	return &out, true
}

// EraseKey removes key's slot, returning its handle and whether found.
func (v *Value) EraseKey(key Value) (SlotHandle, bool) {
	idx := v.findMapSlot(key)
	if idx < 0 {
		return SlotHandle{}, false
	}
	h := SlotHandle{index: uint32(idx), generation: v.slots.generations[idx]}
	v.slots.release(h)
	delete(v.mapKeys, uint32(idx))
	delete(v.mapVals, uint32(idx))
	return h, true
}

// Keys returns a snapshot of all live keys.
func (v *Value) Keys() []Value {
	out := make([]Value, 0, len(v.mapKeys))
	for _, k := range v.mapKeys {
		out = append(out, k)
	}
	return out
}

func copyMapStorage(src *slotTable, keys, vals map[uint32]Value) (*slotTable, map[uint32]Value, map[uint32]Value) {
	if src == nil {
		return nil, nil, nil
	}
	dstTable := &slotTable{
		generations: append([]uint32(nil), src.generations...),
		free:        append([]uint32(nil), src.free...),
	}
	dstKeys := make(map[uint32]Value, len(keys))
	for k, v := range keys {
		dstKeys[k] = v.Copy()
	}
	dstVals := make(map[uint32]Value, len(vals))
	for k, v := range vals {
		dstVals[k] = v.Copy()
	}
	return dstTable, dstKeys, dstVals
}

// --- Window ---

// InitWindow allocates the cyclic-buffer backing store for a window value.
func (v *Value) InitWindow(capacity int) error {
	if v.meta == nil || (v.meta.kind != KindWindow && v.meta.kind != KindCyclicBuffer) {
		return fmt.Errorf("value: InitWindow requires a window/cyclic-buffer TypeMeta")
	}
	v.window = NewCyclicBuffer(capacity)
	v.hasValue = true
	return nil
}

// WindowPush appends to the window, evicting the oldest entry if full.
func (v *Value) WindowPush(elem Value) {
	if v.window == nil {
		v.window = NewCyclicBuffer(1)
	}
	v.window.Push(elem)
	v.hasValue = true
}

// WindowValues returns an oldest-first snapshot of window elements.
func (v *Value) WindowValues() []Value {
	if v.window == nil {
		return nil
	}
	raw := v.window.Values()
	out := make([]Value, len(raw))
	for i, r := range raw {
		out[i] = r.(Value)
	}
	return out
}

// WindowLastEvicted returns the most recently evicted element, if any.
func (v *Value) WindowLastEvicted() (Value, bool) {
	if v.window == nil {
		return Value{}, false
	}
	raw, ok := v.window.LastEvicted()
	if !ok {
		return Value{}, false
	}
	return raw.(Value), true
}
