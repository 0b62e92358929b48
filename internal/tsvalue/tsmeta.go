package tsvalue

import (
	"strings"
	"sync"

	"github.com/hgraph-go/runtime/internal/value"
)

// TSField names one field of a TSB (time-series bundle).
type TSField struct {
	Name string
	Meta *TSMeta
}

// TSMeta is an immutable descriptor of a time-series type, interned like
// value.TypeMeta so structurally identical TSMetas share one pointer.
type TSMeta struct {
	kind TSKind

	scalar   *value.TypeMeta // TS payload type; TSW element type; TSS element type
	elem     *TSMeta         // TSL element; TSD value type (nested, possibly composite)
	key      *value.TypeMeta // TSD key type
	fields   []TSField       // TSB only
	target   *TSMeta         // REF only: the type the reference points to
	capacity int             // TSW only

	structKey string
}

func (m *TSMeta) Kind() TSKind           { return m.kind }
func (m *TSMeta) ScalarType() *value.TypeMeta { return m.scalar }
func (m *TSMeta) Elem() *TSMeta          { return m.elem }
func (m *TSMeta) KeyType() *value.TypeMeta { return m.key }
func (m *TSMeta) Fields() []TSField      { return m.fields }
func (m *TSMeta) Target() *TSMeta        { return m.target }
func (m *TSMeta) Capacity() int          { return m.capacity }

func (m *TSMeta) FieldIndex(name string) int {
	for i, f := range m.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func structuralTSKey(kind TSKind, scalar *value.TypeMeta, elem *TSMeta, key *value.TypeMeta, fields []TSField, target *TSMeta, capacity int) string {
	var b strings.Builder
	b.WriteString(kind.String())
	if scalar != nil {
		b.WriteString("|scalar=")
		b.WriteString(scalar.Name())
	}
	if elem != nil {
		b.WriteString("|elem=")
		b.WriteString(elem.structKey)
	}
	if key != nil {
		b.WriteString("|key=")
		b.WriteString(key.Name())
	}
	if target != nil {
		b.WriteString("|target=")
		b.WriteString(target.structKey)
	}
	if capacity != 0 {
		b.WriteString("|cap=")
		b.WriteString(string(rune('0' + capacity%10)))
		b.WriteString(strings.Repeat("#", capacity/10))
	}
	if len(fields) > 0 {
		b.WriteString("|fields=")
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Name)
			b.WriteByte(':')
			b.WriteString(f.Meta.structKey)
		}
	}
	return b.String()
}

// TSTypeRegistry interns TSMeta descriptors by structural identity, mirroring
// value.TypeRegistry.
type TSTypeRegistry struct {
	mu    sync.RWMutex
	byKey map[string]*TSMeta
}

// GlobalTSRegistry is the process-wide TSTypeRegistry.
var GlobalTSRegistry = NewTSTypeRegistry()

func NewTSTypeRegistry() *TSTypeRegistry {
	return &TSTypeRegistry{byKey: make(map[string]*TSMeta)}
}

func (r *TSTypeRegistry) internOrReturn(key string, tm *TSMeta) *TSMeta {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byKey[key]; ok {
		return existing
	}
	r.byKey[key] = tm
	return tm
}

func (r *TSTypeRegistry) lookup(key string) (*TSMeta, bool) {
	r.mu.RLock()
	tm, ok := r.byKey[key]
	r.mu.RUnlock()
	return tm, ok
}

// InternScalar interns a TS(scalar) TSMeta over the given value type.
func (r *TSTypeRegistry) InternScalar(scalar *value.TypeMeta) *TSMeta {
	key := structuralTSKey(TS, scalar, nil, nil, nil, nil, 0)
	if tm, ok := r.lookup(key); ok {
		return tm
	}
	return r.internOrReturn(key, &TSMeta{kind: TS, scalar: scalar, structKey: key})
}

// InternSignal interns the unique SIGNAL TSMeta.
func (r *TSTypeRegistry) InternSignal() *TSMeta {
	key := structuralTSKey(SIGNAL, nil, nil, nil, nil, nil, 0)
	if tm, ok := r.lookup(key); ok {
		return tm
	}
	return r.internOrReturn(key, &TSMeta{kind: SIGNAL, structKey: key})
}

// InternSet interns a TSS TSMeta over the given element value type.
func (r *TSTypeRegistry) InternSet(elemValueType *value.TypeMeta) *TSMeta {
	key := structuralTSKey(TSS, elemValueType, nil, nil, nil, nil, 0)
	if tm, ok := r.lookup(key); ok {
		return tm
	}
	return r.internOrReturn(key, &TSMeta{kind: TSS, scalar: elemValueType, structKey: key})
}

// InternWindow interns a TSW TSMeta over the given element value type and
// fixed capacity.
func (r *TSTypeRegistry) InternWindow(elemValueType *value.TypeMeta, capacity int) *TSMeta {
	key := structuralTSKey(TSW, elemValueType, nil, nil, nil, nil, capacity)
	if tm, ok := r.lookup(key); ok {
		return tm
	}
	return r.internOrReturn(key, &TSMeta{kind: TSW, scalar: elemValueType, capacity: capacity, structKey: key})
}

// InternList interns a TSL TSMeta over the given nested element TSMeta.
func (r *TSTypeRegistry) InternList(elem *TSMeta) *TSMeta {
	key := structuralTSKey(TSL, nil, elem, nil, nil, nil, 0)
	if tm, ok := r.lookup(key); ok {
		return tm
	}
	return r.internOrReturn(key, &TSMeta{kind: TSL, elem: elem, structKey: key})
}

// InternDict interns a TSD TSMeta keyed by keyType, with nested per-key
// TSMeta valueMeta.
func (r *TSTypeRegistry) InternDict(keyType *value.TypeMeta, valueMeta *TSMeta) *TSMeta {
	key := structuralTSKey(TSD, nil, valueMeta, keyType, nil, nil, 0)
	if tm, ok := r.lookup(key); ok {
		return tm
	}
	return r.internOrReturn(key, &TSMeta{kind: TSD, key: keyType, elem: valueMeta, structKey: key})
}

// InternBundle interns a TSB TSMeta over the given ordered field table.
func (r *TSTypeRegistry) InternBundle(fields []TSField) *TSMeta {
	key := structuralTSKey(TSB, nil, nil, nil, fields, nil, 0)
	if tm, ok := r.lookup(key); ok {
		return tm
	}
	return r.internOrReturn(key, &TSMeta{kind: TSB, fields: append([]TSField(nil), fields...), structKey: key})
}

// InternRef interns a REF TSMeta pointing at target.
func (r *TSTypeRegistry) InternRef(target *TSMeta) *TSMeta {
	key := structuralTSKey(REF, nil, nil, nil, nil, target, 0)
	if tm, ok := r.lookup(key); ok {
		return tm
	}
	return r.internOrReturn(key, &TSMeta{kind: REF, target: target, structKey: key})
}
