package value

import "strings"

// FieldMeta names one field of a bundle TypeMeta. Field order is fixed at
// construction and indexed access into a bundle Value is O(1) by that order.
type FieldMeta struct {
	Name string
	Type *TypeMeta
}

// TypeMeta is an immutable descriptor for one scalar or composite value
// type. Structurally identical TypeMetas share one pointer once interned by
// a TypeRegistry (see type_registry.go), so TypeMeta equality is pointer
// equality.
type TypeMeta struct {
	kind   Kind
	name   string
	size   uintptr
	align  uintptr
	fields []FieldMeta // bundle only
	elem   *TypeMeta   // list/set/window/queue/cyclic-buffer element
	key    *TypeMeta   // map key
	val    *TypeMeta   // map value
	vtable VTable

	// structural identity key, computed once at construction and used by
	// the registry to detect duplicates.
	structKey string
}

func (tm *TypeMeta) Kind() Kind       { return tm.kind }
func (tm *TypeMeta) Name() string     { return tm.name }
func (tm *TypeMeta) Size() uintptr    { return tm.size }
func (tm *TypeMeta) Align() uintptr   { return tm.align }
func (tm *TypeMeta) Elem() *TypeMeta  { return tm.elem }
func (tm *TypeMeta) Key() *TypeMeta   { return tm.key }
func (tm *TypeMeta) ValueType() *TypeMeta { return tm.val }
func (tm *TypeMeta) VTable() VTable   { return tm.vtable }

// Fields returns the bundle's field table. Callers must not mutate it.
func (tm *TypeMeta) Fields() []FieldMeta { return tm.fields }

// FieldIndex returns the slot index of a named bundle field, found by a
// linear scan of the field table, or -1.
func (tm *TypeMeta) FieldIndex(name string) int {
	for i, f := range tm.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// structuralKey builds the identity string the registry interns on: kind +
// recursive children + field names for bundles.
func structuralKey(kind Kind, name string, fields []FieldMeta, elem, key, val *TypeMeta) string {
	var b strings.Builder
	b.WriteString(kind.String())
	b.WriteByte(':')
	b.WriteString(name)
	if elem != nil {
		b.WriteString("|elem=")
		b.WriteString(elem.structKey)
	}
	if key != nil {
		b.WriteString("|key=")
		b.WriteString(key.structKey)
	}
	if val != nil {
		b.WriteString("|val=")
		b.WriteString(val.structKey)
	}
	if len(fields) > 0 {
		b.WriteString("|fields=")
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Name)
			b.WriteByte(':')
			b.WriteString(f.Type.structKey)
		}
	}
	return b.String()
}
