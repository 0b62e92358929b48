package value

// VTable is the per-type table of pure operations a TypeMeta dispatches
// through. Every op must be side-effect free except the foreign-interop
// pair, which may allocate while crossing the embedding boundary.
type VTable struct {
	Construct   func() any
	Copy        func(any) any
	Equal       func(a, b any) bool
	Less        func(a, b any) bool
	Hash        func(any) uint64
	ToForeign   func(any) (any, error)
	FromForeign func(any) (any, error)
}

func scalarVTable[T comparable](less func(a, b T) bool, hash func(T) uint64) VTable {
	return VTable{
		Construct: func() any { var zero T; return zero },
		Copy:      func(v any) any { return v },
		Equal: func(a, b any) bool {
			ta, ok1 := a.(T)
			tb, ok2 := b.(T)
			return ok1 && ok2 && ta == tb
		},
		Less: func(a, b any) bool {
			ta, _ := a.(T)
			tb, _ := b.(T)
			if less != nil {
				return less(ta, tb)
			}
			return false
		},
		Hash: func(v any) uint64 {
			tv, _ := v.(T)
			if hash != nil {
				return hash(tv)
			}
			return 0
		},
		ToForeign:   func(v any) (any, error) { return v, nil },
		FromForeign: func(v any) (any, error) { return v, nil },
	}
}
