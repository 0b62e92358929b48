package value

import "hash/maphash"

var seed = maphash.MakeSeed()

func hashString(s string) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteString(s)
	return h.Sum64()
}

func hashInt64(n int64) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	buf := [8]byte{
		byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24),
		byte(n >> 32), byte(n >> 40), byte(n >> 48), byte(n >> 56),
	}
	h.Write(buf[:])
	return h.Sum64()
}

// IntMeta is the interned TypeMeta for int64 scalars.
var IntMeta = mustRegisterScalar("int", 8, scalarVTable(
	func(a, b int64) bool { return a < b },
	hashInt64,
))

// FloatMeta is the interned TypeMeta for float64 scalars.
var FloatMeta = mustRegisterScalar("float", 8, scalarVTable(
	func(a, b float64) bool { return a < b },
	func(f float64) uint64 { return hashInt64(int64(f * 1e6)) },
))

// StringMeta is the interned TypeMeta for string scalars.
var StringMeta = mustRegisterScalar("string", 16, scalarVTable(
	func(a, b string) bool { return a < b },
	hashString,
))

// BoolMeta is the interned TypeMeta for bool scalars.
var BoolMeta = mustRegisterScalar("bool", 1, scalarVTable(
	func(a, b bool) bool { return !a && b },
	func(b bool) uint64 {
		if b {
			return 1
		}
		return 0
	},
))

func mustRegisterScalar(name string, size uintptr, vt VTable) *TypeMeta {
	tm, err := GlobalRegistry.InternScalar(name, size, vt)
	if err != nil {
		panic(err)
	}
	return tm
}
