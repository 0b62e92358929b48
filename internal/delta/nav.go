package delta

// BundleDeltaNav records which fixed-order field indices of a TSB
// (time-series bundle) were touched this tick, plus each touched field's
// own child delta (for composite fields). A bundle field position can be
// touched at most once per tick; re-writing it just keeps the field
// marked, matching last-write-wins semantics at the leaf level.
type BundleDeltaNav struct {
	touched map[int]struct{}
	child   map[int]any // per-field child delta, e.g. *SetDelta, *MapDelta, *ListDeltaNav
}

// NewBundleDeltaNav returns an empty BundleDeltaNav.
func NewBundleDeltaNav() *BundleDeltaNav {
	return &BundleDeltaNav{touched: make(map[int]struct{}), child: make(map[int]any)}
}

// MarkField records field index idx as touched this tick, attaching an
// optional child delta (nil for scalar fields, which carry no sub-delta).
func (d *BundleDeltaNav) MarkField(idx int, childDelta any) {
	d.touched[idx] = struct{}{}
	if childDelta != nil {
		d.child[idx] = childDelta
	}
}

// TouchedFields returns the field indices modified this tick.
func (d *BundleDeltaNav) TouchedFields() []int {
	out := make([]int, 0, len(d.touched))
	for i := range d.touched {
		out = append(out, i)
	}
	return out
}

// ChildDelta returns the child delta recorded for field idx, if any.
func (d *BundleDeltaNav) ChildDelta(idx int) (any, bool) {
	c, ok := d.child[idx]
	return c, ok
}

// IsEmpty reports whether no field was touched this tick.
func (d *BundleDeltaNav) IsEmpty() bool { return len(d.touched) == 0 }

// Clear resets the delta at the tick boundary.
func (d *BundleDeltaNav) Clear() {
	d.touched = make(map[int]struct{})
	d.child = make(map[int]any)
}

// ListDeltaNav records which logical list positions were touched this
// tick (inserted, erased, or had their element mutated), plus per-index
// child deltas for composite elements.
type ListDeltaNav struct {
	touched map[int]struct{}
	child   map[int]any
}

// NewListDeltaNav returns an empty ListDeltaNav.
func NewListDeltaNav() *ListDeltaNav {
	return &ListDeltaNav{touched: make(map[int]struct{}), child: make(map[int]any)}
}

// MarkIndex records logical index i as touched this tick.
func (d *ListDeltaNav) MarkIndex(i int, childDelta any) {
	d.touched[i] = struct{}{}
	if childDelta != nil {
		d.child[i] = childDelta
	}
}

// ModifiedIndices returns the logical indices touched this tick.
func (d *ListDeltaNav) ModifiedIndices() []int {
	out := make([]int, 0, len(d.touched))
	for i := range d.touched {
		out = append(out, i)
	}
	return out
}

// ChildDelta returns the child delta recorded for index i, if any.
func (d *ListDeltaNav) ChildDelta(i int) (any, bool) {
	c, ok := d.child[i]
	return c, ok
}

// IsEmpty reports whether no index was touched this tick.
func (d *ListDeltaNav) IsEmpty() bool { return len(d.touched) == 0 }

// Clear resets the delta at the tick boundary.
func (d *ListDeltaNav) Clear() {
	d.touched = make(map[int]struct{})
	d.child = make(map[int]any)
}
