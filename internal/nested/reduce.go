package nested

import (
	"sort"

	"github.com/hgraph-go/runtime/internal/node"
	"github.com/hgraph-go/runtime/internal/tsvalue"
	"github.com/hgraph-go/runtime/internal/value"
)

// ReduceOp combines an accumulator with one element's value.
type ReduceOp func(acc, elem value.Value) (value.Value, error)

// Reduce folds a TSD input over an associative operator (spec §4.8). A
// pure value update (no key added or removed this tick) is applied as a
// single O(log n) point-update against a binary reduction tree rather
// than a full O(n) re-fold; adding or removing a key rebuilds the tree,
// since the array layout backing it shifts.
type Reduce struct {
	*node.BaseNode

	source *tsvalue.TSValue
	op     ReduceOp
	zero   value.Value
	out    *tsvalue.TSValue

	slots     []uint32       // leaf order
	slotIndex map[uint32]int // slot -> leaf index
	tree      []value.Value  // iterative segment tree, 1-indexed, size 2*len(slots)
}

// NewReduce builds a Reduce node over source (a TSD output), combining
// every element with op starting from zero, and publishing the running
// total to a freshly allocated TS output of zero's TSMeta.
func NewReduce(path string, source *tsvalue.TSValue, zero value.Value, op ReduceOp, outMeta *tsvalue.TSMeta) *Reduce {
	r := &Reduce{
		BaseNode:  node.NewBaseNode(path, 0),
		source:    source,
		op:        op,
		zero:      zero,
		out:       tsvalue.New(outMeta),
		slotIndex: make(map[uint32]int),
	}
	r.RegisterOutput(r.out)
	return r
}

func (r *Reduce) Out() *tsvalue.TSValue { return r.out }

func (r *Reduce) Initialise() error { return nil }
func (r *Reduce) Start() error      { return nil }
func (r *Reduce) Stop() error       { return nil }
func (r *Reduce) Dispose() error    { return nil }

func (r *Reduce) Eval(ctx node.EvalContext) error {
	view := tsvalue.NewTSView(r.source)
	added := view.Added()
	removed := view.Removed()
	updated := view.UpdatedKeys()

	if len(added) > 0 || len(removed) > 0 {
		if err := r.rebuild(view); err != nil {
			return err
		}
	} else if len(updated) > 0 {
		bySlot := make(map[uint32]tsvalue.TSView, len(updated))
		for _, e := range view.Keys() {
			bySlot[e.Slot] = e.Child
		}
		for _, slot := range updated {
			if err := r.pointUpdate(bySlot, slot); err != nil {
				return err
			}
		}
	}

	total := r.zero
	if len(r.tree) > 1 {
		total = r.tree[1]
	}
	return tsvalue.NewTSMutableView(r.out).CopyValue(ctx.Time(), total)
}

// rebuild recomputes the leaf order and the whole segment tree from the
// TSD's current key set.
func (r *Reduce) rebuild(view tsvalue.TSView) error {
	entries := view.Keys()
	r.slots = make([]uint32, len(entries))
	r.slotIndex = make(map[uint32]int, len(entries))
	leaves := make([]value.Value, len(entries))
	for i, e := range entries {
		val, err := e.Child.GetValue()
		if err != nil {
			return err
		}
		r.slots[i] = e.Slot
		r.slotIndex[e.Slot] = i
		leaves[i] = *val
	}
	return r.buildTree(leaves)
}

func (r *Reduce) buildTree(leaves []value.Value) error {
	n := len(leaves)
	r.tree = make([]value.Value, 2*n)
	if n == 0 {
		return nil
	}
	for i, v := range leaves {
		r.tree[n+i] = v
	}
	for i := n - 1; i >= 1; i-- {
		combined, err := r.op(r.tree[2*i], r.tree[2*i+1])
		if err != nil {
			return err
		}
		r.tree[i] = combined
	}
	return nil
}

func (r *Reduce) pointUpdate(bySlot map[uint32]tsvalue.TSView, slot uint32) error {
	idx, ok := r.slotIndex[slot]
	if !ok {
		return nil
	}
	child, ok := bySlot[slot]
	if !ok {
		return nil
	}
	val, err := child.GetValue()
	if err != nil {
		return err
	}
	n := len(r.slots)
	i := n + idx
	r.tree[i] = *val
	for i > 1 {
		i /= 2
		combined, err := r.op(r.tree[2*i], r.tree[2*i+1])
		if err != nil {
			return err
		}
		r.tree[i] = combined
	}
	return nil
}

// NonAssociativeReduce folds a TSD input left-to-right in slot-insertion
// order. Order-sensitive operators admit no sub-linear incremental
// update in general — changing any one element can change everything
// after it — so every delta triggers a full re-fold, unlike Reduce's
// O(log n) point update.
type NonAssociativeReduce struct {
	*node.BaseNode

	source *tsvalue.TSValue
	op     ReduceOp
	zero   value.Value
	out    *tsvalue.TSValue
}

// NewNonAssociativeReduce builds a NonAssociativeReduce over source.
func NewNonAssociativeReduce(path string, source *tsvalue.TSValue, zero value.Value, op ReduceOp, outMeta *tsvalue.TSMeta) *NonAssociativeReduce {
	r := &NonAssociativeReduce{
		BaseNode: node.NewBaseNode(path, 0),
		source:   source,
		op:       op,
		zero:     zero,
		out:      tsvalue.New(outMeta),
	}
	r.RegisterOutput(r.out)
	return r
}

func (r *NonAssociativeReduce) Out() *tsvalue.TSValue { return r.out }

func (r *NonAssociativeReduce) Initialise() error { return nil }
func (r *NonAssociativeReduce) Start() error      { return nil }
func (r *NonAssociativeReduce) Stop() error       { return nil }
func (r *NonAssociativeReduce) Dispose() error    { return nil }

func (r *NonAssociativeReduce) Eval(ctx node.EvalContext) error {
	view := tsvalue.NewTSView(r.source)
	entries := view.Keys()

	// Fold in slot-insertion order: Keys() comes back in map-iteration
	// order, which Go leaves unspecified, but the assigned slot number
	// is exactly "the order this key was first added" (internal/tsvalue's
	// nextSlot counter), so sorting by it recovers the stable order a
	// non-associative fold needs.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Slot < entries[j].Slot })

	acc := r.zero
	for _, e := range entries {
		val, err := e.Child.GetValue()
		if err != nil {
			return err
		}
		acc, err = r.op(acc, *val)
		if err != nil {
			return err
		}
	}
	return tsvalue.NewTSMutableView(r.out).CopyValue(ctx.Time(), acc)
}
