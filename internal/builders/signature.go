// Package builders provides declarative node factories (spec.md §4.9):
// given a signature — named inputs, an output shape, a scalar
// configuration bag, and a user eval function — a Builder produces a
// wired node instance without the caller hand-assembling TSValues and
// BaseNode plumbing itself. Grounded on the teacher's config-driven
// factory pattern (internal/indicator.Engine.createTokenIndicators
// switches on IndicatorConfig.Type; internal/marketdata/tfbuilder.New
// allocates per-instance state eagerly from a declarative []int of
// timeframes) generalised from "one concrete config struct per kind" to
// a single reusable Signature type.
package builders

import (
	"fmt"

	"github.com/hgraph-go/runtime/internal/tsvalue"
	"github.com/hgraph-go/runtime/internal/value"
)

// NamedInput is one input slot of a node signature.
type NamedInput struct {
	Name string
	Meta *tsvalue.TSMeta
}

// Signature describes the shape of a node a Builder produces: its named
// inputs, its output type, and optional error/state side-channels (spec
// §4.9: "input/output TSMeta, scalar bag, optional error/state meta").
type Signature struct {
	Inputs    []NamedInput
	Output    *tsvalue.TSMeta
	ErrorMeta *tsvalue.TSMeta // optional; non-nil wires an error-output slot
	StateMeta *tsvalue.TSMeta // optional; non-nil wires a private state slot

	// Scalars holds builder-time configuration (periods, thresholds,
	// names) that parameterises Fn but is not itself a wired TSValue —
	// the "scalar bag" of spec §4.9, mirroring IndicatorConfig.Period.
	Scalars map[string]any
}

// Validate reports a wiring error if the signature is structurally
// incomplete (no output, or a duplicate input name).
func (s Signature) Validate() error {
	if s.Output == nil {
		return fmt.Errorf("builders: signature has no Output TSMeta")
	}
	seen := make(map[string]bool, len(s.Inputs))
	for _, in := range s.Inputs {
		if in.Meta == nil {
			return fmt.Errorf("builders: input %q has nil TSMeta", in.Name)
		}
		if seen[in.Name] {
			return fmt.Errorf("builders: duplicate input name %q", in.Name)
		}
		seen[in.Name] = true
	}
	return nil
}

// Footprint estimates the resident byte size of one node instance built
// from this signature, so a container can arena-size a graph before
// constructing it (spec §4.9: "A builder reports its memory footprint").
// The estimate is the sum of every wired TSMeta's scalar footprint; it
// does not attempt to account for Go runtime overhead (map headers,
// slice headers, allocator bucket rounding), which this package leaves
// to the caller's own budget margin.
func (s Signature) Footprint() uintptr {
	var total uintptr
	for _, in := range s.Inputs {
		total += tsMetaFootprint(in.Meta)
	}
	total += tsMetaFootprint(s.Output)
	if s.ErrorMeta != nil {
		total += tsMetaFootprint(s.ErrorMeta)
	}
	if s.StateMeta != nil {
		total += tsMetaFootprint(s.StateMeta)
	}
	return total
}

// tsMetaFootprint recursively sums the scalar byte sizes backing meta,
// descending into TSB fields, TSL/TSD elements, and REF targets.
func tsMetaFootprint(meta *tsvalue.TSMeta) uintptr {
	if meta == nil {
		return 0
	}
	switch meta.Kind() {
	case tsvalue.TS, tsvalue.TSS:
		return scalarSize(meta.ScalarType())
	case tsvalue.TSW:
		return scalarSize(meta.ScalarType()) * uintptr(meta.Capacity())
	case tsvalue.TSB:
		var total uintptr
		for _, f := range meta.Fields() {
			total += tsMetaFootprint(f.Meta)
		}
		return total
	case tsvalue.TSL:
		return tsMetaFootprint(meta.Elem())
	case tsvalue.TSD:
		return scalarSize(meta.KeyType()) + tsMetaFootprint(meta.Elem())
	case tsvalue.REF:
		return tsMetaFootprint(meta.Target())
	case tsvalue.SIGNAL:
		return 0
	default:
		return 0
	}
}

func scalarSize(vt *value.TypeMeta) uintptr {
	if vt == nil {
		return 0
	}
	return vt.Size()
}
