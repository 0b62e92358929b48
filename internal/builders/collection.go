package builders

import (
	"fmt"

	"github.com/hgraph-go/runtime/internal/nested"
	"github.com/hgraph-go/runtime/internal/node"
	"github.com/hgraph-go/runtime/internal/tsvalue"
	"github.com/hgraph-go/runtime/internal/value"
)

// ElementBuilder builds the nodes of one key's child graph given that
// key's value and its TSD child TSValue — the same shape as
// internal/nested.ChildGraphBuilder, accepted here as an interface so
// element builders can be FuncBuilders, composed CollectionBuilders, or
// any other Builder a caller writes by hand.
type ElementBuilder interface {
	// BuildElement constructs the nodes backing one key of a collection.
	BuildElement(path string, key value.Value, input *tsvalue.TSValue) ([]node.Node, error)
	Footprint() uintptr
}

// FuncElementBuilder adapts a single-input FuncBuilder into an
// ElementBuilder, binding the collection's per-key TSValue as the
// builder's sole named input.
type FuncElementBuilder struct {
	Inner     FuncBuilder
	InputName string
}

func (e FuncElementBuilder) Footprint() uintptr { return e.Inner.Footprint() }

func (e FuncElementBuilder) BuildElement(path string, key value.Value, input *tsvalue.TSValue) ([]node.Node, error) {
	n, err := e.Inner.Build(path, map[string]*tsvalue.TSValue{e.InputName: input})
	if err != nil {
		return nil, err
	}
	return []node.Node{n}, nil
}

// CollectionBuilder is the composable "collection builders take an
// element builder" case of spec §4.9: it wraps an ElementBuilder into a
// single node that maintains one child graph per key of a TSD input,
// delegated entirely to internal/nested.MapOverKeys for the add/remove
// bookkeeping.
type CollectionBuilder struct {
	Source  *tsvalue.TSValue // TSD
	Element ElementBuilder
}

// Footprint reports a single element's footprint, since a collection's
// resident size scales with its (data-dependent, unbounded) key count
// rather than any fixed number a builder can report up front.
func (b CollectionBuilder) Footprint() uintptr { return b.Element.Footprint() }

// Build constructs the MapOverKeys node at path.
func (b CollectionBuilder) Build(path string) (node.Node, error) {
	if b.Source == nil {
		return nil, fmt.Errorf("builders: %s: collection builder has no Source", path)
	}
	childPath := path
	mok := nested.NewMapOverKeys(path, b.Source, nil, func(key value.Value, input *tsvalue.TSValue) ([]node.Node, error) {
		foreign, err := key.ToForeign()
		if err != nil {
			return nil, fmt.Errorf("builders: %s: collection key not convertible: %w", path, err)
		}
		return b.Element.BuildElement(fmt.Sprintf("%s/%v", childPath, foreign), key, input)
	})
	return mok, nil
}
