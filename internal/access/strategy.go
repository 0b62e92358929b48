package access

import (
	"fmt"

	"github.com/hgraph-go/runtime/internal/observer"
	"github.com/hgraph-go/runtime/internal/tsvalue"
)

// AccessStrategy is one node of the binding tree between an input and the
// output it ultimately reads from. Binding an input performs a
// depth-first build of this tree, allocating storage only where a
// translation between input-side and output-side shape occurs.
type AccessStrategy interface {
	// Bind attaches subscriber (the owning node, acting as an
	// observer.Scheduler) to whatever output slots this strategy
	// ultimately resolves to, with the given notify kind.
	Bind(subscriber observer.Scheduler, kind observer.NotifyKind) error

	// Unbind tears down every subscription this strategy (and its
	// children, if any) established.
	Unbind() error

	// View returns the resolved read view an input observes through.
	View() tsvalue.TSView

	// Path returns this strategy's position in the binding tree.
	Path() FQPath
}

// DirectAccess is used when the input-side type equals the bound
// output-side type: pass-through, no storage of its own beyond the
// subscription.
type DirectAccess struct {
	output     *tsvalue.TSValue
	subscriber observer.Scheduler
	path       FQPath
}

// NewDirectAccess builds a DirectAccess bound to output.
func NewDirectAccess(output *tsvalue.TSValue, path FQPath) *DirectAccess {
	return &DirectAccess{output: output, path: path}
}

func (d *DirectAccess) Bind(subscriber observer.Scheduler, kind observer.NotifyKind) error {
	d.subscriber = subscriber
	d.output.Observers().Subscribe(subscriber, kind)
	return nil
}

func (d *DirectAccess) Unbind() error {
	if d.subscriber != nil {
		d.output.Observers().Unsubscribe(d.subscriber)
		d.subscriber = nil
	}
	return nil
}

func (d *DirectAccess) View() tsvalue.TSView { return tsvalue.NewTSView(d.output) }
func (d *DirectAccess) Path() FQPath         { return d.path }

// CollectionAccess holds one child AccessStrategy per element or field of
// a composite input whose children may be bound to differently-shaped
// output children.
type CollectionAccess struct {
	children []AccessStrategy
	path     FQPath
}

// NewCollectionAccess builds an (initially childless) CollectionAccess.
func NewCollectionAccess(path FQPath) *CollectionAccess {
	return &CollectionAccess{path: path}
}

// AddChild appends a child strategy, in field/element order.
func (c *CollectionAccess) AddChild(child AccessStrategy) {
	c.children = append(c.children, child)
}

// Child returns the i'th child strategy.
func (c *CollectionAccess) Child(i int) (AccessStrategy, error) {
	if i < 0 || i >= len(c.children) {
		return nil, fmt.Errorf("access: child index %d out of range (len %d)", i, len(c.children))
	}
	return c.children[i], nil
}

func (c *CollectionAccess) Bind(subscriber observer.Scheduler, kind observer.NotifyKind) error {
	for _, child := range c.children {
		if err := child.Bind(subscriber, kind); err != nil {
			return err
		}
	}
	return nil
}

func (c *CollectionAccess) Unbind() error {
	for _, child := range c.children {
		if err := child.Unbind(); err != nil {
			return err
		}
	}
	return nil
}

// View is unsupported directly on a CollectionAccess: callers navigate to
// a specific child via Child(i).View() instead, since a composite
// translation tree has no single uniform TSView of its own.
func (c *CollectionAccess) View() tsvalue.TSView {
	panic("access: View() is not defined on CollectionAccess; use Child(i).View()")
}

func (c *CollectionAccess) Path() FQPath { return c.path }
