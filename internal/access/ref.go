package access

import (
	"github.com/hgraph-go/runtime/internal/observer"
	"github.com/hgraph-go/runtime/internal/tsvalue"
)

// RefObserverAccess handles a plain-typed input bound to a REF output: it
// watches the REF for rebinds and, on each one, moves the owning node's
// subscription from the old target to the new one — transparent to the
// node, which only ever sees the resolved value.
type RefObserverAccess struct {
	refOutput     *tsvalue.TSValue
	currentTarget *tsvalue.TSValue
	subscriber    observer.Scheduler
	kind          observer.NotifyKind
	path          FQPath
}

// NewRefObserverAccess builds a RefObserverAccess over refOutput.
func NewRefObserverAccess(refOutput *tsvalue.TSValue, path FQPath) *RefObserverAccess {
	return &RefObserverAccess{refOutput: refOutput, path: path}
}

// ScheduleAt implements observer.Scheduler so RefObserverAccess can
// subscribe itself to the REF output's own notifications (fired whenever
// the REF rebinds). It never forwards this call to the owning node
// directly — value-change notifications reach the node through its own
// direct subscription to the resolved target instead.
func (r *RefObserverAccess) ScheduleAt(t int64) {
	r.rebindToCurrentTarget()
}

func (r *RefObserverAccess) rebindToCurrentTarget() {
	view := tsvalue.NewTSView(r.refOutput)
	targetView, err := view.Target()
	var newTarget *tsvalue.TSValue
	if err == nil {
		newTarget = targetView.Unwrap()
	}
	if newTarget == r.currentTarget {
		return
	}
	if r.currentTarget != nil && r.subscriber != nil {
		r.currentTarget.Observers().Unsubscribe(r.subscriber)
	}
	r.currentTarget = newTarget
	if newTarget != nil && r.subscriber != nil {
		newTarget.Observers().Subscribe(r.subscriber, r.kind)
	}
}

func (r *RefObserverAccess) Bind(subscriber observer.Scheduler, kind observer.NotifyKind) error {
	r.subscriber = subscriber
	r.kind = kind
	r.refOutput.Observers().Subscribe(r, observer.Signal)
	r.rebindToCurrentTarget()
	return nil
}

func (r *RefObserverAccess) Unbind() error {
	r.refOutput.Observers().Unsubscribe(r)
	if r.currentTarget != nil && r.subscriber != nil {
		r.currentTarget.Observers().Unsubscribe(r.subscriber)
	}
	r.currentTarget = nil
	return nil
}

func (r *RefObserverAccess) View() tsvalue.TSView {
	if r.currentTarget == nil {
		return tsvalue.NewTSView(r.refOutput)
	}
	return tsvalue.NewTSView(r.currentTarget)
}

func (r *RefObserverAccess) Path() FQPath { return r.path }

// RefWrapperAccess handles a REF-typed input bound to a non-REF output:
// it synthesises a stable, owned REF TSValue whose target is permanently
// the wrapped output, so the input's tree shape (REF) is satisfied without
// the underlying output ever needing to be REF-kinded itself.
type RefWrapperAccess struct {
	wrapped    *tsvalue.TSValue // synthetic REF TSValue, owned by this strategy
	output     *tsvalue.TSValue // the wrapped, permanently-bound target
	subscriber observer.Scheduler
	path       FQPath
}

// NewRefWrapperAccess builds a RefWrapperAccess pointing a synthetic REF
// at output.
func NewRefWrapperAccess(reg *tsvalue.TSTypeRegistry, output *tsvalue.TSValue, path FQPath) *RefWrapperAccess {
	refMeta := reg.InternRef(output.Meta())
	wrapped := tsvalue.New(refMeta)
	tsvalue.NewTSMutableView(wrapped).Bind(0, output)
	return &RefWrapperAccess{wrapped: wrapped, output: output, path: path}
}

// The synthetic REF never itself changes target, so the subscriber
// observes the wrapped output's notifications directly rather than the
// REF's (which would never fire).
func (r *RefWrapperAccess) Bind(subscriber observer.Scheduler, kind observer.NotifyKind) error {
	r.subscriber = subscriber
	r.output.Observers().Subscribe(subscriber, kind)
	return nil
}

func (r *RefWrapperAccess) Unbind() error {
	if r.subscriber != nil {
		r.output.Observers().Unsubscribe(r.subscriber)
		r.subscriber = nil
	}
	return nil
}

func (r *RefWrapperAccess) View() tsvalue.TSView { return tsvalue.NewTSView(r.wrapped) }
func (r *RefWrapperAccess) Path() FQPath         { return r.path }
