// Package observer implements the per-slot ObserverList that drives
// subscription and notification scheduling (spec §4.5): every TSOutput slot
// owns an ObserverList of (input, kind) pairs, notified in insertion order
// whenever that slot is modified.
package observer

// NotifyKind classifies how an observing input reacts to a modification.
type NotifyKind int

const (
	// Active observers schedule their owning node for evaluation.
	Active NotifyKind = iota
	// Passive observers are never scheduled; the value is read on demand.
	Passive
	// Signal observers receive the schedule pulse but read no value.
	Signal
)

func (k NotifyKind) String() string {
	switch k {
	case Active:
		return "active"
	case Passive:
		return "passive"
	case Signal:
		return "signal"
	default:
		return "unknown"
	}
}

// Scheduler is the subset of the graph scheduler an ObserverList needs to
// drive notifications, satisfied by internal/node.Node.
type Scheduler interface {
	// ScheduleAt requests evaluation at engine time t; implementations must
	// make this a no-op if the node is already scheduled at or before t.
	ScheduleAt(t int64)
}

// entry is one subscription record.
type entry struct {
	input Scheduler
	kind  NotifyKind
}

// op is a deferred mutation recorded while the list is being iterated by
// Notify, applied once iteration completes (spec §4.5 rule 5), grounded on
// the ECS example's CommandBuffer deferred-command pattern.
type op struct {
	add    bool
	target Scheduler
	kind   NotifyKind
}

// ObserverList is an ordered, deduplicated list of (input, kind)
// subscriptions for one TSOutput slot.
type ObserverList struct {
	entries    []entry
	index      map[Scheduler]int // input -> position in entries, for dedup/removal
	iterating  bool
	pending    []op
}

// NewObserverList returns an empty ObserverList.
func NewObserverList() *ObserverList {
	return &ObserverList{index: make(map[Scheduler]int)}
}

// Subscribe adds input with the given notify kind. Re-subscribing an
// already-present input updates its kind in place rather than duplicating
// the entry (the list is deduplicated per input).
func (l *ObserverList) Subscribe(input Scheduler, kind NotifyKind) {
	if l.iterating {
		l.pending = append(l.pending, op{add: true, target: input, kind: kind})
		return
	}
	l.subscribeNow(input, kind)
}

func (l *ObserverList) subscribeNow(input Scheduler, kind NotifyKind) {
	if pos, ok := l.index[input]; ok {
		l.entries[pos].kind = kind
		return
	}
	l.index[input] = len(l.entries)
	l.entries = append(l.entries, entry{input: input, kind: kind})
}

// Unsubscribe removes input from the list. If called while Notify is
// iterating (self-unsubscription from within a notified callback), the
// removal is deferred until iteration finishes.
func (l *ObserverList) Unsubscribe(input Scheduler) {
	if l.iterating {
		l.pending = append(l.pending, op{add: false, target: input})
		return
	}
	l.unsubscribeNow(input)
}

func (l *ObserverList) unsubscribeNow(input Scheduler) {
	pos, ok := l.index[input]
	if !ok {
		return
	}
	delete(l.index, input)
	l.entries = append(l.entries[:pos], l.entries[pos+1:]...)
	for s, p := range l.index {
		if p > pos {
			l.index[s] = p - 1
		}
	}
}

// Len returns the number of subscribed observers.
func (l *ObserverList) Len() int { return len(l.entries) }

// Contains reports whether input is currently subscribed.
func (l *ObserverList) Contains(input Scheduler) bool {
	_, ok := l.index[input]
	return ok
}

// Notify schedules every non-passive observer for engine time t, in
// insertion order, then applies any subscription changes an observer
// triggered during iteration (e.g. self-unsubscribe). Within a single
// call every observer is notified at most once, even if a deferred
// mutation re-adds an entry mid-iteration.
func (l *ObserverList) Notify(t int64) {
	l.iterating = true
	for _, e := range l.entries {
		if e.kind == Passive {
			continue
		}
		e.input.ScheduleAt(t)
	}
	l.iterating = false
	l.drainPending()
}

func (l *ObserverList) drainPending() {
	pending := l.pending
	l.pending = nil
	for _, p := range pending {
		if p.add {
			l.subscribeNow(p.target, p.kind)
		} else {
			l.unsubscribeNow(p.target)
		}
	}
}
