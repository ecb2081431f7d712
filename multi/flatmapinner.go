package multi

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/flow"
	"github.com/kbukum/streamkit/queue"
)

// innerParent is the back-reference an inner subscriber uses to hand its
// signals to the coordinating flat-map main.
type innerParent[O any] interface {
	tryEmit(inner *flatMapInner[O], item O)
	innerError(inner *flatMapInner[O], failure error)
	innerComplete()
}

// flatMapInner subscribes to one mapped publisher. Items go through the
// parent's fast path or the inner's lazily-created queue; replenishment of
// the inner's upstream is amortized with a 75% threshold.
type flatMapInner[O any] struct {
	parent   innerParent[O]
	prefetch int
	limit    int64

	subscription flow.SubscriptionSlot
	produced     int64 // consumed-since-replenish count, drain-serialized
	queue        atomic.Pointer[queue.SPSC[O]]
	done         atomic.Bool
	index        int
}

func newFlatMapInner[O any](parent innerParent[O], prefetch int) *flatMapInner[O] {
	return &flatMapInner[O]{
		parent:   parent,
		prefetch: prefetch,
		limit:    replenishLimit(prefetch),
	}
}

func (in *flatMapInner[O]) OnSubscribe(sub flow.Subscription) {
	if in.subscription.Set(sub) {
		sub.Request(prefetchRequest(in.prefetch))
	} else {
		sub.Cancel()
	}
}

func (in *flatMapInner[O]) OnNext(item O) {
	in.parent.tryEmit(in, item)
}

func (in *flatMapInner[O]) OnFailure(failure error) {
	in.done.Store(true)
	in.parent.innerError(in, failure)
}

func (in *flatMapInner[O]) OnComplete() {
	in.done.Store(true)
	in.parent.innerComplete()
}

// request accounts for n items consumed by the drain and replenishes the
// inner's upstream once the threshold is crossed.
func (in *flatMapInner[O]) request(n int64) {
	p := in.produced + n
	if p >= in.limit {
		in.produced = 0
		if sub := in.subscription.Get(); sub != nil {
			sub.Request(p)
		}
	} else {
		in.produced = p
	}
}

// release discards the inner's queued items. When cancelUpstream is true the
// inner's subscription is cancelled as well; the failure-surfacing path keeps
// the subscription untouched and only clears the backlog.
func (in *flatMapInner[O]) release(cancelUpstream bool) {
	if cancelUpstream {
		in.subscription.Cancel()
	}
	if q := in.queue.Swap(nil); q != nil {
		q.Clear()
	}
}

// innerRegistry is the array-backed registry of active inners: slots are
// reused, the array grows copy-on-write, and a terminated registry refuses
// additions. The drain iterates the snapshot round-robin.
type innerRegistry[O any] struct {
	arr        atomic.Pointer[[]*flatMapInner[O]]
	terminated atomic.Bool
}

// add registers inner, assigning it a slot index. Returns false when the
// registry has been terminated.
func (r *innerRegistry[O]) add(inner *flatMapInner[O]) bool {
	for {
		if r.terminated.Load() {
			return false
		}
		cur := r.arr.Load()

		var next []*flatMapInner[O]
		idx := -1
		if cur == nil {
			next = make([]*flatMapInner[O], 4)
			idx = 0
		} else {
			for i, e := range *cur {
				if e == nil {
					idx = i
					break
				}
			}
			if idx >= 0 {
				next = slices.Clone(*cur)
			} else {
				idx = len(*cur)
				next = make([]*flatMapInner[O], 2*len(*cur))
				copy(next, *cur)
			}
		}
		inner.index = idx
		next[idx] = inner

		if r.arr.CompareAndSwap(cur, &next) {
			return true
		}
	}
}

// remove frees the slot at index.
func (r *innerRegistry[O]) remove(index int) {
	for {
		cur := r.arr.Load()
		if cur == nil || r.terminated.Load() || index >= len(*cur) {
			return
		}
		next := slices.Clone(*cur)
		next[index] = nil
		if r.arr.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// snapshot returns the current slot array; entries may be nil.
func (r *innerRegistry[O]) snapshot() []*flatMapInner[O] {
	cur := r.arr.Load()
	if cur == nil {
		return nil
	}
	return *cur
}

// isEmpty reports whether no inner is registered.
func (r *innerRegistry[O]) isEmpty() bool {
	cur := r.arr.Load()
	if cur == nil {
		return true
	}
	for _, e := range *cur {
		if e != nil {
			return false
		}
	}
	return true
}

// terminate marks the registry closed and returns the inners registered at
// that point. Subsequent add calls fail; subsequent calls return nothing.
func (r *innerRegistry[O]) terminate() []*flatMapInner[O] {
	r.terminated.Store(true)
	cur := r.arr.Swap(nil)
	if cur == nil {
		return nil
	}
	return *cur
}

// failureAccumulator collects the failures of one flat-map subscription:
// absent, a single failure, or a composite, with a terminated state meaning
// "already surfaced downstream".
type failureAccumulator struct {
	mu         sync.Mutex
	failures   []error
	terminated bool
}

// add records a failure; reports false once the accumulator is terminated.
func (a *failureAccumulator) add(failure error) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.terminated {
		return false
	}
	a.failures = append(a.failures, failure)
	return true
}

// pending reports whether an unsurfaced failure is held.
func (a *failureAccumulator) pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.terminated && len(a.failures) > 0
}

// surfaced reports whether terminate has been called.
func (a *failureAccumulator) surfaced() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.terminated
}

// terminate marks the accumulator surfaced and returns what it held: nil for
// no failure, the single failure, or a composite of all of them. Subsequent
// calls return nil.
func (a *failureAccumulator) terminate() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.terminated {
		return nil
	}
	a.terminated = true
	switch len(a.failures) {
	case 0:
		return nil
	case 1:
		return a.failures[0]
	default:
		return errors.Composite(a.failures...)
	}
}
