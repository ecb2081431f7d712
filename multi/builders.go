package multi

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/flow"
)

// Items returns a Multi emitting the given items then completing.
func Items[T any](items ...T) *Multi[T] {
	return newMulti(func(sub flow.Subscriber[T]) {
		index := 0
		ps := newPullSubscription(sub,
			func() (T, bool) {
				if index >= len(items) {
					var zero T
					return zero, false
				}
				item := items[index]
				index++
				return item, true
			},
			func() bool { return index < len(items) },
		)
		sub.OnSubscribe(ps)
		// completes an already-exhausted source without waiting for demand
		ps.drain()
	})
}

// Range returns a Multi emitting the integers of [start, end) in order.
func Range(start, end int) *Multi[int] {
	return newMulti(func(sub flow.Subscriber[int]) {
		next := start
		ps := newPullSubscription(sub,
			func() (int, bool) {
				if next >= end {
					return 0, false
				}
				item := next
				next++
				return item, true
			},
			func() bool { return next < end },
		)
		sub.OnSubscribe(ps)
		ps.drain()
	})
}

// Empty returns a Multi that completes immediately without emitting.
func Empty[T any]() *Multi[T] {
	return newMulti(func(sub flow.Subscriber[T]) {
		flow.Complete(sub)
	})
}

// Failure returns a Multi that fails immediately with err.
func Failure[T any](err error) *Multi[T] {
	return newMulti(func(sub flow.Subscriber[T]) {
		flow.Fail(sub, err)
	})
}

// Never returns a Multi that never emits any signal after OnSubscribe.
func Never[T any]() *Multi[T] {
	return newMulti(func(sub flow.Subscriber[T]) {
		sub.OnSubscribe(flow.Empty())
	})
}

// Defer invokes supplier at subscription time and subscribes to its result.
// A supplier error or nil result surfaces as a failure.
func Defer[T any](supplier func() (flow.Publisher[T], error)) *Multi[T] {
	if supplier == nil {
		panic("supplier must not be nil")
	}
	return newMulti(func(sub flow.Subscriber[T]) {
		pub, err := supplier()
		if err != nil {
			flow.Fail(sub, err)
			return
		}
		if pub == nil {
			flow.Fail(sub, errors.SupplierReturnedNil())
			return
		}
		pub.Subscribe(sub)
	})
}

// pullSubscription drives a pull function against downstream demand with a
// serialized WIP drain, so Request may be invoked from any goroutine.
type pullSubscription[T any] struct {
	downstream flow.Subscriber[T]
	next       func() (T, bool)
	hasMore    func() bool
	requested  flow.Demand
	wip        atomic.Int32
	cancelled  atomic.Bool
}

func newPullSubscription[T any](downstream flow.Subscriber[T], next func() (T, bool), hasMore func() bool) *pullSubscription[T] {
	return &pullSubscription[T]{downstream: downstream, next: next, hasMore: hasMore}
}

func (s *pullSubscription[T]) Request(n int64) {
	if n <= 0 {
		s.cancelled.Store(true)
		s.downstream.OnFailure(errors.InvalidRequest())
		return
	}
	s.requested.Add(n)
	s.drain()
}

func (s *pullSubscription[T]) Cancel() {
	s.cancelled.Store(true)
}

func (s *pullSubscription[T]) drain() {
	if s.wip.Add(1) != 1 {
		return
	}
	missed := int32(1)
	for {
		r := s.requested.Value()
		var emitted int64
		for emitted != r {
			if s.cancelled.Load() {
				return
			}
			item, ok := s.next()
			if !ok {
				s.downstream.OnComplete()
				return
			}
			s.downstream.OnNext(item)
			emitted++
		}
		if !s.hasMore() {
			if !s.cancelled.Load() {
				s.downstream.OnComplete()
			}
			return
		}
		if emitted != 0 {
			s.requested.Produced(emitted)
		}
		missed = s.wip.Add(-missed)
		if missed == 0 {
			return
		}
	}
}
