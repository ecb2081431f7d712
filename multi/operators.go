package multi

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/flow"
)

// Map transforms each item with fn. An error from fn cancels the upstream and
// surfaces as a terminal failure.
func Map[I, O any](m *Multi[I], fn func(I) (O, error)) *Multi[O] {
	if fn == nil {
		panic("mapper must not be nil")
	}
	return newMulti(func(sub flow.Subscriber[O]) {
		m.Subscribe(&mapProcessor[I, O]{
			Processor: flow.Processor[I, O]{Downstream: sub},
			fn:        fn,
		})
	})
}

type mapProcessor[I, O any] struct {
	flow.Processor[I, O]
	fn func(I) (O, error)
}

func (p *mapProcessor[I, O]) OnNext(item I) {
	if p.IsDone() {
		return
	}
	out, err := p.fn(item)
	if err != nil {
		p.FailAndCancel(err)
		return
	}
	p.Downstream.OnNext(out)
}

// Filter keeps the items passing the predicate. A filtered-out item is
// replenished with a request for one more, so downstream demand is honored
// exactly. A predicate error cancels the upstream and surfaces as a failure.
func Filter[T any](m *Multi[T], predicate func(T) (bool, error)) *Multi[T] {
	if predicate == nil {
		panic("predicate must not be nil")
	}
	return newMulti(func(sub flow.Subscriber[T]) {
		m.Subscribe(&filterProcessor[T]{
			Processor: flow.Processor[T, T]{Downstream: sub},
			predicate: predicate,
		})
	})
}

type filterProcessor[T any] struct {
	flow.Processor[T, T]
	predicate func(T) (bool, error)
}

func (p *filterProcessor[T]) OnNext(item T) {
	if p.IsDone() {
		return
	}
	passed, err := p.predicate(item)
	if err != nil {
		p.FailAndCancel(err)
		return
	}
	if passed {
		p.Downstream.OnNext(item)
	} else {
		p.Request(1)
	}
}

// TakeWhile emits items while the predicate holds, then cancels the upstream
// and completes on the first item that fails it.
func TakeWhile[T any](m *Multi[T], predicate func(T) (bool, error)) *Multi[T] {
	if predicate == nil {
		panic("predicate must not be nil")
	}
	return newMulti(func(sub flow.Subscriber[T]) {
		m.Subscribe(&takeWhileProcessor[T]{
			Processor: flow.Processor[T, T]{Downstream: sub},
			predicate: predicate,
		})
	})
}

type takeWhileProcessor[T any] struct {
	flow.Processor[T, T]
	predicate func(T) (bool, error)
}

func (p *takeWhileProcessor[T]) OnNext(item T) {
	if p.IsDone() {
		return
	}
	pass, err := p.predicate(item)
	if err != nil {
		p.FailAndCancel(err)
		return
	}
	if !pass {
		if p.MarkDone() {
			p.Cancel()
			p.Downstream.OnComplete()
		}
		return
	}
	p.Downstream.OnNext(item)
}

// Skip drops the first n items, replenishing the upstream for each dropped
// one.
func Skip[T any](m *Multi[T], n int64) *Multi[T] {
	if n < 0 {
		panic("n must not be negative")
	}
	return newMulti(func(sub flow.Subscriber[T]) {
		p := &skipProcessor[T]{Processor: flow.Processor[T, T]{Downstream: sub}}
		p.remaining.Store(n)
		m.Subscribe(p)
	})
}

type skipProcessor[T any] struct {
	flow.Processor[T, T]
	remaining atomic.Int64
}

func (p *skipProcessor[T]) OnNext(item T) {
	if p.IsDone() {
		return
	}
	if p.remaining.Load() > 0 {
		p.remaining.Add(-1)
		p.Request(1)
		return
	}
	p.Downstream.OnNext(item)
}

// Ignore drops every item and propagates only the terminal signal. The
// upstream is consumed with unbounded demand.
func Ignore[T any](m *Multi[T]) *Multi[struct{}] {
	return newMulti(func(sub flow.Subscriber[struct{}]) {
		m.Subscribe(&ignoreProcessor[T]{
			Processor: flow.Processor[T, struct{}]{Downstream: sub},
		})
	})
}

type ignoreProcessor[T any] struct {
	flow.Processor[T, struct{}]
}

func (p *ignoreProcessor[T]) OnSubscribe(sub flow.Subscription) {
	if p.Upstream.Set(sub) {
		p.Downstream.OnSubscribe(p)
		sub.Request(flow.Unbounded)
	} else {
		sub.Cancel()
	}
}

func (p *ignoreProcessor[T]) OnNext(T) {}
