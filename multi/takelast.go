package multi

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/flow"
)

// TakeLast caches the last n items seen before the upstream completion and
// emits them against downstream demand. n == 0 drops every item.
func TakeLast[T any](m *Multi[T], n int) *Multi[T] {
	if n < 0 {
		panic("n must not be negative")
	}
	return newMulti(func(sub flow.Subscriber[T]) {
		if n == 0 {
			m.Subscribe(&ignoreLastProcessor[T]{
				Processor: flow.Processor[T, T]{Downstream: sub},
			})
			return
		}
		m.Subscribe(&takeLastProcessor[T]{
			Processor: flow.Processor[T, T]{Downstream: sub},
			n:         n,
			buf:       make([]T, n),
		})
	})
}

// ignoreLastProcessor consumes the upstream unbounded and drops every item.
type ignoreLastProcessor[T any] struct {
	flow.Processor[T, T]
}

func (p *ignoreLastProcessor[T]) OnSubscribe(sub flow.Subscription) {
	if p.Upstream.Set(sub) {
		p.Downstream.OnSubscribe(p)
		sub.Request(flow.Unbounded)
	} else {
		sub.Cancel()
	}
}

func (p *ignoreLastProcessor[T]) OnNext(T) {}

type takeLastProcessor[T any] struct {
	flow.Processor[T, T]
	n    int
	buf  []T // ring of the last n items, written by OnNext only
	head int
	size int

	requested flow.Demand
	wip       atomic.Int32
	completed atomic.Bool
}

func (p *takeLastProcessor[T]) OnSubscribe(sub flow.Subscription) {
	if p.Upstream.Set(sub) {
		p.Downstream.OnSubscribe(p)
		sub.Request(flow.Unbounded)
	} else {
		sub.Cancel()
	}
}

func (p *takeLastProcessor[T]) OnNext(item T) {
	if p.size == p.n {
		p.head = (p.head + 1) % p.n
		p.size--
	}
	p.buf[(p.head+p.size)%p.n] = item
	p.size++
}

func (p *takeLastProcessor[T]) OnComplete() {
	p.completed.Store(true)
	p.drain()
}

func (p *takeLastProcessor[T]) Request(n int64) {
	if n <= 0 {
		p.FailAndCancel(errors.InvalidRequest())
		return
	}
	p.requested.Add(n)
	p.drain()
}

// poll removes the oldest cached item. Only invoked from the serialized drain
// after the upstream completed, so it never races OnNext.
func (p *takeLastProcessor[T]) poll() (T, bool) {
	if p.size == 0 {
		var zero T
		return zero, false
	}
	item := p.buf[p.head]
	p.head = (p.head + 1) % p.n
	p.size--
	return item, true
}

func (p *takeLastProcessor[T]) drain() {
	if p.wip.Add(1) != 1 {
		return
	}
	for {
		req := p.requested.Value()
		if p.Upstream.IsCancelled() {
			return
		}
		if p.completed.Load() {
			var count int64
			for count != req {
				if p.Upstream.IsCancelled() {
					return
				}
				item, ok := p.poll()
				if !ok {
					p.Downstream.OnComplete()
					return
				}
				p.Downstream.OnNext(item)
				count++
			}
			if count != 0 && req != flow.Unbounded {
				req = p.requested.Produced(count)
			}
		}
		if p.wip.Add(-1) == 0 {
			return
		}
	}
}
