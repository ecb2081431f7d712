package multi

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/config"
	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/flow"
	"github.com/kbukum/streamkit/queue"
)

// OverflowOption configures an overflow strategy.
type OverflowOption[T any] func(*overflowConfig[T])

type overflowConfig[T any] struct {
	onDrop func(T)
}

// WithDropCallback invokes fn with each item an overflow strategy discards.
func WithDropCallback[T any](fn func(T)) OverflowOption[T] {
	return func(c *overflowConfig[T]) { c.onDrop = fn }
}

// OnOverflowBuffer buffers up to size items when the downstream cannot keep
// up with the upstream. A full buffer is a back-pressure failure: the
// overflowing item is handed to the drop callback, the upstream is cancelled
// and the failure surfaces downstream. A non-positive size falls back to the
// runtime default.
func OnOverflowBuffer[T any](m *Multi[T], size int, opts ...OverflowOption[T]) *Multi[T] {
	var cfg overflowConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	if size < 1 {
		size = config.Runtime().BufferSize
	}
	return newMulti(func(sub flow.Subscriber[T]) {
		m.Subscribe(&bufferProcessor[T]{
			Processor: flow.Processor[T, T]{Downstream: sub},
			queue:     queue.NewSPSC[T](size),
			onDrop:    cfg.onDrop,
		})
	})
}

// OnOverflowDrop discards items arriving while the downstream has no
// outstanding demand, invoking the drop callback for each.
func OnOverflowDrop[T any](m *Multi[T], opts ...OverflowOption[T]) *Multi[T] {
	var cfg overflowConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	return newMulti(func(sub flow.Subscriber[T]) {
		m.Subscribe(&dropProcessor[T]{
			Processor: flow.Processor[T, T]{Downstream: sub},
			onDrop:    cfg.onDrop,
		})
	})
}

// OnOverflowKeepLast retains only the most recent item while the downstream
// has no outstanding demand; older pending items are replaced silently.
func OnOverflowKeepLast[T any](m *Multi[T]) *Multi[T] {
	return newMulti(func(sub flow.Subscriber[T]) {
		m.Subscribe(&keepLastProcessor[T]{
			Processor: flow.Processor[T, T]{Downstream: sub},
		})
	})
}

// bufferProcessor consumes the upstream unbounded and replays the buffered
// items against downstream demand with a serialized drain.
type bufferProcessor[T any] struct {
	flow.Processor[T, T]
	queue  *queue.SPSC[T]
	onDrop func(T)

	doneFlag  atomic.Bool
	cancelled atomic.Bool
	failure   atomic.Pointer[error]
	requested flow.Demand
	wip       atomic.Int32
}

func (p *bufferProcessor[T]) OnSubscribe(sub flow.Subscription) {
	if p.Upstream.Set(sub) {
		p.Downstream.OnSubscribe(p)
		sub.Request(flow.Unbounded)
	} else {
		sub.Cancel()
	}
}

func (p *bufferProcessor[T]) OnNext(item T) {
	if p.doneFlag.Load() {
		return
	}
	if !p.queue.Offer(item) {
		if p.onDrop != nil {
			p.onDrop(item)
		}
		p.Upstream.Cancel()
		p.OnFailure(errors.BackPressure("buffer is full due to the lack of downstream consumption"))
		return
	}
	p.drain()
}

func (p *bufferProcessor[T]) OnFailure(failure error) {
	if p.doneFlag.Load() || p.cancelled.Load() {
		return
	}
	p.failure.Store(&failure)
	p.doneFlag.Store(true)
	p.drain()
}

func (p *bufferProcessor[T]) OnComplete() {
	if p.doneFlag.Load() || p.cancelled.Load() {
		return
	}
	p.doneFlag.Store(true)
	p.drain()
}

func (p *bufferProcessor[T]) Request(n int64) {
	if n <= 0 {
		p.Upstream.Cancel()
		p.OnFailure(errors.InvalidRequest())
		return
	}
	p.requested.Add(n)
	p.drain()
}

func (p *bufferProcessor[T]) Cancel() {
	if p.cancelled.Load() {
		return
	}
	p.cancelled.Store(true)
	p.Upstream.Cancel()
	if p.wip.Add(1) == 1 {
		p.queue.Clear()
	}
}

func (p *bufferProcessor[T]) drain() {
	if p.wip.Add(1) != 1 {
		return
	}
	missed := int32(1)
	for {
		r := p.requested.Value()
		var emitted int64
		for emitted != r {
			if p.checkBufferTerminated() {
				return
			}
			d := p.doneFlag.Load()
			item, ok := p.queue.Poll()
			if d && !ok {
				p.Downstream.OnComplete()
				return
			}
			if !ok {
				break
			}
			p.Downstream.OnNext(item)
			emitted++
		}
		if emitted == r {
			if p.checkBufferTerminated() {
				return
			}
			if p.doneFlag.Load() && p.queue.IsEmpty() {
				p.Downstream.OnComplete()
				return
			}
		}
		if emitted != 0 && r != flow.Unbounded {
			p.requested.Produced(emitted)
		}
		missed = p.wip.Add(-missed)
		if missed == 0 {
			return
		}
	}
}

// checkBufferTerminated handles cancellation and the non-delayed failure
// policy: a recorded failure pre-empts the queued items.
func (p *bufferProcessor[T]) checkBufferTerminated() bool {
	if p.cancelled.Load() {
		p.queue.Clear()
		return true
	}
	if p.doneFlag.Load() {
		if fp := p.failure.Load(); fp != nil {
			p.queue.Clear()
			p.Downstream.OnFailure(*fp)
			return true
		}
	}
	return false
}

// dropProcessor forwards an item only when demand is outstanding and drops it
// otherwise. Terminal signals pass through untouched.
type dropProcessor[T any] struct {
	flow.Processor[T, T]
	onDrop    func(T)
	requested flow.Demand
}

func (p *dropProcessor[T]) OnSubscribe(sub flow.Subscription) {
	if p.Upstream.Set(sub) {
		p.Downstream.OnSubscribe(p)
		sub.Request(flow.Unbounded)
	} else {
		sub.Cancel()
	}
}

func (p *dropProcessor[T]) OnNext(item T) {
	if p.IsDone() {
		return
	}
	if p.requested.Value() > 0 {
		p.Downstream.OnNext(item)
		p.requested.Produced(1)
		return
	}
	if p.onDrop != nil {
		p.onDrop(item)
	}
}

func (p *dropProcessor[T]) Request(n int64) {
	if n <= 0 {
		p.FailAndCancel(errors.InvalidRequest())
		return
	}
	p.requested.Add(n)
}

// keepLastProcessor keeps a single pending slot holding the most recent item;
// each new arrival replaces an unconsumed predecessor.
type keepLastProcessor[T any] struct {
	flow.Processor[T, T]
	latest atomic.Pointer[T]

	doneFlag  atomic.Bool
	cancelled atomic.Bool
	failure   atomic.Pointer[error]
	requested flow.Demand
	wip       atomic.Int32
}

func (p *keepLastProcessor[T]) OnSubscribe(sub flow.Subscription) {
	if p.Upstream.Set(sub) {
		p.Downstream.OnSubscribe(p)
		sub.Request(flow.Unbounded)
	} else {
		sub.Cancel()
	}
}

func (p *keepLastProcessor[T]) OnNext(item T) {
	if p.doneFlag.Load() {
		return
	}
	p.latest.Store(&item)
	p.drain()
}

func (p *keepLastProcessor[T]) OnFailure(failure error) {
	if p.doneFlag.Load() || p.cancelled.Load() {
		return
	}
	p.failure.Store(&failure)
	p.doneFlag.Store(true)
	p.drain()
}

func (p *keepLastProcessor[T]) OnComplete() {
	if p.doneFlag.Load() || p.cancelled.Load() {
		return
	}
	p.doneFlag.Store(true)
	p.drain()
}

func (p *keepLastProcessor[T]) Request(n int64) {
	if n <= 0 {
		p.Upstream.Cancel()
		p.OnFailure(errors.InvalidRequest())
		return
	}
	p.requested.Add(n)
	p.drain()
}

func (p *keepLastProcessor[T]) Cancel() {
	if p.cancelled.Load() {
		return
	}
	p.cancelled.Store(true)
	p.Upstream.Cancel()
	if p.wip.Add(1) == 1 {
		p.latest.Store(nil)
	}
}

func (p *keepLastProcessor[T]) drain() {
	if p.wip.Add(1) != 1 {
		return
	}
	missed := int32(1)
	for {
		for {
			if p.cancelled.Load() {
				p.latest.Store(nil)
				return
			}
			d := p.doneFlag.Load()
			if d {
				if fp := p.failure.Load(); fp != nil {
					p.latest.Store(nil)
					p.Downstream.OnFailure(*fp)
					return
				}
			}
			item := p.latest.Swap(nil)
			if item == nil {
				if d {
					p.Downstream.OnComplete()
					return
				}
				break
			}
			if p.requested.Value() > 0 {
				p.Downstream.OnNext(*item)
				p.requested.Produced(1)
				continue
			}
			// no demand: park the item again unless something newer arrived
			p.latest.CompareAndSwap(nil, item)
			break
		}
		missed = p.wip.Add(-missed)
		if missed == 0 {
			return
		}
	}
}
