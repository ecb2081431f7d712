package multi

import (
	"math"
	"sync/atomic"

	"github.com/kbukum/streamkit/config"
	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/flow"
	"github.com/kbukum/streamkit/queue"
)

// FlatMapOption configures the flat-map merge engine.
type FlatMapOption func(*flatMapConfig)

type flatMapConfig struct {
	concurrency        int
	postponeFailures   bool
	mainQueueCapacity  int
	innerQueueCapacity int
}

// WithConcurrency bounds the number of inner publishers subscribed to
// simultaneously. Values below one fall back to the runtime default.
func WithConcurrency(n int) FlatMapOption {
	return func(c *flatMapConfig) { c.concurrency = n }
}

// WithPostponedFailures accumulates failures from the upstream and the inner
// publishers and surfaces them only after every inner has drained, instead of
// cancelling everything on the first failure.
func WithPostponedFailures() FlatMapOption {
	return func(c *flatMapConfig) { c.postponeFailures = true }
}

// WithMainQueueCapacity sets the capacity of the lazily-created main queue.
func WithMainQueueCapacity(n int) FlatMapOption {
	return func(c *flatMapConfig) { c.mainQueueCapacity = n }
}

// WithInnerQueueCapacity sets the capacity of the lazily-created per-inner
// queues.
func WithInnerQueueCapacity(n int) FlatMapOption {
	return func(c *flatMapConfig) { c.innerQueueCapacity = n }
}

func defaultFlatMapConfig() flatMapConfig {
	settings := config.Runtime()
	return flatMapConfig{
		concurrency:        settings.Concurrency,
		mainQueueCapacity:  settings.BufferSize,
		innerQueueCapacity: settings.BufferSize,
	}
}

// FlatMap maps each upstream item to an inner publisher and merges the inner
// outputs downstream, subscribing to at most the configured concurrency of
// inner publishers at once. Inner outputs interleave; source order is not
// preserved across inners. A mapper error, or a nil publisher from the
// mapper, is a failure.
func FlatMap[I, O any](m *Multi[I], mapper func(I) (flow.Publisher[O], error), opts ...FlatMapOption) *Multi[O] {
	if mapper == nil {
		panic("mapper must not be nil")
	}
	cfg := defaultFlatMapConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.concurrency < 1 {
		cfg.concurrency = config.Runtime().Concurrency
	}
	if cfg.mainQueueCapacity < 1 {
		cfg.mainQueueCapacity = config.Runtime().BufferSize
	}
	if cfg.innerQueueCapacity < 1 {
		cfg.innerQueueCapacity = config.Runtime().BufferSize
	}
	return newMulti(func(sub flow.Subscriber[O]) {
		main := &flatMapMain[I, O]{
			downstream: sub,
			mapper:     mapper,
			cfg:        cfg,
			limit:      replenishLimit(cfg.concurrency),
		}
		m.Subscribe(flow.NewSerializedSubscriber[I](main))
	})
}

// Merge flattens the given publishers through the flat-map engine.
func Merge[T any](publishers []flow.Publisher[T], opts ...FlatMapOption) *Multi[T] {
	for _, pub := range publishers {
		if pub == nil {
			panic("publishers must not contain nil")
		}
	}
	sources := Items(publishers...)
	return FlatMap(sources, func(pub flow.Publisher[T]) (flow.Publisher[T], error) {
		return pub, nil
	}, opts...)
}

// prefetchRequest converts a prefetch count into an initial request,
// saturating to Unbounded for effectively-infinite prefetches.
func prefetchRequest(n int) int64 {
	if n >= math.MaxInt32 {
		return flow.Unbounded
	}
	return int64(n)
}

// replenishLimit is the consumed-item threshold after which an inner's
// upstream is replenished: 75% of the prefetch.
func replenishLimit(n int) int64 {
	if n >= math.MaxInt32 {
		return flow.Unbounded
	}
	return int64(n - n/4)
}

// flatMapMain coordinates the fan-out: it subscribes to the upstream,
// registers one inner subscriber per mapped publisher, and serializes every
// emission to the downstream through a single WIP-guarded drain loop.
type flatMapMain[I, O any] struct {
	downstream flow.Subscriber[O]
	mapper     func(I) (flow.Publisher[O], error)
	cfg        flatMapConfig
	limit      int64

	mainQueue atomic.Pointer[queue.SPSC[O]]
	failures  failureAccumulator
	done      atomic.Bool
	cancelled atomic.Bool
	upstream  flow.SubscriptionSlot
	requested flow.Demand
	wip       atomic.Int32
	inners    innerRegistry[O]
	lastIndex int // cursor of the round-robin drain, drain-serialized
}

// --- upstream subscriber side ---

func (f *flatMapMain[I, O]) OnSubscribe(sub flow.Subscription) {
	if f.upstream.Set(sub) {
		f.downstream.OnSubscribe(f)
		sub.Request(prefetchRequest(f.cfg.concurrency))
	} else {
		sub.Cancel()
	}
}

func (f *flatMapMain[I, O]) OnNext(item I) {
	if f.done.Load() {
		return
	}

	pub, err := f.mapper(item)
	if err == nil && pub == nil {
		err = errors.MapperReturnedNil()
	}
	if err != nil {
		f.cancelled.Store(true)
		f.done.Store(true)
		f.failures.add(err)
		f.cancelUpstream(false)
		f.handleTermination()
		return
	}

	inner := newFlatMapInner(f, f.cfg.concurrency)
	if f.inners.add(inner) {
		pub.Subscribe(inner)
	}
}

func (f *flatMapMain[I, O]) OnFailure(failure error) {
	if f.done.Load() {
		return
	}
	f.failures.add(failure)
	f.done.Store(true)
	f.drain()
}

func (f *flatMapMain[I, O]) OnComplete() {
	if f.done.Load() {
		return
	}
	f.done.Store(true)
	f.drain()
}

// --- downstream subscription side ---

func (f *flatMapMain[I, O]) Request(n int64) {
	if n > 0 {
		f.requested.Add(n)
		f.drain()
	} else {
		f.Cancel()
		f.downstream.OnFailure(errors.InvalidRequest())
	}
}

func (f *flatMapMain[I, O]) Cancel() {
	if f.cancelled.Load() {
		return
	}
	f.cancelled.Store(true)
	if f.wip.Add(1) == 1 {
		f.clearMainQueue()
		f.upstream.Cancel()
		f.releaseInners(true)
	}
}

// --- inner signal handling ---

// tryEmit is the fast path for an inner emission: when the drain lock is free,
// demand is outstanding and the inner has no queued backlog, the item goes
// straight to the downstream; otherwise it is parked in the inner's queue and
// the drain takes over.
func (f *flatMapMain[I, O]) tryEmit(inner *flatMapInner[O], item O) {
	if f.cancelled.Load() || f.failures.surfaced() {
		// the subscription already ended; nothing more may reach the downstream
		return
	}
	if f.wip.CompareAndSwap(0, 1) {
		r := f.requested.Value()
		q := inner.queue.Load()
		if r != 0 && (q == nil || q.IsEmpty()) {
			f.downstream.OnNext(item)
			if r != flow.Unbounded {
				f.requested.Produced(1)
			}
			inner.request(1)
		} else {
			if q == nil {
				q = f.innerQueueFor(inner)
			}
			if !q.Offer(item) {
				f.failOverflow()
				inner.done.Store(true)
				f.drainLoop()
				return
			}
		}
		if f.wip.Add(-1) == 0 {
			return
		}
		f.drainLoop()
	} else {
		q := f.innerQueueFor(inner)
		if !q.Offer(item) {
			f.failOverflow()
			inner.done.Store(true)
		}
		f.drain()
	}
}

func (f *flatMapMain[I, O]) innerError(inner *flatMapInner[O], failure error) {
	if failure == nil {
		f.drain()
		return
	}
	if !f.failures.add(failure) {
		return
	}
	inner.done.Store(true)
	if !f.cfg.postponeFailures {
		f.cancelUpstream(true)
		if err := f.failures.terminate(); err != nil {
			f.downstream.OnFailure(err)
		}
		return
	}
	f.drain()
}

func (f *flatMapMain[I, O]) innerComplete() {
	if f.wip.Add(1) != 1 {
		return
	}
	f.drainLoop()
}

func (f *flatMapMain[I, O]) failOverflow() {
	f.failures.add(errors.BackPressure("buffer full, cannot emit item"))
}

func (f *flatMapMain[I, O]) innerQueueFor(inner *flatMapInner[O]) *queue.SPSC[O] {
	if q := inner.queue.Load(); q != nil {
		return q
	}
	q := queue.NewSPSC[O](f.cfg.innerQueueCapacity)
	if !inner.queue.CompareAndSwap(nil, q) {
		return inner.queue.Load()
	}
	return q
}

// --- drain machinery ---

func (f *flatMapMain[I, O]) drain() {
	if f.wip.Add(1) != 1 {
		return
	}
	f.drainLoop()
}

func (f *flatMapMain[I, O]) drainLoop() {
	missed := int32(1)
	down := f.downstream

	for {
		inners := f.inners.snapshot()
		n := len(inners)
		mq := f.mainQueue.Load()
		noSources := f.inners.isEmpty()

		if f.checkTerminated() {
			return
		}

		again := false
		r := f.requested.Value()
		var emitted int64
		var replenishMain int64

		// main queue first
		if r != 0 && mq != nil {
			for emitted != r {
				item, ok := mq.Poll()
				if f.checkTerminated() {
					return
				}
				if !ok {
					break
				}
				down.OnNext(item)
				emitted++
			}
			if emitted != 0 {
				replenishMain += emitted
				if r != flow.Unbounded {
					r = f.requested.Produced(emitted)
				}
				emitted = 0
				again = true
			}
		}

		// round-robin across the inner queues, resuming at the saved cursor
		if r != 0 && !noSources {
			j := f.lastIndex
			if j >= n {
				j = 0
			}
			for i := 0; i < n; i++ {
				if f.cancelled.Load() {
					f.cancelUpstream(false)
					return
				}

				inner := inners[j]
				if inner != nil {
					q := inner.queue.Load()
					if inner.done.Load() && q == nil {
						f.inners.remove(inner.index)
						again = true
						replenishMain++
					} else if q != nil {
						for emitted != r {
							d := inner.done.Load()
							item, ok := q.Poll()
							if f.checkTerminated() {
								return
							}
							if d && !ok {
								f.inners.remove(inner.index)
								again = true
								replenishMain++
								break
							}
							if !ok {
								break
							}
							down.OnNext(item)
							emitted++
						}

						if emitted == r {
							if inner.done.Load() && q.IsEmpty() {
								f.inners.remove(inner.index)
								again = true
								replenishMain++
							}
						}

						if emitted != 0 {
							if !inner.done.Load() {
								inner.request(emitted)
							}
							if r != flow.Unbounded {
								r = f.requested.Produced(emitted)
								if r == 0 {
									break
								}
							}
							emitted = 0
						}
					}
				}

				if r == 0 {
					break
				}
				j++
				if j == n {
					j = 0
				}
			}
			f.lastIndex = j
		}

		// demand exhausted: sweep out done-and-empty inners the limited pass
		// could not remove
		if r == 0 && !noSources {
			for _, inner := range f.inners.snapshot() {
				if f.cancelled.Load() {
					f.cancelUpstream(false)
					return
				}
				if inner == nil {
					continue
				}
				q := inner.queue.Load()
				empty := q == nil || q.IsEmpty()
				if !empty {
					break
				}
				if inner.done.Load() && empty {
					f.inners.remove(inner.index)
					again = true
					replenishMain++
				}
			}
		}

		// one freed inner slot means one more upstream item may be mapped
		if replenishMain != 0 && !f.done.Load() && !f.cancelled.Load() {
			if sub := f.upstream.Get(); sub != nil {
				sub.Request(replenishMain)
			}
		}

		if again {
			continue
		}

		missed = f.wip.Add(-missed)
		if missed == 0 {
			return
		}
	}
}

func (f *flatMapMain[I, O]) checkTerminated() bool {
	if f.cancelled.Load() {
		f.cancelUpstream(false)
		return true
	}
	return f.handleTermination()
}

// handleTermination applies the termination policy: eager surfaces the first
// accumulated failure as soon as the upstream is done, postponed waits until
// every inner and the main queue have drained.
func (f *flatMapMain[I, O]) handleTermination() bool {
	if f.failures.surfaced() {
		// a failure already reached the downstream; nothing more may follow
		return true
	}
	wasDone := f.done.Load()
	mq := f.mainQueue.Load()
	isEmpty := f.inners.isEmpty() && (mq == nil || mq.IsEmpty())

	if f.cfg.postponeFailures {
		if wasDone && isEmpty {
			if err := f.failures.terminate(); err != nil {
				f.downstream.OnFailure(err)
			} else {
				f.downstream.OnComplete()
			}
			return true
		}
		return false
	}

	if wasDone {
		if f.failures.pending() {
			err := f.failures.terminate()
			f.clearMainQueue()
			f.releaseInners(false)
			if err != nil {
				f.downstream.OnFailure(err)
			}
			return true
		}
		if isEmpty {
			f.downstream.OnComplete()
			return true
		}
	}
	return false
}

func (f *flatMapMain[I, O]) cancelUpstream(fromFailure bool) {
	f.clearMainQueue()
	f.upstream.Cancel()
	f.releaseInners(!fromFailure)
}

// releaseInners terminates the registry and releases every registered inner.
func (f *flatMapMain[I, O]) releaseInners(cancelUpstream bool) {
	for _, inner := range f.inners.terminate() {
		if inner != nil {
			inner.release(cancelUpstream)
		}
	}
}

func (f *flatMapMain[I, O]) clearMainQueue() {
	if mq := f.mainQueue.Swap(nil); mq != nil {
		mq.Clear()
	}
}
