package multi

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/config"
	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/flow"
	"github.com/kbukum/streamkit/queue"
)

// Executor runs the drain tasks submitted by EmitOn. A non-nil error from
// Execute means the task was rejected; the stream is then cancelled and fails
// with an execution-rejected error.
type Executor interface {
	Execute(task func()) error
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(task func()) error

func (f ExecutorFunc) Execute(task func()) error { return f(task) }

// GoExecutor runs every task on a fresh goroutine and never rejects.
var GoExecutor Executor = ExecutorFunc(func(task func()) error {
	go task()
	return nil
})

// EmitOn delivers the upstream's signals to the downstream on the executor's
// goroutines. Items are parked in a fixed-capacity hand-off queue; if the
// upstream outruns its granted requests and fills the queue, the stream is
// cancelled with a back-pressure failure. Delivery happens only inside the
// scheduled drain, so upstream emissions never race downstream delivery.
func EmitOn[T any](m *Multi[T], executor Executor) *Multi[T] {
	if executor == nil {
		panic("executor must not be nil")
	}
	size := config.Runtime().EmitOnQueueSize
	return newMulti(func(sub flow.Subscriber[T]) {
		m.Subscribe(&emitOnProcessor[T]{
			Processor: flow.Processor[T, T]{Downstream: sub},
			executor:  executor,
			queue:     queue.NewSPSC[T](size),
			batch:     int64(size),
		})
	})
}

type emitOnProcessor[T any] struct {
	flow.Processor[T, T]
	executor Executor
	queue    *queue.SPSC[T]
	batch    int64 // emissions between upstream replenishments

	doneFlag  atomic.Bool
	cancelled atomic.Bool
	failure   atomic.Pointer[error]
	wip       atomic.Int32
	requested flow.Demand
	produced  int64 // carry-over of the drain's emission counter
}

func (p *emitOnProcessor[T]) OnSubscribe(sub flow.Subscription) {
	if p.Upstream.Set(sub) {
		p.Downstream.OnSubscribe(p)
		sub.Request(p.batch)
	} else {
		sub.Cancel()
	}
}

func (p *emitOnProcessor[T]) OnNext(item T) {
	if p.doneFlag.Load() {
		return
	}
	if !p.queue.Offer(item) {
		// the upstream ignored its granted requests
		p.Upstream.Cancel()
		p.OnFailure(errors.BackPressure("queue is full, the upstream didn't enforce the requests"))
		p.doneFlag.Store(true)
		return
	}
	p.schedule()
}

func (p *emitOnProcessor[T]) OnFailure(failure error) {
	if !p.doneFlag.Load() && !p.cancelled.Load() {
		p.doneFlag.Store(true)
		p.failure.Store(&failure)
		p.schedule()
	}
}

func (p *emitOnProcessor[T]) OnComplete() {
	if !p.doneFlag.Load() && !p.cancelled.Load() {
		p.doneFlag.Store(true)
		p.schedule()
	}
}

func (p *emitOnProcessor[T]) Request(n int64) {
	if n <= 0 {
		p.Upstream.Cancel()
		p.OnFailure(errors.InvalidRequest())
		return
	}
	if !p.doneFlag.Load() && !p.cancelled.Load() {
		p.requested.Add(n)
		p.schedule()
	}
}

func (p *emitOnProcessor[T]) Cancel() {
	if p.cancelled.Load() {
		return
	}
	p.cancelled.Store(true)
	p.Upstream.Cancel()
	if p.wip.Add(1) == 1 {
		// no drain in flight, clear the backlog here
		p.queue.Clear()
	}
}

// schedule hands the drain to the executor when no run is in flight.
func (p *emitOnProcessor[T]) schedule() {
	if p.wip.Add(1) != 1 {
		return
	}
	if err := p.executor.Execute(p.run); err != nil {
		if prev, live := p.Upstream.Terminate(); live {
			if prev != nil {
				prev.Cancel()
			}
			p.doneFlag.Store(true)
			p.queue.Clear()
			p.Downstream.OnFailure(errors.ExecutionRejected(err))
		}
	}
}

// run drains the hand-off queue on an executor goroutine, emitting up to the
// outstanding requests and replenishing the upstream in batches.
func (p *emitOnProcessor[T]) run() {
	missed := int32(1)
	q := p.queue
	emitted := p.produced

	for {
		requests := p.requested.Value()
		for emitted != requests {
			wasDone := p.doneFlag.Load()
			item, ok := q.Poll()
			if p.isDoneOrCancelled(wasDone, !ok) {
				return
			}
			if !ok {
				break
			}

			p.Downstream.OnNext(item)

			emitted++
			if emitted == p.batch {
				if requests != flow.Unbounded {
					requests = p.requested.Produced(emitted)
				}
				if sub := p.Upstream.Get(); sub != nil {
					sub.Request(emitted)
				}
				emitted = 0
			}
		}

		// out of requests or out of items; check for a terminal state
		if emitted == requests && p.isDoneOrCancelled(p.doneFlag.Load(), q.IsEmpty()) {
			return
		}

		w := p.wip.Load()
		if missed == w {
			p.produced = emitted
			missed = p.wip.Add(-missed)
			if missed == 0 {
				return
			}
		} else {
			missed = w
		}
	}
}

func (p *emitOnProcessor[T]) isDoneOrCancelled(upstreamDone, queueEmpty bool) bool {
	if p.cancelled.Load() {
		p.queue.Clear()
		return true
	}
	if upstreamDone {
		if fp := p.failure.Load(); fp != nil {
			p.Downstream.OnFailure(*fp)
			return true
		}
		if queueEmpty {
			p.Downstream.OnComplete()
			return true
		}
	}
	return false
}
