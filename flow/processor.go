package flow

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/errors"
)

// Processor is the reusable template for operators that transform one
// upstream into one downstream with no concurrency fan-out. It plays both
// roles of the protocol: subscriber to the upstream it wraps, and
// subscription to its own downstream.
//
// Operators embed Processor and provide OnNext; operators that manage demand
// themselves additionally override OnSubscribe and Request.
type Processor[I, O any] struct {
	// Downstream is the subscriber this operator publishes to.
	Downstream Subscriber[O]
	// Upstream holds the subscription received from the wrapped publisher.
	Upstream SubscriptionSlot

	done atomic.Bool
}

// OnSubscribe enforces the single-upstream rule: the first subscription is
// retained and the processor forwards itself downstream as the subscription;
// any further subscription is cancelled.
func (p *Processor[I, O]) OnSubscribe(sub Subscription) {
	if p.Upstream.Set(sub) {
		p.Downstream.OnSubscribe(p)
	} else {
		sub.Cancel()
	}
}

// IsDone reports whether the processor reached a terminal state: a terminal
// signal was emitted or received, or the subscription was cancelled. Upstream
// signals arriving afterwards are discarded.
func (p *Processor[I, O]) IsDone() bool {
	return p.done.Load() || p.Upstream.IsCancelled()
}

// MarkDone transitions the processor to its terminal state and reports
// whether this call made the transition.
func (p *Processor[I, O]) MarkDone() bool { return p.done.CompareAndSwap(false, true) }

// OnFailure forwards the upstream failure downstream, once. Failures arriving
// after cancellation are discarded.
func (p *Processor[I, O]) OnFailure(failure error) {
	if p.Upstream.IsCancelled() {
		return
	}
	if p.done.CompareAndSwap(false, true) {
		p.Downstream.OnFailure(failure)
	}
}

// OnComplete forwards the upstream completion downstream, once. Completions
// arriving after cancellation are discarded.
func (p *Processor[I, O]) OnComplete() {
	if p.Upstream.IsCancelled() {
		return
	}
	if p.done.CompareAndSwap(false, true) {
		p.Downstream.OnComplete()
	}
}

// FailAndCancel cancels the upstream and delivers failure downstream. The
// standard reaction to a user function failing mid-stream.
func (p *Processor[I, O]) FailAndCancel(failure error) {
	if p.done.CompareAndSwap(false, true) {
		p.Upstream.Cancel()
		p.Downstream.OnFailure(failure)
		return
	}
	p.Upstream.Cancel()
}

// Request forwards demand upstream. Non-positive demand is a protocol
// violation surfaced as a failure to the downstream subscriber.
func (p *Processor[I, O]) Request(n int64) {
	if n <= 0 {
		p.FailAndCancel(errors.InvalidRequest())
		return
	}
	if sub := p.Upstream.Get(); sub != nil {
		sub.Request(n)
	}
}

// Cancel cancels the upstream subscription. Idempotent.
func (p *Processor[I, O]) Cancel() {
	p.Upstream.Cancel()
}
