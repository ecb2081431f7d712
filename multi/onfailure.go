package multi

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/flow"
)

// ResumeOption configures OnFailureResume.
type ResumeOption func(*resumeConfig)

type resumeConfig struct {
	predicate func(error) bool
}

// WithFailurePredicate restricts the recovery to failures matching the
// predicate; non-matching failures propagate unchanged.
func WithFailurePredicate(predicate func(error) bool) ResumeOption {
	return func(c *resumeConfig) { c.predicate = predicate }
}

// OnFailureResume switches to the publisher produced by fn when the upstream
// fails, preserving the downstream's outstanding demand. Recovery happens at
// most once; a failure from the fallback propagates as-is. An fn error or nil
// result surfaces as a failure.
func OnFailureResume[T any](m *Multi[T], fn func(error) (flow.Publisher[T], error), opts ...ResumeOption) *Multi[T] {
	if fn == nil {
		panic("mapper must not be nil")
	}
	var cfg resumeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return newMulti(func(sub flow.Subscriber[T]) {
		m.Subscribe(&resumeSubscriber[T]{
			downstream: sub,
			fn:         fn,
			predicate:  cfg.predicate,
		})
	})
}

// resumeSubscriber relays the upstream until a failure, then swaps in the
// fallback publisher behind the same downstream subscription.
type resumeSubscriber[T any] struct {
	downstream flow.Subscriber[T]
	fn         func(error) (flow.Publisher[T], error)
	predicate  func(error) bool

	switcher flow.SubscriptionSwitcher
	started  atomic.Bool
	resumed  atomic.Bool
	produced int64 // items from the current source, upstream-serialized
}

func (r *resumeSubscriber[T]) OnSubscribe(sub flow.Subscription) {
	r.switcher.Switch(sub)
	if r.started.CompareAndSwap(false, true) {
		r.downstream.OnSubscribe(r)
	}
}

func (r *resumeSubscriber[T]) OnNext(item T) {
	if r.switcher.IsCancelled() {
		return
	}
	r.produced++
	r.downstream.OnNext(item)
}

func (r *resumeSubscriber[T]) OnFailure(failure error) {
	if r.switcher.IsCancelled() {
		return
	}
	if r.resumed.CompareAndSwap(false, true) && (r.predicate == nil || r.predicate(failure)) {
		pub, err := r.fn(failure)
		if err != nil {
			r.downstream.OnFailure(err)
			return
		}
		if pub == nil {
			r.downstream.OnFailure(errors.MapperReturnedNil())
			return
		}
		if p := r.produced; p != 0 {
			r.produced = 0
			r.switcher.Produced(p)
		}
		pub.Subscribe(r)
		return
	}
	r.downstream.OnFailure(failure)
}

func (r *resumeSubscriber[T]) OnComplete() {
	if r.switcher.IsCancelled() {
		return
	}
	r.downstream.OnComplete()
}

func (r *resumeSubscriber[T]) Request(n int64) {
	if n <= 0 {
		r.switcher.Cancel()
		r.downstream.OnFailure(errors.InvalidRequest())
		return
	}
	r.switcher.Request(n)
}

func (r *resumeSubscriber[T]) Cancel() {
	r.switcher.Cancel()
}
