package uni

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/flow"
	"github.com/kbukum/streamkit/logger"
)

// Subscriber receives the outcome of one Uni subscription: OnSubscribe first,
// then exactly one of OnItem or OnFailure. An item event with present == false
// means the Uni resolved empty.
type Subscriber[T any] interface {
	OnSubscribe(c flow.Cancellable)
	OnItem(item T, present bool)
	OnFailure(failure error)
}

// Uni is a lazy asynchronous action resolving to a single item or a failure.
type Uni[T any] struct {
	subscribing func(sub Subscriber[T])
}

// New builds a Uni from a raw subscribe function. The subscriber handed to
// subscribing is already serialized: it tolerates duplicate terminal events
// and drops everything after cancellation.
func New[T any](subscribing func(Subscriber[T])) *Uni[T] {
	if subscribing == nil {
		panic("subscribing must not be nil")
	}
	return &Uni[T]{subscribing: subscribing}
}

// Subscribe attaches sub and starts an independent subscription.
func (u *Uni[T]) Subscribe(sub Subscriber[T]) {
	if sub == nil {
		panic("subscriber must not be nil")
	}
	u.subscribing(&serializedSubscriber[T]{actual: sub})
}

// SubscribeWith subscribes with callbacks and returns a cancellation handle.
// onFailure may be nil, in which case failures are logged and dropped.
func SubscribeWith[T any](u *Uni[T], onItem func(item T, present bool), onFailure func(error)) flow.Cancellable {
	sub := &callbackSubscriber[T]{onItem: onItem, onFailure: onFailure}
	u.Subscribe(sub)
	return sub
}

// subscription states of the serialized wrapper
const (
	uniStateInit int32 = iota
	uniStateSubscribed
	uniStateDone
)

// serializedSubscriber enforces the Uni contract towards the wrapped
// subscriber: OnSubscribe exactly once and first, at most one terminal event,
// nothing after cancellation.
type serializedSubscriber[T any] struct {
	actual    Subscriber[T]
	state     atomic.Int32
	cancelled atomic.Bool
	upstream  flow.Cancellable
}

func (s *serializedSubscriber[T]) OnSubscribe(c flow.Cancellable) {
	if s.state.CompareAndSwap(uniStateInit, uniStateSubscribed) {
		s.upstream = c
		s.actual.OnSubscribe(flow.CancelFunc(s.cancel))
	}
}

func (s *serializedSubscriber[T]) OnItem(item T, present bool) {
	if s.state.CompareAndSwap(uniStateSubscribed, uniStateDone) && !s.cancelled.Load() {
		s.actual.OnItem(item, present)
	}
}

func (s *serializedSubscriber[T]) OnFailure(failure error) {
	if s.state.CompareAndSwap(uniStateSubscribed, uniStateDone) && !s.cancelled.Load() {
		s.actual.OnFailure(failure)
	}
}

func (s *serializedSubscriber[T]) cancel() {
	if s.cancelled.CompareAndSwap(false, true) {
		if s.upstream != nil {
			s.upstream.Cancel()
		}
	}
}

// callbackSubscriber backs SubscribeWith.
type callbackSubscriber[T any] struct {
	onItem    func(item T, present bool)
	onFailure func(error)

	cancellable flow.Cancellable
	done        atomic.Bool
}

func (s *callbackSubscriber[T]) OnSubscribe(c flow.Cancellable) {
	s.cancellable = c
}

func (s *callbackSubscriber[T]) OnItem(item T, present bool) {
	if !s.done.CompareAndSwap(false, true) {
		return
	}
	if s.onItem != nil {
		s.onItem(item, present)
	}
}

func (s *callbackSubscriber[T]) OnFailure(failure error) {
	if !s.done.CompareAndSwap(false, true) {
		return
	}
	if s.onFailure != nil {
		s.onFailure(failure)
		return
	}
	logger.WithComponent("uni").WithError(failure).Warn("dropped failure: no failure callback registered")
}

func (s *callbackSubscriber[T]) Cancel() {
	s.done.Store(true)
	if s.cancellable != nil {
		s.cancellable.Cancel()
	}
}
