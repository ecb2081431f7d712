package flow

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/logger"
)

// SubscriberOption configures a callback subscriber built by NewSubscriber.
type SubscriberOption[T any] func(*CallbackSubscriber[T])

// WithOnFailure sets the failure callback. Without it, failures are logged
// and dropped.
func WithOnFailure[T any](fn func(error)) SubscriberOption[T] {
	return func(s *CallbackSubscriber[T]) { s.onFailure = fn }
}

// WithOnCompletion sets the completion callback.
func WithOnCompletion[T any](fn func()) SubscriberOption[T] {
	return func(s *CallbackSubscriber[T]) { s.onComplete = fn }
}

// WithOnSubscription sets the subscription callback. The callback is
// responsible for requesting items; without it the subscriber requests
// Unbounded upfront.
func WithOnSubscription[T any](fn func(Subscription)) SubscriberOption[T] {
	return func(s *CallbackSubscriber[T]) { s.onSubscribe = fn }
}

// CallbackSubscriber adapts plain callbacks to the Subscriber contract and
// doubles as the Cancellable handle returned to the caller.
type CallbackSubscriber[T any] struct {
	onItem      func(T)
	onFailure   func(error)
	onComplete  func()
	onSubscribe func(Subscription)

	upstream SubscriptionSlot
	done     atomic.Bool
}

// NewSubscriber builds a callback subscriber around onItem. Unless an
// explicit subscription callback is supplied, unbounded demand is requested
// on subscribe.
func NewSubscriber[T any](onItem func(T), opts ...SubscriberOption[T]) *CallbackSubscriber[T] {
	s := &CallbackSubscriber[T]{onItem: onItem}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CallbackSubscriber[T]) OnSubscribe(sub Subscription) {
	if !s.upstream.Set(sub) {
		sub.Cancel()
		return
	}
	if s.onSubscribe != nil {
		s.onSubscribe(sub)
	} else {
		sub.Request(Unbounded)
	}
}

func (s *CallbackSubscriber[T]) OnNext(item T) {
	if s.done.Load() {
		return
	}
	if s.onItem != nil {
		s.onItem(item)
	}
}

func (s *CallbackSubscriber[T]) OnFailure(failure error) {
	if !s.done.CompareAndSwap(false, true) {
		return
	}
	if s.onFailure != nil {
		s.onFailure(failure)
		return
	}
	logger.WithComponent("flow").WithError(failure).Warn("dropped failure: no failure callback registered")
}

func (s *CallbackSubscriber[T]) OnComplete() {
	if !s.done.CompareAndSwap(false, true) {
		return
	}
	if s.onComplete != nil {
		s.onComplete()
	}
}

// Cancel stops the subscription; callbacks are not invoked afterwards.
func (s *CallbackSubscriber[T]) Cancel() {
	s.done.Store(true)
	s.upstream.Cancel()
}
