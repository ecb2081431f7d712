package multi

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/flow"
)

// SignalOption attaches a callback to one of the signals observed by
// OnSignal. All callbacks are optional.
type SignalOption[T any] func(*signalConfig[T])

type signalConfig[T any] struct {
	onSubscribe    func(flow.Subscription) error
	onItem         func(T) error
	onFailure      func(error) error
	onCompletion   func() error
	onTermination  func(failure error, cancelled bool)
	onRequest      func(n int64) error
	onCancellation func() error
}

// WithOnSubscribe invokes fn with the upstream subscription before the
// downstream receives OnSubscribe. An error fails the subscription.
func WithOnSubscribe[T any](fn func(flow.Subscription) error) SignalOption[T] {
	return func(c *signalConfig[T]) { c.onSubscribe = fn }
}

// WithOnItem invokes fn before each item reaches the downstream. An error
// cancels the upstream and surfaces as a failure.
func WithOnItem[T any](fn func(T) error) SignalOption[T] {
	return func(c *signalConfig[T]) { c.onItem = fn }
}

// WithOnFailure invokes fn before a failure reaches the downstream. An error
// from fn is composed with the original failure.
func WithOnFailure[T any](fn func(error) error) SignalOption[T] {
	return func(c *signalConfig[T]) { c.onFailure = fn }
}

// WithOnCompletion invokes fn before the completion reaches the downstream.
// An error is forwarded as a failure instead of the completion.
func WithOnCompletion[T any](fn func() error) SignalOption[T] {
	return func(c *signalConfig[T]) { c.onCompletion = fn }
}

// WithOnTermination invokes fn exactly once when the subscription reaches its
// end: failure, completion, or cancellation. The callback must not fail.
func WithOnTermination[T any](fn func(failure error, cancelled bool)) SignalOption[T] {
	return func(c *signalConfig[T]) { c.onTermination = fn }
}

// WithOnRequest invokes fn before demand is forwarded upstream.
func WithOnRequest[T any](fn func(n int64) error) SignalOption[T] {
	return func(c *signalConfig[T]) { c.onRequest = fn }
}

// WithOnCancellation invokes fn when the downstream cancels.
func WithOnCancellation[T any](fn func() error) SignalOption[T] {
	return func(c *signalConfig[T]) { c.onCancellation = fn }
}

// OnSignal invokes the configured callbacks on the signals flowing through
// the subscription, each before the corresponding downstream signal.
func OnSignal[T any](m *Multi[T], opts ...SignalOption[T]) *Multi[T] {
	var cfg signalConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	return newMulti(func(sub flow.Subscriber[T]) {
		m.Subscribe(&signalSubscriber[T]{downstream: sub, cfg: cfg})
	})
}

type signalSubscriber[T any] struct {
	downstream flow.Subscriber[T]
	cfg        signalConfig[T]

	subscription flow.SubscriptionSlot
	terminated   atomic.Bool
}

// fireTermination runs the termination hook at most once per subscription.
func (s *signalSubscriber[T]) fireTermination(failure error, cancelled bool) {
	if s.cfg.onTermination == nil {
		return
	}
	if s.terminated.CompareAndSwap(false, true) {
		s.cfg.onTermination(failure, cancelled)
	}
}

func (s *signalSubscriber[T]) failAndCancel(failure error) {
	if cur := s.subscription.Get(); cur != nil {
		cur.Cancel()
	}
	s.OnFailure(failure)
}

func (s *signalSubscriber[T]) OnSubscribe(sub flow.Subscription) {
	if !s.subscription.Set(sub) {
		sub.Cancel()
		return
	}
	if s.cfg.onSubscribe != nil {
		if err := s.cfg.onSubscribe(sub); err != nil {
			flow.Fail(s.downstream, errors.CallbackFailure(err))
			s.subscription.Cancel()
			return
		}
	}
	s.downstream.OnSubscribe(s)
}

func (s *signalSubscriber[T]) OnNext(item T) {
	if s.subscription.IsCancelled() {
		return
	}
	if s.cfg.onItem != nil {
		if err := s.cfg.onItem(item); err != nil {
			s.failAndCancel(errors.CallbackFailure(err))
			return
		}
	}
	s.downstream.OnNext(item)
}

func (s *signalSubscriber[T]) OnFailure(failure error) {
	if _, live := s.subscription.Terminate(); !live {
		return
	}
	if s.cfg.onFailure != nil {
		if err := s.cfg.onFailure(failure); err != nil {
			failure = errors.Composite(failure, err)
		}
	}
	s.downstream.OnFailure(failure)
	s.fireTermination(failure, false)
}

func (s *signalSubscriber[T]) OnComplete() {
	if _, live := s.subscription.Terminate(); !live {
		return
	}
	if s.cfg.onCompletion != nil {
		if err := s.cfg.onCompletion(); err != nil {
			s.fireTermination(err, false)
			s.downstream.OnFailure(err)
			return
		}
	}
	s.fireTermination(nil, false)
	s.downstream.OnComplete()
}

func (s *signalSubscriber[T]) Request(n int64) {
	if s.cfg.onRequest != nil {
		if err := s.cfg.onRequest(n); err != nil {
			s.failAndCancel(errors.CallbackFailure(err))
			return
		}
	}
	if sub := s.subscription.Get(); sub != nil {
		sub.Request(n)
	}
}

func (s *signalSubscriber[T]) Cancel() {
	if s.cfg.onCancellation != nil {
		if err := s.cfg.onCancellation(); err != nil {
			s.failAndCancel(errors.CallbackFailure(err))
			return
		}
	}
	s.fireTermination(nil, true)
	s.subscription.Cancel()
}
