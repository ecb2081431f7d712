package flow

// Publisher is a factory of subscriptions: every call to Subscribe binds a
// new, independent subscription to the given subscriber. No work happens
// before a subscriber is attached.
type Publisher[T any] interface {
	Subscribe(sub Subscriber[T])
}

// Subscriber is the sink side of a subscription. Implementations receive
// OnSubscribe exactly once and first, then zero or more OnNext calls, each
// only in response to prior demand, then at most one terminal signal:
// OnComplete or OnFailure.
type Subscriber[T any] interface {
	OnSubscribe(sub Subscription)
	OnNext(item T)
	OnFailure(failure error)
	OnComplete()
}

// Subscription is the demand channel held by a subscriber.
type Subscription interface {
	// Request asks the upstream for n more items. n must be strictly
	// positive; a non-positive n is a protocol violation surfaced to the
	// subscriber as a terminal failure.
	Request(n int64)

	// Cancel stops the subscription. Idempotent and safe to invoke from any
	// goroutine; after it returns no further signals reach the subscriber.
	Cancel()
}

// Cancellable is the handle returned by callback-style subscriptions.
type Cancellable interface {
	Cancel()
}

// CancelFunc adapts a plain function to the Cancellable interface.
type CancelFunc func()

func (f CancelFunc) Cancel() { f() }

// emptySubscription ignores requests and cancellation. Handed to subscribers
// that must receive OnSubscribe before an immediate terminal signal.
type emptySubscription struct{}

func (emptySubscription) Request(int64) {}
func (emptySubscription) Cancel()       {}

// Empty returns a subscription that ignores all signals.
func Empty() Subscription { return emptySubscription{} }

// Fail delivers err as the sole outcome of a subscription: the subscriber
// receives an inert subscription followed by the failure.
func Fail[T any](sub Subscriber[T], err error) {
	sub.OnSubscribe(emptySubscription{})
	sub.OnFailure(err)
}

// Complete delivers an immediate completion: the subscriber receives an inert
// subscription followed by OnComplete.
func Complete[T any](sub Subscriber[T]) {
	sub.OnSubscribe(emptySubscription{})
	sub.OnComplete()
}
