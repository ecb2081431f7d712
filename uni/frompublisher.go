package uni

import "github.com/kbukum/streamkit/flow"

// FromPublisher adapts a stream publisher to the single-value contract: the
// adapter requests one item; the first item cancels the upstream and resolves
// the Uni, completion without an item resolves empty, and a failure resolves
// failed. Items arriving after cancellation are discarded.
func FromPublisher[T any](pub flow.Publisher[T]) *Uni[T] {
	if pub == nil {
		panic("publisher must not be nil")
	}
	return New(func(sub Subscriber[T]) {
		pub.Subscribe(&publisherAdapter[T]{downstream: sub})
	})
}

type publisherAdapter[T any] struct {
	downstream Subscriber[T]
	upstream   flow.SubscriptionSlot
}

func (a *publisherAdapter[T]) OnSubscribe(sub flow.Subscription) {
	if a.upstream.Set(sub) {
		a.downstream.OnSubscribe(flow.CancelFunc(func() {
			a.upstream.Cancel()
		}))
		sub.Request(1)
	} else {
		sub.Cancel()
	}
}

func (a *publisherAdapter[T]) OnNext(item T) {
	prev, live := a.upstream.Terminate()
	if !live {
		// already cancelled or resolved
		return
	}
	if prev != nil {
		prev.Cancel()
	}
	a.downstream.OnItem(item, true)
}

func (a *publisherAdapter[T]) OnFailure(failure error) {
	a.downstream.OnFailure(failure)
}

func (a *publisherAdapter[T]) OnComplete() {
	var zero T
	a.downstream.OnItem(zero, false)
}
