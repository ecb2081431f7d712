package multi

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/flow"
)

// Concat subscribes to each publisher in turn: only after the current one
// completes normally does the next one start, and downstream demand carries
// over across the boundary. A failure from any member terminates the stream
// immediately.
func Concat[T any](publishers ...flow.Publisher[T]) *Multi[T] {
	return concat(false, publishers)
}

// ConcatCollectFailures behaves like Concat but keeps going past failing
// members, surfacing the collected failures only after the last member has
// been drained.
func ConcatCollectFailures[T any](publishers ...flow.Publisher[T]) *Multi[T] {
	return concat(true, publishers)
}

func concat[T any](collectFailures bool, publishers []flow.Publisher[T]) *Multi[T] {
	for _, pub := range publishers {
		if pub == nil {
			panic("publishers must not contain nil")
		}
	}
	return newMulti(func(sub flow.Subscriber[T]) {
		cs := &concatSubscriber[T]{
			downstream:      sub,
			publishers:      publishers,
			collectFailures: collectFailures,
		}
		sub.OnSubscribe(cs)
		cs.next()
	})
}

// SwitchOnCompletion continues the upstream with the publisher produced by
// supplier once the upstream completes. The supplier is invoked lazily; an
// error or nil result surfaces as a failure after the upstream's items.
func SwitchOnCompletion[T any](m *Multi[T], supplier func() (flow.Publisher[T], error)) *Multi[T] {
	if supplier == nil {
		panic("supplier must not be nil")
	}
	return Concat[T](m, Defer(supplier))
}

// concatSubscriber subscribes to the members sequentially. It is both the
// subscription handed downstream and the subscriber attached to each member;
// the switcher carries unfulfilled demand from one member to the next.
type concatSubscriber[T any] struct {
	downstream      flow.Subscriber[T]
	publishers      []flow.Publisher[T]
	collectFailures bool

	switcher flow.SubscriptionSwitcher
	wip      atomic.Int32
	index    int     // next member, wip-serialized
	failures []error // wip-serialized in the collect mode
	produced int64   // items from the current member, upstream-serialized
}

// --- subscriber side, signals from the current member ---

func (c *concatSubscriber[T]) OnSubscribe(sub flow.Subscription) {
	c.switcher.Switch(sub)
}

func (c *concatSubscriber[T]) OnNext(item T) {
	if c.switcher.IsCancelled() {
		return
	}
	c.produced++
	c.downstream.OnNext(item)
}

func (c *concatSubscriber[T]) OnFailure(failure error) {
	if c.switcher.IsCancelled() {
		return
	}
	if c.collectFailures {
		c.failures = append(c.failures, failure)
		c.OnComplete()
		return
	}
	c.downstream.OnFailure(failure)
}

func (c *concatSubscriber[T]) OnComplete() {
	if c.switcher.IsCancelled() {
		return
	}
	if p := c.produced; p != 0 {
		c.produced = 0
		c.switcher.Produced(p)
	}
	c.next()
}

// next subscribes to the following member. The WIP counter collapses the
// recursive completions of synchronous members into a loop.
func (c *concatSubscriber[T]) next() {
	if c.wip.Add(1) != 1 {
		return
	}
	for {
		if c.switcher.IsCancelled() {
			return
		}
		if c.index == len(c.publishers) {
			c.finish()
			return
		}
		pub := c.publishers[c.index]
		c.index++
		pub.Subscribe(c)

		if c.wip.Add(-1) == 0 {
			return
		}
	}
}

func (c *concatSubscriber[T]) finish() {
	switch len(c.failures) {
	case 0:
		c.downstream.OnComplete()
	case 1:
		c.downstream.OnFailure(c.failures[0])
	default:
		c.downstream.OnFailure(errors.Composite(c.failures...))
	}
}

// --- subscription side, downstream demand ---

func (c *concatSubscriber[T]) Request(n int64) {
	if n <= 0 {
		c.switcher.Cancel()
		c.downstream.OnFailure(errors.InvalidRequest())
		return
	}
	c.switcher.Request(n)
}

func (c *concatSubscriber[T]) Cancel() {
	c.switcher.Cancel()
}
