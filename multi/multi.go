package multi

import "github.com/kbukum/streamkit/flow"

// Multi is a lazy stream of zero or more items terminated by either
// completion or failure. Subscribing triggers the work; each subscription is
// independent of every other.
type Multi[T any] struct {
	subscribing func(sub flow.Subscriber[T])
}

// New wraps an existing publisher into a Multi.
func New[T any](pub flow.Publisher[T]) *Multi[T] {
	if pub == nil {
		panic("publisher must not be nil")
	}
	return &Multi[T]{subscribing: pub.Subscribe}
}

// newMulti builds a Multi from a raw subscribe function.
func newMulti[T any](subscribing func(flow.Subscriber[T])) *Multi[T] {
	return &Multi[T]{subscribing: subscribing}
}

// Subscribe attaches sub and starts an independent subscription.
// It implements flow.Publisher.
func (m *Multi[T]) Subscribe(sub flow.Subscriber[T]) {
	if sub == nil {
		panic("subscriber must not be nil")
	}
	m.subscribing(sub)
}
