package streamtest

import (
	"errors"
	"sync"

	"github.com/kbukum/streamkit/flow"
)

// Emitter is a manually driven publisher for tests. Signals are forwarded to
// the single subscriber as-is: the emitter tracks the demand it receives but
// deliberately does not enforce it, so tests can simulate both well-behaved
// and misbehaving upstreams.
type Emitter[T any] struct {
	mu        sync.Mutex
	sub       flow.Subscriber[T]
	requested int64
	cancelled bool
}

// NewEmitter constructs an unattached emitter.
func NewEmitter[T any]() *Emitter[T] {
	return &Emitter[T]{}
}

// Subscribe attaches the subscriber. A second subscriber is rejected with an
// immediate failure.
func (e *Emitter[T]) Subscribe(sub flow.Subscriber[T]) {
	e.mu.Lock()
	if e.sub != nil {
		e.mu.Unlock()
		flow.Fail(sub, errors.New("emitter supports a single subscriber"))
		return
	}
	e.sub = sub
	e.mu.Unlock()

	sub.OnSubscribe(&emitterSubscription[T]{emitter: e})
}

// Emit forwards an item, regardless of outstanding demand.
func (e *Emitter[T]) Emit(item T) {
	if sub := e.subscriber(); sub != nil {
		sub.OnNext(item)
	}
}

// Complete forwards the completion signal.
func (e *Emitter[T]) Complete() {
	if sub := e.subscriber(); sub != nil {
		sub.OnComplete()
	}
}

// Fail forwards a terminal failure.
func (e *Emitter[T]) Fail(err error) {
	if sub := e.subscriber(); sub != nil {
		sub.OnFailure(err)
	}
}

// Requested returns the cumulative demand received so far.
func (e *Emitter[T]) Requested() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requested
}

// IsCancelled reports whether the subscriber cancelled.
func (e *Emitter[T]) IsCancelled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled
}

func (e *Emitter[T]) subscriber() flow.Subscriber[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sub
}

type emitterSubscription[T any] struct {
	emitter *Emitter[T]
}

func (s *emitterSubscription[T]) Request(n int64) {
	s.emitter.mu.Lock()
	sum := s.emitter.requested + n
	if sum < s.emitter.requested {
		sum = flow.Unbounded
	}
	s.emitter.requested = sum
	s.emitter.mu.Unlock()
}

func (s *emitterSubscription[T]) Cancel() {
	s.emitter.mu.Lock()
	s.emitter.cancelled = true
	s.emitter.mu.Unlock()
}
