package streamtest

import (
	"sync"
	"time"

	"github.com/kbukum/streamkit/flow"
)

// AssertSubscriber records every signal it receives for test assertions.
// It is safe under concurrent signal delivery.
type AssertSubscriber[T any] struct {
	mu             sync.Mutex
	subscribed     bool
	sub            flow.Subscription
	items          []T
	failure        error
	completed      bool
	subscribeCount int

	upfront  int64
	terminal chan struct{}
	termOnce sync.Once
}

// NewAssertSubscriber constructs a recorder that requests upfront items as
// soon as it is subscribed. Pass 0 to control demand manually and
// flow.Unbounded to consume everything.
func NewAssertSubscriber[T any](upfront int64) *AssertSubscriber[T] {
	return &AssertSubscriber[T]{
		upfront:  upfront,
		terminal: make(chan struct{}),
	}
}

func (s *AssertSubscriber[T]) OnSubscribe(sub flow.Subscription) {
	s.mu.Lock()
	s.subscribed = true
	s.subscribeCount++
	s.sub = sub
	upfront := s.upfront
	s.mu.Unlock()

	if upfront > 0 {
		sub.Request(upfront)
	}
}

func (s *AssertSubscriber[T]) OnNext(item T) {
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
}

func (s *AssertSubscriber[T]) OnFailure(failure error) {
	s.mu.Lock()
	s.failure = failure
	s.mu.Unlock()
	s.termOnce.Do(func() { close(s.terminal) })
}

func (s *AssertSubscriber[T]) OnComplete() {
	s.mu.Lock()
	s.completed = true
	s.mu.Unlock()
	s.termOnce.Do(func() { close(s.terminal) })
}

// Request forwards demand to the recorded subscription.
func (s *AssertSubscriber[T]) Request(n int64) {
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()
	if sub != nil {
		sub.Request(n)
	}
}

// Cancel cancels the recorded subscription.
func (s *AssertSubscriber[T]) Cancel() {
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// Items returns a snapshot copy of the received items.
func (s *AssertSubscriber[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]T, len(s.items))
	copy(cp, s.items)
	return cp
}

// Failure returns the recorded terminal failure, if any.
func (s *AssertSubscriber[T]) Failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// IsCompleted reports whether OnComplete was received.
func (s *AssertSubscriber[T]) IsCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// IsSubscribed reports whether OnSubscribe was received.
func (s *AssertSubscriber[T]) IsSubscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribed
}

// SubscribeCount returns how many times OnSubscribe was delivered.
func (s *AssertSubscriber[T]) SubscribeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribeCount
}

// Await blocks until a terminal signal arrives or the timeout elapses,
// reporting whether a terminal was seen.
func (s *AssertSubscriber[T]) Await(timeout time.Duration) bool {
	select {
	case <-s.terminal:
		return true
	case <-time.After(timeout):
		return false
	}
}

// AwaitItems blocks until at least n items have been received or the timeout
// elapses, reporting whether the count was reached.
func (s *AssertSubscriber[T]) AwaitItems(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		count := len(s.items)
		s.mu.Unlock()
		if count >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}
