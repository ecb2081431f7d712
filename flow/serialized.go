package flow

import "sync"

// SerializedSubscriber makes signal delivery to the wrapped subscriber
// sequential even when the source misbehaves and signals concurrently.
// Signals arriving while another goroutine is emitting are parked and
// replayed by the emitting goroutine, so OnNext never races a terminal.
//
// Unlike the drain-loop operators this wrapper uses a mutex: it sits at the
// boundary with arbitrary sources, and the protected sections only move
// items between slices.
type SerializedSubscriber[T any] struct {
	actual Subscriber[T]

	mu        sync.Mutex
	emitting  bool
	missed    []T
	failure   error
	completed bool
	done      bool
}

// NewSerializedSubscriber wraps actual so its signals are serialized.
func NewSerializedSubscriber[T any](actual Subscriber[T]) *SerializedSubscriber[T] {
	return &SerializedSubscriber[T]{actual: actual}
}

func (s *SerializedSubscriber[T]) OnSubscribe(sub Subscription) {
	s.actual.OnSubscribe(sub)
}

func (s *SerializedSubscriber[T]) OnNext(item T) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	if s.emitting {
		s.missed = append(s.missed, item)
		s.mu.Unlock()
		return
	}
	s.emitting = true
	s.mu.Unlock()

	s.actual.OnNext(item)
	s.drain()
}

func (s *SerializedSubscriber[T]) OnFailure(failure error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	if s.emitting {
		s.failure = failure
		s.mu.Unlock()
		return
	}
	s.emitting = true
	s.mu.Unlock()

	s.actual.OnFailure(failure)
}

func (s *SerializedSubscriber[T]) OnComplete() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	if s.emitting {
		s.completed = true
		s.mu.Unlock()
		return
	}
	s.emitting = true
	s.mu.Unlock()

	s.actual.OnComplete()
}

// drain replays signals parked while this goroutine was emitting. Exits with
// emitting still set once a terminal has been delivered, so later signals
// are dropped by the done check.
func (s *SerializedSubscriber[T]) drain() {
	for {
		s.mu.Lock()
		if len(s.missed) > 0 {
			batch := s.missed
			s.missed = nil
			s.mu.Unlock()
			for _, item := range batch {
				s.actual.OnNext(item)
			}
			continue
		}
		if s.done {
			failure, completed := s.failure, s.completed
			s.mu.Unlock()
			if failure != nil {
				s.actual.OnFailure(failure)
			} else if completed {
				s.actual.OnComplete()
			}
			return
		}
		s.emitting = false
		s.mu.Unlock()
		return
	}
}
