package flow

import "sync"

// SubscriptionSwitcher lets an operator replace its upstream subscription
// mid-stream while preserving the downstream's outstanding demand: demand
// requested before a switch and not yet fulfilled is re-requested from the
// replacement subscription. Used at concat boundaries and by the
// failure-resume fallback.
type SubscriptionSwitcher struct {
	mu        sync.Mutex
	current   Subscription
	requested int64
	cancelled bool
}

// Switch installs sub as the current upstream and replays the outstanding
// demand to it. A switch after cancellation cancels sub instead.
func (s *SubscriptionSwitcher) Switch(sub Subscription) {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		sub.Cancel()
		return
	}
	s.current = sub
	pending := s.requested
	s.mu.Unlock()

	if pending > 0 {
		sub.Request(pending)
	}
}

// Request adds n to the outstanding demand and forwards it to the current
// subscription, if one is installed.
func (s *SubscriptionSwitcher) Request(n int64) {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.requested = saturatingAdd(s.requested, n)
	cur := s.current
	s.mu.Unlock()

	if cur != nil {
		cur.Request(n)
	}
}

// Produced records n items delivered downstream, reducing the demand carried
// over to the next switch. Skipped once the demand is unbounded.
func (s *SubscriptionSwitcher) Produced(n int64) {
	s.mu.Lock()
	if s.requested != Unbounded {
		s.requested -= n
		if s.requested < 0 {
			s.requested = 0
		}
	}
	s.mu.Unlock()
}

// Cancel cancels the current subscription and rejects future switches.
// Idempotent.
func (s *SubscriptionSwitcher) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	cur := s.current
	s.current = nil
	s.mu.Unlock()

	if cur != nil {
		cur.Cancel()
	}
}

// IsCancelled reports whether Cancel has been called.
func (s *SubscriptionSwitcher) IsCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}
