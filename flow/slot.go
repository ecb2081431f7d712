package flow

import "sync/atomic"

// cell boxes a Subscription so that differently-typed implementations can
// share one atomic pointer slot.
type cell struct{ sub Subscription }

// cancelledCell is the terminal sentinel, compared by identity.
var cancelledCell = &cell{sub: emptySubscription{}}

// SubscriptionSlot is a set-once holder for an upstream subscription with a
// terminal cancelled sentinel. All transitions are atomic, so the slot can be
// raced by subscription arrival, cancellation, and termination.
type SubscriptionSlot struct {
	p atomic.Pointer[cell]
}

// Set stores sub if the slot is still empty and reports whether it did.
// It returns false without storing when a subscription was already set or
// the slot is cancelled.
func (s *SubscriptionSlot) Set(sub Subscription) bool {
	return s.p.CompareAndSwap(nil, &cell{sub: sub})
}

// Get returns the held subscription, or nil when the slot is empty or
// cancelled.
func (s *SubscriptionSlot) Get() Subscription {
	c := s.p.Load()
	if c == nil || c == cancelledCell {
		return nil
	}
	return c.sub
}

// IsCancelled reports whether the slot holds the cancelled sentinel.
func (s *SubscriptionSlot) IsCancelled() bool {
	return s.p.Load() == cancelledCell
}

// Cancel swaps the slot to the cancelled sentinel and cancels the
// subscription it replaced, if any. Safe to call repeatedly from any
// goroutine.
func (s *SubscriptionSlot) Cancel() {
	c := s.p.Swap(cancelledCell)
	if c != nil && c != cancelledCell {
		c.sub.Cancel()
	}
}

// Terminate swaps in the cancelled sentinel without cancelling the previous
// subscription. It returns the replaced subscription (nil when the slot was
// empty) and whether the slot was still live, i.e. not already cancelled.
func (s *SubscriptionSlot) Terminate() (Subscription, bool) {
	c := s.p.Swap(cancelledCell)
	if c == cancelledCell {
		return nil, false
	}
	if c == nil {
		return nil, true
	}
	return c.sub, true
}
