package flow

import (
	"sync/atomic"
	"testing"
)

// recordingSubscription counts the demand and cancellations it receives.
type recordingSubscription struct {
	requested atomic.Int64
	cancels   atomic.Int32
}

func (r *recordingSubscription) Request(n int64) { r.requested.Add(n) }
func (r *recordingSubscription) Cancel()         { r.cancels.Add(1) }

func TestSubscriptionSlot_SetOnce(t *testing.T) {
	var slot SubscriptionSlot
	first := &recordingSubscription{}
	second := &recordingSubscription{}

	if !slot.Set(first) {
		t.Fatal("first set should succeed")
	}
	if slot.Set(second) {
		t.Fatal("second set should fail")
	}
	if slot.Get() != Subscription(first) {
		t.Error("slot should hold the first subscription")
	}
}

func TestSubscriptionSlot_CancelCancelsLive(t *testing.T) {
	var slot SubscriptionSlot
	sub := &recordingSubscription{}
	slot.Set(sub)

	slot.Cancel()
	if got := sub.cancels.Load(); got != 1 {
		t.Fatalf("expected 1 cancel, got %d", got)
	}
	if !slot.IsCancelled() {
		t.Error("slot should be cancelled")
	}
	if slot.Get() != nil {
		t.Error("Get should return nil after cancel")
	}
}

func TestSubscriptionSlot_CancelIdempotent(t *testing.T) {
	var slot SubscriptionSlot
	sub := &recordingSubscription{}
	slot.Set(sub)

	slot.Cancel()
	slot.Cancel()
	slot.Cancel()
	if got := sub.cancels.Load(); got != 1 {
		t.Errorf("expected exactly 1 cancel, got %d", got)
	}
}

func TestSubscriptionSlot_SetAfterCancel(t *testing.T) {
	var slot SubscriptionSlot
	slot.Cancel()

	sub := &recordingSubscription{}
	if slot.Set(sub) {
		t.Error("set after cancel should fail")
	}
}

func TestSubscriptionSlot_Terminate(t *testing.T) {
	var slot SubscriptionSlot
	sub := &recordingSubscription{}
	slot.Set(sub)

	prev, live := slot.Terminate()
	if !live {
		t.Fatal("first terminate should report live")
	}
	if prev != Subscription(sub) {
		t.Error("terminate should return the replaced subscription")
	}
	if got := sub.cancels.Load(); got != 0 {
		t.Errorf("terminate must not cancel, got %d cancels", got)
	}

	if _, live := slot.Terminate(); live {
		t.Error("second terminate should report not live")
	}
}
