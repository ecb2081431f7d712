package flow

import "testing"

func TestSwitcher_ReplaysOutstandingDemand(t *testing.T) {
	var sw SubscriptionSwitcher
	sw.Request(10)

	first := &recordingSubscription{}
	sw.Switch(first)
	if got := first.requested.Load(); got != 10 {
		t.Fatalf("expected 10 replayed, got %d", got)
	}

	// 4 items delivered by the first source
	sw.Produced(4)
	second := &recordingSubscription{}
	sw.Switch(second)
	if got := second.requested.Load(); got != 6 {
		t.Fatalf("expected 6 carried over, got %d", got)
	}
}

func TestSwitcher_RequestForwardsToCurrent(t *testing.T) {
	var sw SubscriptionSwitcher
	sub := &recordingSubscription{}
	sw.Switch(sub)

	sw.Request(3)
	sw.Request(2)
	if got := sub.requested.Load(); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}

func TestSwitcher_CancelRejectsLaterSwitch(t *testing.T) {
	var sw SubscriptionSwitcher
	first := &recordingSubscription{}
	sw.Switch(first)

	sw.Cancel()
	if got := first.cancels.Load(); got != 1 {
		t.Fatalf("expected current cancelled, got %d", got)
	}

	late := &recordingSubscription{}
	sw.Switch(late)
	if got := late.cancels.Load(); got != 1 {
		t.Error("a switch after cancel must cancel the new subscription")
	}
	if !sw.IsCancelled() {
		t.Error("switcher should report cancelled")
	}
}

func TestSwitcher_UnboundedDemandStaysUnbounded(t *testing.T) {
	var sw SubscriptionSwitcher
	sw.Request(Unbounded)
	sw.Produced(1000)

	sub := &recordingSubscription{}
	sw.Switch(sub)
	if got := sub.requested.Load(); got != Unbounded {
		t.Errorf("expected Unbounded replay, got %d", got)
	}
}
