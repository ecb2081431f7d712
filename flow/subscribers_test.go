package flow

import (
	"errors"
	"testing"
)

// scriptedPublisher drives a CallbackSubscriber through a fixed sequence.
type scriptedPublisher struct {
	sub *recordingSubscription
}

func (p *scriptedPublisher) Subscribe(s Subscriber[int]) {
	p.sub = &recordingSubscription{}
	s.OnSubscribe(p.sub)
	s.OnNext(1)
	s.OnNext(2)
	s.OnComplete()
}

func TestCallbackSubscriber_RequestsUnboundedByDefault(t *testing.T) {
	var items []int
	completed := false
	sub := NewSubscriber(func(item int) { items = append(items, item) },
		WithOnCompletion[int](func() { completed = true }))

	p := &scriptedPublisher{}
	p.Subscribe(sub)

	if got := p.sub.requested.Load(); got != Unbounded {
		t.Errorf("expected unbounded request, got %d", got)
	}
	if len(items) != 2 || !completed {
		t.Errorf("unexpected state: items=%v completed=%v", items, completed)
	}
}

func TestCallbackSubscriber_CustomSubscription(t *testing.T) {
	sub := NewSubscriber(func(int) {},
		WithOnSubscription[int](func(s Subscription) { s.Request(3) }))

	p := &scriptedPublisher{}
	p.Subscribe(sub)

	if got := p.sub.requested.Load(); got != 3 {
		t.Errorf("expected request 3, got %d", got)
	}
}

func TestCallbackSubscriber_CancelDropsSignals(t *testing.T) {
	var items []int
	sub := NewSubscriber(func(item int) { items = append(items, item) })

	rec := &recordingSubscription{}
	sub.OnSubscribe(rec)
	sub.OnNext(1)
	sub.Cancel()
	sub.OnNext(2)
	sub.OnComplete()

	if rec.cancels.Load() != 1 {
		t.Error("upstream should be cancelled")
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %v", items)
	}
}

func TestCallbackSubscriber_FailureCallback(t *testing.T) {
	boom := errors.New("boom")
	var got error
	sub := NewSubscriber(func(int) {}, WithOnFailure[int](func(err error) { got = err }))

	sub.OnSubscribe(&recordingSubscription{})
	sub.OnFailure(boom)
	sub.OnFailure(errors.New("late"))

	if got != boom {
		t.Errorf("expected boom once, got %v", got)
	}
}
