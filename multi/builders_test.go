package multi

import (
	stderrors "errors"
	"testing"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/flow"
	"github.com/kbukum/streamkit/streamtest"
)

func TestItems_EmitsAllThenCompletes(t *testing.T) {
	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	Items(1, 2, 3).Subscribe(sub)

	if got := sub.Items(); !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
	if !sub.IsCompleted() {
		t.Error("expected completion")
	}
}

func TestItems_HonorsDemand(t *testing.T) {
	sub := streamtest.NewAssertSubscriber[int](2)
	Items(1, 2, 3, 4).Subscribe(sub)

	if got := sub.Items(); !intSliceEqual(got, []int{1, 2}) {
		t.Fatalf("got %v, want [1 2]", got)
	}
	if sub.IsCompleted() {
		t.Fatal("should not be complete yet")
	}

	sub.Request(2)
	if got := sub.Items(); !intSliceEqual(got, []int{1, 2, 3, 4}) {
		t.Errorf("got %v, want [1 2 3 4]", got)
	}
	if !sub.IsCompleted() {
		t.Error("expected completion after exact demand")
	}
}

func TestItems_EmptyCompletesWithoutDemand(t *testing.T) {
	sub := streamtest.NewAssertSubscriber[int](0)
	Items[int]().Subscribe(sub)

	if !sub.IsCompleted() {
		t.Error("empty source should complete without demand")
	}
}

func TestItems_InvalidRequest(t *testing.T) {
	sub := streamtest.NewAssertSubscriber[int](0)
	Items(1, 2).Subscribe(sub)

	sub.Request(0)
	if !errors.HasCode(sub.Failure(), errors.CodeInvalidRequest) {
		t.Errorf("expected invalid-request failure, got %v", sub.Failure())
	}
	if len(sub.Items()) != 0 {
		t.Error("no items should be delivered after a protocol violation")
	}
}

func TestItems_CancelStopsEmission(t *testing.T) {
	sub := streamtest.NewAssertSubscriber[int](1)
	Items(1, 2, 3).Subscribe(sub)

	sub.Cancel()
	sub.Request(10)
	if got := sub.Items(); !intSliceEqual(got, []int{1}) {
		t.Errorf("got %v, want [1]", got)
	}
	if sub.IsCompleted() {
		t.Error("no completion after cancel")
	}
}

func TestRange_EmitsInterval(t *testing.T) {
	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	Range(5, 8).Subscribe(sub)

	if got := sub.Items(); !intSliceEqual(got, []int{5, 6, 7}) {
		t.Errorf("got %v, want [5 6 7]", got)
	}
	if !sub.IsCompleted() {
		t.Error("expected completion")
	}
}

func TestEmpty(t *testing.T) {
	sub := streamtest.NewAssertSubscriber[string](0)
	Empty[string]().Subscribe(sub)
	if !sub.IsCompleted() {
		t.Error("expected immediate completion")
	}
}

func TestFailure(t *testing.T) {
	boom := stderrors.New("boom")
	sub := streamtest.NewAssertSubscriber[string](0)
	Failure[string](boom).Subscribe(sub)
	if sub.Failure() != boom {
		t.Errorf("expected boom, got %v", sub.Failure())
	}
}

func TestDefer_SubscribesLazily(t *testing.T) {
	calls := 0
	m := Defer(func() (flow.Publisher[int], error) {
		calls++
		return Items(calls), nil
	})
	if calls != 0 {
		t.Fatal("supplier must not run before subscription")
	}

	first := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	m.Subscribe(first)
	second := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	m.Subscribe(second)

	if got := first.Items(); !intSliceEqual(got, []int{1}) {
		t.Errorf("first got %v", got)
	}
	if got := second.Items(); !intSliceEqual(got, []int{2}) {
		t.Errorf("second got %v", got)
	}
}

func TestDefer_SupplierError(t *testing.T) {
	boom := stderrors.New("boom")
	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	Defer(func() (flow.Publisher[int], error) { return nil, boom }).Subscribe(sub)
	if sub.Failure() != boom {
		t.Errorf("expected boom, got %v", sub.Failure())
	}
}

func TestDefer_SupplierReturnsNil(t *testing.T) {
	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	Defer(func() (flow.Publisher[int], error) { return nil, nil }).Subscribe(sub)
	if !errors.HasCode(sub.Failure(), errors.CodeSupplierReturnedNil) {
		t.Errorf("expected supplier-returned-nil failure, got %v", sub.Failure())
	}
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
