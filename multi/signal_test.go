package multi

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/flow"
	"github.com/kbukum/streamkit/streamtest"
)

func TestOnSignal_CallbackOrder(t *testing.T) {
	var events []string
	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	OnSignal(Items(1),
		WithOnSubscribe[int](func(flow.Subscription) error {
			events = append(events, "subscribe")
			return nil
		}),
		WithOnRequest[int](func(n int64) error {
			events = append(events, "request")
			return nil
		}),
		WithOnItem[int](func(item int) error {
			events = append(events, "item")
			return nil
		}),
		WithOnCompletion[int](func() error {
			events = append(events, "completion")
			return nil
		}),
		WithOnTermination[int](func(failure error, cancelled bool) {
			events = append(events, "termination")
			assert.NoError(t, failure)
			assert.False(t, cancelled)
		}),
	).Subscribe(sub)

	require.True(t, sub.IsCompleted())
	assert.Equal(t, []string{"subscribe", "request", "item", "completion", "termination"}, events)
}

func TestOnSignal_ItemCallbackErrorFailsAndCancels(t *testing.T) {
	boom := stderrors.New("boom")
	upstream := streamtest.NewEmitter[int]()
	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	OnSignal(New[int](upstream),
		WithOnItem[int](func(int) error { return boom }),
	).Subscribe(sub)

	upstream.Emit(1)

	require.Error(t, sub.Failure())
	assert.True(t, errors.HasCode(sub.Failure(), errors.CodeCallbackFailure))
	assert.True(t, stderrors.Is(sub.Failure(), boom))
	assert.True(t, upstream.IsCancelled())
	assert.Empty(t, sub.Items())
}

func TestOnSignal_FailureCallbackErrorComposes(t *testing.T) {
	boom := stderrors.New("boom")
	callbackErr := stderrors.New("callback broke")
	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	OnSignal(Failure[int](boom),
		WithOnFailure[int](func(error) error { return callbackErr }),
	).Subscribe(sub)

	failure := sub.Failure()
	require.Error(t, failure)
	assert.True(t, stderrors.Is(failure, boom))
	assert.True(t, stderrors.Is(failure, callbackErr))
}

func TestOnSignal_CompletionCallbackErrorBecomesFailure(t *testing.T) {
	boom := stderrors.New("boom")
	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	OnSignal(Items(1),
		WithOnCompletion[int](func() error { return boom }),
	).Subscribe(sub)

	assert.Equal(t, []int{1}, sub.Items())
	assert.Equal(t, boom, sub.Failure())
	assert.False(t, sub.IsCompleted())
}

func TestOnSignal_TerminationFiresOnceOnCancel(t *testing.T) {
	var terminations int
	var sawCancelled bool
	upstream := streamtest.NewEmitter[int]()
	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	OnSignal(New[int](upstream),
		WithOnTermination[int](func(failure error, cancelled bool) {
			terminations++
			sawCancelled = cancelled
		}),
	).Subscribe(sub)

	sub.Cancel()
	sub.Cancel()
	upstream.Complete()

	assert.Equal(t, 1, terminations)
	assert.True(t, sawCancelled)
	assert.True(t, upstream.IsCancelled())
}

func TestOnSignal_CancellationCallback(t *testing.T) {
	var cancelled bool
	upstream := streamtest.NewEmitter[int]()
	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	OnSignal(New[int](upstream),
		WithOnCancellation[int](func() error {
			cancelled = true
			return nil
		}),
	).Subscribe(sub)

	sub.Cancel()
	assert.True(t, cancelled)
	assert.True(t, upstream.IsCancelled())
}

func TestOnSignal_OnRequestSeesDemand(t *testing.T) {
	var demands []int64
	sub := streamtest.NewAssertSubscriber[int](0)
	OnSignal(Items(1, 2, 3),
		WithOnRequest[int](func(n int64) error {
			demands = append(demands, n)
			return nil
		}),
	).Subscribe(sub)

	sub.Request(2)
	sub.Request(1)
	assert.Equal(t, []int64{2, 1}, demands)
	assert.Equal(t, []int{1, 2, 3}, sub.Items())
}

func TestOnSignal_DropsItemsAfterCancel(t *testing.T) {
	upstream := streamtest.NewEmitter[int]()
	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	OnSignal[int](New[int](upstream)).Subscribe(sub)

	upstream.Emit(1)
	sub.Cancel()
	upstream.Emit(2)
	upstream.Complete()

	assert.Equal(t, []int{1}, sub.Items())
	assert.False(t, sub.IsCompleted())
}

func TestOnSignal_SubscribeCallbackErrorRejects(t *testing.T) {
	boom := stderrors.New("boom")
	upstream := streamtest.NewEmitter[int]()
	sub := streamtest.NewAssertSubscriber[int](0)
	OnSignal(New[int](upstream),
		WithOnSubscribe[int](func(flow.Subscription) error { return boom }),
	).Subscribe(sub)

	require.Error(t, sub.Failure())
	assert.True(t, stderrors.Is(sub.Failure(), boom))
	assert.True(t, upstream.IsCancelled())
}
