package uni

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/streamkit/flow"
	"github.com/kbukum/streamkit/multi"
	"github.com/kbukum/streamkit/streamtest"
)

func TestFromPublisher_FirstItemResolves(t *testing.T) {
	upstream := streamtest.NewEmitter[string]()
	u := FromPublisher(multi.New[string](upstream))

	var got string
	var present bool
	resolved := 0
	SubscribeWith(u, func(item string, ok bool) {
		got, present = item, ok
		resolved++
	}, nil)

	require.EqualValues(t, 1, upstream.Requested(), "the adapter requests exactly one item")

	upstream.Emit("x")
	assert.Equal(t, "x", got)
	assert.True(t, present)
	assert.True(t, upstream.IsCancelled(), "the upstream is cancelled after the first item")

	// a second item after the cancellation is discarded
	upstream.Emit("y")
	assert.Equal(t, 1, resolved)
	assert.Equal(t, "x", got)
}

func TestFromPublisher_EmptyCompletionResolvesEmpty(t *testing.T) {
	u := FromPublisher[int](multi.Items[int]())

	var present bool
	resolved := 0
	SubscribeWith(u, func(_ int, ok bool) {
		present = ok
		resolved++
	}, nil)

	assert.Equal(t, 1, resolved)
	assert.False(t, present)
}

func TestFromPublisher_FailureResolvesFailed(t *testing.T) {
	boom := stderrors.New("boom")
	u := FromPublisher[int](multi.Failure[int](boom))

	var failure error
	items := 0
	SubscribeWith(u, func(int, bool) { items++ }, func(err error) { failure = err })

	assert.Equal(t, boom, failure)
	assert.Zero(t, items)
}

func TestFromPublisher_CancelBeforeItem(t *testing.T) {
	upstream := streamtest.NewEmitter[int]()
	u := FromPublisher(multi.New[int](upstream))

	resolved := 0
	handle := SubscribeWith(u, func(int, bool) { resolved++ }, func(error) { resolved++ })

	handle.Cancel()
	assert.True(t, upstream.IsCancelled())

	upstream.Emit(1)
	upstream.Complete()
	assert.Zero(t, resolved, "no event may follow a cancellation")
}

func TestUni_AtMostOneTerminalEvent(t *testing.T) {
	u := New(func(sub Subscriber[int]) {
		sub.OnSubscribe(flow.CancelFunc(func() {}))
		sub.OnItem(1, true)
		sub.OnItem(2, true)
		sub.OnFailure(stderrors.New("late"))
	})

	resolved := 0
	var failure error
	SubscribeWith(u, func(int, bool) { resolved++ }, func(err error) { failure = err })

	assert.Equal(t, 1, resolved)
	assert.NoError(t, failure)
}

func TestUni_EachSubscriptionIndependent(t *testing.T) {
	calls := 0
	u := New(func(sub Subscriber[int]) {
		calls++
		sub.OnSubscribe(flow.CancelFunc(func() {}))
		sub.OnItem(calls, true)
	})

	var first, second int
	SubscribeWith(u, func(item int, ok bool) { first = item }, nil)
	SubscribeWith(u, func(item int, ok bool) { second = item }, nil)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}
