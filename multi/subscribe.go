package multi

import "github.com/kbukum/streamkit/flow"

// SubscribeWith subscribes with callbacks and returns a handle to cancel the
// subscription. Unless a subscription callback is supplied through
// flow.WithOnSubscription, unbounded demand is requested upfront.
func SubscribeWith[T any](m *Multi[T], onItem func(T), opts ...flow.SubscriberOption[T]) flow.Cancellable {
	sub := flow.NewSubscriber(onItem, opts...)
	m.Subscribe(sub)
	return sub
}
