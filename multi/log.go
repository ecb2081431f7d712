package multi

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kbukum/streamkit/flow"
	"github.com/kbukum/streamkit/logger"
)

// Log traces every signal of each subscription at debug level. Signals are
// tagged with the stream name and a per-subscription id so interleaved
// subscriptions can be told apart.
func Log[T any](m *Multi[T], name string) *Multi[T] {
	return newMulti(func(sub flow.Subscriber[T]) {
		lg := logger.WithComponent(name).WithFields(map[string]interface{}{
			"subscription": uuid.NewString(),
		})
		OnSignal(m,
			WithOnSubscribe[T](func(flow.Subscription) error {
				lg.Debug("onSubscribe")
				return nil
			}),
			WithOnItem[T](func(item T) error {
				lg.Debug("onItem", logger.Fields("item", fmt.Sprintf("%v", item)))
				return nil
			}),
			WithOnFailure[T](func(failure error) error {
				lg.WithError(failure).Debug("onFailure")
				return nil
			}),
			WithOnCompletion[T](func() error {
				lg.Debug("onComplete")
				return nil
			}),
			WithOnRequest[T](func(n int64) error {
				lg.Debug("request", logger.Fields("demand", n))
				return nil
			}),
			WithOnCancellation[T](func() error {
				lg.Debug("cancel")
				return nil
			}),
		).Subscribe(sub)
	})
}
