// Package flow defines the subscription protocol shared by every stream
// operator: publishers, subscribers, subscriptions, and the demand discipline
// that couples them.
//
// A Publisher produces items only in response to demand signalled through a
// Subscription, and each call to Subscribe starts an independent
// subscription. The signals delivered to a Subscriber are strictly ordered:
// OnSubscribe exactly once and first, zero or more OnNext calls each backed
// by outstanding demand, then at most one of OnComplete or OnFailure.
//
// The package also provides the building blocks operators are made of:
//
//   - Demand: a saturating request counter with a sticky Unbounded sentinel
//   - SubscriptionSlot: a set-once upstream holder with a cancelled sentinel
//   - Processor: the template for single-upstream, single-downstream operators
//   - SerializedSubscriber: signal serialization for misbehaving sources
//   - SubscriptionSwitcher: demand-preserving upstream replacement
//   - NewSubscriber: a callback-based subscriber with a cancellation handle
package flow
