// Package streamtest provides test doubles for exercising the subscription
// protocol: AssertSubscriber records the signals of one subscription and
// offers await helpers for asynchronous operators; Emitter is a manually
// driven publisher for simulating well-behaved or misbehaving upstreams.
package streamtest
