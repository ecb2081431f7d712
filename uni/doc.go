// Package uni implements Uni, a lazy asynchronous action resolving to
// exactly one of an item event (possibly empty) or a failure. Like Multi,
// nothing happens until a subscriber attaches and each subscription is
// independent. FromPublisher adapts any stream publisher to the single-value
// contract.
package uni
