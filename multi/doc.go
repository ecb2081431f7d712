// Package multi implements Multi, a lazy stream of zero or more items
// terminated by completion or failure, together with its operators.
//
// A Multi does no work until a subscriber attaches, and every subscription is
// independent. Operators compose as free functions, mirroring the package's
// builders:
//
//	src := multi.Items(1, 2, 3, 4, 5)
//	doubled := multi.Map(src, func(n int) (int, error) { return n * 2, nil })
//	evens := multi.Filter(doubled, func(n int) (bool, error) { return n%2 == 0, nil })
//	evens.Subscribe(sub)
//
// # Operators
//
// Synchronous (caller's goroutine):
//
//   - Map, Filter, TakeWhile, TakeLast, Skip, Ignore: single-state processors
//   - Concat, SwitchOnCompletion: sequential composition preserving demand
//   - OnFailureResume: switch to a fallback publisher on failure
//   - OnSignal: invoke callbacks around each subscription signal
//   - OnOverflowBuffer, OnOverflowDrop, OnOverflowKeepLast: back-pressure policies
//
// Concurrent:
//
//   - FlatMap, Merge: bounded-concurrency fan-out of inner publishers
//   - EmitOn: hand signals off to an Executor's goroutines
//
// Instrumentation:
//
//   - Log: trace every subscription signal through the logger package
//   - Observe, TraceSpans: OpenTelemetry metrics and spans per subscription
package multi
