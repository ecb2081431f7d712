// Package observability provides OpenTelemetry bootstrap helpers and the
// metric instruments recorded by the stream instrumentation operators
// (multi.Observe, multi.TraceSpans). Meter and tracer providers export over
// OTLP HTTP and are installed globally; libraries embedding streamkit can
// instead bring their own providers and only use the instruments.
package observability
