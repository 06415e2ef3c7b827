// Package interceptors runs consumed CloudEvents through a chain of
// cross-cutting steps before they reach the service's handler.
//
// Built-in interceptors:
//   - TraceInterceptor: moves the event subject onto the context as the trace ID
//   - LoggingInterceptor: logs processing with timing and the trace ID
//   - MetricsInterceptor: counts events, failures and latency
//   - ValidationInterceptor: rejects events that break their contract
//   - TimeoutInterceptor: bounds handler time
//   - FilteringInterceptor: skips events by type pattern or custom filter
//   - DuplicateDetectionInterceptor: drops redelivered events
//
// Example usage:
//
//	chain := interceptors.NewDefaultInterceptorChainBuilder(logger).
//		WithTrace().
//		WithLogging().
//		WithMetrics(interceptors.NewPrometheusCollector(prometheus.DefaultRegisterer)).
//		WithValidation(contractValidator).
//		WithTimeout(30 * time.Second).
//		Build()
//
//	err := chain.Execute(ctx, evt, handler)
//
// Interceptors are executed in the order they are added to the chain, with the
// final handler being called last.
package interceptors
