// Package interceptors provides an interceptor chain around message delivery.
//
// A messaging.Registry runs its chain between resolving the destination channel and
// handing the payload to it, so interceptors observe every Dispatch call including
// the time a sender spends waiting for a listener.
//
// Built-in interceptors:
//   - LoggingInterceptor: logs deliveries with timing information
//   - MetricsInterceptor: records per-type counts, latency and error labels
//   - ValidationInterceptor: rejects payloads before they reach the channel
//   - TimeoutInterceptor: bounds how long a sender waits for a listener
//
// Example usage:
//
//	metrics := interceptors.NewInMemoryMetricsCollector()
//	chain := interceptors.NewChainBuilder(logger).
//		WithLogging().
//		WithMetrics(metrics, nil).
//		WithTimeout(5 * time.Second).
//		Build()
//
//	registry := messaging.NewRegistry(messaging.WithInterceptorChain(chain))
//
// Interceptors are executed in the order they are added to the chain, with the
// channel delivery being called last.
package interceptors
