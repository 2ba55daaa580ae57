package interceptors

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glimte/rendezvous-go/contracts"
)

// Delivery is a single message travelling towards a rendezvous channel
type Delivery struct {
	// Channel is the type identifier the message was routed to
	Channel string
	Message any
}

// Attrs returns slog key/value pairs describing the delivery
func (d *Delivery) Attrs() []any {
	attrs := []any{"channel", d.Channel}
	if msg, ok := d.Message.(contracts.Identified); ok {
		attrs = append(attrs, "messageId", msg.GetID())
		if corr := msg.GetCorrelationID(); corr != "" {
			attrs = append(attrs, "correlationId", corr)
		}
	}
	return attrs
}

// Handler represents the next step in the interceptor chain
type Handler interface {
	Handle(ctx context.Context, d *Delivery) error
}

// HandlerFunc is a function adapter for Handler
type HandlerFunc func(ctx context.Context, d *Delivery) error

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, d *Delivery) error {
	return f(ctx, d)
}

// Interceptor processes a delivery before it reaches the channel
type Interceptor interface {
	// Intercept processes a delivery and calls the next handler in the chain
	Intercept(ctx context.Context, d *Delivery, next Handler) error

	// Name returns the interceptor name for logging and debugging
	Name() string
}

// InterceptorFunc is a function adapter for Interceptor
type InterceptorFunc struct {
	name string
	fn   func(ctx context.Context, d *Delivery, next Handler) error
}

// NewInterceptorFunc creates a new function-based interceptor
func NewInterceptorFunc(name string, fn func(ctx context.Context, d *Delivery, next Handler) error) *InterceptorFunc {
	return &InterceptorFunc{name: name, fn: fn}
}

// Intercept implements Interceptor
func (i *InterceptorFunc) Intercept(ctx context.Context, d *Delivery, next Handler) error {
	return i.fn(ctx, d, next)
}

// Name implements Interceptor
func (i *InterceptorFunc) Name() string {
	return i.name
}

// Chain runs interceptors in the order they were added, then the final handler
type Chain struct {
	interceptors []Interceptor
}

// NewChain creates a chain from the given interceptors
func NewChain(interceptors ...Interceptor) *Chain {
	c := &Chain{}
	for _, i := range interceptors {
		c.Add(i)
	}
	return c
}

// Add appends an interceptor to the chain. Nil interceptors are ignored.
func (c *Chain) Add(interceptor Interceptor) *Chain {
	if interceptor != nil {
		c.interceptors = append(c.interceptors, interceptor)
	}
	return c
}

// Len returns the number of interceptors in the chain
func (c *Chain) Len() int {
	return len(c.interceptors)
}

// Execute executes the interceptor chain
func (c *Chain) Execute(ctx context.Context, d *Delivery, final Handler) error {
	if c == nil || len(c.interceptors) == 0 {
		return final.Handle(ctx, d)
	}

	handler := final
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		interceptor := c.interceptors[i]
		next := handler
		handler = HandlerFunc(func(ctx context.Context, d *Delivery) error {
			return interceptor.Intercept(ctx, d, next)
		})
	}

	return handler.Handle(ctx, d)
}

// LoggingInterceptor logs each delivery and how long the sender waited for a listener
type LoggingInterceptor struct {
	logger *slog.Logger
}

// NewLoggingInterceptor creates a new logging interceptor
func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoggingInterceptor{logger: logger}
}

// Intercept implements Interceptor
func (i *LoggingInterceptor) Intercept(ctx context.Context, d *Delivery, next Handler) error {
	start := time.Now()
	i.logger.Debug("delivering message", d.Attrs()...)

	err := next.Handle(ctx, d)
	attrs := append(d.Attrs(), "duration", time.Since(start))

	if err != nil {
		i.logger.Error("message delivery failed", append(attrs, "error", err)...)
	} else {
		i.logger.Info("message delivered", attrs...)
	}

	return err
}

// Name implements Interceptor
func (i *LoggingInterceptor) Name() string {
	return "LoggingInterceptor"
}

// MetricsCollector defines the interface for collecting delivery metrics.
// IncrementMessageCount and RecordDeliveryTime are only called for completed handoffs.
type MetricsCollector interface {
	IncrementAttemptCount(messageType string)
	IncrementMessageCount(messageType string)
	RecordDeliveryTime(messageType string, duration time.Duration)
	IncrementErrorCount(messageType string, errorType string)
}

// MetricsInterceptor collects metrics about deliveries
type MetricsInterceptor struct {
	collector  MetricsCollector
	classifier func(error) string
}

// NewMetricsInterceptor creates a new metrics interceptor.
// classifier maps an error to a label, nil labels every failure "delivery_error".
func NewMetricsInterceptor(collector MetricsCollector, classifier func(error) string) *MetricsInterceptor {
	if classifier == nil {
		classifier = func(error) string { return "delivery_error" }
	}
	return &MetricsInterceptor{collector: collector, classifier: classifier}
}

// Intercept implements Interceptor
func (i *MetricsInterceptor) Intercept(ctx context.Context, d *Delivery, next Handler) error {
	start := time.Now()
	i.collector.IncrementAttemptCount(d.Channel)

	err := next.Handle(ctx, d)
	if err != nil {
		i.collector.IncrementErrorCount(d.Channel, i.classifier(err))
		return err
	}

	i.collector.IncrementMessageCount(d.Channel)
	i.collector.RecordDeliveryTime(d.Channel, time.Since(start))
	return nil
}

// Name implements Interceptor
func (i *MetricsInterceptor) Name() string {
	return "MetricsInterceptor"
}

// MessageValidator checks a payload before it is handed to a listener
type MessageValidator interface {
	Validate(ctx context.Context, msg any) error
}

// ValidatorFunc is a function adapter for MessageValidator
type ValidatorFunc func(ctx context.Context, msg any) error

// Validate implements MessageValidator
func (f ValidatorFunc) Validate(ctx context.Context, msg any) error {
	return f(ctx, msg)
}

// ValidationInterceptor rejects payloads that fail validation
type ValidationInterceptor struct {
	validator MessageValidator
}

// NewValidationInterceptor creates a new validation interceptor
func NewValidationInterceptor(validator MessageValidator) *ValidationInterceptor {
	return &ValidationInterceptor{validator: validator}
}

// Intercept implements Interceptor
func (i *ValidationInterceptor) Intercept(ctx context.Context, d *Delivery, next Handler) error {
	if err := i.validator.Validate(ctx, d.Message); err != nil {
		return fmt.Errorf("message validation failed for %s: %w", d.Channel, err)
	}

	return next.Handle(ctx, d)
}

// Name implements Interceptor
func (i *ValidationInterceptor) Name() string {
	return "ValidationInterceptor"
}

// TimeoutInterceptor bounds how long a sender waits for a listener
type TimeoutInterceptor struct {
	timeout time.Duration
}

// NewTimeoutInterceptor creates a new timeout interceptor
func NewTimeoutInterceptor(timeout time.Duration) *TimeoutInterceptor {
	return &TimeoutInterceptor{timeout: timeout}
}

// Intercept implements Interceptor
func (i *TimeoutInterceptor) Intercept(ctx context.Context, d *Delivery, next Handler) error {
	if i.timeout <= 0 {
		return next.Handle(ctx, d)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	return next.Handle(timeoutCtx, d)
}

// Name implements Interceptor
func (i *TimeoutInterceptor) Name() string {
	return "TimeoutInterceptor"
}

// ChainBuilder builds a common interceptor chain
type ChainBuilder struct {
	chain  *Chain
	logger *slog.Logger
}

// NewChainBuilder creates a new builder
func NewChainBuilder(logger *slog.Logger) *ChainBuilder {
	if logger == nil {
		logger = slog.Default()
	}

	return &ChainBuilder{
		chain:  NewChain(),
		logger: logger,
	}
}

// WithLogging adds logging interceptor
func (b *ChainBuilder) WithLogging() *ChainBuilder {
	b.chain.Add(NewLoggingInterceptor(b.logger))
	return b
}

// WithMetrics adds metrics interceptor
func (b *ChainBuilder) WithMetrics(collector MetricsCollector, classifier func(error) string) *ChainBuilder {
	b.chain.Add(NewMetricsInterceptor(collector, classifier))
	return b
}

// WithValidation adds validation interceptor
func (b *ChainBuilder) WithValidation(validator MessageValidator) *ChainBuilder {
	b.chain.Add(NewValidationInterceptor(validator))
	return b
}

// WithTimeout adds timeout interceptor
func (b *ChainBuilder) WithTimeout(timeout time.Duration) *ChainBuilder {
	b.chain.Add(NewTimeoutInterceptor(timeout))
	return b
}

// WithCustom adds a custom interceptor
func (b *ChainBuilder) WithCustom(interceptor Interceptor) *ChainBuilder {
	b.chain.Add(interceptor)
	return b
}

// Build returns the built interceptor chain
func (b *ChainBuilder) Build() *Chain {
	return b.chain
}
