// Copyright 2024 Rendezvous Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glimte/rendezvous-go/bridge"
	"github.com/glimte/rendezvous-go/health"
	"github.com/glimte/rendezvous-go/interceptors"
	"github.com/glimte/rendezvous-go/internal/reliability"
	"github.com/glimte/rendezvous-go/messaging"
)

// Client provides the main entry point for rendezvous-go.
// It wires an agent bridge with logging, delivery metrics and health checks.
type Client struct {
	bridge      *bridge.AgentBridge
	metrics     *interceptors.InMemoryMetricsCollector
	health      *health.Registry
	logger      *slog.Logger
	serviceName string
}

// NewClient creates a client with the given message types registered in both directions
func NewClient(prototypes ...any) (*Client, error) {
	return NewClientWithOptions(WithDefaultLogger(), WithMessageTypes(prototypes...))
}

// NewClientWithOptions creates a new client with options
func NewClientWithOptions(options ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		logger:             slog.Default(),
		serviceName:        "agentlink",
		warnWaitingSenders: 8,
		maxGoroutines:      10000,
	}

	for _, opt := range options {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	logger := cfg.logger.With("service", cfg.serviceName)
	metrics := interceptors.NewInMemoryMetricsCollector()

	chain := []interceptors.Interceptor{
		interceptors.NewLoggingInterceptor(logger),
		interceptors.NewMetricsInterceptor(metrics, ClassifyError),
	}
	if cfg.validator != nil {
		chain = append(chain, interceptors.NewValidationInterceptor(cfg.validator))
	}
	if cfg.deliveryTimeout > 0 {
		chain = append(chain, interceptors.NewTimeoutInterceptor(cfg.deliveryTimeout))
	}

	bridgeOpts := []bridge.BridgeOption{
		bridge.WithLogger(logger),
		bridge.WithInterceptors(chain...),
		bridge.WithDefaultTimeout(cfg.defaultTimeout),
		bridge.WithTypeNamer(cfg.namer),
	}
	if cfg.retryPolicy != nil {
		bridgeOpts = append(bridgeOpts, bridge.WithRetryPolicy(cfg.retryPolicy))
	}

	b := bridge.NewAgentBridge(bridgeOpts...)
	if err := b.Register(cfg.prototypes...); err != nil {
		return nil, fmt.Errorf("failed to register message types: %w", err)
	}

	checks := health.NewRegistry()
	checks.Register(health.NewRegistryChecker("inbound", b.Inbound(), cfg.warnWaitingSenders, 0))
	checks.Register(health.NewRegistryChecker("outbound", b.Outbound(), cfg.warnWaitingSenders, 0))
	checks.Register(health.NewRuntimeChecker(cfg.maxGoroutines/2, cfg.maxGoroutines))

	logger.Info("client ready", "messageTypes", b.Inbound().Types())

	return &Client{
		bridge:      b,
		metrics:     metrics,
		health:      checks,
		logger:      logger,
		serviceName: cfg.serviceName,
	}, nil
}

// Bridge returns the underlying agent bridge
func (c *Client) Bridge() *bridge.AgentBridge {
	return c.bridge
}

// Agent returns the agent's view of the bridge
func (c *Client) Agent() *bridge.AgentSide {
	return c.bridge.Agent()
}

// ServiceName returns the name used to tag log output
func (c *Client) ServiceName() string {
	return c.serviceName
}

// Register adds message types after construction
func (c *Client) Register(prototypes ...any) error {
	return c.bridge.Register(prototypes...)
}

// SendToAgent delivers msg to the agent
func (c *Client) SendToAgent(ctx context.Context, msg any) error {
	return c.bridge.SendToAgent(ctx, msg)
}

// ReceiveFromAgent waits for the agent to send a message of the named type
func (c *Client) ReceiveFromAgent(ctx context.Context, name string) (any, error) {
	return c.bridge.ReceiveFromAgent(ctx, name)
}

// Metrics returns per-type delivery statistics for both directions
func (c *Client) Metrics() []interceptors.DeliveryStats {
	return c.metrics.GetStats()
}

// Health runs all health checks
func (c *Client) Health(ctx context.Context) health.OverallHealth {
	return c.health.Check(ctx)
}

// HealthRegistry exposes the health registry so callers can add their own checks
func (c *Client) HealthRegistry() *health.Registry {
	return c.health
}

// ClassifyError maps delivery errors to the labels recorded by the metrics interceptor
func ClassifyError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, messaging.ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, messaging.ErrUnknownType):
		return "unknown_type"
	default:
		return "delivery_error"
	}
}

// clientConfig holds client configuration
type clientConfig struct {
	logger             *slog.Logger
	serviceName        string
	prototypes         []any
	namer              messaging.TypeNamer
	defaultTimeout     time.Duration
	deliveryTimeout    time.Duration
	retryPolicy        reliability.RetryPolicy
	validator          interceptors.MessageValidator
	warnWaitingSenders int
	maxGoroutines      int
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

// WithLogger sets the logger for all components
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithDefaultLogger uses the default logger
func WithDefaultLogger() ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = slog.Default()
	}
}

// WithServiceName sets the service name attached to every log record
func WithServiceName(name string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.serviceName = name
	}
}

// WithMessageTypes registers prototypes in both directions when the client is built
func WithMessageTypes(prototypes ...any) ClientOption {
	return func(cfg *clientConfig) {
		cfg.prototypes = append(cfg.prototypes, prototypes...)
	}
}

// WithQualifiedTypeNames keys channels by package path and type name
func WithQualifiedTypeNames() ClientOption {
	return func(cfg *clientConfig) {
		cfg.namer = messaging.QualifiedTypeName
	}
}

// WithDefaultTimeout bounds every send and receive whose context has no deadline
func WithDefaultTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.defaultTimeout = timeout
	}
}

// WithDeliveryTimeout bounds how long a sender waits for a listener
func WithDeliveryTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.deliveryTimeout = timeout
	}
}

// WithConflictRetry retries listener registration while another listener holds the slot
func WithConflictRetry(interval time.Duration, maxRetries int) ClientOption {
	return func(cfg *clientConfig) {
		cfg.retryPolicy = reliability.NewFixedDelay(interval, maxRetries)
	}
}

// WithValidator rejects messages before they reach a listener
func WithValidator(validator interceptors.MessageValidator) ClientOption {
	return func(cfg *clientConfig) {
		cfg.validator = validator
	}
}

// WithHealthThresholds sets when health checks report degraded.
// waitingSenders applies per channel; goroutines is the unhealthy level, half of it is degraded.
func WithHealthThresholds(waitingSenders, goroutines int) ClientOption {
	return func(cfg *clientConfig) {
		cfg.warnWaitingSenders = waitingSenders
		cfg.maxGoroutines = goroutines
	}
}
