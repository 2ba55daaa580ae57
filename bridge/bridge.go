package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glimte/rendezvous-go/contracts"
	"github.com/glimte/rendezvous-go/interceptors"
	"github.com/glimte/rendezvous-go/internal/reliability"
	"github.com/glimte/rendezvous-go/messaging"
	"github.com/google/uuid"
)

// ErrCorrelationMismatch is returned by Request when the reply answers a different request
var ErrCorrelationMismatch = errors.New("bridge: reply correlation mismatch")

// AgentBridge connects a host and an agent through two registries.
//
// Inbound carries host-to-agent traffic and Outbound carries agent-to-host traffic.
// Both registries are instances of messaging.Registry; the bridge only decides which
// operation is named "send" and which "receive" on each side.
type AgentBridge struct {
	inbound        *messaging.Registry
	outbound       *messaging.Registry
	retryPolicy    reliability.RetryPolicy
	defaultTimeout time.Duration
	logger         *slog.Logger
}

// BridgeOption configures the agent bridge
type BridgeOption func(*BridgeConfig)

// BridgeConfig holds configuration for the bridge
type BridgeConfig struct {
	DefaultTimeout time.Duration
	RetryPolicy    reliability.RetryPolicy
	Logger         *slog.Logger
	Interceptors   []interceptors.Interceptor
	TypeNamer      messaging.TypeNamer
}

// WithDefaultTimeout bounds calls whose context has no deadline
func WithDefaultTimeout(timeout time.Duration) BridgeOption {
	return func(c *BridgeConfig) {
		c.DefaultTimeout = timeout
	}
}

// WithRetryPolicy retries listener registration when another listener is pending.
// No other error is retried.
func WithRetryPolicy(policy reliability.RetryPolicy) BridgeOption {
	return func(c *BridgeConfig) {
		c.RetryPolicy = policy
	}
}

// WithLogger sets the logger for the bridge and both registries
func WithLogger(logger *slog.Logger) BridgeOption {
	return func(c *BridgeConfig) {
		c.Logger = logger
	}
}

// WithInterceptors adds interceptors to both directions
func WithInterceptors(items ...interceptors.Interceptor) BridgeOption {
	return func(c *BridgeConfig) {
		c.Interceptors = append(c.Interceptors, items...)
	}
}

// WithTypeNamer sets how both registries derive type identifiers
func WithTypeNamer(namer messaging.TypeNamer) BridgeOption {
	return func(c *BridgeConfig) {
		c.TypeNamer = namer
	}
}

// NewAgentBridge creates a bridge with empty inbound and outbound registries
func NewAgentBridge(opts ...BridgeOption) *AgentBridge {
	cfg := &BridgeConfig{
		Logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	registryOpts := []messaging.RegistryOption{
		messaging.WithInterceptors(cfg.Interceptors...),
		messaging.WithTypeNamer(cfg.TypeNamer),
	}

	b := &AgentBridge{
		inbound: messaging.NewRegistry(append(registryOpts,
			messaging.WithRegistryLogger(cfg.Logger.With("direction", "inbound")))...),
		outbound: messaging.NewRegistry(append(registryOpts,
			messaging.WithRegistryLogger(cfg.Logger.With("direction", "outbound")))...),
		retryPolicy:    cfg.RetryPolicy,
		defaultTimeout: cfg.DefaultTimeout,
		logger:         cfg.Logger,
	}
	if b.retryPolicy != nil {
		b.retryPolicy = reliability.RetryOn(b.retryPolicy, messaging.ErrListenerConflict)
	}

	return b
}

// Inbound returns the host-to-agent registry
func (b *AgentBridge) Inbound() *messaging.Registry {
	return b.inbound
}

// Outbound returns the agent-to-host registry
func (b *AgentBridge) Outbound() *messaging.Registry {
	return b.outbound
}

// Register creates channels for each prototype in both directions.
// Every prototype is checked against both registries before any is written, so a
// type is never left registered in one direction only. Concurrent direct
// registration on Inbound or Outbound can still slip in between the check and the write.
func (b *AgentBridge) Register(prototypes ...any) error {
	for _, p := range prototypes {
		if err := b.inbound.CanRegister(p); err != nil {
			return fmt.Errorf("failed to register inbound type: %w", err)
		}
		if err := b.outbound.CanRegister(p); err != nil {
			return fmt.Errorf("failed to register outbound type: %w", err)
		}
	}

	for _, p := range prototypes {
		if err := b.inbound.Register(p); err != nil {
			return fmt.Errorf("failed to register inbound type: %w", err)
		}
		if err := b.outbound.Register(p); err != nil {
			return fmt.Errorf("failed to register outbound type: %w", err)
		}
	}
	return nil
}

// SendToAgent delivers msg to the agent, blocking until the agent listens for its type
func (b *AgentBridge) SendToAgent(ctx context.Context, msg any) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	return b.inbound.Dispatch(ctx, msg)
}

// ReceiveFromAgent waits for the agent to send a message of the named type
func (b *AgentBridge) ReceiveFromAgent(ctx context.Context, name string) (any, error) {
	return b.await(ctx, b.outbound, name)
}

// Agent returns the agent's view of the bridge
func (b *AgentBridge) Agent() *AgentSide {
	return &AgentSide{bridge: b}
}

// AgentSide exposes the bridge with send/receive named from the agent's point of view
type AgentSide struct {
	bridge *AgentBridge
}

// Send delivers msg to the host
func (a *AgentSide) Send(ctx context.Context, msg any) error {
	ctx, cancel := a.bridge.withTimeout(ctx)
	defer cancel()
	return a.bridge.outbound.Dispatch(ctx, msg)
}

// Receive waits for the host to send a message of the named type
func (a *AgentSide) Receive(ctx context.Context, name string) (any, error) {
	return a.bridge.await(ctx, a.bridge.inbound, name)
}

func (b *AgentBridge) await(ctx context.Context, r *messaging.Registry, name string) (any, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	h, err := b.listen(ctx, "receive "+name, func() (*messaging.Handle, error) {
		return r.Listen(name)
	})
	if err != nil {
		return nil, err
	}
	return h.Await(ctx)
}

// listen registers a listener, retrying conflicts when a policy is configured
func (b *AgentBridge) listen(ctx context.Context, op string, fn func() (*messaging.Handle, error)) (*messaging.Handle, error) {
	if b.retryPolicy == nil {
		return fn()
	}

	var h *messaging.Handle
	err := reliability.Retry(ctx, b.retryPolicy, op, func() error {
		var err error
		h, err = fn()
		if errors.Is(err, messaging.ErrListenerConflict) {
			b.logger.Debug("listener conflict, retrying", "op", op)
		}
		return err
	})
	return h, err
}

func (b *AgentBridge) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.defaultTimeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.defaultTimeout)
}

// AwaitFromAgent waits for the agent to send a T
func AwaitFromAgent[T any](ctx context.Context, b *AgentBridge) (T, error) {
	return awaitTyped[T](ctx, b, b.outbound)
}

// AwaitFromHost waits for the host to send a T
func AwaitFromHost[T any](ctx context.Context, a *AgentSide) (T, error) {
	return awaitTyped[T](ctx, a.bridge, a.bridge.inbound)
}

func awaitTyped[T any](ctx context.Context, b *AgentBridge, r *messaging.Registry) (T, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	h, err := b.listen(ctx, fmt.Sprintf("receive %T", *new(T)), func() (*messaging.Handle, error) {
		return messaging.ListenFor[T](r)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return messaging.AwaitAs[T](ctx, h)
}

// Request sends msg to the agent and waits for its reply of type R.
//
// The reply listener is registered before msg is sent so a fast agent cannot
// answer into an idle channel. Messages implementing contracts.Message get a
// correlation ID if they lack one, and a correlated reply must carry it back.
func Request[R any](ctx context.Context, b *AgentBridge, msg any) (R, error) {
	var zero R

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	correlationID := ""
	if m, ok := msg.(contracts.Message); ok {
		correlationID = m.GetCorrelationID()
		if correlationID == "" {
			correlationID = uuid.New().String()
			m.SetCorrelationID(correlationID)
		}
	}

	h, err := b.listen(ctx, fmt.Sprintf("request %T", zero), func() (*messaging.Handle, error) {
		return messaging.ListenFor[R](b.outbound)
	})
	if err != nil {
		return zero, err
	}

	if err := b.inbound.Dispatch(ctx, msg); err != nil {
		h.Cancel()
		return zero, fmt.Errorf("failed to send request: %w", err)
	}

	reply, err := messaging.AwaitAs[R](ctx, h)
	if err != nil {
		return zero, err
	}

	if m, ok := any(reply).(contracts.Identified); ok && correlationID != "" {
		if got := m.GetCorrelationID(); got != correlationID {
			return zero, fmt.Errorf("%w: expected %s, got %s", ErrCorrelationMismatch, correlationID, got)
		}
	}

	return reply, nil
}
