package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
)

// State is the state of a rendezvous channel
type State string

const (
	// StateIdle means no listener is pending
	StateIdle State = "idle"
	// StateArmed means exactly one listener is waiting for a message
	StateArmed State = "armed"
)

// Channel is a single-slot rendezvous bound to one message type.
//
// At most one listener may be pending at a time. A sender blocks until a listener
// is pending and then hands over exactly one message.
type Channel struct {
	name      string
	boundType reflect.Type
	logger    *slog.Logger

	mu      sync.Mutex
	pending *Handle
	// armed is closed when a listener registers and replaced when the slot empties
	armed chan struct{}

	waiting atomic.Int64
}

// ChannelOption configures a Channel
type ChannelOption func(*Channel)

// WithChannelLogger sets the logger
func WithChannelLogger(logger *slog.Logger) ChannelOption {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChannel creates a channel named name that accepts values of prototype's exact type
func NewChannel(name string, prototype any, opts ...ChannelOption) (*Channel, error) {
	if name == "" {
		return nil, fmt.Errorf("channel name cannot be empty")
	}
	if prototype == nil {
		return nil, fmt.Errorf("message type cannot be nil")
	}

	return newChannel(name, reflect.TypeOf(prototype), opts...), nil
}

func newChannel(name string, t reflect.Type, opts ...ChannelOption) *Channel {
	c := &Channel{
		name:      name,
		boundType: t,
		logger:    slog.Default(),
		armed:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the type identifier the channel is registered under
func (c *Channel) Name() string {
	return c.name
}

// Type returns the bound message type
func (c *Channel) Type() reflect.Type {
	return c.boundType
}

// State returns the current state
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return StateArmed
	}
	return StateIdle
}

// WaitingSenders returns the number of senders blocked waiting for a listener
func (c *Channel) WaitingSenders() int {
	return int(c.waiting.Load())
}

// RegisterListener arms the channel and returns a handle the caller awaits separately.
// It never blocks and fails with ErrListenerConflict if a listener is already pending.
func (c *Channel) RegisterListener() (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return nil, &ChannelError{Channel: c.name, Op: "listen", Err: ErrListenerConflict}
	}

	h := newHandle(c)
	c.pending = h
	close(c.armed)

	c.logger.Debug("listener registered", "channel", c.name, "handleId", h.id)
	return h, nil
}

// DeliverMessage hands msg to the pending listener, waiting for one if necessary.
//
// The type check runs before the channel is touched. Blocked senders are all woken
// when a listener registers; one completes the handoff and the rest wait for the
// next listener. Returns ctx.Err() if ctx ends while waiting.
func (c *Channel) DeliverMessage(ctx context.Context, msg any) error {
	if err := c.checkType(msg); err != nil {
		return err
	}

	c.waiting.Add(1)
	defer c.waiting.Add(-1)

	for {
		c.mu.Lock()
		if h := c.pending; h != nil {
			c.disarm()
			c.mu.Unlock()

			h.resolve(msg, nil)
			c.logger.Debug("message handed over", "channel", c.name, "handleId", h.id)
			return nil
		}
		armed := c.armed
		c.mu.Unlock()

		select {
		case <-armed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Channel) checkType(msg any) error {
	actual := reflect.TypeOf(msg)
	if actual != c.boundType {
		return &TypeMismatchError{Channel: c.name, Expected: c.boundType, Actual: actual}
	}
	return nil
}

// disarm empties the slot; callers hold c.mu
func (c *Channel) disarm() {
	c.pending = nil
	c.armed = make(chan struct{})
}

// withdraw releases h if it is still pending and reports whether it did so
func (c *Channel) withdraw(h *Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != h {
		return false
	}

	c.disarm()
	h.resolve(nil, &ChannelError{Channel: c.name, Op: "listen", Err: ErrListenerWithdrawn})
	c.logger.Debug("listener withdrawn", "channel", c.name, "handleId", h.id)
	return true
}
