package messaging

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Handle is a single-assignment placeholder returned by Channel.RegisterListener.
// It resolves exactly once, either with the delivered message or with
// ErrListenerWithdrawn.
type Handle struct {
	id      string
	channel *Channel

	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

func newHandle(c *Channel) *Handle {
	return &Handle{
		id:      uuid.New().String(),
		channel: c,
		done:    make(chan struct{}),
	}
}

// ID returns the handle's unique identifier
func (h *Handle) ID() string {
	return h.id
}

// Done is closed once the handle is resolved
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// IsComplete reports whether the handle is resolved without blocking
func (h *Handle) IsComplete() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Await blocks until a message is delivered or ctx is done.
//
// When ctx ends first the handle is withdrawn and the channel returns to Idle.
// If a sender completed the handoff concurrently, the delivered message is
// returned instead of the context error.
func (h *Handle) Await(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
	}

	if h.channel.withdraw(h) {
		return nil, ctx.Err()
	}

	<-h.done
	return h.value, h.err
}

// Cancel withdraws a pending handle. It reports false if the handle was already resolved.
func (h *Handle) Cancel() bool {
	return h.channel.withdraw(h)
}

// resolve completes the handle; only the first call has any effect
func (h *Handle) resolve(value any, err error) bool {
	resolved := false
	h.once.Do(func() {
		h.value = value
		h.err = err
		close(h.done)
		resolved = true
	})
	return resolved
}
