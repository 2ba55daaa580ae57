package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/glimte/rendezvous-go/interceptors"
)

// Registry maps type identifiers to rendezvous channels.
//
// Channels are created by Register before any traffic and are never removed.
// Listeners and senders reach a channel only through the registry.
type Registry struct {
	channels map[string]*Channel
	names    map[reflect.Type]string
	mu       sync.RWMutex

	logger *slog.Logger
	namer  TypeNamer
	chain  *interceptors.Chain
}

// RegistryOption configures the Registry
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger for the registry and its channels
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTypeNamer sets how type identifiers are derived from payload types
func WithTypeNamer(namer TypeNamer) RegistryOption {
	return func(r *Registry) {
		if namer != nil {
			r.namer = namer
		}
	}
}

// WithInterceptors appends interceptors run around every Dispatch
func WithInterceptors(items ...interceptors.Interceptor) RegistryOption {
	return func(r *Registry) {
		for _, i := range items {
			r.chain.Add(i)
		}
	}
}

// WithInterceptorChain replaces the interceptor chain
func WithInterceptorChain(chain *interceptors.Chain) RegistryOption {
	return func(r *Registry) {
		if chain != nil {
			r.chain = chain
		}
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		channels: make(map[string]*Channel),
		names:    make(map[reflect.Type]string),
		logger:   slog.Default(),
		namer:    TypeName,
		chain:    interceptors.NewChain(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register creates a channel for prototype's type under the identifier derived by the namer
func (r *Registry) Register(prototype any) error {
	if prototype == nil {
		return fmt.Errorf("message type cannot be nil")
	}
	t := reflect.TypeOf(prototype)
	return r.register(r.namer(t), t)
}

// RegisterAs creates a channel for prototype's type under an explicit identifier
func (r *Registry) RegisterAs(name string, prototype any) error {
	if prototype == nil {
		return fmt.Errorf("message type cannot be nil")
	}
	return r.register(name, reflect.TypeOf(prototype))
}

// CanRegister returns the error Register would return for prototype without registering it
func (r *Registry) CanRegister(prototype any) error {
	if prototype == nil {
		return fmt.Errorf("message type cannot be nil")
	}
	t := reflect.TypeOf(prototype)
	name := r.namer(t)
	if err := checkBindable(name, t); err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, err := r.lookupBinding(name, t)
	return err
}

// register binds name to t. Re-registering the same pair is a no-op so a live
// channel and its pending listener survive; any other overlap is rejected.
func (r *Registry) register(name string, t reflect.Type) error {
	if err := checkBindable(name, t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := r.lookupBinding(name, t)
	if err != nil || exists {
		return err
	}

	r.channels[name] = newChannel(name, t, WithChannelLogger(r.logger))
	r.names[t] = name

	r.logger.Info("registered rendezvous channel", "messageType", name, "goType", t.String())
	return nil
}

func checkBindable(name string, t reflect.Type) error {
	if name == "" {
		return fmt.Errorf("cannot determine type name for %v", t)
	}
	if t.Kind() == reflect.Interface {
		return fmt.Errorf("message type must be concrete, got interface %v", t)
	}
	return nil
}

// lookupBinding reports whether name is already bound to t; callers hold r.mu
func (r *Registry) lookupBinding(name string, t reflect.Type) (bool, error) {
	if existing, ok := r.channels[name]; ok {
		if existing.Type() == t {
			return true, nil
		}
		return false, fmt.Errorf("%w: %s is bound to %v", ErrDuplicateType, name, existing.Type())
	}
	if other, ok := r.names[t]; ok {
		return false, fmt.Errorf("%w: %v is registered as %s", ErrDuplicateType, t, other)
	}
	return false, nil
}

// Channel returns the channel registered under name
func (r *Registry) Channel(name string) (*Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.channels[name]
	return c, ok
}

// IsRegistered checks if a type identifier is registered
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.Channel(name)
	return ok
}

// Types returns all registered type identifiers in sorted order
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.channels))
	for name := range r.channels {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// NameOf returns the identifier msg would be routed under
func (r *Registry) NameOf(msg any) string {
	return r.nameForType(reflect.TypeOf(msg))
}

func (r *Registry) nameForType(t reflect.Type) string {
	r.mu.RLock()
	name, ok := r.names[t]
	r.mu.RUnlock()

	if ok {
		return name
	}
	return r.namer(t)
}

// Listen registers interest in name and returns the handle without waiting on it
func (r *Registry) Listen(name string) (*Handle, error) {
	c, ok := r.Channel(name)
	if !ok {
		r.logger.Warn("no rendezvous channel registered", "messageType", name)
		return nil, unknownType("listen", name)
	}
	return c.RegisterListener()
}

// AwaitMessage registers interest in name and blocks until a message is delivered.
// Unknown identifiers and listener conflicts fail immediately.
func (r *Registry) AwaitMessage(ctx context.Context, name string) (any, error) {
	h, err := r.Listen(name)
	if err != nil {
		return nil, err
	}
	return h.Await(ctx)
}

// Dispatch routes msg to the channel for its runtime type and blocks until a listener takes it
func (r *Registry) Dispatch(ctx context.Context, msg any) error {
	if msg == nil {
		return ErrNilMessage
	}

	name := r.NameOf(msg)
	c, ok := r.Channel(name)
	if !ok {
		r.logger.Warn("no rendezvous channel registered", "messageType", name)
		return unknownType("dispatch", name)
	}

	return r.chain.Execute(ctx, &interceptors.Delivery{Channel: name, Message: msg},
		interceptors.HandlerFunc(func(ctx context.Context, d *interceptors.Delivery) error {
			return c.DeliverMessage(ctx, d.Message)
		}))
}

// ChannelStats is a point-in-time view of one channel
type ChannelStats struct {
	Name           string
	GoType         string
	State          State
	WaitingSenders int
}

// Stats returns a snapshot of every channel, sorted by name
func (r *Registry) Stats() []ChannelStats {
	r.mu.RLock()
	channels := make([]*Channel, 0, len(r.channels))
	for _, c := range r.channels {
		channels = append(channels, c)
	}
	r.mu.RUnlock()

	stats := make([]ChannelStats, 0, len(channels))
	for _, c := range channels {
		stats = append(stats, ChannelStats{
			Name:           c.Name(),
			GoType:         c.Type().String(),
			State:          c.State(),
			WaitingSenders: c.WaitingSenders(),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// RegisterType registers T under the identifier derived by the registry's namer
func RegisterType[T any](r *Registry) error {
	t := typeOf[T]()
	return r.register(r.namer(t), t)
}

// RegisterTypeAs registers T under an explicit identifier
func RegisterTypeAs[T any](r *Registry, name string) error {
	return r.register(name, typeOf[T]())
}

// ListenFor registers interest in T's channel and returns the handle without waiting on it
func ListenFor[T any](r *Registry) (*Handle, error) {
	t := typeOf[T]()
	name := r.nameForType(t)
	c, ok := r.Channel(name)
	if !ok {
		return nil, unknownType("listen", name)
	}
	if c.Type() != t {
		return nil, &TypeMismatchError{Channel: name, Expected: c.Type(), Actual: t}
	}
	return c.RegisterListener()
}

// Receive waits for the next message of type T
func Receive[T any](ctx context.Context, r *Registry) (T, error) {
	h, err := ListenFor[T](r)
	if err != nil {
		var zero T
		return zero, err
	}
	return AwaitAs[T](ctx, h)
}

// AwaitAs waits on h and returns the message as T
func AwaitAs[T any](ctx context.Context, h *Handle) (T, error) {
	var zero T

	msg, err := h.Await(ctx)
	if err != nil {
		return zero, err
	}
	typed, ok := msg.(T)
	if !ok {
		return zero, fmt.Errorf("%w: expected %v, got %T", ErrTypeMismatch, typeOf[T](), msg)
	}
	return typed, nil
}
