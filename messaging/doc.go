// Package messaging provides single-slot rendezvous channels for handing typed
// messages between goroutines without a queue.
//
// This package implements:
//   - Channel: a rendezvous bound to one Go type with at most one pending listener
//   - Handle: the single-assignment placeholder a listener awaits
//   - Registry: maps type identifiers to channels and routes Listen/Dispatch calls
//
// A listener registers interest and gets a Handle; a sender delivers one value of
// the bound type. A sender that arrives first blocks until a listener registers.
// Exactly one value crosses per registration.
//
// Failures are immediate and never retried internally:
//   - ErrListenerConflict: a second listener registered while one is pending
//   - ErrTypeMismatch: the payload's runtime type differs from the bound type
//   - ErrUnknownType: nothing is registered under the identifier
//
// A listener whose context ends before a message arrives withdraws its handle and
// the channel returns to Idle. Senders blocked on the same channel are not served
// in FIFO order.
//
// Example usage:
//
//	registry := messaging.NewRegistry(messaging.WithRegistryLogger(logger))
//	if err := messaging.RegisterType[*OrderPlaced](registry); err != nil {
//		return err
//	}
//
//	go func() {
//		order, err := messaging.Receive[*OrderPlaced](ctx, registry)
//		// ...
//	}()
//
//	err := registry.Dispatch(ctx, &OrderPlaced{ID: "42"})
package messaging
