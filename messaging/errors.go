package messaging

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrListenerConflict is returned when a listener registers while another is still pending
	ErrListenerConflict = errors.New("rendezvous: listener already registered")

	// ErrTypeMismatch is returned when a payload's runtime type differs from the channel's bound type
	ErrTypeMismatch = errors.New("rendezvous: message type mismatch")

	// ErrUnknownType is returned when no channel is registered for a type identifier
	ErrUnknownType = errors.New("rendezvous: unknown message type")

	// ErrDuplicateType is returned when an identifier or Go type is already bound elsewhere
	ErrDuplicateType = errors.New("rendezvous: message type already registered")

	// ErrListenerWithdrawn resolves a handle whose listener gave up before a message arrived
	ErrListenerWithdrawn = errors.New("rendezvous: listener withdrawn")

	// ErrNilMessage is returned when dispatching a nil payload
	ErrNilMessage = errors.New("rendezvous: message cannot be nil")
)

// ChannelError carries the channel and operation that produced a rendezvous failure
type ChannelError struct {
	Channel string
	Op      string
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// TypeMismatchError describes a rejected delivery
type TypeMismatchError struct {
	Channel  string
	Expected reflect.Type
	Actual   reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("deliver %s: %v: expected %v, got %v", e.Channel, ErrTypeMismatch, e.Expected, e.Actual)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

func unknownType(op, name string) error {
	return &ChannelError{Channel: name, Op: op, Err: ErrUnknownType}
}
