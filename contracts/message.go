package contracts

import (
	"time"
)

// Identified is the read-only part of Message. Values embedding BaseMessage satisfy
// it whether or not they are passed by pointer.
type Identified interface {
	GetID() string
	GetCorrelationID() string
}

// Message is the optional base interface for payloads exchanged through a rendezvous.
// The core routes any Go value; payloads implementing Message additionally get
// their identifiers attached to log lines and metrics.
type Message interface {
	Identified
	GetTimestamp() time.Time
	GetType() string
	SetCorrelationID(correlationID string)
}

// Reply represents an answer to a previously received message
type Reply interface {
	Message
	IsSuccess() bool
	GetError() error
}
