package contracts

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// BaseMessage provides common fields for payload types
type BaseMessage struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Type          string    `json:"type"`
	CorrelationID string    `json:"correlationId,omitempty"`
}

// NewBaseMessage creates a new base message with generated ID and current timestamp
func NewBaseMessage(messageType string) BaseMessage {
	return BaseMessage{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Type:      messageType,
	}
}

// GetID returns the message ID
func (m BaseMessage) GetID() string {
	return m.ID
}

// GetTimestamp returns the message timestamp
func (m BaseMessage) GetTimestamp() time.Time {
	return m.Timestamp
}

// GetType returns the message type tag
func (m BaseMessage) GetType() string {
	return m.Type
}

// GetCorrelationID returns the correlation ID
func (m BaseMessage) GetCorrelationID() string {
	return m.CorrelationID
}

// SetCorrelationID sets the correlation ID
func (m *BaseMessage) SetCorrelationID(correlationID string) {
	m.CorrelationID = correlationID
}

// BaseReply provides common fields for reply messages
type BaseReply struct {
	BaseMessage
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// NewBaseReply creates a successful reply correlated with request.
// If request carries a correlation ID it is propagated, otherwise the request ID is used.
func NewBaseReply(messageType string, request Message) BaseReply {
	reply := BaseReply{
		BaseMessage: NewBaseMessage(messageType),
		Success:     true,
	}
	if request != nil {
		correlationID := request.GetCorrelationID()
		if correlationID == "" {
			correlationID = request.GetID()
		}
		reply.SetCorrelationID(correlationID)
	}
	return reply
}

// Fail marks the reply as failed with the given error
func (r *BaseReply) Fail(err error) {
	r.Success = false
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// IsSuccess returns whether the reply indicates success
func (r BaseReply) IsSuccess() bool {
	return r.Success
}

// GetError returns the failure reported by the reply, nil on success
func (r BaseReply) GetError() error {
	if r.Success {
		return nil
	}
	if r.ErrorMessage == "" {
		return errors.New("reply reported failure")
	}
	return errors.New(r.ErrorMessage)
}
