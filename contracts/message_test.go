package contracts

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBaseMessage(t *testing.T) {
	t.Run("NewBaseMessage creates valid message", func(t *testing.T) {
		msg := NewBaseMessage("TestMessage")

		assert.NotEmpty(t, msg.ID)
		assert.Equal(t, "TestMessage", msg.Type)
		assert.NotZero(t, msg.Timestamp)
		assert.Empty(t, msg.CorrelationID)

		_, err := uuid.Parse(msg.ID)
		assert.NoError(t, err)
	})

	t.Run("BaseMessage implements Message interface", func(t *testing.T) {
		base := NewBaseMessage("TestMessage")

		var m Message = &base
		assert.Equal(t, base.ID, m.GetID())
		assert.Equal(t, base.Type, m.GetType())
		assert.Equal(t, base.Timestamp, m.GetTimestamp())

		corrID := uuid.New().String()
		m.SetCorrelationID(corrID)
		assert.Equal(t, corrID, base.CorrelationID)
		assert.Equal(t, corrID, m.GetCorrelationID())
	})
}

func TestBaseReply(t *testing.T) {
	t.Run("correlates with request ID", func(t *testing.T) {
		req := NewBaseMessage("Ping")
		reply := NewBaseReply("Pong", &req)

		assert.True(t, reply.IsSuccess())
		assert.NoError(t, reply.GetError())
		assert.Equal(t, req.ID, reply.GetCorrelationID())
		assert.NotEqual(t, req.ID, reply.GetID())
	})

	t.Run("propagates existing correlation ID", func(t *testing.T) {
		req := NewBaseMessage("Ping")
		req.SetCorrelationID("corr-1")

		reply := NewBaseReply("Pong", &req)
		assert.Equal(t, "corr-1", reply.GetCorrelationID())
	})

	t.Run("nil request leaves correlation empty", func(t *testing.T) {
		reply := NewBaseReply("Pong", nil)
		assert.Empty(t, reply.GetCorrelationID())
	})

	t.Run("Fail records error", func(t *testing.T) {
		reply := NewBaseReply("Pong", nil)
		reply.Fail(errors.New("agent busy"))

		var r Reply = &reply
		assert.False(t, r.IsSuccess())
		assert.EqualError(t, r.GetError(), "agent busy")
	})

	t.Run("Fail without error still reports failure", func(t *testing.T) {
		reply := NewBaseReply("Pong", nil)
		reply.Fail(nil)

		assert.Error(t, reply.GetError())
	})
}
