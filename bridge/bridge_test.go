package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/glimte/rendezvous-go/contracts"
	"github.com/glimte/rendezvous-go/interceptors"
	"github.com/glimte/rendezvous-go/internal/reliability"
	"github.com/glimte/rendezvous-go/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type TestTask struct {
	contracts.BaseMessage
	Instruction string `json:"instruction"`
}

type TestReport struct {
	contracts.BaseReply
	Result string `json:"result"`
}

func newTestBridge(t *testing.T, opts ...BridgeOption) *AgentBridge {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := NewAgentBridge(append([]BridgeOption{WithLogger(logger)}, opts...)...)
	require.NoError(t, b.Register(&TestTask{}, &TestReport{}))
	return b
}

func newTask(instruction string) *TestTask {
	return &TestTask{BaseMessage: contracts.NewBaseMessage("TestTask"), Instruction: instruction}
}

func TestAgentBridgeRegister(t *testing.T) {
	b := newTestBridge(t)

	assert.Equal(t, []string{"TestReport", "TestTask"}, b.Inbound().Types())
	assert.Equal(t, []string{"TestReport", "TestTask"}, b.Outbound().Types())
	assert.NotSame(t, b.Inbound(), b.Outbound())

	err := b.Register(TestTask{})
	assert.ErrorIs(t, err, messaging.ErrDuplicateType)
}

func TestAgentBridgeRegisterConflictInOneDirection(t *testing.T) {
	type TestStatus struct{ Phase string }

	b := newTestBridge(t)
	require.NoError(t, b.Outbound().RegisterAs("status.v1", &TestStatus{}))

	err := b.Register(&TestStatus{})
	assert.ErrorIs(t, err, messaging.ErrDuplicateType)
	assert.ErrorContains(t, err, "outbound")

	assert.False(t, b.Inbound().IsRegistered("TestStatus"))
	assert.Equal(t, []string{"TestReport", "TestTask"}, b.Inbound().Types())
	assert.Equal(t, []string{"TestReport", "TestTask", "status.v1"}, b.Outbound().Types())
}

func TestAgentBridgeDirections(t *testing.T) {
	b := newTestBridge(t)
	agent := b.Agent()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("host to agent", func(t *testing.T) {
		task := newTask("index")

		var got any
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			got, err = agent.Receive(gctx, "TestTask")
			return err
		})
		g.Go(func() error { return b.SendToAgent(gctx, task) })

		require.NoError(t, g.Wait())
		assert.Same(t, task, got)
	})

	t.Run("agent to host", func(t *testing.T) {
		report := &TestReport{Result: "done"}

		var got any
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			got, err = b.ReceiveFromAgent(gctx, "TestReport")
			return err
		})
		g.Go(func() error { return agent.Send(gctx, report) })

		require.NoError(t, g.Wait())
		assert.Same(t, report, got)
	})

	t.Run("directions are isolated", func(t *testing.T) {
		// the host listening for a task from the agent does not see tasks sent to the agent
		h, err := b.Outbound().Listen("TestTask")
		require.NoError(t, err)
		defer h.Cancel()

		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		err = b.SendToAgent(short, newTask("lost"))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, h.IsComplete())
	})
}

func TestAgentBridgeUnknownType(t *testing.T) {
	b := newTestBridge(t)
	ctx := context.Background()

	_, err := b.ReceiveFromAgent(ctx, "Unregistered")
	assert.ErrorIs(t, err, messaging.ErrUnknownType)

	_, err = b.Agent().Receive(ctx, "Unregistered")
	assert.ErrorIs(t, err, messaging.ErrUnknownType)

	type Unregistered struct{}
	assert.ErrorIs(t, b.SendToAgent(ctx, &Unregistered{}), messaging.ErrUnknownType)
	assert.ErrorIs(t, b.Agent().Send(ctx, &Unregistered{}), messaging.ErrUnknownType)
}

func TestAgentBridgeDefaultTimeout(t *testing.T) {
	b := newTestBridge(t, WithDefaultTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := b.ReceiveFromAgent(context.Background(), "TestReport")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	c, _ := b.Outbound().Channel("TestReport")
	assert.Equal(t, messaging.StateIdle, c.State())

	err = b.SendToAgent(context.Background(), newTask("nobody listening"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAgentBridgeListenerConflict(t *testing.T) {
	t.Run("without retry policy", func(t *testing.T) {
		b := newTestBridge(t)

		h, err := b.Outbound().Listen("TestReport")
		require.NoError(t, err)
		defer h.Cancel()

		_, err = b.ReceiveFromAgent(context.Background(), "TestReport")
		assert.ErrorIs(t, err, messaging.ErrListenerConflict)
	})

	t.Run("retry waits for the slot to free up", func(t *testing.T) {
		b := newTestBridge(t, WithRetryPolicy(reliability.NewFixedDelay(5*time.Millisecond, 50)))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		first, err := b.Outbound().Listen("TestReport")
		require.NoError(t, err)

		go func() {
			time.Sleep(20 * time.Millisecond)
			first.Cancel()
			_ = b.Agent().Send(ctx, &TestReport{Result: "second"})
		}()

		got, err := AwaitFromAgent[*TestReport](ctx, b)
		require.NoError(t, err)
		assert.Equal(t, "second", got.Result)
	})

	t.Run("retry gives up", func(t *testing.T) {
		b := newTestBridge(t, WithRetryPolicy(reliability.NewFixedDelay(time.Millisecond, 2)))

		h, err := b.Outbound().Listen("TestReport")
		require.NoError(t, err)
		defer h.Cancel()

		_, err = b.ReceiveFromAgent(context.Background(), "TestReport")
		assert.ErrorIs(t, err, messaging.ErrListenerConflict)

		var retryErr *reliability.RetryError
		assert.True(t, errors.As(err, &retryErr))
	})

	t.Run("unknown type is not retried", func(t *testing.T) {
		b := newTestBridge(t, WithRetryPolicy(reliability.NewFixedDelay(time.Second, 5)))

		start := time.Now()
		_, err := b.ReceiveFromAgent(context.Background(), "Unregistered")
		assert.ErrorIs(t, err, messaging.ErrUnknownType)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})
}

func TestAgentBridgeTyped(t *testing.T) {
	b := newTestBridge(t)
	agent := b.Agent()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() { _ = b.SendToAgent(ctx, newTask("typed")) }()

	task, err := AwaitFromHost[*TestTask](ctx, agent)
	require.NoError(t, err)
	assert.Equal(t, "typed", task.Instruction)

	_, err = AwaitFromHost[TestTask](ctx, agent)
	assert.ErrorIs(t, err, messaging.ErrTypeMismatch)
}

func TestRequest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("round trip with correlation", func(t *testing.T) {
		b := newTestBridge(t)
		agent := b.Agent()

		go func() {
			task, err := AwaitFromHost[*TestTask](ctx, agent)
			if err != nil {
				return
			}
			report := &TestReport{
				BaseReply: contracts.NewBaseReply("TestReport", task),
				Result:    "handled " + task.Instruction,
			}
			_ = agent.Send(ctx, report)
		}()

		task := newTask("summarise")
		report, err := Request[*TestReport](ctx, b, task)
		require.NoError(t, err)
		assert.Equal(t, "handled summarise", report.Result)
		assert.NotEmpty(t, task.GetCorrelationID())
		assert.Equal(t, task.GetCorrelationID(), report.GetCorrelationID())
	})

	t.Run("rejects uncorrelated reply", func(t *testing.T) {
		b := newTestBridge(t)
		agent := b.Agent()

		go func() {
			if _, err := AwaitFromHost[*TestTask](ctx, agent); err != nil {
				return
			}
			report := &TestReport{BaseReply: contracts.NewBaseReply("TestReport", nil)}
			report.SetCorrelationID("someone-else")
			_ = agent.Send(ctx, report)
		}()

		_, err := Request[*TestReport](ctx, b, newTask("x"))
		assert.ErrorIs(t, err, ErrCorrelationMismatch)
	})

	t.Run("send failure releases the reply listener", func(t *testing.T) {
		b := newTestBridge(t)

		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, err := Request[*TestReport](short, b, newTask("nobody home"))
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		c, _ := b.Outbound().Channel("TestReport")
		assert.Equal(t, messaging.StateIdle, c.State())
	})
}

func TestAgentBridgeInterceptors(t *testing.T) {
	metrics := interceptors.NewInMemoryMetricsCollector()
	b := newTestBridge(t, WithInterceptors(interceptors.NewMetricsInterceptor(metrics, nil)))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() { _, _ = b.Agent().Receive(ctx, "TestTask") }()
	require.NoError(t, b.SendToAgent(ctx, newTask("counted")))

	stats := metrics.GetStats()
	require.Len(t, stats, 1)
	assert.Equal(t, "TestTask", stats[0].MessageType)
	assert.Equal(t, int64(1), stats[0].Delivered)
}
