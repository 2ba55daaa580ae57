package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	rendezvous "github.com/glimte/rendezvous-go"
	"github.com/glimte/rendezvous-go/bridge"
	"github.com/glimte/rendezvous-go/contracts"
	"github.com/glimte/rendezvous-go/health"
	"golang.org/x/sync/errgroup"
)

func newClient(cfg Config, logger *slog.Logger) (*rendezvous.Client, error) {
	return rendezvous.NewClientWithOptions(
		rendezvous.WithLogger(logger),
		rendezvous.WithServiceName(cfg.ServiceName),
		rendezvous.WithMessageTypes(&Ping{}, &Pong{}),
		rendezvous.WithDefaultTimeout(cfg.Timeout),
	)
}

// runExchange plays host and agent against each other for cfg.Rounds rounds
func runExchange(ctx context.Context, cfg Config, logger *slog.Logger, out io.Writer) error {
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		agent := client.Agent()
		for i := 0; i < cfg.Rounds; i++ {
			ping, err := bridge.AwaitFromHost[*Ping](ctx, agent)
			if err != nil {
				return fmt.Errorf("agent receive: %w", err)
			}
			pong := &Pong{BaseReply: contracts.NewBaseReply("Pong", ping), Seq: ping.Seq}
			if err := agent.Send(ctx, pong); err != nil {
				return fmt.Errorf("agent send: %w", err)
			}
		}
		return nil
	})

	g.Go(func() error {
		for i := 1; i <= cfg.Rounds; i++ {
			pong, err := bridge.Request[*Pong](ctx, client.Bridge(), newPing(i))
			if err != nil {
				return fmt.Errorf("round %d: %w", i, err)
			}
			if pong.Seq != i {
				return fmt.Errorf("round %d: agent answered %d", i, pong.Seq)
			}
			logger.Info("round complete", "seq", i, "correlationId", pong.GetCorrelationID())
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	printMetrics(out, client)
	return nil
}

func runHealth(ctx context.Context, cfg Config, logger *slog.Logger, out io.Writer) error {
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	overall := client.Health(ctx)
	printHealth(out, overall)

	if overall.Status == health.StatusUnhealthy {
		return fmt.Errorf("health check failed")
	}
	return nil
}
