package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		envFile  string
		rounds   int
		timeout  time.Duration
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "agentlink",
		Short: "Exchange messages between a host and an agent over rendezvous channels",
		Long: `agentlink runs a host and an agent in one process, connected by a bridge of
rendezvous channels. Every send blocks until the other side listens for that type.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildTime),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file to load")
	rootCmd.PersistentFlags().IntVarP(&rounds, "rounds", "n", 0, "Number of ping/pong rounds (overrides AGENTLINK_ROUNDS)")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 0, "Per-operation timeout (overrides AGENTLINK_TIMEOUT)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides AGENTLINK_LOG_LEVEL)")

	// config resolves env, then applies any flags the user set
	config := func(cmd *cobra.Command) (Config, *slog.Logger, error) {
		cfg, err := loadConfig(envFile)
		if err != nil {
			return cfg, nil, err
		}

		flags := cmd.Flags()
		if flags.Changed("rounds") {
			cfg.Rounds = rounds
		}
		if flags.Changed("timeout") {
			cfg.Timeout = timeout
		}
		if flags.Changed("log-level") {
			if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
				return cfg, nil, fmt.Errorf("invalid log level: %w", err)
			}
		}

		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
		return cfg, logger, nil
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run ping/pong rounds between host and agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := config(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runExchange(ctx, cfg, logger, cmd.OutOrStdout())
		},
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check bridge and runtime health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := config(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()

			return runHealth(ctx, cfg, logger, cmd.OutOrStdout())
		},
	}

	rootCmd.AddCommand(runCmd, healthCmd)
	return rootCmd
}
