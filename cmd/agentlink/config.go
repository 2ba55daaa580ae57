package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from AGENTLINK_* environment variables, optionally seeded from a .env file
type Config struct {
	Rounds      int           `env:"ROUNDS" envDefault:"3"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"5s"`
	LogLevel    slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string        `env:"SERVICE_NAME" envDefault:"agentlink"`
}

func loadConfig(envFile string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "AGENTLINK_"}); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Rounds < 1 {
		return cfg, fmt.Errorf("rounds must be positive, got %d", cfg.Rounds)
	}
	return cfg, nil
}
