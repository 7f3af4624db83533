package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment; flags override it.
type Config struct {
	HostVersion string `env:"LOOMCTL_HOST_VERSION"`
	LogLevel    string `env:"LOOMCTL_LOG_LEVEL" envDefault:"info"`
	RuleEngine  string `env:"LOOMCTL_RULE_ENGINE" envDefault:"expr"`
	Actor       string `env:"LOOMCTL_ACTOR" envDefault:"loomctl"`
	MetricsOut  string `env:"LOOMCTL_METRICS_OUT"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(value) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", value, err)
	}
	return level, nil
}
