// Package config loads dev server settings from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr  string     `env:"HTTP_ADDR" envDefault:":8080"`
	BoardRows int        `env:"BOARD_ROWS" envDefault:"5"`
	BoardCols int        `env:"BOARD_COLS" envDefault:"5"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load reads QUESTBINGO_*-prefixed variables.
func Load() (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "QUESTBINGO_"})
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.BoardRows < 1 || cfg.BoardCols < 1 {
		return nil, fmt.Errorf("board must be at least 1x1, got %dx%d", cfg.BoardRows, cfg.BoardCols)
	}
	return &cfg, nil
}
