package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// Empty DATABASE_URL selects the in-memory stores; allowed for local
	// only, where a single process is guaranteed.
	DatabaseURL string `env:"DATABASE_URL" validate:"required_unless=Env local"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	BotToken string `env:"TELEGRAM_BOT_TOKEN" validate:"required_unless=Env local"`
	BotName  string `env:"TELEGRAM_BOT_NAME" envDefault:"MeetupLoginBot" validate:"required"`

	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"5m"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	TokenRetention time.Duration `env:"TOKEN_RETENTION" envDefault:"1h"`

	// ConfirmPrompt decides what /start <payload> does: reply with an
	// Authorize/Cancel keyboard (true) or resolve immediately (false).
	ConfirmPrompt bool `env:"AUTH_CONFIRM_PROMPT" envDefault:"true"`

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=32"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
