package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Name is the name of the application that the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// appName is attached to every log line.
	appName string

	// level is the minimum level that is logged.
	level slog.Level

	// w is where the logs are written to. Defaults to stdout.
	w io.Writer
}

// NewConfig creates a new logger config for the given application. The level is read from LOG_LEVEL when it is set.
func NewConfig(name Name) *Config {
	c := &Config{
		appName: string(name),
		level:   slog.LevelDebug,
		w:       os.Stdout,
	}

	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		c.level = lvl
	}

	return c
}

// WithWriter sets the writer that the logger writes to.
func (c *Config) WithWriter(w io.Writer) *Config {
	c.w = w
	return c
}

// WithLevel sets the minimum level of the logger.
func (c *Config) WithLevel(level slog.Level) *Config {
	c.level = level
	return c
}

// CommonLogger creates the JSON logger used by every part of the application and sets it as the default.
func CommonLogger(cfg *Config) (*slog.Logger, error) {
	if cfg == nil {
		return nil, errors.New("logger config is nil")
	}
	if cfg.appName == "" {
		return nil, errors.New("logger config has no app name")
	}

	w := cfg.w
	if w == nil {
		w = os.Stdout
	}

	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     cfg.level,
	})).With(slog.String(KeyApp, cfg.appName))

	slog.SetDefault(l)
	return l, nil
}

// ParseLevel parses a level name such as "info" or "WARN".
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
