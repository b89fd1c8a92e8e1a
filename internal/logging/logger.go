// Package logging builds the zerolog logger shared by every service binary.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
)

// New returns a logger configured from cfg and tagged with the service name.
// Format "console" gives human-readable output; anything else is JSON.
func New(cfg config.LoggingConfig, service config.Service) zerolog.Logger {
	return NewWithWriter(cfg, service, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LoggingConfig, service config.Service, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	w := out
	if cfg.Format == "console" {
		timeFormat := cfg.TimeFormat
		if timeFormat == "" {
			timeFormat = time.RFC3339
		}
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", string(service)).
		Logger()
}
