package infra

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Version is stamped at build time with -ldflags "-X stockmeta/internal/infra.Version=...".
var Version = "dev"

// NewLogger returns the process logger. Every entry carries the service name
// and build version; development output is human readable and verbose.
func NewLogger(appEnv, service string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("version", Version).
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}

	return logger
}

// Logger is the logging type shared across packages.
type Logger = zerolog.Logger
