package config

import (
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds the process root logger: human-readable console output in
// dev, JSON elsewhere.
func NewLogger(env, service string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Logger()

	if env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	return logger
}
