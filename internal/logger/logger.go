package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

func New(env string) zerolog.Logger {
	return NewWithWriter(os.Stderr, env)
}

func NewWithWriter(w io.Writer, env string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(w).With().Timestamp().Logger()

	// Human-readable output for local runs.
	if env == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w})
		return logger.Level(zerolog.DebugLevel)
	}

	return logger.Level(zerolog.InfoLevel)
}
