package logging

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the structured logger used across the service
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, fields map[string]interface{})
}

type zerologLogger struct {
	logger zerolog.Logger
}

// Option represents an option for configuring the logger
type Option func(*zerolog.Logger)

// WithLevel sets the minimum level the logger emits
func WithLevel(level string) Option {
	return func(l *zerolog.Logger) {
		*l = l.Level(parseLevel(level))
	}
}

// New creates a logger writing JSON lines to stderr. The level defaults to
// the LOG_LEVEL environment variable, or info.
func New(options ...Option) Logger {
	zl := zerolog.New(os.Stderr).
		Level(parseLevel(os.Getenv("LOG_LEVEL"))).
		With().
		Timestamp().
		Logger()

	for _, option := range options {
		option(&zl)
	}

	return &zerologLogger{logger: zl}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *zerologLogger) Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Error(ctx context.Context, msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}
