package loom

import (
	"context"
	"log/slog"
	"time"
)

// MigrationLogEvent describes one Migrate call.
type MigrationLogEvent struct {
	Declared string
	From     SchemaVersion
	To       SchemaVersion
	Steps    []string
	Duration time.Duration
	Err      error
}

// MigrationLogger records migration events.
type MigrationLogger interface {
	LogMigration(MigrationLogEvent)
}

// MigrationLoggerFunc adapts a function to MigrationLogger.
type MigrationLoggerFunc func(MigrationLogEvent)

// LogMigration implements MigrationLogger.
func (f MigrationLoggerFunc) LogMigration(event MigrationLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopMigrationLogger struct{}

func (noopMigrationLogger) LogMigration(MigrationLogEvent) {}

// SlogLogger writes migration events to logger. Loads that needed no steps
// are logged at debug level.
func SlogLogger(logger *slog.Logger) MigrationLogger {
	if logger == nil {
		return noopMigrationLogger{}
	}
	return MigrationLoggerFunc(func(event MigrationLogEvent) {
		attrs := []slog.Attr{
			slog.String("declared", event.Declared),
			slog.String("from", event.From.String()),
			slog.String("to", event.To.String()),
			slog.Any("steps", event.Steps),
			slog.Duration("duration", event.Duration),
		}
		switch {
		case event.Err != nil:
			kind, _ := KindOf(event.Err)
			attrs = append(attrs, slog.String("kind", string(kind)), slog.String("error", event.Err.Error()))
			logger.LogAttrs(context.Background(), slog.LevelWarn, "loom migration failed", attrs...)
		case len(event.Steps) == 0:
			logger.LogAttrs(context.Background(), slog.LevelDebug, "loom loaded", attrs...)
		default:
			logger.LogAttrs(context.Background(), slog.LevelInfo, "loom migrated", attrs...)
		}
	})
}

// JoinLoggers fans an event out to every non-nil logger.
func JoinLoggers(loggers ...MigrationLogger) MigrationLogger {
	var out multiLogger
	for _, logger := range loggers {
		if logger != nil {
			out = append(out, logger)
		}
	}
	switch len(out) {
	case 0:
		return noopMigrationLogger{}
	case 1:
		return out[0]
	}
	return out
}

type multiLogger []MigrationLogger

func (m multiLogger) LogMigration(event MigrationLogEvent) {
	for _, logger := range m {
		logger.LogMigration(event)
	}
}

