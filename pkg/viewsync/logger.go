package viewsync

import (
	"context"
	"log/slog"
)

// SyncEventKind names what a SyncLogEvent describes.
type SyncEventKind string

const (
	EventBroadcast      SyncEventKind = "broadcast"
	EventListenerFailed SyncEventKind = "listener_failed"
	EventEchoDropped    SyncEventKind = "echo_dropped"
)

// SyncLogEvent describes one step of a save broadcast.
type SyncLogEvent struct {
	Kind      SyncEventKind
	Path      string
	Origin    ViewID
	Target    ViewID
	Delivered int
	Err       error
}

// Logger records sync events.
type Logger interface {
	LogSync(SyncLogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(SyncLogEvent)

// LogSync implements Logger.
func (f LoggerFunc) LogSync(event SyncLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogSync(SyncLogEvent) {}

// SlogLogger writes sync events to logger.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return LoggerFunc(func(event SyncLogEvent) {
		attrs := []slog.Attr{
			slog.String("path", event.Path),
			slog.String("origin", string(event.Origin)),
		}
		level := slog.LevelDebug
		msg := "loom broadcast"
		switch event.Kind {
		case EventBroadcast:
			attrs = append(attrs, slog.Int("delivered", event.Delivered))
		case EventListenerFailed:
			level = slog.LevelWarn
			msg = "loom listener failed"
			attrs = append(attrs, slog.String("target", string(event.Target)))
			if event.Err != nil {
				attrs = append(attrs, slog.String("error", event.Err.Error()))
			}
		case EventEchoDropped:
			msg = "loom echo dropped"
		}
		logger.LogAttrs(context.Background(), level, msg, attrs...)
	})
}

// JoinLoggers fans an event out to every non-nil logger.
func JoinLoggers(loggers ...Logger) Logger {
	var out multiLogger
	for _, logger := range loggers {
		if logger != nil {
			out = append(out, logger)
		}
	}
	if len(out) == 0 {
		return noopLogger{}
	}
	return out
}

type multiLogger []Logger

func (m multiLogger) LogSync(event SyncLogEvent) {
	for _, logger := range m {
		logger.LogSync(event)
	}
}
