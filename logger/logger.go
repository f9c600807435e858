package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger implements Logger on top of zerolog.
type ZeroLogger struct {
	zlog *zerolog.Logger
}

var _ Logger = (*ZeroLogger)(nil)

// New creates a logger writing JSON to stdout. With pretty set, output is
// formatted for human readability instead. Unknown levels fall back to info.
func New(level string, pretty bool) *ZeroLogger {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(out).With().Timestamp().Logger()

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l}
}

// NewWithWriter creates a logger writing JSON to w. Intended for tests.
func NewWithWriter(level string, w io.Writer) *ZeroLogger {
	l := zerolog.New(w).With().Timestamp().Logger()
	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)
	return &ZeroLogger{zlog: &l}
}

// WithContext returns a logger bound to the zerolog logger stored in ctx,
// falling back to the receiver when none is attached.
func (l *ZeroLogger) WithContext(ctx any) Logger {
	if c, ok := ctx.(context.Context); ok {
		zl := zerolog.Ctx(c)
		if zl == nil || zl.GetLevel() == zerolog.Disabled {
			return l
		}
		return &ZeroLogger{zlog: zl}
	}
	return l
}

// WithFields returns a logger with fields attached to all entries.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log}
}

func (l *ZeroLogger) Debug() LogEvent { return &zerologEvent{event: l.zlog.Debug()} }
func (l *ZeroLogger) Info() LogEvent  { return &zerologEvent{event: l.zlog.Info()} }
func (l *ZeroLogger) Warn() LogEvent  { return &zerologEvent{event: l.zlog.Warn()} }
func (l *ZeroLogger) Error() LogEvent { return &zerologEvent{event: l.zlog.Error()} }
func (l *ZeroLogger) Fatal() LogEvent { return &zerologEvent{event: l.zlog.Fatal()} }

// zerologEvent adapts zerolog events to the LogEvent interface.
type zerologEvent struct {
	event *zerolog.Event
}

func (e *zerologEvent) Msg(msg string)                  { e.event.Msg(msg) }
func (e *zerologEvent) Msgf(format string, args ...any) { e.event.Msgf(format, args...) }

func (e *zerologEvent) Err(err error) LogEvent {
	return &zerologEvent{event: e.event.Err(err)}
}

func (e *zerologEvent) Str(key, value string) LogEvent {
	return &zerologEvent{event: e.event.Str(key, value)}
}

func (e *zerologEvent) Int(key string, value int) LogEvent {
	return &zerologEvent{event: e.event.Int(key, value)}
}

func (e *zerologEvent) Int64(key string, value int64) LogEvent {
	return &zerologEvent{event: e.event.Int64(key, value)}
}

func (e *zerologEvent) Dur(key string, d time.Duration) LogEvent {
	return &zerologEvent{event: e.event.Dur(key, d)}
}

func (e *zerologEvent) Interface(key string, i any) LogEvent {
	return &zerologEvent{event: e.event.Interface(key, i)}
}
