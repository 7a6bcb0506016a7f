package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	scierrors "github.com/YuminosukeSato/scicov/pkg/errors"
	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger creates a JSON zerolog logger writing to w.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	return &ZerologLogger{
		l: zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger(),
	}
}

// Zerolog returns the underlying zerolog.Logger.
func (z *ZerologLogger) Zerolog() zerolog.Logger {
	return z.l
}

func (z *ZerologLogger) Debug(msg string, fields ...any) { addFields(z.l.Debug(), fields).Msg(msg) }
func (z *ZerologLogger) Info(msg string, fields ...any)  { addFields(z.l.Info(), fields).Msg(msg) }
func (z *ZerologLogger) Warn(msg string, fields ...any)  { addFields(z.l.Warn(), fields).Msg(msg) }

func (z *ZerologLogger) Error(msg string, fields ...any) {
	e := z.l.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			e = e.Err(err)
			if st := extractStacktrace(err); st != "" {
				e = e.Str(StacktraceAttrKey, st)
			}
			fields = fields[1:]
		}
	}
	addFields(e, fields).Msg(msg)
}

func (z *ZerologLogger) With(fields ...any) Logger {
	ctx := z.l.With()
	for i := 0; i+1 < len(fields); i += 2 {
		ctx = ctx.Interface(fmt.Sprint(fields[i]), fields[i+1])
	}
	return &ZerologLogger{l: ctx.Logger()}
}

func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return z.l.GetLevel() <= toZerologLevel(level)
}

func addFields(e *zerolog.Event, fields []any) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ZerologProvider implements LoggerProvider on top of zerolog.
type ZerologProvider struct {
	mu     sync.RWMutex
	logger *ZerologLogger
}

// NewZerologProvider creates a provider writing JSON to w.
func NewZerologProvider(w io.Writer, level Level) *ZerologProvider {
	return &ZerologProvider{logger: NewZerologLogger(w, level)}
}

// GetLogger implements LoggerProvider.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logger
}

// GetLoggerWithName implements LoggerProvider.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = &ZerologLogger{l: p.logger.l.Level(toZerologLevel(level))}
}

// InstallWarningSink routes pkg/errors.Warn into logger at warn level.
// Warnings implementing zerolog.LogObjectMarshaler are embedded as structured
// fields. The returned function restores the previous routing.
func InstallWarningSink(logger zerolog.Logger) (uninstall func()) {
	scierrors.SetZerologWarnFunc(func(w error) {
		e := logger.Warn()
		if obj, ok := w.(zerolog.LogObjectMarshaler); ok {
			e = e.EmbedObject(obj)
		}
		e.Msg(w.Error())
	})
	return func() { scierrors.SetZerologWarnFunc(nil) }
}
