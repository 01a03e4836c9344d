package ddlog

import (
	"context"
	"sync/atomic"

	"github.com/trickstertwo/xclock"
)

type Logger struct {
	adapter    Adapter
	minLevel   atomic.Int64
	baseFields []Field

	// Shared with children created by With so sink results reach every
	// listener regardless of which logger emitted the entry.
	events *emitter
}

// Factory: internal constructor.
func newLogger(cfg Config) *Logger {
	l := &Logger{
		adapter: cfg.Adapter,
		events:  newEmitter(),
	}
	l.minLevel.Store(int64(cfg.MinLevel))
	for name, fns := range cfg.Listeners {
		for _, fn := range fns {
			l.On(name, fn)
		}
	}
	return l
}

// Facade: global access (Singleton + Facade).
var global atomic.Pointer[Logger]

// SetGlobal sets the global Logger (Singleton setter).
func SetGlobal(l *Logger) { global.Store(l) }

// L returns the global Logger; panic if unset to surface misconfig early.
func L() *Logger {
	l := global.Load()
	if l == nil {
		panic("ddlog: global logger not set. Build one and call ddlog.SetGlobal(...)")
	}
	return l
}

// Enabled reports whether logs at 'level' would be emitted by this logger.
// Use to avoid building fields in hot paths when disabled.
func (l *Logger) Enabled(level Level) bool {
	return int64(level) >= l.minLevel.Load()
}

// SetMinLevel changes the filter and forwards it to the adapter when supported.
func (l *Logger) SetMinLevel(level Level) {
	l.minLevel.Store(int64(level))
	if ls, ok := l.adapter.(adapterLevelSetter); ok {
		ls.SetMinLevel(level)
	}
}

// Level entry points returning fluent builders.

func (l *Logger) Silly() *Event   { return getEvent(l, LevelSilly) }
func (l *Logger) Debug() *Event   { return getEvent(l, LevelDebug) }
func (l *Logger) Verbose() *Event { return getEvent(l, LevelVerbose) }
func (l *Logger) Info() *Event    { return getEvent(l, LevelInfo) }
func (l *Logger) Warn() *Event    { return getEvent(l, LevelWarn) }
func (l *Logger) Error() *Event   { return getEvent(l, LevelError) }
func (l *Logger) Fatal() *Event   { return getEvent(l, LevelFatal) }

// Log returns a builder for an arbitrary level.
func (l *Logger) Log(level Level) *Event { return getEvent(l, level) }

// With returns a child logger with bound fields.
func (l *Logger) With(fs ...Field) *Logger {
	child := &Logger{
		adapter:    l.adapter.With(fs),
		baseFields: append(copyFields(nil, l.baseFields), fs...),
		events:     l.events,
	}
	child.minLevel.Store(l.minLevel.Load())
	return child
}

// Adapter returns the backend this logger writes to.
func (l *Logger) Adapter() Adapter { return l.adapter }

// Flush waits for asynchronous adapters to deliver pending entries.
func (l *Logger) Flush(ctx context.Context) error {
	if f, ok := l.adapter.(Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}

func (l *Logger) emit(level Level, msg string, evFields []Field) {
	if !l.Enabled(level) {
		return
	}
	// Single authoritative timestamp from xclock
	at := xclock.Now()

	// Fast path: adapter handles bound fields internally; pass only event fields.
	l.adapter.Log(level, msg, at, evFields)

	if !l.events.has(EventLogged) {
		return
	}

	merged := make([]Field, 0, len(l.baseFields)+len(evFields))
	merged = copyFields(merged, l.baseFields)
	merged = copyFields(merged, evFields)

	l.events.emit(EventLogged, Entry{
		At:      at,
		Level:   level,
		Message: msg,
		Fields:  merged,
	})
}
