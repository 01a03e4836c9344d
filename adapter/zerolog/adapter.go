package zerologadapter

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/trickstertwo/ddlog"
)

// Adapter writes ddlog entries to rs/zerolog.
//
//   - With pre-binds fields on a child zerolog.Logger.
//   - Log drops disabled levels before allocating a zerolog.Event.
//   - silly goes out at trace and verbose at debug, each with the ddlog level
//     name under "severity".
type Adapter struct {
	l zerolog.Logger
}

func New(l zerolog.Logger) *Adapter {
	return &Adapter{l: l}
}

func (a *Adapter) With(fs []ddlog.Field) ddlog.Adapter {
	child := *a
	if len(fs) == 0 {
		return &child
	}
	ctx := a.l.With()
	for i := range fs {
		ctx = appendCtxField(ctx, &fs[i])
	}
	child.l = ctx.Logger()
	return &child
}

// Log emits one entry under "ts" with RFC3339Nano precision. Fatal is written
// at error level; zerolog's fatal would exit the process.
func (a *Adapter) Log(level ddlog.Level, msg string, at time.Time, fields []ddlog.Field) {
	zlvl, exact := mapLevel(level)
	if zlvl < a.l.GetLevel() {
		return
	}

	ev := a.l.WithLevel(zlvl)
	ev.Str("ts", at.UTC().Format(time.RFC3339Nano))
	if !exact {
		ev.Str("severity", level.String())
	}
	for i := range fields {
		appendEventField(ev, &fields[i])
	}
	ev.Msg(msg)
}

// SetMinLevel propagates the facade's level into zerolog.
func (a *Adapter) SetMinLevel(l ddlog.Level) {
	zl, _ := mapLevel(l)
	a.l = a.l.Level(zl)
}

// Flush is a no-op; zerolog writes synchronously.
func (a *Adapter) Flush(context.Context) error { return nil }

// mapLevel reports whether the zerolog level names the ddlog level exactly.
func mapLevel(l ddlog.Level) (zerolog.Level, bool) {
	switch {
	case l < ddlog.LevelDebug:
		return zerolog.TraceLevel, false
	case l == ddlog.LevelDebug:
		return zerolog.DebugLevel, true
	case l < ddlog.LevelInfo:
		return zerolog.DebugLevel, false
	case l == ddlog.LevelInfo:
		return zerolog.InfoLevel, true
	case l <= ddlog.LevelWarn:
		return zerolog.WarnLevel, l == ddlog.LevelWarn
	case l <= ddlog.LevelError:
		return zerolog.ErrorLevel, l == ddlog.LevelError
	default:
		return zerolog.ErrorLevel, false
	}
}

func appendEventField(e *zerolog.Event, f *ddlog.Field) {
	switch f.Kind {
	case ddlog.KindString:
		e.Str(f.K, f.Str)
	case ddlog.KindInt64:
		e.Int64(f.K, f.Int64)
	case ddlog.KindUint64:
		e.Uint64(f.K, f.Uint64)
	case ddlog.KindFloat64:
		e.Float64(f.K, f.Float64)
	case ddlog.KindBool:
		e.Bool(f.K, f.Bool)
	case ddlog.KindDuration:
		e.Dur(f.K, f.Dur)
	case ddlog.KindTime:
		e.Time(f.K, f.Time)
	case ddlog.KindError:
		if f.Err == nil {
			return
		}
		if f.K == "" || f.K == "error" {
			e.Err(f.Err)
		} else {
			e.AnErr(f.K, f.Err)
		}
	case ddlog.KindBytes:
		e.Bytes(f.K, f.Bytes)
	default:
		e.Interface(f.K, f.Any)
	}
}

func appendCtxField(ctx zerolog.Context, f *ddlog.Field) zerolog.Context {
	switch f.Kind {
	case ddlog.KindString:
		return ctx.Str(f.K, f.Str)
	case ddlog.KindInt64:
		return ctx.Int64(f.K, f.Int64)
	case ddlog.KindUint64:
		return ctx.Uint64(f.K, f.Uint64)
	case ddlog.KindFloat64:
		return ctx.Float64(f.K, f.Float64)
	case ddlog.KindBool:
		return ctx.Bool(f.K, f.Bool)
	case ddlog.KindDuration:
		return ctx.Dur(f.K, f.Dur)
	case ddlog.KindTime:
		return ctx.Time(f.K, f.Time)
	case ddlog.KindError:
		if f.Err == nil {
			return ctx
		}
		if f.K == "" || f.K == "error" {
			return ctx.Err(f.Err)
		}
		return ctx.Str(f.K, f.Err.Error())
	case ddlog.KindBytes:
		return ctx.Bytes(f.K, f.Bytes)
	default:
		return ctx.Interface(f.K, f.Any)
	}
}

// Verify Adapter implements the facade interfaces.
var (
	_ ddlog.Adapter = (*Adapter)(nil)
	_ ddlog.Flusher = (*Adapter)(nil)
)
