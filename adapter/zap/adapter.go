package zapadapter

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trickstertwo/ddlog"
)

// Adapter writes ddlog entries to a go.uber.org/zap logger.
//
//   - With pre-binds fields on a child zap.Logger.
//   - Log uses Check so disabled levels never build fields.
//   - The entry timestamp is written as an RFC3339Nano string under tsKey.
//   - zap has no silly or verbose level; those entries go out at debug with
//     the ddlog level name under severityKey.
type Adapter struct {
	l           *zap.Logger
	al          *zap.AtomicLevel // optional, enables SetMinLevel
	tsKey       string
	severityKey string
}

const (
	defaultTSKey       = "ts"
	defaultSeverityKey = "severity"
)

// New creates an adapter for l. A nil l discards everything.
func New(l *zap.Logger) *Adapter {
	return NewWithAtomicLevel(l, nil)
}

// NewWithAtomicLevel wires al so SetMinLevel adjusts zap's own filter.
func NewWithAtomicLevel(l *zap.Logger, al *zap.AtomicLevel) *Adapter {
	if l == nil {
		l = zap.NewNop()
	}
	return &Adapter{l: l, al: al, tsKey: defaultTSKey, severityKey: defaultSeverityKey}
}

// Zap returns the underlying logger, e.g. to hand it to another component
// for its own diagnostics.
func (a *Adapter) Zap() *zap.Logger { return a.l }

func (a *Adapter) With(fs []ddlog.Field) ddlog.Adapter {
	child := *a
	if len(fs) > 0 {
		child.l = a.l.With(convertFields(fs)...)
	}
	return &child
}

// Log emits one entry. LevelFatal is written at error level; library code
// never exits the process.
func (a *Adapter) Log(level ddlog.Level, msg string, at time.Time, fields []ddlog.Field) {
	zlvl, exact := toZapLevel(level)
	ce := a.l.Check(zlvl, msg)
	if ce == nil {
		return
	}

	zfs := make([]zap.Field, 0, 2+len(fields))
	zfs = append(zfs, zap.String(a.tsKey, at.UTC().Format(time.RFC3339Nano)))
	if !exact {
		zfs = append(zfs, zap.String(a.severityKey, level.String()))
	}
	for i := range fields {
		zfs = append(zfs, toZapField(&fields[i]))
	}
	ce.Write(zfs...)
}

// SetMinLevel updates zap's filter when an AtomicLevel was supplied.
func (a *Adapter) SetMinLevel(l ddlog.Level) {
	if a.al == nil {
		return
	}
	zl, _ := toZapLevel(l)
	a.al.SetLevel(zl)
}

// Flush syncs zap's buffers. Sync errors are dropped: stdout and stderr
// report EINVAL on many platforms.
func (a *Adapter) Flush(context.Context) error {
	_ = a.l.Sync()
	return nil
}

// toZapLevel reports whether the mapping is exact.
func toZapLevel(l ddlog.Level) (zapcore.Level, bool) {
	switch {
	case l < ddlog.LevelDebug:
		return zapcore.DebugLevel, false
	case l == ddlog.LevelDebug:
		return zapcore.DebugLevel, true
	case l < ddlog.LevelInfo:
		return zapcore.DebugLevel, false
	case l == ddlog.LevelInfo:
		return zapcore.InfoLevel, true
	case l <= ddlog.LevelWarn:
		return zapcore.WarnLevel, l == ddlog.LevelWarn
	case l <= ddlog.LevelError:
		return zapcore.ErrorLevel, l == ddlog.LevelError
	default:
		return zapcore.ErrorLevel, false
	}
}

// Verify Adapter implements the facade interfaces.
var (
	_ ddlog.Adapter = (*Adapter)(nil)
	_ ddlog.Flusher = (*Adapter)(nil)
)

func convertFields(fs []ddlog.Field) []zap.Field {
	out := make([]zap.Field, len(fs))
	for i := range fs {
		out[i] = toZapField(&fs[i])
	}
	return out
}

func toZapField(f *ddlog.Field) zap.Field {
	switch f.Kind {
	case ddlog.KindString:
		return zap.String(f.K, f.Str)
	case ddlog.KindInt64:
		return zap.Int64(f.K, f.Int64)
	case ddlog.KindUint64:
		return zap.Uint64(f.K, f.Uint64)
	case ddlog.KindFloat64:
		return zap.Float64(f.K, f.Float64)
	case ddlog.KindBool:
		return zap.Bool(f.K, f.Bool)
	case ddlog.KindDuration:
		return zap.Duration(f.K, f.Dur)
	case ddlog.KindTime:
		return zap.Time(f.K, f.Time)
	case ddlog.KindError:
		if f.Err == nil {
			return zap.Skip()
		}
		if f.K == "" || f.K == "error" {
			return zap.Error(f.Err)
		}
		return zap.NamedError(f.K, f.Err)
	case ddlog.KindBytes:
		return zap.ByteString(f.K, f.Bytes)
	case ddlog.KindAny:
		return zap.Any(f.K, f.Any)
	default:
		return zap.Skip()
	}
}
