package zapadapter

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trickstertwo/ddlog"
)

// Config is an explicit, code-first configuration for zap + ddlog.
type Config struct {
	Writer             io.Writer // default: os.Stdout
	MinLevel           ddlog.Level
	Console            bool                  // zapcore.NewConsoleEncoder instead of JSON
	EncoderConfig      zapcore.EncoderConfig // zero means the default below
	Caller             bool
	CallerSkip         int    // default 2
	TimestampFieldName string // default "ts"
	SeverityFieldName  string // default "severity"
}

// Build returns a zap-backed adapter without touching the global logger.
// Use it to tee a local console next to a remote sink.
func Build(cfg Config) *Adapter {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	if cfg.Caller && cfg.CallerSkip <= 0 {
		cfg.CallerSkip = 2
	}

	encCfg := cfg.EncoderConfig
	if encCfg.LevelKey == "" && encCfg.MessageKey == "" && encCfg.EncodeTime == nil {
		encCfg = zapcore.EncoderConfig{
			LevelKey:       "level",
			MessageKey:     "message",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			CallerKey:      "caller",
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
	}
	// ddlog supplies the timestamp.
	encCfg.TimeKey = ""

	var enc zapcore.Encoder
	if cfg.Console {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	lvl, _ := toZapLevel(cfg.MinLevel)
	al := zap.NewAtomicLevelAt(lvl)
	opts := []zap.Option{zap.AddStacktrace(zapcore.FatalLevel + 1)}
	if cfg.Caller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(cfg.CallerSkip))
	}

	ad := NewWithAtomicLevel(zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), al), opts...), &al)
	if cfg.TimestampFieldName != "" {
		ad.tsKey = cfg.TimestampFieldName
	}
	if cfg.SeverityFieldName != "" {
		ad.severityKey = cfg.SeverityFieldName
	}
	return ad
}

// Use builds a zap-backed logger from cfg, wires it as the global ddlog
// logger and returns it.
func Use(cfg Config) *ddlog.Logger {
	return ddlog.UseAdapter(Build(cfg), cfg.MinLevel)
}
