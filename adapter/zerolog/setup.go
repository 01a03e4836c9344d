package zerologadapter

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/trickstertwo/ddlog"
)

// Config is an explicit, code-first configuration for zerolog + ddlog.
type Config struct {
	Writer            io.Writer // default: os.Stdout
	MinLevel          ddlog.Level
	Console           bool   // zerolog.ConsoleWriter instead of JSON
	ConsoleTimeFormat string // default time.RFC3339Nano
	Caller            bool
	CallerSkip        int // default 5
}

// Build returns a zerolog-backed adapter without touching the global logger.
func Build(cfg Config) *Adapter {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	if cfg.Caller && cfg.CallerSkip <= 0 {
		cfg.CallerSkip = 5
	}

	var zl zerolog.Logger
	if cfg.Console {
		// The console's leading time column reads the "ts" field.
		zerolog.TimestampFieldName = "ts"
		cw := zerolog.ConsoleWriter{Out: w, TimeFormat: cfg.ConsoleTimeFormat}
		if cw.TimeFormat == "" {
			cw.TimeFormat = time.RFC3339Nano
		}
		if !cfg.Caller {
			cw.PartsExclude = append(cw.PartsExclude, zerolog.CallerFieldName)
		}
		zl = zerolog.New(cw)
	} else {
		zl = zerolog.New(w)
	}

	if cfg.Caller {
		zerolog.CallerSkipFrameCount = cfg.CallerSkip
		zl = zl.With().Caller().Logger()
	}

	ad := New(zl)
	ad.SetMinLevel(cfg.MinLevel)
	return ad
}

// Use builds a zerolog-backed logger from cfg, wires it as the global ddlog
// logger and returns it.
func Use(cfg Config) *ddlog.Logger {
	return ddlog.UseAdapter(Build(cfg), cfg.MinLevel)
}
