package zerologadapter

import (
	"io"
	"os"
	"strconv"

	"github.com/trickstertwo/ddlog"
)

// Env read by the default factory:
//
//	DDLOG_MIN_LEVEL or DDLOG_LEVEL : silly|debug|verbose|info|warn|error|fatal (default info)
//	DDLOG_CONSOLE=1                : ConsoleWriter (pretty output)
//	DDLOG_CALLER=1                 : include caller
//	DDLOG_CALLER_SKIP=<int>        : frames to skip (default 5)
//	DDLOG_CONSOLE_TIMEFORMAT=...   : console time layout (default RFC3339Nano)
func init() {
	ddlog.RegisterDefaultAdapterFactory(func(w io.Writer) ddlog.Adapter {
		return Build(ConfigFromEnv(w))
	})
}

// ConfigFromEnv reads the DDLOG_* variables into a Config writing to w.
func ConfigFromEnv(w io.Writer) Config {
	if w == nil {
		w = os.Stdout
	}
	level, err := ddlog.ParseLevel(firstNonEmpty(os.Getenv("DDLOG_MIN_LEVEL"), os.Getenv("DDLOG_LEVEL")))
	if err != nil {
		level = ddlog.LevelInfo
	}
	return Config{
		Writer:            w,
		MinLevel:          level,
		Console:           os.Getenv("DDLOG_CONSOLE") == "1",
		ConsoleTimeFormat: os.Getenv("DDLOG_CONSOLE_TIMEFORMAT"),
		Caller:            os.Getenv("DDLOG_CALLER") == "1",
		CallerSkip:        parseInt(os.Getenv("DDLOG_CALLER_SKIP"), 5),
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
