package ddlog

import (
	"fmt"
	"strconv"
	"strings"
)

// Level keeps slog-style numeric ordering. Sinks receive the level names
// (silly, debug, verbose, info, warn, error, fatal) as strings.
type Level int

const (
	LevelSilly   Level = -12
	LevelDebug   Level = -8
	LevelVerbose Level = -4
	LevelInfo    Level = 0
	LevelWarn    Level = 4
	LevelError   Level = 8
	LevelFatal   Level = 12
)

var levelNames = map[Level]string{
	LevelSilly:   "silly",
	LevelDebug:   "debug",
	LevelVerbose: "verbose",
	LevelInfo:    "info",
	LevelWarn:    "warn",
	LevelError:   "error",
	LevelFatal:   "fatal",
}

// String returns the level name. Levels between the named ones render as
// "level(N)" so sinks still receive a stable, pass-through string.
func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// ParseLevel accepts a level name (case-insensitive, "warning" is an alias
// of "warn") or a decimal number.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		return LevelWarn, nil
	}
	for l, n := range levelNames {
		if n == name {
			return l, nil
		}
	}
	if n, err := strconv.Atoi(name); err == nil {
		return Level(n), nil
	}
	return LevelInfo, fmt.Errorf("ddlog: unknown level %q", s)
}
