package zerologadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/trickstertwo/ddlog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("json unmarshal: %v; line=%s", err, line)
		}
		out = append(out, m)
	}
	return out
}

func TestZerologAdapter_JSON_EmitsTSAndFields(t *testing.T) {
	var buf bytes.Buffer
	a := New(zerolog.New(&buf))

	at := time.Date(2024, 12, 31, 23, 59, 59, 123456789, time.UTC)
	a.Log(ddlog.LevelInfo, "state changed", at, []ddlog.Field{
		ddlog.Str("from", "old"),
		ddlog.Int64("count", 2),
		ddlog.Bool("ok", true),
		ddlog.Dur("dur", time.Millisecond),
		ddlog.Err("error", errors.New("boom")),
		ddlog.Err("cause", errors.New("disk")),
	})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	m := lines[0]
	if m["level"] != "info" || m["message"] != "state changed" {
		t.Fatalf("level/message mismatch: %v", m)
	}
	if m["ts"] != at.Format(time.RFC3339Nano) {
		t.Fatalf("ts mismatch: %v", m["ts"])
	}
	// zerolog renders durations in milliseconds by default.
	if m["from"] != "old" || m["count"] != float64(2) || m["ok"] != true || m["dur"] != float64(1) {
		t.Fatalf("fields mismatch: %v", m)
	}
	if m["error"] != "boom" || m["cause"] != "disk" {
		t.Fatalf("error fields mismatch: %v", m)
	}
}

func TestZerologAdapter_LevelMapping(t *testing.T) {
	var buf bytes.Buffer
	a := New(zerolog.New(&buf))

	at := time.Unix(0, 0).UTC()
	for _, l := range []ddlog.Level{ddlog.LevelDebug, ddlog.LevelVerbose, ddlog.LevelWarn, ddlog.LevelFatal} {
		a.Log(l, l.String(), at, nil)
	}

	want := []struct{ level, severity string }{
		{"debug", ""}, {"debug", "verbose"}, {"warn", ""}, {"error", "fatal"},
	}
	lines := decodeLines(t, &buf)
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i, w := range want {
		sev, _ := lines[i]["severity"].(string)
		if lines[i]["level"] != w.level || sev != w.severity {
			t.Fatalf("line %d: %v", i, lines[i])
		}
	}
}

func TestMapLevel(t *testing.T) {
	cases := []struct {
		in    ddlog.Level
		want  zerolog.Level
		exact bool
	}{
		{ddlog.LevelSilly, zerolog.TraceLevel, false},
		{ddlog.LevelDebug, zerolog.DebugLevel, true},
		{ddlog.LevelVerbose, zerolog.DebugLevel, false},
		{ddlog.LevelInfo, zerolog.InfoLevel, true},
		{ddlog.Level(2), zerolog.WarnLevel, false},
		{ddlog.LevelWarn, zerolog.WarnLevel, true},
		{ddlog.LevelError, zerolog.ErrorLevel, true},
		{ddlog.LevelFatal, zerolog.ErrorLevel, false},
	}
	for _, c := range cases {
		got, exact := mapLevel(c.in)
		if got != c.want || exact != c.exact {
			t.Fatalf("mapLevel(%v) = %v,%v want %v,%v", c.in, got, exact, c.want, c.exact)
		}
	}
}

func TestZerologAdapter_WithBoundFields(t *testing.T) {
	var buf bytes.Buffer
	a := New(zerolog.New(&buf))

	a2 := a.With([]ddlog.Field{ddlog.Str("svc", "api"), ddlog.Str("ver", "1.0.0")})
	a2.Log(ddlog.LevelInfo, "ok", time.Unix(0, 0).UTC(), []ddlog.Field{ddlog.Str("path", "/healthz")})

	m := decodeLines(t, &buf)[0]
	if m["svc"] != "api" || m["ver"] != "1.0.0" || m["path"] != "/healthz" {
		t.Fatalf("bound + event fields missing: %v", m)
	}
}

func TestBuild_MinLevel(t *testing.T) {
	var buf bytes.Buffer
	a := Build(Config{Writer: &buf, MinLevel: ddlog.LevelWarn})

	a.Log(ddlog.LevelInfo, "dropped", time.Now(), nil)
	a.Log(ddlog.LevelError, "kept", time.Now(), nil)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["message"] != "kept" {
		t.Fatalf("unexpected output: %v", lines)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DDLOG_MIN_LEVEL", "")
	t.Setenv("DDLOG_LEVEL", "verbose")
	t.Setenv("DDLOG_CONSOLE", "1")
	t.Setenv("DDLOG_CALLER_SKIP", "x")

	var buf bytes.Buffer
	cfg := ConfigFromEnv(&buf)
	if cfg.MinLevel != ddlog.LevelVerbose || !cfg.Console || cfg.Caller || cfg.CallerSkip != 5 || cfg.Writer != &buf {
		t.Fatalf("config: %+v", cfg)
	}

	t.Setenv("DDLOG_LEVEL", "nonsense")
	if got := ConfigFromEnv(nil).MinLevel; got != ddlog.LevelInfo {
		t.Fatalf("bad level should fall back to info, got %v", got)
	}
}
