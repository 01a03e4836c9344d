package ddlog

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trickstertwo/xclock"
)

// stubAdapter is a minimal Adapter for tests. It records every entry.
type stubAdapter struct {
	mu       sync.Mutex
	bound    []Field
	logs     *[]stubEntry
	minLevel Level
	flushErr error
	closed   bool
}

type stubEntry struct {
	At     time.Time
	Level  Level
	Msg    string
	Fields []Field
}

func newStubAdapter() *stubAdapter {
	return &stubAdapter{logs: new([]stubEntry)}
}

func (a *stubAdapter) With(fs []Field) Adapter {
	return &stubAdapter{
		bound:    append(copyFields(nil, a.bound), fs...),
		logs:     a.logs,
		minLevel: a.minLevel,
	}
}

func (a *stubAdapter) Log(level Level, msg string, at time.Time, fields []Field) {
	a.mu.Lock()
	defer a.mu.Unlock()

	combined := make([]Field, 0, len(a.bound)+len(fields))
	combined = append(combined, a.bound...)
	combined = append(combined, fields...)
	*a.logs = append(*a.logs, stubEntry{At: at, Level: level, Msg: msg, Fields: combined})
}

func (a *stubAdapter) SetMinLevel(l Level) { a.minLevel = l }

func (a *stubAdapter) Flush(context.Context) error { return a.flushErr }

func (a *stubAdapter) Close() error {
	a.closed = true
	return nil
}

func (a *stubAdapter) entries() []stubEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]stubEntry(nil), (*a.logs)...)
}

func TestGlobalAndFacade(t *testing.T) {
	// Mutates the global logger and the process clock; not parallel.
	old := xclock.Default()
	defer xclock.SetDefault(old)
	ft := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	xclock.SetDefault(xclock.NewFrozen(ft))

	adapter := newStubAdapter()
	logger, err := NewBuilder().WithAdapter(adapter).WithMinLevel(LevelDebug).Build()
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	SetGlobal(logger)

	Info().Str("from", "old").Dur("to", time.Second).Int("count", 2).Msg("state changed")
	Silly().Msg("below min level")

	logs := adapter.entries()
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	entry := logs[0]
	if entry.Level != LevelInfo || entry.Msg != "state changed" {
		t.Fatalf("entry mismatch: %+v", entry)
	}
	if !entry.At.Equal(ft) {
		t.Fatalf("timestamp mismatch: got %s want %s", entry.At, ft)
	}
	assertHasStr(t, entry.Fields, "from", "old")
	assertHasDur(t, entry.Fields, "to", time.Second)
	assertHasInt64(t, entry.Fields, "count", 2)
}

func TestBuild_NoAdapter(t *testing.T) {
	t.Parallel()

	if _, err := NewBuilder().Build(); !errors.Is(err, ErrNoAdapter) {
		t.Fatalf("expected ErrNoAdapter, got %v", err)
	}
}

func TestMinLevelFilter(t *testing.T) {
	t.Parallel()

	adapter := newStubAdapter()
	logger, err := NewBuilder().WithAdapter(adapter).WithMinLevel(LevelWarn).Build()
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	if adapter.minLevel != LevelWarn {
		t.Fatalf("adapter min level not propagated: %v", adapter.minLevel)
	}

	logger.Info().Msg("not emitted")
	logger.Verbose().Msg("not emitted")
	logger.Error().Msg("emitted")
	if got := len(adapter.entries()); got != 1 {
		t.Fatalf("expected 1 log, got %d", got)
	}

	logger.SetMinLevel(LevelSilly)
	if adapter.minLevel != LevelSilly || !logger.Enabled(LevelSilly) {
		t.Fatal("SetMinLevel not applied")
	}
	logger.Silly().Msg("now emitted")
	if got := len(adapter.entries()); got != 2 {
		t.Fatalf("expected 2 logs, got %d", got)
	}
}

func TestWithAndLoggedEvent(t *testing.T) {
	t.Parallel()

	adapter := newStubAdapter()
	var (
		mu  sync.Mutex
		got []Entry
	)
	logger, err := NewBuilder().
		WithAdapter(adapter).
		WithMinLevel(LevelInfo).
		On(EventLogged, func(p any) {
			mu.Lock()
			got = append(got, p.(Entry))
			mu.Unlock()
		}).
		Build()
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}

	child := logger.With(Str("request_id", "r-1"))
	child.Info().Str("path", "/api").Int("status", 200).Msg("done")
	child.Debug().Msg("filtered")

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected 1 logged event, got %d", len(got))
	}
	e := got[0]
	if e.Message != "done" || e.Level != LevelInfo {
		t.Fatalf("entry mismatch: %+v", e)
	}
	assertHasStr(t, e.Fields, "request_id", "r-1")
	assertHasStr(t, e.Fields, "path", "/api")
	assertHasInt64(t, e.Fields, "status", 200)

	// The adapter received bound fields through its own With.
	logs := adapter.entries()
	if len(logs) != 1 {
		t.Fatalf("expected 1 adapter entry, got %d", len(logs))
	}
	assertHasStr(t, logs[0].Fields, "request_id", "r-1")
}

func TestEmitter_OnOnceOff(t *testing.T) {
	t.Parallel()

	logger, err := NewBuilder().WithAdapter(newStubAdapter()).Build()
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}

	var on, once int
	off := logger.On("DatadogResult", func(any) { on++ })
	logger.Once("DatadogResult", func(p any) {
		once++
		if p != "r1" {
			t.Errorf("payload %v", p)
		}
	})

	logger.Emit("DatadogResult", "r1")
	logger.Emit("DatadogResult", "r2")
	logger.Emit("other", "ignored")
	if on != 2 || once != 1 {
		t.Fatalf("on=%d once=%d", on, once)
	}

	off()
	logger.Emit("DatadogResult", "r3")
	if on != 2 {
		t.Fatalf("listener still registered after off: %d", on)
	}

	// Children share listeners with their parent.
	var child int
	logger.On("x", func(any) { child++ })
	logger.With(Str("k", "v")).Emit("x", nil)
	if child != 1 {
		t.Fatalf("child emit reached %d listeners", child)
	}
}

func TestEvent_ErrAndAggregationKey(t *testing.T) {
	t.Parallel()

	adapter := newStubAdapter()
	logger, _ := NewBuilder().WithAdapter(adapter).Build()

	logger.Warn().Err(nil).AggregationKey("deploy-42").Fields(Bool("ok", false)).Msg("m")
	logger.Error().Err(errors.New("boom")).Send()

	logs := adapter.entries()
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	assertHasStr(t, logs[0].Fields, AggregationKeyField, "deploy-42")
	if len(logs[0].Fields) != 2 {
		t.Fatalf("nil error should be dropped: %+v", logs[0].Fields)
	}
	f := logs[1].Fields
	if logs[1].Msg != "" || len(f) != 1 || f[0].K != "error" || f[0].Kind != KindError || f[0].Err.Error() != "boom" {
		t.Fatalf("error entry: %+v", logs[1])
	}
}

func TestLevel_StringAndParse(t *testing.T) {
	t.Parallel()

	names := map[Level]string{
		LevelSilly: "silly", LevelDebug: "debug", LevelVerbose: "verbose",
		LevelInfo: "info", LevelWarn: "warn", LevelError: "error", LevelFatal: "fatal",
		Level(2): "level(2)",
	}
	for l, want := range names {
		if got := l.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", int(l), got, want)
		}
	}

	cases := map[string]Level{
		"silly": LevelSilly, " VERBOSE ": LevelVerbose, "Warning": LevelWarn,
		"warn": LevelWarn, "error": LevelError, "-8": LevelDebug, "3": Level(3),
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil || !strings.Contains(err.Error(), "loud") {
		t.Fatalf("expected error for unknown level, got %v", err)
	}
}

func TestTee_FanOutFlushClose(t *testing.T) {
	t.Parallel()

	a, b := newStubAdapter(), newStubAdapter()
	b.flushErr = errors.New("b: flush")
	c := newStubAdapter()
	c.flushErr = errors.New("c: flush")

	tee := Tee(a, nil, b, c)
	logger, err := NewBuilder().WithAdapter(tee).WithMinLevel(LevelVerbose).Build()
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	for _, s := range []*stubAdapter{a, b, c} {
		if s.minLevel != LevelVerbose {
			t.Fatalf("min level not forwarded: %v", s.minLevel)
		}
	}

	logger.With(Str("svc", "api")).Verbose().Msg("fan out")
	for i, s := range []*stubAdapter{a, b, c} {
		logs := s.entries()
		if len(logs) != 1 {
			t.Fatalf("adapter %d got %d entries", i, len(logs))
		}
		assertHasStr(t, logs[0].Fields, "svc", "api")
	}

	err = logger.Flush(context.Background())
	if err == nil || !strings.Contains(err.Error(), "b: flush") || !strings.Contains(err.Error(), "c: flush") {
		t.Fatalf("flush should combine child errors, got %v", err)
	}

	if err := tee.(interface{ Close() error }).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !a.closed || !b.closed || !c.closed {
		t.Fatal("close not fanned out")
	}
}

func TestDefault_UsesRegisteredFactory(t *testing.T) {
	// Replaces the package-level factory and global; not parallel.
	prev := defaultAdapterFactory
	defer func() { defaultAdapterFactory = prev }()

	stub := newStubAdapter()
	RegisterDefaultAdapterFactory(func(io.Writer) Adapter { return stub })
	l := New()
	if L() != l || !l.Enabled(LevelDebug) || l.Enabled(LevelSilly) {
		t.Fatal("New did not install a debug-level global logger")
	}
	Debug().Msg("hello")
	if len(stub.entries()) != 1 {
		t.Fatal("entry did not reach the registered adapter")
	}
}

func assertHasStr(t *testing.T, fs []Field, k, v string) {
	t.Helper()
	for _, f := range fs {
		if f.K == k && f.Kind == KindString && f.Str == v {
			return
		}
	}
	t.Fatalf("missing string field %q=%q in %+v", k, v, fs)
}

func assertHasInt64(t *testing.T, fs []Field, k string, v int64) {
	t.Helper()
	for _, f := range fs {
		if f.K == k && f.Kind == KindInt64 && f.Int64 == v {
			return
		}
	}
	t.Fatalf("missing int64 field %q=%d in %+v", k, v, fs)
}

func assertHasDur(t *testing.T, fs []Field, k string, v time.Duration) {
	t.Helper()
	for _, f := range fs {
		if f.K == k && f.Kind == KindDuration && f.Dur == v {
			return
		}
	}
	t.Fatalf("missing duration field %q=%s in %+v", k, v, fs)
}
