package zapadapter

import (
	"io"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trickstertwo/ddlog"
)

func newBenchZap() *zap.Logger {
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(io.Discard), zapcore.DebugLevel))
}

func benchAdapter(b *testing.B, level ddlog.Level, fields, bound []ddlog.Field) {
	var a ddlog.Adapter = New(newBenchZap())
	if len(bound) > 0 {
		a = a.With(bound)
	}
	at := time.Date(2024, 12, 31, 23, 59, 59, 123456789, time.UTC)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Log(level, "bench", at, fields)
	}
}

func BenchmarkZapAdapter_JSON_5Fields(b *testing.B) {
	benchAdapter(b, ddlog.LevelInfo, []ddlog.Field{
		ddlog.Str("a", "b"),
		ddlog.Int64("i", 42),
		ddlog.Bool("ok", true),
		ddlog.Dur("dur", time.Millisecond),
		ddlog.Float64("f", 3.14),
	}, nil)
}

func BenchmarkZapAdapter_JSON_WithBound(b *testing.B) {
	benchAdapter(b, ddlog.LevelInfo,
		[]ddlog.Field{ddlog.Str("a", "b"), ddlog.Int64("i", 42)},
		[]ddlog.Field{ddlog.Str("svc", "api"), ddlog.Str("ver", "1.0.0"), ddlog.Str("region", "eu-west-1")},
	)
}

func BenchmarkZapAdapter_JSON_Verbose(b *testing.B) {
	benchAdapter(b, ddlog.LevelVerbose, []ddlog.Field{ddlog.Str("a", "b")}, nil)
}
