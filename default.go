package ddlog

import (
	"io"
	"os"
)

// defaultAdapterFactory is set by an adapter package (e.g., adapter/zerolog)
// in its init() to avoid import cycles. Default() uses this to build a logger.
var defaultAdapterFactory func(w io.Writer) Adapter

// RegisterDefaultAdapterFactory registers the constructor used by ddlog.Default().
// Adapters should call this from init() to avoid import cycles.
func RegisterDefaultAdapterFactory(f func(io.Writer) Adapter) {
	defaultAdapterFactory = f
}

// Default creates a logger using the registered adapter factory.
// It writes to os.Stdout at LevelDebug. Side import
// github.com/trickstertwo/ddlog/adapter/zerolog to register one.
// Panics if no factory is registered.
func Default() *Logger {
	if defaultAdapterFactory == nil {
		panic("ddlog: no default adapter registered. Import adapter/zerolog or call ddlog.RegisterDefaultAdapterFactory")
	}
	cfg := Config{
		Adapter:  defaultAdapterFactory(os.Stdout),
		MinLevel: LevelDebug,
	}
	return newLogger(cfg)
}

// New creates a default logger (via Default()) and sets it as global.
func New() *Logger {
	l := Default()
	SetGlobal(l)
	return l
}

// UseAdapter builds a logger around a, sets it as global and returns it.
// Single line, explicit, no envs.
func UseAdapter(a Adapter, min Level) *Logger {
	l, err := NewBuilder().
		WithAdapter(a).
		WithMinLevel(min).
		Build()
	if err != nil {
		panic(err)
	}
	SetGlobal(l)
	return l
}
