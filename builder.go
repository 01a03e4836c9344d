package ddlog

import "errors"

// ErrNoAdapter is returned by Build when no Adapter was configured.
var ErrNoAdapter = errors.New("ddlog: no adapter configured")

// Config for constructing a Logger (Factory data structure).
type Config struct {
	Adapter   Adapter
	MinLevel  Level
	Listeners map[string][]Listener
}

// Builder separates construction from representation (Builder pattern).
type Builder struct {
	cfg Config
}

func NewBuilder() *Builder {
	return &Builder{cfg: Config{MinLevel: LevelInfo}}
}

func (b *Builder) WithAdapter(a Adapter) *Builder {
	b.cfg.Adapter = a
	return b
}

func (b *Builder) WithMinLevel(l Level) *Builder {
	b.cfg.MinLevel = l
	return b
}

// On registers a listener for a named event on the built Logger.
func (b *Builder) On(name string, fn Listener) *Builder {
	if b.cfg.Listeners == nil {
		b.cfg.Listeners = make(map[string][]Listener)
	}
	b.cfg.Listeners[name] = append(b.cfg.Listeners[name], fn)
	return b
}

// Build constructs the Logger (Factory + Builder).
func (b *Builder) Build() (*Logger, error) {
	if b.cfg.Adapter == nil {
		return nil, ErrNoAdapter
	}
	// Propagate settings into the adapter when supported.
	b.applyAdapterConfig(b.cfg.Adapter)
	return newLogger(b.cfg), nil
}

// adapterLevelSetter is an optional interface adapters can implement
// to receive min-level configuration from ddlog.Builder/Config.
type adapterLevelSetter interface {
	SetMinLevel(Level)
}

// applyAdapterConfig applies Config-derived settings to the adapter if it
// supports them via optional interfaces (like adapterLevelSetter).
func (b *Builder) applyAdapterConfig(a Adapter) {
	if ls, ok := a.(adapterLevelSetter); ok {
		ls.SetMinLevel(b.cfg.MinLevel)
	}
}
