package ddlog

import (
	"context"
	"io"
	"time"

	"go.uber.org/multierr"
)

// Tee fans every entry out to all adapters in order, e.g. a local console
// adapter next to a remote sink.
func Tee(adapters ...Adapter) Adapter {
	out := make(tee, 0, len(adapters))
	for _, a := range adapters {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

type tee []Adapter

func (t tee) Log(level Level, msg string, at time.Time, fields []Field) {
	for _, a := range t {
		a.Log(level, msg, at, fields)
	}
}

func (t tee) With(fields []Field) Adapter {
	out := make(tee, len(t))
	for i, a := range t {
		out[i] = a.With(fields)
	}
	return out
}

// SetMinLevel forwards the level to children that accept it.
func (t tee) SetMinLevel(l Level) {
	for _, a := range t {
		if ls, ok := a.(adapterLevelSetter); ok {
			ls.SetMinLevel(l)
		}
	}
}

func (t tee) Flush(ctx context.Context) error {
	var err error
	for _, a := range t {
		if f, ok := a.(Flusher); ok {
			err = multierr.Append(err, f.Flush(ctx))
		}
	}
	return err
}

func (t tee) Close() error {
	var err error
	for _, a := range t {
		if c, ok := a.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
