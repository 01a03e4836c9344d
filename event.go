package ddlog

import (
	"sync"
	"time"
)

// Event is a fluent builder (Builder pattern) for a single log entry.
// API: L().Warn().Str("from", ...).AggregationKey("deploy-42").Msg("state changed")

type Event struct {
	l      *Logger
	level  Level
	fields []Field
}

var eventPool = sync.Pool{
	New: func() any { return &Event{fields: make([]Field, 0, 8)} },
}

func getEvent(l *Logger, level Level) *Event {
	ev := eventPool.Get().(*Event)
	ev.l = l
	ev.level = level
	ev.fields = ev.fields[:0]
	return ev
}

func (e *Event) putBack() {
	// allow GC of large backing arrays by capping
	if cap(e.fields) > 128 {
		e.fields = make([]Field, 0, 8)
	}
	e.l = nil
	e.level = 0
	eventPool.Put(e)
}

func (e *Event) add(f Field) *Event {
	e.fields = append(e.fields, f)
	return e
}

func (e *Event) Str(k, v string) *Event               { return e.add(Str(k, v)) }
func (e *Event) Int(k string, v int) *Event           { return e.add(Int64(k, int64(v))) }
func (e *Event) Int64(k string, v int64) *Event       { return e.add(Int64(k, v)) }
func (e *Event) Uint64(k string, v uint64) *Event     { return e.add(Uint64(k, v)) }
func (e *Event) Float64(k string, v float64) *Event   { return e.add(Float64(k, v)) }
func (e *Event) Bool(k string, v bool) *Event         { return e.add(Bool(k, v)) }
func (e *Event) Dur(k string, v time.Duration) *Event { return e.add(Dur(k, v)) }
func (e *Event) Time(k string, v time.Time) *Event    { return e.add(Time(k, v)) }
func (e *Event) Bytes(k string, v []byte) *Event      { return e.add(Bytes(k, v)) }
func (e *Event) Any(k string, v any) *Event           { return e.add(Any(k, v)) }

// Err attaches err under the "error" key. A nil error is ignored.
func (e *Event) Err(err error) *Event {
	if err == nil {
		return e
	}
	return e.add(Err("error", err))
}

// AggregationKey sets the per-entry correlation key.
func (e *Event) AggregationKey(key string) *Event { return e.add(AggregationKey(key)) }

// Fields appends already-built fields.
func (e *Event) Fields(fs ...Field) *Event {
	e.fields = append(e.fields, fs...)
	return e
}

// Msg terminates the builder and emits the event.
func (e *Event) Msg(msg string) {
	e.l.emit(e.level, msg, e.fields)
	e.putBack()
}

// Send emits the event with an empty message.
func (e *Event) Send() { e.Msg("") }
