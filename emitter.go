package ddlog

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventLogged is emitted after every entry that passed the level filter.
// Its payload is an Entry.
const EventLogged = "logging"

// Entry is a read-only snapshot of an emitted log entry.
type Entry struct {
	At      time.Time
	Level   Level
	Message string
	Fields  []Field // base + event fields; copy per emit, safe to hold
}

// Listener receives the payload of a named event. Listeners run synchronously
// on the emitting goroutine and MUST be concurrency-safe.
type Listener func(payload any)

type listener struct {
	fn   Listener
	once bool
	done atomic.Bool
}

// emitter is a named-event registry. Reads are lock-free via atomic.Value;
// updates are serialized by mu. The stored map MUST be treated as immutable.
type emitter struct {
	mu        sync.Mutex
	listeners atomic.Value // holds map[string][]*listener
}

func newEmitter() *emitter {
	e := &emitter{}
	e.listeners.Store(map[string][]*listener(nil))
	return e
}

func (e *emitter) snapshot() map[string][]*listener {
	m, _ := e.listeners.Load().(map[string][]*listener)
	return m
}

func (e *emitter) add(name string, l *listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.snapshot()
	next := make(map[string][]*listener, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	ls := make([]*listener, 0, len(cur[name])+1)
	ls = append(ls, cur[name]...)
	next[name] = append(ls, l)
	e.listeners.Store(next)
	return func() { e.remove(name, l) }
}

func (e *emitter) remove(name string, l *listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.snapshot()
	old := cur[name]
	ls := make([]*listener, 0, len(old))
	for _, x := range old {
		if x != l {
			ls = append(ls, x)
		}
	}
	next := make(map[string][]*listener, len(cur))
	for k, v := range cur {
		next[k] = v
	}
	if len(ls) == 0 {
		delete(next, name)
	} else {
		next[name] = ls
	}
	e.listeners.Store(next)
}

func (e *emitter) has(name string) bool {
	return len(e.snapshot()[name]) > 0
}

func (e *emitter) emit(name string, payload any) {
	ls := e.snapshot()[name]
	for _, l := range ls {
		if l.once {
			if !l.done.CompareAndSwap(false, true) {
				continue
			}
			e.remove(name, l)
		}
		l.fn(payload)
	}
}

// On registers fn for the named event and returns a function that removes it.
func (l *Logger) On(name string, fn Listener) (off func()) {
	return l.events.add(name, &listener{fn: fn})
}

// Once registers fn to run for the next occurrence of the named event only.
func (l *Logger) Once(name string, fn Listener) (off func()) {
	return l.events.add(name, &listener{fn: fn, once: true})
}

// Emit delivers payload to every listener registered for name, synchronously.
// Sinks use it to hand results back into the calling system.
func (l *Logger) Emit(name string, payload any) {
	l.events.emit(name, payload)
}
