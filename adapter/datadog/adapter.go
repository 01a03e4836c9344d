package datadog

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/trickstertwo/ddlog"
	"github.com/trickstertwo/xclock"
)

// ResultEvent is the event name parsed responses are delivered under.
const ResultEvent = "DatadogResult"

var (
	// ErrNoNotifier is returned when forwarding is enabled without a notifier.
	ErrNoNotifier = errors.New("datadog: result forwarding needs a notifier")
	// ErrClosed is returned for dispatches after Close.
	ErrClosed = errors.New("datadog: adapter closed")
)

// Notifier receives named events; *ddlog.Logger implements it.
type Notifier interface {
	Emit(event string, payload any)
}

// Outcome is the single completion of one dispatch: a transport failure
// (Result nil) or a response (Result set, Err describing a bad status or an
// undecodable body).
type Outcome struct {
	Result *Result
	Err    error
}

// Adapter posts log entries to the Datadog events API.
//
// Each call snapshots the default options under a mutex and builds its body
// from that snapshot before any I/O, so concurrent calls never observe each
// other's text, title or alert type. Children created by With share options,
// transport and forwarding state with their parent.
type Adapter struct {
	c     *core
	bound []ddlog.Field
}

type core struct {
	// immutable after construction
	tmpl              requestTemplate
	client            *http.Client
	useMessageAsTitle bool
	stampEventTime    bool
	log               *zap.Logger
	onError           func(error)
	metrics           MetricsCollector

	minLevel atomic.Int64

	mu      sync.Mutex
	options EventOptions
	closed  bool
	// pending holds one channel per dispatch still in flight, closed when
	// that dispatch completes.
	pending map[chan struct{}]struct{}

	fwdMu      sync.RWMutex
	forwarding bool
	notifier   Notifier
}

// New creates an adapter. It performs no network I/O; it fails only when the
// endpoint cannot be turned into a request target.
func New(cfg Config) (*Adapter, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.APIVersion <= 0 {
		cfg.APIVersion = APIVersion
	}
	tmpl, err := newRequestTemplate(cfg.Endpoint, cfg.APIVersion, cfg.Credentials)
	if err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("datadog")

	c := &core{
		tmpl:              tmpl,
		client:            client,
		useMessageAsTitle: cfg.UseMessageAsTitle,
		stampEventTime:    cfg.StampEventTime,
		log:               logger,
		onError:           cfg.ErrorHandler,
		metrics:           cfg.Metrics,
	}
	if c.metrics == nil {
		c.metrics = NoopMetricsCollector{}
	}
	if c.onError == nil {
		c.onError = func(err error) { logger.Error("event delivery failed", zap.Error(err)) }
	}
	if cfg.Options != nil {
		c.options = cfg.Options.Clone()
	} else {
		c.options = DefaultOptions()
	}
	c.minLevel.Store(int64(cfg.MinLevel))
	return &Adapter{c: c}, nil
}

// MustNew is New for setup code; it panics on a malformed endpoint.
func MustNew(cfg Config) *Adapter {
	a, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return a
}

// URL returns the request target, credentials included.
func (a *Adapter) URL() string { return a.c.tmpl.url }

// EnableResultForwarding delivers every parsed response to n under
// ResultEvent before the call completes. A nil n keeps the notifier from an
// earlier call; with none ever supplied, forwarding stays off and
// ErrNoNotifier is returned.
func (a *Adapter) EnableResultForwarding(n Notifier) error {
	a.c.fwdMu.Lock()
	defer a.c.fwdMu.Unlock()
	if n != nil {
		a.c.notifier = n
	}
	if a.c.notifier == nil {
		return ErrNoNotifier
	}
	a.c.forwarding = true
	return nil
}

// DisableResultForwarding stops result delivery. Responses arriving after
// this call are not forwarded, including those of calls already in flight.
func (a *Adapter) DisableResultForwarding() {
	a.c.fwdMu.Lock()
	a.c.forwarding = false
	a.c.fwdMu.Unlock()
}

// ForwardingEnabled reports whether results are being forwarded.
func (a *Adapter) ForwardingEnabled() bool {
	_, ok := a.c.forwardTo()
	return ok
}

func (c *core) forwardTo() (Notifier, bool) {
	c.fwdMu.RLock()
	defer c.fwdMu.RUnlock()
	return c.notifier, c.forwarding && c.notifier != nil
}

// Options returns a copy of the current default event attributes.
func (a *Adapter) Options() EventOptions {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()
	return a.c.options.Clone()
}

// SetOptions replaces the default event attributes with a copy of o.
func (a *Adapter) SetOptions(o EventOptions) {
	o = o.Clone()
	a.c.mu.Lock()
	a.c.options = o
	a.c.mu.Unlock()
}

// UpdateOptions applies fn to the default event attributes in place.
func (a *Adapter) UpdateOptions(fn func(*EventOptions)) {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()
	fn(&a.c.options)
}

// SetAggregationKey sets the default correlation key.
func (a *Adapter) SetAggregationKey(key string) {
	a.UpdateOptions(func(o *EventOptions) { o.AggregationKey = key })
}

// ResetOptions restores factory defaults, dropping every earlier change.
func (a *Adapter) ResetOptions() {
	a.SetOptions(DefaultOptions())
}

// Dispatch builds one event from level, msg and data and posts it. The body
// is fixed before Dispatch returns; the returned channel yields exactly one
// Outcome and is then closed.
func (a *Adapter) Dispatch(ctx context.Context, level, msg string, data Payload) <-chan Outcome {
	var at time.Time
	if a.c.stampEventTime {
		at = xclock.Now()
	}
	out := make(chan Outcome, 1)
	a.c.submit(ctx, level, msg, data, at, func(res *Result, err error) {
		out <- Outcome{Result: res, Err: err}
		close(out)
	})
	return out
}

// Send is Dispatch that waits for the outcome.
func (a *Adapter) Send(ctx context.Context, level, msg string, data Payload) (*Result, error) {
	o := <-a.Dispatch(ctx, level, msg, data)
	return o.Result, o.Err
}

// Log implements ddlog.Adapter. Delivery is asynchronous; failures go to the
// configured ErrorHandler. Use Flush to wait for pending entries.
func (a *Adapter) Log(level ddlog.Level, msg string, at time.Time, fields []ddlog.Field) {
	if int64(level) < a.c.minLevel.Load() {
		return
	}
	if !a.c.stampEventTime {
		at = time.Time{}
	}
	a.c.submit(context.Background(), level.String(), msg, FromFields(a.bound, fields), at, func(_ *Result, err error) {
		if err != nil {
			a.c.onError(err)
		}
	})
}

// With returns a child adapter whose entries carry fs ahead of their own fields.
func (a *Adapter) With(fs []ddlog.Field) ddlog.Adapter {
	child := &Adapter{c: a.c}
	if n := len(a.bound) + len(fs); n > 0 {
		child.bound = make([]ddlog.Field, 0, n)
		child.bound = append(child.bound, a.bound...)
		child.bound = append(child.bound, fs...)
	}
	return child
}

// SetMinLevel receives the facade's level filter.
func (a *Adapter) SetMinLevel(l ddlog.Level) { a.c.minLevel.Store(int64(l)) }

// Flush waits until every event dispatched before the call has completed or
// ctx is done. Events dispatched while it waits are not waited for.
func (a *Adapter) Flush(ctx context.Context) error {
	for _, ch := range a.c.inflight() {
		select {
		case <-ch:
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "datadog: flush")
		}
	}
	return nil
}

// Close rejects new dispatches, waits for in-flight ones and releases idle
// connections. It is safe to call more than once.
func (a *Adapter) Close() error {
	a.c.mu.Lock()
	a.c.closed = true
	a.c.mu.Unlock()
	for _, ch := range a.c.inflight() {
		<-ch
	}
	a.c.client.CloseIdleConnections()
	return nil
}

// Verify Adapter implements the facade interfaces.
var (
	_ ddlog.Adapter = (*Adapter)(nil)
	_ ddlog.Flusher = (*Adapter)(nil)
	_ Notifier      = (*ddlog.Logger)(nil)
)
