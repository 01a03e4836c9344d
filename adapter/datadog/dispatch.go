package datadog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// ErrTransport matches every *TransportError.
var ErrTransport = errors.New("datadog: transport failure")

// TransportError is returned when no response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "datadog: transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusError is returned alongside the Result for non-2xx responses.
type StatusError struct {
	Code int
	Body string // first 512 bytes
}

func (e *StatusError) Error() string {
	return "datadog: unexpected status " + strconv.Itoa(e.Code) + ": " + e.Body
}

// DecodeError is returned when a forwarded response body is not valid JSON.
type DecodeError struct {
	Raw []byte
	Err error
}

func (e *DecodeError) Error() string { return "datadog: decode response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Result is the response to one event.
type Result struct {
	StatusCode int
	Header     http.Header
	// Raw is the complete response body.
	Raw []byte
	// Body is the parsed JSON response, exactly as sent. It is set when result
	// forwarding was enabled at response time.
	Body any
}

// Event decodes Raw into the typed events API response.
func (r *Result) Event() (*ResponseBody, error) {
	var rb ResponseBody
	if err := json.Unmarshal(r.Raw, &rb); err != nil {
		return nil, &DecodeError{Raw: r.Raw, Err: err}
	}
	return &rb, nil
}

// ResponseBody is the typed view of an events API response.
type ResponseBody struct {
	Status string       `json:"status"`
	Event  *PostedEvent `json:"event,omitempty"`
	Errors []string     `json:"errors,omitempty"`
}

// PostedEvent is the event as echoed back by the API.
type PostedEvent struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Text           string   `json:"text"`
	DateHappened   int64    `json:"date_happened"`
	Priority       string   `json:"priority"`
	Tags           []string `json:"tags"`
	URL            string   `json:"url"`
	RelatedEventID *int64   `json:"related_event_id"`
}

// eventBody is the wire form of one event. Field order follows the JSON the
// API has always received: correlation key first, then the options, then text.
type eventBody struct {
	AggregationKey *string     `json:"aggregation_key"`
	Title          string      `json:"title"`
	Priority       Priority    `json:"priority"`
	DateHappened   *int64      `json:"date_happened"`
	Host           string      `json:"host"`
	Tags           []string    `json:"tags"`
	AlertType      AlertType   `json:"alert_type"`
	SourceTypeName *SourceType `json:"source_type_name"`
	Text           string      `json:"text"`
}

// buildBody overlays one call onto a snapshot of the default options. The
// owner's options are only read.
func (c *core) buildBody(opts EventOptions, level, msg string, data Payload, at time.Time) eventBody {
	b := eventBody{
		Title:     opts.Title,
		Priority:  opts.Priority,
		Host:      opts.Host,
		Tags:      opts.Tags,
		AlertType: MapSeverity(level),
		Text:      BuildText(msg, data),
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if c.useMessageAsTitle {
		b.Title = msg
	}
	// The call's key wins; the owner's default fills in otherwise.
	if key := data.AggregationKey(); key != "" {
		b.AggregationKey = &key
	} else if opts.AggregationKey != "" {
		key := opts.AggregationKey
		b.AggregationKey = &key
	}
	switch {
	case opts.DateHappened != nil:
		ts := opts.DateHappened.Unix()
		b.DateHappened = &ts
	case !at.IsZero():
		ts := at.Unix()
		b.DateHappened = &ts
	}
	if opts.SourceTypeName != "" {
		st := opts.SourceTypeName
		b.SourceTypeName = &st
	}
	return b
}

func encodeBody(b eventBody) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(b); err != nil {
		return nil, errors.Wrap(err, "datadog: encode event")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// submit builds the body synchronously and completes done exactly once,
// from another goroutine unless the call fails before any I/O.
func (c *core) submit(ctx context.Context, level, msg string, data Payload, at time.Time, done func(*Result, error)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		done(nil, ErrClosed)
		return
	}
	opts := c.options.Clone()
	finished := make(chan struct{})
	if c.pending == nil {
		c.pending = make(map[chan struct{}]struct{})
	}
	c.pending[finished] = struct{}{}
	c.mu.Unlock()

	eb := c.buildBody(opts, level, msg, data, at)
	body, err := encodeBody(eb)
	if err != nil {
		done(nil, err)
		c.settle(finished)
		return
	}

	go func() {
		defer c.settle(finished)
		start := time.Now()
		res, err := c.post(ctx, body)
		status := 0
		if res != nil {
			status = res.StatusCode
		}
		c.metrics.EventPosted(eb.AlertType, status, time.Since(start), len(body), err)
		done(res, err)
	}()
}

// settle marks one dispatch complete.
func (c *core) settle(finished chan struct{}) {
	c.mu.Lock()
	delete(c.pending, finished)
	c.mu.Unlock()
	close(finished)
}

// inflight snapshots the dispatches that have not completed yet.
func (c *core) inflight() []chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]chan struct{}, 0, len(c.pending))
	for ch := range c.pending {
		out = append(out, ch)
	}
	return out
}

func (c *core) post(ctx context.Context, body []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, c.tmpl.method, c.tmpl.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "datadog: create request")
	}
	req.Header = c.tmpl.header.Clone()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: errors.Wrap(err, "read response")}
	}
	res := &Result{StatusCode: resp.StatusCode, Header: resp.Header, Raw: raw}

	c.log.Debug("event posted",
		zap.Int("status", resp.StatusCode),
		zap.Int("request_bytes", len(body)),
		zap.Int("response_bytes", len(raw)),
	)

	var statusErr error
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := raw
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		statusErr = &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	if n, ok := c.forwardTo(); ok {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			// Non-2xx bodies need not be JSON.
			if statusErr != nil {
				return res, statusErr
			}
			return res, &DecodeError{Raw: raw, Err: err}
		}
		res.Body = parsed
		n.Emit(ResultEvent, res)
	}
	return res, statusErr
}
