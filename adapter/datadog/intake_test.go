package datadog

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// intake is a fake events API that records every request and echoes the
// posted event back the way the real endpoint does.
type intake struct {
	mu     sync.Mutex
	reqs   []capturedRequest
	status int
	reply  string // written verbatim when set

	srv *httptest.Server
}

type capturedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Raw    []byte
	Body   map[string]any
}

func newIntake(t *testing.T) *intake {
	t.Helper()
	in := &intake{status: http.StatusAccepted}
	in.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		in.mu.Lock()
		in.reqs = append(in.reqs, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Raw:    raw,
			Body:   body,
		})
		status, reply := in.status, in.reply
		in.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if reply != "" {
			_, _ = io.WriteString(w, reply)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"event": map[string]any{
				"id":    1,
				"title": body["title"],
				"text":  body["text"],
				"tags":  body["tags"],
				"url":   "https://app.datadoghq.com/event/event?id=1",
			},
		})
	}))
	t.Cleanup(in.srv.Close)
	return in
}

func (in *intake) setStatus(code int) {
	in.mu.Lock()
	in.status = code
	in.mu.Unlock()
}

func (in *intake) setReply(s string) {
	in.mu.Lock()
	in.reply = s
	in.mu.Unlock()
}

func (in *intake) requests() []capturedRequest {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]capturedRequest(nil), in.reqs...)
}

func (in *intake) last(t *testing.T) capturedRequest {
	t.Helper()
	reqs := in.requests()
	if len(reqs) == 0 {
		t.Fatal("intake received no requests")
	}
	return reqs[len(reqs)-1]
}

func (in *intake) config() Config {
	return Config{
		Endpoint:    in.srv.URL + "/api/",
		Credentials: Credentials{APIKey: "api-123", AppKey: "app-456"},
		HTTPClient:  in.srv.Client(),
	}
}

func newTestAdapter(t *testing.T, in *intake, mutate func(*Config)) *Adapter {
	t.Helper()
	cfg := in.config()
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// recordingNotifier collects forwarded results.
type recordingNotifier struct {
	mu     sync.Mutex
	names  []string
	events []any
}

func (n *recordingNotifier) Emit(name string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.names = append(n.names, name)
	n.events = append(n.events, payload)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}
