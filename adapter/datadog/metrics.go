package datadog

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector receives one observation per completed request.
// Implementations must be concurrency-safe.
type MetricsCollector interface {
	EventPosted(alert AlertType, status int, took time.Duration, size int, err error)
}

type NoopMetricsCollector struct{}

func (NoopMetricsCollector) EventPosted(AlertType, int, time.Duration, int, error) {}

// Outcome labels used by PrometheusCollector.
const (
	outcomeOK        = "ok"
	outcomeStatus    = "status_error"
	outcomeTransport = "transport_error"
	outcomeDecode    = "decode_error"
	outcomeOther     = "error"
)

// PrometheusCollector exports request counts, latency and body sizes.
type PrometheusCollector struct {
	events  *prometheus.CounterVec
	latency prometheus.Histogram
	bytes   prometheus.Counter
}

// NewPrometheusCollector creates the collectors and registers them on reg.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	c := &PrometheusCollector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ddlog",
			Subsystem: "datadog",
			Name:      "events_total",
			Help:      "Events posted to the Datadog events API by alert type and outcome",
		}, []string{"alert_type", "outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ddlog",
			Subsystem: "datadog",
			Name:      "request_duration_seconds",
			Help:      "Round trip time of event requests",
			Buckets:   prometheus.DefBuckets,
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ddlog",
			Subsystem: "datadog",
			Name:      "request_bytes_total",
			Help:      "Encoded event bytes sent",
		}),
	}
	for _, col := range []prometheus.Collector{c.events, c.latency, c.bytes} {
		if err := reg.Register(col); err != nil {
			return nil, errors.Wrap(err, "datadog: register metrics")
		}
	}
	return c, nil
}

func (c *PrometheusCollector) EventPosted(alert AlertType, _ int, took time.Duration, size int, err error) {
	c.events.WithLabelValues(string(alert), outcomeLabel(err)).Inc()
	c.latency.Observe(took.Seconds())
	c.bytes.Add(float64(size))
}

func outcomeLabel(err error) string {
	var (
		se *StatusError
		de *DecodeError
	)
	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &se):
		return outcomeStatus
	case errors.Is(err, ErrTransport):
		return outcomeTransport
	case errors.As(err, &de):
		return outcomeDecode
	default:
		return outcomeOther
	}
}
