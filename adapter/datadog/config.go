package datadog

import (
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/trickstertwo/ddlog"
)

const (
	// DefaultEndpoint is the API root events are posted under.
	DefaultEndpoint = "https://app.datadoghq.com/api/"
	// APIVersion is the events API version used when Config.APIVersion is unset.
	APIVersion = 1
	// DefaultTimeout bounds one request/response round trip.
	DefaultTimeout = 10 * time.Second
)

// ErrInvalidEndpoint is returned by New when the endpoint has no scheme,
// host or API path segment.
var ErrInvalidEndpoint = errors.New("datadog: invalid endpoint")

// Credentials are sent as the request query string.
type Credentials struct {
	APIKey string
	AppKey string
	// Extra is merged into the query string as-is.
	Extra url.Values
}

// Encode renders the credentials as a URL query string.
func (c Credentials) Encode() string {
	q := make(url.Values, len(c.Extra)+2)
	for k, vs := range c.Extra {
		q[k] = append([]string(nil), vs...)
	}
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}
	if c.AppKey != "" {
		q.Set("app_key", c.AppKey)
	}
	return q.Encode()
}

// Config is an explicit, code-first configuration for the Datadog adapter.
type Config struct {
	// Endpoint is the API root, e.g. "https://api.datadoghq.eu/api/".
	// Default DefaultEndpoint.
	Endpoint    string
	APIVersion  int
	Credentials Credentials

	// Options seeds the adapter's default event attributes.
	// Nil means DefaultOptions().
	Options *EventOptions

	// UseMessageAsTitle sends each log message as the event title.
	UseMessageAsTitle bool

	// StampEventTime fills date_happened with the log timestamp when the
	// options leave it unset.
	StampEventTime bool

	// ForwardResults makes Use register the built logger as the result notifier.
	ForwardResults bool

	MinLevel ddlog.Level

	// Timeout is the HTTP client timeout (default DefaultTimeout). Ignored
	// when HTTPClient is set.
	Timeout    time.Duration
	HTTPClient *http.Client

	// Logger receives the adapter's own diagnostics. Default zap.NewNop().
	Logger *zap.Logger

	// Metrics observes every completed request. Default NoopMetricsCollector.
	Metrics MetricsCollector

	// ErrorHandler receives failures of entries logged through Log, which has
	// no caller to return them to. Default logs them on Logger.
	ErrorHandler func(error)
}

// ConfigFromEnv reads:
//
//	DD_API_KEY                 : API key
//	DD_APPLICATION_KEY         : application key (DD_APP_KEY accepted too)
//	DD_ENDPOINT                : API root URL
//	DD_SITE                    : site such as datadoghq.eu, used when DD_ENDPOINT is empty
//	DD_USE_MESSAGE_AS_TITLE=1  : send the log message as the event title
//	DD_STAMP_EVENT_TIME=1      : set date_happened from the log timestamp
//
// DD_ENV feeds the default "env:" tag through DefaultOptions.
func ConfigFromEnv() Config {
	cfg := Config{
		Credentials: Credentials{
			APIKey: os.Getenv("DD_API_KEY"),
			AppKey: firstNonEmpty(os.Getenv("DD_APPLICATION_KEY"), os.Getenv("DD_APP_KEY")),
		},
		Endpoint:          os.Getenv("DD_ENDPOINT"),
		UseMessageAsTitle: os.Getenv("DD_USE_MESSAGE_AS_TITLE") == "1",
		StampEventTime:    os.Getenv("DD_STAMP_EVENT_TIME") == "1",
	}
	if cfg.Endpoint == "" {
		if site := strings.TrimSpace(os.Getenv("DD_SITE")); site != "" {
			cfg.Endpoint = "https://api." + site + "/api/"
		}
	}
	return cfg
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// requestTemplate is the fixed part of every events request.
type requestTemplate struct {
	scheme   string
	hostname string
	port     int
	path     string
	method   string
	header   http.Header
	url      string
}

func newRequestTemplate(endpoint string, version int, creds Credentials) (requestTemplate, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return requestTemplate{}, errors.Wrapf(ErrInvalidEndpoint, "parse %q: %v", endpoint, err)
	}
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if u.Scheme == "" || u.Hostname() == "" || len(segments) == 0 {
		return requestTemplate{}, errors.Wrapf(ErrInvalidEndpoint, "%q", endpoint)
	}

	defaultPort := 80
	if u.Scheme == "https" {
		defaultPort = 443
	}
	port := defaultPort
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return requestTemplate{}, errors.Wrapf(ErrInvalidEndpoint, "port %q", p)
		}
	}

	t := requestTemplate{
		scheme:   u.Scheme,
		hostname: u.Hostname(),
		port:     port,
		path:     "/" + segments[0] + "/v" + strconv.Itoa(version) + "/events",
		method:   http.MethodPost,
		header:   http.Header{"Content-Type": []string{"application/json"}},
	}
	// JoinHostPort brackets IPv6 literals; the default port is then dropped.
	host := net.JoinHostPort(t.hostname, strconv.Itoa(port))
	if port == defaultPort {
		host = strings.TrimSuffix(host, ":"+strconv.Itoa(port))
	}
	target := url.URL{Scheme: t.scheme, Host: host, Path: t.path, RawQuery: creds.Encode()}
	t.url = target.String()
	return t, nil
}
