package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/trickstertwo/ddlog"
	"github.com/trickstertwo/ddlog/adapter/datadog"
	zapadapter "github.com/trickstertwo/ddlog/adapter/zap"
	zerologadapter "github.com/trickstertwo/ddlog/adapter/zerolog"
)

const exitDeliveryFailed = 2

// failures collects delivery errors reported by the Datadog adapter.
type failures struct {
	mu  sync.Mutex
	err error
}

func (f *failures) add(err error) {
	f.mu.Lock()
	f.err = multierr.Append(f.err, err)
	f.mu.Unlock()
}

func (f *failures) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// session is one configured logger plus the sink behind it.
type session struct {
	logger  *ddlog.Logger
	sink    *datadog.Adapter
	failed  *failures
	metrics *http.Server
}

func openSession(c *cli.Context, stdout, stderr io.Writer) (*session, error) {
	var file *fileConfig
	if path := c.String("config"); path != "" {
		var err error
		if file, err = loadConfig(path); err != nil {
			return nil, err
		}
	}
	s, err := resolve(file, overridesFrom(c))
	if err != nil {
		return nil, err
	}
	return newSession(s, c.Bool("print-results"), stdout, stderr)
}

func overridesFrom(c *cli.Context) overrides {
	o := overrides{
		endpoint:       c.String("endpoint"),
		apiKey:         c.String("api-key"),
		appKey:         c.String("app-key"),
		minLevel:       c.String("min-level"),
		console:        c.String("console"),
		metricsAddr:    c.String("metrics-addr"),
		timeout:        c.Duration("timeout"),
		tags:           c.StringSlice("tag"),
		aggregationKey: c.String("aggregation-key"),
		title:          c.String("title"),
	}
	if c.IsSet("title-from-message") {
		v := c.Bool("title-from-message")
		o.useMessageAsTitle = &v
	}
	if c.IsSet("stamp") {
		v := c.Bool("stamp")
		o.stampEventTime = &v
	}
	return o
}

func newSession(s settings, printResults bool, stdout, stderr io.Writer) (*session, error) {
	failed := &failures{}
	s.dd.ErrorHandler = failed.add
	s.dd.ForwardResults = printResults

	var local []ddlog.Adapter
	switch s.console {
	case "zap":
		za := zapadapter.Build(zapadapter.Config{Writer: stderr, MinLevel: s.minLevel, Console: true})
		s.dd.Logger = za.Zap()
		local = append(local, za)
	case "zerolog":
		local = append(local, zerologadapter.Build(zerologadapter.Config{Writer: stderr, MinLevel: s.minLevel, Console: true}))
	}

	var metricsSrv *http.Server
	if s.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		col, err := datadog.NewPrometheusCollector(reg)
		if err != nil {
			return nil, err
		}
		s.dd.Metrics = col
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: s.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	logger, sink, err := datadog.Use(s.dd, local...)
	if err != nil {
		return nil, err
	}
	if metricsSrv != nil {
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", metricsSrv.Addr).Msg("metrics server stopped")
			}
		}()
	}
	if printResults {
		var mu sync.Mutex
		logger.On(datadog.ResultEvent, func(p any) {
			res, ok := p.(*datadog.Result)
			if !ok {
				return
			}
			mu.Lock()
			fmt.Fprintf(stdout, "%s\n", res.Raw)
			mu.Unlock()
		})
	}
	return &session{logger: logger, sink: sink, failed: failed, metrics: metricsSrv}, nil
}

// close waits for pending events and reports delivery failures.
func (s *session) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	err := s.logger.Flush(ctx)
	err = multierr.Append(err, s.sink.Close())
	if s.metrics != nil {
		err = multierr.Append(err, s.metrics.Shutdown(ctx))
	}
	err = multierr.Append(err, s.failed.Err())
	if err != nil {
		return cli.Exit(err.Error(), exitDeliveryFailed)
	}
	return nil
}

func sendAction(c *cli.Context) error {
	level, err := ddlog.ParseLevel(c.String("level"))
	if err != nil {
		return err
	}
	fields, err := parseFieldFlags(c.StringSlice("field"))
	if err != nil {
		return err
	}
	if msg := c.String("error"); msg != "" {
		fields = append(fields, ddlog.Err("error", reportedError(msg)))
	}
	if key := c.String("key"); key != "" {
		fields = append(fields, ddlog.AggregationKey(key))
	}

	s, err := openSession(c, c.App.Writer, c.App.ErrWriter)
	if err != nil {
		return err
	}
	s.logger.Log(level).Fields(fields...).Msg(strings.Join(c.Args().Slice(), " "))
	return s.close(c.Context)
}

func pipeAction(c *cli.Context) error {
	level, err := ddlog.ParseLevel(c.String("level"))
	if err != nil {
		return err
	}
	s, err := openSession(c, c.App.Writer, c.App.ErrWriter)
	if err != nil {
		return err
	}
	if err := pipe(s.logger, level, os.Stdin); err != nil {
		_ = s.close(c.Context)
		return err
	}
	return s.close(c.Context)
}

// pipe logs one entry per non-blank line of r.
func pipe(l *ddlog.Logger, def ddlog.Level, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e, err := parseLine(line, def)
		if err != nil {
			return err
		}
		l.Log(e.level).Fields(e.fields...).Msg(e.msg)
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "read input")
	}
	return nil
}

func parseFieldFlags(kvs []string) ([]ddlog.Field, error) {
	out := make([]ddlog.Field, 0, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, errors.Errorf("field %q: want key=value", kv)
		}
		out = append(out, ddlog.Str(k, v))
	}
	return out, nil
}

// reportedError is an error message taken from input. It has no local stack.
type reportedError string

func (e reportedError) Error() string { return string(e) }

type lineEntry struct {
	level  ddlog.Level
	msg    string
	fields []ddlog.Field
}

// parseLine turns a JSON object line into a structured entry, keeping key
// order. "message"/"msg" and "level" are lifted out; "error" becomes an error
// field. Any other line is a plain message.
func parseLine(line string, def ddlog.Level) (lineEntry, error) {
	e := lineEntry{level: def}
	if !strings.HasPrefix(line, "{") {
		e.msg = line
		return e, nil
	}

	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return e, errors.Wrap(err, "parse line")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return e, errors.Wrap(err, "parse line")
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return e, errors.Wrapf(err, "parse line: field %q", key)
		}
		s, isStr := v.(string)
		switch {
		case (key == "message" || key == "msg") && isStr:
			e.msg = s
		case key == "level" && isStr:
			if l, err := ddlog.ParseLevel(s); err == nil {
				e.level = l
			}
		case key == "error" && isStr:
			e.fields = append(e.fields, ddlog.Err("error", reportedError(s)))
		case isStr:
			e.fields = append(e.fields, ddlog.Str(key, s))
		default:
			e.fields = append(e.fields, ddlog.Any(key, v))
		}
	}
	return e, nil
}
