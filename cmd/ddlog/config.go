package main

import (
	"os"
	"time"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/trickstertwo/ddlog"
	"github.com/trickstertwo/ddlog/adapter/datadog"
)

// fileConfig is the YAML config file. ${VAR} references are expanded from
// the environment before parsing.
type fileConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	APIVersion        int           `yaml:"api_version"`
	APIKey            string        `yaml:"api_key"`
	AppKey            string        `yaml:"app_key"`
	Timeout           time.Duration `yaml:"timeout"`
	UseMessageAsTitle bool          `yaml:"use_message_as_title"`
	StampEventTime    bool          `yaml:"stamp_event_time"`
	MinLevel          string        `yaml:"min_level"`
	Console           string        `yaml:"console"`
	MetricsAddr       string        `yaml:"metrics_addr"`
	Event             eventConfig   `yaml:"event"`
}

type eventConfig struct {
	Title          string   `yaml:"title"`
	Priority       string   `yaml:"priority"`
	Host           string   `yaml:"host"`
	Tags           []string `yaml:"tags"`
	AlertType      string   `yaml:"alert_type"`
	AggregationKey string   `yaml:"aggregation_key"`
	SourceTypeName string   `yaml:"source_type_name"`
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("config file not found: %s", path)
		}
		return nil, errors.Wrapf(err, "read config %q", path)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, errors.Wrapf(err, "invalid YAML in %s", path)
	}
	return &cfg, nil
}

// settings is the resolved configuration: defaults, then the config file,
// then DD_* environment, then flags.
type settings struct {
	dd          datadog.Config
	minLevel    ddlog.Level
	console     string
	metricsAddr string
}

// overrides carries the flag values that were explicitly set.
type overrides struct {
	endpoint, apiKey, appKey, minLevel, console string
	metricsAddr                                 string
	timeout                                     time.Duration
	useMessageAsTitle, stampEventTime           *bool
	tags                                        []string
	aggregationKey, title                       string
}

func resolve(file *fileConfig, o overrides) (settings, error) {
	s := settings{dd: datadog.ConfigFromEnv(), minLevel: ddlog.LevelSilly, console: "zerolog"}
	opts := datadog.DefaultOptions()

	if file != nil {
		if file.Endpoint != "" {
			s.dd.Endpoint = file.Endpoint
		}
		s.dd.APIVersion = file.APIVersion
		if file.APIKey != "" {
			s.dd.Credentials.APIKey = file.APIKey
		}
		if file.AppKey != "" {
			s.dd.Credentials.AppKey = file.AppKey
		}
		s.dd.Timeout = file.Timeout
		s.dd.UseMessageAsTitle = s.dd.UseMessageAsTitle || file.UseMessageAsTitle
		s.dd.StampEventTime = s.dd.StampEventTime || file.StampEventTime
		o.minLevel = firstNonEmpty(o.minLevel, file.MinLevel)
		if file.Console != "" {
			s.console = file.Console
		}
		s.metricsAddr = file.MetricsAddr
		applyEvent(&opts, file.Event)
	}

	if o.endpoint != "" {
		s.dd.Endpoint = o.endpoint
	}
	if o.apiKey != "" {
		s.dd.Credentials.APIKey = o.apiKey
	}
	if o.appKey != "" {
		s.dd.Credentials.AppKey = o.appKey
	}
	if o.timeout > 0 {
		s.dd.Timeout = o.timeout
	}
	if o.useMessageAsTitle != nil {
		s.dd.UseMessageAsTitle = *o.useMessageAsTitle
	}
	if o.stampEventTime != nil {
		s.dd.StampEventTime = *o.stampEventTime
	}
	if o.console != "" {
		s.console = o.console
	}
	if o.metricsAddr != "" {
		s.metricsAddr = o.metricsAddr
	}
	if len(o.tags) > 0 {
		opts.Tags = append(opts.Tags, o.tags...)
	}
	if o.aggregationKey != "" {
		opts.AggregationKey = o.aggregationKey
	}
	if o.title != "" {
		opts.Title = o.title
	}

	if o.minLevel != "" {
		l, err := ddlog.ParseLevel(o.minLevel)
		if err != nil {
			return settings{}, err
		}
		s.minLevel = l
	}
	switch s.console {
	case "zerolog", "zap", "none":
	default:
		return settings{}, errors.Errorf("unknown console %q (want zerolog, zap or none)", s.console)
	}
	if s.dd.Credentials.APIKey == "" {
		return settings{}, errors.New("no API key: set --api-key, DD_API_KEY or api_key in the config file")
	}

	s.dd.Options = &opts
	s.dd.MinLevel = s.minLevel
	return s, nil
}

func applyEvent(o *datadog.EventOptions, e eventConfig) {
	if e.Title != "" {
		o.Title = e.Title
	}
	if e.Priority != "" {
		o.Priority = datadog.Priority(e.Priority)
	}
	if e.Host != "" {
		o.Host = e.Host
	}
	if len(e.Tags) > 0 {
		o.Tags = append([]string(nil), e.Tags...)
	}
	if e.AlertType != "" {
		o.AlertType = datadog.AlertType(e.AlertType)
	}
	if e.AggregationKey != "" {
		o.AggregationKey = e.AggregationKey
	}
	if e.SourceTypeName != "" {
		o.SourceTypeName = datadog.SourceType(e.SourceTypeName)
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
