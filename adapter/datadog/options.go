package datadog

import (
	"os"
	"sync"
	"time"
)

// Priority of an event.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// AlertType is the severity vocabulary accepted by the events API. Values
// outside the four constants are sent as-is.
type AlertType string

const (
	AlertInfo    AlertType = "info"
	AlertError   AlertType = "error"
	AlertWarning AlertType = "warning"
	AlertSuccess AlertType = "success"
)

// SourceType names the integration an event originates from.
type SourceType string

const (
	SourceNagios     SourceType = "nagios"
	SourceHudson     SourceType = "hudson"
	SourceJenkins    SourceType = "jenkins"
	SourceUser       SourceType = "user"
	SourceMyApps     SourceType = "my apps"
	SourceFeed       SourceType = "feed"
	SourceChef       SourceType = "chef"
	SourcePuppet     SourceType = "puppet"
	SourceGit        SourceType = "git"
	SourceBitbucket  SourceType = "bitbucket"
	SourceFabric     SourceType = "fabric"
	SourceCapistrano SourceType = "capistrano"
)

// DefaultTitle is the event title used when none is configured.
const DefaultTitle = "LOG"

// EventOptions are the default attributes stamped on every event.
// Per-call text is not part of the options; it only exists on the body
// built for one request.
type EventOptions struct {
	Title          string
	Priority       Priority
	DateHappened   *time.Time
	Host           string
	Tags           []string
	AlertType      AlertType
	AggregationKey string
	SourceTypeName SourceType
}

var localHostname = sync.OnceValue(func() string {
	h, _ := os.Hostname()
	return h
})

// EnvTag returns the default environment tag, "env:<DD_ENV>" or "env:local".
func EnvTag() string {
	env := os.Getenv("DD_ENV")
	if env == "" {
		env = "local"
	}
	return "env:" + env
}

// DefaultOptions returns factory defaults. Each call allocates its own Tags.
func DefaultOptions() EventOptions {
	return EventOptions{
		Title:     DefaultTitle,
		Priority:  PriorityNormal,
		Host:      localHostname(),
		Tags:      []string{EnvTag()},
		AlertType: AlertInfo,
	}
}

// Clone returns a copy that shares no mutable state with o.
func (o EventOptions) Clone() EventOptions {
	c := o
	if o.Tags != nil {
		c.Tags = append(make([]string, 0, len(o.Tags)), o.Tags...)
	}
	if o.DateHappened != nil {
		t := *o.DateHappened
		c.DateHappened = &t
	}
	return c
}
