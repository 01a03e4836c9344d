// Command ddlog posts log entries to the Datadog events API.
//
// Usage:
//
//	ddlog [global options] send --level warn --field k=v "message"
//	tail -f app.log | ddlog pipe
//
// Exit codes:
//   - 0: every event was accepted
//   - 1: bad usage or configuration
//   - 2: at least one event failed to deliver
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "ddlog",
		Usage:   "Send log entries to the Datadog events API",
		Version: version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			sendCommand(),
			pipeCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ddlog:", err)
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"DDLOG_CONFIG"}},
		&cli.StringFlag{Name: "endpoint", Usage: "API root, e.g. https://api.datadoghq.eu/api/"},
		&cli.StringFlag{Name: "api-key", Usage: "Datadog API key (default $DD_API_KEY)"},
		&cli.StringFlag{Name: "app-key", Usage: "Datadog application key (default $DD_APPLICATION_KEY)"},
		&cli.DurationFlag{Name: "timeout", Usage: "per-request timeout"},
		&cli.StringFlag{Name: "min-level", Usage: "drop entries below this level", EnvVars: []string{"DDLOG_MIN_LEVEL"}},
		&cli.StringFlag{Name: "console", Usage: "local echo: zerolog, zap or none"},
		&cli.BoolFlag{Name: "title-from-message", Usage: "send each message as the event title"},
		&cli.BoolFlag{Name: "stamp", Usage: "set date_happened from the entry timestamp"},
		&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "extra default tag (repeatable)"},
		&cli.StringFlag{Name: "aggregation-key", Usage: "default aggregation key"},
		&cli.StringFlag{Name: "title", Usage: "default event title"},
		&cli.BoolFlag{Name: "print-results", Usage: "print each API response to stdout"},
		&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address, e.g. :9102"},
	}
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send one event",
		ArgsUsage: "MESSAGE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "level", Aliases: []string{"l"}, Value: "info", Usage: "entry level"},
			&cli.StringSliceFlag{Name: "field", Aliases: []string{"f"}, Usage: "key=value field (repeatable)"},
			&cli.StringFlag{Name: "error", Usage: "attach an error with this message"},
			&cli.StringFlag{Name: "key", Usage: "aggregation key for this event"},
		},
		Action: sendAction,
	}
}

func pipeCommand() *cli.Command {
	return &cli.Command{
		Name:  "pipe",
		Usage: "Send one event per stdin line; JSON object lines become structured records",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "level", Aliases: []string{"l"}, Value: "info", Usage: "level for lines that carry none"},
		},
		Action: pipeAction,
	}
}
