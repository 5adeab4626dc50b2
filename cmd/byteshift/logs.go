package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"byteshift/internal/fn"
	"byteshift/pkg/log"
)

// timeFormats includes common layouts to try when parsing absolute time strings.
// More specific formats come first.
var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimeSpec parses either a duration before now ("1h", "30m") or an
// absolute timestamp.
func parseTimeSpec(spec string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(spec); err == nil {
		return now.Add(-d), nil
	}
	for _, layout := range timeFormats {
		if ts, err := time.ParseInLocation(layout, spec, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time specification: '%s'. Use relative duration (e.g., '1h', '30m') or absolute format (e.g., '2023-10-27T15:04:05Z')", spec)
}

var logsCommand = &cli.Command{
	Name:      "logs",
	Usage:     "Show runs recorded in the SQLite run log",
	UsageText: "byteshift logs [--last|--since|--between] [options]",
	Description: `Reads the run log written when byteshift runs with --log-db (or log_db in the config).
Defaults to the last --count entries.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "dbfile",
			Aliases: []string{"f"},
			Usage:   "Path to the run log database `PATH` (defaults to log_db, then ~/.byteshift/byteshift.db)",
		},
		&cli.BoolFlag{
			Name:  "last",
			Usage: "Mode: Retrieve the most recent N log entries (default)",
		},
		&cli.BoolFlag{
			Name:  "since",
			Usage: "Mode: Retrieve logs since a specific start time",
		},
		&cli.BoolFlag{
			Name:  "between",
			Usage: "Mode: Retrieve logs between a specific start and end time",
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "Number of entries for --last mode `NUMBER`",
			Value:   20,
		},
		&cli.StringFlag{
			Name:    "start",
			Aliases: []string{"s"},
			Usage:   "Start time for --since/--between `TIME_SPEC` (e.g., '1h', '2023-10-27T10:00:00Z')",
		},
		&cli.StringFlag{
			Name:    "end",
			Aliases: []string{"e"},
			Usage:   "End time for --between `TIME_SPEC`",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"l"},
			Usage:   "Max entries for --since/--between `NUMBER`",
			Value:   1000,
		},
	},
	Action: logsCmd,
}

func logsCmd(c *cli.Context) error {
	dbFile := fn.Or(c.String("dbfile"), appConfig(c).LogDB, log.DefaultDBPath())

	modes := 0
	for _, m := range []string{"last", "since", "between"} {
		if c.Bool(m) {
			modes++
		}
	}
	if modes > 1 {
		return cli.Exit("Error: Only one mode flag (--last, --since, --between) can be specified at a time.", 1)
	}

	if _, err := os.Stat(dbFile); err != nil {
		return cli.Exit(fmt.Sprintf("Error: run log not found at '%s'", dbFile), 1)
	}
	if err := log.Init(dbFile); err != nil {
		return cli.Exit(fmt.Sprintf("Error opening run log: %v", err), 1)
	}

	now := time.Now()
	var results []log.LogEntry
	var retrievalErr error

	switch {
	case c.Bool("since"):
		if !c.IsSet("start") {
			return cli.Exit("Error: --start (-s) flag is required for --since mode.", 1)
		}
		start, err := parseTimeSpec(c.String("start"), now)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error parsing start time: %v", err), 1)
		}
		results, retrievalErr = log.GetLogsSince(start, c.Int("limit"))

	case c.Bool("between"):
		if !c.IsSet("start") || !c.IsSet("end") {
			return cli.Exit("Error: --start (-s) and --end (-e) are required for --between mode.", 1)
		}
		start, err := parseTimeSpec(c.String("start"), now)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error parsing start time: %v", err), 1)
		}
		end, err := parseTimeSpec(c.String("end"), now)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error parsing end time: %v", err), 1)
		}
		if start.After(end) {
			fmt.Fprintf(c.App.ErrWriter, "Warning: Start time (%s) is after end time (%s).\n", start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
		results, retrievalErr = log.GetLogsBetween(start, end, c.Int("limit"))

	default:
		count := c.Int("count")
		if count <= 0 {
			return cli.Exit("Error: --count (-n) must be a positive number.", 1)
		}
		results, retrievalErr = log.GetLastNLogs(count)
	}

	if retrievalErr != nil {
		if errors.Is(retrievalErr, log.ErrNotInitialized) {
			return cli.Exit("Internal Error: run log handle became unavailable.", 2)
		}
		return cli.Exit(fmt.Sprintf("Error retrieving logs: %v", retrievalErr), 1)
	}

	if len(results) == 0 {
		fmt.Fprintln(c.App.ErrWriter, "No log entries found matching the criteria.")
		return nil
	}
	for _, entry := range results {
		fmt.Fprintln(c.App.Writer, entry.LogData)
	}
	return nil
}
