package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"byteshift/internal/fn"
	"byteshift/pkg/config"
	"byteshift/pkg/job"
	"byteshift/pkg/log"
	"byteshift/pkg/transform"
)

// Version information - set at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const configKey = "config"

const appHelpTemplate = `NAME:
   {{.Name}} - {{.Usage}}

USAGE:
   {{.HelpName}} {{.UsageText}}
{{if .Description}}
DESCRIPTION:
   {{.Description}}
{{end}}{{if .VisibleCommands}}
COMMANDS:
{{range .VisibleCommands}}   {{.Name}}{{"\t"}}{{.Usage}}
{{end}}{{end}}
OPTIONS:
{{range .VisibleFlags}}   {{.}}
{{end}}`

func newApp() *cli.App {
	return &cli.App{
		Name:                  "byteshift",
		Usage:                 "obfuscate a file with a reversible, seed-driven byte shuffle",
		UsageText:             "[SOURCE] [DESTINATION] [SEED] [OPTIONS]",
		Description:           "Not encryption: anyone who knows the algorithm can undo it without the seed.\nSOURCE may equal DESTINATION; the file is read fully before it is rewritten.",
		Version:               fmt.Sprintf("%s (built %s)", Version, BuildTime),
		CustomAppHelpTemplate: appHelpTemplate,
		HideHelpCommand:       true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "decrypt",
				Aliases: []string{"d"},
				Usage:   "Decrypts the file using SEED instead of encrypting",
			},
			&cli.StringFlag{
				Name:    "compress",
				Aliases: []string{"z"},
				Usage:   "Compress before obfuscating `MODE` (none, gzip, zstd); decrypt needs the same value",
			},
			&cli.StringFlag{
				Name:  "zstd-level",
				Usage: "zstd level `LEVEL` (fastest, default, better, best)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file `PATH`",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level `LEVEL` (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-db",
				Usage: "Also record runs in the SQLite database at `PATH`",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not report size and elapsed time",
			},
		},
		Commands: []*cli.Command{logsCommand},
		Before:   setup,
		After: func(c *cli.Context) error {
			return log.Close()
		},
		ExitErrHandler: exitHandler,
		Action:         shiftCmd,
	}
}

// setup loads the configuration, applies flag overrides and configures logging.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading configuration: %v", err), 1)
	}
	if c.IsSet("compress") {
		cfg.Compression = c.String("compress")
	}
	if c.IsSet("zstd-level") {
		cfg.ZstdLevel = c.String("zstd-level")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-db") {
		cfg.LogDB = c.String("log-db")
	}
	if c.Bool("quiet") {
		cfg.ReportTiming = false
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	log.SetStd(cfg.Level())
	if cfg.ConfigFile != "" {
		log.Debug().Str("file", cfg.ConfigFile).Msg("configuration loaded")
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func appConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

func shiftCmd(c *cli.Context) error {
	cfg := appConfig(c)
	args := c.Args()
	if args.Len() > 3 {
		return cli.Exit(fmt.Sprintf("Error: unexpected argument %q", args.Get(3)), 1)
	}

	mode := fn.T(c.Bool("decrypt"), transform.Decrypt, transform.Encrypt)
	req, err := job.NewRequest(args.Get(0), args.Get(1), args.Get(2), mode)
	if err != nil {
		return fail(err)
	}
	// Validated in setup.
	req.Compression, _ = transform.ParseCompression(cfg.Compression)
	req.ZstdLevel, _ = transform.ParseZstdLevel(cfg.ZstdLevel)

	if cfg.LogDB != "" {
		if err := log.Init(cfg.LogDB); err != nil {
			log.Warn().Err(err).Str("path", cfg.LogDB).Msg("run log disabled")
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug().Str("mode", mode.String()).Str("source", req.Source).Str("destination", req.Destination).
		Str("compression", string(req.Compression)).Msg("starting")

	res, err := job.Run(ctx, req)
	if err != nil {
		return fail(err)
	}

	log.Info().Str("mode", res.Mode.String()).Str("source", res.Source).Str("destination", res.Destination).
		Int("input_bytes", res.InputSize).Int("output_bytes", res.OutputSize).Dur("elapsed", res.Elapsed).
		Msg("done")
	if cfg.ReportTiming {
		report(c.App.Writer, res)
	}
	return nil
}

func report(w io.Writer, res job.Result) {
	fmt.Fprintf(w, "%sed %s -> %s (%s -> %s) in %s\n",
		res.Mode, res.Source, res.Destination,
		humanize.Bytes(uint64(res.InputSize)), humanize.Bytes(uint64(res.OutputSize)),
		res.Elapsed.Round(time.Microsecond))
}

// fail records err with the step that produced it in the run log and turns it
// into an exit code. The console sees only the exit message.
func fail(err error) error {
	var (
		seedErr  *job.SeedError
		readErr  *job.ReadError
		tErr     *job.TransformError
		writeErr *job.WriteError
	)
	switch {
	case errors.Is(err, job.ErrMissingArgument):
		log.Record().Err(err).Msg("argument error")
	case errors.As(err, &seedErr):
		log.Record().Err(seedErr.Err).Str("seed", seedErr.Value).Msg("argument error")
	case errors.As(err, &readErr):
		log.Record().Err(readErr.Err).Str("path", readErr.Path).Msg("error reading source")
	case errors.As(err, &tErr):
		log.Record().Err(tErr.Err).Msg("error transforming data")
	case errors.As(err, &writeErr):
		log.Record().Err(writeErr.Err).Str("path", writeErr.Path).Msg("error writing destination")
	case errors.Is(err, context.Canceled):
		log.Record().Err(err).Msg("interrupted before writing")
	}
	return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
}

// exitHandler closes the run log before cli.HandleExitCoder exits the process,
// since os.Exit skips After.
func exitHandler(_ *cli.Context, err error) {
	if cerr := log.Close(); cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
	}
	cli.HandleExitCoder(err)
}

func main() {
	app := newApp()
	if err := app.Run(route(app, os.Args)); err != nil {
		// cli.Exit errors have already been reported and exited.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
