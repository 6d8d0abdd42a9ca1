// Command gaussrank fits a Gaussian rank scaler on CSV data and streams
// CSV files through a saved scaler.
//
//	gaussrank fit --input train.csv --model scaler.gob.zst --interp-kind fritsch-butland
//	gaussrank transform --model scaler.gob.zst --input test.csv --output test_z.csv
//	gaussrank inverse --model scaler.gob.zst --input test_z.csv --output test_x.csv
//	gaussrank report --model scaler.gob.zst --input test.csv --plot-dir plots
//
// Every command accepts --env-file, --log-level, --log-format and
// --metrics-file. GAUSSRANK_LOG_LEVEL sets the default log level and any
// variable may be referenced from the YAML config as ${VAR:-default}.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
	"github.com/YuminosukeSato/gaussrank/pkg/log"
	"github.com/YuminosukeSato/gaussrank/preprocessing"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// metricsNamespace prefixes every exported metric.
const metricsNamespace = "gaussrank"

var errUsage = errors.New("usage error")

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"fit":       {"fit a scaler on a CSV file and save it", runFit},
	"transform": {"map a CSV file to Gaussian scores with a saved scaler", runTransform},
	"inverse":   {"map Gaussian scores back to raw values with a saved scaler", runInverse},
	"report":    {"print normality and round-trip diagnostics, optionally with plots", runReport},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		usage(stdout)
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "gaussrank: unknown command %q\n\n", name)
		usage(stderr)
		return exitUsage
	}

	a := &app{name: name, stdout: stdout, stderr: stderr}
	err := errors.SafeExecute(name, func() error {
		return cmd.run(ctx, a, args[1:])
	})
	if err == nil {
		err = a.finish()
	}
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, pflag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "gaussrank %s: %v\n", name, err)
		return exitUsage
	default:
		a.logger().Debug("command failed", log.ErrAttrKey, err)
		fmt.Fprintf(stderr, "gaussrank %s: %v\n", name, err)
		return exitError
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: gaussrank <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "run 'gaussrank <command> --help' for the flags of a command")
}

// app holds the state shared by every command: output streams, logging
// and the metrics registry.
type app struct {
	name   string
	stdout io.Writer
	stderr io.Writer

	envFile     string
	logLevel    string
	logFormat   string
	metricsFile string

	log      log.Logger
	registry *prometheus.Registry
	metrics  *preprocessing.ScalerMetrics
}

// flagSet creates the flag set of a command with the common flags added.
func (a *app) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("gaussrank "+a.name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.SortFlags = false
	fs.StringVar(&a.envFile, "env-file", "", "load environment variables from this file (default .env when present)")
	fs.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error (env GAUSSRANK_LOG_LEVEL)")
	fs.StringVar(&a.logFormat, "log-format", "console", "log format: console, json, cloud")
	fs.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file ('-' for stdout)")
	return fs
}

// parse parses args and sets up environment, logging and metrics.
func (a *app) parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return errors.Mark(err, errUsage)
	}
	if fs.NArg() > 0 {
		return errors.Mark(errors.Newf("unexpected arguments %v", fs.Args()), errUsage)
	}

	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil {
			return errors.Wrapf(err, "failed to load env file %s", a.envFile)
		}
	} else if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to load .env")
	}
	if !fs.Changed("log-level") {
		if v := os.Getenv("GAUSSRANK_LOG_LEVEL"); v != "" {
			a.logLevel = v
		}
	}

	if err := a.setupLogger(); err != nil {
		return errors.Mark(err, errUsage)
	}

	a.registry = prometheus.NewRegistry()
	a.metrics = preprocessing.NewScalerMetrics(metricsNamespace)
	a.metrics.MustRegister(a.registry)
	a.metrics.Init()
	return nil
}

func (a *app) setupLogger() error {
	level, err := log.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	var logger log.Logger
	switch a.logFormat {
	case "console":
		logger = log.NewConsoleLogger(a.stderr, level)
	case "json":
		logger = log.NewZerologLogger(a.stderr, level)
	case "cloud":
		if err := log.SetupLogger(a.stderr, a.logLevel); err != nil {
			return err
		}
		logger = log.NewSlogLogger(nil)
	default:
		return errors.NewValidationError("log-format", "must be one of console, json, cloud", a.logFormat)
	}
	a.log = logger.With(log.ComponentKey, "cli", "command", a.name)
	log.SetLogger(logger)
	return nil
}

func (a *app) logger() log.Logger {
	if a.log == nil {
		return log.GetLogger()
	}
	return a.log
}

// finish writes the metrics file, if requested.
func (a *app) finish() error {
	if a.metricsFile == "" || a.registry == nil {
		return nil
	}
	if a.metricsFile == "-" {
		return writeMetrics(a.stdout, a.registry)
	}
	f, err := os.Create(a.metricsFile)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", a.metricsFile)
	}
	if err := writeMetrics(f, a.registry); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "failed to close %s", a.metricsFile)
}

// writeMetrics encodes every metric family of g in the Prometheus text
// exposition format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "failed to gather metrics")
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrap(err, "failed to encode metrics")
		}
	}
	return nil
}
