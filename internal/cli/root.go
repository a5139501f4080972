// Package cli implements the testconsole command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"digital.vasic.testconsole/pkg/backend"
	"digital.vasic.testconsole/pkg/config"
	"digital.vasic.testconsole/pkg/console"
	"digital.vasic.testconsole/pkg/env"
	"digital.vasic.testconsole/pkg/httpclient"
	"digital.vasic.testconsole/pkg/logging"
	"digital.vasic.testconsole/pkg/metrics"
)

// annotationQuiet marks commands that own the terminal and must
// not get console log output.
const annotationQuiet = "quiet"

// ErrWorkflowFailed is returned when a workflow finished with a
// transport or format failure. The state has already been printed.
var ErrWorkflowFailed = errors.New("workflow failed")

type rootFlags struct {
	configFile string
	envFiles   []string
	backendURL string
	timeout    time.Duration
	logsDir    string
	verbose    bool
	token      string
	jsonOut    bool
	expand     bool
}

// app carries what the subcommands share once the root has
// resolved configuration.
type app struct {
	flags  rootFlags
	out    io.Writer
	errOut io.Writer
	loader *env.DefaultLoader

	cfg     config.Config
	logger  logging.Logger
	metrics *metrics.PrometheusMetrics
	client  *backend.Client
	console *console.Console
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand(os.Stdout, os.Stderr, nil)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrWorkflowFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree writing to out and errOut.
// A nil loader reads the process environment with the
// TESTCONSOLE_ prefix.
func NewRootCommand(out, errOut io.Writer, loader *env.DefaultLoader) *cobra.Command {
	if loader == nil {
		loader = env.NewLoaderWithPrefix("TESTCONSOLE_")
	}
	a := &app{out: out, errOut: errOut, loader: loader}

	root := &cobra.Command{
		Use:   "testconsole",
		Short: "Drive a test generation and execution backend",
		Long: `testconsole generates test cases on a remote backend, executes them
one by one or all at once, and renders the reports the backend produces.

Configuration is read from an optional YAML file, .env files and
TESTCONSOLE_* environment variables; flags override all of them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configFile, "config", "c", "", "YAML config file")
	pf.StringSliceVar(&a.flags.envFiles, "env-file", []string{".env"}, ".env files loaded when present")
	pf.StringVar(&a.flags.backendURL, "backend-url", "", "backend origin (default "+config.DefaultBackendURL+")")
	pf.DurationVar(&a.flags.timeout, "timeout", 0, "per-request timeout, 0 for none")
	pf.StringVar(&a.flags.logsDir, "logs-dir", "", "directory for console and API logs")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&a.flags.token, "token", "", "bearer token for the backend")
	pf.BoolVarP(&a.flags.jsonOut, "json", "j", false, "JSON output")
	pf.BoolVar(&a.flags.expand, "expand", false, "print details of every item")

	root.AddCommand(
		a.generateCommand(),
		a.executeCommand(),
		a.orchestrateCommand(),
		a.runCommand(),
		a.reportCommand(),
		a.artifactsCommand(),
		a.serveCommand(),
		a.tuiCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{
		File:     a.flags.configFile,
		EnvFiles: a.flags.envFiles,
		Loader:   a.loader,
	})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	pf := cmd.Root().PersistentFlags()
	if pf.Changed("backend-url") {
		cfg.BackendURL = a.flags.backendURL
	}
	if pf.Changed("timeout") {
		cfg.RequestTimeout = a.flags.timeout
	}
	if pf.Changed("logs-dir") {
		cfg.LogsDir = a.flags.logsDir
	}
	if pf.Changed("verbose") {
		cfg.Verbose = a.flags.verbose
	}
	if pf.Changed("token") {
		cfg.APIToken = a.flags.token
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	logger, err := a.buildLogger(cmd.Annotations[annotationQuiet] == "true")
	if err != nil {
		return err
	}
	a.logger = logger
	redacted := cfg.Redacted()
	a.logger.Debug("configuration loaded",
		logging.StringField("backend_url", redacted.BackendURL),
		logging.StringField("timeout", cfg.RequestTimeout.String()),
		logging.StringField("logs_dir", cfg.LogsDir),
	)

	opts := []httpclient.ClientOption{
		httpclient.WithTimeout(cfg.RequestTimeout),
		httpclient.WithLogger(a.logger),
	}
	if cfg.APIToken != "" {
		opts = append(opts, httpclient.WithToken(cfg.APIToken))
	}
	a.client = backend.NewClient(httpclient.NewAPIClient(cfg.BackendURL, opts...))
	a.metrics = metrics.NewPrometheusMetrics()
	a.console = console.New(a.client,
		console.WithLogger(a.logger),
		console.WithMetrics(a.metrics),
	)
	return nil
}

// buildLogger writes JSON logs under the logs directory and
// human-readable lines to errOut, masking the API token in both.
func (a *app) buildLogger(quiet bool) (logging.Logger, error) {
	var loggers []logging.Logger
	if a.cfg.LogsDir != "" {
		fileLogger, err := logging.SetupLogging(a.cfg.LogsDir, a.cfg.Verbose)
		if err != nil {
			return nil, fmt.Errorf("setting up logging: %w", err)
		}
		loggers = append(loggers, fileLogger)
	}
	if !quiet {
		loggers = append(loggers, logging.NewConsoleWriterLogger(a.errOut, a.cfg.Verbose, isTerminal(a.errOut)))
	}

	var logger logging.Logger = logging.NullLogger{}
	switch len(loggers) {
	case 0:
	case 1:
		logger = loggers[0]
	default:
		logger = logging.NewMultiLogger(loggers...)
	}
	if a.cfg.APIToken != "" {
		logger = logging.NewRedactingLogger(logger, a.cfg.APIToken)
	}
	return logger, nil
}

func (a *app) close() error {
	if a.logger == nil {
		return nil
	}
	return a.logger.Close()
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
