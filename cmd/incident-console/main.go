// incident-console is an interactive terminal console for the incident
// record API: a filterable, paginated incident list with create and
// quick-edit forms, and a page per incident.
//
// The terminal belongs to the UI, so logs go to --log-output (or log.file
// in the config) and are discarded when neither is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bissquit/incident-console/internal/app"
	"github.com/bissquit/incident-console/internal/config"
	"github.com/bissquit/incident-console/internal/console"
	"github.com/bissquit/incident-console/internal/format"
	"github.com/bissquit/incident-console/internal/incidentapi"
	"github.com/bissquit/incident-console/internal/version"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		apiURL      string
		incidentID  string
		logOutput   string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("incident-console", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flagSet.StringVar(&apiURL, "api-url", "", "incident API base URL (overrides api.base_url)")
	flagSet.StringVar(&incidentID, "incident", "", "open the page of this incident instead of the list")
	flagSet.StringVar(&logOutput, "log-output", "", "append log records to this file (overrides log.file)")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion {
		version.Fprint(os.Stdout, "incident-console")
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if logOutput != "" {
		cfg.Log.File = logOutput
	}

	logWriter, closeLog, err := app.OpenLogFile(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	logger := app.NewLogger(cfg.Log, logWriter).With("component", "console")

	client, err := incidentapi.NewClient(incidentapi.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		UserAgent: "incident-console/" + version.Version,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		metricsServer := app.NewMetricsServer(cfg.Metrics.Addr)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	opts := console.Options{
		PageSize:       cfg.Console.PageSize,
		SearchDebounce: cfg.Console.SearchDebounce,
		Formatter:      consoleFormatter(cfg.Console.Locale),
		Logger:         logger,
	}

	var model console.Model
	if incidentID != "" {
		model = console.NewAtIncident(ctx, client, opts, incidentID)
	} else {
		model = console.New(ctx, client, opts)
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.Console.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	logger.Info("console started", "api", cfg.API.BaseURL, "version", version.Version)
	_, err = tea.NewProgram(model, programOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func consoleFormatter(locale string) *format.Formatter {
	if locale == "" {
		return format.FromEnvironment()
	}
	return format.New(locale, time.Local)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `incident-console: browse and update incidents from the terminal.

Usage:
  incident-console [flags]

Examples:
  # Connect to a local API server
  incident-console --api-url http://localhost:8080

  # Open one incident directly
  incident-console --incident 6f1c2a9e-0b7d-4c55-9a57-8d2f1e3b4c5d

Configuration is read from --config (or CONFIG_PATH) and INCIDENT_*
environment variables, e.g. INCIDENT_API__BASE_URL.

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
