// incident-api serves the incident record API from an in-memory store,
// optionally seeded with demo data. It backs the console in development
// and end-to-end tests.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bissquit/incident-console/internal/app"
	"github.com/bissquit/incident-console/internal/config"
	"github.com/bissquit/incident-console/internal/version"
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
		noSeed      bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("incident-api", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flagSet.BoolVar(&noSeed, "no-seed", false, "start with an empty store")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		version.Fprint(os.Stdout, "incident-api")
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if noSeed {
		cfg.Server.Seed = false
	}

	logger := app.NewLogger(cfg.Log, os.Stdout)

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
