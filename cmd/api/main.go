// Package main provides the entry point for the Harvest Chef API server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/infrastructure/config"
	"github.com/harvestchef/harvest/internal/infrastructure/container"
	"github.com/harvestchef/harvest/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "harvest: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, level, err := logger.NewWithLevel(logger.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Development: cfg.App.Debug && cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Only the log level follows the file at runtime; everything else
	// needs a restart.
	if _, err := config.Watch(configPath, func(next *config.Config) {
		lvl := logger.ParseLevel(next.App.LogLevel)
		if lvl != level.Level() {
			log.Info("Log level changed", zap.Stringer("from", level.Level()), zap.Stringer("to", lvl))
			level.SetLevel(lvl)
		}
	}, func(err error) {
		log.Warn("Ignoring invalid configuration change", zap.Error(err))
	}); err != nil {
		return err
	}

	if cfg.File != "" {
		log.Info("Configuration loaded", zap.String("file", cfg.File))
	}

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
		fx.Supply(cfg, log),
		container.Module,
		fx.StartTimeout(cfg.Server.ShutdownTimeout),
		fx.StopTimeout(cfg.Server.ShutdownTimeout),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, app.StartTimeout())
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	var exitCode int
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop application gracefully: %w", err)
	}

	if exitCode != 0 {
		return fmt.Errorf("server exited with code %d", exitCode)
	}
	return nil
}
