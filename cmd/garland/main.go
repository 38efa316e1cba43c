package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"libdb.so/garland"
	"libdb.so/garland/config"
	"libdb.so/garland/internal/strip"
	"libdb.so/garland/sched"
)

var (
	configPath = "garland.toml"
	verbose    = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "configuration file")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	dev, err := strip.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open strip: %w", err)
	}

	indicator, err := strip.OpenIndicator(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open heartbeat indicator: %w", err)
	}

	var clock sched.Clock = sched.SystemClock{}
	if cfg.Simulate {
		clock = sched.NewSimClock(time.Now())
	}

	d, err := garland.NewDaemon(garland.Board{
		Clock:     clock,
		Indicator: indicator,
		Strip:     dev,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error { return dev.Run(ctx) })
	errg.Go(func() error { return d.Run(ctx) })

	if err := errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon failed: %w", err)
	}

	return nil
}

func readConfig() (*config.Config, error) {
	f, err := os.Open(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("no configuration file, using defaults", "path", configPath)
			cfg := config.DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return config.ParseConfig(f)
}
