package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Makepad-fr/tada/internal/cli"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/store/kv"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	// Root flags (apply to every subcommand)
	groupPending := fs.Bool("group", false, "group output by pending/done")

	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer logCloser.Close()

	store, err := kv.Open(kv.Config{Driver: cfg.Store, Dir: cfg.DataDir, DSN: cfg.DSN})
	if err != nil {
		logger.Error("open store", "driver", cfg.Store, "err", err)
		return 1
	}
	defer store.Close()

	svc := jsonstore.New(store, jsonstore.Options{Latency: cfg.Latency(), Logger: logger})
	app, err := todos.New(svc, logger)
	if err != nil {
		logger.Error("start", "err", err)
		return 1
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := ui.NewPrinter(os.Stdout, os.Stderr, cfg.Theme)
	r := &cli.Runner{
		App:   app,
		Print: printer,
		Group: *groupPending,
		Raw:   svc.Raw,
		TUI: func(ctx context.Context) error {
			return tui.Run(ctx, app, printer.Theme)
		},
	}
	logger.Debug("starting", "store", cfg.Store, "data_dir", cfg.DataDir, "latency", cfg.Latency())
	code := r.Run(ctx, fs.Args())
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}
