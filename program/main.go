package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tui "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/keilerkonzept/population-race/internal/config"
	"github.com/keilerkonzept/population-race/internal/fetch"
	"github.com/keilerkonzept/population-race/internal/logging"
	"github.com/keilerkonzept/population-race/internal/observability"
	"github.com/keilerkonzept/population-race/internal/server"
	"github.com/spf13/pflag"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		if err := runServe(os.Args[2:]); err != nil {
			exit(err)
		}
		return
	}
	if err := runRace(os.Args[1:]); err != nil {
		exit(err)
	}
}

func exit(err error) {
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	log.SetFlags(0)
	log.Fatal(err)
}

func runRace(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	headless := cfg.Headless || !term.IsTerminal(os.Stdout.Fd())

	logCfg := logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}
	var logger *slog.Logger
	if headless && cfg.LogFile == "" {
		logger = logging.New(logCfg)
	} else {
		// The TUI owns the terminal; logs go to a file or nowhere.
		l, closer, err := logging.OpenFile(cfg.LogFile, logCfg)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		if closer != nil {
			defer closer.Close()
		}
		logger = l
	}

	var metrics *observability.Collector
	if cfg.MetricsAddr != "" {
		metrics, err = observability.NewCollector(nil)
		if err != nil {
			return fmt.Errorf("initialise metrics: %w", err)
		}
		srv := serveMetrics(cfg.MetricsAddr, metrics, logger)
		defer shutdown(srv, logger)
	}

	opts := []fetch.Option{
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		fetch.WithLogger(logger),
	}
	if cfg.InputPath != "" {
		opts = append(opts, fetch.WithFile(cfg.InputPath))
	}
	client := fetch.New(cfg.URL, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if headless {
		loadCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		ds, err := client.Load(loadCtx)
		cancel()
		if err != nil {
			metrics.ObserveLoadFailure(failureKind(err))
			return err
		}
		err = runHeadless(ctx, cfg, ds, os.Stdout, logger, metrics)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	m := newModel(cfg, client.Load, logger, metrics)
	popts := []tui.ProgramOption{tui.WithInputTTY(), tui.WithContext(ctx)}
	if cfg.AltScreen {
		popts = append(popts, tui.WithAltScreen())
	}
	_, err = tui.NewProgram(m, popts...).Run()
	m.close()
	if errors.Is(err, tui.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func runServe(args []string) error {
	cfg, err := config.LoadServe(args)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("initialise metrics: %w", err)
	}
	srv := server.New(cfg.DataPath, cfg.CacheTTL, logger, metrics)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(cfg.Addr) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down population endpoint")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func serveMetrics(addr string, metrics *observability.Collector, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server exited", "err", err)
		}
	}()
	logger.Info("serving Prometheus metrics", "addr", addr)
	return srv
}

func shutdown(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown", "err", err)
	}
}
