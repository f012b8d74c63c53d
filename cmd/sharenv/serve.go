package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/zoobzio/capitan"
	"golang.org/x/sync/errgroup"

	"github.com/zoobzio/sharenv"
	"github.com/zoobzio/sharenv/internal/config"
	"github.com/zoobzio/sharenv/pkg/fswatch"
	"github.com/zoobzio/sharenv/pkg/prometheus"
	"github.com/zoobzio/sharenv/pkg/server"
)

const errorHistorySize = 16

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve variables over HTTP and reload them on change",
		Long: `Serve the variables directory as shell export statements.

Each file in the variables directory is one variable; each non-blank line
is a candidate value. Variables with several values rotate round-robin on
every request. Changes on disk are picked up without a restart; send
SIGHUP to force a reload.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", "", "listen address (default $HOST:$PORT or 0.0.0.0:5000)")
	flags.Duration("debounce", config.DefaultDebounce, "coalesce changes arriving within this window")
	flags.Duration("poll-interval", config.DefaultPollInterval, "reload interval when the directory cannot be watched")
	bindFlag(opts.v, "addr", flags.Lookup("addr"))
	bindFlag(opts.v, "debounce", flags.Lookup("debounce"))
	flags.StringSlice("cors-origin", nil, "origin allowed to read the endpoints from a browser (repeatable, * for any)")
	bindFlag(opts.v, "poll_interval", flags.Lookup("poll-interval"))
	bindFlag(opts.v, "cors_origins", flags.Lookup("cors-origin"))

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := newLogger(cfg.LogLevel)
	bridgeEvents(logger)
	defer capitan.Shutdown()

	if err := os.MkdirAll(cfg.VarsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create variables directory: %w", err)
	}

	reg := promclient.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer, err := prometheus.NewObserver("", reg)
	if err != nil {
		return err
	}

	store := sharenv.NewStore(sharenv.RoundRobin{})
	coord := sharenv.NewCoordinator(
		store,
		sharenv.NewDirLoader(cfg.VarsDir).Aliases(cfg.AliasesFile),
		fswatch.New(cfg.VarsDir, cfg.AliasesFile),
	).
		Debounce(cfg.Debounce).
		PollInterval(cfg.PollInterval).
		Metrics(observer).
		ErrorHistorySize(errorHistorySize)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting sharenv", "addr", cfg.Addr, "vars_dir", cfg.VarsDir, "aliases_file", cfg.AliasesFile)
	if err := coord.Start(ctx); err != nil {
		logger.Warn("initial load failed, serving empty snapshot", "err", err)
	}

	srv := server.New(store,
		server.WithStatus(coord),
		server.WithVarsDir(cfg.VarsDir),
		server.WithRecorder(observer),
		server.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		server.WithCORS(cfg.CORSOrigins...),
		server.WithLogger(logger),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, cfg.Addr, cfg.ShutdownTimeout)
	})
	g.Go(func() error {
		reloadOnHangup(gctx, coord, logger)
		return nil
	})
	return g.Wait()
}

// reloadOnHangup forces a reload whenever the process receives SIGHUP.
func reloadOnHangup(ctx context.Context, coord *sharenv.Coordinator, logger *log.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("SIGHUP received, reloading")
			if err := coord.Reload(ctx); err != nil {
				logger.Error("reload failed", "err", err)
			}
		}
	}
}
