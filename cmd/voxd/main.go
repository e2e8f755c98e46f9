package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "log/slog"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"voxd/internal/config"
	"voxd/internal/ipc"
	"voxd/internal/metrics"
	"voxd/internal/proxy"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Error("Bad configuration", "err", err)
		os.Exit(2)
	}

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[cfg.LogLevel],
	})))

	log.Info("Booting up", "input", cfg.Input, "output", cfg.Output)

	if err := run(cfg); err != nil {
		log.Error("Daemon failed", "err", err)
		os.Exit(1)
	}
	log.Info("Shut down")
}

func run(cfg *config.Config) error {
	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hc, err := proxy.NewHTTPClient(cfg.Proxy, cfg.HTTPTimeout)
	if err != nil {
		return err
	}
	log.Debug("Loaded HTTP client", "proxy", cfg.Proxy)

	m := metrics.New()

	d, err := assemble(cfg, hc, m)
	if err != nil {
		return err
	}
	defer d.close()

	ctl, err := ipc.Listen(cfg.Socket, controlHandler(d.machine, d.timers))
	if err != nil {
		return err
	}

	log.Info("Boot up - successful")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return d.machine.Run(gctx)
	})
	g.Go(func() error {
		return ctl.Serve(gctx)
	})
	if d.bus != nil {
		g.Go(func() error {
			return d.bus.Run(gctx)
		})
	}
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return m.Serve(gctx, cfg.MetricsAddr)
		})
	}

	return g.Wait()
}
