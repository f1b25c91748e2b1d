package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mwfarrell/flowgraph/internal/analysis"
	"github.com/mwfarrell/flowgraph/internal/api"
	"github.com/mwfarrell/flowgraph/internal/config"
	"github.com/mwfarrell/flowgraph/internal/metrics"
	"github.com/mwfarrell/flowgraph/internal/netstore"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	cfgPath := flag.String("config", "configs/server.yaml", "Path to server YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	// ── Preload networks ──────────────────────────────────────────────────────
	store := netstore.NewStore(cfg.StrictStates)
	for _, ref := range cfg.Networks {
		data, err := os.ReadFile(ref.Path)
		if err != nil {
			slog.Error("failed to read network file", "name", ref.Name, "path", ref.Path, "err", err)
			os.Exit(1)
		}
		n, err := store.Add(ref.Name, string(data))
		if err != nil {
			metrics.ParseErrors.Inc()
			slog.Error("failed to parse network", "name", ref.Name, "err", err)
			os.Exit(1)
		}
		info := n.Info()
		metrics.NetworksLoaded.Inc()
		metrics.Segments.WithLabelValues(n.Name).Set(float64(info.Segments))
		slog.Info("network loaded", "name", ref.Name, "id", n.ID,
			"segments", info.Segments, "edges", info.Edges)
	}

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	if len(cfg.Networks) > 0 {
		stopWatch, err := config.WatchNetworks(cfg.Networks, func(name, text string) {
			n, err := store.Replace(name, text)
			if err != nil {
				metrics.ParseErrors.Inc()
				slog.Warn("hot-reload skipped: network invalid", "name", name, "err", err)
				return
			}
			info := n.Info()
			metrics.Segments.WithLabelValues(name).Set(float64(info.Segments))
			slog.Info("network hot-reloaded", "name", name,
				"segments", info.Segments, "edges", info.Edges)
		})
		if err != nil {
			slog.Warn("network watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(store, analysis.Default(), cfg.SweepWorkers)
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.ListenAddr, "strict_states", cfg.StrictStates)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	slog.Info("goodbye")
}
