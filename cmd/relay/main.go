package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"synapse/internal/config"
	"synapse/internal/logging"
	"synapse/internal/relay"
)

func main() {
	cfg := config.LoadRelay()
	logging.Setup(cfg.LogPretty, os.Getenv("RELAY_DEBUG_LEVEL"))

	store, err := relay.OpenStore(cfg.NotesDir, slog.Default())
	if err != nil {
		slog.Error("open note folder", "dir", cfg.NotesDir, "error", err)
		os.Exit(1)
	}

	idx, err := relay.OpenIndex(cfg.IndexPath)
	if err != nil {
		slog.Error("open index", "path", cfg.IndexPath, "error", err)
		os.Exit(1)
	}
	defer idx.Close()

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := idx.Init(initCtx, store); err != nil {
		cancel()
		slog.Error("init index", "error", err)
		os.Exit(1)
	}
	cancel()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := relay.NewWatcher(store, idx, cfg.Debounce, slog.Default())
	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("watcher stopped", "error", err)
		}
	}()

	srv := relay.NewServer(store, idx, slog.Default())
	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Handler()}
	go func() {
		<-ctx.Done()
		_ = httpSrv.Shutdown(context.Background())
	}()

	slog.Info("relay listening", "addr", cfg.ListenAddr, "notes", cfg.NotesDir)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
