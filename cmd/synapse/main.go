package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"synapse/internal/ai"
	"synapse/internal/config"
	"synapse/internal/logging"
	"synapse/internal/remote"
	"synapse/internal/store"
	"synapse/internal/syncer"
	"synapse/internal/web"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogPretty, os.Getenv("SYNAPSE_DEBUG_LEVEL"))

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		slog.Error("open store", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	// The environment wins over the persisted app config so a deployment can
	// force an endpoint without touching config.json.
	endpoint := cfg.RemoteEndpoint
	if endpoint == "" {
		endpoint = st.LoadConfig().RemoteEndpointURL
	}
	rem := remote.NewClient(endpoint, cfg.RequestTimeout)

	coord := syncer.New(st, rem, syncer.Options{
		Policy:   syncer.ParsePolicy(cfg.MergePolicy),
		Interval: cfg.SyncInterval,
		Debounce: cfg.PushDebounce,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go coord.Run(ctx)

	assistant := ai.New(cfg.OpenAIKey, cfg.OpenAIModel, slog.Default())
	srv := web.NewServer(st, coord, assistant, slog.Default())

	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Handler()}
	go func() {
		<-ctx.Done()
		_ = httpSrv.Shutdown(context.Background())
	}()

	slog.Info("listening", "addr", cfg.ListenAddr, "remote", rem.Endpoint())
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
