// Package main boots the products API HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Benjuxx2303/products-api/app"
	"github.com/Benjuxx2303/products-api/config"
	"github.com/Benjuxx2303/products-api/docstore"
	"github.com/Benjuxx2303/products-api/models"
)

func main() {
	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	cfg := config.Load()
	level.Set(cfg.LogLevel)
	logger.Info("service_starting", "env", cfg.AppEnv, "store", cfg.Store.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := docstore.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("store_open_failed", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: app.NewRouter(cfg.BasePath, models.NewProductsRepository(store)),
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http_listen", "addr", cfg.Addr(), "url", cfg.HostURL+cfg.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		logger.Error("http_server_error", "error", err)
		_ = store.Close()
		os.Exit(1)
	case <-ctx.Done():
		logger.Info("shutdown_signal")
	}

	ctxSrv, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctxSrv); err != nil {
		logger.Error("http_shutdown_error", "error", err)
	}
	logger.Info("service_stopped")
}
