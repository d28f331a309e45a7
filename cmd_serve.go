package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akinalp/pricelist/config"
	"github.com/akinalp/pricelist/pkg/i18n"
	"github.com/akinalp/pricelist/pkg/logging"
	"github.com/akinalp/pricelist/services"
	"github.com/akinalp/pricelist/ws"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

// runServe, wire-up sırası:
//
//  1. Config + logger
//  2. i18n çevirileri
//  3. Blob deposu + repository'ler
//  4. WebSocket hub
//  5. Service'ler + varsayılan kullanıcılar
//  6. Handler'lar + route'lar
//  7. HTTP server, hub ve session sweeper aynı errgroup'ta
//  8. Sinyal gelince graceful shutdown
func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("pricelist server starting",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("storage", cfg.Storage.Driver),
	)

	if err := i18n.LoadEmbedded(); err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	repos, err := initRepositories(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer repos.Close()

	hub := ws.NewHub(logger)

	svcs, limiters := initServices(repos, hub, cfg, logger)
	defer svcs.Close(limiters)

	if err := svcs.User.EnsureDefaults(ctx, services.SeedOptions{
		File:          cfg.Seed.File,
		AdminPassword: cfg.Seed.AdminPassword,
	}); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	h := initHandlers(svcs, limiters, hub, cfg, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           newHTTPHandler(h, svcs.Auth, cfg.Server.CORSOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return svcs.Sweeper.Run(gctx) })

	// Sinyal veya başka bir goroutine'in hatası: önce yeni request'leri durdur.
	// Hijack edilmiş WebSocket bağlantılarını hub.Run kapatır.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}

// loadRuntime, config'i ve ona göre kurulmuş logger'ı döner.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}
