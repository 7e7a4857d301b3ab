// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tobihealthops/requiva-go/internal/api"
	"github.com/tobihealthops/requiva-go/internal/cache"
	"github.com/tobihealthops/requiva-go/internal/config"
	"github.com/tobihealthops/requiva-go/internal/drive"
	"github.com/tobihealthops/requiva-go/internal/importer"
	"github.com/tobihealthops/requiva-go/internal/notify"
	"github.com/tobihealthops/requiva-go/internal/scheduler"
	"github.com/tobihealthops/requiva-go/internal/service"
	"github.com/tobihealthops/requiva-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
		gin.SetMode(gin.DebugMode)
	} else {
		logger.SetLevel("info")
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orderStore, closeStore, err := service.OpenOrderStore(ctx, cfg.Store)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to open order store")
	}
	defer closeStore(context.Background())

	insightCache, err := cache.NewInsightCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("cache unavailable, running without it")
		insightCache = cache.NewNoopInsightCache()
	}

	orderService := service.NewOrderService(orderStore)
	insightService := service.NewInsightService(orderStore, insightCache, cfg.Analytics)

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(cfg.Scheduler, insightService, notify.NewNotifier(cfg.Notify))
		sched.Start()
		defer sched.Stop()
	}

	if cfg.Drive.CredentialsFile != "" && cfg.Drive.FolderID != "" {
		driveService, err := drive.NewService(ctx, cfg.Drive.CredentialsFile)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to initialize drive client")
		}
		mapping, err := importer.LoadMapping(cfg.Importer.MappingFile)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to load import mapping profile")
		}
		watcher := drive.NewWatcher(driveService, importer.New(mapping), orderService, cfg.Drive, cfg.Importer.UploadDir)
		go watcher.Run(ctx)
	}

	router := api.NewRouter(&api.Services{
		OrderService:   orderService,
		InsightService: insightService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("store", cfg.Store.Driver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Log.Info().Msg("server exiting")
}
