package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caresignal/recovery-engine/internal/api"
	"github.com/caresignal/recovery-engine/internal/cache"
	"github.com/caresignal/recovery-engine/internal/config"
	"github.com/caresignal/recovery-engine/internal/insights"
	"github.com/caresignal/recovery-engine/internal/learning"
	"github.com/caresignal/recovery-engine/internal/metrics"
	"github.com/caresignal/recovery-engine/internal/repo"
	"github.com/caresignal/recovery-engine/internal/services"
	"github.com/caresignal/recovery-engine/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting recovery-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	switch cfg.Cache.Mode {
	case "valkey":
		provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("valkey cache unavailable, continuing without cache", slog.Any("error", err))
		} else {
			cacheProvider = provider
		}
	case "memory":
		cacheProvider = cache.NewMemoryProvider()
	}
	defer cacheProvider.Close()

	platformClient := repo.NewPlatformClient(
		cfg.Clients.Platform.BaseURL,
		cfg.Clients.Platform.APIKey,
		cfg.Clients.Platform.Timeout,
		cacheProvider,
		cfg.Cache.EventsTTL,
	)
	archiveClient := repo.NewArchiveClient(
		cfg.Clients.Archive.Endpoint,
		cfg.Clients.Archive.APIKey,
		cfg.Clients.Archive.Timeout,
		cacheProvider,
		cfg.Cache.SnapshotTTL,
	)

	catalog := learning.DefaultCatalog()
	if cfg.Catalog.Path != "" {
		catalog, err = learning.LoadCatalog(cfg.Catalog.Path)
		if err != nil {
			logger.Error("failed to load strategy catalog", slog.Any("error", err))
			os.Exit(1)
		}
	}

	engine := learning.NewEngine(cfg.LearningParams(), catalog, logger)
	miner := insights.NewMiner(engine, logger)
	service := services.NewLearningService(engine, archiveClient, platformClient, miner, services.Options{
		Retention:  cfg.Learning.Retention,
		SyncWindow: cfg.Clients.Platform.SyncWindow,
		SyncLimit:  cfg.Clients.Platform.SyncLimit,
	}, logger)

	if archiveClient.Enabled() {
		restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 10*time.Second)
		restored, err := service.RestoreFromArchive(restoreCtx)
		cancelRestore()
		if err != nil {
			logger.Warn("archive warm start failed, starting cold", slog.Any("error", err))
		} else if restored {
			logger.Info("learning state restored from archive",
				slog.Int("patterns", engine.PatternCount()),
				slog.Int("clusters", engine.ClusterCount()),
			)
		}
	}

	server := api.NewServer(cfg.Server, service, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	if interval := cfg.Learning.CleanupInterval; interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					res := service.Sweep(ctx, 0)
					if res.RemovedPatterns > 0 || res.RemovedClusters > 0 {
						logger.Info("retention sweep",
							slog.Int("removed_patterns", res.RemovedPatterns),
							slog.Int("removed_clusters", res.RemovedClusters),
						)
					}
				}
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := service.PersistSnapshot(shutdownCtx); err != nil {
		logger.Warn("snapshot persist on shutdown failed", slog.Any("error", err))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("recovery-engine stopped")
}
