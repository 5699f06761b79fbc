package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"creditflow/config"
	"creditflow/internal/loader"
	"creditflow/internal/metrics"
	"creditflow/internal/server"
	"creditflow/internal/source"
	"creditflow/internal/watchlist"
	"creditflow/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Creditflow.Name,
		"version": cfg.Creditflow.Version,
	}).Info("starting creditflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Enabled {
		metrics.Init()
	}
	if cfg.Metrics.CloudWatch.Enabled {
		logger.InitCloudWatch(cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace)
	}

	src, err := buildSource(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("Failed to configure resource source")
		os.Exit(1)
	}

	watch, err := watchlist.Open(cfg.Watchlist.Path)
	if err != nil {
		log.WithError(err).Error("Failed to open watchlist")
		os.Exit(1)
	}

	store := loader.NewStore()
	manager := loader.NewManager(
		loader.New(src, cfg.Resources, cfg.Loader.Timeout),
		store,
		cfg.Loader.RefreshInterval,
	)

	srv := server.NewServer(cfg.Server, manager, watch, cfg.Offers, cfg.Search, cfg.Metrics.Enabled)

	errCh := make(chan error, 2)
	go func() {
		if err := manager.Run(ctx); err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("loader: %w", err)
		}
	}()
	go func() {
		if err := srv.Run(ctx); err != nil {
			errCh <- fmt.Errorf("server: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Error("component failed")
	}

	log.Info("starting graceful shutdown")
	cancel()

	// Give the HTTP server and refresh loop a moment to drain.
	time.Sleep(cfg.Server.ShutdownTimeout)
	log.Info("creditflow stopped")
}

func buildSource(ctx context.Context, cfg *config.Config) (source.Source, error) {
	switch cfg.Source.Backend {
	case "http":
		return source.NewHTTPSource(
			cfg.Source.HTTP.BaseURL,
			cfg.Source.HTTP.Timeout,
			cfg.Source.HTTP.RateLimit.RequestsPerSecond,
			cfg.Source.HTTP.RateLimit.BurstSize,
		), nil
	case "file":
		return source.NewFileSource(cfg.Source.File.Dir), nil
	case "s3":
		return source.NewS3Source(ctx, source.S3Config{
			Bucket:          cfg.Source.S3.Bucket,
			Prefix:          cfg.Source.S3.Prefix,
			Region:          cfg.Source.S3.Region,
			AccessKeyID:     cfg.Source.S3.AccessKeyID,
			SecretAccessKey: cfg.Source.S3.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown source backend %q", cfg.Source.Backend)
	}
}
