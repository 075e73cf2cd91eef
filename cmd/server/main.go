package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/infem06/progress/internal/api"
	"github.com/infem06/progress/internal/config"
	"github.com/infem06/progress/internal/repository"
	"github.com/infem06/progress/internal/service"
	"github.com/infem06/progress/internal/store"
	"github.com/infem06/progress/pkg/genai"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Blob backend: local SQLite by default, Postgres when configured.
	var blobs store.BlobStore
	switch cfg.Store.Backend {
	case "postgres":
		blobs, err = store.NewPostgresStore(ctx, cfg.Store.DSN)
	default:
		blobs, err = store.NewSQLiteStore(cfg.Store.Path)
	}
	if err != nil {
		logger.WithError(err).Fatal("Failed to open blob store")
	}

	st := store.New(blobs, cfg.Store.DebounceWindow, logger)
	if err := st.Load(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to load state")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.WithError(err).Error("Failed to flush state on shutdown")
		}
	}()

	// Generation result cache: Redis when configured, in-memory otherwise.
	var cache genai.Cache
	if cfg.Cache.RedisURL != "" {
		redisCache, err := genai.NewRedisCache(cfg.Cache, logger)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, falling back to in-memory cache")
		} else {
			cache = redisCache
		}
	}
	if cache == nil {
		cache = genai.NewMemoryCache(cfg.Cache.MaxItems, cfg.Cache.DefaultTTL)
	}

	client := genai.NewClient(genai.Config{
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		Timeout:     cfg.Generation.Timeout,
		RateLimit:   cfg.Generation.RateLimit,
		Temperature: cfg.Generation.Temperature,
	}, cache, logger)
	client.SetCredential(st.Snapshot().User.APIKey)

	server := api.NewServer(cfg, logger, api.Deps{
		Store:     st,
		Patients:  repository.NewPatientRepository(st, logger),
		Logs:      repository.NewLogRepository(st, logger),
		Users:     repository.NewUserRepository(st, logger),
		Client:    client,
		Generator: service.NewLogGenerator(client, logger),
		Drafter:   service.NewAssessmentDrafter(client, logger),
		Gate:      service.NewSessionGate(),
		Confirmer: service.NewDeleteConfirmer(cfg.Generation.ConfirmWindow),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

func newLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.ToLower(format) == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
