package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/stocktake/internal/config"
	"github.com/vbonduro/stocktake/internal/db"
	"github.com/vbonduro/stocktake/internal/logging"
	"github.com/vbonduro/stocktake/internal/photostore"
	"github.com/vbonduro/stocktake/internal/photostore/local"
	"github.com/vbonduro/stocktake/internal/photostore/s3store"
	"github.com/vbonduro/stocktake/internal/service"
	"github.com/vbonduro/stocktake/internal/store"
	"github.com/vbonduro/stocktake/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		cleanup()
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.EnsureCacheDir(); err != nil {
		return err
	}

	items, closeItems, err := newItemRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeItems()

	photoStg, err := newPhotoStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	svc := service.NewInventoryService(items, photoStg, cfg.BaseURL, logger)
	server := web.NewServer(svc, web.Options{
		MaxUploadBytes: cfg.MaxUploadBytes(),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	return server.ListenAndServe(ctx, cfg.Addr(), cfg.ShutdownTimeout)
}

func newItemRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.ItemRepository, func(), error) {
	switch cfg.CatalogBackend {
	case config.CatalogSQLite:
		database, err := db.OpenMemory(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		logger.Info("using in-memory sqlite catalog")
		return store.NewItemStore(database), func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}, nil
	default:
		logger.Info("using in-memory catalog")
		return store.NewMemoryItemStore(), func() {}, nil
	}
}

func newPhotoStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (photostore.PhotoStore, error) {
	switch cfg.PhotoBackend {
	case config.PhotoBackendS3:
		logger.Info("using S3 photo backend", "bucket", cfg.S3Bucket, "endpoint", cfg.S3Endpoint)
		ps, err := s3store.NewS3PhotoStore(ctx, s3store.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize photo store: %w", err)
		}
		return ps, nil
	default:
		logger.Info("using local photo backend", "cache_dir", cfg.CacheDir)
		ps, err := local.NewLocalPhotoStore(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize photo store: %w", err)
		}
		return ps, nil
	}
}
