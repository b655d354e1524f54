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

	"github.com/contractportal/portal/internal/config"
	"github.com/contractportal/portal/internal/contract"
	"github.com/contractportal/portal/internal/logger"
	"github.com/contractportal/portal/internal/server"
	"github.com/contractportal/portal/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg.Database)
	if err != nil {
		log.Fatal("open metadata store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer closeRepo()

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		log.Fatal("open blob store", zap.String("backend", cfg.Blob.Backend), zap.Error(err))
	}

	contractService := contract.NewService(repo, blobs, contract.WithMaxFileSize(cfg.Upload.MaxBytes))

	router := server.NewRouter(server.Dependencies{
		Config:          cfg,
		DB:              repo,
		ObjectStore:     blobs,
		ContractService: contractService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("contract portal API listening",
			zap.String("addr", cfg.Server.Address()),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("blob_backend", cfg.Blob.Backend),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

func openRepository(ctx context.Context, cfg config.DatabaseConfig) (contract.Repository, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := storage.MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return contract.NewPostgresRepository(pool), pool.Close, nil

	case config.DriverSQLite:
		db, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := storage.Migrate(ctx, db, storage.DialectSQLite); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return contract.NewSQLiteRepository(db), func() { _ = db.Close() }, nil

	case config.DriverMemory:
		return contract.NewMemoryRepository(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func openBlobStore(ctx context.Context, cfg config.Config) (contract.BlobStore, error) {
	switch cfg.Blob.Backend {
	case config.BlobMinIO:
		client, err := storage.NewMinIOClient(cfg.Blob.MinIO)
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Blob.MinIO.Bucket, cfg.Blob.MinIO.Region); err != nil {
			return nil, err
		}
		return contract.NewMinIOStore(client, cfg.Blob.MinIO.Bucket, cfg.PublicBaseURL(), cfg.Upload.MaxBytes), nil

	case config.BlobS3:
		client, err := storage.NewS3Client(ctx, cfg.Blob.S3)
		if err != nil {
			return nil, err
		}
		return contract.NewS3Store(client, cfg.Blob.S3.Bucket, cfg.PublicBaseURL()), nil

	case config.BlobMemory:
		return contract.NewMemoryBlobStore(cfg.PublicBaseURL()), nil
	}
	return nil, fmt.Errorf("unsupported blob backend %q", cfg.Blob.Backend)
}
