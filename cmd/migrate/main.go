package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/contractportal/portal/internal/config"
	"github.com/contractportal/portal/internal/logger"
	"github.com/contractportal/portal/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	driver := flag.String("driver", "", "override PORTAL_DB_DRIVER (postgres or sqlite)")
	flag.Parse()

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
	if *driver != "" {
		cfg.Database.Driver = *driver
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg.Database); err != nil {
		log.Fatal("migrate", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	log.Info("migrations applied", zap.String("driver", cfg.Database.Driver))
}

func run(ctx context.Context, cfg config.DatabaseConfig) error {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()
		return storage.MigratePostgres(ctx, pool)

	case config.DriverSQLite:
		db, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		return storage.Migrate(ctx, db, storage.DialectSQLite)
	}
	return fmt.Errorf("driver %q has no migrations", cfg.Driver)
}
