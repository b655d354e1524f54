package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/contractportal/portal/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultDBTimeout bounds the connect-time ping of every metadata store.
const defaultDBTimeout = 5 * time.Second

const applicationName = "contract-portal"

// NewPostgresPool connects to PostgreSQL using pgx and verifies the connection.
func NewPostgresPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := postgresPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	if err := pingWithTimeout(ctx, "postgres", pool.Ping); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func postgresPoolConfig(cfg config.PostgresConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return poolCfg, nil
}

func pingWithTimeout(ctx context.Context, store string, ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultDBTimeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", store, err)
	}
	return nil
}
