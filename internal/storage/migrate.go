package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Goose dialect names for the supported drivers.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// Migrate applies all pending migrations for dialect to db.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	dir := "migrations/postgres"
	if dialect == DialectSQLite {
		dir = "migrations/sqlite"
	}

	sub, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MigratePostgres runs the Postgres migrations through a database/sql view of pool.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	return Migrate(ctx, db, DialectPostgres)
}
