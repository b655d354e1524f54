package contract

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// sortable: fixed width, UTC, so lexical order equals time order
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteRepository stores contract metadata in a local SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository builds a repository on an opened and migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Contract, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, size, url, uploaded_at
FROM contracts
ORDER BY uploaded_at DESC, rowid DESC;`)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	contracts := []Contract{}
	for rows.Next() {
		c, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contracts: %w", err)
	}
	return contracts, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, in NewContract) (Contract, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	c := Contract{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Size:       in.Size,
		URL:        in.URL,
		UploadedAt: r.now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO contracts (id, name, size, url, uploaded_at)
VALUES (?, ?, ?, ?, ?);`,
		c.ID, c.Name, c.Size, c.URL, c.UploadedAt.Format(sqliteTimeLayout))
	if err != nil {
		return Contract{}, fmt.Errorf("create contract: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (Contract, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
SELECT id, name, size, url, uploaded_at
FROM contracts
WHERE id = ?;`, id)

	c, err := scanSQLite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contract{}, ErrContractNotFound
		}
		return Contract{}, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) (Contract, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
DELETE FROM contracts
WHERE id = ?
RETURNING id, name, size, url, uploaded_at;`, id)

	c, err := scanSQLite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contract{}, ErrContractNotFound
		}
		return Contract{}, fmt.Errorf("delete contract: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row rowScanner) (Contract, error) {
	var (
		c          Contract
		uploadedAt string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Size, &c.URL, &uploadedAt); err != nil {
		return Contract{}, err
	}
	t, err := time.Parse(sqliteTimeLayout, uploadedAt)
	if err != nil {
		return Contract{}, fmt.Errorf("parse uploaded_at %q: %w", uploadedAt, err)
	}
	c.UploadedAt = t
	return c, nil
}
