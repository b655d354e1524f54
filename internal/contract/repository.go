package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository is the metadata side of the gateway.
type Repository interface {
	List(ctx context.Context) ([]Contract, error)
	Create(ctx context.Context, in NewContract) (Contract, error)
	Get(ctx context.Context, id string) (Contract, error)
	Delete(ctx context.Context, id string) (Contract, error)
	Ping(ctx context.Context) error
}

// PostgresRepository stores contract metadata in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository builds a new contract repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List returns every contract, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Contract, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id::text, name, size, url, uploaded_at
FROM contracts
ORDER BY uploaded_at DESC;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	contracts := []Contract{}
	for rows.Next() {
		var c Contract
		if err := rows.Scan(&c.ID, &c.Name, &c.Size, &c.URL, &c.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contracts: %w", err)
	}
	return contracts, nil
}

// Create inserts a contract; the database assigns id and upload time.
func (r *PostgresRepository) Create(ctx context.Context, in NewContract) (Contract, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO contracts (name, size, url)
VALUES ($1, $2, $3)
RETURNING id::text, name, size, url, uploaded_at;`

	var c Contract
	err := r.pool.QueryRow(ctx, query, in.Name, in.Size, in.URL).
		Scan(&c.ID, &c.Name, &c.Size, &c.URL, &c.UploadedAt)
	if err != nil {
		return Contract{}, fmt.Errorf("create contract: %w", err)
	}
	return c, nil
}

// Get fetches a single contract.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Contract, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Contract{}, ErrContractNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id::text, name, size, url, uploaded_at
FROM contracts
WHERE id = $1;`

	var c Contract
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Size, &c.URL, &c.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contract{}, ErrContractNotFound
		}
		return Contract{}, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

// Delete removes a contract and returns the deleted record.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (Contract, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Contract{}, ErrContractNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
DELETE FROM contracts
WHERE id = $1
RETURNING id::text, name, size, url, uploaded_at;`

	var c Contract
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Size, &c.URL, &c.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contract{}, ErrContractNotFound
		}
		return Contract{}, fmt.Errorf("delete contract: %w", err)
	}
	return c, nil
}

// Ping checks connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
