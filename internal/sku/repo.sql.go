package sku

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists SKU sequences in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Next claims the next sequence number for (businessID, prefix). The
// insert-or-increment must stay a single statement: the store's own
// atomicity is what guarantees two concurrent callers never receive the
// same number. Sequences start at 1 and are never reused.
func (r *Repository) Next(ctx context.Context, businessID int64, prefix string) (int64, error) {
	if r == nil {
		return 0, errors.New("sku repository not initialised")
	}
	var seq int64
	err := r.pool.QueryRow(ctx, `INSERT INTO sku_sequences (business_id, prefix, current_sequence)
VALUES ($1, $2, 1)
ON CONFLICT (business_id, prefix) DO UPDATE SET current_sequence = sku_sequences.current_sequence + 1
RETURNING current_sequence`, businessID, prefix).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// Current reads the stored sequence without mutating it. Returns 0 when no
// row exists yet for the key.
func (r *Repository) Current(ctx context.Context, businessID int64, prefix string) (int64, error) {
	if r == nil {
		return 0, errors.New("sku repository not initialised")
	}
	var seq int64
	err := r.pool.QueryRow(ctx, `SELECT current_sequence FROM sku_sequences WHERE business_id=$1 AND prefix=$2`, businessID, prefix).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return seq, nil
}
