package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository reads catalog data from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetBusinessConfig loads the SKU settings for a business.
func (r *Repository) GetBusinessConfig(ctx context.Context, businessID int64) (BusinessConfig, error) {
	if r == nil {
		return BusinessConfig{}, errors.New("catalog repository not initialised")
	}
	cfg := BusinessConfig{BusinessID: businessID}
	err := r.pool.QueryRow(ctx, `SELECT sku_format, sku_prefix, COALESCE(sku_digits, 5) FROM businesses WHERE id=$1`, businessID).
		Scan(&cfg.SKUFormat, &cfg.SKUPrefix, &cfg.SKUDigits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BusinessConfig{}, fmt.Errorf("catalog: business %d: %w", businessID, shared.ErrNotFound)
		}
		return BusinessConfig{}, err
	}
	return cfg, nil
}
