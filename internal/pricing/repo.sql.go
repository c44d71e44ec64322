package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository persists price changes in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetProductPriceForUpdate(ctx context.Context, productID int64) (float64, error)
	GetVariantPriceForUpdate(ctx context.Context, variantID int64) (int64, float64, error)
	UpdateProductPrice(ctx context.Context, productID int64, price float64) error
	UpdateVariantPrice(ctx context.Context, variantID int64, price float64) error
	InsertAudit(ctx context.Context, row AuditRow) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("pricing repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// History lists audit rows newest first. VariantID of 0 means product-level
// history only includes rows for that product regardless of variant.
func (r *Repository) History(ctx context.Context, productID, variantID int64, limit int) ([]AuditRow, error) {
	if r == nil {
		return nil, errors.New("pricing repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, COALESCE(variant_id, 0), old_price, new_price, changed_by, changed_at, reason, COALESCE(notes, ''), COALESCE(barcode_job_id, '')
FROM product_price_changes
WHERE product_id=$1 AND ($2 = 0 OR variant_id=$2)
ORDER BY changed_at DESC, id DESC
LIMIT $3`, productID, variantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []AuditRow{}
	for rows.Next() {
		var row AuditRow
		if err := rows.Scan(&row.ID, &row.ProductID, &row.VariantID, &row.OldPrice, &row.NewPrice, &row.ChangedBy, &row.ChangedAt, &row.Reason, &row.Notes, &row.BarcodeJobID); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *txRepository) GetProductPriceForUpdate(ctx context.Context, productID int64) (float64, error) {
	var price float64
	err := r.tx.QueryRow(ctx, `SELECT sell_price FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("pricing: product %d: %w", productID, shared.ErrNotFound)
		}
		return 0, err
	}
	return price, nil
}

func (r *txRepository) GetVariantPriceForUpdate(ctx context.Context, variantID int64) (int64, float64, error) {
	var productID int64
	var price float64
	err := r.tx.QueryRow(ctx, `SELECT product_id, price FROM product_variants WHERE id=$1 FOR UPDATE`, variantID).Scan(&productID, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, fmt.Errorf("pricing: variant %d: %w", variantID, shared.ErrNotFound)
		}
		return 0, 0, err
	}
	return productID, price, nil
}

func (r *txRepository) UpdateProductPrice(ctx context.Context, productID int64, price float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET sell_price=$2 WHERE id=$1`, productID, price)
	return err
}

func (r *txRepository) UpdateVariantPrice(ctx context.Context, variantID int64, price float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE product_variants SET price=$2 WHERE id=$1`, variantID, price)
	return err
}

func (r *txRepository) InsertAudit(ctx context.Context, row AuditRow) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO product_price_changes (id, product_id, variant_id, old_price, new_price, changed_by, changed_at, reason, notes, barcode_job_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		row.ID, row.ProductID, nullInt(row.VariantID), row.OldPrice, row.NewPrice, row.ChangedBy, row.ChangedAt, row.Reason, nullString(row.Notes), nullString(row.BarcodeJobID))
	return err
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
