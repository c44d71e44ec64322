package labels

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/platform/db"
)

// Repository persists template data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const templateColumns = `id, business_id, name, barcode_value, symbology, custom_data, usage_count, last_used_at`

// Get loads a template by id.
func (r *Repository) Get(ctx context.Context, id int64) (Template, error) {
	if r == nil {
		return Template{}, errors.New("labels repository not initialised")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM barcode_templates WHERE id=$1`, id)
	return scanTemplate(row)
}

// FindByBarcodeValue resolves a template holding the scanned value. With
// global=false the search is limited to the given business.
func (r *Repository) FindByBarcodeValue(ctx context.Context, code string, businessID int64, global bool) (Template, error) {
	if r == nil {
		return Template{}, errors.New("labels repository not initialised")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM barcode_templates
WHERE barcode_value=$1 AND ($3 OR business_id=$2)
ORDER BY business_id=$2 DESC, id ASC
LIMIT 1`, code, businessID, global)
	return scanTemplate(row)
}

// TrackUsage bumps the template usage counters and links the created
// product back to the template, in one transaction.
func (r *Repository) TrackUsage(ctx context.Context, templateID, productID int64) error {
	if r == nil {
		return errors.New("labels repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE barcode_templates SET usage_count = usage_count + 1, last_used_at = NOW() WHERE id=$1`, templateID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrTemplateNotFound
		}
		_, err = tx.Exec(ctx, `UPDATE products SET created_from_template_id=$1, template_linked_at=NOW() WHERE id=$2`, templateID, productID)
		return err
	})
}

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.BusinessID, &t.Name, &t.BarcodeValue, &t.Symbology, &t.Custom, &t.UsageCount, &t.LastUsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, ErrTemplateNotFound
		}
		return Template{}, err
	}
	return t, nil
}
