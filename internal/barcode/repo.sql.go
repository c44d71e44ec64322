package barcode

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
)

// Repository persists product barcodes in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Holder describes the product currently owning a conflicting code.
type Holder struct {
	Barcode     ProductBarcode
	ProductName string
	ProductSKU  string
	BusinessID  int64
}

// Match is a tier-1 lookup hit: the product plus the barcode that matched.
type Match struct {
	Product catalog.Product
	Barcode ProductBarcode
}

// TxRepository exposes transactional operations used by the registry.
type TxRepository interface {
	ListForUpdate(ctx context.Context, productID int64) ([]ProductBarcode, error)
	Get(ctx context.Context, id uuid.UUID) (ProductBarcode, error)
	FindHolder(ctx context.Context, code string) (Holder, bool, error)
	Insert(ctx context.Context, pb ProductBarcode) error
	Delete(ctx context.Context, id uuid.UUID) error
	DemoteAll(ctx context.Context, productID int64) error
	Promote(ctx context.Context, id uuid.UUID) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("barcode repository not initialised")
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

const barcodeColumns = `id, product_id, code, symbology, is_primary, source, created_by, created_at`

// ListByProduct returns a product's barcodes, primary first then oldest first.
func (r *Repository) ListByProduct(ctx context.Context, productID int64) ([]ProductBarcode, error) {
	if r == nil {
		return nil, errors.New("barcode repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT `+barcodeColumns+` FROM product_barcodes
WHERE product_id=$1
ORDER BY is_primary DESC, created_at ASC, id ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBarcodes(rows)
}

// ResolveCode finds the product holding a code, scoped to a business unless
// global is set. Used by the tier-1 scan lookup.
func (r *Repository) ResolveCode(ctx context.Context, code string, businessID int64, global bool) (Match, error) {
	if r == nil {
		return Match{}, errors.New("barcode repository not initialised")
	}
	var m Match
	var linkedAt *time.Time
	err := r.pool.QueryRow(ctx, `SELECT pb.id, pb.product_id, pb.code, pb.symbology, pb.is_primary, pb.source, pb.created_by, pb.created_at,
p.id, p.business_id, p.sku, p.name, p.sell_price, COALESCE(p.category_id, 0), COALESCE(p.created_from_template_id, 0), p.template_linked_at
FROM product_barcodes pb
JOIN products p ON p.id = pb.product_id
WHERE pb.code=$1 AND ($3 OR p.business_id=$2)
ORDER BY p.business_id=$2 DESC, pb.is_primary DESC
LIMIT 1`, code, businessID, global).Scan(
		&m.Barcode.ID, &m.Barcode.ProductID, &m.Barcode.Code, &m.Barcode.Symbology, &m.Barcode.IsPrimary, &m.Barcode.Source, &m.Barcode.CreatedBy, &m.Barcode.CreatedAt,
		&m.Product.ID, &m.Product.BusinessID, &m.Product.SKU, &m.Product.Name, &m.Product.SellPrice, &m.Product.CategoryID, &m.Product.CreatedFromTemplateID, &linkedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Match{}, ErrBarcodeNotFound
		}
		return Match{}, err
	}
	m.Product.TemplateLinkedAt = linkedAt
	return m, nil
}

func (r *txRepository) ListForUpdate(ctx context.Context, productID int64) ([]ProductBarcode, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+barcodeColumns+` FROM product_barcodes
WHERE product_id=$1
ORDER BY created_at ASC, id ASC
FOR UPDATE`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBarcodes(rows)
}

func (r *txRepository) Get(ctx context.Context, id uuid.UUID) (ProductBarcode, error) {
	var pb ProductBarcode
	err := r.tx.QueryRow(ctx, `SELECT `+barcodeColumns+` FROM product_barcodes WHERE id=$1 FOR UPDATE`, id).
		Scan(&pb.ID, &pb.ProductID, &pb.Code, &pb.Symbology, &pb.IsPrimary, &pb.Source, &pb.CreatedBy, &pb.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductBarcode{}, ErrBarcodeNotFound
		}
		return ProductBarcode{}, err
	}
	return pb, nil
}

func (r *txRepository) FindHolder(ctx context.Context, code string) (Holder, bool, error) {
	var h Holder
	err := r.tx.QueryRow(ctx, `SELECT pb.id, pb.product_id, pb.code, pb.symbology, pb.is_primary, pb.source, pb.created_by, pb.created_at,
p.name, p.sku, p.business_id
FROM product_barcodes pb
JOIN products p ON p.id = pb.product_id
WHERE pb.code=$1
FOR UPDATE OF pb`, code).Scan(
		&h.Barcode.ID, &h.Barcode.ProductID, &h.Barcode.Code, &h.Barcode.Symbology, &h.Barcode.IsPrimary, &h.Barcode.Source, &h.Barcode.CreatedBy, &h.Barcode.CreatedAt,
		&h.ProductName, &h.ProductSKU, &h.BusinessID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Holder{}, false, nil
		}
		return Holder{}, false, err
	}
	return h, true, nil
}

func (r *txRepository) Insert(ctx context.Context, pb ProductBarcode) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO product_barcodes (id, product_id, code, symbology, is_primary, source, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, pb.ID, pb.ProductID, pb.Code, string(pb.Symbology), pb.IsPrimary, string(pb.Source), pb.CreatedBy, pb.CreatedAt)
	return err
}

func (r *txRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM product_barcodes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBarcodeNotFound
	}
	return nil
}

func (r *txRepository) DemoteAll(ctx context.Context, productID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE product_barcodes SET is_primary=FALSE WHERE product_id=$1 AND is_primary`, productID)
	return err
}

func (r *txRepository) Promote(ctx context.Context, id uuid.UUID) error {
	tag, err := r.tx.Exec(ctx, `UPDATE product_barcodes SET is_primary=TRUE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBarcodeNotFound
	}
	return nil
}

func collectBarcodes(rows pgx.Rows) ([]ProductBarcode, error) {
	barcodes := []ProductBarcode{}
	for rows.Next() {
		var pb ProductBarcode
		if err := rows.Scan(&pb.ID, &pb.ProductID, &pb.Code, &pb.Symbology, &pb.IsPrimary, &pb.Source, &pb.CreatedBy, &pb.CreatedAt); err != nil {
			return nil, err
		}
		barcodes = append(barcodes, pb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return barcodes, nil
}
