package barcode

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// RepositoryPort abstracts repository usage for the registry.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListByProduct(ctx context.Context, productID int64) ([]ProductBarcode, error)
}

// AuditPort abstracts the mutation audit trail.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Invalidator drops cached lookups for a code after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, code string)
}

// Registry stores code-to-product associations and enforces the
// one-primary invariant.
type Registry struct {
	repo   RepositoryPort
	audit  AuditPort
	cache  Invalidator
	logger *slog.Logger
}

// NewRegistry builds Registry.
func NewRegistry(repo RepositoryPort, audit AuditPort, cache Invalidator, logger *slog.Logger) *Registry {
	return &Registry{repo: repo, audit: audit, cache: cache, logger: logger}
}

// ListByProduct returns a product's barcodes, primary first then by
// creation time ascending.
func (r *Registry) ListByProduct(ctx context.Context, productID int64) ([]ProductBarcode, error) {
	if productID == 0 {
		return nil, fmt.Errorf("barcode: product required: %w", shared.ErrValidation)
	}
	return r.repo.ListByProduct(ctx, productID)
}

// Attach adds a code to a product. A product's first barcode is forced
// primary regardless of the requested flag; a requested primary demotes
// all siblings inside the same transaction.
func (r *Registry) Attach(ctx context.Context, input AttachInput) (ProductBarcode, error) {
	if err := validateAttach(input); err != nil {
		return ProductBarcode{}, err
	}
	var attached ProductBarcode
	err := r.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		attached, err = r.attachTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return ProductBarcode{}, err
	}
	r.afterMutation(ctx, "barcode:attach", attached, input.ActorID)
	return attached, nil
}

// Detach removes a barcode. The product's only barcode can never be
// removed; removing the primary promotes the earliest-created survivor.
func (r *Registry) Detach(ctx context.Context, productID int64, barcodeID uuid.UUID) error {
	if productID == 0 {
		return fmt.Errorf("barcode: product required: %w", shared.ErrValidation)
	}
	var removed ProductBarcode
	err := r.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		removed, err = r.detachTx(ctx, tx, productID, barcodeID)
		return err
	})
	if err != nil {
		return err
	}
	r.afterMutation(ctx, "barcode:detach", removed, 0)
	return nil
}

// SetPrimary promotes the target and demotes all siblings atomically.
// Already-primary targets are a no-op.
func (r *Registry) SetPrimary(ctx context.Context, productID int64, barcodeID uuid.UUID) error {
	if productID == 0 {
		return fmt.Errorf("barcode: product required: %w", shared.ErrValidation)
	}
	var promoted ProductBarcode
	changed := false
	err := r.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		target, err := tx.Get(ctx, barcodeID)
		if err != nil {
			return err
		}
		if target.ProductID != productID {
			return ErrBarcodeNotFound
		}
		if target.IsPrimary {
			return nil
		}
		if err := tx.DemoteAll(ctx, productID); err != nil {
			return err
		}
		if err := tx.Promote(ctx, barcodeID); err != nil {
			return err
		}
		target.IsPrimary = true
		promoted = target
		changed = true
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		r.afterMutation(ctx, "barcode:set_primary", promoted, 0)
	}
	return nil
}

func (r *Registry) attachTx(ctx context.Context, tx TxRepository, input AttachInput) (ProductBarcode, error) {
	existing, err := tx.ListForUpdate(ctx, input.ProductID)
	if err != nil {
		return ProductBarcode{}, err
	}
	isPrimary := input.IsPrimary
	if len(existing) == 0 {
		// The first barcode is always primary.
		isPrimary = true
	} else if isPrimary {
		if err := tx.DemoteAll(ctx, input.ProductID); err != nil {
			return ProductBarcode{}, err
		}
	}
	pb := ProductBarcode{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		Code:      input.Code,
		Symbology: input.Symbology,
		IsPrimary: isPrimary,
		Source:    input.Source,
		CreatedBy: input.ActorID,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Insert(ctx, pb); err != nil {
		if shared.IsUniqueViolation(err, "") {
			// Lost the race against a concurrent attach of the same code.
			return ProductBarcode{}, ErrCodeTaken
		}
		return ProductBarcode{}, err
	}
	return pb, nil
}

func (r *Registry) detachTx(ctx context.Context, tx TxRepository, productID int64, barcodeID uuid.UUID) (ProductBarcode, error) {
	existing, err := tx.ListForUpdate(ctx, productID)
	if err != nil {
		return ProductBarcode{}, err
	}
	var target *ProductBarcode
	for i := range existing {
		if existing[i].ID == barcodeID {
			target = &existing[i]
			break
		}
	}
	if target == nil {
		return ProductBarcode{}, ErrBarcodeNotFound
	}
	if len(existing) == 1 {
		return ProductBarcode{}, ErrLastBarcode
	}
	if err := tx.Delete(ctx, barcodeID); err != nil {
		return ProductBarcode{}, err
	}
	if target.IsPrimary {
		// ListForUpdate orders by created_at, so the first survivor is the
		// earliest-created replacement.
		for i := range existing {
			if existing[i].ID == barcodeID {
				continue
			}
			if err := tx.Promote(ctx, existing[i].ID); err != nil {
				return ProductBarcode{}, err
			}
			break
		}
	}
	return *target, nil
}

func (r *Registry) afterMutation(ctx context.Context, action string, pb ProductBarcode, actorID int64) {
	if r.cache != nil {
		r.cache.Invalidate(ctx, pb.Code)
	}
	if actorID == 0 {
		if actor, ok := shared.ActorFromContext(ctx); ok {
			actorID = actor.UserID
		}
	}
	if r.audit != nil {
		if err := r.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   action,
			Entity:   "product_barcode",
			EntityID: pb.ID.String(),
			Meta: map[string]any{
				"product_id": pb.ProductID,
				"code":       pb.Code,
				"symbology":  string(pb.Symbology),
				"is_primary": pb.IsPrimary,
			},
		}); err != nil && r.logger != nil {
			r.logger.Warn("barcode audit record", slog.Any("error", err))
		}
	}
}

func validateAttach(input AttachInput) error {
	if input.ProductID == 0 {
		return fmt.Errorf("barcode: product required: %w", shared.ErrValidation)
	}
	if input.Code == "" {
		return fmt.Errorf("barcode: code required: %w", shared.ErrValidation)
	}
	if len(input.Code) > 128 {
		return fmt.Errorf("barcode: code too long: %w", shared.ErrValidation)
	}
	if _, err := ParseSymbology(string(input.Symbology)); err != nil {
		return err
	}
	if _, err := ParseSource(string(input.Source)); err != nil {
		return err
	}
	return nil
}
