package barcode

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// AddOutcome discriminates the three results of a conflict-checked add.
type AddOutcome string

const (
	// OutcomeAdded means the code was free and is now attached.
	OutcomeAdded AddOutcome = "added"
	// OutcomeConflict means another product holds the code; nothing was
	// mutated and the caller must decide.
	OutcomeConflict AddOutcome = "conflict"
	// OutcomeReplaced means the code was moved off its previous holder and
	// attached to the target in one transaction.
	OutcomeReplaced AddOutcome = "replaced"
)

// ConflictInfo names the product currently holding a contested code.
type ConflictInfo struct {
	ProductID   int64
	ProductName string
	ProductSKU  string
	BusinessID  int64
	Barcode     ProductBarcode
}

// AddResult is the discriminated result of AddWithConflictCheck. A
// conflict is a caller decision point, not an error.
type AddResult struct {
	Outcome  AddOutcome
	Barcode  *ProductBarcode
	Conflict *ConflictInfo
}

// ConflictResolver detects and resolves cross-product code collisions on
// top of the registry.
type ConflictResolver struct {
	registry *Registry
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewConflictResolver builds ConflictResolver.
func NewConflictResolver(registry *Registry, metrics *observability.Metrics, logger *slog.Logger) *ConflictResolver {
	return &ConflictResolver{registry: registry, metrics: metrics, logger: logger}
}

// AddWithConflictCheck attaches a code unless a different product already
// holds it. Without replaceConflict a collision returns a Conflict result
// carrying the holder's identity and mutates nothing. With replaceConflict
// the code is detached from the holder (promoting a replacement primary
// there, or failing with an integrity error if it was the holder's only
// barcode) and attached to the target, all in one transaction.
func (c *ConflictResolver) AddWithConflictCheck(ctx context.Context, input AttachInput, replaceConflict bool) (AddResult, error) {
	if err := validateAttach(input); err != nil {
		return AddResult{}, err
	}
	var result AddResult
	err := c.registry.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		holder, found, err := tx.FindHolder(ctx, input.Code)
		if err != nil {
			return err
		}
		if found && holder.Barcode.ProductID == input.ProductID {
			return fmt.Errorf("barcode: code already attached to this product: %w", shared.ErrValidation)
		}
		if found && !replaceConflict {
			result = AddResult{
				Outcome: OutcomeConflict,
				Conflict: &ConflictInfo{
					ProductID:   holder.Barcode.ProductID,
					ProductName: holder.ProductName,
					ProductSKU:  holder.ProductSKU,
					BusinessID:  holder.BusinessID,
					Barcode:     holder.Barcode,
				},
			}
			return nil
		}
		if found {
			if _, err := c.registry.detachTx(ctx, tx, holder.Barcode.ProductID, holder.Barcode.ID); err != nil {
				return err
			}
		}
		attached, err := c.registry.attachTx(ctx, tx, input)
		if err != nil {
			return err
		}
		outcome := OutcomeAdded
		if found {
			outcome = OutcomeReplaced
		}
		result = AddResult{Outcome: outcome, Barcode: &attached}
		return nil
	})
	if err != nil {
		return AddResult{}, err
	}
	c.metrics.ObserveConflict(string(result.Outcome))
	if result.Barcode != nil {
		action := "barcode:attach"
		if result.Outcome == OutcomeReplaced {
			action = "barcode:replace"
		}
		c.registry.afterMutation(ctx, action, *result.Barcode, input.ActorID)
	}
	return result, nil
}
