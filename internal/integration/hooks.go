// Package integration wires domain events between engine modules.
package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meridian-pos/meridian-pos/internal/barcode"
	"github.com/meridian-pos/meridian-pos/internal/pricing"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// ConflictChecker exposes the conflict-checked attach used by hooks.
type ConflictChecker interface {
	AddWithConflictCheck(ctx context.Context, input barcode.AttachInput, replaceConflict bool) (barcode.AddResult, error)
}

// Hooks routes pricing events into the barcode module.
type Hooks struct {
	conflicts ConflictChecker
	logger    *slog.Logger
}

// NewHooks constructs integration hooks.
func NewHooks(conflicts ConflictChecker, logger *slog.Logger) *Hooks {
	return &Hooks{conflicts: conflicts, logger: logger}
}

// HandlePriceConfirmed attaches the printed code to the product after a
// label-print price override committed. The attach never replaces an
// existing holder: a collision is logged for follow-up, not forced.
func (h *Hooks) HandlePriceConfirmed(ctx context.Context, evt pricing.PriceConfirmedEvent) error {
	if evt.PrintedCode == "" {
		return nil
	}
	symbology, err := barcode.ParseSymbology(evt.Symbology)
	if err != nil {
		symbology = barcode.SymbologyCode128
	}
	result, err := h.conflicts.AddWithConflictCheck(ctx, barcode.AttachInput{
		ProductID: evt.ProductID,
		Code:      evt.PrintedCode,
		Symbology: symbology,
		Source:    barcode.SourceLabelPrint,
		ActorID:   evt.ActorID,
	}, false)
	if err != nil {
		// Re-prints scan a code the product already carries; that is fine.
		if errors.Is(err, shared.ErrValidation) {
			return nil
		}
		return fmt.Errorf("integration: attach printed code: %w", err)
	}
	if result.Outcome == barcode.OutcomeConflict && h.logger != nil {
		h.logger.Warn("printed code held by another product",
			slog.Int64("product_id", evt.ProductID),
			slog.Int64("holder_product_id", result.Conflict.ProductID),
			slog.String("code", evt.PrintedCode))
	}
	return nil
}
