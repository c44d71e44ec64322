// Package pricing applies confirmed price overrides back to inventory and
// keeps the append-only price change audit trail.
package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// AuditRow is one immutable product_price_changes record. Rows are created
// once per confirmed update and never touched again.
type AuditRow struct {
	ID           uuid.UUID
	ProductID    int64
	VariantID    int64
	OldPrice     float64
	NewPrice     float64
	ChangedBy    int64
	ChangedAt    time.Time
	Reason       string
	Notes        string
	BarcodeJobID string
}

// HistoryEntry annotates an audit row with the price delta.
type HistoryEntry struct {
	AuditRow
	PriceDifference float64
}

// ConfirmInput describes a confirmed price override. When VariantID is set
// the variant's price is the single update target, otherwise the product's
// sell price. PrintedCode is present only for label-print submissions and
// triggers the post-commit barcode auto-attach.
type ConfirmInput struct {
	ProductID    int64
	VariantID    int64
	NewPrice     float64
	Reason       string
	Notes        string
	BarcodeJobID string
	PrintedCode  string
	Symbology    string
	ActorID      int64
}

// ErrPriceOutOfRange rejects negative prices and prices above the ceiling.
var ErrPriceOutOfRange = fmt.Errorf("pricing: price out of range: %w", shared.ErrValidation)

// priceEpsilon bounds float comparison when detecting an override.
const priceEpsilon = 1e-9

// DetectOverride reports whether the label price diverges from the stored
// price. Pure comparison, no I/O.
func DetectOverride(original, current float64) bool {
	return math.Abs(current-original) > priceEpsilon
}
