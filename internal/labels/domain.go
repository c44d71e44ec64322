// Package labels manages reusable barcode label templates and the
// best-effort usage counters linking templates to created products.
package labels

import (
	"fmt"
	"time"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// CustomData carries the label fields a template remembers so a product
// can be suggested from a scan.
type CustomData struct {
	Name       string  `json:"name,omitempty"`
	Price      float64 `json:"price,omitempty"`
	Size       string  `json:"size,omitempty"`
	Category   string  `json:"category,omitempty"`
	Department string  `json:"department,omitempty"`
}

// Template is a saved label design, possibly not yet linked to any real
// inventory product.
type Template struct {
	ID           int64
	BusinessID   int64
	Name         string
	BarcodeValue string
	Symbology    string
	Custom       CustomData
	UsageCount   int64
	LastUsedAt   *time.Time
}

// ErrTemplateNotFound indicates no template holds the requested id or code.
var ErrTemplateNotFound = fmt.Errorf("labels: template: %w", shared.ErrNotFound)
