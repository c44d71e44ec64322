// Package barcode resolves scanned codes and manages the barcodes attached
// to products: registry queries, the one-primary invariant, cross-product
// conflict handling and the three-tier scan lookup.
package barcode

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Source records how a barcode got attached to a product.
type Source string

const (
	// SourceManual is a barcode typed or scanned in by a user.
	SourceManual Source = "MANUAL"
	// SourceLabelPrint is a barcode auto-attached after a label print.
	SourceLabelPrint Source = "LABEL_PRINT"
	// SourceImport is a barcode loaded through a bulk import.
	SourceImport Source = "IMPORT"
)

// ParseSource validates a source value.
func ParseSource(s string) (Source, error) {
	switch src := Source(s); src {
	case SourceManual, SourceLabelPrint, SourceImport:
		return src, nil
	default:
		return "", fmt.Errorf("barcode: unknown source %q: %w", s, shared.ErrValidation)
	}
}

// Symbology is the barcode encoding standard.
type Symbology string

const (
	SymbologyCode128 Symbology = "CODE128"
	SymbologyCode39  Symbology = "CODE39"
	SymbologyEAN13   Symbology = "EAN13"
	SymbologyEAN8    Symbology = "EAN8"
	SymbologyUPC     Symbology = "UPC"
	SymbologyQR      Symbology = "QR"
)

// ParseSymbology validates a symbology value.
func ParseSymbology(s string) (Symbology, error) {
	switch sym := Symbology(s); sym {
	case SymbologyCode128, SymbologyCode39, SymbologyEAN13, SymbologyEAN8, SymbologyUPC, SymbologyQR:
		return sym, nil
	default:
		return "", fmt.Errorf("barcode: unsupported symbology %q: %w", s, shared.ErrValidation)
	}
}

// ProductBarcode is one code attached to a product. For a given product at
// most one row is primary, and a product that has a barcode never drops
// back to zero.
type ProductBarcode struct {
	ID        uuid.UUID
	ProductID int64
	Code      string
	Symbology Symbology
	IsPrimary bool
	Source    Source
	CreatedBy int64
	CreatedAt time.Time
}

// AttachInput describes a request to attach a code to a product.
type AttachInput struct {
	ProductID int64
	Code      string
	Symbology Symbology
	IsPrimary bool
	Source    Source
	ActorID   int64
}

var (
	// ErrBarcodeNotFound indicates a missing barcode row.
	ErrBarcodeNotFound = fmt.Errorf("barcode: %w", shared.ErrNotFound)
	// ErrLastBarcode stops the removal of a product's only barcode.
	ErrLastBarcode = fmt.Errorf("barcode: cannot remove the product's only barcode: %w", shared.ErrIntegrity)
	// ErrCodeTaken reports losing a unique-index race on a code two users
	// attached at the same instant.
	ErrCodeTaken = fmt.Errorf("barcode: code was just attached elsewhere: %w", shared.ErrIntegrity)
)
