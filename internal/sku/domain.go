// Package sku generates collision-free human-readable SKUs from per-business
// monotonic sequences.
package sku

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Format is the closed set of SKU layouts a business may configure.
// Unknown format strings are rejected, never silently defaulted.
type Format string

const (
	// FormatBusiness yields PREFIX-00001.
	FormatBusiness Format = "{BUSINESS}-{SEQ}"
	// FormatCategory yields CATEGORY-00001.
	FormatCategory Format = "{CATEGORY}-{SEQ}"
	// FormatDepartment yields DEPARTMENT-00001.
	FormatDepartment Format = "{DEPARTMENT}-{SEQ}"
	// FormatBusinessCategory yields PREFIX-CATEGORY-00001.
	FormatBusinessCategory Format = "{BUSINESS}-{CATEGORY}-{SEQ}"
)

// ErrUnknownFormat rejects format strings outside the closed set.
var ErrUnknownFormat = fmt.Errorf("sku: unknown format: %w", shared.ErrValidation)

// ParseFormat validates a configured format string.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatBusiness, FormatCategory, FormatDepartment, FormatBusinessCategory:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Label names the format for metrics and logs.
func (f Format) Label() string {
	switch f {
	case FormatBusiness:
		return "business"
	case FormatCategory:
		return "category"
	case FormatDepartment:
		return "department"
	case FormatBusinessCategory:
		return "business_category"
	default:
		return "unknown"
	}
}

// maxPrefixPart caps a derived name segment so SKUs stay readable.
const maxPrefixPart = 12

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizePrefix folds a human name ("Épicerie fine") into a prefix
// segment ("EPICERIEFINE"). Returns "" when nothing usable remains.
func NormalizePrefix(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(folded) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= maxPrefixPart {
			break
		}
	}
	return b.String()
}

// DerivePrefix computes the final sequence key prefix for a format. When
// the category/department name is absent (or normalizes to nothing) the
// business's raw prefix is the fallback.
func DerivePrefix(format Format, businessPrefix, categoryName, departmentName string) string {
	switch format {
	case FormatBusiness:
		return businessPrefix
	case FormatCategory:
		if p := NormalizePrefix(categoryName); p != "" {
			return p
		}
		return businessPrefix
	case FormatDepartment:
		if p := NormalizePrefix(departmentName); p != "" {
			return p
		}
		return businessPrefix
	case FormatBusinessCategory:
		if p := NormalizePrefix(categoryName); p != "" {
			return businessPrefix + "-" + p
		}
		return businessPrefix
	default:
		return businessPrefix
	}
}
