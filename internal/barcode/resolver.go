package barcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-pos/meridian-pos/internal/labels"
	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/shared"
	"github.com/meridian-pos/meridian-pos/internal/sku"
)

// Scope limits a lookup to the caller's business or spans all businesses
// the caller may access.
type Scope string

const (
	ScopeCurrent Scope = "current"
	ScopeGlobal  Scope = "global"
)

// ParseScope validates a scope value; empty defaults to current.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(s); sc {
	case ScopeCurrent, ScopeGlobal:
		return sc, nil
	case "":
		return ScopeCurrent, nil
	default:
		return "", fmt.Errorf("barcode: unknown scope %q: %w", s, shared.ErrValidation)
	}
}

// ResultType discriminates the three lookup tiers.
type ResultType string

const (
	ResultProduct  ResultType = "product"
	ResultTemplate ResultType = "template"
	ResultNotFound ResultType = "not_found"
)

// SuggestedProduct is the pre-filled creation form derived from a
// template's custom data plus a previewed SKU.
type SuggestedProduct struct {
	Name       string  `json:"name"`
	SKU        string  `json:"sku"`
	Price      float64 `json:"price"`
	Size       string  `json:"size,omitempty"`
	Category   string  `json:"category,omitempty"`
	Department string  `json:"department,omitempty"`
}

// LookupResult is the discriminated outcome of a scan.
type LookupResult struct {
	Type      ResultType        `json:"type"`
	Code      string            `json:"code"`
	Product   *Match            `json:"product,omitempty"`
	Template  *labels.Template  `json:"template,omitempty"`
	Suggested *SuggestedProduct `json:"suggested_product,omitempty"`
}

// MatchPort abstracts the tier-1 product query.
type MatchPort interface {
	ResolveCode(ctx context.Context, code string, businessID int64, global bool) (Match, error)
}

// TemplatePort abstracts the tier-2 template query.
type TemplatePort interface {
	FindByBarcodeValue(ctx context.Context, code string, businessID int64, global bool) (labels.Template, error)
}

// SkuPreviewPort previews the next SKU without consuming a sequence.
type SkuPreviewPort interface {
	Preview(ctx context.Context, input sku.GenerateInput) (string, error)
}

// Resolver performs the three-tier lookup: product, template, miss.
type Resolver struct {
	products  MatchPort
	templates TemplatePort
	sku       SkuPreviewPort
	cache     *LookupCache
	metrics   *observability.Metrics
	logger    *slog.Logger
	group     singleflight.Group
}

// NewResolver builds Resolver.
func NewResolver(products MatchPort, templates TemplatePort, skuPreview SkuPreviewPort, cache *LookupCache, metrics *observability.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{products: products, templates: templates, sku: skuPreview, cache: cache, metrics: metrics, logger: logger}
}

// Lookup resolves a scanned code. A product match always wins, even when a
// template holds the same value. Identical concurrent scans are collapsed
// into one query.
func (r *Resolver) Lookup(ctx context.Context, code string, businessID int64, scope Scope) (LookupResult, error) {
	if code == "" {
		return LookupResult{}, fmt.Errorf("barcode: code required: %w", shared.ErrValidation)
	}
	if scope == "" {
		scope = ScopeCurrent
	}
	if scope == ScopeCurrent && businessID == 0 {
		return LookupResult{}, fmt.Errorf("barcode: business required for current scope: %w", shared.ErrValidation)
	}
	key := fmt.Sprintf("%s|%d|%s", code, businessID, scope)
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.lookup(ctx, code, businessID, scope)
	})
	if err != nil {
		return LookupResult{}, err
	}
	return v.(LookupResult), nil
}

func (r *Resolver) lookup(ctx context.Context, code string, businessID int64, scope Scope) (LookupResult, error) {
	global := scope == ScopeGlobal

	if m, ok := r.cache.Get(ctx, code, businessID, global); ok {
		r.metrics.ObserveLookup(string(ResultProduct), string(scope))
		return LookupResult{Type: ResultProduct, Code: code, Product: &m}, nil
	}

	m, err := r.products.ResolveCode(ctx, code, businessID, global)
	switch {
	case err == nil:
		r.cache.Set(ctx, code, businessID, global, m)
		r.metrics.ObserveLookup(string(ResultProduct), string(scope))
		return LookupResult{Type: ResultProduct, Code: code, Product: &m}, nil
	case !errors.Is(err, ErrBarcodeNotFound):
		return LookupResult{}, err
	}

	tpl, err := r.templates.FindByBarcodeValue(ctx, code, businessID, global)
	switch {
	case err == nil:
		suggested := r.suggestProduct(ctx, tpl)
		r.metrics.ObserveLookup(string(ResultTemplate), string(scope))
		return LookupResult{Type: ResultTemplate, Code: code, Template: &tpl, Suggested: suggested}, nil
	case !errors.Is(err, labels.ErrTemplateNotFound):
		return LookupResult{}, err
	}

	r.metrics.ObserveLookup(string(ResultNotFound), string(scope))
	return LookupResult{Type: ResultNotFound, Code: code}, nil
}

func (r *Resolver) suggestProduct(ctx context.Context, tpl labels.Template) *SuggestedProduct {
	suggested := &SuggestedProduct{
		Name:       tpl.Custom.Name,
		Price:      tpl.Custom.Price,
		Size:       tpl.Custom.Size,
		Category:   tpl.Custom.Category,
		Department: tpl.Custom.Department,
	}
	if suggested.Name == "" {
		suggested.Name = tpl.Name
	}
	previewed, err := r.sku.Preview(ctx, sku.GenerateInput{
		BusinessID:     tpl.BusinessID,
		CategoryName:   tpl.Custom.Category,
		DepartmentName: tpl.Custom.Department,
	})
	if err != nil {
		// The suggestion is advisory; a broken SKU config should not turn a
		// template hit into a failed scan.
		if r.logger != nil {
			r.logger.Warn("suggest sku preview", slog.Int64("template_id", tpl.ID), slog.Any("error", err))
		}
	} else {
		suggested.SKU = previewed
	}
	return suggested
}
