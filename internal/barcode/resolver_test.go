package barcode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/labels"
	"github.com/meridian-pos/meridian-pos/internal/shared"
	"github.com/meridian-pos/meridian-pos/internal/sku"
)

type fakeMatchPort struct {
	matches map[string]Match
	calls   int
}

func (f *fakeMatchPort) ResolveCode(ctx context.Context, code string, businessID int64, global bool) (Match, error) {
	f.calls++
	m, ok := f.matches[code]
	if !ok {
		return Match{}, ErrBarcodeNotFound
	}
	if !global && m.Product.BusinessID != businessID {
		return Match{}, ErrBarcodeNotFound
	}
	return m, nil
}

type fakeTemplatePort struct {
	templates map[string]labels.Template
}

func (f *fakeTemplatePort) FindByBarcodeValue(ctx context.Context, code string, businessID int64, global bool) (labels.Template, error) {
	tpl, ok := f.templates[code]
	if !ok {
		return labels.Template{}, labels.ErrTemplateNotFound
	}
	if !global && tpl.BusinessID != businessID {
		return labels.Template{}, labels.ErrTemplateNotFound
	}
	return tpl, nil
}

type fakePreviewPort struct {
	sku string
	err error
}

func (f *fakePreviewPort) Preview(ctx context.Context, input sku.GenerateInput) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.sku, nil
}

func productMatch(productID, businessID int64, code, name, skuValue string) Match {
	return Match{
		Product: catalog.Product{ID: productID, BusinessID: businessID, SKU: skuValue, Name: name, SellPrice: 9.90},
		Barcode: ProductBarcode{ProductID: productID, Code: code, Symbology: SymbologyEAN13, IsPrimary: true},
	}
}

func newTestResolver(matches map[string]Match, templates map[string]labels.Template, preview *fakePreviewPort) (*Resolver, *fakeMatchPort) {
	matchPort := &fakeMatchPort{matches: matches}
	if preview == nil {
		preview = &fakePreviewPort{sku: "HXI-00003"}
	}
	return NewResolver(matchPort, &fakeTemplatePort{templates: templates}, preview, nil, nil, nil), matchPort
}

func TestLookupProductTier(t *testing.T) {
	resolver, _ := newTestResolver(map[string]Match{
		"6291041500213": productMatch(10, 1, "6291041500213", "Ceramic Mug 350ml", "HXI-00001"),
	}, nil, nil)

	result, err := resolver.Lookup(context.Background(), "6291041500213", 1, ScopeCurrent)
	require.NoError(t, err)
	assert.Equal(t, ResultProduct, result.Type)
	require.NotNil(t, result.Product)
	assert.Equal(t, "Ceramic Mug 350ml", result.Product.Product.Name)
	assert.Nil(t, result.Template)
	assert.Nil(t, result.Suggested)
}

func TestLookupProductBeatsTemplate(t *testing.T) {
	code := "000000099875"
	resolver, _ := newTestResolver(
		map[string]Match{code: productMatch(10, 1, code, "Sliced Ham 200g", "HXI-00042")},
		map[string]labels.Template{code: {ID: 3, BusinessID: 1, BarcodeValue: code, Name: "Deli Counter Label"}},
		nil,
	)

	result, err := resolver.Lookup(context.Background(), code, 1, ScopeCurrent)
	require.NoError(t, err)
	assert.Equal(t, ResultProduct, result.Type, "a real product always wins over a template holding the same value")
	assert.Nil(t, result.Template)
}

func TestLookupTemplateTierSuggestsProduct(t *testing.T) {
	code := "000000099875"
	resolver, _ := newTestResolver(nil, map[string]labels.Template{
		code: {
			ID:           3,
			BusinessID:   1,
			Name:         "Deli Counter Label",
			BarcodeValue: code,
			Custom:       labels.CustomData{Name: "Sliced Ham 200g", Price: 4.20, Category: "Deli"},
		},
	}, &fakePreviewPort{sku: "HXI-00003"})

	result, err := resolver.Lookup(context.Background(), code, 1, ScopeCurrent)
	require.NoError(t, err)
	assert.Equal(t, ResultTemplate, result.Type)
	require.NotNil(t, result.Template)
	assert.Equal(t, int64(3), result.Template.ID)
	require.NotNil(t, result.Suggested)
	assert.Equal(t, "Sliced Ham 200g", result.Suggested.Name)
	assert.Equal(t, 4.20, result.Suggested.Price)
	assert.Equal(t, "Deli", result.Suggested.Category)
	assert.Equal(t, "HXI-00003", result.Suggested.SKU)
}

func TestLookupTemplateSuggestionNameFallsBackToTemplateName(t *testing.T) {
	code := "000000100233"
	resolver, _ := newTestResolver(nil, map[string]labels.Template{
		code: {ID: 4, BusinessID: 1, Name: "Bakery Label", BarcodeValue: code, Custom: labels.CustomData{Price: 3.80}},
	}, nil)

	result, err := resolver.Lookup(context.Background(), code, 1, ScopeCurrent)
	require.NoError(t, err)
	require.NotNil(t, result.Suggested)
	assert.Equal(t, "Bakery Label", result.Suggested.Name)
}

func TestLookupTemplateSurvivesPreviewFailure(t *testing.T) {
	code := "000000099875"
	resolver, _ := newTestResolver(nil, map[string]labels.Template{
		code: {ID: 3, BusinessID: 1, Name: "Deli Counter Label", BarcodeValue: code},
	}, &fakePreviewPort{err: errors.New("sequence store down")})

	result, err := resolver.Lookup(context.Background(), code, 1, ScopeCurrent)
	require.NoError(t, err, "a broken SKU preview must not fail the scan")
	assert.Equal(t, ResultTemplate, result.Type)
	require.NotNil(t, result.Suggested)
	assert.Empty(t, result.Suggested.SKU)
}

func TestLookupNotFoundTier(t *testing.T) {
	resolver, _ := newTestResolver(nil, nil, nil)

	result, err := resolver.Lookup(context.Background(), "000000099875", 1, ScopeCurrent)
	require.NoError(t, err, "a miss is a result, not an error")
	assert.Equal(t, ResultNotFound, result.Type)
	assert.Equal(t, "000000099875", result.Code)
	assert.Nil(t, result.Product)
	assert.Nil(t, result.Template)
}

func TestLookupScopeLimitsToBusiness(t *testing.T) {
	code := "6291041500213"
	resolver, _ := newTestResolver(map[string]Match{
		code: productMatch(10, 2, code, "Other Business Product", "WHD-00001"),
	}, nil, nil)
	ctx := context.Background()

	current, err := resolver.Lookup(ctx, code, 1, ScopeCurrent)
	require.NoError(t, err)
	assert.Equal(t, ResultNotFound, current.Type)

	global, err := resolver.Lookup(ctx, code, 1, ScopeGlobal)
	require.NoError(t, err)
	assert.Equal(t, ResultProduct, global.Type)
}

func TestLookupValidation(t *testing.T) {
	resolver, _ := newTestResolver(nil, nil, nil)
	ctx := context.Background()

	_, err := resolver.Lookup(ctx, "", 1, ScopeCurrent)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = resolver.Lookup(ctx, "CODE", 0, ScopeCurrent)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	// Global scope works without a business.
	result, err := resolver.Lookup(ctx, "CODE", 0, ScopeGlobal)
	require.NoError(t, err)
	assert.Equal(t, ResultNotFound, result.Type)
}

func TestParseScope(t *testing.T) {
	scope, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeCurrent, scope)

	scope, err = ParseScope("global")
	require.NoError(t, err)
	assert.Equal(t, ScopeGlobal, scope)

	_, err = ParseScope("everything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}
