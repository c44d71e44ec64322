package sku

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

type mockSequenceStore struct {
	mu       sync.Mutex
	counters map[string]int64
	nextErr  error
}

func newMockSequenceStore() *mockSequenceStore {
	return &mockSequenceStore{counters: make(map[string]int64)}
}

func seqKey(businessID int64, prefix string) string {
	return fmt.Sprintf("%d|%s", businessID, prefix)
}

func (m *mockSequenceStore) Next(ctx context.Context, businessID int64, prefix string) (int64, error) {
	if m.nextErr != nil {
		return 0, m.nextErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := seqKey(businessID, prefix)
	m.counters[key]++
	return m.counters[key], nil
}

func (m *mockSequenceStore) Current(ctx context.Context, businessID int64, prefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[seqKey(businessID, prefix)], nil
}

type mockBusinessConfigs struct {
	configs map[int64]catalog.BusinessConfig
}

func (m *mockBusinessConfigs) GetBusinessConfig(ctx context.Context, businessID int64) (catalog.BusinessConfig, error) {
	cfg, ok := m.configs[businessID]
	if !ok {
		return catalog.BusinessConfig{}, fmt.Errorf("business %d: %w", businessID, shared.ErrNotFound)
	}
	return cfg, nil
}

func newService(configs map[int64]catalog.BusinessConfig) (*Service, *mockSequenceStore) {
	store := newMockSequenceStore()
	return NewService(store, &mockBusinessConfigs{configs: configs}, nil), store
}

func TestGenerateBusinessFormatSequence(t *testing.T) {
	svc, _ := newService(map[int64]catalog.BusinessConfig{
		1: {BusinessID: 1, SKUFormat: string(FormatBusiness), SKUPrefix: "HXI", SKUDigits: 5},
	})
	ctx := context.Background()

	first, err := svc.Generate(ctx, GenerateInput{BusinessID: 1})
	require.NoError(t, err)
	assert.Equal(t, "HXI-00001", first)

	second, err := svc.Generate(ctx, GenerateInput{BusinessID: 1})
	require.NoError(t, err)
	assert.Equal(t, "HXI-00002", second)

	previewed, err := svc.Preview(ctx, GenerateInput{BusinessID: 1})
	require.NoError(t, err)
	assert.Equal(t, "HXI-00003", previewed)
}

func TestPreviewDoesNotConsumeSequence(t *testing.T) {
	svc, store := newService(map[int64]catalog.BusinessConfig{
		1: {BusinessID: 1, SKUFormat: string(FormatBusiness), SKUPrefix: "HXI", SKUDigits: 5},
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		previewed, err := svc.Preview(ctx, GenerateInput{BusinessID: 1})
		require.NoError(t, err)
		assert.Equal(t, "HXI-00001", previewed)
	}
	current, err := store.Current(ctx, 1, "HXI")
	require.NoError(t, err)
	assert.Zero(t, current)

	generated, err := svc.Generate(ctx, GenerateInput{BusinessID: 1})
	require.NoError(t, err)
	assert.Equal(t, "HXI-00001", generated)
}

func TestGenerateConcurrentCallsAreDistinct(t *testing.T) {
	svc, _ := newService(map[int64]catalog.BusinessConfig{
		1: {BusinessID: 1, SKUFormat: string(FormatBusiness), SKUPrefix: "HXI", SKUDigits: 5},
	})
	ctx := context.Background()

	const n = 50
	results := make(chan string, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			generated, err := svc.Generate(ctx, GenerateInput{BusinessID: 1})
			if err != nil {
				errs <- err
				return
			}
			results <- generated
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	seen := make(map[string]bool, n)
	for generated := range results {
		assert.False(t, seen[generated], "duplicate sku %s", generated)
		seen[generated] = true
	}
	assert.Len(t, seen, n)
}

func TestGenerateIndependentSequencesPerPrefix(t *testing.T) {
	svc, _ := newService(map[int64]catalog.BusinessConfig{
		1: {BusinessID: 1, SKUFormat: string(FormatCategory), SKUPrefix: "HXI", SKUDigits: 4},
	})
	ctx := context.Background()

	drinks, err := svc.Generate(ctx, GenerateInput{BusinessID: 1, CategoryName: "Drinks"})
	require.NoError(t, err)
	assert.Equal(t, "DRINKS-0001", drinks)

	snacks, err := svc.Generate(ctx, GenerateInput{BusinessID: 1, CategoryName: "Snacks"})
	require.NoError(t, err)
	assert.Equal(t, "SNACKS-0001", snacks)

	moreDrinks, err := svc.Generate(ctx, GenerateInput{BusinessID: 1, CategoryName: "Drinks"})
	require.NoError(t, err)
	assert.Equal(t, "DRINKS-0002", moreDrinks)
}

func TestGenerateUnknownFormatRejected(t *testing.T) {
	svc, _ := newService(map[int64]catalog.BusinessConfig{
		1: {BusinessID: 1, SKUFormat: "{RANDOM}-{SEQ}", SKUPrefix: "HXI", SKUDigits: 5},
	})
	_, err := svc.Generate(context.Background(), GenerateInput{BusinessID: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestGenerateRequiresBusiness(t *testing.T) {
	svc, _ := newService(nil)
	_, err := svc.Generate(context.Background(), GenerateInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestGenerateBusinessCategoryFormat(t *testing.T) {
	svc, _ := newService(map[int64]catalog.BusinessConfig{
		1: {BusinessID: 1, SKUFormat: string(FormatBusinessCategory), SKUPrefix: "WHD", SKUDigits: 5},
	})
	generated, err := svc.Generate(context.Background(), GenerateInput{BusinessID: 1, CategoryName: "Produce"})
	require.NoError(t, err)
	assert.Equal(t, "WHD-PRODUCE-00001", generated)
}

func TestGenerateMissingCategoryFallsBackToBusinessPrefix(t *testing.T) {
	svc, _ := newService(map[int64]catalog.BusinessConfig{
		1: {BusinessID: 1, SKUFormat: string(FormatCategory), SKUPrefix: "CGR", SKUDigits: 4},
	})
	generated, err := svc.Generate(context.Background(), GenerateInput{BusinessID: 1})
	require.NoError(t, err)
	assert.Equal(t, "CGR-0001", generated)
}

func TestNormalizePrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Drinks", "DRINKS"},
		{"Épicerie fine", "EPICERIEFINE"},
		{"Home & Garden", "HOMEGARDEN"},
		{"   ", ""},
		{"!!!", ""},
		{"verylongcategoryname", "VERYLONGCATE"},
		{"café 24", "CAFE24"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePrefix(tc.in), "input %q", tc.in)
	}
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{
		string(FormatBusiness), string(FormatCategory),
		string(FormatDepartment), string(FormatBusinessCategory),
	} {
		_, err := ParseFormat(valid)
		assert.NoError(t, err, valid)
	}
	_, err := ParseFormat("{SEQ}")
	assert.Error(t, err)
	_, err = ParseFormat("")
	assert.Error(t, err)
}

func TestFormatSKUPadsSequence(t *testing.T) {
	assert.Equal(t, "HXI-00001", formatSKU("HXI", 1, 5))
	assert.Equal(t, "HXI-100000", formatSKU("HXI", 100000, 5))
	assert.Equal(t, "HXI-00042", formatSKU("HXI", 42, 0))
}
