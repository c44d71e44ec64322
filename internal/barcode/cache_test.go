package barcode

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*LookupCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLookupCache(client, time.Minute, nil), mr
}

func TestLookupCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	m := productMatch(10, 1, "6291041500213", "Ceramic Mug 350ml", "HXI-00001")

	_, ok := cache.Get(ctx, "6291041500213", 1, false)
	assert.False(t, ok)

	cache.Set(ctx, "6291041500213", 1, false, m)

	got, ok := cache.Get(ctx, "6291041500213", 1, false)
	require.True(t, ok)
	assert.Equal(t, m.Product.ID, got.Product.ID)
	assert.Equal(t, m.Product.Name, got.Product.Name)
	assert.Equal(t, m.Barcode.Code, got.Barcode.Code)
}

func TestLookupCacheScopesAreIndependent(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	m := productMatch(10, 1, "CODE", "Product", "HXI-00001")

	cache.Set(ctx, "CODE", 1, false, m)

	_, ok := cache.Get(ctx, "CODE", 1, true)
	assert.False(t, ok, "global scope not populated by a current-scope set")
	_, ok = cache.Get(ctx, "CODE", 2, false)
	assert.False(t, ok, "other business not populated")
}

func TestLookupCacheInvalidateDropsAllScopes(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	m := productMatch(10, 1, "CODE", "Product", "HXI-00001")

	cache.Set(ctx, "CODE", 1, false, m)
	cache.Set(ctx, "CODE", 1, true, m)
	cache.Set(ctx, "CODE", 2, true, m)

	cache.Invalidate(ctx, "CODE")

	for _, scope := range []struct {
		businessID int64
		global     bool
	}{{1, false}, {1, true}, {2, true}} {
		_, ok := cache.Get(ctx, "CODE", scope.businessID, scope.global)
		assert.False(t, ok)
	}
}

func TestLookupCacheEntriesExpire(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "CODE", 1, false, productMatch(10, 1, "CODE", "Product", "HXI-00001"))
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx, "CODE", 1, false)
	assert.False(t, ok)
}

func TestLookupCacheNilSafe(t *testing.T) {
	var cache *LookupCache
	ctx := context.Background()

	_, ok := cache.Get(ctx, "CODE", 1, false)
	assert.False(t, ok)
	cache.Set(ctx, "CODE", 1, false, Match{})
	cache.Invalidate(ctx, "CODE")
}
