package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCache mimics the redis catalog cache without TTL expiry.
type fakeCache struct {
	mu       sync.Mutex
	products map[int64]*models.Product
	prices   map[int64]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		products: make(map[int64]*models.Product),
		prices:   make(map[int64]int64),
	}
}

func (c *fakeCache) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (c *fakeCache) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *product
	c.products[product.ID] = &cp
	return nil
}

func (c *fakeCache) GetEffectivePrice(ctx context.Context, productID int64) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	price, ok := c.prices[productID]
	return price, ok, nil
}

func (c *fakeCache) SetEffectivePrice(ctx context.Context, productID, price int64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[productID] = price
	return nil
}

func (c *fakeCache) InvalidateProduct(ctx context.Context, productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, productID)
	delete(c.prices, productID)
	return nil
}

func newCatalogFixture(t *testing.T) (*fakeStore, *fakeCache, *CatalogService) {
	t.Helper()
	f := newFakeStore()
	f.addProduct(models.Product{
		ID:         1,
		Name:       models.LocalizedText{"en": "Silk Saree", "kn": "ರೇಷ್ಮೆ ಸೀರೆ"},
		Price:      250000,
		Stock:      8,
		Category:   "sarees",
		IsActive:   true,
		IsFeatured: true,
	})
	f.addProduct(models.Product{
		ID:       2,
		Name:     models.LocalizedText{"en": "Kurta"},
		Price:    80000,
		Stock:    15,
		Category: "kurtas",
		IsActive: true,
	})
	f.addProduct(models.Product{
		ID:       3,
		Name:     models.LocalizedText{"en": "Old Stock"},
		Price:    10000,
		Category: "sarees",
		IsActive: false,
	})
	cache := newFakeCache()
	return f, cache, NewCatalogService(f, cache, time.Minute, time.Minute)
}

func TestGetProductReadThrough(t *testing.T) {
	f, cache, svc := newCatalogFixture(t)
	ctx := context.Background()

	product, err := svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Silk Saree", product.Name.Get("en"))
	assert.Equal(t, "ರೇಷ್ಮೆ ಸೀರೆ", product.Name.Get("kn"))

	// Second read is served from the cache; a direct store change is not
	// visible until invalidation.
	require.NoError(t, f.SetProductActive(ctx, 1, false))
	cached, err := svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cached.IsActive)

	require.NoError(t, cache.InvalidateProduct(ctx, 1))
	fresh, err := svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.False(t, fresh.IsActive)

	_, err = svc.GetProduct(ctx, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListProductsFilters(t *testing.T) {
	_, _, svc := newCatalogFixture(t)
	ctx := context.Background()

	all, err := svc.ListProducts(ctx, "", false)
	require.NoError(t, err)
	assert.Len(t, all, 2, "inactive products are hidden from browsing")

	sarees, err := svc.ListProducts(ctx, "sarees", false)
	require.NoError(t, err)
	require.Len(t, sarees, 1)
	assert.Equal(t, int64(1), sarees[0].ID)

	featured, err := svc.ListProducts(ctx, "", true)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, int64(1), featured[0].ID)
}

func TestEffectivePriceCached(t *testing.T) {
	f, cache, svc := newCatalogFixture(t)
	ctx := context.Background()

	price, err := svc.EffectivePrice(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(250000), price)

	// An offer activated after the cache write is invisible until the entry
	// is invalidated; the TTL bounds the staleness in production.
	f.addOffer(models.Offer{
		ProductID:   1,
		DiscountPct: decimal.NewFromInt(20),
		IsActive:    true,
		StartsAt:    time.Now().Add(-time.Hour),
		EndsAt:      time.Now().Add(time.Hour),
	})
	stale, err := svc.EffectivePrice(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(250000), stale)

	require.NoError(t, cache.InvalidateProduct(ctx, 1))
	discounted, err := svc.EffectivePrice(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200000), discounted)
}

func TestToggleWishlist(t *testing.T) {
	_, _, svc := newCatalogFixture(t)
	ctx := context.Background()

	added, err := svc.ToggleWishlist(ctx, 7, 1)
	require.NoError(t, err)
	assert.True(t, added)

	entries, err := svc.GetWishlist(ctx, 7)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ProductID)

	removed, err := svc.ToggleWishlist(ctx, 7, 1)
	require.NoError(t, err)
	assert.False(t, removed)

	entries, err = svc.GetWishlist(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.ToggleWishlist(ctx, 7, 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSubmitComment(t *testing.T) {
	_, _, svc := newCatalogFixture(t)
	ctx := context.Background()

	_, err := svc.SubmitComment(ctx, 7, "complaint", "", "  ")
	var fe models.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "type")
	assert.Contains(t, fe, "message")

	comment, err := svc.SubmitComment(ctx, 7, models.CommentTypeSuggestion, " Sizing ", "Please add a size chart")
	require.NoError(t, err)
	assert.Equal(t, "Sizing", comment.Subject)
	assert.False(t, comment.IsAnswered)

	mine, err := svc.GetComments(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	other, err := svc.GetComments(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, other)
}
