package pricing

import (
	"testing"
	"time"

	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func activeOffer(productID int64, pct string, now time.Time) *models.Offer {
	return &models.Offer{
		ID:          1,
		ProductID:   productID,
		DiscountPct: decimal.RequireFromString(pct),
		IsActive:    true,
		StartsAt:    now.Add(-time.Hour),
		EndsAt:      now.Add(time.Hour),
	}
}

func TestResolveOfferBeatsBasePrice(t *testing.T) {
	now := time.Now()
	p := &models.Product{ID: 1, Price: 1000}

	got := Resolve(p, activeOffer(1, "20", now), now)

	assert.Equal(t, int64(800), got)
}

func TestResolveOfferBeatsManualDiscount(t *testing.T) {
	now := time.Now()
	discount := int64(950)
	p := &models.Product{ID: 1, Price: 1000, DiscountPrice: &discount}

	// Offer and manual discount never compound; the offer applies alone.
	got := Resolve(p, activeOffer(1, "10", now), now)

	assert.Equal(t, int64(900), got)
}

func TestResolveHalfUpRounding(t *testing.T) {
	now := time.Now()

	// 1050 * 0.95 = 997.5 -> rounds up to 998
	p := &models.Product{ID: 1, Price: 1050}
	assert.Equal(t, int64(998), Resolve(p, activeOffer(1, "5", now), now))

	// 999 * 0.85 = 849.15 -> rounds down to 849
	p = &models.Product{ID: 1, Price: 999}
	assert.Equal(t, int64(849), Resolve(p, activeOffer(1, "15", now), now))
}

func TestResolveManualDiscountWhenNoOffer(t *testing.T) {
	discount := int64(750)
	p := &models.Product{ID: 1, Price: 1000, DiscountPrice: &discount}

	assert.Equal(t, int64(750), Resolve(p, nil, time.Now()))
}

func TestResolveIgnoresDiscountNotBelowBase(t *testing.T) {
	discount := int64(1200)
	p := &models.Product{ID: 1, Price: 1000, DiscountPrice: &discount}

	assert.Equal(t, int64(1000), Resolve(p, nil, time.Now()))
}

func TestResolveIgnoresInactiveOrExpiredOffer(t *testing.T) {
	now := time.Now()
	p := &models.Product{ID: 1, Price: 1000}

	inactive := activeOffer(1, "20", now)
	inactive.IsActive = false
	assert.Equal(t, int64(1000), Resolve(p, inactive, now))

	expired := activeOffer(1, "20", now)
	expired.EndsAt = now.Add(-time.Minute)
	assert.Equal(t, int64(1000), Resolve(p, expired, now))

	notStarted := activeOffer(1, "20", now)
	notStarted.StartsAt = now.Add(time.Minute)
	assert.Equal(t, int64(1000), Resolve(p, notStarted, now))
}

func TestResolveWindowBoundaries(t *testing.T) {
	now := time.Now()
	p := &models.Product{ID: 1, Price: 1000}

	o := activeOffer(1, "20", now)
	o.StartsAt = now
	// start <= at applies
	assert.Equal(t, int64(800), Resolve(p, o, now))

	o.EndsAt = now
	o.StartsAt = now.Add(-time.Hour)
	// at < end is exclusive
	assert.Equal(t, int64(1000), Resolve(p, o, now))
}

func TestResolveOfferForOtherProductIgnored(t *testing.T) {
	now := time.Now()
	p := &models.Product{ID: 2, Price: 1000}

	assert.Equal(t, int64(1000), Resolve(p, activeOffer(1, "20", now), now))
}

func TestResolveDeterministic(t *testing.T) {
	now := time.Now()
	p := &models.Product{ID: 1, Price: 1333}
	o := activeOffer(1, "33.33", now)

	first := Resolve(p, o, now)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Resolve(p, o, now))
	}
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, int64(2400), LineTotal(800, 3))
	assert.Equal(t, int64(0), LineTotal(800, 0))
}
