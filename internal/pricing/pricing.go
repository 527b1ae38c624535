// Package pricing computes the effective unit price of a product at a point
// in time. Exactly one price source applies: an active offer wins over the
// manual discount price, and discounts never compound.
package pricing

import (
	"time"

	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Resolve returns the unit price in minor currency units for product at the
// given instant. offer may be nil. The result is deterministic for fixed
// inputs.
//
// Precedence:
//  1. offer active and start <= at < end: base * (1 - pct/100), rounded
//     half-up to the minor unit
//  2. manual discount price, if set and lower than base
//  3. base price
func Resolve(product *models.Product, offer *models.Offer, at time.Time) int64 {
	if offer != nil && offer.IsActive && offer.ProductID == product.ID && offer.InWindow(at) {
		base := decimal.NewFromInt(product.Price)
		factor := hundred.Sub(offer.DiscountPct).Div(hundred)
		// Round(0) rounds half away from zero, which is half-up for
		// non-negative prices.
		return base.Mul(factor).Round(0).IntPart()
	}

	if product.DiscountPrice != nil && *product.DiscountPrice < product.Price {
		return *product.DiscountPrice
	}

	return product.Price
}

// LineTotal returns the total for quantity units at the resolved unit price.
func LineTotal(unitPrice int64, quantity int) int64 {
	return unitPrice * int64(quantity)
}
