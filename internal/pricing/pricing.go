// Package pricing holds the pure price rules: the client-facing markup
// applied on catalog admission and the near-expiry discount applied
// during settlement.
package pricing

import (
	"time"

	"shop-service/internal/models"
)

const (
	// EdibleMarkup and NonEdibleMarkup multiply the wholesale price
	// into the client-facing price, by category.
	EdibleMarkup    = 2.0
	NonEdibleMarkup = 2.5

	// DiscountFactor applies to a cart line whose expiry date, minus
	// DiscountLeadDays, falls before the settlement date.
	DiscountFactor   = 0.75
	DiscountLeadDays = 5
)

// ClientPrice derives the client-facing price from the wholesale price.
// The markup is category-conditional: edible products get the lower
// multiplier, everything else the higher one.
func ClientPrice(wholesale float64, category models.Category) float64 {
	if category == models.CategoryEdible {
		return wholesale * EdibleMarkup
	}
	return wholesale * NonEdibleMarkup
}

// DiscountedUnitPrice returns the unit price a cart line settles at.
// The comparison is calendar-date precision: the discount starts only
// once the day of expiry minus the lead falls strictly before today,
// never partway through the boundary day. The stored line is never
// mutated, so evaluating the same line twice cannot compound the
// discount.
func DiscountedUnitPrice(line models.CartLine, now time.Time) float64 {
	threshold := dateOf(line.ExpireDate.AddDate(0, 0, -DiscountLeadDays))
	if threshold.Before(dateOf(now)) {
		return line.UnitPrice * DiscountFactor
	}
	return line.UnitPrice
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LineTotal returns a cart line's discounted settlement contribution.
func LineTotal(line models.CartLine, now time.Time) float64 {
	return DiscountedUnitPrice(line, now) * float64(line.Quantity)
}

// CartTotal sums the discounted settlement price of a whole cart.
func CartTotal(lines []models.CartLine, now time.Time) float64 {
	var total float64
	for _, line := range lines {
		total += LineTotal(line, now)
	}
	return total
}
