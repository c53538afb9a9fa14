package promo

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseDay parses a date-only bound. Blank or malformed values report false,
// which callers treat as "no constraint on this side" rather than rejecting
// the rule: a campaign with a mistyped date keeps running instead of
// silently disappearing from a pricing-critical path.
func parseDay(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// withinWindow checks a date-only [start, end] window. The end bound is
// inclusive of the whole day.
func withinWindow(now time.Time, startDate, endDate string) bool {
	if start, ok := parseDay(startDate); ok && now.Before(start) {
		return false
	}
	if end, ok := parseDay(endDate); ok && !now.Before(end.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// ActiveAt reports whether the rule is enabled and inside its date window.
// A non-positive discount value can never produce a discount, so such rules
// are inactive outright.
func (r Rule) ActiveAt(now time.Time) bool {
	if !r.Enabled || r.DiscountValue <= 0 {
		return false
	}
	return withinWindow(now, r.StartDate, r.EndDate)
}

// AppliesTo reports whether an active rule covers the given line under the
// cart-wide context. Pure predicate, no side effects.
func (r Rule) AppliesTo(line Line, ctx Context) bool {
	if len(r.ProductIDs) > 0 && !containsID(r.ProductIDs, line.ProductID) {
		return false
	}
	switch r.Kind {
	case KindProduct:
		return true
	case KindBulk:
		return r.MinQuantity >= 1 && line.Qty >= r.MinQuantity
	case KindMinPurchase:
		return ctx.PreDiscountSubtotal >= r.MinPurchaseAmount
	case KindBundle:
		// An empty bundle set would make the rule always-on; it never applies.
		if len(r.BundleProductIDs) == 0 {
			return false
		}
		for _, id := range r.BundleProductIDs {
			if !ctx.Contains(id) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ActiveAt reports whether the weekly deal is currently running.
func (d *WeeklyDeal) ActiveAt(now time.Time) bool {
	if d == nil || !d.Enabled {
		return false
	}
	return withinWindow(now, d.StartDate, d.EndDate)
}

// DiscountFor returns the discount type and value the deal applies to the
// product, honouring per-product overrides, or false when the deal does not
// cover the product.
func (d *WeeklyDeal) DiscountFor(productID string) (DiscountType, Money, bool) {
	if d == nil {
		return "", 0, false
	}
	if len(d.ProductIDs) > 0 && !containsID(d.ProductIDs, productID) {
		return "", 0, false
	}
	if o, ok := d.ItemDiscounts[productID]; ok {
		return o.DiscountType, o.DiscountValue, true
	}
	return d.DiscountType, d.DiscountValue, true
}
