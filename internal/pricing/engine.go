package pricing

import (
	"time"

	"github.com/faiznutes/Tumbas-sub001/internal/promo"
)

// Money represents a monetary value stored in minor units.
type Money = promo.Money

// Result aggregates computed pricing components for a cart.
type Result struct {
	Lines              []promo.Resolved `json:"lines"`
	Subtotal           Money            `json:"subtotal"`
	Discount           Money            `json:"discount"`
	DiscountedSubtotal Money            `json:"discountedSubtotal"`
	Shipping           Money            `json:"shipping"`
	TaxBps             int              `json:"taxBps"`
	Tax                Money            `json:"tax"`
	Total              Money            `json:"total"`
}

// ProductPrice is the catalog-facing effective price for one product.
type ProductPrice struct {
	ProductID      string `json:"productId"`
	UnitPrice      Money  `json:"unitPrice"`
	DiscountAmount Money  `json:"discountAmount"`
	FinalPrice     Money  `json:"finalPrice"`
}

// normalize clamps malformed line values instead of failing: the engine sits
// on the checkout path and always produces a best-effort result.
func normalize(lines []promo.Line) []promo.Line {
	out := make([]promo.Line, 0, len(lines))
	for _, l := range lines {
		if l.Qty < 1 {
			l.Qty = 1
		}
		if l.UnitPrice < 0 {
			l.UnitPrice = 0
		}
		out = append(out, l)
	}
	return out
}

// Quote resolves every line through the shared discount resolver and folds
// the outcomes into cart totals. The cart context is built once from the
// normalized lines so bundle and minimum-purchase predicates observe
// consistent cart-wide state, and tax is computed strictly after
// discounting.
func Quote(lines []promo.Line, shipping Money, taxBps int, rules []promo.Rule, deal *promo.WeeklyDeal, now time.Time) Result {
	normalized := normalize(lines)
	ctx := promo.BuildContext(normalized)

	res := Result{Lines: make([]promo.Resolved, 0, len(normalized))}
	for _, line := range normalized {
		resolved := promo.Resolve(line, ctx, rules, deal, now)
		res.Lines = append(res.Lines, resolved)
		res.Subtotal += Money(resolved.Qty) * resolved.UnitPrice
		res.Discount += Money(resolved.Qty) * resolved.DiscountPerUnit
	}
	res.DiscountedSubtotal = res.Subtotal - res.Discount

	if shipping < 0 {
		shipping = 0
	}
	if taxBps < 0 {
		taxBps = 0
	}
	res.Shipping = shipping
	res.TaxBps = taxBps

	taxable := res.DiscountedSubtotal + shipping
	res.Tax = (taxable*Money(taxBps) + 5000) / 10000
	res.Total = taxable + res.Tax
	return res
}

// EffectivePrice computes the discounted price a catalog listing shows for a
// single product. It is the one-line-cart specialization of Quote: the same
// resolver, over a context holding just this product at quantity one, so the
// displayed price and the checkout price cannot diverge for identical
// inputs.
func EffectivePrice(productID string, unitPrice Money, rules []promo.Rule, deal *promo.WeeklyDeal, now time.Time) ProductPrice {
	lines, ctx := promo.SingleLine(productID, unitPrice)
	resolved := promo.Resolve(lines[0], ctx, rules, deal, now)
	return ProductPrice{
		ProductID:      productID,
		UnitPrice:      resolved.UnitPrice,
		DiscountAmount: resolved.DiscountPerUnit,
		FinalPrice:     resolved.DiscountedUnit,
	}
}
