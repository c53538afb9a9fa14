package promo

import "time"

// candidate is an eligible discount pending winner selection.
type candidate struct {
	source   string
	amount   Money
	priority int
	position int
}

// discountAmount converts a discount type/value pair into a per-unit amount,
// rounding percentages half-up and clamping the result to [0, unitPrice].
func discountAmount(dt DiscountType, value, unitPrice Money) Money {
	if value <= 0 || unitPrice <= 0 {
		return 0
	}
	var amount Money
	switch dt {
	case Percentage:
		amount = (unitPrice*value + 50) / 100
	case Fixed:
		amount = value
	default:
		return 0
	}
	if amount < 0 {
		return 0
	}
	if amount > unitPrice {
		amount = unitPrice
	}
	return amount
}

// beats reports whether a should win over b: larger discount first, then
// higher priority, then the more recently defined rule.
func (a candidate) beats(b candidate) bool {
	if a.amount != b.amount {
		return a.amount > b.amount
	}
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.position > b.position
}

// Resolve selects the single winning discount for one line. Candidates are
// every active, applicable campaign plus the weekly deal; discounts never
// stack, only the largest applies. The weekly deal competes with an implicit
// priority of 0 and the earliest definition rank, so a campaign that ties on
// amount and priority always beats it.
//
// Resolve never fails: with no eligible candidate (or only candidates whose
// clamped discount is zero) the line comes back undiscounted with an empty
// Source.
func Resolve(line Line, ctx Context, rules []Rule, deal *WeeklyDeal, now time.Time) Resolved {
	out := Resolved{
		ProductID:      line.ProductID,
		UnitPrice:      line.UnitPrice,
		Qty:            line.Qty,
		DiscountedUnit: line.UnitPrice,
	}
	if line.UnitPrice <= 0 {
		return out
	}

	var best candidate
	found := false
	consider := func(c candidate) {
		if c.amount <= 0 {
			return
		}
		if !found || c.beats(best) {
			best = c
			found = true
		}
	}

	if deal.ActiveAt(now) {
		if dt, value, ok := deal.DiscountFor(line.ProductID); ok {
			consider(candidate{
				source:   SourceWeeklyDeal,
				amount:   discountAmount(dt, value, line.UnitPrice),
				priority: 0,
				position: -1,
			})
		}
	}
	for i := range rules {
		r := &rules[i]
		if !r.ActiveAt(now) || !r.AppliesTo(line, ctx) {
			continue
		}
		consider(candidate{
			source:   r.ID,
			amount:   discountAmount(r.DiscountType, r.DiscountValue, line.UnitPrice),
			priority: r.Priority,
			position: r.Position,
		})
	}

	if found {
		out.DiscountPerUnit = best.amount
		out.DiscountedUnit = line.UnitPrice - best.amount
		out.Source = best.source
	}
	return out
}
