package promo

// Context captures the cart-wide state needed by the eligibility predicates.
// It is built once per evaluation so every line sees the same totals.
type Context struct {
	// PreDiscountSubtotal is the sum of unitPrice*qty before any discounting.
	PreDiscountSubtotal Money
	// QtyByProduct aggregates quantities across lines per product.
	QtyByProduct map[string]int
}

// BuildContext derives the evaluation context from normalized lines.
func BuildContext(lines []Line) Context {
	ctx := Context{QtyByProduct: make(map[string]int, len(lines))}
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		ctx.PreDiscountSubtotal += Money(l.Qty) * l.UnitPrice
		ctx.QtyByProduct[l.ProductID] += l.Qty
	}
	return ctx
}

// Contains reports whether the cart holds at least one unit of the product.
func (c Context) Contains(productID string) bool {
	return c.QtyByProduct[productID] > 0
}

// SingleLine builds the context a catalog view uses: a cart holding exactly
// the viewed product at quantity one. Routing catalog display through the
// same resolver with this context keeps the displayed price identical to
// what checkout computes for the same product.
func SingleLine(productID string, unitPrice Money) ([]Line, Context) {
	if unitPrice < 0 {
		unitPrice = 0
	}
	lines := []Line{{ProductID: productID, UnitPrice: unitPrice, Qty: 1}}
	return lines, BuildContext(lines)
}
