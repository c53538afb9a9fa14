package promo

// Money represents a monetary value stored in minor units.
type Money = int64

// Kind discriminates the campaign variants.
type Kind string

// Campaign variants.
const (
	KindProduct     Kind = "product"
	KindBulk        Kind = "bulk"
	KindMinPurchase Kind = "min_purchase"
	KindBundle      Kind = "bundle"
)

// DiscountType selects how DiscountValue is interpreted.
type DiscountType string

const (
	// Percentage treats DiscountValue as a whole percent of the unit price.
	Percentage DiscountType = "percentage"
	// Fixed treats DiscountValue as an absolute amount in minor units.
	Fixed DiscountType = "fixed"
)

// SourceWeeklyDeal is the sentinel winner identifier for the weekly deal.
const SourceWeeklyDeal = "weekly-deal"

// Rule is an admin-authored campaign. The four variants share the common
// fields; MinQuantity, MinPurchaseAmount and BundleProductIDs are only
// consulted for the matching Kind.
type Rule struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Kind              Kind         `json:"kind"`
	Enabled           bool         `json:"enabled"`
	DiscountType      DiscountType `json:"discountType"`
	DiscountValue     Money        `json:"discountValue"`
	Priority          int          `json:"priority"`
	StartDate         string       `json:"startDate,omitempty"`
	EndDate           string       `json:"endDate,omitempty"`
	ProductIDs        []string     `json:"productIds,omitempty"`
	MinQuantity       int          `json:"minQuantity,omitempty"`
	MinPurchaseAmount Money        `json:"minPurchaseAmount,omitempty"`
	BundleProductIDs  []string     `json:"bundleProductIds,omitempty"`
	// Position orders rules by definition time within a snapshot; a higher
	// value means the rule was defined more recently.
	Position int `json:"position"`
}

// Override replaces the weekly deal's discount for a single product.
type Override struct {
	DiscountType  DiscountType `json:"discountType"`
	DiscountValue Money        `json:"discountValue"`
}

// WeeklyDeal is the singleton overlay promotion. ItemDiscounts supersedes
// the deal-level discount for the listed products.
type WeeklyDeal struct {
	Enabled       bool                `json:"enabled"`
	DiscountType  DiscountType        `json:"discountType"`
	DiscountValue Money               `json:"discountValue"`
	StartDate     string              `json:"startDate,omitempty"`
	EndDate       string              `json:"endDate,omitempty"`
	ProductIDs    []string            `json:"productIds,omitempty"`
	ItemDiscounts map[string]Override `json:"itemDiscounts,omitempty"`
}

// Line is one cart entry, immutable for the duration of an evaluation.
type Line struct {
	ProductID string `json:"productId"`
	UnitPrice Money  `json:"unitPrice"`
	Qty       int    `json:"qty"`
}

// Resolved is the per-line outcome of discount resolution. Source carries
// the winning rule ID, SourceWeeklyDeal, or "" when nothing applied.
type Resolved struct {
	ProductID       string `json:"productId"`
	UnitPrice       Money  `json:"unitPrice"`
	Qty             int    `json:"qty"`
	DiscountPerUnit Money  `json:"discountPerUnit"`
	DiscountedUnit  Money  `json:"discountedUnitPrice"`
	Source          string `json:"winningRuleId,omitempty"`
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
