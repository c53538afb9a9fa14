package db

import (
	"context"
	"time"
)

// Campaign is a stored promotional rule. Date bounds are kept as entered
// (date-only strings); the engine parses them permissively.
type Campaign struct {
	ID                string
	Name              string
	Kind              string
	Enabled           bool
	DiscountType      string
	DiscountValue     int64
	Priority          int32
	StartDate         *string
	EndDate           *string
	ProductIDs        []string
	MinQuantity       int32
	MinPurchaseAmount int64
	BundleProductIDs  []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// WeeklyDealRow is the singleton weekly deal record. ItemDiscounts holds the
// per-product override map as JSON.
type WeeklyDealRow struct {
	Enabled       bool
	DiscountType  string
	DiscountValue int64
	StartDate     *string
	EndDate       *string
	ProductIDs    []string
	ItemDiscounts []byte
	UpdatedAt     time.Time
}

const campaignColumns = `id::text, name, kind, enabled, discount_type, discount_value, priority,
	start_date, end_date, product_ids, min_quantity, min_purchase_amount, bundle_product_ids,
	created_at, updated_at`

// ListCampaigns returns every campaign in definition order (oldest first),
// which the promotion snapshot uses as the recency tie-break rank.
func (s *Store) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	rows, err := s.db.Query(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at, id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCampaignByID fetches a single campaign.
func (s *Store) GetCampaignByID(ctx context.Context, id string) (Campaign, error) {
	row := s.db.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id::text = $1`, id)
	c, err := scanCampaign(row)
	return c, mapErr(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (Campaign, error) {
	var c Campaign
	err := row.Scan(
		&c.ID, &c.Name, &c.Kind, &c.Enabled, &c.DiscountType, &c.DiscountValue, &c.Priority,
		&c.StartDate, &c.EndDate, &c.ProductIDs, &c.MinQuantity, &c.MinPurchaseAmount, &c.BundleProductIDs,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// UpsertCampaignParams carries campaign create/update values.
type UpsertCampaignParams struct {
	Name              string
	Kind              string
	Enabled           bool
	DiscountType      string
	DiscountValue     int64
	Priority          int32
	StartDate         *string
	EndDate           *string
	ProductIDs        []string
	MinQuantity       int32
	MinPurchaseAmount int64
	BundleProductIDs  []string
}

// CreateCampaign inserts a campaign and returns its ID.
func (s *Store) CreateCampaign(ctx context.Context, arg UpsertCampaignParams) (string, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`INSERT INTO campaigns (name, kind, enabled, discount_type, discount_value, priority,
			start_date, end_date, product_ids, min_quantity, min_purchase_amount, bundle_product_ids)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 RETURNING id::text`,
		arg.Name, arg.Kind, arg.Enabled, arg.DiscountType, arg.DiscountValue, arg.Priority,
		arg.StartDate, arg.EndDate, arg.ProductIDs, arg.MinQuantity, arg.MinPurchaseAmount, arg.BundleProductIDs,
	).Scan(&id)
	return id, mapErr(err)
}

// UpdateCampaign replaces a campaign's configuration.
func (s *Store) UpdateCampaign(ctx context.Context, id string, arg UpsertCampaignParams) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE campaigns SET name=$2, kind=$3, enabled=$4, discount_type=$5, discount_value=$6,
			priority=$7, start_date=$8, end_date=$9, product_ids=$10, min_quantity=$11,
			min_purchase_amount=$12, bundle_product_ids=$13, updated_at=now()
		 WHERE id::text = $1`,
		id, arg.Name, arg.Kind, arg.Enabled, arg.DiscountType, arg.DiscountValue,
		arg.Priority, arg.StartDate, arg.EndDate, arg.ProductIDs, arg.MinQuantity,
		arg.MinPurchaseAmount, arg.BundleProductIDs,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetWeeklyDeal loads the singleton weekly deal row.
func (s *Store) GetWeeklyDeal(ctx context.Context) (WeeklyDealRow, error) {
	var d WeeklyDealRow
	err := s.db.QueryRow(ctx,
		`SELECT enabled, discount_type, discount_value, start_date, end_date, product_ids, item_discounts, updated_at
		 FROM weekly_deal WHERE id = 1`,
	).Scan(&d.Enabled, &d.DiscountType, &d.DiscountValue, &d.StartDate, &d.EndDate, &d.ProductIDs, &d.ItemDiscounts, &d.UpdatedAt)
	return d, mapErr(err)
}

// UpsertWeeklyDealParams carries the weekly deal configuration.
type UpsertWeeklyDealParams struct {
	Enabled       bool
	DiscountType  string
	DiscountValue int64
	StartDate     *string
	EndDate       *string
	ProductIDs    []string
	ItemDiscounts []byte
}

// UpsertWeeklyDeal writes the singleton weekly deal row.
func (s *Store) UpsertWeeklyDeal(ctx context.Context, arg UpsertWeeklyDealParams) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO weekly_deal (id, enabled, discount_type, discount_value, start_date, end_date, product_ids, item_discounts)
		 VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET enabled=EXCLUDED.enabled, discount_type=EXCLUDED.discount_type,
			discount_value=EXCLUDED.discount_value, start_date=EXCLUDED.start_date, end_date=EXCLUDED.end_date,
			product_ids=EXCLUDED.product_ids, item_discounts=EXCLUDED.item_discounts, updated_at=now()`,
		arg.Enabled, arg.DiscountType, arg.DiscountValue, arg.StartDate, arg.EndDate, arg.ProductIDs, arg.ItemDiscounts,
	)
	return mapErr(err)
}
