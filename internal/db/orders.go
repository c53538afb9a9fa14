package db

import (
	"context"
	"time"
)

// Order is a persisted checkout outcome. Pricing columns are the engine's
// computed totals at order time.
type Order struct {
	ID                 string
	UserID             string
	CartID             string
	Status             string
	Currency           string
	Subtotal           int64
	Discount           int64
	DiscountedSubtotal int64
	Shipping           int64
	TaxBps             int32
	Tax                int64
	Total              int64
	CreatedAt          time.Time
}

// OrderItem is a resolved line frozen into an order, including the winning
// promotion for audit.
type OrderItem struct {
	ID              string
	OrderID         string
	ProductID       string
	Title           string
	Qty             int32
	UnitPrice       int64
	DiscountPerUnit int64
	WinningRuleID   *string
}

// CreateOrderParams carries the order header insert values.
type CreateOrderParams struct {
	UserID             string
	CartID             string
	Status             string
	Currency           string
	Subtotal           int64
	Discount           int64
	DiscountedSubtotal int64
	Shipping           int64
	TaxBps             int32
	Tax                int64
	Total              int64
}

const orderColumns = `id::text, user_id::text, cart_id::text, status, currency, subtotal, discount,
	discounted_subtotal, shipping, tax_bps, tax, total, created_at`

// CreateOrder inserts the order header.
func (s *Store) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO orders (user_id, cart_id, status, currency, subtotal, discount,
			discounted_subtotal, shipping, tax_bps, tax, total)
		 VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+orderColumns,
		arg.UserID, arg.CartID, arg.Status, arg.Currency, arg.Subtotal, arg.Discount,
		arg.DiscountedSubtotal, arg.Shipping, arg.TaxBps, arg.Tax, arg.Total,
	)
	return scanOrder(row)
}

// GetOrderByID fetches an order header.
func (s *Store) GetOrderByID(ctx context.Context, id string) (Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id::text = $1`, id)
	return scanOrder(row)
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.CartID, &o.Status, &o.Currency, &o.Subtotal, &o.Discount,
		&o.DiscountedSubtotal, &o.Shipping, &o.TaxBps, &o.Tax, &o.Total, &o.CreatedAt)
	return o, mapErr(err)
}

// ListOrdersByUser returns a user's orders, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id::text = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateOrderItemParams carries one resolved line.
type CreateOrderItemParams struct {
	OrderID         string
	ProductID       string
	Title           string
	Qty             int32
	UnitPrice       int64
	DiscountPerUnit int64
	WinningRuleID   *string
}

// CreateOrderItem freezes one resolved line into the order.
func (s *Store) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO order_items (order_id, product_id, title, qty, unit_price, discount_per_unit, winning_rule_id)
		 VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7)`,
		arg.OrderID, arg.ProductID, arg.Title, arg.Qty, arg.UnitPrice, arg.DiscountPerUnit, arg.WinningRuleID,
	)
	return mapErr(err)
}

// ListOrderItems returns the frozen lines of an order.
func (s *Store) ListOrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id::text, order_id::text, product_id::text, title, qty, unit_price, discount_per_unit, winning_rule_id
		 FROM order_items WHERE order_id::text = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Title, &it.Qty, &it.UnitPrice, &it.DiscountPerUnit, &it.WinningRuleID); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
