package db

import (
	"context"
	"time"
)

// Cart is a shopping cart row.
type Cart struct {
	ID        string
	UserID    *string
	AnonID    *string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// CartItem is one product line inside a cart.
type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Title     string
	Slug      string
	Qty       int32
	UnitPrice int64
}

const cartColumns = `id::text, user_id::text, anon_id, created_at, updated_at, expires_at`

// CreateCart inserts a cart for a user or anonymous visitor.
func (s *Store) CreateCart(ctx context.Context, userID, anonID *string, expiresAt time.Time) (Cart, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO carts (user_id, anon_id, expires_at) VALUES ($1::uuid, $2, $3) RETURNING `+cartColumns,
		userID, anonID, expiresAt,
	)
	return scanCart(row)
}

// GetCartByID fetches a cart by ID.
func (s *Store) GetCartByID(ctx context.Context, id string) (Cart, error) {
	row := s.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id::text = $1`, id)
	return scanCart(row)
}

// GetActiveCartByUser returns the newest unexpired cart owned by the user.
func (s *Store) GetActiveCartByUser(ctx context.Context, userID string) (Cart, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts
		 WHERE user_id::text = $1 AND expires_at > now()
		 ORDER BY updated_at DESC LIMIT 1`, userID)
	return scanCart(row)
}

// GetActiveCartByAnon returns the newest unexpired cart for an anonymous visitor.
func (s *Store) GetActiveCartByAnon(ctx context.Context, anonID string) (Cart, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts
		 WHERE anon_id = $1 AND expires_at > now()
		 ORDER BY updated_at DESC LIMIT 1`, anonID)
	return scanCart(row)
}

func scanCart(row rowScanner) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.UserID, &c.AnonID, &c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt)
	return c, mapErr(err)
}

// TouchCart extends the cart expiry after activity.
func (s *Store) TouchCart(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx,
		`UPDATE carts SET updated_at = now(), expires_at = $2 WHERE id::text = $1`, id, expiresAt)
	return mapErr(err)
}

// ListCartItems returns the items of a cart in insertion order.
func (s *Store) ListCartItems(ctx context.Context, cartID string) ([]CartItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id::text, cart_id::text, product_id::text, title, slug, qty, unit_price
		 FROM cart_items WHERE cart_id::text = $1 ORDER BY created_at, id`, cartID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Title, &it.Slug, &it.Qty, &it.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// FindCartItem locates a cart item for a product, if present.
func (s *Store) FindCartItem(ctx context.Context, cartID, productID string) (CartItem, error) {
	var it CartItem
	err := s.db.QueryRow(ctx,
		`SELECT id::text, cart_id::text, product_id::text, title, slug, qty, unit_price
		 FROM cart_items WHERE cart_id::text = $1 AND product_id::text = $2`, cartID, productID,
	).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Title, &it.Slug, &it.Qty, &it.UnitPrice)
	return it, mapErr(err)
}

// GetCartItemByID fetches one cart line.
func (s *Store) GetCartItemByID(ctx context.Context, id string) (CartItem, error) {
	var it CartItem
	err := s.db.QueryRow(ctx,
		`SELECT id::text, cart_id::text, product_id::text, title, slug, qty, unit_price
		 FROM cart_items WHERE id::text = $1`, id,
	).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Title, &it.Slug, &it.Qty, &it.UnitPrice)
	return it, mapErr(err)
}

// CreateCartItemParams carries cart item insert values.
type CreateCartItemParams struct {
	CartID    string
	ProductID string
	Title     string
	Slug      string
	Qty       int32
	UnitPrice int64
}

// CreateCartItem inserts a new line into the cart.
func (s *Store) CreateCartItem(ctx context.Context, arg CreateCartItemParams) (string, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`INSERT INTO cart_items (cart_id, product_id, title, slug, qty, unit_price)
		 VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6) RETURNING id::text`,
		arg.CartID, arg.ProductID, arg.Title, arg.Slug, arg.Qty, arg.UnitPrice,
	).Scan(&id)
	return id, mapErr(err)
}

// UpdateCartItemQty replaces a cart item's quantity.
func (s *Store) UpdateCartItemQty(ctx context.Context, id string, qty int32) error {
	tag, err := s.db.Exec(ctx, `UPDATE cart_items SET qty = $2 WHERE id::text = $1`, id, qty)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCartItem removes a line from the cart.
func (s *Store) DeleteCartItem(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM cart_items WHERE id::text = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
