package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/faiznutes/Tumbas-sub001/internal/db"
	"github.com/faiznutes/Tumbas-sub001/internal/pricing"
	"github.com/faiznutes/Tumbas-sub001/internal/promo"
)

// ErrNotFound indicates the requested cart or item could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Querier captures the database methods the cart service needs.
type Querier interface {
	CreateCart(ctx context.Context, userID, anonID *string, expiresAt time.Time) (db.Cart, error)
	GetCartByID(ctx context.Context, id string) (db.Cart, error)
	GetActiveCartByUser(ctx context.Context, userID string) (db.Cart, error)
	GetActiveCartByAnon(ctx context.Context, anonID string) (db.Cart, error)
	TouchCart(ctx context.Context, id string, expiresAt time.Time) error
	ListCartItems(ctx context.Context, cartID string) ([]db.CartItem, error)
	FindCartItem(ctx context.Context, cartID, productID string) (db.CartItem, error)
	GetCartItemByID(ctx context.Context, id string) (db.CartItem, error)
	CreateCartItem(ctx context.Context, arg db.CreateCartItemParams) (string, error)
	UpdateCartItemQty(ctx context.Context, id string, qty int32) error
	DeleteCartItem(ctx context.Context, id string) error
	GetProductByID(ctx context.Context, id string) (db.Product, error)
}

// Service encapsulates cart domain operations. Cart lines store the
// undiscounted unit price; discounts are resolved at read time from the
// current promotion snapshot so the cart can never hold a stale discount.
type Service struct {
	Q         Querier
	Snapshots *promo.Store
	TTL       time.Duration
	TaxBps    int
	Shipping  int64
	Now       func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureCart loads or creates a cart for the provided identifiers.
func (s *Service) EnsureCart(ctx context.Context, userID, anonID *string) (db.Cart, error) {
	if s == nil || s.Q == nil {
		return db.Cart{}, errors.New("cart service not configured")
	}
	expires := s.now().Add(s.ttl())

	if userID != nil && *userID != "" {
		cart, err := s.Q.GetActiveCartByUser(ctx, *userID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return s.Q.CreateCart(ctx, userID, nil, expires)
			}
			return db.Cart{}, err
		}
		_ = s.Q.TouchCart(ctx, cart.ID, expires)
		return cart, nil
	}

	if anonID != nil && *anonID != "" {
		cart, err := s.Q.GetActiveCartByAnon(ctx, *anonID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return s.Q.CreateCart(ctx, nil, anonID, expires)
			}
			return db.Cart{}, err
		}
		_ = s.Q.TouchCart(ctx, cart.ID, expires)
		return cart, nil
	}

	return db.Cart{}, fmt.Errorf("user or anonymous id required: %w", ErrInvalidInput)
}

// AddItem inserts or increments a cart line. The stored unit price is the
// product's base price at insert time.
func (s *Service) AddItem(ctx context.Context, cartID, productID string, qty int) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	if cartID == "" || productID == "" {
		return fmt.Errorf("cart and product ids required: %w", ErrInvalidInput)
	}

	expires := s.now().Add(s.ttl())
	item, err := s.Q.FindCartItem(ctx, cartID, productID)
	if err == nil {
		if err := s.Q.UpdateCartItemQty(ctx, item.ID, item.Qty+int32(qty)); err != nil {
			return err
		}
		_ = s.Q.TouchCart(ctx, cartID, expires)
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	product, err := s.Q.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("product not found: %w", ErrInvalidInput)
		}
		return err
	}
	if product.Stock <= 0 {
		return fmt.Errorf("product out of stock: %w", ErrInvalidInput)
	}
	unitPrice := product.Price
	if unitPrice < 0 {
		unitPrice = 0
	}
	if _, err := s.Q.CreateCartItem(ctx, db.CreateCartItemParams{
		CartID:    cartID,
		ProductID: productID,
		Title:     product.Title,
		Slug:      product.Slug,
		Qty:       int32(qty),
		UnitPrice: unitPrice,
	}); err != nil {
		return err
	}
	_ = s.Q.TouchCart(ctx, cartID, expires)
	return nil
}

// UpdateQty replaces the quantity of a cart line.
func (s *Service) UpdateQty(ctx context.Context, itemID string, qty int) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	item, err := s.Q.GetCartItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.Q.UpdateCartItemQty(ctx, item.ID, int32(qty)); err != nil {
		return err
	}
	_ = s.Q.TouchCart(ctx, item.CartID, s.now().Add(s.ttl()))
	return nil
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	item, err := s.Q.GetCartItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if item.CartID != cartID {
		return ErrNotFound
	}
	if err := s.Q.DeleteCartItem(ctx, itemID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	_ = s.Q.TouchCart(ctx, cartID, s.now().Add(s.ttl()))
	return nil
}

// QuotedCart is a cart plus its fully priced quote.
type QuotedCart struct {
	Cart  db.Cart
	Items []db.CartItem
	Quote pricing.Result
}

// Quote prices the cart against the current promotion snapshot. The same
// resolver runs here and at checkout, so the displayed totals are the
// totals that will be charged.
func (s *Service) Quote(ctx context.Context, cartID string) (QuotedCart, error) {
	if s == nil || s.Q == nil {
		return QuotedCart{}, errors.New("cart service not configured")
	}
	if s.Snapshots == nil {
		return QuotedCart{}, errors.New("cart service missing snapshot store")
	}
	cart, err := s.Q.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return QuotedCart{}, ErrNotFound
		}
		return QuotedCart{}, err
	}
	items, err := s.Q.ListCartItems(ctx, cart.ID)
	if err != nil {
		return QuotedCart{}, err
	}
	snap, err := s.Snapshots.Snapshot(ctx)
	if err != nil {
		return QuotedCart{}, fmt.Errorf("load promotions: %w", err)
	}
	lines := make([]promo.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, promo.Line{
			ProductID: it.ProductID,
			Qty:       int(it.Qty),
			UnitPrice: it.UnitPrice,
		})
	}
	quote := pricing.Quote(lines, s.Shipping, s.TaxBps, snap.Rules, snap.Deal, s.now())
	return QuotedCart{Cart: cart, Items: items, Quote: quote}, nil
}
