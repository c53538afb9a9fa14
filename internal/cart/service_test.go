package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/faiznutes/Tumbas-sub001/internal/db"
	"github.com/faiznutes/Tumbas-sub001/internal/promo"
)

type memStore struct {
	carts    map[string]db.Cart
	items    map[string]db.CartItem
	products map[string]db.Product
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		carts:    map[string]db.Cart{},
		items:    map[string]db.CartItem{},
		products: map[string]db.Product{},
	}
}

func (m *memStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memStore) CreateCart(_ context.Context, userID, anonID *string, expiresAt time.Time) (db.Cart, error) {
	cart := db.Cart{ID: m.id("cart"), UserID: userID, AnonID: anonID, ExpiresAt: expiresAt}
	m.carts[cart.ID] = cart
	return cart, nil
}

func (m *memStore) GetCartByID(_ context.Context, id string) (db.Cart, error) {
	cart, ok := m.carts[id]
	if !ok {
		return db.Cart{}, db.ErrNotFound
	}
	return cart, nil
}

func (m *memStore) GetActiveCartByUser(_ context.Context, userID string) (db.Cart, error) {
	for _, c := range m.carts {
		if c.UserID != nil && *c.UserID == userID {
			return c, nil
		}
	}
	return db.Cart{}, db.ErrNotFound
}

func (m *memStore) GetActiveCartByAnon(_ context.Context, anonID string) (db.Cart, error) {
	for _, c := range m.carts {
		if c.AnonID != nil && *c.AnonID == anonID {
			return c, nil
		}
	}
	return db.Cart{}, db.ErrNotFound
}

func (m *memStore) TouchCart(_ context.Context, id string, expiresAt time.Time) error {
	if cart, ok := m.carts[id]; ok {
		cart.ExpiresAt = expiresAt
		m.carts[id] = cart
	}
	return nil
}

func (m *memStore) ListCartItems(_ context.Context, cartID string) ([]db.CartItem, error) {
	var out []db.CartItem
	for _, it := range m.items {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) FindCartItem(_ context.Context, cartID, productID string) (db.CartItem, error) {
	for _, it := range m.items {
		if it.CartID == cartID && it.ProductID == productID {
			return it, nil
		}
	}
	return db.CartItem{}, db.ErrNotFound
}

func (m *memStore) GetCartItemByID(_ context.Context, id string) (db.CartItem, error) {
	it, ok := m.items[id]
	if !ok {
		return db.CartItem{}, db.ErrNotFound
	}
	return it, nil
}

func (m *memStore) CreateCartItem(_ context.Context, arg db.CreateCartItemParams) (string, error) {
	it := db.CartItem{
		ID:        m.id("item"),
		CartID:    arg.CartID,
		ProductID: arg.ProductID,
		Title:     arg.Title,
		Slug:      arg.Slug,
		Qty:       arg.Qty,
		UnitPrice: arg.UnitPrice,
	}
	m.items[it.ID] = it
	return it.ID, nil
}

func (m *memStore) UpdateCartItemQty(_ context.Context, id string, qty int32) error {
	it, ok := m.items[id]
	if !ok {
		return db.ErrNotFound
	}
	it.Qty = qty
	m.items[id] = it
	return nil
}

func (m *memStore) DeleteCartItem(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memStore) GetProductByID(_ context.Context, id string) (db.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return db.Product{}, db.ErrNotFound
	}
	return p, nil
}

type staticPromoSource struct {
	campaigns []db.Campaign
}

func (s *staticPromoSource) ListCampaigns(context.Context) ([]db.Campaign, error) {
	return s.campaigns, nil
}

func (s *staticPromoSource) GetWeeklyDeal(context.Context) (db.WeeklyDealRow, error) {
	return db.WeeklyDealRow{}, db.ErrNotFound
}

func newService(store *memStore, campaigns []db.Campaign) *Service {
	return &Service{
		Q:         store,
		Snapshots: &promo.Store{Source: &staticPromoSource{campaigns: campaigns}},
		TaxBps:    1000,
		Now:       func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) },
	}
}

func TestEnsureCartCreatesThenReuses(t *testing.T) {
	store := newMemStore()
	svc := newService(store, nil)
	anon := "visitor-1"

	first, err := svc.EnsureCart(context.Background(), nil, &anon)
	require.NoError(t, err)
	second, err := svc.EnsureCart(context.Background(), nil, &anon)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestEnsureCartRequiresIdentity(t *testing.T) {
	svc := newService(newMemStore(), nil)
	_, err := svc.EnsureCart(context.Background(), nil, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	store := newMemStore()
	store.products["p1"] = db.Product{ID: "p1", Title: "Keyboard", Slug: "keyboard", Price: 100_000, Stock: 10}
	svc := newService(store, nil)
	anon := "visitor-1"
	cart, err := svc.EnsureCart(context.Background(), nil, &anon)
	require.NoError(t, err)

	require.NoError(t, svc.AddItem(context.Background(), cart.ID, "p1", 2))
	require.NoError(t, svc.AddItem(context.Background(), cart.ID, "p1", 3))

	items, err := store.ListCartItems(context.Background(), cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int32(5), items[0].Qty)
	require.Equal(t, int64(100_000), items[0].UnitPrice)
}

func TestAddItemRejectsOutOfStock(t *testing.T) {
	store := newMemStore()
	store.products["p1"] = db.Product{ID: "p1", Price: 100_000, Stock: 0}
	svc := newService(store, nil)
	anon := "visitor-1"
	cart, err := svc.EnsureCart(context.Background(), nil, &anon)
	require.NoError(t, err)

	err = svc.AddItem(context.Background(), cart.ID, "p1", 1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRemoveItemChecksOwnership(t *testing.T) {
	store := newMemStore()
	store.products["p1"] = db.Product{ID: "p1", Price: 100_000, Stock: 10}
	svc := newService(store, nil)
	anonA, anonB := "visitor-a", "visitor-b"
	cartA, err := svc.EnsureCart(context.Background(), nil, &anonA)
	require.NoError(t, err)
	cartB, err := svc.EnsureCart(context.Background(), nil, &anonB)
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(context.Background(), cartA.ID, "p1", 1))
	items, err := store.ListCartItems(context.Background(), cartA.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	err = svc.RemoveItem(context.Background(), cartB.ID, items[0].ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, svc.RemoveItem(context.Background(), cartA.ID, items[0].ID))
}

func TestQuoteAppliesBulkCampaign(t *testing.T) {
	store := newMemStore()
	store.products["p1"] = db.Product{ID: "p1", Title: "Keyboard", Slug: "keyboard", Price: 50_000, Stock: 20}
	campaigns := []db.Campaign{{
		ID:            "bulk-1",
		Name:          "Buy five",
		Kind:          "bulk",
		Enabled:       true,
		DiscountType:  "percentage",
		DiscountValue: 20,
		ProductIDs:    []string{"p1"},
		MinQuantity:   5,
	}}
	svc := newService(store, campaigns)
	anon := "visitor-1"
	cart, err := svc.EnsureCart(context.Background(), nil, &anon)
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(context.Background(), cart.ID, "p1", 5))

	quoted, err := svc.Quote(context.Background(), cart.ID)
	require.NoError(t, err)
	require.Equal(t, int64(250_000), int64(quoted.Quote.Subtotal))
	require.Equal(t, int64(50_000), int64(quoted.Quote.Discount))
	require.Equal(t, int64(200_000), int64(quoted.Quote.DiscountedSubtotal))
	// 10% tax on the discounted amount
	require.Equal(t, int64(20_000), int64(quoted.Quote.Tax))
	require.Equal(t, int64(220_000), int64(quoted.Quote.Total))
	require.Equal(t, "bulk-1", quoted.Quote.Lines[0].Source)
}

func TestQuoteUnknownCart(t *testing.T) {
	svc := newService(newMemStore(), nil)
	_, err := svc.Quote(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
