package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/faiznutes/Tumbas-sub001/internal/db"
	"github.com/faiznutes/Tumbas-sub001/internal/pricing"
	"github.com/faiznutes/Tumbas-sub001/internal/promo"
)

type fakeOrderStore struct {
	cart       db.Cart
	cartErr    error
	items      []db.CartItem
	orders     []db.Order
	orderItems []db.OrderItem
}

func (f *fakeOrderStore) GetCartByID(_ context.Context, id string) (db.Cart, error) {
	if f.cartErr != nil {
		return db.Cart{}, f.cartErr
	}
	if f.cart.ID != id {
		return db.Cart{}, db.ErrNotFound
	}
	return f.cart, nil
}

func (f *fakeOrderStore) ListCartItems(_ context.Context, _ string) ([]db.CartItem, error) {
	return f.items, nil
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, arg db.CreateOrderParams) (db.Order, error) {
	order := db.Order{
		ID:                 "order-1",
		UserID:             arg.UserID,
		CartID:             arg.CartID,
		Status:             arg.Status,
		Currency:           arg.Currency,
		Subtotal:           arg.Subtotal,
		Discount:           arg.Discount,
		DiscountedSubtotal: arg.DiscountedSubtotal,
		Shipping:           arg.Shipping,
		TaxBps:             arg.TaxBps,
		Tax:                arg.Tax,
		Total:              arg.Total,
	}
	f.orders = append(f.orders, order)
	return order, nil
}

func (f *fakeOrderStore) CreateOrderItem(_ context.Context, arg db.CreateOrderItemParams) error {
	f.orderItems = append(f.orderItems, db.OrderItem{
		OrderID:         arg.OrderID,
		ProductID:       arg.ProductID,
		Title:           arg.Title,
		Qty:             arg.Qty,
		UnitPrice:       arg.UnitPrice,
		DiscountPerUnit: arg.DiscountPerUnit,
		WinningRuleID:   arg.WinningRuleID,
	})
	return nil
}

func (f *fakeOrderStore) GetOrderByID(_ context.Context, id string) (db.Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return db.Order{}, db.ErrNotFound
}

func (f *fakeOrderStore) ListOrdersByUser(_ context.Context, userID string) ([]db.Order, error) {
	var out []db.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListOrderItems(_ context.Context, orderID string) ([]db.OrderItem, error) {
	var out []db.OrderItem
	for _, it := range f.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

type promoFixture struct {
	campaigns []db.Campaign
	deal      db.WeeklyDealRow
	dealErr   error
}

func (p *promoFixture) ListCampaigns(context.Context) ([]db.Campaign, error) {
	return p.campaigns, nil
}

func (p *promoFixture) GetWeeklyDeal(context.Context) (db.WeeklyDealRow, error) {
	return p.deal, p.dealErr
}

func fixedNow() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }

func newCheckoutService(store *fakeOrderStore, source promo.Source) *Service {
	return &Service{
		RunTx: func(_ context.Context, fn func(Querier) error) error {
			return fn(store)
		},
		Snapshots: &promo.Store{Source: source},
		TaxBps:    1000,
		Currency:  "IDR",
		Now:       fixedNow,
	}
}

func userCart(userID string) db.Cart {
	return db.Cart{ID: "cart-1", UserID: &userID, ExpiresAt: fixedNow().Add(time.Hour)}
}

func TestCreateFreezesEngineTotals(t *testing.T) {
	store := &fakeOrderStore{
		cart: userCart("user-1"),
		items: []db.CartItem{
			{ID: "i1", CartID: "cart-1", ProductID: "p1", Title: "Keyboard", Qty: 1, UnitPrice: 100_000},
			{ID: "i2", CartID: "cart-1", ProductID: "p2", Title: "Mouse", Qty: 2, UnitPrice: 45_000},
		},
	}
	source := &promoFixture{
		campaigns: []db.Campaign{{
			ID:            "c1",
			Kind:          "product",
			Enabled:       true,
			DiscountType:  "percentage",
			DiscountValue: 10,
			ProductIDs:    []string{"p1"},
		}},
		dealErr: db.ErrNotFound,
	}
	svc := newCheckoutService(store, source)

	out, err := svc.Create(context.Background(), "user-1", Input{CartID: "cart-1", Shipping: 12_000})
	require.NoError(t, err)
	require.Equal(t, "order-1", out.OrderID)
	require.Equal(t, "PENDING_PAYMENT", out.Status)

	// subtotal 190_000, 10% off p1 = 10_000, taxable 180_000 + 12_000 shipping
	require.Len(t, store.orders, 1)
	order := store.orders[0]
	require.Equal(t, int64(190_000), order.Subtotal)
	require.Equal(t, int64(10_000), order.Discount)
	require.Equal(t, int64(180_000), order.DiscountedSubtotal)
	require.Equal(t, int64(12_000), order.Shipping)
	require.Equal(t, int64(19_200), order.Tax)
	require.Equal(t, int64(211_200), order.Total)

	require.Len(t, store.orderItems, 2)
	require.Equal(t, int64(10_000), store.orderItems[0].DiscountPerUnit)
	require.NotNil(t, store.orderItems[0].WinningRuleID)
	require.Equal(t, "c1", *store.orderItems[0].WinningRuleID)
	require.Equal(t, int64(0), store.orderItems[1].DiscountPerUnit)
	require.Nil(t, store.orderItems[1].WinningRuleID)
}

func TestCreateMatchesStandaloneQuote(t *testing.T) {
	items := []db.CartItem{
		{ID: "i1", CartID: "cart-1", ProductID: "p1", Title: "Keyboard", Qty: 5, UnitPrice: 50_000},
		{ID: "i2", CartID: "cart-1", ProductID: "p2", Title: "Mouse", Qty: 1, UnitPrice: 45_000},
	}
	campaigns := []db.Campaign{
		{ID: "bulk-1", Kind: "bulk", Enabled: true, DiscountType: "percentage", DiscountValue: 20, ProductIDs: []string{"p1"}, MinQuantity: 5},
		{ID: "cart-wide", Kind: "min_purchase", Enabled: true, DiscountType: "fixed", DiscountValue: 5_000, MinPurchaseAmount: 200_000},
	}
	store := &fakeOrderStore{cart: userCart("user-1"), items: items}
	source := &promoFixture{campaigns: campaigns, dealErr: db.ErrNotFound}
	svc := newCheckoutService(store, source)

	out, err := svc.Create(context.Background(), "user-1", Input{CartID: "cart-1"})
	require.NoError(t, err)

	lines := make([]promo.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, promo.Line{ProductID: it.ProductID, Qty: int(it.Qty), UnitPrice: it.UnitPrice})
	}
	snap, err := svc.Snapshots.Snapshot(context.Background())
	require.NoError(t, err)
	expected := pricing.Quote(lines, 0, svc.TaxBps, snap.Rules, snap.Deal, fixedNow())

	require.Equal(t, expected.Subtotal, out.Pricing.Subtotal)
	require.Equal(t, expected.Discount, out.Pricing.Discount)
	require.Equal(t, expected.Tax, out.Pricing.Tax)
	require.Equal(t, expected.Total, out.Pricing.Total)
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	store := &fakeOrderStore{cart: userCart("user-1")}
	svc := newCheckoutService(store, &promoFixture{dealErr: db.ErrNotFound})

	_, err := svc.Create(context.Background(), "user-1", Input{CartID: "cart-1"})
	require.ErrorIs(t, err, ErrCartEmpty)
}

func TestCreateRejectsForeignCart(t *testing.T) {
	store := &fakeOrderStore{
		cart:  userCart("someone-else"),
		items: []db.CartItem{{ID: "i1", CartID: "cart-1", ProductID: "p1", Qty: 1, UnitPrice: 10_000}},
	}
	svc := newCheckoutService(store, &promoFixture{dealErr: db.ErrNotFound})

	_, err := svc.Create(context.Background(), "user-1", Input{CartID: "cart-1"})
	require.ErrorIs(t, err, ErrCartNotOwned)
}

func TestGetOrderEnforcesOwnership(t *testing.T) {
	store := &fakeOrderStore{
		cart:  userCart("user-1"),
		items: []db.CartItem{{ID: "i1", CartID: "cart-1", ProductID: "p1", Title: "Keyboard", Qty: 1, UnitPrice: 10_000}},
	}
	svc := newCheckoutService(store, &promoFixture{dealErr: db.ErrNotFound})
	out, err := svc.Create(context.Background(), "user-1", Input{CartID: "cart-1"})
	require.NoError(t, err)

	_, _, err = svc.GetOrder(context.Background(), "intruder", out.OrderID)
	require.ErrorIs(t, err, ErrNotFound)

	order, items, err := svc.GetOrder(context.Background(), "user-1", out.OrderID)
	require.NoError(t, err)
	require.Equal(t, out.OrderID, order.ID)
	require.Len(t, items, 1)
}
