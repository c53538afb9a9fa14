package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/faiznutes/Tumbas-sub001/internal/catalog"
	"github.com/faiznutes/Tumbas-sub001/internal/db"
	"github.com/faiznutes/Tumbas-sub001/internal/promo"
)

type fakeQueries struct {
	products []db.Product
}

func (f *fakeQueries) ListProducts(_ context.Context, arg db.ListProductsParams) ([]db.Product, error) {
	start := int(arg.Offset)
	if start >= len(f.products) {
		return nil, nil
	}
	end := start + int(arg.Limit)
	if end > len(f.products) {
		end = len(f.products)
	}
	return f.products[start:end], nil
}

func (f *fakeQueries) CountProducts(context.Context, string) (int64, error) {
	return int64(len(f.products)), nil
}

func (f *fakeQueries) GetProductBySlug(_ context.Context, slug string) (db.Product, error) {
	for _, p := range f.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return db.Product{}, db.ErrNotFound
}

type fakePromoSource struct {
	campaigns []db.Campaign
	deal      db.WeeklyDealRow
	dealErr   error
}

func (f *fakePromoSource) ListCampaigns(context.Context) ([]db.Campaign, error) {
	return f.campaigns, nil
}

func (f *fakePromoSource) GetWeeklyDeal(context.Context) (db.WeeklyDealRow, error) {
	return f.deal, f.dealErr
}

func strPtr(s string) *string { return &s }

func newTestHandler(t *testing.T, products []db.Product, source promo.Source) *catalog.Handler {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Queries:   &fakeQueries{products: products},
		Snapshots: &promo.Store{Source: source},
		Now:       func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return catalog.NewHandler(catalog.HandlerConfig{Service: svc})
}

func newRouter(h *catalog.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/products", h.Products)
	r.Get("/api/v1/products/{slug}", h.ProductDetail)
	return r
}

func testProducts() []db.Product {
	return []db.Product{
		{ID: "p1", Title: "Mechanical Keyboard", Slug: "mechanical-keyboard", Price: 100_000, Stock: 12},
		{ID: "p2", Title: "Wireless Mouse", Slug: "wireless-mouse", Price: 45_000, Stock: 0},
	}
}

func TestProductsListsEffectivePrices(t *testing.T) {
	source := &fakePromoSource{
		campaigns: []db.Campaign{{
			ID:            "c1",
			Name:          "Keyboard sale",
			Kind:          "product",
			Enabled:       true,
			DiscountType:  "percentage",
			DiscountValue: 10,
			ProductIDs:    []string{"p1"},
		}},
		dealErr: db.ErrNotFound,
	}
	h := newTestHandler(t, testProducts(), source)

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))

	var body struct {
		Data []struct {
			ID             string `json:"id"`
			Price          int64  `json:"price"`
			DiscountAmount int64  `json:"discountAmount"`
			FinalPrice     int64  `json:"finalPrice"`
			InStock        bool   `json:"inStock"`
		} `json:"data"`
		Pagination struct {
			Page    int `json:"page"`
			PerPage int `json:"per_page"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, 1, body.Pagination.Page)

	require.Equal(t, "p1", body.Data[0].ID)
	require.Equal(t, int64(100_000), body.Data[0].Price)
	require.Equal(t, int64(10_000), body.Data[0].DiscountAmount)
	require.Equal(t, int64(90_000), body.Data[0].FinalPrice)
	require.True(t, body.Data[0].InStock)

	require.Equal(t, "p2", body.Data[1].ID)
	require.Equal(t, int64(0), body.Data[1].DiscountAmount)
	require.Equal(t, int64(45_000), body.Data[1].FinalPrice)
	require.False(t, body.Data[1].InStock)
}

func TestProductsRejectsBadPagination(t *testing.T) {
	h := newTestHandler(t, testProducts(), &fakePromoSource{dealErr: db.ErrNotFound})

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?page=zero", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "BAD_REQUEST", body.Error.Code)
}

func TestProductDetailAppliesWeeklyDeal(t *testing.T) {
	source := &fakePromoSource{
		deal: db.WeeklyDealRow{
			Enabled:       true,
			DiscountType:  "fixed",
			DiscountValue: 5_000,
			ProductIDs:    []string{"p2"},
		},
	}
	h := newTestHandler(t, testProducts(), source)

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/wireless-mouse", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Slug           string `json:"slug"`
			DiscountAmount int64  `json:"discountAmount"`
			FinalPrice     int64  `json:"finalPrice"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "wireless-mouse", body.Data.Slug)
	require.Equal(t, int64(5_000), body.Data.DiscountAmount)
	require.Equal(t, int64(40_000), body.Data.FinalPrice)
}

func TestProductDetailNotFound(t *testing.T) {
	h := newTestHandler(t, testProducts(), &fakePromoSource{dealErr: db.ErrNotFound})

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductDetailInactiveDealKeepsBasePrice(t *testing.T) {
	source := &fakePromoSource{
		deal: db.WeeklyDealRow{
			Enabled:       true,
			DiscountType:  "fixed",
			DiscountValue: 5_000,
			StartDate:     strPtr("2024-01-01"),
			EndDate:       strPtr("2024-01-07"),
			ProductIDs:    []string{"p2"},
		},
	}
	h := newTestHandler(t, testProducts(), source)

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/wireless-mouse", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			DiscountAmount int64 `json:"discountAmount"`
			FinalPrice     int64 `json:"finalPrice"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(0), body.Data.DiscountAmount)
	require.Equal(t, int64(45_000), body.Data.FinalPrice)
}
