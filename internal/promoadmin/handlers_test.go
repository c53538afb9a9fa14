package promoadmin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/faiznutes/Tumbas-sub001/internal/db"
	"github.com/faiznutes/Tumbas-sub001/internal/promo"
	"github.com/faiznutes/Tumbas-sub001/internal/promoadmin"
)

// fakeCampaignStore backs both the admin Querier and the snapshot Source.
type fakeCampaignStore struct {
	campaigns []db.Campaign
	deal      *db.WeeklyDealRow

	created   []db.UpsertCampaignParams
	updated   map[string]db.UpsertCampaignParams
	savedDeal *db.UpsertWeeklyDealParams
}

func (f *fakeCampaignStore) ListCampaigns(context.Context) ([]db.Campaign, error) {
	return f.campaigns, nil
}

func (f *fakeCampaignStore) GetCampaignByID(_ context.Context, id string) (db.Campaign, error) {
	for _, c := range f.campaigns {
		if c.ID == id {
			return c, nil
		}
	}
	return db.Campaign{}, db.ErrNotFound
}

func (f *fakeCampaignStore) CreateCampaign(_ context.Context, arg db.UpsertCampaignParams) (string, error) {
	f.created = append(f.created, arg)
	id := "c-new"
	f.campaigns = append(f.campaigns, db.Campaign{ID: id, Name: arg.Name, Kind: arg.Kind})
	return id, nil
}

func (f *fakeCampaignStore) UpdateCampaign(_ context.Context, id string, arg db.UpsertCampaignParams) error {
	if _, err := f.GetCampaignByID(context.Background(), id); err != nil {
		return err
	}
	if f.updated == nil {
		f.updated = map[string]db.UpsertCampaignParams{}
	}
	f.updated[id] = arg
	return nil
}

func (f *fakeCampaignStore) GetWeeklyDeal(context.Context) (db.WeeklyDealRow, error) {
	if f.deal == nil {
		return db.WeeklyDealRow{}, db.ErrNotFound
	}
	return *f.deal, nil
}

func (f *fakeCampaignStore) UpsertWeeklyDeal(_ context.Context, arg db.UpsertWeeklyDealParams) error {
	f.savedDeal = &arg
	return nil
}

func newAdminRouter(t *testing.T, store *fakeCampaignStore, cache *redis.Client) *chi.Mux {
	t.Helper()
	h := &promoadmin.Handler{
		Q:         store,
		Snapshots: &promo.Store{Source: store, Cache: cache},
		Validate:  validator.New(),
	}
	r := chi.NewRouter()
	r.Get("/admin/promotions", h.List)
	r.Post("/admin/promotions", h.Create)
	r.Put("/admin/promotions/{id}", h.Update)
	r.Get("/admin/weekly-deal", h.GetWeeklyDeal)
	r.Put("/admin/weekly-deal", h.PutWeeklyDeal)
	r.Post("/admin/preview", h.Preview)
	return r
}

func postJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateCampaignInvalidatesSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })
	require.NoError(t, mr.Set("promo:snapshot:v1", `{"rules":[]}`))

	store := &fakeCampaignStore{}
	router := newAdminRouter(t, store, cache)

	rec := postJSON(t, router, http.MethodPost, "/admin/promotions", map[string]any{
		"name":          "Flash Sale",
		"kind":          "product",
		"discountType":  "percentage",
		"discountValue": 10,
		"productIds":    []string{"p1"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	require.Equal(t, "Flash Sale", store.created[0].Name)
	require.True(t, store.created[0].Enabled)
	require.False(t, mr.Exists("promo:snapshot:v1"))
}

func TestCreateCampaignRejectsUnknownKind(t *testing.T) {
	store := &fakeCampaignStore{}
	router := newAdminRouter(t, store, nil)

	rec := postJSON(t, router, http.MethodPost, "/admin/promotions", map[string]any{
		"name":          "Broken",
		"kind":          "lottery",
		"discountType":  "percentage",
		"discountValue": 10,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, store.created)
}

func TestCreateBulkCampaignRequiresMinQuantity(t *testing.T) {
	store := &fakeCampaignStore{}
	router := newAdminRouter(t, store, nil)

	rec := postJSON(t, router, http.MethodPost, "/admin/promotions", map[string]any{
		"name":          "Bulk",
		"kind":          "bulk",
		"discountType":  "fixed",
		"discountValue": 5000,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, errObj["message"], "minQuantity")
}

func TestUpdateCampaignNotFound(t *testing.T) {
	store := &fakeCampaignStore{}
	router := newAdminRouter(t, store, nil)

	rec := postJSON(t, router, http.MethodPut, "/admin/promotions/missing", map[string]any{
		"name":          "Renamed",
		"kind":          "product",
		"discountType":  "percentage",
		"discountValue": 15,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutWeeklyDealPersistsOverrides(t *testing.T) {
	store := &fakeCampaignStore{}
	router := newAdminRouter(t, store, nil)

	rec := postJSON(t, router, http.MethodPut, "/admin/weekly-deal", map[string]any{
		"enabled":       true,
		"discountType":  "percentage",
		"discountValue": 10,
		"productIds":    []string{"p1", "p2"},
		"itemDiscounts": map[string]any{
			"p2": map[string]any{"discountType": "fixed", "discountValue": 5000},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, store.savedDeal)
	require.True(t, store.savedDeal.Enabled)

	var overrides map[string]struct {
		DiscountType  string `json:"discountType"`
		DiscountValue int64  `json:"discountValue"`
	}
	require.NoError(t, json.Unmarshal(store.savedDeal.ItemDiscounts, &overrides))
	require.Equal(t, int64(5000), overrides["p2"].DiscountValue)
}

func TestGetWeeklyDealEmpty(t *testing.T) {
	store := &fakeCampaignStore{}
	router := newAdminRouter(t, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/weekly-deal", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Nil(t, body["data"])
}

func TestPreviewQuotesHypotheticalCart(t *testing.T) {
	store := &fakeCampaignStore{
		campaigns: []db.Campaign{{
			ID:            "c1",
			Name:          "Ten Percent",
			Kind:          "product",
			Enabled:       true,
			DiscountType:  "percentage",
			DiscountValue: 10,
			ProductIDs:    []string{"p1"},
		}},
	}
	router := newAdminRouter(t, store, nil)

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	rec := postJSON(t, router, http.MethodPost, "/admin/preview", map[string]any{
		"lines": []map[string]any{
			{"productId": "p1", "unitPrice": 100_000, "qty": 1},
		},
		"shipping": 10_000,
		"taxBps":   1000,
		"now":      now.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Subtotal           int64 `json:"subtotal"`
			Discount           int64 `json:"discount"`
			DiscountedSubtotal int64 `json:"discountedSubtotal"`
			Tax                int64 `json:"tax"`
			Total              int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(100_000), body.Data.Subtotal)
	require.Equal(t, int64(10_000), body.Data.Discount)
	require.Equal(t, int64(90_000), body.Data.DiscountedSubtotal)
	require.Equal(t, int64(10_000), body.Data.Tax)
	require.Equal(t, int64(110_000), body.Data.Total)
}
