package promoadmin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/faiznutes/Tumbas-sub001/internal/common"
	"github.com/faiznutes/Tumbas-sub001/internal/db"
	"github.com/faiznutes/Tumbas-sub001/internal/obs"
	"github.com/faiznutes/Tumbas-sub001/internal/pricing"
	"github.com/faiznutes/Tumbas-sub001/internal/promo"
)

// Querier captures the database methods the admin endpoints need.
type Querier interface {
	ListCampaigns(ctx context.Context) ([]db.Campaign, error)
	GetCampaignByID(ctx context.Context, id string) (db.Campaign, error)
	CreateCampaign(ctx context.Context, arg db.UpsertCampaignParams) (string, error)
	UpdateCampaign(ctx context.Context, id string, arg db.UpsertCampaignParams) error
	GetWeeklyDeal(ctx context.Context) (db.WeeklyDealRow, error)
	UpsertWeeklyDeal(ctx context.Context, arg db.UpsertWeeklyDealParams) error
}

// Handler exposes administrative campaign and weekly deal management.
// Every write invalidates the promotion snapshot cache so catalog and
// checkout observe the change on the next evaluation.
type Handler struct {
	Q         Querier
	Snapshots *promo.Store
	Validate  *validator.Validate
}

type campaignPayload struct {
	Name              string   `json:"name" validate:"required"`
	Kind              string   `json:"kind" validate:"required,oneof=product bulk min_purchase bundle"`
	Enabled           *bool    `json:"enabled"`
	DiscountType      string   `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue     int64    `json:"discountValue" validate:"gte=0"`
	Priority          int32    `json:"priority" validate:"gte=0"`
	StartDate         *string  `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate           *string  `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	ProductIDs        []string `json:"productIds"`
	MinQuantity       int32    `json:"minQuantity" validate:"gte=0"`
	MinPurchaseAmount int64    `json:"minPurchaseAmount" validate:"gte=0"`
	BundleProductIDs  []string `json:"bundleProductIds"`
}

type dealPayload struct {
	Enabled       bool                    `json:"enabled"`
	DiscountType  string                  `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue int64                   `json:"discountValue" validate:"gte=0"`
	StartDate     *string                 `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate       *string                 `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	ProductIDs    []string                `json:"productIds"`
	ItemDiscounts map[string]dealOverride `json:"itemDiscounts" validate:"dive"`
}

type dealOverride struct {
	DiscountType  string `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue int64  `json:"discountValue" validate:"gte=0"`
}

type previewRequest struct {
	Lines    []promo.Line `json:"lines" validate:"required,min=1,dive"`
	Shipping int64        `json:"shipping"`
	TaxBps   int          `json:"taxBps"`
	Now      *time.Time   `json:"now"`
}

// List returns every campaign in definition order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "campaign queries not configured", nil)
		return
	}
	campaigns, err := h.Q.ListCampaigns(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list campaigns", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": campaigns})
}

// Create inserts a new campaign.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "campaign queries not configured", nil)
		return
	}
	payload, err := h.decodeCampaign(r)
	if err != nil {
		countWrite("campaign", "invalid")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	id, err := h.Q.CreateCampaign(r.Context(), toUpsertParams(payload))
	if err != nil {
		countWrite("campaign", "error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create campaign", nil)
		return
	}
	countWrite("campaign", "ok")
	h.invalidate(r.Context())
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": id}})
}

// Update replaces an existing campaign's configuration.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "campaign queries not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "campaign id is required", nil)
		return
	}
	payload, err := h.decodeCampaign(r)
	if err != nil {
		countWrite("campaign", "invalid")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if err := h.Q.UpdateCampaign(r.Context(), id, toUpsertParams(payload)); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "campaign not found", nil)
			return
		}
		countWrite("campaign", "error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update campaign", nil)
		return
	}
	countWrite("campaign", "ok")
	h.invalidate(r.Context())
	campaign, err := h.Q.GetCampaignByID(r.Context(), id)
	if err != nil {
		common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": id}})
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": campaign})
}

// GetWeeklyDeal returns the weekly deal configuration.
func (h *Handler) GetWeeklyDeal(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "campaign queries not configured", nil)
		return
	}
	row, err := h.Q.GetWeeklyDeal(r.Context())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			common.JSON(w, http.StatusOK, map[string]any{"data": nil})
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load weekly deal", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": promo.DealFromModel(row)})
}

// PutWeeklyDeal replaces the weekly deal configuration.
func (h *Handler) PutWeeklyDeal(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "campaign queries not configured", nil)
		return
	}
	var payload dealPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		countWrite("weekly_deal", "invalid")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	overrides, err := json.Marshal(payload.ItemDiscounts)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item discounts", nil)
		return
	}
	params := db.UpsertWeeklyDealParams{
		Enabled:       payload.Enabled,
		DiscountType:  payload.DiscountType,
		DiscountValue: payload.DiscountValue,
		StartDate:     payload.StartDate,
		EndDate:       payload.EndDate,
		ProductIDs:    payload.ProductIDs,
		ItemDiscounts: overrides,
	}
	if err := h.Q.UpsertWeeklyDeal(r.Context(), params); err != nil {
		countWrite("weekly_deal", "error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to save weekly deal", nil)
		return
	}
	countWrite("weekly_deal", "ok")
	h.invalidate(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"saved": true}})
}

// Preview dry-runs the pricing engine for a hypothetical cart against the
// current promotion snapshot. Nothing is persisted.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Snapshots == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "snapshot store not configured", nil)
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	snap, err := h.Snapshots.Snapshot(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load promotions", nil)
		return
	}
	now := time.Now()
	if req.Now != nil {
		now = *req.Now
	}
	result := pricing.Quote(req.Lines, req.Shipping, req.TaxBps, snap.Rules, snap.Deal, now)
	if obs.PricingQuotesTotal != nil {
		obs.PricingQuotesTotal.WithLabelValues("admin_preview").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

func (h *Handler) decodeCampaign(r *http.Request) (campaignPayload, error) {
	var payload campaignPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return payload, errors.New("invalid payload")
	}
	if err := h.validate(payload); err != nil {
		return payload, err
	}
	switch payload.Kind {
	case string(promo.KindBulk):
		if payload.MinQuantity < 1 {
			return payload, errors.New("minQuantity must be at least 1 for bulk campaigns")
		}
	case string(promo.KindBundle):
		if len(payload.BundleProductIDs) == 0 {
			return payload, errors.New("bundleProductIds must not be empty for bundle campaigns")
		}
	}
	return payload, nil
}

func (h *Handler) validate(v any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(v)
}

func (h *Handler) invalidate(ctx context.Context) {
	if h.Snapshots != nil {
		_ = h.Snapshots.Invalidate(ctx)
	}
}

func toUpsertParams(p campaignPayload) db.UpsertCampaignParams {
	enabled := true
	if p.Enabled != nil {
		enabled = *p.Enabled
	}
	return db.UpsertCampaignParams{
		Name:              strings.TrimSpace(p.Name),
		Kind:              p.Kind,
		Enabled:           enabled,
		DiscountType:      p.DiscountType,
		DiscountValue:     p.DiscountValue,
		Priority:          p.Priority,
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		ProductIDs:        p.ProductIDs,
		MinQuantity:       p.MinQuantity,
		MinPurchaseAmount: p.MinPurchaseAmount,
		BundleProductIDs:  p.BundleProductIDs,
	}
}

func countWrite(entity, result string) {
	if obs.PromoAdminWritesTotal != nil {
		obs.PromoAdminWritesTotal.WithLabelValues(entity, result).Inc()
	}
}
