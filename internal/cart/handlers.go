package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/faiznutes/Tumbas-sub001/internal/common"
	"github.com/faiznutes/Tumbas-sub001/internal/promo"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc      *Service
	Currency string
}

// Create creates or returns a guest cart identifier.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload struct {
		AnonID string `json:"anonId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)
	anonID := strings.TrimSpace(payload.AnonID)
	if anonID == "" {
		anonID = uuid.NewString()
	}
	cart, err := h.Svc.EnsureCart(r.Context(), nil, &anonID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"cartId": cart.ID,
			"anonId": anonID,
		},
	})
}

// GetActive resolves the current active cart for the user or anon ID.
func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	ctx := r.Context()

	var userID *string
	if uID, ok := common.UserID(ctx); ok && strings.TrimSpace(uID) != "" {
		userID = &uID
	}
	var anonID *string
	if aID := r.URL.Query().Get("anonId"); strings.TrimSpace(aID) != "" {
		anonID = &aID
	}
	if userID == nil && anonID == nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "user or anonId is required", nil)
		return
	}

	cart, err := h.Svc.EnsureCart(ctx, userID, anonID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"id":     cart.ID,
			"anonId": cart.AnonID,
		},
	})
}

// Get returns cart contents with a full pricing quote. Totals come from the
// same resolver checkout uses, not from stored per-line subtotals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	quoted, err := h.Svc.Quote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if quoted.Cart.ExpiresAt.Before(h.Svc.now()) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart expired", nil)
		return
	}

	resolvedByProduct := make(map[string]promo.Resolved, len(quoted.Quote.Lines))
	for _, line := range quoted.Quote.Lines {
		resolvedByProduct[line.ProductID] = line
	}
	responseItems := make([]map[string]any, 0, len(quoted.Items))
	for _, it := range quoted.Items {
		resolved := resolvedByProduct[it.ProductID]
		responseItems = append(responseItems, map[string]any{
			"id":              it.ID,
			"productId":       it.ProductID,
			"title":           it.Title,
			"slug":            it.Slug,
			"qty":             it.Qty,
			"unitPrice":       it.UnitPrice,
			"discountPerUnit": resolved.DiscountPerUnit,
			"finalUnitPrice":  resolved.DiscountedUnit,
			"subtotal":        resolved.DiscountedUnit * promo.Money(it.Qty),
			"appliedRule":     resolved.Source,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"id":     quoted.Cart.ID,
			"anonId": quoted.Cart.AnonID,
			"items":  responseItems,
			"pricing": map[string]any{
				"subtotal":           quoted.Quote.Subtotal,
				"discount":           quoted.Quote.Discount,
				"discountedSubtotal": quoted.Quote.DiscountedSubtotal,
				"shipping":           quoted.Quote.Shipping,
				"tax":                quoted.Quote.Tax,
				"total":              quoted.Quote.Total,
			},
			"currency": h.Currency,
		},
	})
}

// AddItem adds or increments a cart line item.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	var payload struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.ProductID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	if payload.Qty <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty must be positive", nil)
		return
	}
	if err := h.Svc.AddItem(r.Context(), cartID, payload.ProductID, payload.Qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// UpdateItem updates the quantity for a cart line item.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	itemID := chi.URLParam(r, "itemId")
	var payload struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Qty <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty must be positive", nil)
		return
	}
	if err := h.Svc.UpdateQty(r.Context(), itemID, payload.Qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// RemoveItem deletes a cart item.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemId")
	if err := h.Svc.RemoveItem(r.Context(), cartID, itemID); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
