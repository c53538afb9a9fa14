package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faiznutes/Tumbas-sub001/internal/common"
)

type Handler struct {
	Svc *Service
}

// Checkout converts the caller's cart into an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	out, err := h.Svc.Create(r.Context(), userID, payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

// Order returns one of the caller's orders with its frozen lines.
func (h *Handler) Order(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	order, items, err := h.Svc.GetOrder(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	lines := make([]map[string]any, 0, len(items))
	for _, it := range items {
		lines = append(lines, map[string]any{
			"productId":       it.ProductID,
			"title":           it.Title,
			"qty":             it.Qty,
			"unitPrice":       it.UnitPrice,
			"discountPerUnit": it.DiscountPerUnit,
			"appliedRule":     it.WinningRuleID,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"id":       order.ID,
			"status":   order.Status,
			"currency": order.Currency,
			"items":    lines,
			"pricing": map[string]any{
				"subtotal":           order.Subtotal,
				"discount":           order.Discount,
				"discountedSubtotal": order.DiscountedSubtotal,
				"shipping":           order.Shipping,
				"tax":                order.Tax,
				"total":              order.Total,
			},
			"createdAt": order.CreatedAt,
		},
	})
}

// Orders lists the caller's order history.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	orders, err := h.Svc.ListOrders(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	total := len(orders)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	out := make([]map[string]any, 0, end-start)
	for _, o := range orders[start:end] {
		out = append(out, map[string]any{
			"id":        o.ID,
			"status":    o.Status,
			"total":     o.Total,
			"currency":  o.Currency,
			"createdAt": o.CreatedAt,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
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
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order or cart not found", nil)
	case errors.Is(err, ErrCartEmpty), errors.Is(err, ErrCartNotOwned):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
