package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/faiznutes/Tumbas-sub001/internal/common"
	"github.com/faiznutes/Tumbas-sub001/internal/db"
	"github.com/faiznutes/Tumbas-sub001/internal/obs"
	"github.com/faiznutes/Tumbas-sub001/internal/pricing"
	"github.com/faiznutes/Tumbas-sub001/internal/promo"
)

type queryProvider interface {
	ListProducts(ctx context.Context, arg db.ListProductsParams) ([]db.Product, error)
	CountProducts(ctx context.Context, query string) (int64, error)
	GetProductBySlug(ctx context.Context, slug string) (db.Product, error)
}

// Service orchestrates catalog queries, discounted price computation, and
// caching. Displayed prices are resolved through the same promotion snapshot
// and resolver used at checkout.
type Service struct {
	queries      queryProvider
	snapshots    *promo.Store
	cache        *Cache
	now          func() time.Time
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Snapshots    *promo.Store
	Cache        *Cache
	Now          func() time.Time
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query string
	Page  int
	Limit int
}

// ProductListItem is one listing entry with its effective price attached.
type ProductListItem struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Slug           string  `json:"slug"`
	Price          int64   `json:"price"`
	DiscountAmount int64   `json:"discountAmount"`
	FinalPrice     int64   `json:"finalPrice"`
	InStock        bool    `json:"inStock"`
	Thumbnail      *string `json:"thumbnail,omitempty"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []ProductListItem
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	if cfg.Snapshots == nil {
		return nil, errors.New("catalog: snapshot store is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		queries:      cfg.Queries,
		snapshots:    cfg.Snapshots,
		cache:        cfg.Cache,
		now:          now,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	params.Query = strings.TrimSpace(values.Get("q"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = limit
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	return params, nil
}

// ListProducts returns a page of products with effective prices. The raw
// rows may come from the cache, but the discounted price is always computed
// fresh from the current promotion snapshot so a stale listing can never
// advertise a price checkout would not honour.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ProductListResult, error) {
	rows, total, err := s.loadRows(ctx, params)
	if err != nil {
		return ProductListResult{}, err
	}
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return ProductListResult{}, fmt.Errorf("load promotions: %w", err)
	}

	items := make([]ProductListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.toListItem(row, snap))
	}
	if obs.PricingQuotesTotal != nil {
		obs.PricingQuotesTotal.WithLabelValues("catalog_list").Inc()
	}
	return ProductListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// GetProduct returns one product with its effective price.
func (s *Service) GetProduct(ctx context.Context, slug string) (ProductListItem, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductListItem{}, badRequest("slug", "slug is required", nil)
	}
	row, err := s.queries.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ProductListItem{}, &common.AppError{Code: "NOT_FOUND", Message: "product not found", HTTPStatus: http.StatusNotFound, Err: err}
		}
		return ProductListItem{}, fmt.Errorf("get product by slug: %w", err)
	}
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return ProductListItem{}, fmt.Errorf("load promotions: %w", err)
	}
	if obs.PricingQuotesTotal != nil {
		obs.PricingQuotesTotal.WithLabelValues("catalog_detail").Inc()
	}
	return s.toListItem(row, snap), nil
}

func (s *Service) toListItem(row db.Product, snap promo.Snapshot) ProductListItem {
	price := pricing.EffectivePrice(row.ID, row.Price, snap.Rules, snap.Deal, s.now())
	return ProductListItem{
		ID:             row.ID,
		Title:          row.Title,
		Slug:           row.Slug,
		Price:          price.UnitPrice,
		DiscountAmount: price.DiscountAmount,
		FinalPrice:     price.FinalPrice,
		InStock:        row.Stock > 0,
		Thumbnail:      row.Thumbnail,
	}
}

type cachedList struct {
	Rows  []db.Product `json:"rows"`
	Total int64        `json:"total"`
}

// loadRows fetches the raw listing page, via the cache for the default page.
// Only undiscounted rows are cached; resolved prices stay request-scoped.
func (s *Service) loadRows(ctx context.Context, params ListParams) ([]db.Product, int64, error) {
	key, cacheable := s.listCacheKey(params)
	if cacheable && s.cache != nil {
		var cached cachedList
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached.Rows, cached.Total, nil
		}
	}
	total, err := s.queries.CountProducts(ctx, params.Query)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	offset := int32((params.Page - 1) * params.Limit)
	if offset < 0 {
		offset = 0
	}
	rows, err := s.queries.ListProducts(ctx, db.ListProductsParams{
		Query:  params.Query,
		Limit:  int32(params.Limit),
		Offset: offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	if cacheable && s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, cachedList{Rows: rows, Total: total})
	}
	return rows, total, nil
}

func (s *Service) listCacheKey(params ListParams) (string, bool) {
	if params.Page != s.defaultPage || params.Limit != s.defaultLimit || params.Query != "" {
		return "", false
	}
	return "catalog:products:list:default", true
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
