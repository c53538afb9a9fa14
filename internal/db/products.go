package db

import (
	"context"
	"time"
)

// Product is a catalog row.
type Product struct {
	ID        string
	Title     string
	Slug      string
	Price     int64
	Stock     int32
	Thumbnail *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListProductsParams filters the public product listing.
type ListProductsParams struct {
	Query  string
	Limit  int32
	Offset int32
}

const listProductsSQL = `
SELECT id::text, title, slug, price, stock, thumbnail, created_at, updated_at
FROM products
WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3`

// ListProducts returns a page of products, newest first.
func (s *Store) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	rows, err := s.db.Query(ctx, listProductsSQL, arg.Query, arg.Limit, arg.Offset)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Price, &p.Stock, &p.Thumbnail, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountProducts returns the total matching the listing filter.
func (s *Store) CountProducts(ctx context.Context, query string) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')`,
		query,
	).Scan(&total)
	return total, mapErr(err)
}

// GetProductBySlug fetches one product by its slug.
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	return s.getProduct(ctx, "slug", slug)
}

// GetProductByID fetches one product by ID.
func (s *Store) GetProductByID(ctx context.Context, id string) (Product, error) {
	return s.getProduct(ctx, "id::text", id)
}

func (s *Store) getProduct(ctx context.Context, column, value string) (Product, error) {
	var p Product
	sql := `SELECT id::text, title, slug, price, stock, thumbnail, created_at, updated_at FROM products WHERE ` + column + ` = $1`
	err := s.db.QueryRow(ctx, sql, value).Scan(
		&p.ID, &p.Title, &p.Slug, &p.Price, &p.Stock, &p.Thumbnail, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, mapErr(err)
}

// CreateProductParams carries insert values for seeding and admin tooling.
type CreateProductParams struct {
	Title     string
	Slug      string
	Price     int64
	Stock     int32
	Thumbnail *string
}

// CreateProduct inserts a product and returns its generated ID.
func (s *Store) CreateProduct(ctx context.Context, arg CreateProductParams) (string, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`INSERT INTO products (title, slug, price, stock, thumbnail)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (slug) DO UPDATE SET price = EXCLUDED.price, stock = EXCLUDED.stock
		 RETURNING id::text`,
		arg.Title, arg.Slug, arg.Price, arg.Stock, arg.Thumbnail,
	).Scan(&id)
	return id, mapErr(err)
}
