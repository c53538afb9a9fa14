package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedUsers(db)
	productIDs := seedProducts(db)
	seedCampaigns(db, productIDs)
	seedWeeklyDeal(db, productIDs)

	log.Println("Seeding completed successfully!")
}

func seedUsers(db *sql.DB) {
	users := []struct {
		Name  string
		Email string
		Role  string
	}{
		{"Admin User", "admin@tumbas.test", "admin"},
		{"Budi Santoso", "budi@example.com", "customer"},
		{"Siti Aminah", "siti@example.com", "customer"},
		{"Andi Pratama", "andi@example.com", "customer"},
		{"Dewi Lestari", "dewi@example.com", "customer"},
	}

	fmt.Println("Seeding Users...")
	for _, u := range users {
		_, err := db.Exec(`
			INSERT INTO users (name, email, password_hash, roles)
			VALUES ($1, $2, crypt('password123', gen_salt('bf')), ARRAY[$3])
			ON CONFLICT (email) DO NOTHING;
		`, u.Name, u.Email, u.Role)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
		}
	}
}

func seedProducts(db *sql.DB) map[string]string {
	products := []struct {
		Title string
		Slug  string
		Price int64
		Stock int
		Image string
	}{
		{"MacBook Pro 14 M3", "macbook-pro-14-m3", 25000000, 50, "https://images.unsplash.com/photo-1517336714731-489689fd1ca8?w=800"},
		{"iPhone 15 Pro", "iphone-15-pro", 20000000, 100, "https://images.unsplash.com/photo-1695048133142-1a20484d2569?w=800"},
		{"Samsung Galaxy S24 Ultra", "samsung-galaxy-s24", 19000000, 80, "https://images.unsplash.com/photo-1610945415295-d9bbf067e59c?w=800"},
		{"Sony WH-1000XM5", "sony-wh-1000xm5", 5000000, 150, "https://images.unsplash.com/photo-1618366712010-f4ae9c647dcb?w=800"},
		{"Dell XPS 13", "dell-xps-13", 18000000, 40, "https://images.unsplash.com/photo-1593642632823-8f785667771b?w=800"},
		{"Nike Air Force 1", "nike-air-force-1", 1500000, 200, "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=800"},
		{"Adidas Ultraboost", "adidas-ultraboost", 2000000, 180, "https://images.unsplash.com/photo-1608231387042-66d1773070a5?w=800"},
		{"Sony PlayStation 5", "sony-ps5", 9000000, 60, "https://images.unsplash.com/photo-1606813907291-d86efa9b94db?w=800"},
		{"Kaos Hitam Polos", "kaos-hitam-polos", 100000, 500, "https://images.unsplash.com/photo-1583743814966-8936f5b7be1a?w=800"},
	}

	fmt.Println("Seeding Products...")
	ids := make(map[string]string, len(products))
	for _, p := range products {
		var id string
		err := db.QueryRow(`
			INSERT INTO products (title, slug, price, stock, thumbnail)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (slug) DO UPDATE SET
				price = EXCLUDED.price,
				stock = EXCLUDED.stock,
				thumbnail = EXCLUDED.thumbnail
			RETURNING id;
		`, p.Title, p.Slug, p.Price, p.Stock, p.Image).Scan(&id)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Title, err)
			continue
		}
		ids[p.Slug] = id
	}
	return ids
}

func seedCampaigns(db *sql.DB, productIDs map[string]string) {
	fmt.Println("Seeding Campaigns...")

	type campaign struct {
		Name              string
		Kind              string
		DiscountType      string
		DiscountValue     int64
		Priority          int
		ProductIDs        []string
		MinQuantity       int
		MinPurchaseAmount int64
		BundleProductIDs  []string
	}

	campaigns := []campaign{
		{
			Name:          "Headphone Flash Sale",
			Kind:          "product",
			DiscountType:  "percentage",
			DiscountValue: 10,
			Priority:      5,
			ProductIDs:    []string{productIDs["sony-wh-1000xm5"]},
		},
		{
			Name:          "Tees Bulk Deal",
			Kind:          "bulk",
			DiscountType:  "percentage",
			DiscountValue: 20,
			Priority:      3,
			ProductIDs:    []string{productIDs["kaos-hitam-polos"]},
			MinQuantity:   5,
		},
		{
			Name:              "Big Spender",
			Kind:              "min_purchase",
			DiscountType:      "fixed",
			DiscountValue:     500000,
			Priority:          1,
			MinPurchaseAmount: 20000000,
		},
		{
			Name:             "Console Starter Bundle",
			Kind:             "bundle",
			DiscountType:     "percentage",
			DiscountValue:    5,
			Priority:         4,
			ProductIDs:       []string{productIDs["sony-ps5"]},
			BundleProductIDs: []string{productIDs["sony-ps5"], productIDs["sony-wh-1000xm5"]},
		},
	}

	for _, c := range campaigns {
		_, err := db.Exec(`
			INSERT INTO campaigns (name, kind, enabled, discount_type, discount_value, priority,
				product_ids, min_quantity, min_purchase_amount, bundle_product_ids)
			SELECT $1, $2, true, $3, $4, $5, $6, $7, $8, $9
			WHERE NOT EXISTS (SELECT 1 FROM campaigns WHERE name = $1);
		`, c.Name, c.Kind, c.DiscountType, c.DiscountValue, c.Priority,
			textArray(c.ProductIDs), c.MinQuantity, c.MinPurchaseAmount, textArray(c.BundleProductIDs))
		if err != nil {
			log.Printf("Failed to seed campaign %s: %v", c.Name, err)
		}
	}
}

func seedWeeklyDeal(db *sql.DB, productIDs map[string]string) {
	fmt.Println("Seeding Weekly Deal...")
	_, err := db.Exec(`
		UPDATE weekly_deal SET
			enabled = true,
			discount_type = 'percentage',
			discount_value = 10,
			start_date = to_char(now(), 'YYYY-MM-DD'),
			end_date = to_char(now() + interval '7 days', 'YYYY-MM-DD'),
			product_ids = $1,
			item_discounts = $2,
			updated_at = now()
		WHERE id = 1;
	`, textArray([]string{productIDs["iphone-15-pro"], productIDs["nike-air-force-1"]}),
		fmt.Sprintf(`{"%s": {"discountType": "fixed", "discountValue": 100000}}`, productIDs["nike-air-force-1"]))
	if err != nil {
		log.Printf("Failed to seed weekly deal: %v", err)
	}
}

// textArray renders a Postgres text[] literal for database/sql, which has no
// native slice support.
func textArray(values []string) string {
	if len(values) == 0 {
		return "{}"
	}
	out := "{"
	for i, v := range values {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out + "}"
}
