// Package testdb provides the Postgres fixture shared by repository
// integration tests. Tests are skipped unless TEST_DB_DSN is set.
package testdb

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/migrate"
)

// Pool connects to TEST_DB_DSN, applies migrations and empties every table.
// The pool is closed when the test ends.
func Pool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE order_outbox, order_items, orders, payment_methods, cart_lines, carts, tokens, customers, categories, products, websites RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}

// Website inserts a tenant and returns its id.
func Website(ctx context.Context, t *testing.T, pool *pgxpool.Pool, key string) string {
	t.Helper()
	var id string
	if err := pool.QueryRow(ctx, `INSERT INTO websites (key, name) VALUES ($1, $1) RETURNING id::text`, key).Scan(&id); err != nil {
		t.Fatalf("insert website: %v", err)
	}
	return id
}

// Product inserts a product and returns its id.
func Product(ctx context.Context, t *testing.T, pool *pgxpool.Pool, websiteID, sku string, priceCents int64) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO products (website_id, key, sku, name, price_cents, currency)
VALUES ($1, lower($2), $2, $2, $3, 'USD')
RETURNING id::text
`, websiteID, sku, priceCents).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}
