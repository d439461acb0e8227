package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `id::text, website_id::text, key, sku, name, COALESCE(description, ''), price_cents, currency, attributes, created_at`

func (r *postgresRepo) ListByWebsite(ctx context.Context, websiteID string) ([]domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products
WHERE website_id = $1
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, websiteID)
	if err != nil {
		r.logger.Printf("product repo: list website_id=%s error=%v", websiteID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows website_id=%s error=%v", websiteID, err)
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, websiteID, id string) (*domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products
WHERE website_id = $1 AND id = $2
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, websiteID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get website_id=%s id=%s error=%v", websiteID, id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetBySKU(ctx context.Context, websiteID, sku string) (*domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products
WHERE website_id = $1 AND sku = $2
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, websiteID, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get website_id=%s sku=%s error=%v", websiteID, sku, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, website_id, key, sku, name, description, price_cents, currency, attributes)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, NULLIF($6, ''), $7, $8, COALESCE($9, '{}'::jsonb))
ON CONFLICT (website_id, key) DO UPDATE SET
    sku = EXCLUDED.sku,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    attributes = EXCLUDED.attributes
RETURNING id::text, created_at
`
	res := product
	err := r.pool.QueryRow(ctx, q,
		product.ID,
		product.WebsiteID,
		product.Key,
		product.SKU,
		product.Name,
		product.Description,
		product.PriceCents,
		product.Currency,
		product.Attributes,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: upsert key=%s website_id=%s error=%v", product.Key, product.WebsiteID, err)
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for key=%s existing_id=%s import_id=%s", product.Key, res.ID, product.ID)
	}
	r.logger.Printf("product repo: upserted key=%s website_id=%s id=%s", res.Key, res.WebsiteID, res.ID)
	return &res, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.WebsiteID, &p.Key, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.Currency, &p.Attributes, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
