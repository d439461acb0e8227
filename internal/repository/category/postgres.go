package category

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) ListByWebsite(ctx context.Context, websiteID string) ([]domain.Category, error) {
	const q = `
SELECT id::text, website_id::text, key, name, COALESCE(slug, ''), COALESCE(parent_key, ''), COALESCE(description, ''), created_at
FROM categories
WHERE website_id = $1
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q, websiteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.WebsiteID, &c.Key, &c.Name, &c.Slug, &c.ParentKey, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (website_id, key, name, slug, parent_key, description)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
ON CONFLICT (website_id, key) DO UPDATE
SET name = EXCLUDED.name,
    slug = COALESCE(EXCLUDED.slug, categories.slug),
    parent_key = COALESCE(EXCLUDED.parent_key, categories.parent_key),
    description = COALESCE(EXCLUDED.description, categories.description)
RETURNING id::text, created_at, COALESCE(slug, ''), COALESCE(parent_key, ''), COALESCE(description, '')
`
	out := domain.Category{WebsiteID: c.WebsiteID, Key: c.Key, Name: c.Name}
	err := r.pool.QueryRow(ctx, q, c.WebsiteID, c.Key, c.Name, c.Slug, c.ParentKey, c.Description).
		Scan(&out.ID, &out.CreatedAt, &out.Slug, &out.ParentKey, &out.Description)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
