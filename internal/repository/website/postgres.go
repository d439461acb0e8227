package website

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByKey(ctx context.Context, key string) (*domain.Website, error) {
	const q = `
SELECT id::text, key, name, settings, created_at
FROM websites
WHERE key = $1
`
	var w domain.Website
	err := r.pool.QueryRow(ctx, q, key).Scan(&w.ID, &w.Key, &w.Name, &w.Settings, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, w domain.Website) (*domain.Website, error) {
	const q = `
INSERT INTO websites (key, name, settings)
VALUES ($1, $2, COALESCE($3, '{}'::jsonb))
ON CONFLICT (key) DO UPDATE
SET name = EXCLUDED.name,
    settings = EXCLUDED.settings
RETURNING id::text, created_at
`
	out := w
	if err := r.pool.QueryRow(ctx, q, w.Key, w.Name, w.Settings).Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
