package paymentmethod

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

const methodColumns = `id::text, website_id::text, method_name, method_type, is_enabled, display_order, config`

func (r *postgresRepo) ListEnabled(ctx context.Context, websiteID string) ([]domain.PaymentMethod, error) {
	q := `
SELECT ` + methodColumns + `
FROM payment_methods
WHERE website_id = $1 AND is_enabled
ORDER BY display_order ASC, method_name ASC
`
	rows, err := r.pool.Query(ctx, q, websiteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PaymentMethod
	for rows.Next() {
		m, err := scanMethod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *postgresRepo) GetByName(ctx context.Context, websiteID, name string) (*domain.PaymentMethod, error) {
	q := `
SELECT ` + methodColumns + `
FROM payment_methods
WHERE website_id = $1 AND method_name = $2
`
	return fetch(r.pool.QueryRow(ctx, q, websiteID, name))
}

func (r *postgresRepo) GetEnabledByType(ctx context.Context, websiteID, methodType string) (*domain.PaymentMethod, error) {
	q := `
SELECT ` + methodColumns + `
FROM payment_methods
WHERE website_id = $1 AND method_type = $2 AND is_enabled
ORDER BY display_order ASC
LIMIT 1
`
	return fetch(r.pool.QueryRow(ctx, q, websiteID, methodType))
}

func (r *postgresRepo) Upsert(ctx context.Context, m domain.PaymentMethod) (*domain.PaymentMethod, error) {
	const q = `
INSERT INTO payment_methods (website_id, method_name, method_type, is_enabled, display_order, config)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, '{}'::jsonb))
ON CONFLICT (website_id, method_name) DO UPDATE
SET method_type = EXCLUDED.method_type,
    is_enabled = EXCLUDED.is_enabled,
    display_order = EXCLUDED.display_order,
    config = EXCLUDED.config
RETURNING id::text
`
	out := m
	if err := r.pool.QueryRow(ctx, q, m.WebsiteID, m.Name, m.Type, m.Enabled, m.DisplayOrder, m.Config).Scan(&out.ID); err != nil {
		return nil, err
	}
	return &out, nil
}

func fetch(row pgx.Row) (*domain.PaymentMethod, error) {
	m, err := scanMethod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func scanMethod(row pgx.Row) (*domain.PaymentMethod, error) {
	var m domain.PaymentMethod
	if err := row.Scan(&m.ID, &m.WebsiteID, &m.Name, &m.Type, &m.Enabled, &m.DisplayOrder, &m.Config); err != nil {
		return nil, err
	}
	return &m, nil
}
