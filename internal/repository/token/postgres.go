package token

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, t Token) error {
	const q = `
INSERT INTO tokens (token, website_id, customer_id, anonymous_id, kind, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	if _, err := r.pool.Exec(ctx, q, t.Token, t.WebsiteID, t.CustomerID, t.AnonymousID, t.Kind, t.ExpiresAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *postgresRepo) Get(ctx context.Context, token string) (*Token, error) {
	const q = `
SELECT token, website_id::text, customer_id::text, anonymous_id, kind, expires_at, created_at
FROM tokens
WHERE token = $1
`
	var out Token
	err := r.pool.QueryRow(ctx, q, token).Scan(
		&out.Token,
		&out.WebsiteID,
		&out.CustomerID,
		&out.AnonymousID,
		&out.Kind,
		&out.ExpiresAt,
		&out.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, token string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tokens WHERE token = $1`, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteForCustomer(ctx context.Context, websiteID, customerID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tokens WHERE website_id = $1 AND customer_id = $2`, websiteID, customerID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
