package customer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const customerColumns = `id::text, website_id::text, email, password_hash, first_name, last_name, phone, addresses,
       default_shipping_address_id, created_at`

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if c.Addresses == nil {
		c.Addresses = []domain.CustomerAddress{}
	}
	addrJSON, err := json.Marshal(c.Addresses)
	if err != nil {
		return nil, err
	}

	q := `
INSERT INTO customers (website_id, email, password_hash, first_name, last_name, phone, addresses, default_shipping_address_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(
		ctx,
		q,
		c.WebsiteID,
		strings.ToLower(c.Email),
		c.PasswordHash,
		c.FirstName,
		c.LastName,
		c.Phone,
		addrJSON,
		c.DefaultShippingAddressID,
	))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, websiteID, email string) (*domain.Customer, error) {
	q := `
SELECT ` + customerColumns + `
FROM customers
WHERE website_id = $1 AND lower(email) = lower($2)
LIMIT 1
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, websiteID, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, websiteID, id string) (*domain.Customer, error) {
	q := `
SELECT ` + customerColumns + `
FROM customers
WHERE website_id = $1 AND id = $2
LIMIT 1
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, websiteID, id))
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	var addrJSON []byte
	err := row.Scan(
		&c.ID,
		&c.WebsiteID,
		&c.Email,
		&c.PasswordHash,
		&c.FirstName,
		&c.LastName,
		&c.Phone,
		&addrJSON,
		&c.DefaultShippingAddressID,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("customer repo: scan error=%v", err)
		return nil, err
	}
	if len(addrJSON) > 0 {
		if err := json.Unmarshal(addrJSON, &c.Addresses); err != nil {
			r.logger.Printf("customer repo: decode addresses id=%s err=%v", c.ID, err)
			return nil, err
		}
	}
	return &c, nil
}
