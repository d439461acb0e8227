package order

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const orderColumns = `id::text, website_id::text, customer_id::text, anonymous_id,
       guest_name, guest_email, guest_phone, total_cents, currency, status,
       payment_method, payment_status, COALESCE(payment_reference, ''), shipping_address,
       COALESCE(idempotency_key, ''), created_at, updated_at`

// Create inserts the order header and its items in one transaction, so a
// visible order always carries its items.
func (r *postgresRepo) Create(ctx context.Context, o domain.Order, items []domain.OrderItem) (*domain.Order, error) {
	var guestName, guestEmail, guestPhone *string
	if o.Guest != nil {
		guestName, guestEmail, guestPhone = &o.Guest.Name, &o.Guest.Email, &o.Guest.Phone
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	q := `
INSERT INTO orders (
    website_id, customer_id, anonymous_id, guest_name, guest_email, guest_phone,
    total_cents, currency, status, payment_method, payment_status, shipping_address, idempotency_key
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''))
RETURNING ` + orderColumns
	out, err := scanOrder(tx.QueryRow(ctx, q,
		o.WebsiteID,
		o.CustomerID,
		o.AnonymousID,
		guestName,
		guestEmail,
		guestPhone,
		o.TotalCents,
		o.Currency,
		o.Status,
		o.PaymentMethod,
		o.PaymentStatus,
		o.ShippingAddress,
		o.IdempotencyKey,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("order repo: create website_id=%s error=%v", o.WebsiteID, err)
		return nil, err
	}

	out.Items, err = insertItems(ctx, tx, out.ID, items)
	if err != nil {
		r.logger.Printf("order repo: insert items order_id=%s count=%d error=%v", out.ID, len(items), err)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s website_id=%s total_cents=%d method=%s items=%d", out.ID, out.WebsiteID, out.TotalCents, out.PaymentMethod, len(out.Items))
	return out, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID string, items []domain.OrderItem) ([]domain.OrderItem, error) {
	const q = `
INSERT INTO order_items (order_id, product_id, quantity, unit_price_cents)
VALUES ($1, $2, $3, $4)
RETURNING id::text, created_at
`
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(q, orderID, it.ProductID, it.Quantity, it.UnitPriceCents)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	out := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		it.OrderID = orderID
		if err := br.QueryRow().Scan(&it.ID, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, br.Close()
}

func (r *postgresRepo) GetByID(ctx context.Context, websiteID, id string) (*domain.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE website_id = $1 AND id = $2
`
	return r.fetchOne(ctx, q, websiteID, id)
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, websiteID, key string) (*domain.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE website_id = $1 AND idempotency_key = $2
`
	return r.fetchOne(ctx, q, websiteID, key)
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, websiteID, customerID string) ([]domain.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE website_id = $1 AND customer_id = $2
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, websiteID, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	index := map[string]int{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(orders)
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return orders, nil
}

func (r *postgresRepo) MarkPaid(ctx context.Context, websiteID, id, paymentReference string) error {
	const q = `
UPDATE orders
SET payment_status = 'paid',
    payment_reference = NULLIF($3, ''),
    updated_at = NOW()
WHERE website_id = $1 AND id = $2
`
	cmd, err := r.pool.Exec(ctx, q, websiteID, id, paymentReference)
	if err != nil {
		r.logger.Printf("order repo: mark paid id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) fetchOne(ctx context.Context, q string, args ...interface{}) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	items, err := r.items(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *postgresRepo) items(ctx context.Context, orderIDs []string) ([]domain.OrderItem, error) {
	const q = `
SELECT id::text, order_id::text, product_id::text, quantity, unit_price_cents, created_at
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY created_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, q, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPriceCents, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var guestName, guestEmail, guestPhone *string
	if err := row.Scan(
		&o.ID,
		&o.WebsiteID,
		&o.CustomerID,
		&o.AnonymousID,
		&guestName,
		&guestEmail,
		&guestPhone,
		&o.TotalCents,
		&o.Currency,
		&o.Status,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.PaymentReference,
		&o.ShippingAddress,
		&o.IdempotencyKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if guestName != nil || guestEmail != nil || guestPhone != nil {
		o.Guest = &domain.GuestContact{}
		if guestName != nil {
			o.Guest.Name = *guestName
		}
		if guestEmail != nil {
			o.Guest.Email = *guestEmail
		}
		if guestPhone != nil {
			o.Guest.Phone = *guestPhone
		}
	}
	return &o, nil
}
