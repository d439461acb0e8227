package domain

import "time"

// CartStateActive is the only state a cart can be changed in.
const CartStateActive = "active"

// Cart holds the shopper's pending purchase. TotalCents is maintained by the
// repository from the line totals.
type Cart struct {
	ID          string
	WebsiteID   string
	CustomerID  *string
	AnonymousID *string
	Currency    string
	TotalCents  int64
	State       string
	CreatedAt   time.Time
	Lines       []CartLine
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// OwnedBy reports whether owner may read or change the cart. A customer
// identity is matched on the customer id only.
func (c *Cart) OwnedBy(owner Owner) bool {
	if owner.IsCustomer() {
		return c.CustomerID != nil && *c.CustomerID == owner.CustomerID
	}
	return owner.AnonymousID != "" && c.AnonymousID != nil && *c.AnonymousID == owner.AnonymousID
}

// Quantity is the number of units across all lines.
func (c *Cart) Quantity() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// CartLine prices are captured when the line is added; Snapshot keeps the
// product fields shown in the cart.
type CartLine struct {
	ID             string
	CartID         string
	ProductID      string
	Quantity       int
	UnitPriceCents int64
	TotalCents     int64
	Snapshot       map[string]interface{}
	CreatedAt      time.Time
}
