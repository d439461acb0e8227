package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// ShippingAddress is captured on the order at checkout time.
type ShippingAddress struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// GuestContact identifies the owner of an order placed without an account.
type GuestContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Order struct {
	ID               string          `json:"id"`
	WebsiteID        string          `json:"-"`
	CustomerID       *string         `json:"customerId,omitempty"`
	AnonymousID      *string         `json:"-"`
	Guest            *GuestContact   `json:"guest,omitempty"`
	TotalCents       int64           `json:"totalCents"`
	Currency         string          `json:"currency"`
	Status           OrderStatus     `json:"status"`
	PaymentMethod    string          `json:"paymentMethod"`
	PaymentStatus    PaymentStatus   `json:"paymentStatus"`
	PaymentReference string          `json:"paymentReference,omitempty"`
	ShippingAddress  ShippingAddress `json:"shippingAddress"`
	IdempotencyKey   string          `json:"-"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	Items            []OrderItem     `json:"items"`
}

// OwnedBy reports whether the order belongs to the customer or, for guest
// orders, to the anonymous session. Empty ids never match.
func (o *Order) OwnedBy(customerID, anonymousID string) bool {
	if customerID != "" && o.CustomerID != nil && *o.CustomerID == customerID {
		return true
	}
	return anonymousID != "" && o.AnonymousID != nil && *o.AnonymousID == anonymousID
}

// OrderItem is a line of an order. The unit price is the price charged at
// submit time and never changes afterwards.
type OrderItem struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	ProductID      string    `json:"productId"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	CreatedAt      time.Time `json:"createdAt"`
}
