package httpserver

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// money is a price as both integer cents and a fixed two-decimal amount.
type money struct {
	CentAmount   int64  `json:"centAmount"`
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

func moneyOf(cents int64, currency string) money {
	return money{
		CentAmount:   cents,
		Amount:       decimal.New(cents, -2).StringFixed(2),
		CurrencyCode: currency,
	}
}

type pagedResponse[T any] struct {
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
	Count   int `json:"count"`
	Total   int `json:"total"`
	Results []T `json:"results"`
}

func paginate[T any](all []T, limit, offset int) pagedResponse[T] {
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	results := all[offset:end]
	if results == nil {
		results = []T{}
	}
	return pagedResponse[T]{Limit: limit, Offset: offset, Count: len(results), Total: total, Results: results}
}

type websiteView struct {
	ID       string                 `json:"id"`
	Key      string                 `json:"key"`
	Name     string                 `json:"name"`
	Settings map[string]interface{} `json:"settings"`
}

// privateSettings are website settings never sent to shoppers.
var privateSettings = map[string]bool{
	"admin_password_hash": true,
	"webhook_secret":      true,
}

func toWebsiteView(w domain.Website) websiteView {
	settings := make(map[string]interface{}, len(w.Settings))
	for k, v := range w.Settings {
		if !privateSettings[k] {
			settings[k] = v
		}
	}
	return websiteView{ID: w.ID, Key: w.Key, Name: w.Name, Settings: settings}
}

type productView struct {
	ID          string                 `json:"id"`
	Key         string                 `json:"key"`
	SKU         string                 `json:"sku"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Price       money                  `json:"price"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
}

func toProductView(p domain.Product) productView {
	return productView{
		ID:          p.ID,
		Key:         p.Key,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       moneyOf(p.PriceCents, p.Currency),
		Attributes:  p.Attributes,
	}
}

type lineItemView struct {
	ID         string `json:"id"`
	ProductID  string `json:"productId"`
	ProductKey string `json:"productKey,omitempty"`
	Name       string `json:"name"`
	SKU        string `json:"sku,omitempty"`
	Quantity   int    `json:"quantity"`
	Price      money  `json:"price"`
	TotalPrice money  `json:"totalPrice"`
}

type cartView struct {
	ID                    string         `json:"id"`
	CustomerID            string         `json:"customerId,omitempty"`
	CartState             string         `json:"cartState"`
	LineItems             []lineItemView `json:"lineItems"`
	TotalPrice            money          `json:"totalPrice"`
	TotalLineItemQuantity int            `json:"totalLineItemQuantity"`
	CreatedAt             time.Time      `json:"createdAt"`
}

func toCartView(cart domain.Cart) cartView {
	items := make([]lineItemView, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		name := snapshotString(line.Snapshot, "productName")
		if name == "" {
			name = line.ProductID
		}
		items = append(items, lineItemView{
			ID:         line.ID,
			ProductID:  line.ProductID,
			ProductKey: snapshotString(line.Snapshot, "productKey"),
			Name:       name,
			SKU:        snapshotString(line.Snapshot, "sku"),
			Quantity:   line.Quantity,
			Price:      moneyOf(line.UnitPriceCents, cart.Currency),
			TotalPrice: moneyOf(line.TotalCents, cart.Currency),
		})
	}
	state := cart.State
	if state == "" {
		state = domain.CartStateActive
	}
	out := cartView{
		ID:                    cart.ID,
		CartState:             state,
		LineItems:             items,
		TotalPrice:            moneyOf(cart.TotalCents, cart.Currency),
		TotalLineItemQuantity: cart.Quantity(),
		CreatedAt:             cart.CreatedAt,
	}
	if cart.CustomerID != nil {
		out.CustomerID = *cart.CustomerID
	}
	return out
}

func snapshotString(raw map[string]interface{}, key string) string {
	v, _ := raw[key].(string)
	return v
}

type orderItemView struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     money  `json:"price"`
}

type orderView struct {
	ID              string                 `json:"id"`
	Status          domain.OrderStatus     `json:"status"`
	PaymentMethod   string                 `json:"paymentMethod"`
	PaymentStatus   domain.PaymentStatus   `json:"paymentStatus"`
	TotalPrice      money                  `json:"totalPrice"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	Items           []orderItemView        `json:"items"`
	CreatedAt       time.Time              `json:"createdAt"`
}

func toOrderView(o domain.Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemView{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     moneyOf(it.UnitPriceCents, o.Currency),
		})
	}
	return orderView{
		ID:              o.ID,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		TotalPrice:      moneyOf(o.TotalCents, o.Currency),
		ShippingAddress: o.ShippingAddress,
		Items:           items,
		CreatedAt:       o.CreatedAt,
	}
}

type paymentMethodView struct {
	Name         string `json:"methodName"`
	Type         string `json:"methodType"`
	DisplayOrder int    `json:"displayOrder"`
}
