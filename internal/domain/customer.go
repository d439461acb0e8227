package domain

import "time"

// CustomerAddress stores address fields returned to clients.
type CustomerAddress struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	StreetName string `json:"streetName,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Customer represents a registered shopper of one website.
type Customer struct {
	ID                       string            `json:"id"`
	WebsiteID                string            `json:"websiteId"`
	Email                    string            `json:"email"`
	PasswordHash             string            `json:"-"`
	FirstName                string            `json:"firstName,omitempty"`
	LastName                 string            `json:"lastName,omitempty"`
	Phone                    string            `json:"phone,omitempty"`
	Addresses                []CustomerAddress `json:"addresses"`
	DefaultShippingAddressID string            `json:"defaultShippingAddressId,omitempty"`
	CreatedAt                time.Time         `json:"createdAt"`
}
