package domain

// Owner identifies who a cart or order belongs to: a signed-in customer or
// an anonymous guest session. At most one of the ids is expected to be set;
// CustomerID wins when both are.
type Owner struct {
	CustomerID  string
	AnonymousID string
}

// IsCustomer reports whether the owner is an authenticated customer.
func (o Owner) IsCustomer() bool {
	return o.CustomerID != ""
}

// IsZero reports whether no identity is attached.
func (o Owner) IsZero() bool {
	return o.CustomerID == "" && o.AnonymousID == ""
}
