package domain

import "time"

// Website is a storefront tenant. Every catalogue, cart and order row is
// scoped to one website.
type Website struct {
	ID        string                 `json:"id"`
	Key       string                 `json:"key"`
	Name      string                 `json:"name"`
	Settings  map[string]interface{} `json:"settings,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}
