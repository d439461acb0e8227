package domain

import "time"

type Category struct {
	ID          string    `json:"id"`
	WebsiteID   string    `json:"-"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug,omitempty"`
	ParentKey   string    `json:"parentKey,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
