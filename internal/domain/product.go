package domain

import (
	"slices"
	"time"
)

// Attribute keys the catalogue stores inside Product.Attributes.
const (
	AttrCategories = "categories"
	AttrImages     = "images"
)

// Product is a catalogue entry of one website. Prices are minor units.
type Product struct {
	ID          string
	WebsiteID   string
	Key         string
	SKU         string
	Name        string
	Description string
	PriceCents  int64
	Currency    string
	Attributes  map[string]interface{}
	CreatedAt   time.Time
}

// CategoryKeys returns the category keys the product is filed under.
func (p Product) CategoryKeys() []string {
	return stringList(p.Attributes[AttrCategories])
}

// Images returns the product image URLs in display order.
func (p Product) Images() []string {
	return stringList(p.Attributes[AttrImages])
}

func (p Product) InCategory(key string) bool {
	return slices.Contains(p.CategoryKeys(), key)
}

// stringList accepts both freshly built attributes and ones decoded from
// jsonb, which arrive as []interface{}.
func stringList(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
