package domain

import "strings"

// DefaultRating is the displayed rating of a restaurant without reviews.
const DefaultRating = "0.0"

type PriceTier string

const (
	PriceLow    PriceTier = "LOW"
	PriceMedium PriceTier = "MEDIUM"
	PriceHigh   PriceTier = "HIGH"
)

// ParsePriceTier never fails: anything that is not a known tier after
// trimming and upper-casing reports ok=false.
func ParsePriceTier(s string) (PriceTier, bool) {
	switch t := PriceTier(strings.ToUpper(strings.TrimSpace(s))); t {
	case PriceLow, PriceMedium, PriceHigh:
		return t, true
	}
	return "", false
}

type Restaurant struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Email       *string    `json:"email,omitempty"`
	Phone       *int64     `json:"phone,omitempty"`
	Description string     `json:"description"`
	Hours       string     `json:"hours"`
	PriceTier   PriceTier  `json:"priceRange"`
	Rating      string     `json:"rating"`
	PhotoURL    *string    `json:"photoUrl,omitempty"`
	Categories  []Category `json:"categories"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RestaurantInput carries the writable fields of a restaurant. Category IDs
// that do not resolve are skipped.
type RestaurantInput struct {
	Name        string
	Address     string
	Email       *string
	Phone       *int64
	Description string
	Hours       string
	PriceTier   string
	PhotoURL    *string
	CategoryIDs []int64
}
