package domain

import "strings"

// SearchCriteria is the canonical query shape. A nil field means no
// constraint on that dimension; Categories is nil rather than empty when
// unconstrained.
type SearchCriteria struct {
	Name       *string
	Categories []string
	PriceTier  *PriceTier
	MinRating  *string
}

// IsEmpty reports whether no dimension is constrained.
func (c SearchCriteria) IsEmpty() bool {
	return c.Name == nil && c.Categories == nil && c.PriceTier == nil && c.MinRating == nil
}

// NormalizeCriteria turns raw request filters into SearchCriteria.
// Malformed values are dropped, never reported.
func NormalizeCriteria(name string, categories []string, priceTier, minRating string) SearchCriteria {
	var c SearchCriteria
	if n := strings.TrimSpace(name); n != "" {
		c.Name = &n
	}
	c.Categories = normalizeCategories(categories)
	if t, ok := ParsePriceTier(priceTier); ok {
		c.PriceTier = &t
	}
	if r := strings.TrimSpace(minRating); r != "" {
		c.MinRating = &r
	}
	return c
}

func normalizeCategories(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, strings.ToLower(t))
		}
	}
	return out
}
