package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"restaurant_finder/internal/domain"
)

var (
	italian = domain.Category{ID: 1, Name: "Italian"}
	pizza   = domain.Category{ID: 2, Name: "Pizza"}
	vegan   = domain.Category{ID: 3, Name: "vegan"}
	catalog = []domain.Category{italian, pizza, vegan}
)

func TestHasAllCategories(t *testing.T) {
	tests := []struct {
		name      string
		held      []domain.Category
		requested []string
		want      bool
	}{
		{"nil set matches anything", nil, nil, true},
		{"holds all requested", []domain.Category{italian, pizza}, []string{"italian", "pizza"}, true},
		{"holds a superset", []domain.Category{italian, pizza, vegan}, []string{"pizza"}, true},
		{"holds only a subset", []domain.Category{italian}, []string{"italian", "pizza"}, false},
		{"holds none", []domain.Category{vegan}, []string{"italian"}, false},
		{"duplicate held links count once", []domain.Category{italian, italian}, []string{"italian", "pizza"}, false},
		{"duplicate requested names count once", []domain.Category{italian}, []string{"italian", "italian"}, true},
		// names unknown to the catalog drop out of both counts
		{"unknown name ignored next to known one", []domain.Category{italian}, []string{"italian", "klingon"}, true},
		{"only unknown names match everyone", []domain.Category{vegan}, []string{"klingon"}, true},
		{"only unknown names match no categories too", nil, []string{"klingon"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.HasAllCategories(tt.held, catalog, tt.requested))
		})
	}
}
