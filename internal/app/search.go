package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"restaurant_finder/internal/adapters/observability"
	"restaurant_finder/internal/domain"
)

type SearchService struct {
	restaurants domain.RestaurantStore
}

func NewSearchService(r domain.RestaurantStore) *SearchService {
	return &SearchService{restaurants: r}
}

// SearchRaw normalizes request filters and runs Search.
func (s *SearchService) SearchRaw(ctx context.Context, name string, categories []string, priceTier, minRating string) ([]domain.Restaurant, error) {
	return s.Search(ctx, domain.NormalizeCriteria(name, categories, priceTier, minRating))
}

// Search returns the restaurants matching c. When a constrained search finds
// nothing, the whole catalog is returned instead.
func (s *SearchService) Search(ctx context.Context, c domain.SearchCriteria) ([]domain.Restaurant, error) {
	rs, err := s.restaurants.FindBySearchCriteria(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("search restaurants: %w", err)
	}
	if len(rs) > 0 {
		observability.ObserveSearch("matched")
		return rs, nil
	}
	if c.IsEmpty() {
		observability.ObserveSearch("empty")
		return rs, nil
	}

	all, err := s.restaurants.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("search fallback: %w", err)
	}
	observability.ObserveSearch("fallback")
	log.Debug().Int("returned", len(all)).Msg("search matched nothing; returning full catalog")
	return all, nil
}
