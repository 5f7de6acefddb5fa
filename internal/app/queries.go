package app

import (
	"context"
	"fmt"
	"time"

	"restaurant_finder/internal/domain"
)

const categoriesKey = "categories:all"

func restaurantKey(id int64) string { return fmt.Sprintf("restaurant:%d", id) }

type QueryService struct {
	restaurants domain.RestaurantStore
	categories  domain.CategoryStore
	reviews     domain.ReviewStore
	cache       domain.Cache
	cacheTTL    time.Duration
}

func NewQueryService(r domain.RestaurantStore, c domain.CategoryStore, rv domain.ReviewStore, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{restaurants: r, categories: c, reviews: rv, cache: cache, cacheTTL: ttl}
}

func (s *QueryService) GetRestaurant(ctx context.Context, id int64) (domain.Restaurant, error) {
	key := restaurantKey(id)
	var r domain.Restaurant
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &r); ok {
			return r, nil
		}
	}
	r, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("restaurant %d: %w", id, err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, r, int(s.cacheTTL.Seconds()))
	}
	return r, nil
}

// ListReviews is never cached; it is read right after writes by clients.
func (s *QueryService) ListReviews(ctx context.Context, restaurantID int64) ([]domain.Review, error) {
	if _, err := s.GetRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}
	rs, err := s.reviews.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list reviews %d: %w", restaurantID, err)
	}
	return rs, nil
}

func (s *QueryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, categoriesKey, &out); ok {
			return out, nil
		}
	}
	out, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, categoriesKey, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}
