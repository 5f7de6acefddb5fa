package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"restaurant_finder/internal/domain"
)

type CatalogService struct {
	restaurants domain.RestaurantStore
	categories  domain.CategoryStore
	reviews     domain.ReviewStore
	ratings     *RatingAggregator
	cache       domain.Cache
	events      domain.ReviewEvents
}

// NewCatalogService wires the write side. cache and events may be nil.
func NewCatalogService(r domain.RestaurantStore, c domain.CategoryStore, rv domain.ReviewStore, cache domain.Cache, events domain.ReviewEvents) *CatalogService {
	return &CatalogService{
		restaurants: r,
		categories:  c,
		reviews:     rv,
		ratings:     NewRatingAggregator(r, rv),
		cache:       cache,
		events:      events,
	}
}

func (s *CatalogService) CreateRestaurant(ctx context.Context, in domain.RestaurantInput) (domain.Restaurant, error) {
	var r domain.Restaurant
	if err := s.apply(ctx, in, &r); err != nil {
		return domain.Restaurant{}, err
	}
	out, err := s.restaurants.Save(ctx, r)
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("create restaurant: %w", err)
	}
	log.Info().Int64("restaurant_id", out.ID).Str("name", out.Name).Msg("restaurant created")
	return out, nil
}

func (s *CatalogService) UpdateRestaurant(ctx context.Context, id int64, in domain.RestaurantInput) (domain.Restaurant, error) {
	r, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("restaurant %d: %w", id, err)
	}
	if err := s.apply(ctx, in, &r); err != nil {
		return domain.Restaurant{}, err
	}
	out, err := s.restaurants.Save(ctx, r)
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("update restaurant %d: %w", id, err)
	}
	s.invalidateRestaurant(ctx, id)
	return out, nil
}

// DeleteRestaurant removes the restaurant and every review it owns.
func (s *CatalogService) DeleteRestaurant(ctx context.Context, id int64) error {
	if err := s.restaurants.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete restaurant %d: %w", id, err)
	}
	s.invalidateRestaurant(ctx, id)
	log.Info().Int64("restaurant_id", id).Msg("restaurant deleted")
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}
	c, err := s.categories.Create(ctx, name)
	if err != nil {
		return domain.Category{}, fmt.Errorf("create category %q: %w", name, err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, categoriesKey)
	}
	return c, nil
}

// AddReview appends a review and recomputes the restaurant rating. A failed
// recompute does not undo the review; the next review (or cmd/rerate)
// repairs the rating from the full history.
func (s *CatalogService) AddReview(ctx context.Context, restaurantID int64, rating int, comment string) (domain.Review, error) {
	if _, err := s.restaurants.FindByID(ctx, restaurantID); err != nil {
		return domain.Review{}, fmt.Errorf("restaurant %d: %w", restaurantID, err)
	}
	comment = strings.TrimSpace(comment)
	if err := validateReview(rating, comment); err != nil {
		return domain.Review{}, err
	}

	rev, err := s.reviews.Append(ctx, restaurantID, rating, comment)
	if err != nil {
		return domain.Review{}, fmt.Errorf("append review: %w", err)
	}

	avg, rerr := s.ratings.Recompute(ctx, restaurantID)
	s.invalidateRestaurant(ctx, restaurantID)
	if rerr != nil {
		log.Warn().Err(rerr).Int64("restaurant_id", restaurantID).Int64("review_id", rev.ID).
			Msg("rating recompute failed; rating stale until next review")
		return rev, nil
	}

	if s.events != nil {
		ev := domain.ReviewAdded{
			Type:         "review_added",
			ReviewID:     rev.ID,
			RestaurantID: restaurantID,
			Rating:       rev.Rating,
			NewAverage:   avg,
			Timestamp:    time.Now().UTC(),
		}
		if err := s.events.PublishReviewAdded(ctx, ev); err != nil {
			log.Warn().Err(err).Int64("review_id", rev.ID).Msg("publish review_added failed")
		}
	}
	return rev, nil
}

// RefreshRating recomputes a restaurant's rating from its full review
// history, repairing a value left stale by an earlier failed recompute.
func (s *CatalogService) RefreshRating(ctx context.Context, restaurantID int64) (string, error) {
	avg, err := s.ratings.Recompute(ctx, restaurantID)
	if err != nil {
		return "", err
	}
	s.invalidateRestaurant(ctx, restaurantID)
	return avg, nil
}

func (s *CatalogService) apply(ctx context.Context, in domain.RestaurantInput, r *domain.Restaurant) error {
	if err := validateRestaurant(in); err != nil {
		return err
	}
	tier, _ := domain.ParsePriceTier(in.PriceTier)

	cats := make([]domain.Category, 0, len(in.CategoryIDs))
	for _, id := range in.CategoryIDs {
		c, err := s.categories.FindByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("category %d: %w", id, err)
		}
		cats = append(cats, c)
	}

	r.Name = strings.TrimSpace(in.Name)
	r.Address = strings.TrimSpace(in.Address)
	r.Email = in.Email
	r.Phone = in.Phone
	r.Description = in.Description
	r.Hours = in.Hours
	r.PriceTier = tier
	r.PhotoURL = in.PhotoURL
	r.Categories = cats
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...)
}

func validateRestaurant(in domain.RestaurantInput) error {
	name := strings.TrimSpace(in.Name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return invalid("restaurant name is required")
	case n < 2 || n > 100:
		return invalid("name must be between 2 and 100 characters")
	}
	addr := strings.TrimSpace(in.Address)
	if addr == "" {
		return invalid("address is required")
	}
	if utf8.RuneCountInString(addr) > 200 {
		return invalid("address cannot exceed 200 characters")
	}
	if utf8.RuneCountInString(in.Description) > 1000 {
		return invalid("description cannot exceed 1000 characters")
	}
	if strings.TrimSpace(in.Hours) == "" {
		return invalid("operating hours are required")
	}
	if _, ok := domain.ParsePriceTier(in.PriceTier); !ok {
		return invalid("price range must be LOW, MEDIUM, or HIGH")
	}
	if len(in.CategoryIDs) == 0 {
		return invalid("at least one category must be selected")
	}
	return nil
}

func validateReview(rating int, comment string) error {
	if rating < domain.MinReviewRating || rating > domain.MaxReviewRating {
		return invalid("rating must be between %d and %d", domain.MinReviewRating, domain.MaxReviewRating)
	}
	if n := utf8.RuneCountInString(comment); n < 10 || n > 500 {
		return invalid("comment must be between 10 and 500 characters")
	}
	return nil
}

func (s *CatalogService) invalidateRestaurant(ctx context.Context, id int64) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, restaurantKey(id))
	}
}
