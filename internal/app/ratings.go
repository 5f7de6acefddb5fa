package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"restaurant_finder/internal/adapters/observability"
	"restaurant_finder/internal/domain"
)

// RatingAggregator derives a restaurant's displayed rating from its full
// review history.
type RatingAggregator struct {
	restaurants domain.RestaurantStore
	reviews     domain.ReviewStore
}

func NewRatingAggregator(r domain.RestaurantStore, rv domain.ReviewStore) *RatingAggregator {
	return &RatingAggregator{restaurants: r, reviews: rv}
}

// Recompute stores and returns the mean of all reviews of the restaurant,
// or DefaultRating when it has none.
func (a *RatingAggregator) Recompute(ctx context.Context, restaurantID int64) (string, error) {
	rating, err := a.recompute(ctx, restaurantID)
	observability.ObserveRecompute(err)
	return rating, err
}

func (a *RatingAggregator) recompute(ctx context.Context, restaurantID int64) (string, error) {
	avg, err := a.reviews.AverageRating(ctx, restaurantID)
	if err != nil {
		return "", fmt.Errorf("average rating for %d: %w", restaurantID, err)
	}
	rating := FormatRating(avg)
	if err := a.restaurants.SaveRating(ctx, restaurantID, rating); err != nil {
		return "", fmt.Errorf("save rating for %d: %w", restaurantID, err)
	}
	return rating, nil
}

// FormatRating renders avg with the shortest exact digits and at least one
// fractional digit: 4.5, 4.0, 4.333333333333333.
func FormatRating(avg *float64) string {
	if avg == nil {
		return domain.DefaultRating
	}
	s := strconv.FormatFloat(*avg, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
