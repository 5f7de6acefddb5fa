package domain

import "context"

type RestaurantStore interface {
	// Read paths
	FindBySearchCriteria(ctx context.Context, c SearchCriteria) ([]Restaurant, error)
	FindAll(ctx context.Context) ([]Restaurant, error)
	FindByID(ctx context.Context, id int64) (Restaurant, error)

	// Write paths
	Save(ctx context.Context, r Restaurant) (Restaurant, error)
	SaveRating(ctx context.Context, id int64, rating string) error
	// Delete removes the restaurant together with its reviews.
	Delete(ctx context.Context, id int64) error
}

type CategoryStore interface {
	FindByID(ctx context.Context, id int64) (Category, error)
	FindAll(ctx context.Context) ([]Category, error)
	Create(ctx context.Context, name string) (Category, error)
}

// ReviewStore is the append-only review ledger.
type ReviewStore interface {
	Append(ctx context.Context, restaurantID int64, rating int, comment string) (Review, error)
	ListByRestaurant(ctx context.Context, restaurantID int64) ([]Review, error)
	// AverageRating returns nil when the restaurant has no reviews.
	AverageRating(ctx context.Context, restaurantID int64) (*float64, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type ReviewEvents interface {
	PublishReviewAdded(ctx context.Context, ev ReviewAdded) error
}
