package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant_finder/internal/app"
	"restaurant_finder/internal/domain"
	"restaurant_finder/internal/storage/memory"
)

func pfloat(f float64) *float64 { return &f }

func TestFormatRating(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, "0.0"},
		{pfloat(4.5), "4.5"},
		{pfloat(4), "4.0"},
		{pfloat(5), "5.0"},
		{pfloat(13.0 / 3.0), "4.333333333333333"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, app.FormatRating(tt.in))
		})
	}
}

func TestRecompute_FullHistoryMean(t *testing.T) {
	ctx := context.Background()
	f := seedCatalog(t)
	agg := app.NewRatingAggregator(f.db.Restaurants(), f.db.Reviews())
	id := f.greenBowl.ID

	got, err := agg.Recompute(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "0.0", got)

	for _, rating := range []int{4, 5} {
		_, err := f.db.Reviews().Append(ctx, id, rating, "a perfectly fine meal")
		require.NoError(t, err)
	}
	got, err = agg.Recompute(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "4.5", got)

	_, err = f.db.Reviews().Append(ctx, id, 3, "a perfectly fine meal")
	require.NoError(t, err)
	got, err = agg.Recompute(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "4.0", got)

	r, err := f.db.Restaurants().FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "4.0", r.Rating)
}

func TestRecompute_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := seedCatalog(t)
	agg := app.NewRatingAggregator(f.db.Restaurants(), f.db.Reviews())
	_, err := f.db.Reviews().Append(ctx, f.trattoria.ID, 2, "could be a lot better")
	require.NoError(t, err)

	first, err := agg.Recompute(ctx, f.trattoria.ID)
	require.NoError(t, err)
	second, err := agg.Recompute(ctx, f.trattoria.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "2.0", second)
}

type brokenReviews struct{ *memory.ReviewRepo }

func (brokenReviews) AverageRating(ctx context.Context, id int64) (*float64, error) {
	return nil, errors.New("deadlock")
}

func TestRecompute_StoreErrorLeavesRatingUntouched(t *testing.T) {
	ctx := context.Background()
	f := seedCatalog(t)
	agg := app.NewRatingAggregator(f.db.Restaurants(), brokenReviews{f.db.Reviews()})

	_, err := agg.Recompute(ctx, f.pizzaPalace.ID)
	require.Error(t, err)

	r, err := f.db.Restaurants().FindByID(ctx, f.pizzaPalace.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRating, r.Rating)
}
