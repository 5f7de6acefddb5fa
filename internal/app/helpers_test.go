package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"restaurant_finder/internal/domain"
	"restaurant_finder/internal/storage/memory"
)

// ---- fixtures ----

type catalogFixture struct {
	db          *memory.DB
	italian     domain.Category
	pizza       domain.Category
	vegan       domain.Category
	trattoria   domain.Restaurant // italian+pizza, LOW
	greenBowl   domain.Restaurant // vegan, MEDIUM
	pizzaPalace domain.Restaurant // pizza, HIGH
}

func seedCatalog(t *testing.T) *catalogFixture {
	t.Helper()
	ctx := context.Background()
	f := &catalogFixture{db: memory.New()}

	var err error
	f.italian, err = f.db.Categories().Create(ctx, "Italian")
	require.NoError(t, err)
	f.pizza, err = f.db.Categories().Create(ctx, "Pizza")
	require.NoError(t, err)
	f.vegan, err = f.db.Categories().Create(ctx, "Vegan")
	require.NoError(t, err)

	save := func(name string, tier domain.PriceTier, cats ...domain.Category) domain.Restaurant {
		r, err := f.db.Restaurants().Save(ctx, domain.Restaurant{
			Name: name, Address: "1 Main St", Hours: "9-5", PriceTier: tier, Categories: cats,
		})
		require.NoError(t, err)
		return r
	}
	f.trattoria = save("Trattoria Roma", domain.PriceLow, f.italian, f.pizza)
	f.greenBowl = save("Green Bowl", domain.PriceMedium, f.vegan)
	f.pizzaPalace = save("Pizza Palace", domain.PriceHigh, f.pizza)
	return f
}

func ids(rs []domain.Restaurant) []int64 {
	out := make([]int64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

// ---- fakes ----

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Restaurant:
		*d = v.(domain.Restaurant)
	case *[]domain.Category:
		*d = v.([]domain.Category)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

type fakeEvents struct {
	got []domain.ReviewAdded
	err error
}

func (e *fakeEvents) PublishReviewAdded(ctx context.Context, ev domain.ReviewAdded) error {
	e.got = append(e.got, ev)
	return e.err
}
