// Package memory is an in-process catalog store. It backs STORE=memory and
// the service tests; semantics match the MySQL store.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"restaurant_finder/internal/domain"
)

type DB struct {
	mu          sync.RWMutex
	restaurants map[int64]domain.Restaurant
	links       map[int64][]int64 // restaurant id -> category ids
	categories  map[int64]domain.Category
	reviews     map[int64][]domain.Review // owned by restaurant id
	seq         struct{ restaurant, category, review int64 }
	now         func() time.Time
}

func New() *DB {
	return &DB{
		restaurants: map[int64]domain.Restaurant{},
		links:       map[int64][]int64{},
		categories:  map[int64]domain.Category{},
		reviews:     map[int64][]domain.Review{},
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (db *DB) Restaurants() *RestaurantRepo { return &RestaurantRepo{db: db} }
func (db *DB) Categories() *CategoryRepo    { return &CategoryRepo{db: db} }
func (db *DB) Reviews() *ReviewRepo         { return &ReviewRepo{db: db} }

// hydrate attaches the current category rows. Caller holds db.mu.
func (db *DB) hydrate(r domain.Restaurant) domain.Restaurant {
	cats := make([]domain.Category, 0, len(db.links[r.ID]))
	for _, cid := range db.links[r.ID] {
		if c, ok := db.categories[cid]; ok {
			cats = append(cats, c)
		}
	}
	r.Categories = cats
	return r
}

func (db *DB) catalog() []domain.Category {
	out := make([]domain.Category, 0, len(db.categories))
	for _, c := range db.categories {
		out = append(out, c)
	}
	return out
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ---- restaurants ----

type RestaurantRepo struct{ db *DB }

func (r *RestaurantRepo) FindBySearchCriteria(ctx context.Context, c domain.SearchCriteria) ([]domain.Restaurant, error) {
	var threshold *float64
	if c.MinRating != nil {
		f, err := strconv.ParseFloat(*c.MinRating, 64)
		if err != nil {
			return nil, nil // a non-numeric threshold matches nothing
		}
		threshold = &f
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	catalog := r.db.catalog()
	var out []domain.Restaurant
	for _, id := range sortedIDs(r.db.restaurants) {
		rest := r.db.hydrate(r.db.restaurants[id])
		if c.Name != nil && !strings.Contains(strings.ToLower(rest.Name), strings.ToLower(*c.Name)) {
			continue
		}
		if !domain.HasAllCategories(rest.Categories, catalog, c.Categories) {
			continue
		}
		if c.PriceTier != nil && rest.PriceTier != *c.PriceTier {
			continue
		}
		if threshold != nil {
			got, err := strconv.ParseFloat(rest.Rating, 64)
			if err != nil || got < *threshold {
				continue
			}
		}
		out = append(out, rest)
	}
	return out, nil
}

func (r *RestaurantRepo) FindAll(ctx context.Context) ([]domain.Restaurant, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []domain.Restaurant
	for _, id := range sortedIDs(r.db.restaurants) {
		out = append(out, r.db.hydrate(r.db.restaurants[id]))
	}
	return out, nil
}

func (r *RestaurantRepo) FindByID(ctx context.Context, id int64) (domain.Restaurant, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	rest, ok := r.db.restaurants[id]
	if !ok {
		return domain.Restaurant{}, domain.ErrNotFound
	}
	return r.db.hydrate(rest), nil
}

// Save inserts when ID is zero, otherwise updates everything but the rating.
func (r *RestaurantRepo) Save(ctx context.Context, rest domain.Restaurant) (domain.Restaurant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if rest.ID == 0 {
		r.db.seq.restaurant++
		rest.ID = r.db.seq.restaurant
		rest.Rating = domain.DefaultRating
	} else {
		old, ok := r.db.restaurants[rest.ID]
		if !ok {
			return domain.Restaurant{}, domain.ErrNotFound
		}
		rest.Rating = old.Rating
	}

	ids := make([]int64, 0, len(rest.Categories))
	seen := map[int64]struct{}{}
	for _, c := range rest.Categories {
		if _, ok := r.db.categories[c.ID]; !ok {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		ids = append(ids, c.ID)
	}
	rest.Categories = nil
	r.db.restaurants[rest.ID] = rest
	r.db.links[rest.ID] = ids
	return r.db.hydrate(rest), nil
}

func (r *RestaurantRepo) SaveRating(ctx context.Context, id int64, rating string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rest, ok := r.db.restaurants[id]
	if !ok {
		return domain.ErrNotFound
	}
	rest.Rating = rating
	r.db.restaurants[id] = rest
	return nil
}

func (r *RestaurantRepo) Delete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.restaurants[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.db.reviews, id)
	delete(r.db.links, id)
	delete(r.db.restaurants, id)
	return nil
}

// ---- categories ----

type CategoryRepo struct{ db *DB }

func (c *CategoryRepo) FindByID(ctx context.Context, id int64) (domain.Category, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	cat, ok := c.db.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrNotFound
	}
	return cat, nil
}

func (c *CategoryRepo) FindAll(ctx context.Context) ([]domain.Category, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	var out []domain.Category
	for _, id := range sortedIDs(c.db.categories) {
		out = append(out, c.db.categories[id])
	}
	return out, nil
}

// Create rejects names that collide case-insensitively, like the MySQL
// collation does.
func (c *CategoryRepo) Create(ctx context.Context, name string) (domain.Category, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	for _, existing := range c.db.categories {
		if strings.EqualFold(existing.Name, name) {
			return domain.Category{}, domain.ErrConflict
		}
	}
	c.db.seq.category++
	cat := domain.Category{ID: c.db.seq.category, Name: name}
	c.db.categories[cat.ID] = cat
	return cat, nil
}

// ---- reviews ----

type ReviewRepo struct{ db *DB }

func (rv *ReviewRepo) Append(ctx context.Context, restaurantID int64, rating int, comment string) (domain.Review, error) {
	rv.db.mu.Lock()
	defer rv.db.mu.Unlock()
	if _, ok := rv.db.restaurants[restaurantID]; !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	rv.db.seq.review++
	rev := domain.Review{
		ID:           rv.db.seq.review,
		RestaurantID: restaurantID,
		Rating:       rating,
		Comment:      comment,
		CreatedAt:    rv.db.now(),
	}
	rv.db.reviews[restaurantID] = append(rv.db.reviews[restaurantID], rev)
	return rev, nil
}

func (rv *ReviewRepo) ListByRestaurant(ctx context.Context, restaurantID int64) ([]domain.Review, error) {
	rv.db.mu.RLock()
	defer rv.db.mu.RUnlock()
	src := rv.db.reviews[restaurantID]
	out := make([]domain.Review, len(src))
	copy(out, src)
	return out, nil
}

func (rv *ReviewRepo) AverageRating(ctx context.Context, restaurantID int64) (*float64, error) {
	rv.db.mu.RLock()
	defer rv.db.mu.RUnlock()
	revs := rv.db.reviews[restaurantID]
	if len(revs) == 0 {
		return nil, nil
	}
	sum := 0
	for _, r := range revs {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(revs))
	return &avg, nil
}
