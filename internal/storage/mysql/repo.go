package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"restaurant_finder/internal/domain"
)

const (
	errDuplicateEntry = 1062
	errNoReferenced   = 1452
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func valTier(t domain.PriceTier) any {
	if t == "" {
		return nil
	}
	return string(t)
}

func mysqlErrNo(err error) uint16 {
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Restaurants() *RestaurantRepo { return &RestaurantRepo{db: s.db} }
func (s *Store) Categories() *CategoryRepo    { return &CategoryRepo{db: s.db} }
func (s *Store) Reviews() *ReviewRepo         { return &ReviewRepo{db: s.db} }

// -----------------------------------------------------------------------------
// RESTAURANTS
// -----------------------------------------------------------------------------

type RestaurantRepo struct{ db *sql.DB }

// buildSearch reports ok=false when the criteria can match nothing.
func buildSearch(c domain.SearchCriteria) (query string, args []any, ok bool) {
	var b strings.Builder
	b.WriteString(selectRestaurantsSQL)
	b.WriteString("\nWHERE 1=1")

	if c.Name != nil {
		b.WriteString(nameFilterSQL)
		args = append(args, likeEscaper.Replace(*c.Name))
	}
	if c.Categories != nil {
		fmt.Fprintf(&b, categorySetFilterSQL, placeholders(len(c.Categories)))
		for i := 0; i < 2; i++ {
			for _, n := range c.Categories {
				args = append(args, n)
			}
		}
	}
	if c.PriceTier != nil {
		b.WriteString(priceFilterSQL)
		args = append(args, string(*c.PriceTier))
	}
	if c.MinRating != nil {
		f, err := strconv.ParseFloat(*c.MinRating, 64)
		if err != nil {
			return "", nil, false
		}
		b.WriteString(ratingFilterSQL)
		args = append(args, f)
	}
	b.WriteString(orderRestaurantsSQL)
	return b.String(), args, true
}

func (r *RestaurantRepo) FindBySearchCriteria(ctx context.Context, c domain.SearchCriteria) ([]domain.Restaurant, error) {
	q, args, ok := buildSearch(c)
	if !ok {
		return nil, nil
	}
	return r.list(ctx, q, args...)
}

func (r *RestaurantRepo) FindAll(ctx context.Context) ([]domain.Restaurant, error) {
	return r.list(ctx, selectRestaurantsSQL+orderRestaurantsSQL)
}

func (r *RestaurantRepo) FindByID(ctx context.Context, id int64) (domain.Restaurant, error) {
	rs, err := r.list(ctx, getRestaurantSQL, id)
	if err != nil {
		return domain.Restaurant{}, err
	}
	if len(rs) == 0 {
		return domain.Restaurant{}, domain.ErrNotFound
	}
	return rs[0], nil
}

func (r *RestaurantRepo) list(ctx context.Context, q string, args ...any) ([]domain.Restaurant, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Restaurant
	for rows.Next() {
		var (
			rest        domain.Restaurant
			email, pic  sql.NullString
			desc, hours sql.NullString
			tier        sql.NullString
			phone       sql.NullInt64
		)
		if err := rows.Scan(
			&rest.ID,
			&rest.Name,
			&rest.Address,
			&email,
			&phone,
			&desc,
			&hours,
			&tier,
			&rest.Rating,
			&pic,
		); err != nil {
			return nil, err
		}
		if email.Valid {
			s := email.String
			rest.Email = &s
		}
		if phone.Valid {
			p := phone.Int64
			rest.Phone = &p
		}
		if pic.Valid {
			s := pic.String
			rest.PhotoURL = &s
		}
		rest.Description = desc.String
		rest.Hours = hours.String
		rest.PriceTier = domain.PriceTier(tier.String)
		rest.Categories = []domain.Category{}
		out = append(out, rest)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachCategories(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RestaurantRepo) attachCategories(ctx context.Context, rs []domain.Restaurant) error {
	if len(rs) == 0 {
		return nil
	}
	idx := make(map[int64]int, len(rs))
	args := make([]any, 0, len(rs))
	for i, rest := range rs {
		idx[rest.ID] = i
		args = append(args, rest.ID)
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(restaurantCategoriesSQL, placeholders(len(args))), args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rid int64
		var c domain.Category
		if err := rows.Scan(&rid, &c.ID, &c.Name); err != nil {
			return err
		}
		if i, ok := idx[rid]; ok {
			rs[i].Categories = append(rs[i].Categories, c)
		}
	}
	return rows.Err()
}

// Save inserts when ID is zero and otherwise updates every column but the
// rating. Category links are replaced in the same transaction.
func (r *RestaurantRepo) Save(ctx context.Context, rest domain.Restaurant) (domain.Restaurant, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Restaurant{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if rest.ID == 0 {
		res, err := tx.ExecContext(ctx, insertRestaurantSQL,
			rest.Name,
			rest.Address,
			valStr(rest.Email),
			valInt64(rest.Phone),
			rest.Description,
			rest.Hours,
			valTier(rest.PriceTier),
			domain.DefaultRating,
			valStr(rest.PhotoURL),
		)
		if err != nil {
			return domain.Restaurant{}, err
		}
		if rest.ID, err = res.LastInsertId(); err != nil {
			return domain.Restaurant{}, err
		}
	} else {
		if err := lockRestaurant(ctx, tx, rest.ID); err != nil {
			return domain.Restaurant{}, err
		}
		if _, err := tx.ExecContext(ctx, updateRestaurantSQL,
			rest.Name,
			rest.Address,
			valStr(rest.Email),
			valInt64(rest.Phone),
			rest.Description,
			rest.Hours,
			valTier(rest.PriceTier),
			valStr(rest.PhotoURL),
			rest.ID,
		); err != nil {
			return domain.Restaurant{}, err
		}
		if _, err := tx.ExecContext(ctx, deleteLinksSQL, rest.ID); err != nil {
			return domain.Restaurant{}, err
		}
	}

	if len(rest.Categories) > 0 {
		values := make([]string, 0, len(rest.Categories))
		args := make([]any, 0, len(rest.Categories)*2)
		for _, c := range rest.Categories {
			values = append(values, "(?,?)")
			args = append(args, rest.ID, c.ID)
		}
		if _, err := tx.ExecContext(ctx, insertLinksPrefix+strings.Join(values, ","), args...); err != nil {
			return domain.Restaurant{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Restaurant{}, err
	}
	return r.FindByID(ctx, rest.ID)
}

func lockRestaurant(ctx context.Context, tx *sql.Tx, id int64) error {
	var got int64
	err := tx.QueryRowContext(ctx, lockRestaurantSQL, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *RestaurantRepo) SaveRating(ctx context.Context, id int64, rating string) error {
	_, err := r.db.ExecContext(ctx, updateRatingSQL, rating, id)
	return err
}

// Delete removes reviews, category links and the restaurant row together.
func (r *RestaurantRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockRestaurant(ctx, tx, id); err != nil {
		return err
	}
	for _, stmt := range []string{deleteReviewsSQL, deleteLinksSQL, deleteRestaurantSQL} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// -----------------------------------------------------------------------------
// CATEGORIES
// -----------------------------------------------------------------------------

type CategoryRepo struct{ db *sql.DB }

func (c *CategoryRepo) FindByID(ctx context.Context, id int64) (domain.Category, error) {
	var cat domain.Category
	err := c.db.QueryRowContext(ctx, getCategorySQL, id).Scan(&cat.ID, &cat.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, domain.ErrNotFound
	}
	return cat, err
}

func (c *CategoryRepo) FindAll(ctx context.Context) ([]domain.Category, error) {
	rows, err := c.db.QueryContext(ctx, listCategoriesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Category
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(&cat.ID, &cat.Name); err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, rows.Err()
}

func (c *CategoryRepo) Create(ctx context.Context, name string) (domain.Category, error) {
	res, err := c.db.ExecContext(ctx, insertCategorySQL, name)
	if mysqlErrNo(err) == errDuplicateEntry {
		return domain.Category{}, domain.ErrConflict
	}
	if err != nil {
		return domain.Category{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Category{}, err
	}
	return domain.Category{ID: id, Name: name}, nil
}

// -----------------------------------------------------------------------------
// REVIEWS
// -----------------------------------------------------------------------------

type ReviewRepo struct{ db *sql.DB }

func (rv *ReviewRepo) Append(ctx context.Context, restaurantID int64, rating int, comment string) (domain.Review, error) {
	// DATETIME(6) keeps microseconds; truncate so the returned value matches a reload.
	created := time.Now().UTC().Truncate(time.Microsecond)
	res, err := rv.db.ExecContext(ctx, insertReviewSQL, restaurantID, rating, comment, created)
	if mysqlErrNo(err) == errNoReferenced {
		return domain.Review{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Review{}, err
	}
	return domain.Review{
		ID:           id,
		RestaurantID: restaurantID,
		Rating:       rating,
		Comment:      comment,
		CreatedAt:    created,
	}, nil
}

func (rv *ReviewRepo) ListByRestaurant(ctx context.Context, restaurantID int64) ([]domain.Review, error) {
	rows, err := rv.db.QueryContext(ctx, listReviewsSQL, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		var rev domain.Review
		var comment sql.NullString
		if err := rows.Scan(&rev.ID, &rev.RestaurantID, &rev.Rating, &comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		rev.Comment = comment.String
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (rv *ReviewRepo) AverageRating(ctx context.Context, restaurantID int64) (*float64, error) {
	var sum, n int64
	if err := rv.db.QueryRowContext(ctx, reviewTotalsSQL, restaurantID).Scan(&sum, &n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	avg := float64(sum) / float64(n)
	return &avg, nil
}
