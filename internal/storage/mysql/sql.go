package mysql

const restaurantColumns = `
  r.restaurant_id,
  r.name,
  r.address,
  r.email,
  r.phone,
  r.description,
  r.open_hours,
  r.price_range,
  r.rating,
  r.photo_url`

const selectRestaurantsSQL = `SELECT` + restaurantColumns + `
FROM restaurants r`

const getRestaurantSQL = selectRestaurantsSQL + `
WHERE r.restaurant_id = ?`

const orderRestaurantsSQL = `
ORDER BY r.restaurant_id`

// -----------------------------------------------------------------------------
// SEARCH PREDICATES (appended to selectRestaurantsSQL + " WHERE 1=1")
// -----------------------------------------------------------------------------

// Name is matched as a literal, case-insensitive substring; the argument is
// LIKE-escaped by the caller.
const nameFilterSQL = `
  AND LOWER(r.name) LIKE CONCAT('%', LOWER(?), '%')`

// Category-set predicate: the distinct requested categories the restaurant
// holds must equal the distinct requested categories that exist at all.
// %[1]s is the placeholder list; the names are bound twice.
const categorySetFilterSQL = `
  AND (
    SELECT COUNT(DISTINCT rc.category_id)
    FROM restaurant_categories rc
    JOIN categories c2 ON c2.id = rc.category_id
    WHERE rc.restaurant_id = r.restaurant_id
      AND LOWER(c2.name) IN (%[1]s)
  ) = (
    SELECT COUNT(DISTINCT c3.id)
    FROM categories c3
    WHERE LOWER(c3.name) IN (%[1]s)
  )`

const priceFilterSQL = `
  AND r.price_range = ?`

const ratingFilterSQL = `
  AND CAST(r.rating AS DOUBLE) >= ?`

// Categories for a set of restaurants; %s is the id placeholder list.
const restaurantCategoriesSQL = `
SELECT rc.restaurant_id, c.id, c.name
FROM restaurant_categories rc
JOIN categories c ON c.id = rc.category_id
WHERE rc.restaurant_id IN (%s)
ORDER BY rc.restaurant_id, c.id`

// -----------------------------------------------------------------------------
// RESTAURANT WRITES
// -----------------------------------------------------------------------------

const insertRestaurantSQL = `
INSERT INTO restaurants
  (name, address, email, phone, description, open_hours, price_range, rating, photo_url)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// The rating is owned by the aggregator and never written here.
const updateRestaurantSQL = `
UPDATE restaurants SET
  name        = ?,
  address     = ?,
  email       = ?,
  phone       = ?,
  description = ?,
  open_hours  = ?,
  price_range = ?,
  photo_url   = ?
WHERE restaurant_id = ?
`

const lockRestaurantSQL = `SELECT restaurant_id FROM restaurants WHERE restaurant_id = ? FOR UPDATE`

const updateRatingSQL = `UPDATE restaurants SET rating = ? WHERE restaurant_id = ?`

const deleteLinksSQL = `DELETE FROM restaurant_categories WHERE restaurant_id = ?`

// IGNORE turns links to vanished categories into warnings instead of FK errors.
const insertLinksPrefix = "INSERT IGNORE INTO restaurant_categories (restaurant_id, category_id) VALUES "

const deleteReviewsSQL = `DELETE FROM reviews WHERE restaurant_id = ?`

const deleteRestaurantSQL = `DELETE FROM restaurants WHERE restaurant_id = ?`

// -----------------------------------------------------------------------------
// CATEGORIES
// -----------------------------------------------------------------------------

const getCategorySQL = `SELECT id, name FROM categories WHERE id = ?`

const listCategoriesSQL = `SELECT id, name FROM categories ORDER BY id`

const insertCategorySQL = `INSERT INTO categories (name) VALUES (?)`

// -----------------------------------------------------------------------------
// REVIEWS
// -----------------------------------------------------------------------------

const insertReviewSQL = `
INSERT INTO reviews (restaurant_id, rating, comment, created_at)
VALUES (?, ?, ?, ?)
`

const listReviewsSQL = `
SELECT id, restaurant_id, rating, comment, created_at
FROM reviews
WHERE restaurant_id = ?
ORDER BY created_at, id
`

// Sum and count rather than AVG(): AVG over integers is rounded to a
// DECIMAL with four digits.
const reviewTotalsSQL = `
SELECT COALESCE(SUM(rating), 0), COUNT(*)
FROM reviews
WHERE restaurant_id = ?
`
