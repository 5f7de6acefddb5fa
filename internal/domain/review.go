package domain

import "time"

const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

type Review struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurantId"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ReviewAdded is published after a review is stored and the rating recomputed.
type ReviewAdded struct {
	Type         string    `json:"type"`
	ReviewID     int64     `json:"review_id"`
	RestaurantID int64     `json:"restaurant_id"`
	Rating       int       `json:"rating"`
	NewAverage   string    `json:"new_average"`
	Timestamp    time.Time `json:"timestamp"`
}
