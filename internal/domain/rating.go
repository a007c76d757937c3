package domain

import "time"

const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// Rating is a score one user gave another.
type Rating struct {
	ID        string
	RaterID   string
	RatedID   string
	Score     int
	Comment   string
	CreatedAt time.Time
}
