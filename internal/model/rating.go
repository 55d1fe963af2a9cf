package model

import "time"

// Rating is a parent's 1–5 star review of a completed lesson.  One rating
// per lesson, enforced by a unique key and by the rate token being
// single-use.
type Rating struct {
	ID        string    `json:"id"`
	LessonID  string    `json:"lesson_id"`
	TutorID   string    `json:"tutor_id"`
	Stars     int       `json:"stars"`
	Comment   *string   `json:"comment,omitempty"`
	IsHidden  bool      `json:"is_hidden"`
	CreatedAt time.Time `json:"created_at"`
}

// RatingSummary is the derived per-tutor aggregate.
type RatingSummary struct {
	TutorID     string  `json:"tutor_id"`
	AvgStars    float64 `json:"avg_stars"`
	RatingCount int     `json:"rating_count"`
}

// SummaryFromStars recomputes the aggregate from the full set of star values
// for a tutor.  Recomputing from scratch on every insert avoids incremental
// drift; the O(n) scan is acceptable at current rating volumes.
func SummaryFromStars(stars []int) (avg float64, count int) {
	if len(stars) == 0 {
		return 0, 0
	}
	sum := 0
	for _, s := range stars {
		sum += s
	}
	return float64(sum) / float64(len(stars)), len(stars)
}
