package model

import "time"

// Notification types written by the lifecycle engine.
const (
	NotifyNewRequest     = "new_request"
	NotifyLessonCanceled = "lesson_canceled"
	NotifyReschedule     = "reschedule_requested"
	NotifyNewRating      = "new_rating"
)

// TutorNotification is an in-app notification row for a tutor.  Inserts are
// best-effort: a failure here never rolls back the booking transition that
// produced it.
type TutorNotification struct {
	ID        string    `json:"id"`
	TutorID   string    `json:"tutor_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      *string   `json:"body,omitempty"`
	LessonID  *string   `json:"lesson_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// LessonMessage is one entry of the non-realtime note thread attached to a
// lesson.
type LessonMessage struct {
	ID        string    `json:"id"`
	LessonID  string    `json:"lesson_id"`
	Sender    Actor     `json:"sender"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
