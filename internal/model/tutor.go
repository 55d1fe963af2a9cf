package model

import "time"

// Tutor is the authenticated service-providing actor.  Tutors own lessons,
// availability, pricing and the cancellation policy.
type Tutor struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TutorProfile carries the free-form presentation fields.  Formats and
// levels are stored comma-separated and split at the boundary.
type TutorProfile struct {
	TutorID         string   `json:"tutor_id"`
	Bio             *string  `json:"bio,omitempty"`
	LessonFormats   []string `json:"lesson_formats"`
	LevelsSupported []string `json:"levels_supported"`
}

// LessonCategory enumerates lesson_types.category.
type LessonCategory string

const (
	CategoryAcademic LessonCategory = "academic"
	CategoryLanguage LessonCategory = "language"
	CategoryMusic    LessonCategory = "music"
	CategoryFineArts LessonCategory = "fine_arts"
)

// LessonType is one subject a tutor teaches.
type LessonType struct {
	ID             string         `json:"id"`
	TutorID        string         `json:"tutor_id"`
	Category       LessonCategory `json:"category"`
	Label          string         `json:"label"`
	IsGroupAllowed bool           `json:"is_group_allowed"`
	Active         bool           `json:"active"`
}

// LessonPricing is a verified (lesson type, duration) → price entry.  The
// booking flow never accepts a client-supplied price; it looks the amount up
// here.
type LessonPricing struct {
	ID              string  `json:"id"`
	LessonTypeID    string  `json:"lesson_type_id"`
	DurationMinutes int     `json:"duration_minutes"`
	PriceAmount     float64 `json:"price_amount"`
	Currency        string  `json:"currency"`
	Active          bool    `json:"active"`
}

// CancellationPolicy is the tutor-configured lateness rule consumed by the
// parent-cancel transition.
type CancellationPolicy struct {
	TutorID           string `json:"tutor_id"`
	CutoffHours       int    `json:"cutoff_hours"`
	LateCancelPayable bool   `json:"late_cancel_payable"`
}

// ServiceArea is a district a tutor serves, used by discovery.
type ServiceArea struct {
	ID            string   `json:"id"`
	TutorID       string   `json:"tutor_id"`
	DistrictID    string   `json:"district_id"`
	DistrictLabel string   `json:"district_label"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
}
