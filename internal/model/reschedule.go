package model

import "time"

// RescheduleStatus enumerates reschedule_requests.status.
type RescheduleStatus string

const (
	ReschedulePending  RescheduleStatus = "pending"
	RescheduleApproved RescheduleStatus = "approved"
	RescheduleDeclined RescheduleStatus = "declined"
)

// RescheduleRequest records a parent-proposed new start time awaiting the
// tutor's decision.  The lesson's own status gate (a new request requires a
// confirmed lesson) keeps at most one pending request per lesson.
type RescheduleRequest struct {
	ID              string           `json:"id"`
	LessonID        string           `json:"lesson_id"`
	RequestedBy     Actor            `json:"requested_by"`
	Status          RescheduleStatus `json:"status"`
	ProposedStartAt *time.Time       `json:"proposed_start_at,omitempty"`
	Reason          *string          `json:"reason,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
