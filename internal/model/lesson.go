package model

import "time"

// LessonStatus enumerates the lifecycle states of a lesson.  The value set
// matches the lessons.status column.
type LessonStatus string

const (
	StatusRequested           LessonStatus = "requested"
	StatusConfirmed           LessonStatus = "confirmed"
	StatusCompleted           LessonStatus = "completed"
	StatusCanceled            LessonStatus = "canceled"
	StatusRescheduleRequested LessonStatus = "reschedule_requested"
)

// Actor identifies who triggered a lifecycle event.  Parents are not
// authenticated accounts; they act through single-use link tokens.
type Actor string

const (
	ActorTutor  Actor = "tutor"
	ActorParent Actor = "parent"
)

// LessonEvent names a lifecycle transition.  Every mutation of a lesson's
// status goes through the transition table below so the legal moves are
// declared in exactly one place instead of being scattered across handlers.
type LessonEvent string

const (
	EventAccept            LessonEvent = "accept"
	EventReject            LessonEvent = "reject"
	EventParentCancel      LessonEvent = "parent_cancel"
	EventParentReschedule  LessonEvent = "parent_reschedule"
	EventApproveReschedule LessonEvent = "approve_reschedule"
	EventDeclineReschedule LessonEvent = "decline_reschedule"
	EventComplete          LessonEvent = "complete"
)

// transition describes one row of the lifecycle table: the status a lesson
// must be in for the event to apply, the status it moves to, and the actor
// allowed to trigger it.
type transition struct {
	From  LessonStatus
	To    LessonStatus
	Actor Actor
}

var transitions = map[LessonEvent]transition{
	EventAccept:            {From: StatusRequested, To: StatusConfirmed, Actor: ActorTutor},
	EventReject:            {From: StatusRequested, To: StatusCanceled, Actor: ActorTutor},
	EventParentCancel:      {From: StatusConfirmed, To: StatusCanceled, Actor: ActorParent},
	EventParentReschedule:  {From: StatusConfirmed, To: StatusRescheduleRequested, Actor: ActorParent},
	EventApproveReschedule: {From: StatusRescheduleRequested, To: StatusConfirmed, Actor: ActorTutor},
	EventDeclineReschedule: {From: StatusRescheduleRequested, To: StatusConfirmed, Actor: ActorTutor},
	EventComplete:          {From: StatusConfirmed, To: StatusCompleted, Actor: ActorTutor},
}

// TransitionFor returns the required source status, the target status and
// the actor for an event.  ok is false for unknown events.
func TransitionFor(ev LessonEvent) (from, to LessonStatus, actor Actor, ok bool) {
	t, ok := transitions[ev]
	if !ok {
		return "", "", "", false
	}
	return t.From, t.To, t.Actor, true
}

// CanApply reports whether an event is legal from the given status.
func CanApply(ev LessonEvent, current LessonStatus) bool {
	t, ok := transitions[ev]
	return ok && t.From == current
}

// IsLateCancellation applies the cancellation policy: a cancellation is late
// when strictly fewer than cutoffHours remain before the confirmed start.
// Exactly at the cutoff is not late.
func IsLateCancellation(now, confirmedStart time.Time, cutoffHours int) bool {
	hoursUntil := confirmedStart.Sub(now).Hours()
	return hoursUntil < float64(cutoffHours)
}

// Lesson mirrors the lessons table.  Timestamps are UTC.
type Lesson struct {
	ID               string       `json:"id"`
	TutorID          string       `json:"tutor_id"`
	LessonTypeID     string       `json:"lesson_type_id"`
	StudentName      string       `json:"student_name"`
	Level            *string      `json:"level,omitempty"`
	Note             *string      `json:"note,omitempty"`
	DurationMinutes  int          `json:"duration_minutes"`
	PriceAmount      float64      `json:"price_amount"`
	Status           LessonStatus `json:"status"`
	RequestedStartAt time.Time    `json:"requested_start_at"`
	ConfirmedStartAt *time.Time   `json:"confirmed_start_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// PaymentStatus enumerates lesson_payments.payment_status.  No flow in this
// service transitions a payment; the row exists so a gateway can later.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// LessonCancellation is the append-only audit record written when a lesson
// is canceled by either side.
type LessonCancellation struct {
	ID         string    `json:"id"`
	LessonID   string    `json:"lesson_id"`
	CanceledBy Actor     `json:"canceled_by"`
	IsLate     bool      `json:"is_late"`
	Note       *string   `json:"note,omitempty"`
	CanceledAt time.Time `json:"canceled_at"`
}
