package model

import "time"

// TokenPurpose scopes a link token to the single transition it may
// authorize.
type TokenPurpose string

const (
	PurposeCancel     TokenPurpose = "cancel"
	PurposeReschedule TokenPurpose = "reschedule"
	PurposeRate       TokenPurpose = "rate"
)

// purposeStatus maps each purpose to the lesson status it is redeemable in.
var purposeStatus = map[TokenPurpose]LessonStatus{
	PurposeCancel:     StatusConfirmed,
	PurposeReschedule: StatusConfirmed,
	PurposeRate:       StatusCompleted,
}

// StatusForPurpose returns the lesson status a token of the given purpose
// requires at redemption time.
func StatusForPurpose(p TokenPurpose) (LessonStatus, bool) {
	s, ok := purposeStatus[p]
	return s, ok
}

// LinkToken mirrors the link_tokens table.  Only the SHA-256 hash of the raw
// token is ever persisted; the raw value is handed out once for delivery.
type LinkToken struct {
	ID        string       `json:"id"`
	LessonID  string       `json:"lesson_id"`
	TokenHash string       `json:"-"`
	Purpose   TokenPurpose `json:"purpose"`
	ExpiresAt time.Time    `json:"expires_at"`
	UsedAt    *time.Time   `json:"used_at,omitempty"`
}

// Redeemable reports whether the token authorizes the given purpose on the
// given lesson right now.  Every failure mode (already used, expired, wrong
// purpose, wrong lesson, incompatible lesson status) yields the same false
// result so callers cannot distinguish why a token was rejected.
func (t LinkToken) Redeemable(now time.Time, purpose TokenPurpose, lessonID string, lessonStatus LessonStatus) bool {
	if t.UsedAt != nil {
		return false
	}
	if !t.ExpiresAt.After(now) {
		return false
	}
	if t.Purpose != purpose || t.LessonID != lessonID {
		return false
	}
	required, ok := purposeStatus[purpose]
	return ok && lessonStatus == required
}
