package booking

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/rizqapp/rizq-server/internal/model"
)

// rateTokenValidity is how long a rate token stays redeemable after the
// lesson is completed.
const rateTokenValidity = 7 * 24 * time.Hour

// NewRawToken returns 32 random bytes hex-encoded (64 chars).  The raw
// value is delivered to the parent exactly once and never stored.
func NewRawToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashToken is the persistence form of a token: SHA-256, hex encoded.  A
// leaked database never yields a redeemable link.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// IssuedToken pairs the raw token, which goes out in the response, with the
// row that was stored.
type IssuedToken struct {
	Raw   string
	Token model.LinkToken
}

// issueToken builds a token row for a lesson.  Cancel and reschedule tokens
// expire at the confirmed start (they are useless afterwards); rate tokens
// get a fixed window from completion.
func issueToken(lessonID string, purpose model.TokenPurpose, confirmedStart, now time.Time) (IssuedToken, error) {
	raw, err := NewRawToken()
	if err != nil {
		return IssuedToken{}, err
	}
	var expires time.Time
	if purpose == model.PurposeRate {
		expires = now.Add(rateTokenValidity)
	} else {
		expires = confirmedStart
	}
	return IssuedToken{
		Raw: raw,
		Token: model.LinkToken{
			ID:        uuid.NewString(),
			LessonID:  lessonID,
			TokenHash: HashToken(raw),
			Purpose:   purpose,
			ExpiresAt: expires.UTC(),
		},
	}, nil
}
