package booking

import (
	"regexp"
	"testing"
	"time"

	"github.com/rizqapp/rizq-server/internal/model"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]+$`)

func TestNewRawToken(t *testing.T) {
	a, err := NewRawToken()
	if err != nil {
		t.Fatalf("NewRawToken() error = %v", err)
	}
	if len(a) != 64 || !hexRe.MatchString(a) {
		t.Fatalf("token %q is not 64 hex chars", a)
	}
	b, err := NewRawToken()
	if err != nil {
		t.Fatalf("NewRawToken() error = %v", err)
	}
	if a == b {
		t.Fatal("two tokens should not collide")
	}
}

func TestHashToken(t *testing.T) {
	h := HashToken("raw-value")
	if len(h) != 64 || !hexRe.MatchString(h) {
		t.Fatalf("hash %q is not 64 hex chars", h)
	}
	if h != HashToken("raw-value") {
		t.Fatal("hash must be deterministic")
	}
	if h == HashToken("raw-value2") {
		t.Fatal("different inputs must hash differently")
	}
	if h == "raw-value" {
		t.Fatal("hash must not equal the raw token")
	}
}

func TestIssueTokenExpiry(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	confirmed := now.Add(48 * time.Hour)

	cancel, err := issueToken("les-1", model.PurposeCancel, confirmed, now)
	if err != nil {
		t.Fatalf("issueToken(cancel) error = %v", err)
	}
	if !cancel.Token.ExpiresAt.Equal(confirmed) {
		t.Fatalf("cancel token expires at %v, want confirmed start %v", cancel.Token.ExpiresAt, confirmed)
	}
	if cancel.Token.TokenHash != HashToken(cancel.Raw) {
		t.Fatal("stored hash must match the raw token")
	}

	resched, err := issueToken("les-1", model.PurposeReschedule, confirmed, now)
	if err != nil {
		t.Fatalf("issueToken(reschedule) error = %v", err)
	}
	if !resched.Token.ExpiresAt.Equal(confirmed) {
		t.Fatalf("reschedule token expires at %v, want %v", resched.Token.ExpiresAt, confirmed)
	}

	rate, err := issueToken("les-1", model.PurposeRate, time.Time{}, now)
	if err != nil {
		t.Fatalf("issueToken(rate) error = %v", err)
	}
	if want := now.Add(rateTokenValidity); !rate.Token.ExpiresAt.Equal(want) {
		t.Fatalf("rate token expires at %v, want %v", rate.Token.ExpiresAt, want)
	}
}
