package utils

import (
	"regexp"
	"testing"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"

	access, err := NewAccessToken(secret, "tutor-123", RoleTutor, "en", 15)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if access.Token == "" {
		t.Fatal("empty token")
	}

	userID, role, locale, err := ParseAccessToken(secret, access.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if userID != "tutor-123" || role != RoleTutor || locale != "en" {
		t.Fatalf("claims = (%s, %s, %s), want (tutor-123, %s, en)", userID, role, locale, RoleTutor)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	access, err := NewAccessToken("secret-a", "+15550001111", RoleParent, "en", 15)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if _, _, _, err := ParseAccessToken("secret-b", access.Token); err == nil {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	if _, _, _, err := ParseAccessToken("secret", "not.a.jwt"); err == nil {
		t.Fatal("garbage must not verify")
	}
}

func TestNewRefreshToken(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]{96}$`)

	a, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken() error = %v", err)
	}
	if !hexRe.MatchString(a.Raw) {
		t.Fatalf("raw token %q is not 96 hex chars", a.Raw)
	}

	b, _ := NewRefreshToken(30)
	if a.Raw == b.Raw {
		t.Fatal("two refresh tokens should not collide")
	}
	if HashRefreshRaw(a.Raw) == a.Raw {
		t.Fatal("hash must differ from raw value")
	}
	if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) {
		t.Fatal("hash must be deterministic")
	}
}
