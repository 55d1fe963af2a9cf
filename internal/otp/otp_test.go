package otp

import (
	"regexp"
	"testing"
)

func TestNewCodeFormat(t *testing.T) {
	re := regexp.MustCompile(`^[0-9]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewCode()
		if err != nil {
			t.Fatalf("NewCode() error = %v", err)
		}
		if !re.MatchString(code) {
			t.Fatalf("code %q is not six digits", code)
		}
		seen[code] = true
	}
	// 50 draws from a million values colliding down to one would mean the
	// generator is broken.
	if len(seen) < 2 {
		t.Fatal("codes show no variation")
	}
}

func TestNewStoreRequiresRedis(t *testing.T) {
	if _, err := NewStore(nil, 0, 10); err == nil {
		t.Fatal("nil redis client must be rejected")
	}
}
