package middleware

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterEnforcesBudget(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(ctx, "tutor-1")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, retry, err := l.Allow(ctx, "tutor-1")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if ok {
		t.Fatal("fourth request should be blocked")
	}
	if retry <= 0 || retry > time.Minute {
		t.Fatalf("retryAfter = %v, want within (0, 1m]", retry)
	}
}

func TestMemoryLimiterSlidesWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	l.Allow(ctx, "k")
	l.Allow(ctx, "k")
	if ok, _, _ := l.Allow(ctx, "k"); ok {
		t.Fatal("budget should be spent")
	}

	// Advance past the window: old hits fall out.
	now = now.Add(time.Minute + time.Second)
	if ok, _, _ := l.Allow(ctx, "k"); !ok {
		t.Fatal("request after the window should be allowed")
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	if ok, _, _ := l.Allow(ctx, "a"); !ok {
		t.Fatal("first request for a should pass")
	}
	if ok, _, _ := l.Allow(ctx, "a"); ok {
		t.Fatal("second request for a should be blocked")
	}
	if ok, _, _ := l.Allow(ctx, "b"); !ok {
		t.Fatal("b's budget must be unaffected by a")
	}
}
