package model

import (
	"testing"
	"time"
)

func TestLinkTokenRedeemable(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	used := now.Add(-time.Minute)

	base := LinkToken{
		ID:        "tok-1",
		LessonID:  "les-1",
		Purpose:   PurposeCancel,
		ExpiresAt: now.Add(time.Hour),
	}

	cases := []struct {
		name    string
		mutate  func(tok *LinkToken)
		purpose TokenPurpose
		lesson  string
		status  LessonStatus
		want    bool
	}{
		{"valid cancel token", nil, PurposeCancel, "les-1", StatusConfirmed, true},
		{"already used", func(tok *LinkToken) { tok.UsedAt = &used }, PurposeCancel, "les-1", StatusConfirmed, false},
		{"expired", func(tok *LinkToken) { tok.ExpiresAt = now.Add(-time.Second) }, PurposeCancel, "les-1", StatusConfirmed, false},
		{"expiry boundary is not redeemable", func(tok *LinkToken) { tok.ExpiresAt = now }, PurposeCancel, "les-1", StatusConfirmed, false},
		{"wrong purpose", nil, PurposeRate, "les-1", StatusConfirmed, false},
		{"wrong lesson", nil, PurposeCancel, "les-2", StatusConfirmed, false},
		{"lesson no longer confirmed", nil, PurposeCancel, "les-1", StatusCanceled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok := base
			if tc.mutate != nil {
				tc.mutate(&tok)
			}
			if got := tok.Redeemable(now, tc.purpose, tc.lesson, tc.status); got != tc.want {
				t.Fatalf("Redeemable = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRedeemableRateRequiresCompleted(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tok := LinkToken{
		ID:        "tok-2",
		LessonID:  "les-1",
		Purpose:   PurposeRate,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}
	if !tok.Redeemable(now, PurposeRate, "les-1", StatusCompleted) {
		t.Fatal("rate token should redeem against a completed lesson")
	}
	if tok.Redeemable(now, PurposeRate, "les-1", StatusConfirmed) {
		t.Fatal("rate token must not redeem before completion")
	}
}

func TestStatusForPurpose(t *testing.T) {
	cases := []struct {
		purpose TokenPurpose
		status  LessonStatus
	}{
		{PurposeCancel, StatusConfirmed},
		{PurposeReschedule, StatusConfirmed},
		{PurposeRate, StatusCompleted},
	}
	for _, tc := range cases {
		got, ok := StatusForPurpose(tc.purpose)
		if !ok || got != tc.status {
			t.Fatalf("StatusForPurpose(%s) = (%s, %v), want (%s, true)", tc.purpose, got, ok, tc.status)
		}
	}
	if _, ok := StatusForPurpose("promote"); ok {
		t.Fatal("unknown purpose should not resolve")
	}
}
