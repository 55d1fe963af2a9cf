package model

import (
	"testing"
	"time"
)

func TestTransitionFor(t *testing.T) {
	cases := []struct {
		event LessonEvent
		from  LessonStatus
		to    LessonStatus
		actor Actor
	}{
		{EventAccept, StatusRequested, StatusConfirmed, ActorTutor},
		{EventReject, StatusRequested, StatusCanceled, ActorTutor},
		{EventParentCancel, StatusConfirmed, StatusCanceled, ActorParent},
		{EventParentReschedule, StatusConfirmed, StatusRescheduleRequested, ActorParent},
		{EventApproveReschedule, StatusRescheduleRequested, StatusConfirmed, ActorTutor},
		{EventDeclineReschedule, StatusRescheduleRequested, StatusConfirmed, ActorTutor},
		{EventComplete, StatusConfirmed, StatusCompleted, ActorTutor},
	}
	for _, tc := range cases {
		from, to, actor, ok := TransitionFor(tc.event)
		if !ok {
			t.Fatalf("TransitionFor(%s) not found", tc.event)
		}
		if from != tc.from || to != tc.to || actor != tc.actor {
			t.Fatalf("TransitionFor(%s) = (%s, %s, %s), want (%s, %s, %s)",
				tc.event, from, to, actor, tc.from, tc.to, tc.actor)
		}
	}

	if _, _, _, ok := TransitionFor("vanish"); ok {
		t.Fatal("unknown event should not resolve")
	}
}

func TestCanApply(t *testing.T) {
	cases := []struct {
		event   LessonEvent
		current LessonStatus
		want    bool
	}{
		{EventAccept, StatusRequested, true},
		{EventAccept, StatusConfirmed, false},
		{EventAccept, StatusCanceled, false},
		{EventParentCancel, StatusConfirmed, true},
		{EventParentCancel, StatusRequested, false},
		{EventParentCancel, StatusCompleted, false},
		{EventComplete, StatusConfirmed, true},
		{EventComplete, StatusRescheduleRequested, false},
		{EventApproveReschedule, StatusRescheduleRequested, true},
		{EventApproveReschedule, StatusConfirmed, false},
	}
	for _, tc := range cases {
		if got := CanApply(tc.event, tc.current); got != tc.want {
			t.Fatalf("CanApply(%s, %s) = %v, want %v", tc.event, tc.current, got, tc.want)
		}
	}
}

func TestIsLateCancellation(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name        string
		start       time.Time
		cutoffHours int
		want        bool
	}{
		{"10h before with 24h cutoff", now.Add(10 * time.Hour), 24, true},
		{"30h before with 24h cutoff", now.Add(30 * time.Hour), 24, false},
		{"exactly at cutoff is not late", now.Add(24 * time.Hour), 24, false},
		{"one second inside cutoff", now.Add(24*time.Hour - time.Second), 24, true},
		{"start already passed", now.Add(-time.Hour), 24, true},
		{"zero cutoff, future start", now.Add(time.Minute), 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsLateCancellation(now, tc.start, tc.cutoffHours); got != tc.want {
				t.Fatalf("IsLateCancellation = %v, want %v", got, tc.want)
			}
		})
	}
}
