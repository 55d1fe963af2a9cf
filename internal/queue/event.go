// Package queue defines the message payloads exchanged over the broker and
// the background consumer that drains them.
package queue

// LessonEventsQueue is the durable queue carrying lifecycle events.
const LessonEventsQueue = "lesson.events"

// LessonEvent is published after a lifecycle transition commits.  It is
// intentionally thin: consumers that need more re-read the database, which
// keeps the event immune to schema drift.
type LessonEvent struct {
	Type       string `json:"type"`
	LessonID   string `json:"lesson_id"`
	OccurredAt string `json:"occurred_at"`
}
