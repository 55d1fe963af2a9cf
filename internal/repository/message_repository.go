package repository

import (
	"context"
	"database/sql"

	"github.com/rizqapp/rizq-server/internal/model"
)

// MessageRepo persists the non-realtime note thread attached to a lesson.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo returns a new MessageRepo bound to the given database.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// Insert appends a message to a lesson's thread.
func (r *MessageRepo) Insert(ctx context.Context, m *model.LessonMessage) error {
	const q = `INSERT INTO lesson_messages (id, lesson_id, sender, body) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, m.ID, m.LessonID, string(m.Sender), m.Body)
	return err
}

// ListByLesson returns the thread oldest first.
func (r *MessageRepo) ListByLesson(ctx context.Context, lessonID string) ([]model.LessonMessage, error) {
	const q = `SELECT id, lesson_id, sender, body, created_at
	           FROM lesson_messages
	           WHERE lesson_id = ?
	           ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.LessonMessage, 0)
	for rows.Next() {
		var m model.LessonMessage
		if err := rows.Scan(&m.ID, &m.LessonID, &m.Sender, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LessonOwner returns the tutor owning a lesson so handlers can authorize
// thread access.
func (r *MessageRepo) LessonOwner(ctx context.Context, lessonID string) (string, error) {
	const q = `SELECT tutor_id FROM lessons WHERE id = ?`
	var tutorID string
	err := r.db.QueryRowContext(ctx, q, lessonID).Scan(&tutorID)
	return tutorID, err
}
