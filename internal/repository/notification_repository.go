package repository

import (
	"context"
	"database/sql"

	"github.com/rizqapp/rizq-server/internal/model"
)

// NotificationRepo persists in-app tutor notifications.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the given
// database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// InsertBestEffortTx writes a notification under a savepoint on the
// caller's transaction.  A failed insert rolls back only the savepoint and
// returns the error for logging; the surrounding lesson transition commits
// regardless.
func (r *NotificationRepo) InsertBestEffortTx(ctx context.Context, tx *sql.Tx, n *model.TutorNotification) error {
	return WithSavepoint(ctx, tx, "sp_notify", func() error {
		const q = `INSERT INTO tutor_notifications (id, tutor_id, type, title, body, lesson_id)
		           VALUES (?, ?, ?, ?, ?, ?)`
		_, err := tx.ExecContext(ctx, q, n.ID, n.TutorID, n.Type, n.Title, n.Body, n.LessonID)
		return err
	})
}

// ListByTutor returns the tutor's notifications newest first.
func (r *NotificationRepo) ListByTutor(ctx context.Context, tutorID string, unreadOnly bool, limit int) ([]model.TutorNotification, error) {
	q := `SELECT id, tutor_id, type, title, body, lesson_id, is_read, created_at
	      FROM tutor_notifications
	      WHERE tutor_id = ?`
	if unreadOnly {
		q += ` AND is_read = 0`
	}
	q += ` ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, tutorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TutorNotification, 0)
	for rows.Next() {
		var n model.TutorNotification
		var body, lessonID sql.NullString
		if err := rows.Scan(&n.ID, &n.TutorID, &n.Type, &n.Title, &body, &lessonID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		if body.Valid {
			v := body.String
			n.Body = &v
		}
		if lessonID.Valid {
			v := lessonID.String
			n.LessonID = &v
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags one notification as read.  The tutor_id guard keeps
// tutors out of each other's inboxes; a miss is ErrForbidden rather than a
// silent no-op.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, tutorID string) error {
	const q = `UPDATE tutor_notifications SET is_read = 1 WHERE id = ? AND tutor_id = ?`
	res, err := r.db.ExecContext(ctx, q, notificationID, tutorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrForbidden
	}
	return nil
}
