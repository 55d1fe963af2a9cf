package repository

import (
	"context"
	"database/sql"

	"github.com/rizqapp/rizq-server/internal/model"
)

// RescheduleRepo persists parent-proposed reschedule requests.
type RescheduleRepo struct {
	db *sql.DB
}

// NewRescheduleRepo returns a new RescheduleRepo bound to the given database.
func NewRescheduleRepo(db *sql.DB) *RescheduleRepo { return &RescheduleRepo{db: db} }

// InsertTx records a new pending reschedule request.
func (r *RescheduleRepo) InsertTx(ctx context.Context, tx *sql.Tx, req *model.RescheduleRequest) error {
	const q = `INSERT INTO reschedule_requests (id, lesson_id, requested_by, status, proposed_start_at, reason)
	           VALUES (?, ?, ?, 'pending', ?, ?)`
	var proposed any
	if req.ProposedStartAt != nil {
		proposed = req.ProposedStartAt.UTC()
	}
	_, err := tx.ExecContext(ctx, q, req.ID, req.LessonID, string(req.RequestedBy), proposed, req.Reason)
	return err
}

// ResolvePendingTx flips the lesson's pending request to approved or
// declined and returns the proposed start time.  ErrConflict when no pending
// request exists, which covers both a stale decision and a double decision.
func (r *RescheduleRepo) ResolvePendingTx(ctx context.Context, tx *sql.Tx, lessonID string, status model.RescheduleStatus) (proposedStart sql.NullTime, err error) {
	const sel = `SELECT id, proposed_start_at FROM reschedule_requests
	             WHERE lesson_id = ? AND status = 'pending'
	             ORDER BY created_at DESC LIMIT 1 FOR UPDATE`
	var id string
	if err = tx.QueryRowContext(ctx, sel, lessonID).Scan(&id, &proposedStart); err != nil {
		if err == sql.ErrNoRows {
			return proposedStart, ErrConflict
		}
		return proposedStart, err
	}
	const upd = `UPDATE reschedule_requests SET status = ? WHERE id = ? AND status = 'pending'`
	res, err := tx.ExecContext(ctx, upd, string(status), id)
	if err != nil {
		return proposedStart, err
	}
	return proposedStart, requireRow(res)
}

// PendingByTutor lists every pending reschedule request across the tutor's
// lessons, oldest first, for the inbox.
func (r *RescheduleRepo) PendingByTutor(ctx context.Context, tutorID string) ([]model.RescheduleRequest, error) {
	const q = `SELECT rr.id, rr.lesson_id, rr.requested_by, rr.status, rr.proposed_start_at, rr.reason, rr.created_at, rr.updated_at
	           FROM reschedule_requests rr
	           JOIN lessons l ON l.id = rr.lesson_id
	           WHERE l.tutor_id = ? AND rr.status = 'pending'
	           ORDER BY rr.created_at`
	rows, err := r.db.QueryContext(ctx, q, tutorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.RescheduleRequest, 0)
	for rows.Next() {
		var req model.RescheduleRequest
		var proposed sql.NullTime
		var reason sql.NullString
		if err := rows.Scan(&req.ID, &req.LessonID, &req.RequestedBy, &req.Status, &proposed, &reason,
			&req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		if proposed.Valid {
			t := proposed.Time.UTC()
			req.ProposedStartAt = &t
		}
		if reason.Valid {
			v := reason.String
			req.Reason = &v
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// PendingForLesson returns the lesson's pending request, if any, for the
// tutor inbox detail view.
func (r *RescheduleRepo) PendingForLesson(ctx context.Context, lessonID string) (*model.RescheduleRequest, error) {
	const q = `SELECT id, lesson_id, requested_by, status, proposed_start_at, reason, created_at, updated_at
	           FROM reschedule_requests
	           WHERE lesson_id = ? AND status = 'pending'
	           ORDER BY created_at DESC LIMIT 1`
	var req model.RescheduleRequest
	var proposed sql.NullTime
	var reason sql.NullString
	err := r.db.QueryRowContext(ctx, q, lessonID).Scan(
		&req.ID, &req.LessonID, &req.RequestedBy, &req.Status, &proposed, &reason,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if proposed.Valid {
		t := proposed.Time.UTC()
		req.ProposedStartAt = &t
	}
	if reason.Valid {
		v := reason.String
		req.Reason = &v
	}
	return &req, nil
}
