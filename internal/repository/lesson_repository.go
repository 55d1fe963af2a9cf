package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rizqapp/rizq-server/internal/model"
)

// LessonRepo provides CRUD operations for lessons and their dependent
// payment and cancellation rows.  Status transitions are expressed as
// conditional UPDATEs: the WHERE clause re-checks the source status inside
// the transaction, so whichever concurrent request touches the row first
// wins and the loser observes zero affected rows.  All timestamp fields are
// stored in UTC.
type LessonRepo struct {
	db *sql.DB
}

// NewLessonRepo returns a new LessonRepo bound to the given database.
func NewLessonRepo(db *sql.DB) *LessonRepo { return &LessonRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span several repositories.
func (r *LessonRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new lesson in status 'requested' together with its
// unpaid payment row.  The caller supplies the id and the verified price;
// the price is immutable after this insert.
func (r *LessonRepo) CreateTx(ctx context.Context, tx *sql.Tx, l *model.Lesson) error {
	const q = `INSERT INTO lessons
	           (id, tutor_id, lesson_type_id, student_name, level, note, duration_minutes, price_amount, status, requested_start_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'requested', ?)`
	if _, err := tx.ExecContext(ctx, q,
		l.ID, l.TutorID, l.LessonTypeID, l.StudentName, l.Level, l.Note,
		l.DurationMinutes, l.PriceAmount, l.RequestedStartAt.UTC(),
	); err != nil {
		return err
	}
	const pq = `INSERT INTO lesson_payments (lesson_id, payment_status) VALUES (?, 'unpaid')`
	_, err := tx.ExecContext(ctx, pq, l.ID)
	return err
}

// AcceptTx confirms a requested lesson owned by the tutor.  The confirmed
// start is copied from the requested start in the same statement.  Returns
// ErrConflict when the lesson is missing, not owned by the tutor, or no
// longer in 'requested'; the guard makes a concurrent double-accept
// impossible.  On success the confirmed start time is returned so the
// caller can derive token expiries from it.
func (r *LessonRepo) AcceptTx(ctx context.Context, tx *sql.Tx, lessonID, tutorID string) (time.Time, error) {
	const q = `UPDATE lessons
	           SET status = 'confirmed', confirmed_start_at = requested_start_at
	           WHERE id = ? AND tutor_id = ? AND status = 'requested'`
	res, err := tx.ExecContext(ctx, q, lessonID, tutorID)
	if err != nil {
		return time.Time{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, err
	}
	if n == 0 {
		return time.Time{}, ErrConflict
	}
	var confirmed time.Time
	const sel = `SELECT confirmed_start_at FROM lessons WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, lessonID).Scan(&confirmed); err != nil {
		return time.Time{}, err
	}
	return confirmed.UTC(), nil
}

// ConfirmedStartTx reads the confirmed start time inside a transaction.
// ErrConflict when the lesson has none.
func (r *LessonRepo) ConfirmedStartTx(ctx context.Context, tx *sql.Tx, lessonID string) (time.Time, error) {
	const q = `SELECT confirmed_start_at FROM lessons WHERE id = ?`
	var confirmed sql.NullTime
	if err := tx.QueryRowContext(ctx, q, lessonID).Scan(&confirmed); err != nil {
		return time.Time{}, err
	}
	if !confirmed.Valid {
		return time.Time{}, ErrConflict
	}
	return confirmed.Time.UTC(), nil
}

// TransitionByTutorTx moves a lesson between statuses on behalf of its
// owning tutor.  ErrConflict is returned when the conditional update
// affects no rows.
func (r *LessonRepo) TransitionByTutorTx(ctx context.Context, tx *sql.Tx, lessonID, tutorID string, from, to model.LessonStatus) error {
	const q = `UPDATE lessons SET status = ? WHERE id = ? AND tutor_id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, string(to), lessonID, tutorID, string(from))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// TransitionTx moves a lesson between statuses without an ownership check.
// It backs the parent-facing transitions, where authorization comes from a
// redeemed link token rather than an identity.
func (r *LessonRepo) TransitionTx(ctx context.Context, tx *sql.Tx, lessonID string, from, to model.LessonStatus) error {
	const q = `UPDATE lessons SET status = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, string(to), lessonID, string(from))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetConfirmedStartTx updates the confirmed start time, used when a
// reschedule proposal is approved.
func (r *LessonRepo) SetConfirmedStartTx(ctx context.Context, tx *sql.Tx, lessonID string, startAt time.Time) error {
	const q = `UPDATE lessons SET confirmed_start_at = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, startAt.UTC(), lessonID)
	return err
}

// InsertCancellationTx writes the append-only cancellation audit record.
func (r *LessonRepo) InsertCancellationTx(ctx context.Context, tx *sql.Tx, c *model.LessonCancellation) error {
	const q = `INSERT INTO lesson_cancellations (id, lesson_id, canceled_by, is_late, note)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, c.ID, c.LessonID, string(c.CanceledBy), c.IsLate, c.Note)
	return err
}

// LessonDetail is the tutor-facing list/detail projection: the lesson plus
// its subject label, payment status and, when canceled, the audit fields.
type LessonDetail struct {
	model.Lesson
	LessonLabel   string              `json:"lesson_label"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	CanceledBy    *string             `json:"canceled_by,omitempty"`
	IsLate        *bool               `json:"is_late,omitempty"`
}

// ListByTutor returns the tutor's lessons newest first, optionally filtered
// by status.  When no lessons exist, an empty slice is returned.
func (r *LessonRepo) ListByTutor(ctx context.Context, tutorID string, status model.LessonStatus) ([]LessonDetail, error) {
	q := `SELECT l.id, l.tutor_id, l.lesson_type_id, l.student_name, l.level, l.note,
	             l.duration_minutes, l.price_amount, l.status, l.requested_start_at,
	             l.confirmed_start_at, l.created_at, l.updated_at,
	             lt.label, lp.payment_status, lc.canceled_by, lc.is_late
	      FROM lessons l
	      JOIN lesson_types lt ON lt.id = l.lesson_type_id
	      JOIN lesson_payments lp ON lp.lesson_id = l.id
	      LEFT JOIN lesson_cancellations lc ON lc.lesson_id = l.id
	      WHERE l.tutor_id = ?`
	args := []any{tutorID}
	if status != "" {
		q += ` AND l.status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY l.created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LessonDetail, 0)
	for rows.Next() {
		var d LessonDetail
		var level, note sql.NullString
		var confirmed sql.NullTime
		var canceledBy sql.NullString
		var isLate sql.NullBool
		if err := rows.Scan(
			&d.ID, &d.TutorID, &d.LessonTypeID, &d.StudentName, &level, &note,
			&d.DurationMinutes, &d.PriceAmount, &d.Status, &d.RequestedStartAt,
			&confirmed, &d.CreatedAt, &d.UpdatedAt,
			&d.LessonLabel, &d.PaymentStatus, &canceledBy, &isLate,
		); err != nil {
			return nil, err
		}
		if level.Valid {
			v := level.String
			d.Level = &v
		}
		if note.Valid {
			v := note.String
			d.Note = &v
		}
		if confirmed.Valid {
			t := confirmed.Time.UTC()
			d.ConfirmedStartAt = &t
		}
		if canceledBy.Valid {
			v := canceledBy.String
			d.CanceledBy = &v
		}
		if isLate.Valid {
			v := isLate.Bool
			d.IsLate = &v
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// WeekSession is a lesson projected onto the weekly availability grid.
// Only the fields the grid needs are exposed: no parent contact data leaks
// into the tutor calendar payload.
type WeekSession struct {
	LessonID    string
	Status      model.LessonStatus
	LessonLabel string
	StudentName string
	StartAt     time.Time
}

// WeekSessions returns requested and confirmed lessons starting within
// [weekStart, weekStart+7d), ordered by start time.
func (r *LessonRepo) WeekSessions(ctx context.Context, tutorID string, weekStart time.Time) ([]WeekSession, error) {
	const q = `SELECT l.id, l.status, lt.label, l.student_name,
	                  COALESCE(l.confirmed_start_at, l.requested_start_at)
	           FROM lessons l
	           JOIN lesson_types lt ON lt.id = l.lesson_type_id
	           WHERE l.tutor_id = ?
	             AND l.status IN ('requested', 'confirmed')
	             AND COALESCE(l.confirmed_start_at, l.requested_start_at) >= ?
	             AND COALESCE(l.confirmed_start_at, l.requested_start_at) < ?
	           ORDER BY COALESCE(l.confirmed_start_at, l.requested_start_at)`
	weekStart = weekStart.UTC()
	rows, err := r.db.QueryContext(ctx, q, tutorID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]WeekSession, 0)
	for rows.Next() {
		var s WeekSession
		if err := rows.Scan(&s.LessonID, &s.Status, &s.LessonLabel, &s.StudentName, &s.StartAt); err != nil {
			return nil, err
		}
		s.StartAt = s.StartAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// requireRow converts a zero-rows-affected result into ErrConflict.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
