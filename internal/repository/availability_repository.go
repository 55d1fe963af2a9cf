package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/rizqapp/rizq-server/internal/model"
)

// AvailabilityRepo persists the tutor's recurring weekly template.
type AvailabilityRepo struct {
	db *sql.DB
}

// NewAvailabilityRepo returns a new AvailabilityRepo bound to the given
// database.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

// ReplaceAll swaps the tutor's entire template in one transaction.  The
// grid editor always submits the full set of selected slots, so
// delete-then-insert is simpler and just as correct as diffing.
func (r *AvailabilityRepo) ReplaceAll(ctx context.Context, tutorID string, slots []model.AvailabilitySlot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tutor_availability WHERE tutor_id = ?`, tutorID); err != nil {
		return err
	}
	const ins = `INSERT INTO tutor_availability (id, tutor_id, day_of_week, start_time_local, end_time_local)
	             VALUES (?, ?, ?, ?, ?)`
	for _, s := range slots {
		if _, err := tx.ExecContext(ctx, ins, uuid.NewString(), tutorID, s.DayOfWeek, s.StartTimeLocal, s.EndTimeLocal); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListByTutor returns the template ordered by day then start time.
func (r *AvailabilityRepo) ListByTutor(ctx context.Context, tutorID string) ([]model.AvailabilitySlot, error) {
	const q = `SELECT day_of_week, start_time_local, end_time_local
	           FROM tutor_availability
	           WHERE tutor_id = ?
	           ORDER BY day_of_week, start_time_local`
	rows, err := r.db.QueryContext(ctx, q, tutorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.AvailabilitySlot, 0)
	for rows.Next() {
		var s model.AvailabilitySlot
		if err := rows.Scan(&s.DayOfWeek, &s.StartTimeLocal, &s.EndTimeLocal); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
